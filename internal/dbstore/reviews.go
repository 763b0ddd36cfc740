package dbstore

import (
	"strconv"

	"github.com/pixellobby/arcade/pkg/protocol"
)

// clampRating bounds a submitted rating to [1,5] rather than rejecting an
// out-of-range value outright; see DESIGN.md for the rationale.
func clampRating(rating int) int {
	if rating < 1 {
		return 1
	}
	if rating > 5 {
		return 5
	}
	return rating
}

// SubmitReview creates or mutates a Review:
//
//   - MUST_PLAY_FIRST if the player's play_history lacks game-id.
//   - existing (game,user) review is mutated in place; the owning game's
//     rating_sum is adjusted by new-old, count unchanged.
//   - otherwise a new review id is allocated, appended, count incremented,
//     rating added to sum.
func (s *Store) SubmitReview(gameID, player string, rating int, comment string) (*Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.doc.UsersPlayer[player]
	if !ok {
		return nil, &ActionError{Reason: protocol.ReasonUserNotFound}
	}
	if !u.hasPlayed(gameID) {
		return nil, &ActionError{Reason: protocol.ReasonMustPlayFirst}
	}

	g, ok := s.doc.Games[gameID]
	if !ok {
		return nil, &ActionError{Reason: protocol.ReasonGameNotFound}
	}

	rating = clampRating(rating)

	for _, r := range s.doc.Reviews {
		if r.GameID == gameID && r.Player == player {
			g.RatingSum += rating - r.Rating
			r.Rating = rating
			r.Comment = comment
			r.Timestamp = s.doc.nextID("timestamp")
			s.persist()
			cp := *r
			return &cp, nil
		}
	}

	r := &Review{
		ID:        s.doc.nextID("review"),
		GameID:    gameID,
		Player:    player,
		Rating:    rating,
		Comment:   comment,
		Timestamp: s.doc.nextID("timestamp"),
	}
	key := reviewKey(r.ID)
	s.doc.Reviews[key] = r
	g.RatingCount++
	g.RatingSum += rating

	s.persist()
	cp := *r
	return &cp, nil
}

// ListReviews returns every review for gameID.
func (s *Store) ListReviews(gameID string) []*Review {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Review, 0)
	for _, r := range s.doc.Reviews {
		if r.GameID == gameID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out
}

func reviewKey(id int64) string {
	return "review-" + strconv.FormatInt(id, 10)
}
