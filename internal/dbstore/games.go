package dbstore

import "github.com/pixellobby/arcade/pkg/protocol"

// UploadInput carries the fields a Games.upload action may set. A nil
// VersionInfo means no version entry is appended.
type UploadInput struct {
	GameID      string
	Author      string
	Name        string
	Description string
	Type        string
	MinPlayers  int
	MaxPlayers  int
	VersionInfo *VersionEntry
}

// Upload creates or updates a Game:
//
//   - if the game-id does not exist, create it from the supplied metadata,
//     empty versions, zero ratings, is_active=true.
//   - if it exists, overwrite the supplied metadata keys (preserving
//     ratings, versions, reviews) and force is_active=true.
//   - if VersionInfo is supplied, append it and update latest_version.
func (s *Store) Upload(in UploadInput) (*Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, exists := s.doc.Games[in.GameID]
	if !exists {
		g = &Game{
			GameID:   in.GameID,
			Versions: []VersionEntry{},
		}
		s.doc.Games[in.GameID] = g
	}

	g.Author = in.Author
	g.Name = in.Name
	g.Description = in.Description
	g.Type = in.Type
	g.MinPlayers = in.MinPlayers
	g.MaxPlayers = in.MaxPlayers
	g.IsActive = true

	if in.VersionInfo != nil {
		entry := *in.VersionInfo
		entry.Timestamp = s.doc.nextID("timestamp")
		g.Versions = append(g.Versions, entry)
		g.LatestVersion = entry.Version
	}

	s.persist()
	cp := *g
	return &cp, nil
}

// ListGames returns games, filtered to is_active unless includeInactive.
func (s *Store) ListGames(includeInactive bool) []*Game {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Game, 0, len(s.doc.Games))
	for _, g := range s.doc.Games {
		if !includeInactive && !g.IsActive {
			continue
		}
		cp := *g
		out = append(out, &cp)
	}
	return out
}

// ListGamesByAuthor returns all games (including inactive) owned by author,
// per the Developer service's LIST_MY_GAMES command.
func (s *Store) ListGamesByAuthor(author string) []*Game {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Game, 0)
	for _, g := range s.doc.Games {
		if g.Author == author {
			cp := *g
			out = append(out, &cp)
		}
	}
	return out
}

// SetActive flips a game's is_active flag. Fails NOT_FOUND.
func (s *Store) SetActive(gameID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.doc.Games[gameID]
	if !ok {
		return &ActionError{Reason: protocol.ReasonNotFound}
	}
	g.IsActive = active
	s.persist()
	return nil
}

// GetGame returns one game by id, or NOT_FOUND/GAME_NOT_FOUND depending on
// caller context; callers that need GAME_NOT_FOUND should translate NOT_FOUND
// themselves (Lobby flows use that more specific code).
func (s *Store) GetGame(gameID string) (*Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.doc.Games[gameID]
	if !ok {
		return nil, &ActionError{Reason: protocol.ReasonNotFound}
	}
	cp := *g
	return &cp, nil
}
