package dbserver

import (
	"log/slog"

	"github.com/pixellobby/arcade/internal/dbstore"
	"github.com/pixellobby/arcade/pkg/protocol"
)

// dispatch routes one request to the matching collection/action handler.
// Unknown collection/action combinations fail UNKNOWN_CMD.
func (s *Server) dispatch(log *slog.Logger, req protocol.DBRequest) protocol.DBResponse {
	switch req.Collection {
	case protocol.CollectionUsersDev:
		return s.dispatchUsersDev(req)
	case protocol.CollectionUsersPlayer:
		return s.dispatchUsersPlayer(req)
	case protocol.CollectionGames:
		return s.dispatchGames(req)
	case protocol.CollectionReviews:
		return s.dispatchReviews(req)
	default:
		log.Warn("dbserver: unknown collection", "collection", req.Collection, "action", req.Action)
		return protocol.DBFail(protocol.ReasonUnknownCmd)
	}
}

func str(data map[string]any, key string) string {
	v, _ := data[key].(string)
	return v
}

func intOf(data map[string]any, key string) int {
	switch v := data[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func boolOf(data map[string]any, key string) bool {
	v, _ := data[key].(bool)
	return v
}

func (s *Server) dispatchUsersDev(req protocol.DBRequest) protocol.DBResponse {
	switch req.Action {
	case protocol.ActionRegister:
		if err := s.store.RegisterDev(str(req.Data, "username"), str(req.Data, "password")); err != nil {
			return protocol.DBFail(dbstore.ReasonOf(err))
		}
		return protocol.DBOk(nil)

	case protocol.ActionAuth:
		if err := s.store.AuthDev(str(req.Data, "username"), str(req.Data, "password")); err != nil {
			return protocol.DBFail(dbstore.ReasonOf(err))
		}
		return protocol.DBOk(nil)

	case protocol.ActionGet:
		u, err := s.store.GetDev(str(req.Data, "username"))
		if err != nil {
			return protocol.DBFail(dbstore.ReasonOf(err))
		}
		return protocol.DBOk(map[string]any{
			"username":   u.Username,
			"created_at": u.CreatedAt,
		})

	default:
		return protocol.DBFail(protocol.ReasonUnknownCmd)
	}
}

func (s *Server) dispatchUsersPlayer(req protocol.DBRequest) protocol.DBResponse {
	switch req.Action {
	case protocol.ActionRegister:
		if err := s.store.RegisterPlayer(str(req.Data, "username"), str(req.Data, "password")); err != nil {
			return protocol.DBFail(dbstore.ReasonOf(err))
		}
		return protocol.DBOk(nil)

	case protocol.ActionAuth:
		history, err := s.store.AuthPlayer(str(req.Data, "username"), str(req.Data, "password"))
		if err != nil {
			return protocol.DBFail(dbstore.ReasonOf(err))
		}
		return protocol.DBOk(map[string]any{"play_history": history})

	case protocol.ActionRecordPlay:
		if err := s.store.RecordPlay(str(req.Data, "username"), str(req.Data, "game_id")); err != nil {
			return protocol.DBFail(dbstore.ReasonOf(err))
		}
		return protocol.DBOk(nil)

	case protocol.ActionGet:
		u, err := s.store.GetPlayer(str(req.Data, "username"))
		if err != nil {
			return protocol.DBFail(dbstore.ReasonOf(err))
		}
		return protocol.DBOk(map[string]any{
			"username":     u.Username,
			"created_at":   u.CreatedAt,
			"play_history": u.PlayHistory,
		})

	default:
		return protocol.DBFail(protocol.ReasonUnknownCmd)
	}
}

func (s *Server) dispatchGames(req protocol.DBRequest) protocol.DBResponse {
	switch req.Action {
	case protocol.ActionUpload:
		in := dbstore.UploadInput{
			GameID:      str(req.Data, "game_id"),
			Author:      str(req.Data, "author"),
			Name:        str(req.Data, "name"),
			Description: str(req.Data, "description"),
			Type:        str(req.Data, "type"),
			MinPlayers:  intOf(req.Data, "min_players"),
			MaxPlayers:  intOf(req.Data, "max_players"),
		}
		if vi, ok := req.Data["version_info"].(map[string]any); ok {
			in.VersionInfo = &dbstore.VersionEntry{
				Version:   str(vi, "version"),
				FilePath:  str(vi, "file_path"),
				Timestamp: int64(intOf(vi, "timestamp")),
			}
		}
		g, err := s.store.Upload(in)
		if err != nil {
			return protocol.DBFail(dbstore.ReasonOf(err))
		}
		return protocol.DBOk(gameToMap(g))

	case protocol.ActionList:
		var games []*dbstore.Game
		if author := str(req.Data, "author"); author != "" {
			games = s.store.ListGamesByAuthor(author)
		} else {
			games = s.store.ListGames(boolOf(req.Data, "include_inactive"))
		}
		out := make([]map[string]any, 0, len(games))
		for _, g := range games {
			out = append(out, gameToMap(g))
		}
		return protocol.DBOk(map[string]any{"games": out})

	case protocol.ActionSetActive:
		if err := s.store.SetActive(str(req.Data, "game_id"), boolOf(req.Data, "is_active")); err != nil {
			return protocol.DBFail(dbstore.ReasonOf(err))
		}
		return protocol.DBOk(nil)

	case protocol.ActionGet:
		g, err := s.store.GetGame(str(req.Data, "game_id"))
		if err != nil {
			return protocol.DBFail(dbstore.ReasonOf(err))
		}
		return protocol.DBOk(gameToMap(g))

	default:
		return protocol.DBFail(protocol.ReasonUnknownCmd)
	}
}

func (s *Server) dispatchReviews(req protocol.DBRequest) protocol.DBResponse {
	switch req.Action {
	case protocol.ActionSubmit:
		r, err := s.store.SubmitReview(
			str(req.Data, "game_id"),
			str(req.Data, "player"),
			intOf(req.Data, "rating"),
			str(req.Data, "comment"),
		)
		if err != nil {
			return protocol.DBFail(dbstore.ReasonOf(err))
		}
		return protocol.DBOk(map[string]any{
			"id": r.ID, "game_id": r.GameID, "player": r.Player,
			"rating": r.Rating, "comment": r.Comment, "timestamp": r.Timestamp,
		})

	case protocol.ActionList:
		reviews := s.store.ListReviews(str(req.Data, "game_id"))
		out := make([]map[string]any, 0, len(reviews))
		for _, r := range reviews {
			out = append(out, map[string]any{
				"id": r.ID, "game_id": r.GameID, "player": r.Player,
				"rating": r.Rating, "comment": r.Comment, "timestamp": r.Timestamp,
			})
		}
		return protocol.DBOk(map[string]any{"reviews": out})

	default:
		return protocol.DBFail(protocol.ReasonUnknownCmd)
	}
}

func gameToMap(g *dbstore.Game) map[string]any {
	versions := make([]map[string]any, 0, len(g.Versions))
	for _, v := range g.Versions {
		versions = append(versions, map[string]any{
			"version": v.Version, "file_path": v.FilePath, "timestamp": v.Timestamp,
		})
	}
	avg := 0.0
	if g.RatingCount > 0 {
		avg = float64(g.RatingSum) / float64(g.RatingCount)
	}
	return map[string]any{
		"game_id":        g.GameID,
		"author":         g.Author,
		"name":           g.Name,
		"description":    g.Description,
		"type":           g.Type,
		"min_players":    g.MinPlayers,
		"max_players":    g.MaxPlayers,
		"latest_version": g.LatestVersion,
		"versions":       versions,
		"rating_sum":     g.RatingSum,
		"rating_count":   g.RatingCount,
		"average_rating": avg,
		"is_active":      g.IsActive,
	}
}
