package developer

import (
	"log/slog"

	"github.com/pixellobby/arcade/pkg/frame"
	"github.com/pixellobby/arcade/pkg/protocol"
)

const (
	cmdLogin       = "LOGIN"
	cmdRegister    = "REGISTER"
	cmdUploadInit  = "UPLOAD_INIT"
	cmdListMyGames = "LIST_MY_GAMES"
	cmdOffshelf    = "OFFSHELF"
	cmdListReviews = "LIST_REVIEWS"
)

// dispatch routes one envelope to its command handler. handled=false means
// the handler already wrote its own response frame(s) to c (UPLOAD_INIT's
// multi-phase exchange); handled=true means the caller should write resp.
func (s *Service) dispatch(log *slog.Logger, c *frame.Conn, sess *Session, typ string, data map[string]any) (resp map[string]any, handled bool, err error) {
	switch typ {
	case cmdLogin:
		return s.handleLogin(sess, data), true, nil
	case cmdRegister:
		return s.handleRegister(data), true, nil
	case cmdUploadInit:
		if werr := s.handleUploadInit(log, c, sess, data); werr != nil {
			return nil, false, werr
		}
		return nil, false, nil
	case cmdListMyGames:
		return s.handleListMyGames(sess), true, nil
	case cmdOffshelf:
		return s.handleOffshelf(sess, data), true, nil
	case cmdListReviews:
		return s.handleListReviews(data), true, nil
	default:
		return protocol.Fail(typ, protocol.ReasonUnknownCmd), true, nil
	}
}

func (s *Service) handleLogin(sess *Session, data map[string]any) map[string]any {
	user, _ := data["user"].(string)
	password, _ := data["password"].(string)

	resp, err := s.db.Call(protocol.CollectionUsersDev, protocol.ActionAuth, map[string]any{
		"username": user, "password": password,
	})
	if err != nil {
		return protocol.Fail(cmdLogin, protocol.ReasonDBError)
	}
	if ok, _ := resp["ok"].(bool); !ok {
		reason, _ := resp["reason"].(string)
		return protocol.Fail(cmdLogin, protocol.Reason(reason))
	}

	sess.Username = user
	return protocol.OK(cmdLogin, nil)
}

func (s *Service) handleRegister(data map[string]any) map[string]any {
	user, _ := data["user"].(string)
	password, _ := data["password"].(string)

	resp, err := s.db.Call(protocol.CollectionUsersDev, protocol.ActionRegister, map[string]any{
		"username": user, "password": password,
	})
	if err != nil {
		return protocol.Fail(cmdRegister, protocol.ReasonDBError)
	}
	if ok, _ := resp["ok"].(bool); !ok {
		reason, _ := resp["reason"].(string)
		return protocol.Fail(cmdRegister, protocol.Reason(reason))
	}
	return protocol.OK(cmdRegister, nil)
}

func (s *Service) handleListMyGames(sess *Session) map[string]any {
	if !sess.Authenticated() {
		return protocol.Fail(cmdListMyGames, protocol.ReasonNotAuthenticated)
	}

	resp, err := s.db.Call(protocol.CollectionGames, protocol.ActionList, map[string]any{
		"author": sess.Username,
	})
	if err != nil {
		return protocol.Fail(cmdListMyGames, protocol.ReasonDBError)
	}
	if ok, _ := resp["ok"].(bool); !ok {
		reason, _ := resp["reason"].(string)
		return protocol.Fail(cmdListMyGames, protocol.Reason(reason))
	}
	return protocol.OK(cmdListMyGames, map[string]any{"games": resp["games"]})
}

func (s *Service) handleOffshelf(sess *Session, data map[string]any) map[string]any {
	if !sess.Authenticated() {
		return protocol.Fail(cmdOffshelf, protocol.ReasonNotAuthenticated)
	}
	gameID, _ := data["game_id"].(string)

	getResp, err := s.db.Call(protocol.CollectionGames, protocol.ActionGet, map[string]any{"game_id": gameID})
	if err != nil {
		return protocol.Fail(cmdOffshelf, protocol.ReasonDBError)
	}
	if ok, _ := getResp["ok"].(bool); !ok {
		return protocol.Fail(cmdOffshelf, protocol.ReasonGameNotFound)
	}

	// A developer may only take their own game offshelf.
	author, _ := getResp["author"].(string)
	if author != sess.Username {
		return protocol.Fail(cmdOffshelf, protocol.ReasonNotOwner)
	}

	setResp, err := s.db.Call(protocol.CollectionGames, protocol.ActionSetActive, map[string]any{
		"game_id": gameID, "is_active": false,
	})
	if err != nil {
		return protocol.Fail(cmdOffshelf, protocol.ReasonDBError)
	}
	if ok, _ := setResp["ok"].(bool); !ok {
		reason, _ := setResp["reason"].(string)
		return protocol.Fail(cmdOffshelf, protocol.Reason(reason))
	}
	return protocol.OK(cmdOffshelf, nil)
}

func (s *Service) handleListReviews(data map[string]any) map[string]any {
	gameID, _ := data["game_id"].(string)

	resp, err := s.db.Call(protocol.CollectionReviews, protocol.ActionList, map[string]any{"game_id": gameID})
	if err != nil {
		return protocol.Fail(cmdListReviews, protocol.ReasonDBError)
	}
	return protocol.OK(cmdListReviews, map[string]any{"reviews": resp["reviews"]})
}
