package lobby

import (
	"log/slog"

	"github.com/pixellobby/arcade/pkg/frame"
	"github.com/pixellobby/arcade/pkg/protocol"
)

const (
	cmdLogin        = "LOGIN"
	cmdRegister     = "REGISTER"
	cmdListGames    = "LIST_GAMES"
	cmdDownloadGame = "DOWNLOAD_GAME"
	cmdSubmitReview = "SUBMIT_REVIEW"
	cmdListReviews  = "LIST_REVIEWS"
	cmdListOnline   = "LIST_ONLINE"
	cmdCreateRoom   = "CREATE_ROOM"
	cmdJoinRoom     = "JOIN_ROOM"
	cmdRoomStatus   = "ROOM_STATUS"
	cmdStartGame    = "START_GAME"
	cmdLeaveRoom    = "LEAVE_ROOM"
)

// dispatch routes one envelope to its command handler. handled=false means
// the handler already wrote its own response frame(s) to c (DOWNLOAD_GAME's
// multi-phase exchange).
func (l *Lobby) dispatch(log *slog.Logger, c *frame.Conn, sess *Session, typ string, data map[string]any) (resp map[string]any, handled bool, err error) {
	switch typ {
	case cmdLogin:
		return l.handleLogin(c, sess, data), true, nil
	case cmdRegister:
		return l.handleRegister(data), true, nil
	case cmdListGames:
		return l.handleListGames(), true, nil
	case cmdDownloadGame:
		if werr := l.handleDownloadGame(log, c, data); werr != nil {
			return nil, false, werr
		}
		return nil, false, nil
	case cmdSubmitReview:
		return l.handleSubmitReview(sess, data), true, nil
	case cmdListReviews:
		return l.handleListReviews(data), true, nil
	case cmdListOnline:
		return l.handleListOnline(), true, nil
	case cmdCreateRoom:
		return l.handleCreateRoom(sess, data), true, nil
	case cmdJoinRoom:
		return l.handleJoinRoom(sess, data), true, nil
	case cmdRoomStatus:
		return l.handleRoomStatus(data), true, nil
	case cmdStartGame:
		return l.handleStartGame(sess, data), true, nil
	case cmdLeaveRoom:
		return l.handleLeaveRoom(sess, data), true, nil
	default:
		return protocol.Fail(typ, protocol.ReasonUnknownCmd), true, nil
	}
}

func (l *Lobby) handleLogin(c *frame.Conn, sess *Session, data map[string]any) map[string]any {
	user, _ := data["user"].(string)
	password, _ := data["password"].(string)

	if l.isOnline(user) {
		return protocol.Fail(cmdLogin, protocol.ReasonAlreadyLoggedIn)
	}

	resp, err := l.db.Call(protocol.CollectionUsersPlayer, protocol.ActionAuth, map[string]any{
		"username": user, "password": password,
	})
	if err != nil {
		return protocol.Fail(cmdLogin, protocol.ReasonDBError)
	}
	if ok, _ := resp["ok"].(bool); !ok {
		reason, _ := resp["reason"].(string)
		return protocol.Fail(cmdLogin, protocol.Reason(reason))
	}

	// The isOnline check above only guards against the common case; a second
	// login racing the DB round-trip above is rejected here, atomically, so
	// at most one of two concurrent logins for the same username wins.
	if !l.tryRegisterOnline(user, c) {
		return protocol.Fail(cmdLogin, protocol.ReasonAlreadyLoggedIn)
	}
	sess.Username = user
	return protocol.OK(cmdLogin, nil)
}

func (l *Lobby) handleRegister(data map[string]any) map[string]any {
	user, _ := data["user"].(string)
	password, _ := data["password"].(string)

	resp, err := l.db.Call(protocol.CollectionUsersPlayer, protocol.ActionRegister, map[string]any{
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

func (l *Lobby) handleListGames() map[string]any {
	resp, err := l.db.Call(protocol.CollectionGames, protocol.ActionList, map[string]any{
		"include_inactive": false,
	})
	if err != nil {
		return protocol.Fail(cmdListGames, protocol.ReasonDBError)
	}
	return protocol.OK(cmdListGames, map[string]any{"games": resp["games"]})
}

func (l *Lobby) handleSubmitReview(sess *Session, data map[string]any) map[string]any {
	if !sess.Authenticated() {
		return protocol.Fail(cmdSubmitReview, protocol.ReasonNotAuthenticated)
	}
	gameID, _ := data["game_id"].(string)
	rating, _ := data["rating"].(float64)
	comment, _ := data["comment"].(string)

	resp, err := l.db.Call(protocol.CollectionReviews, protocol.ActionSubmit, map[string]any{
		"game_id": gameID, "player": sess.Username, "rating": rating, "comment": comment,
	})
	if err != nil {
		return protocol.Fail(cmdSubmitReview, protocol.ReasonDBError)
	}
	if ok, _ := resp["ok"].(bool); !ok {
		reason, _ := resp["reason"].(string)
		return protocol.Fail(cmdSubmitReview, protocol.Reason(reason))
	}
	return protocol.OK(cmdSubmitReview, nil)
}

func (l *Lobby) handleListReviews(data map[string]any) map[string]any {
	gameID, _ := data["game_id"].(string)
	resp, err := l.db.Call(protocol.CollectionReviews, protocol.ActionList, map[string]any{"game_id": gameID})
	if err != nil {
		return protocol.Fail(cmdListReviews, protocol.ReasonDBError)
	}
	return protocol.OK(cmdListReviews, map[string]any{"reviews": resp["reviews"]})
}

func (l *Lobby) handleListOnline() map[string]any {
	return protocol.OK(cmdListOnline, map[string]any{
		"online": l.onlineSnapshot(),
		"rooms":  l.roomsSnapshot(),
	})
}

func (l *Lobby) handleCreateRoom(sess *Session, data map[string]any) map[string]any {
	if !sess.Authenticated() {
		return protocol.Fail(cmdCreateRoom, protocol.ReasonNotAuthenticated)
	}
	gameID, _ := data["game_id"].(string)
	gameVersion, _ := data["game_version"].(string)

	room, reason, err := l.createRoom(sess.Username, gameID, gameVersion)
	if err != nil {
		return protocol.Fail(cmdCreateRoom, protocol.ReasonDBError)
	}
	if reason != "" {
		return protocol.Fail(cmdCreateRoom, reason)
	}
	s := room.snapshot()
	return protocol.OK(cmdCreateRoom, map[string]any{
		"room_id": s.ID, "token": s.Token, "port": s.Port, "host": "127.0.0.1",
	})
}

func (l *Lobby) handleJoinRoom(sess *Session, data map[string]any) map[string]any {
	if !sess.Authenticated() {
		return protocol.Fail(cmdJoinRoom, protocol.ReasonNotAuthenticated)
	}
	roomID, _ := data["room_id"].(string)
	gameVersion, _ := data["game_version"].(string)

	room, reason, err := l.joinRoom(sess.Username, roomID, gameVersion)
	if err != nil {
		return protocol.Fail(cmdJoinRoom, protocol.ReasonDBError)
	}
	if reason != "" {
		return protocol.Fail(cmdJoinRoom, reason)
	}
	s := room.snapshot()
	return protocol.OK(cmdJoinRoom, map[string]any{
		"room_id": s.ID, "token": s.Token, "port": s.Port, "host": "127.0.0.1",
	})
}

func (l *Lobby) handleRoomStatus(data map[string]any) map[string]any {
	roomID, _ := data["room_id"].(string)

	l.mu.Lock()
	room, ok := l.rooms[roomID]
	l.mu.Unlock()
	if !ok {
		return protocol.Fail(cmdRoomStatus, protocol.ReasonRoomNotFound)
	}

	s := room.snapshot()
	if s.Status == RoomClosed {
		return protocol.Fail(cmdRoomStatus, protocol.ReasonRoomNotFound)
	}
	return protocol.OK(cmdRoomStatus, map[string]any{
		"room_status": string(s.Status), "players": s.Players, "min_players": s.MinPlayers,
	})
}

func (l *Lobby) handleStartGame(sess *Session, data map[string]any) map[string]any {
	if !sess.Authenticated() {
		return protocol.Fail(cmdStartGame, protocol.ReasonNotAuthenticated)
	}
	roomID, _ := data["room_id"].(string)

	_, reason, err := l.startGame(sess.Username, roomID)
	if err != nil {
		return protocol.Fail(cmdStartGame, protocol.ReasonDBError)
	}
	if reason != "" {
		return protocol.Fail(cmdStartGame, reason)
	}
	return protocol.OK(cmdStartGame, nil)
}

func (l *Lobby) handleLeaveRoom(sess *Session, data map[string]any) map[string]any {
	if !sess.Authenticated() {
		return protocol.Fail(cmdLeaveRoom, protocol.ReasonNotAuthenticated)
	}
	roomID, _ := data["room_id"].(string)

	if reason := l.leaveRoom(sess.Username, roomID); reason != "" {
		return protocol.Fail(cmdLeaveRoom, reason)
	}
	return protocol.OK(cmdLeaveRoom, nil)
}
