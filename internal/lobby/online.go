package lobby

import "github.com/pixellobby/arcade/pkg/frame"

// onlinePlayer tracks one authenticated player's connection and transient
// status: the frame connection the player logged in on, and a
// human-readable status string (Idle, Playing, or "In Room <id>").
type onlinePlayer struct {
	conn   *frame.Conn
	status string
}

const (
	statusIdle    = "Idle"
	statusPlaying = "Playing"
)

// inRoomStatus formats the "In Room <id>" transient status.
func inRoomStatus(roomID string) string {
	return "In Room " + roomID
}

// setOnlineStatus updates a player's transient status if they are still
// registered online; a no-op otherwise (e.g. they disconnected mid-room).
func (l *Lobby) setOnlineStatus(username, status string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if p, ok := l.online[username]; ok {
		p.status = status
	}
}

// isOnline reports whether username already has a registered session, used
// to reject a second concurrent login for the same username.
func (l *Lobby) isOnline(username string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.online[username]
	return ok
}

// tryRegisterOnline atomically checks-and-registers username as online,
// reporting false (without registering) if another session already holds
// it. Using one locked check-and-set (rather than a separate isOnline check
// followed by a set) means two concurrent logins for the same username
// can't both observe an empty slot and both succeed.
func (l *Lobby) tryRegisterOnline(username string, conn *frame.Conn) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.online[username]; ok {
		return false
	}
	l.online[username] = &onlinePlayer{conn: conn, status: statusIdle}
	if l.metrics != nil {
		l.metrics.PlayersOnline.Set(float64(len(l.online)))
	}
	return true
}

// onlineSnapshot returns a (username, status) view of every online player.
func (l *Lobby) onlineSnapshot() map[string]string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]string, len(l.online))
	for u, p := range l.online {
		out[u] = p.status
	}
	return out
}

// roomsSnapshot returns the public LIST_ONLINE room projection: id,
// game_id, host, player-count, status.
func (l *Lobby) roomsSnapshot() []map[string]any {
	l.mu.Lock()
	rooms := make([]*Room, 0, len(l.rooms))
	for _, r := range l.rooms {
		rooms = append(rooms, r)
	}
	l.mu.Unlock()

	out := make([]map[string]any, 0, len(rooms))
	for _, r := range rooms {
		s := r.snapshot()
		out = append(out, map[string]any{
			"id":      s.ID,
			"game_id": s.GameID,
			"host":    s.Host,
			"players": len(s.Players),
			"status":  string(s.Status),
		})
	}
	return out
}
