package lobby

import (
	"os/exec"

	"github.com/pixellobby/arcade/internal/bundle"
	"github.com/pixellobby/arcade/pkg/protocol"
)

// gameInfo is the subset of a DB Games row the Room state machine needs.
type gameInfo struct {
	gameID        string
	latestVersion string
	minPlayers    int
	maxPlayers    int
}

func (l *Lobby) fetchGame(gameID string) (*gameInfo, protocol.Reason, error) {
	resp, err := l.db.Call(protocol.CollectionGames, protocol.ActionGet, map[string]any{"game_id": gameID})
	if err != nil {
		return nil, protocol.ReasonDBError, err
	}
	if ok, _ := resp["ok"].(bool); !ok {
		return nil, protocol.ReasonGameNotFound, nil
	}
	minP, _ := resp["min_players"].(float64)
	maxP, _ := resp["max_players"].(float64)
	latest, _ := resp["latest_version"].(string)
	return &gameInfo{
		gameID:        gameID,
		latestVersion: latest,
		minPlayers:    int(minP),
		maxPlayers:    int(maxP),
	}, "", nil
}

func (l *Lobby) recordPlay(username, gameID string) {
	if _, err := l.db.Call(protocol.CollectionUsersPlayer, protocol.ActionRecordPlay, map[string]any{
		"username": username, "game_id": gameID,
	}); err != nil {
		l.log.Error("lobby: recording play history failed", "user", username, "game_id", gameID, "error", err)
	}
}

// createRoom fetches and validates the game, allocates an id/port/token,
// spawns the child, and registers the room in WAITING with the host as its
// sole player.
func (l *Lobby) createRoom(host, gameID, gameVersion string) (*Room, protocol.Reason, error) {
	game, reason, err := l.fetchGame(gameID)
	if err != nil {
		return nil, protocol.ReasonDBError, err
	}
	if reason != "" {
		return nil, reason, nil
	}
	if gameVersion != game.latestVersion {
		return nil, protocol.ReasonVersionMismatch, nil
	}

	versionDir := bundle.VersionDir(l.storageRoot, gameID, gameVersion)
	manifest, err := bundle.LoadManifest(versionDir)
	if err != nil {
		return nil, protocol.ReasonLaunchFail, nil
	}

	roomID, err := randomHex(4)
	if err != nil {
		return nil, "", err
	}
	token, err := l.minter.mint(roomID)
	if err != nil {
		return nil, "", err
	}

	l.mu.Lock()
	port, perr := allocatePort(l.portLow, l.portHigh, l.usedPortsLocked())
	l.mu.Unlock()
	if perr != nil {
		return nil, protocol.ReasonLaunchFail, nil
	}

	cmd, err := spawnChild(manifest, versionDir, port, token, roomID)
	if err != nil {
		if l.metrics != nil {
			l.metrics.LaunchFailuresTotal.Inc()
		}
		return nil, protocol.ReasonLaunchFail, nil
	}

	room := &Room{
		ID:          roomID,
		GameID:      gameID,
		GameVersion: gameVersion,
		MinPlayers:  game.minPlayers,
		MaxPlayers:  game.maxPlayers,
		Status:      RoomWaiting,
		Host:        host,
		Players:     []string{host},
		Port:        port,
		Token:       token,
		cmd:         cmd,
		waitDone:    make(chan struct{}),
	}

	l.mu.Lock()
	l.rooms[roomID] = room
	l.mu.Unlock()

	superviseChild(cmd, room.waitDone, func(_ error) {
		l.onChildExit(roomID)
	})

	l.setOnlineStatus(host, inRoomStatus(roomID))
	l.recordPlay(host, gameID)

	if l.metrics != nil {
		l.metrics.RoomsCreatedTotal.Inc()
		l.metrics.RoomsActive.Inc()
		l.metrics.RoomTransitions.WithLabelValues(string(RoomWaiting)).Inc()
	}

	return room, "", nil
}

// joinRoom adds username to a WAITING room, rejecting a full room, a room
// that has already started, or a game-version mismatch.
func (l *Lobby) joinRoom(username, roomID, gameVersion string) (*Room, protocol.Reason, error) {
	l.mu.Lock()
	room, ok := l.rooms[roomID]
	l.mu.Unlock()
	if !ok {
		return nil, protocol.ReasonRoomNotFound, nil
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.Status == RoomClosed {
		return nil, protocol.ReasonRoomNotFound, nil
	}
	if gameVersion != room.GameVersion {
		return nil, protocol.ReasonVersionMismatch, nil
	}
	if len(room.Players) >= room.MaxPlayers {
		return nil, protocol.ReasonRoomFull, nil
	}
	if room.Status != RoomWaiting {
		return nil, protocol.ReasonGameAlreadyStarted, nil
	}

	room.Players = append(room.Players, username)
	l.setOnlineStatus(username, inRoomStatus(roomID))
	l.recordPlay(username, room.GameID)

	return room, "", nil
}

// startGame transitions a WAITING room to PLAYING once the host requests
// it and enough players have joined.
func (l *Lobby) startGame(username, roomID string) (*Room, protocol.Reason, error) {
	l.mu.Lock()
	room, ok := l.rooms[roomID]
	l.mu.Unlock()
	if !ok {
		return nil, protocol.ReasonRoomNotFound, nil
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.Status == RoomClosed {
		return nil, protocol.ReasonRoomNotFound, nil
	}
	if room.Host != username {
		return nil, protocol.ReasonNotHost, nil
	}
	if len(room.Players) < room.MinPlayers {
		return nil, protocol.ReasonNeedMorePlayers, nil
	}

	room.Status = RoomPlaying
	for _, p := range room.Players {
		l.setOnlineStatus(p, statusPlaying)
	}

	if l.metrics != nil {
		l.metrics.RoomTransitions.WithLabelValues(string(RoomPlaying)).Inc()
	}

	return room, "", nil
}

// leaveRoom removes username from roomID. If the leaver is the host, or the
// room becomes empty, the child is terminated and the room is destroyed;
// otherwise the leaver is simply removed.
func (l *Lobby) leaveRoom(username, roomID string) protocol.Reason {
	l.mu.Lock()
	room, ok := l.rooms[roomID]
	l.mu.Unlock()
	if !ok {
		return protocol.ReasonRoomNotFound
	}

	room.mu.Lock()
	if !room.hasPlayer(username) {
		room.mu.Unlock()
		return protocol.ReasonRoomNotFound
	}
	room.removePlayer(username)
	isHost := room.Host == username
	empty := len(room.Players) == 0
	cmd, waitDone := room.cmd, room.waitDone
	room.mu.Unlock()

	l.setOnlineStatus(username, statusIdle)

	if isHost || empty {
		l.destroyRoom(roomID, cmd, waitDone)
	}
	return ""
}

// onChildExit fires whenever and however the child exits: the room is
// destroyed and every member's status resets to Idle.
func (l *Lobby) onChildExit(roomID string) {
	l.mu.Lock()
	room, ok := l.rooms[roomID]
	l.mu.Unlock()
	if !ok {
		return
	}

	room.mu.Lock()
	members := append([]string(nil), room.Players...)
	room.Status = RoomClosed
	room.mu.Unlock()

	for _, m := range members {
		l.setOnlineStatus(m, statusIdle)
	}

	l.mu.Lock()
	delete(l.rooms, roomID)
	l.mu.Unlock()

	if l.metrics != nil {
		l.metrics.RoomsActive.Dec()
		l.metrics.RoomTransitions.WithLabelValues(string(RoomClosed)).Inc()
	}

	l.log.Info("lobby: room destroyed on child exit", "room_id", roomID)
}

// disconnectPlayer removes the user from the online map, destroys any room
// where they were host, and silently removes them from rooms where they
// were a guest.
func (l *Lobby) disconnectPlayer(username string) {
	l.mu.Lock()
	delete(l.online, username)
	if l.metrics != nil {
		l.metrics.PlayersOnline.Set(float64(len(l.online)))
	}
	rooms := make([]*Room, 0, len(l.rooms))
	for _, r := range l.rooms {
		rooms = append(rooms, r)
	}
	l.mu.Unlock()

	for _, room := range rooms {
		room.mu.Lock()
		member := room.hasPlayer(username)
		isHost := room.Host == username
		if member {
			room.removePlayer(username)
		}
		cmd, waitDone := room.cmd, room.waitDone
		roomID := room.ID
		room.mu.Unlock()

		if !member {
			continue
		}
		if isHost {
			l.destroyRoom(roomID, cmd, waitDone)
		}
	}
}

// destroyRoom removes the room from the registry, resets every remaining
// member's status to Idle, and terminates the child (if still running).
// onChildExit also fires once Wait() returns in response to the
// termination, but deleting the room here first makes that a no-op lookup
// miss rather than a double-teardown.
func (l *Lobby) destroyRoom(roomID string, cmd *exec.Cmd, waitDone chan struct{}) {
	l.mu.Lock()
	room := l.rooms[roomID]
	delete(l.rooms, roomID)
	l.mu.Unlock()

	if room != nil {
		room.mu.Lock()
		members := append([]string(nil), room.Players...)
		room.Status = RoomClosed
		room.mu.Unlock()
		for _, m := range members {
			l.setOnlineStatus(m, statusIdle)
		}
	}

	if cmd != nil {
		terminateChild(cmd, waitDone)
	}
	if l.metrics != nil {
		l.metrics.RoomsActive.Dec()
		l.metrics.RoomTransitions.WithLabelValues(string(RoomClosed)).Inc()
	}
	l.log.Info("lobby: room destroyed", "room_id", roomID)
}
