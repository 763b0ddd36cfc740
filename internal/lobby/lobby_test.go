package lobby

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixellobby/arcade/internal/dbclient"
	"github.com/pixellobby/arcade/internal/dbserver"
	"github.com/pixellobby/arcade/internal/dbstore"
	"github.com/pixellobby/arcade/pkg/frame"
	"github.com/pixellobby/arcade/pkg/protocol"
)

func dialRetry(t *testing.T, addr string) net.Conn {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for {
		conn, err := net.Dial("tcp", addr)
		if err == nil {
			return conn
		}
		if time.Now().After(deadline) {
			require.NoError(t, err, "dial %s", addr)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func startTestDB(t *testing.T) *dbclient.Client {
	t.Helper()
	store, err := dbstore.Open(filepath.Join(t.TempDir(), "db.json"), nil)
	require.NoError(t, err)
	srv := dbserver.New(store, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	go func() { _ = srv.Serve(addr) }()
	t.Cleanup(func() { srv.Close() })
	dialRetry(t, addr).Close()

	return dbclient.New(addr)
}

// seedGame writes a bundle (manifest whose server_cmd is a harmless sleep,
// so CREATE_ROOM spawns a real, short-lived child) and registers it with
// the DB service directly.
func seedGame(t *testing.T, db *dbclient.Client, storageRoot, gameID, version string, minPlayers, maxPlayers int) {
	t.Helper()
	versionDir := filepath.Join(storageRoot, gameID, version)
	require.NoError(t, os.MkdirAll(versionDir, 0o755))
	manifest := `{"name":"Demo","version":"` + version + `","min_players":0,"max_players":0,"server_cmd":["/bin/sh","-c","sleep 5"],"run_cmd":["./client"]}`
	require.NoError(t, os.WriteFile(filepath.Join(versionDir, "game_config.json"), []byte(manifest), 0o644))

	resp, err := db.Call(protocol.CollectionGames, protocol.ActionUpload, map[string]any{
		"game_id": gameID, "author": "dev1", "name": "Demo", "type": "CLI",
		"min_players": float64(minPlayers), "max_players": float64(maxPlayers),
		"version_info": map[string]any{"version": version, "file_path": filepath.Join(versionDir, "game_"+version+".zip")},
	})
	require.NoError(t, err)
	require.True(t, dbclient.Ok(resp))
}

func startTestLobby(t *testing.T, db *dbclient.Client, storageRoot string) (*Lobby, string) {
	t.Helper()
	l := New(db, storageRoot, []byte("test-secret"), nil)
	srv := NewServer(l, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()
	go func() { _ = srv.Serve(addr) }()
	t.Cleanup(func() { srv.Close() })
	dialRetry(t, addr).Close()
	return l, addr
}

func dialLobby(t *testing.T, addr string) *frame.Conn {
	t.Helper()
	conn := dialRetry(t, addr)
	t.Cleanup(func() { conn.Close() })
	return frame.NewConn(conn)
}

// dialLobbyRaw is like dialLobby but also returns the underlying net.Conn,
// for tests that need to close the connection mid-test (e.g. to exercise
// disconnect cleanup) rather than only at t.Cleanup time.
func dialLobbyRaw(t *testing.T, addr string) (*frame.Conn, net.Conn) {
	t.Helper()
	conn := dialRetry(t, addr)
	t.Cleanup(func() { conn.Close() })
	return frame.NewConn(conn), conn
}

func registerAndLogin(t *testing.T, c *frame.Conn, user string) {
	t.Helper()
	require.NoError(t, c.WriteJSON(map[string]any{"type": "REGISTER", "user": user, "password": "p"}))
	var resp map[string]any
	require.NoError(t, c.ReadJSON(&resp))
	require.Equal(t, "OK", resp["status"])

	require.NoError(t, c.WriteJSON(map[string]any{"type": "LOGIN", "user": user, "password": "p"}))
	require.NoError(t, c.ReadJSON(&resp))
	require.Equal(t, "OK", resp["status"])
}

func TestLobbyCreateJoinStartLeaveRoomFlow(t *testing.T) {
	storageRoot := t.TempDir()
	db := startTestDB(t)
	seedGame(t, db, storageRoot, "demo", "1.0", 2, 3)
	_, addr := startTestLobby(t, db, storageRoot)

	host := dialLobby(t, addr)
	registerAndLogin(t, host, "host1")

	require.NoError(t, host.WriteJSON(map[string]any{
		"type": "CREATE_ROOM", "game_id": "demo", "game_version": "1.0",
	}))
	var resp map[string]any
	require.NoError(t, host.ReadJSON(&resp))
	require.Equal(t, "OK", resp["status"], "expected CREATE_ROOM to succeed, got %+v", resp)
	roomID, _ := resp["room_id"].(string)
	assert.NotEmpty(t, roomID)
	assert.NotEmpty(t, resp["token"])

	guest := dialLobby(t, addr)
	registerAndLogin(t, guest, "guest1")

	require.NoError(t, guest.WriteJSON(map[string]any{
		"type": "JOIN_ROOM", "room_id": roomID, "game_version": "1.0",
	}))
	require.NoError(t, guest.ReadJSON(&resp))
	assert.Equal(t, "OK", resp["status"], "expected JOIN_ROOM to succeed, got %+v", resp)

	require.NoError(t, host.WriteJSON(map[string]any{"type": "ROOM_STATUS", "room_id": roomID}))
	require.NoError(t, host.ReadJSON(&resp))
	require.Equal(t, "OK", resp["status"])
	assert.Equal(t, "WAITING", resp["room_status"])
	players, _ := resp["players"].([]any)
	assert.Len(t, players, 2)

	require.NoError(t, guest.WriteJSON(map[string]any{"type": "START_GAME", "room_id": roomID}))
	require.NoError(t, guest.ReadJSON(&resp))
	assert.Equal(t, "FAIL", resp["status"])
	assert.Equal(t, "NOT_HOST", resp["reason"])

	require.NoError(t, host.WriteJSON(map[string]any{"type": "START_GAME", "room_id": roomID}))
	require.NoError(t, host.ReadJSON(&resp))
	assert.Equal(t, "OK", resp["status"], "expected START_GAME to succeed, got %+v", resp)

	require.NoError(t, guest.WriteJSON(map[string]any{"type": "LEAVE_ROOM", "room_id": roomID}))
	require.NoError(t, guest.ReadJSON(&resp))
	assert.Equal(t, "OK", resp["status"])

	require.NoError(t, host.WriteJSON(map[string]any{"type": "LEAVE_ROOM", "room_id": roomID}))
	require.NoError(t, host.ReadJSON(&resp))
	assert.Equal(t, "OK", resp["status"])

	require.NoError(t, host.WriteJSON(map[string]any{"type": "ROOM_STATUS", "room_id": roomID}))
	require.NoError(t, host.ReadJSON(&resp))
	assert.Equal(t, "FAIL", resp["status"])
	assert.Equal(t, "ROOM_NOT_FOUND", resp["reason"])
}

func TestLobbyStartGameNeedsMorePlayers(t *testing.T) {
	storageRoot := t.TempDir()
	db := startTestDB(t)
	seedGame(t, db, storageRoot, "demo", "1.0", 2, 4)
	_, addr := startTestLobby(t, db, storageRoot)

	host := dialLobby(t, addr)
	registerAndLogin(t, host, "host2")

	require.NoError(t, host.WriteJSON(map[string]any{
		"type": "CREATE_ROOM", "game_id": "demo", "game_version": "1.0",
	}))
	var resp map[string]any
	require.NoError(t, host.ReadJSON(&resp))
	require.Equal(t, "OK", resp["status"])
	roomID, _ := resp["room_id"].(string)

	require.NoError(t, host.WriteJSON(map[string]any{"type": "START_GAME", "room_id": roomID}))
	require.NoError(t, host.ReadJSON(&resp))
	assert.Equal(t, "FAIL", resp["status"])
	assert.Equal(t, "NEED_MORE_PLAYERS", resp["reason"])
}

func TestLobbyCreateRoomVersionMismatch(t *testing.T) {
	storageRoot := t.TempDir()
	db := startTestDB(t)
	seedGame(t, db, storageRoot, "demo", "1.0", 1, 2)
	_, addr := startTestLobby(t, db, storageRoot)

	host := dialLobby(t, addr)
	registerAndLogin(t, host, "host3")

	require.NoError(t, host.WriteJSON(map[string]any{
		"type": "CREATE_ROOM", "game_id": "demo", "game_version": "0.9",
	}))
	var resp map[string]any
	require.NoError(t, host.ReadJSON(&resp))
	assert.Equal(t, "FAIL", resp["status"])
	assert.Equal(t, "VERSION_MISMATCH", resp["reason"])
}

func TestLobbyDuplicateLoginRejected(t *testing.T) {
	storageRoot := t.TempDir()
	db := startTestDB(t)
	_, addr := startTestLobby(t, db, storageRoot)

	first := dialLobby(t, addr)
	registerAndLogin(t, first, "dup1")

	second := dialLobby(t, addr)
	require.NoError(t, second.WriteJSON(map[string]any{"type": "LOGIN", "user": "dup1", "password": "p"}))
	var resp map[string]any
	require.NoError(t, second.ReadJSON(&resp))
	assert.Equal(t, "FAIL", resp["status"])
	assert.Equal(t, "ALREADY_LOGGED_IN", resp["reason"])
}

func TestLobbyHostDisconnectDestroysRoom(t *testing.T) {
	storageRoot := t.TempDir()
	db := startTestDB(t)
	seedGame(t, db, storageRoot, "demo", "1.0", 1, 2)
	l, addr := startTestLobby(t, db, storageRoot)

	host, hostConn := dialLobbyRaw(t, addr)
	registerAndLogin(t, host, "host4")

	require.NoError(t, host.WriteJSON(map[string]any{
		"type": "CREATE_ROOM", "game_id": "demo", "game_version": "1.0",
	}))
	var resp map[string]any
	require.NoError(t, host.ReadJSON(&resp))
	require.Equal(t, "OK", resp["status"])
	roomID, _ := resp["room_id"].(string)

	l.mu.Lock()
	_, exists := l.rooms[roomID]
	l.mu.Unlock()
	require.True(t, exists)

	// Closing the host's connection should trigger disconnectPlayer, which
	// destroys the room since the host is its sole member.
	require.NoError(t, hostConn.Close())

	require.Eventually(t, func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		_, stillThere := l.rooms[roomID]
		return !stillThere
	}, 2*time.Second, 10*time.Millisecond, "expected room to be destroyed after host disconnect")
}
