package developer

import (
	"archive/zip"
	"bytes"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixellobby/arcade/internal/dbclient"
	"github.com/pixellobby/arcade/internal/dbserver"
	"github.com/pixellobby/arcade/internal/dbstore"
	"github.com/pixellobby/arcade/pkg/frame"
)

// dialRetry dials addr, retrying briefly while the server goroutine is
// still binding its listener.
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

func startTestDB(t *testing.T) string {
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

	return addr
}

func buildZip(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("game_config.json")
	require.NoError(t, err)
	_, err = w.Write([]byte(`{"name":"Demo","version":"1.0","min_players":1,"max_players":2,"server_cmd":["./server"],"run_cmd":["./client"]}`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func dialDeveloper(t *testing.T, addr string) *frame.Conn {
	t.Helper()
	conn := dialRetry(t, addr)
	t.Cleanup(func() { conn.Close() })
	return frame.NewConn(conn)
}

func TestDeveloperUploadFlow(t *testing.T) {
	dbAddr := startTestDB(t)
	db := dbclient.New(dbAddr)

	svc := New(db, t.TempDir(), nil)
	devSrv := NewServer(svc, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()
	go func() { _ = devSrv.Serve(addr) }()
	t.Cleanup(func() { devSrv.Close() })

	c := dialDeveloper(t, addr)

	require.NoError(t, c.WriteJSON(map[string]any{"type": "REGISTER", "user": "alice", "password": "p"}))
	var resp map[string]any
	require.NoError(t, c.ReadJSON(&resp))
	assert.Equal(t, "OK", resp["status"])

	require.NoError(t, c.WriteJSON(map[string]any{"type": "LOGIN", "user": "alice", "password": "p"}))
	require.NoError(t, c.ReadJSON(&resp))
	require.Equal(t, "OK", resp["status"])

	zipData := buildZip(t)
	require.NoError(t, c.WriteJSON(map[string]any{
		"type": "UPLOAD_INIT", "game_id": "demo", "version": "1.0",
		"file_size": float64(len(zipData)),
		"metadata": map[string]any{
			"name": "Demo", "description": "d", "type": "CLI",
			"min_players": float64(1), "max_players": float64(2),
		},
	}))
	require.NoError(t, c.ReadJSON(&resp))
	require.Equal(t, "READY_TO_RECV", resp["status"])

	_, err = c.WriteRaw(bytes.NewReader(zipData), int64(len(zipData)))
	require.NoError(t, err)

	require.NoError(t, c.ReadJSON(&resp))
	require.Equal(t, "OK", resp["status"], "expected UPLOAD_COMPLETE OK, got %+v", resp)

	require.NoError(t, c.WriteJSON(map[string]any{"type": "LIST_MY_GAMES"}))
	require.NoError(t, c.ReadJSON(&resp))
	games, _ := resp["games"].([]any)
	assert.Len(t, games, 1)
}
