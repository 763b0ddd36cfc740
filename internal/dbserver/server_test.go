package dbserver

import (
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixellobby/arcade/internal/dbstore"
	"github.com/pixellobby/arcade/pkg/frame"
	"github.com/pixellobby/arcade/pkg/protocol"
)

func TestServeRegisterAuthOverLoopback(t *testing.T) {
	store, err := dbstore.Open(filepath.Join(t.TempDir(), "db.json"), nil)
	require.NoError(t, err)

	srv := New(store, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv.listener = ln
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go srv.handle(conn)
		}
	}()
	defer srv.Close()

	clientConn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer clientConn.Close()
	client := frame.NewConn(clientConn)

	require.NoError(t, client.WriteJSON(protocol.DBRequest{
		Collection: protocol.CollectionUsersDev,
		Action:     protocol.ActionRegister,
		Data:       map[string]any{"username": "alice", "password": "p"},
	}))
	var resp map[string]any
	require.NoError(t, client.ReadJSON(&resp))
	assert.Equal(t, true, resp["ok"])

	require.NoError(t, client.WriteJSON(protocol.DBRequest{
		Collection: protocol.CollectionUsersDev,
		Action:     protocol.ActionAuth,
		Data:       map[string]any{"username": "alice", "password": "wrong"},
	}))
	require.NoError(t, client.ReadJSON(&resp))
	assert.Equal(t, false, resp["ok"])
	assert.Equal(t, "WRONG_PASSWORD", resp["reason"])
}

func TestDispatchUnknownCollection(t *testing.T) {
	store, err := dbstore.Open(filepath.Join(t.TempDir(), "db.json"), nil)
	require.NoError(t, err)
	srv := New(store, nil)
	resp := srv.dispatch(srv.log, protocol.DBRequest{Collection: "Bogus", Action: "x"})
	assert.Equal(t, false, resp["ok"])
	assert.Equal(t, "UNKNOWN_CMD", resp["reason"])
}
