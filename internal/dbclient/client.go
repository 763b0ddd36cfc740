// Package dbclient implements the short-lived, per-request connection the
// Developer and Lobby services open to the DB service.
package dbclient

import (
	"fmt"
	"net"

	"github.com/pixellobby/arcade/pkg/frame"
	"github.com/pixellobby/arcade/pkg/protocol"
)

// Client dials addr fresh for every Call: one connection per request
// against the DB service, held open only for the request's duration.
type Client struct {
	addr string
}

// New returns a client targeting the DB service at addr.
func New(addr string) *Client {
	return &Client{addr: addr}
}

// Call opens a connection, sends one {collection, action, data} request,
// reads the {ok, ...} reply, and closes the connection.
func (c *Client) Call(collection, action string, data map[string]any) (protocol.DBResponse, error) {
	conn, err := net.Dial("tcp", c.addr)
	if err != nil {
		return nil, fmt.Errorf("dbclient: dialing %s: %w", c.addr, err)
	}
	defer conn.Close()

	fc := frame.NewConn(conn)
	req := protocol.DBRequest{Collection: collection, Action: action, Data: data}
	if err := fc.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("dbclient: writing request: %w", err)
	}

	var resp protocol.DBResponse
	if err := fc.ReadJSON(&resp); err != nil {
		return nil, fmt.Errorf("dbclient: reading response: %w", err)
	}
	return resp, nil
}

// Ok reports whether resp represents a successful DB reply.
func Ok(resp protocol.DBResponse) bool {
	ok, _ := resp["ok"].(bool)
	return ok
}

// Reason extracts the failure reason from a failed DB reply.
func Reason(resp protocol.DBResponse) string {
	r, _ := resp["reason"].(string)
	return r
}
