package lobby

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// roomTokenTTL bounds how long a minted room token remains valid; the game
// server child treats the token as opaque, so expiry only matters to a
// client that waits too long before connecting.
const roomTokenTTL = 10 * time.Minute

// tokenMinter signs short-lived room tokens with a per-process secret
// rather than a shared signing key, since each Lobby process owns its own
// rooms exclusively.
type tokenMinter struct {
	secret []byte
}

func newTokenMinter(secret []byte) *tokenMinter {
	return &tokenMinter{secret: secret}
}

// mint signs a token binding roomID, opaque to everything but this process.
func (m *tokenMinter) mint(roomID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"room_id": roomID,
		"iat":     now.Unix(),
		"exp":     now.Add(roomTokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("lobby: signing room token: %w", err)
	}
	return signed, nil
}
