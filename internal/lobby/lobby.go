// Package lobby implements the Lobby service: player authentication,
// catalogue browsing, the Room state machine, game-process supervision,
// and review routing.
package lobby

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/pixellobby/arcade/internal/dbclient"
	"github.com/pixellobby/arcade/pkg/metrics"
)

// defaultPortRangeLow/defaultPortRangeHigh bound the reserved range Lobby
// allocates game-server listening ports from by default. A deployment may
// override the range via SetPortRange (wired from
// config.LobbyServiceConfig.RoomPortLow/High).
const (
	defaultPortRangeLow  = 20000
	defaultPortRangeHigh = 29999
)

// Lobby holds the process-wide online-player and room maps. A single mutex
// guards both, making the confinement that a single-threaded event loop
// would give for free explicit instead.
type Lobby struct {
	mu     sync.Mutex
	online map[string]*onlinePlayer
	rooms  map[string]*Room

	db          *dbclient.Client
	storageRoot string
	minter      *tokenMinter
	log         *slog.Logger

	portLow  int
	portHigh int

	metrics *metrics.LobbyServiceMetrics
}

// SetMetrics attaches a metrics set; subsequent online/room transitions are
// instrumented through it.
func (l *Lobby) SetMetrics(m *metrics.LobbyServiceMetrics) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.metrics = m
}

// New builds a Lobby backed by db, resolving bundle paths under
// storageRoot, minting room tokens with tokenSecret.
func New(db *dbclient.Client, storageRoot string, tokenSecret []byte, log *slog.Logger) *Lobby {
	if log == nil {
		log = slog.Default()
	}
	return &Lobby{
		online:      make(map[string]*onlinePlayer),
		rooms:       make(map[string]*Room),
		db:          db,
		storageRoot: storageRoot,
		minter:      newTokenMinter(tokenSecret),
		log:         log,
		portLow:     defaultPortRangeLow,
		portHigh:    defaultPortRangeHigh,
	}
}

// SetPortRange overrides the reserved port range new rooms allocate
// listening ports from. Ignored (leaving the default range in place) if
// low >= high.
func (l *Lobby) SetPortRange(low, high int) {
	if low <= 0 || high <= 0 || low >= high {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.portLow = low
	l.portHigh = high
}

// randomHex returns n random bytes hex-encoded, used for unique room ids.
// Room tokens are minted separately by tokenMinter.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("lobby: generating random id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// allocatePort picks a random port in [low, high] that no live room holds,
// retrying on collision; the range is large enough that a handful of live
// rooms almost never collide. Whether another process has bound the port
// is not checked.
func allocatePort(low, high int, usedPorts map[int]bool) (int, error) {
	const maxAttempts = 50
	span := big.NewInt(int64(high - low + 1))
	for i := 0; i < maxAttempts; i++ {
		n, err := rand.Int(rand.Reader, span)
		if err != nil {
			return 0, fmt.Errorf("lobby: allocating port: %w", err)
		}
		port := low + int(n.Int64())
		if !usedPorts[port] {
			return port, nil
		}
	}
	return 0, fmt.Errorf("lobby: no free port found in range after %d attempts", maxAttempts)
}

// usedPortsLocked collects ports held by non-closed rooms. Caller must hold
// l.mu.
func (l *Lobby) usedPortsLocked() map[int]bool {
	used := make(map[int]bool, len(l.rooms))
	for _, r := range l.rooms {
		snap := r.snapshot()
		if snap.Status != RoomClosed {
			used[snap.Port] = true
		}
	}
	return used
}
