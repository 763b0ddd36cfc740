package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// LobbyServiceMetrics covers the Room state machine and child-process
// supervision.
type LobbyServiceMetrics struct {
	PlayersOnline      prometheus.Gauge
	RoomsActive        prometheus.Gauge
	RoomsCreatedTotal   prometheus.Counter
	LaunchFailuresTotal prometheus.Counter
	RoomTransitions     *prometheus.CounterVec
}

// NewLobbyServiceMetrics creates and registers the Lobby service metric set.
func NewLobbyServiceMetrics(namespace string) *LobbyServiceMetrics {
	return &LobbyServiceMetrics{
		PlayersOnline: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "lobby",
			Name:      "players_online",
			Help:      "Number of players currently authenticated in the online map",
		}),
		RoomsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "lobby",
			Name:      "rooms_active",
			Help:      "Number of rooms not yet CLOSED",
		}),
		RoomsCreatedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lobby",
			Name:      "rooms_created_total",
			Help:      "Total number of rooms successfully created",
		}),
		LaunchFailuresTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lobby",
			Name:      "launch_failures_total",
			Help:      "Total number of CREATE_ROOM attempts that failed to spawn a game-server child",
		}),
		RoomTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lobby",
			Name:      "room_transitions_total",
			Help:      "Total number of room state-machine transitions by target state",
		}, []string{"state"}),
	}
}
