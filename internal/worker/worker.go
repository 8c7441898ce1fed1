package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/antarena/antclient/internal/match"
	"github.com/antarena/antclient/internal/model"
	"github.com/antarena/antclient/internal/storage"
	"github.com/antarena/antclient/pkg/core"
)

// MetricsWriter receives per-turn metrics. *influx.Manager implements it.
type MetricsWriter interface {
	RecordTurn(m core.Match, r *core.TurnRecord) error
}

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	Logger       *slog.Logger
	MatchContext *match.Context
	// Metrics is optional.
	Metrics MetricsWriter
}

// Manager turns recording events into storage and metrics writes.
type Manager struct {
	deps    Dependencies
	log     *slog.Logger
	backend storage.Backend
	queued  waiter
}

// waiter is the part of the dispatcher the end handler needs.
type waiter interface {
	Wait(ctx context.Context) error
}

// NewManager creates a new worker manager. backend may be nil, in which case
// only the match context and metrics are updated.
func NewManager(deps Dependencies, backend storage.Backend) *Manager {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	if deps.MatchContext == nil {
		deps.MatchContext = match.NewContext()
	}
	return &Manager{
		deps:    deps,
		log:     log.With("component", "worker"),
		backend: backend,
	}
}

func (m *Manager) hasBackend() bool {
	return m.backend != nil
}

// PerformanceProvider is an optional interface that backends can implement
// to expose their writer's health for monitoring.
type PerformanceProvider interface {
	Performance() model.ClientPerformance
}

// GetLastDBWriteDuration returns the duration of the last DB write cycle.
// Returns 0 if the backend doesn't support this metric.
func (m *Manager) GetLastDBWriteDuration() time.Duration {
	if p, ok := m.backend.(PerformanceProvider); ok {
		ms := p.Performance().LastWriteDurationMs
		return time.Duration(float64(ms) * float64(time.Millisecond))
	}
	return 0
}

// DroppedTurns returns how many turns the backend discarded because its
// write queue was full.
func (m *Manager) DroppedTurns() uint64 {
	if p, ok := m.backend.(PerformanceProvider); ok {
		return p.Performance().DroppedTurns
	}
	return 0
}
