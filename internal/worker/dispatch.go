package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/antarena/antclient/internal/dispatcher"
	"github.com/antarena/antclient/pkg/core"
)

const (
	// TurnBufferSize is the queue length of the async turn handler. The turn
	// loop never waits on recording; a full queue drops the turn.
	TurnBufferSize = 1000
	// DrainTimeout bounds how long :MATCH:END: waits for queued turns.
	DrainTimeout = 10 * time.Second
)

// ErrNoActiveMatch is returned when a turn arrives before :MATCH:START:.
var ErrNoActiveMatch = errors.New("no active match")

// RegisterHandlers registers all event handlers with the dispatcher.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	m.queued = d

	// Match lifecycle - sync (the id must exist before turns are stored)
	d.Register(dispatcher.CmdMatchStart, m.handleMatchStart, dispatcher.Logged())
	d.Register(dispatcher.CmdMatchEnd, m.handleMatchEnd, dispatcher.Logged())

	// One event per turn - buffered
	d.Register(dispatcher.CmdTurn, m.handleTurn, dispatcher.Buffered(TurnBufferSize), dispatcher.Logged())
}

func payloadError(cmd string, p any) error {
	return fmt.Errorf("unexpected payload for %s: %T", cmd, p)
}

// handleMatchStart stores the match and returns it with the id assigned by
// the backend.
func (m *Manager) handleMatchStart(e dispatcher.Event) (any, error) {
	match, ok := e.Payload.(*core.Match)
	if !ok || match == nil {
		return nil, payloadError(e.Command, e.Payload)
	}

	if m.hasBackend() {
		if err := m.backend.StartMatch(match); err != nil {
			return nil, fmt.Errorf("failed to start match: %w", err)
		}
	}
	m.deps.MatchContext.StartMatch(*match)

	m.log.Info("Match started", "match", match.ID, "team", match.TeamName, "server", match.Server)
	return match, nil
}

func (m *Manager) handleTurn(e dispatcher.Event) (any, error) {
	r, ok := e.Payload.(*core.TurnRecord)
	if !ok || r == nil {
		return nil, payloadError(e.Command, e.Payload)
	}

	current := m.deps.MatchContext.GetMatch()
	if current == nil {
		return nil, ErrNoActiveMatch
	}
	if r.MatchID == 0 {
		r.MatchID = current.ID
	}
	m.deps.MatchContext.RecordTurn(r)

	var errs []error
	if m.hasBackend() {
		if err := m.backend.RecordTurn(r); err != nil {
			errs = append(errs, fmt.Errorf("failed to record turn %d: %w", r.Number, err))
		}
	}
	if m.deps.Metrics != nil {
		if err := m.deps.Metrics.RecordTurn(*current, r); err != nil {
			errs = append(errs, fmt.Errorf("failed to write turn metrics: %w", err))
		}
	}
	return nil, errors.Join(errs...)
}

func (m *Manager) handleMatchEnd(e dispatcher.Event) (any, error) {
	result, ok := e.Payload.(core.MatchResult)
	if !ok {
		return nil, payloadError(e.Command, e.Payload)
	}

	// turns still queued belong to this match
	if m.queued != nil {
		ctx, cancel := context.WithTimeout(context.Background(), DrainTimeout)
		if err := m.queued.Wait(ctx); err != nil {
			m.log.Warn("Ending match with turns still queued", "error", err)
		}
		cancel()
	}

	if current := m.deps.MatchContext.GetMatch(); current != nil && result.MatchID == 0 {
		result.MatchID = current.ID
	}

	if m.hasBackend() {
		if err := m.backend.EndMatch(result); err != nil {
			return nil, fmt.Errorf("failed to end match: %w", err)
		}
	}

	m.log.Info("Match ended", "match", result.MatchID, "turns", result.Turns, "reason", result.Reason)
	return nil, nil
}
