// Package match tracks the match currently being played, for readers
// outside the turn loop such as the status monitor and the log context.
package match

import (
	"log/slog"
	"sync"
	"time"

	"github.com/antarena/antclient/pkg/core"
)

// Context holds the current match and the latest turn summary
type Context struct {
	mu       sync.RWMutex
	match    *core.Match
	turn     uint
	points   uint16
	alive    int
	lastTurn time.Time
}

// NewContext creates a new Context with no match loaded
func NewContext() *Context {
	return &Context{}
}

// GetMatch returns a copy of the current match, or nil before StartMatch.
func (mc *Context) GetMatch() *core.Match {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	if mc.match == nil {
		return nil
	}
	m := *mc.match
	return &m
}

// StartMatch sets the current match and resets turn progress
func (mc *Context) StartMatch(m core.Match) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.match = &m
	mc.turn = 0
	mc.points = 0
	mc.alive = 0
	mc.lastTurn = time.Time{}
}

// RecordTurn updates the latest turn summary
func (mc *Context) RecordTurn(r *core.TurnRecord) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.turn = r.Number
	mc.points = r.OwnPoints()
	mc.alive = r.AliveUnits
	mc.lastTurn = r.ReceivedAt
}

// Snapshot is a consistent view of the context
type Snapshot struct {
	MatchID    uint      `json:"matchId"`
	TeamName   string    `json:"teamName"`
	Server     string    `json:"server"`
	StartTime  time.Time `json:"startTime"`
	Turn       uint      `json:"turn"`
	Points     uint16    `json:"points"`
	AliveUnits int       `json:"aliveUnits"`
	LastTurnAt time.Time `json:"lastTurnAt"`
}

// Snapshot returns the current state; active is false before StartMatch.
func (mc *Context) Snapshot() (s Snapshot, active bool) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	if mc.match == nil {
		return Snapshot{}, false
	}
	return Snapshot{
		MatchID:    mc.match.ID,
		TeamName:   mc.match.TeamName,
		Server:     mc.match.Server,
		StartTime:  mc.match.StartTime,
		Turn:       mc.turn,
		Points:     mc.points,
		AliveUnits: mc.alive,
		LastTurnAt: mc.lastTurn,
	}, true
}

// LogAttrs returns match attributes for the logging context handler.
func (mc *Context) LogAttrs() []slog.Attr {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	if mc.match == nil {
		return nil
	}
	return []slog.Attr{
		slog.Uint64("match", uint64(mc.match.ID)),
		slog.String("team", mc.match.TeamName),
	}
}
