// internal/storage/memory/memory.go
package memory

import (
	"sync"

	"github.com/antarena/antclient/internal/config"
	"github.com/antarena/antclient/pkg/core"
)

// Backend keeps the current match in memory and exports it to JSON when
// the match ends.
type Backend struct {
	cfg    config.MemoryConfig
	match  *core.Match
	result *core.MatchResult
	turns  []core.TurnRecord

	idCounter      uint
	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg: cfg,
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartMatch begins recording a new match and assigns its id
func (b *Backend) StartMatch(m *core.Match) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.idCounter++
	if m.ID == 0 {
		m.ID = b.idCounter
	}

	cp := *m
	b.match = &cp
	b.result = nil
	b.turns = nil
	b.lastExportPath = ""

	return nil
}

// RecordTurn stores a copy of the turn. Turns outside a match are ignored.
func (b *Backend) RecordTurn(r *core.TurnRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.match == nil {
		return nil
	}
	b.turns = append(b.turns, *r)
	return nil
}

// EndMatch finalizes and exports the match data
func (b *Backend) EndMatch(result core.MatchResult) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.match == nil {
		return nil
	}
	b.result = &result
	return b.exportJSON()
}

// GetMatch returns a copy of the recorded match, or nil before StartMatch
func (b *Backend) GetMatch() *core.Match {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.match == nil {
		return nil
	}
	cp := *b.match
	return &cp
}

// Turns returns a copy of the recorded turns
func (b *Backend) Turns() []core.TurnRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]core.TurnRecord, len(b.turns))
	copy(out, b.turns)
	return out
}
