package parser

import (
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/antarena/antclient/pkg/core"
)

// Parser decodes turn snapshots and keeps simple decode statistics.
// It has no dependencies beyond a logger.
type Parser struct {
	logger *slog.Logger

	decoded      atomic.Uint64
	failed       atomic.Uint64
	lastDuration atomic.Int64
}

// NewParser creates a new parser with only a logger dependency
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// DecodeTurn reads the next snapshot from r. See the package-level DecodeTurn.
func (p *Parser) DecodeTurn(r io.Reader) (*core.Turn, error) {
	start := time.Now()
	t, err := DecodeTurn(r)
	p.lastDuration.Store(int64(time.Since(start)))
	if err != nil {
		p.failed.Add(1)
		p.logger.Debug("Turn decode failed", "error", err)
		return nil, err
	}

	p.decoded.Add(1)
	p.logger.Debug("Decoded turn",
		"ownTeamId", t.OwnTeamID,
		"objects", len(t.Objects),
		"duration", time.Since(start))
	return t, nil
}

// Decoded returns the number of successfully decoded turns.
func (p *Parser) Decoded() uint64 {
	return p.decoded.Load()
}

// Failed returns the number of decode attempts that ended in an error.
func (p *Parser) Failed() uint64 {
	return p.failed.Load()
}

// LastDuration returns how long the most recent decode took, including the
// time spent waiting for bytes.
func (p *Parser) LastDuration() time.Duration {
	return time.Duration(p.lastDuration.Load())
}
