// Package websocket streams match recordings to a remote server.
package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/antarena/antclient/pkg/core"
	"github.com/antarena/antclient/pkg/streaming"
)

// Config holds WebSocket backend configuration.
type Config struct {
	URL    string
	Secret string
}

// Backend streams match data as JSON envelopes. Match start and end wait
// for a server ack; turns are fire-and-forget.
// It implements storage.Backend but not storage.Uploadable.
type Backend struct {
	conn      *connection
	cfg       Config
	nextMatch atomic.Uint64
	seq       atomic.Uint64
}

// New creates a new WebSocket storage backend. A nil logger uses slog.Default.
func New(cfg Config, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		conn: newConnection(logger.With("component", "storage.websocket")),
		cfg:  cfg,
	}
}

// Init connects to the WebSocket server.
func (b *Backend) Init() error {
	return b.conn.dial(b.cfg.URL, b.cfg.Secret)
}

// Close disconnects from the WebSocket server.
func (b *Backend) Close() error {
	return b.conn.close()
}

// Dropped returns how many messages never reached the socket.
func (b *Backend) Dropped() uint64 {
	return b.conn.dropped.Load()
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(streaming.Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// StartMatch assigns a local match id, sends start_match and waits for the ack.
func (b *Backend) StartMatch(m *core.Match) error {
	if m.ID == 0 {
		m.ID = uint(b.nextMatch.Add(1))
	}
	b.seq.Store(0)

	data, err := marshalEnvelope(streaming.TypeStartMatch, streaming.StartMatchPayload{Match: m})
	if err != nil {
		return err
	}
	b.conn.setStartMessage(data)

	return b.conn.sendAndWait(data, streaming.TypeStartMatch, ackTimeout)
}

// RecordTurn queues one turn for sending.
func (b *Backend) RecordTurn(r *core.TurnRecord) error {
	data, err := marshalEnvelope(streaming.TypeTurn, streaming.TurnPayload{Seq: b.seq.Add(1), Turn: r})
	if err != nil {
		return err
	}
	b.conn.send(data)
	return nil
}

// EndMatch sends end_match and waits for the ack.
func (b *Backend) EndMatch(result core.MatchResult) error {
	data, err := marshalEnvelope(streaming.TypeEndMatch, streaming.EndMatchPayload{Result: result})
	if err != nil {
		return err
	}
	err = b.conn.sendAndWait(data, streaming.TypeEndMatch, ackTimeout)

	// the match is over either way
	b.conn.setStartMessage(nil)
	return err
}
