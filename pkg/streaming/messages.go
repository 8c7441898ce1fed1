// Package streaming defines the JSON messages a client streams to a
// recording server over WebSocket.
package streaming

import (
	"encoding/json"

	"github.com/antarena/antclient/pkg/core"
)

// Message type constants matching the streaming protocol.
const (
	TypeStartMatch = "start_match"
	TypeEndMatch   = "end_match"
	TypeTurn       = "turn"
)

// AckType is the Type of every server acknowledgement.
const AckType = "ack"

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// StartMatchPayload announces a match.
type StartMatchPayload struct {
	Match *core.Match `json:"match"`
}

// TurnPayload carries one played turn. Seq counts turns sent for the match
// so the server can spot gaps after a reconnect.
type TurnPayload struct {
	Seq  uint64           `json:"seq"`
	Turn *core.TurnRecord `json:"turn"`
}

// EndMatchPayload closes a match.
type EndMatchPayload struct {
	Result core.MatchResult `json:"result"`
}
