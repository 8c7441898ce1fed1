package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antarena/antclient/pkg/core"
	"github.com/antarena/antclient/pkg/streaming"
)

type serverOptions struct {
	// drop the first connection right after acking start_match
	dropFirst bool
	// never send acks
	silent bool
}

// testServer upgrades to WebSocket, records every envelope and acks
// start_match and end_match.
func testServer(t *testing.T, opts serverOptions) (*httptest.Server, *messageLog) {
	t.Helper()
	ml := &messageLog{}
	var conns atomic.Int32

	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ml.setSecret(r.URL.Query().Get("secret"))
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer c.Close()
		n := conns.Add(1)

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}

			var env streaming.Envelope
			if err := json.Unmarshal(msg, &env); err != nil {
				continue
			}
			ml.add(int(n), env)

			if opts.silent {
				continue
			}
			if env.Type == streaming.TypeStartMatch || env.Type == streaming.TypeEndMatch {
				data, _ := json.Marshal(streaming.AckMessage{Type: streaming.AckType, For: env.Type})
				if err := c.WriteMessage(ws.TextMessage, data); err != nil {
					return
				}
				if opts.dropFirst && n == 1 && env.Type == streaming.TypeStartMatch {
					return
				}
			}
		}
	}))
	t.Cleanup(srv.Close)

	return srv, ml
}

type received struct {
	conn int
	env  streaming.Envelope
}

type messageLog struct {
	mu       sync.Mutex
	messages []received
	secret   string
}

func (m *messageLog) add(conn int, env streaming.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, received{conn: conn, env: env})
}

func (m *messageLog) setSecret(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secret = s
}

func (m *messageLog) all() []received {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]received, len(m.messages))
	copy(cp, m.messages)
	return cp
}

func (m *messageLog) countType(typ string) int {
	n := 0
	for _, r := range m.all() {
		if r.env.Type == typ {
			n++
		}
	}
	return n
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestStartAndEndMatch(t *testing.T) {
	srv, ml := testServer(t, serverOptions{})

	b := New(Config{URL: wsURL(srv), Secret: "test"}, nil)
	require.NoError(t, b.Init())
	defer b.Close()

	m := &core.Match{TeamName: "Rust_pirates", Tag: "ranked"}
	require.NoError(t, b.StartMatch(m))
	assert.Equal(t, uint(1), m.ID)

	require.NoError(t, b.EndMatch(core.MatchResult{MatchID: m.ID, Turns: 3, Reason: "server closed"}))

	msgs := ml.all()
	require.GreaterOrEqual(t, len(msgs), 2)
	assert.Equal(t, streaming.TypeStartMatch, msgs[0].env.Type)
	assert.Equal(t, streaming.TypeEndMatch, msgs[len(msgs)-1].env.Type)
	assert.Equal(t, "test", ml.secret)

	var start streaming.StartMatchPayload
	require.NoError(t, json.Unmarshal(msgs[0].env.Payload, &start))
	assert.Equal(t, "Rust_pirates", start.Match.TeamName)

	var end streaming.EndMatchPayload
	require.NoError(t, json.Unmarshal(msgs[len(msgs)-1].env.Payload, &end))
	assert.Equal(t, "server closed", end.Result.Reason)
}

func TestRecordTurnSequence(t *testing.T) {
	srv, ml := testServer(t, serverOptions{})

	b := New(Config{URL: wsURL(srv)}, nil)
	require.NoError(t, b.Init())
	defer b.Close()

	m := &core.Match{}
	require.NoError(t, b.StartMatch(m))
	for n := uint(1); n <= 3; n++ {
		require.NoError(t, b.RecordTurn(&core.TurnRecord{MatchID: m.ID, Number: n}))
	}
	// acks are in order with the turns, so the end ack means the turns arrived
	require.NoError(t, b.EndMatch(core.MatchResult{MatchID: m.ID}))

	var seqs []uint64
	for _, r := range ml.all() {
		if r.env.Type != streaming.TypeTurn {
			continue
		}
		var p streaming.TurnPayload
		require.NoError(t, json.Unmarshal(r.env.Payload, &p))
		seqs = append(seqs, p.Seq)
		assert.Equal(t, uint(p.Seq), p.Turn.Number)
	}
	assert.Equal(t, []uint64{1, 2, 3}, seqs)
	assert.Zero(t, b.Dropped())

	// a new match restarts the sequence
	require.NoError(t, b.StartMatch(&core.Match{}))
	require.NoError(t, b.RecordTurn(&core.TurnRecord{Number: 1}))
	require.NoError(t, b.EndMatch(core.MatchResult{}))
	assert.Equal(t, 2, ml.countType(streaming.TypeStartMatch))
}

func TestStartMatchKeepsExistingID(t *testing.T) {
	srv, _ := testServer(t, serverOptions{})

	b := New(Config{URL: wsURL(srv)}, nil)
	require.NoError(t, b.Init())
	defer b.Close()

	m := &core.Match{ID: 42}
	require.NoError(t, b.StartMatch(m))
	assert.Equal(t, uint(42), m.ID)
}

func TestStartMatchAckTimeoutOnClose(t *testing.T) {
	srv, _ := testServer(t, serverOptions{silent: true})

	b := New(Config{URL: wsURL(srv)}, nil)
	require.NoError(t, b.Init())

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = b.Close()
	}()
	err := b.StartMatch(&core.Match{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection closed")
}

func TestReconnectReplaysStartMatch(t *testing.T) {
	srv, ml := testServer(t, serverOptions{dropFirst: true})

	b := New(Config{URL: wsURL(srv)}, nil)
	b.conn.firstBackoff = 10 * time.Millisecond
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.StartMatch(&core.Match{TeamName: "Rust_pirates"}))

	// the replayed start_match arrives on the second connection
	require.Eventually(t, func() bool {
		for _, r := range ml.all() {
			if r.conn == 2 && r.env.Type == streaming.TypeStartMatch {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, b.EndMatch(core.MatchResult{Reason: "done"}))
}

func TestInitBadURL(t *testing.T) {
	b := New(Config{URL: "ws://127.0.0.1:1/ingest"}, nil)
	assert.Error(t, b.Init())

	b = New(Config{URL: "://bad"}, nil)
	assert.Error(t, b.Init())
}

func TestCloseTwice(t *testing.T) {
	srv, _ := testServer(t, serverOptions{})

	b := New(Config{URL: wsURL(srv)}, nil)
	require.NoError(t, b.Init())
	require.NoError(t, b.Close())
	assert.NoError(t, b.Close())
}
