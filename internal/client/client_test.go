package client

import (
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/antarena/antclient/internal/dispatcher"
	"github.com/antarena/antclient/internal/geo"
	"github.com/antarena/antclient/internal/parser"
	"github.com/antarena/antclient/internal/roles"
	"github.com/antarena/antclient/internal/strategy"
	"github.com/antarena/antclient/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer plays the server side of a net.Pipe: it reads the register
// frame, sends each snapshot and collects the 16-byte answers.
type fakeServer struct {
	conn     net.Conn
	register []byte
	answers  [][]byte
	err      error
	done     chan struct{}
}

// serve runs the server. After the last snapshot it either closes the
// connection or, with tail set, writes tail first.
func serve(t *testing.T, conn net.Conn, turns []*core.Turn, tail []byte) *fakeServer {
	t.Helper()
	s := &fakeServer{conn: conn, done: make(chan struct{})}
	go func() {
		defer close(s.done)
		defer conn.Close()

		s.register = make([]byte, 18)
		if _, s.err = io.ReadFull(conn, s.register); s.err != nil {
			return
		}
		for _, turn := range turns {
			if _, s.err = conn.Write(parser.EncodeTurn(turn)); s.err != nil {
				return
			}
			answer := make([]byte, core.CommandSize)
			if _, s.err = io.ReadFull(conn, answer); s.err != nil {
				return
			}
			s.answers = append(s.answers, answer)
		}
		if tail != nil {
			_, _ = conn.Write(tail)
		}
	}()
	return s
}

func (s *fakeServer) wait(t *testing.T) {
	t.Helper()
	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not finish")
	}
	require.NoError(t, s.err)
}

// recorder implements Dispatcher and assigns match id 7 on start.
type recorder struct {
	mu     sync.Mutex
	events []dispatcher.Event
}

func (r *recorder) Dispatch(e dispatcher.Event) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := e.Payload.(*core.Match); ok {
		m.ID = 7
	}
	r.events = append(r.events, e)
	return nil, nil
}

func (r *recorder) commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Command
	}
	return out
}

func stayPicker() strategy.FallbackPicker {
	return strategy.PickerFunc(func() geo.Direction { return geo.Stay })
}

func newEngine() *strategy.Engine {
	return strategy.NewEngine(strategy.DefaultConfig(), stayPicker())
}

// sugarTurn has one live gatherer of team 0 with sugar three tiles north.
func sugarTurn() *core.Turn {
	t := &core.Turn{OwnTeamID: 0}
	for i := range t.Teams {
		t.Teams[i] = core.Team{ID: uint8(i), RemainingUnits: 16, Name: "team"}
	}
	t.Teams[0].Points = 12
	t.Objects = []core.WorldObject{
		{Type: 1, Owner: 0, UnitID: 0, Health: 10, Pos: core.Position{X: 5, Y: 5}},
		{Type: 2, Pos: core.Position{X: 5, Y: 8}},
	}
	return t
}

func newPipeClient(t *testing.T, opts Options) (*Client, net.Conn) {
	t.Helper()
	clientConn, serverConn := net.Pipe()
	if opts.TeamName == "" {
		opts.TeamName = "Rust_pirates"
	}
	opts.Roles = roles.Default()
	c := New(clientConn, newEngine(), opts)
	t.Cleanup(func() { _ = c.Close() })
	return c, serverConn
}

func TestRun_PlaysUntilServerCloses(t *testing.T) {
	rec := &recorder{}
	c, serverConn := newPipeClient(t, Options{Dispatcher: rec, ReadTimeout: time.Second, WriteTimeout: time.Second})
	srv := serve(t, serverConn, []*core.Turn{sugarTurn(), sugarTurn(), sugarTurn()}, nil)

	require.NoError(t, c.Register())
	result, err := c.Run(context.Background())
	require.NoError(t, err)
	srv.wait(t)

	assert.Equal(t, uint(3), result.Turns)
	assert.Equal(t, ReasonServerClosed, result.Reason)
	assert.Equal(t, uint(7), result.MatchID)

	// register frame: client type 1, then the padded name
	assert.Equal(t, []byte{1, 0}, srv.register[:2])
	assert.Equal(t, "Rust_pirates", string(srv.register[2:14]))

	require.Len(t, srv.answers, 3)
	for _, a := range srv.answers {
		assert.Equal(t, byte(geo.North), a[0])
		for i := 1; i < core.CommandSize; i++ {
			assert.Equal(t, byte(geo.Stay), a[i], "dead unit %d must stay", i)
		}
	}

	assert.Equal(t, []string{
		dispatcher.CmdMatchStart,
		dispatcher.CmdTurn, dispatcher.CmdTurn, dispatcher.CmdTurn,
		dispatcher.CmdMatchEnd,
	}, rec.commands())

	stats := c.Stats()
	assert.False(t, stats.Connected)
	assert.Equal(t, uint64(3), stats.Turns)
	assert.False(t, stats.LastTurnAt.IsZero())
}

func TestRun_TurnRecords(t *testing.T) {
	rec := &recorder{}
	c, serverConn := newPipeClient(t, Options{Dispatcher: rec, ClientVersion: "1.0.0", Tag: "test"})
	srv := serve(t, serverConn, []*core.Turn{sugarTurn()}, nil)

	require.NoError(t, c.Register())
	_, err := c.Run(context.Background())
	require.NoError(t, err)
	srv.wait(t)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.events, 3)

	m := rec.events[0].Payload.(*core.Match)
	assert.Equal(t, "Rust_pirates", m.TeamName)
	assert.Equal(t, "1.0.0", m.ClientVersion)
	assert.Equal(t, "test", m.Tag)
	assert.Equal(t, roles.Default(), m.Roles)

	r := rec.events[1].Payload.(*core.TurnRecord)
	assert.Equal(t, uint(1), r.Number)
	assert.Equal(t, uint(7), r.MatchID)
	assert.Equal(t, 2, r.ObjectCount)
	assert.Equal(t, 1, r.AliveUnits)
	assert.Equal(t, uint16(12), r.OwnPoints())
	assert.Equal(t, byte(geo.North), r.Commands[0])
	assert.Equal(t, "seek_sugar", r.Rules[0])
	assert.Equal(t, "dead", r.Rules[1])

	result := rec.events[2].Payload.(core.MatchResult)
	assert.Equal(t, uint(1), result.Turns)
}

func TestRun_TruncatedSnapshotIsConnectionLost(t *testing.T) {
	c, serverConn := newPipeClient(t, Options{})
	// one byte of the next snapshot, then hang up
	srv := serve(t, serverConn, []*core.Turn{sugarTurn()}, []byte{0})

	require.NoError(t, c.Register())
	result, err := c.Run(context.Background())
	srv.wait(t)

	require.Error(t, err)
	assert.ErrorIs(t, err, parser.ErrTruncatedStream)
	assert.Equal(t, ReasonConnLost, result.Reason)
	assert.Equal(t, uint(1), result.Turns)
}

func TestRun_CancelInterrupts(t *testing.T) {
	c, serverConn := newPipeClient(t, Options{})
	defer serverConn.Close()

	go func() {
		// read the register frame, then stay silent
		buf := make([]byte, 18)
		_, _ = io.ReadFull(serverConn, buf)
	}()
	require.NoError(t, c.Register())

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	result, err := c.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReasonInterrupted, result.Reason)
	assert.Zero(t, result.Turns)
}

func TestRun_ReadTimeout(t *testing.T) {
	c, serverConn := newPipeClient(t, Options{ReadTimeout: 30 * time.Millisecond})
	defer serverConn.Close()

	go func() {
		buf := make([]byte, 18)
		_, _ = io.ReadFull(serverConn, buf)
	}()
	require.NoError(t, c.Register())

	result, err := c.Run(context.Background())
	require.Error(t, err)
	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())
	assert.Equal(t, ReasonConnLost, result.Reason)
}

func TestRun_WithoutDispatcher(t *testing.T) {
	c, serverConn := newPipeClient(t, Options{PrintAnts: true})
	srv := serve(t, serverConn, []*core.Turn{sugarTurn()}, nil)

	require.NoError(t, c.Register())
	result, err := c.Run(context.Background())
	require.NoError(t, err)
	srv.wait(t)

	assert.Zero(t, result.MatchID)
	assert.Equal(t, uint(1), result.Turns)
}

func TestDial_TeamNameTooLong(t *testing.T) {
	_, err := Dial(context.Background(), "127.0.0.1:1", newEngine(), Options{TeamName: "a_team_name_that_is_too_long"})
	assert.ErrorIs(t, err, parser.ErrTeamNameTooLong)
}

func TestDial_ConnectionRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	_, err = Dial(context.Background(), addr, newEngine(), Options{TeamName: "Rust_pirates"})
	assert.Error(t, err)
}

func TestDial_Registers(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	got := make(chan []byte, 1)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 18)
		if _, err := io.ReadFull(conn, buf); err == nil {
			got <- buf
		}
	}()

	c, err := Dial(context.Background(), l.Addr().String(), newEngine(), Options{TeamName: "ants"})
	require.NoError(t, err)
	defer c.Close()

	select {
	case frame := <-got:
		want, _ := parser.EncodeRegister("ants")
		assert.Equal(t, want, frame)
	case <-time.After(2 * time.Second):
		t.Fatal("register frame not received")
	}
}

func TestClose_Twice(t *testing.T) {
	c, serverConn := newPipeClient(t, Options{})
	defer serverConn.Close()

	require.NoError(t, c.Close())
	assert.NoError(t, c.Close())
	assert.False(t, c.Stats().Connected)
}
