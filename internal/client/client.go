// Package client plays one match against a game server. It registers the
// team, then answers every turn snapshot with one direction byte per unit
// until the server closes the connection.
package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/antarena/antclient/internal/dispatcher"
	"github.com/antarena/antclient/internal/logging"
	"github.com/antarena/antclient/internal/parser"
	"github.com/antarena/antclient/internal/roster"
	"github.com/antarena/antclient/internal/strategy"
	"github.com/antarena/antclient/pkg/core"
)

// End reasons stored with the match result.
const (
	ReasonServerClosed = "server closed"
	ReasonInterrupted  = "interrupted"
	ReasonConnLost     = "connection lost"
)

// Dispatcher receives recording events. *dispatcher.Dispatcher implements it.
type Dispatcher interface {
	Dispatch(e dispatcher.Event) (any, error)
}

// Options configures a Client.
type Options struct {
	TeamName      string
	Roles         core.RoleTable
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	PrintAnts     bool
	ClientVersion string
	Tag           string
	Logger        *slog.Logger
	// Dispatcher is optional; without it nothing is recorded.
	Dispatcher Dispatcher
}

// Stats is a point-in-time view of the turn loop.
type Stats struct {
	Connected    bool      `json:"connected"`
	Turns        uint64    `json:"turns"`
	LastDecodeMs float64   `json:"lastDecodeMs"`
	LastDecideMs float64   `json:"lastDecideMs"`
	LastTurnAt   time.Time `json:"lastTurnAt"`
}

// Client owns the game connection.
type Client struct {
	conn   net.Conn
	reader *bufio.Reader
	opts   Options
	engine *strategy.Engine
	parser *parser.Parser
	log    *slog.Logger
	meters *meters

	connected  atomic.Bool
	turns      atomic.Uint64
	lastDecode atomic.Int64
	lastDecide atomic.Int64
	lastTurnAt atomic.Int64

	closeOnce sync.Once
	closeErr  error
}

// Dial connects to addr and registers the team. A team name that does not
// fit the register frame fails before any connection is made.
func Dial(ctx context.Context, addr string, engine *strategy.Engine, opts Options) (*Client, error) {
	if _, err := parser.EncodeRegister(opts.TeamName); err != nil {
		return nil, err
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	c := New(conn, engine, opts)
	if err := c.Register(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return c, nil
}

// New wraps an established connection. Register must be called before Run.
func New(conn net.Conn, engine *strategy.Engine, opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "client")

	c := &Client{
		conn:   conn,
		reader: bufio.NewReader(conn),
		opts:   opts,
		engine: engine,
		parser: parser.NewParser(log),
		log:    log,
		meters: newMeters(log),
	}
	c.connected.Store(true)
	return c
}

// Register sends the register frame.
func (c *Client) Register() error {
	frame, err := parser.EncodeRegister(c.opts.TeamName)
	if err != nil {
		return err
	}
	if err := c.write(frame); err != nil {
		return fmt.Errorf("failed to register: %w", err)
	}
	c.log.Info("Registered", "team", c.opts.TeamName, "server", c.conn.RemoteAddr().String())
	return nil
}

// Run plays turns until the connection ends or ctx is cancelled, then
// returns the match result. A server that closes the connection between
// turns and a cancelled ctx are normal ends and return a nil error.
func (c *Client) Run(ctx context.Context) (core.MatchResult, error) {
	match := &core.Match{
		TeamName:      c.opts.TeamName,
		Server:        c.conn.RemoteAddr().String(),
		StartTime:     time.Now(),
		Roles:         c.opts.Roles,
		ClientVersion: c.opts.ClientVersion,
		Tag:           c.opts.Tag,
	}
	c.dispatch(dispatcher.CmdMatchStart, match)

	// unblocks a pending read or write on cancellation
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	var (
		played uint
		runErr error
		reason string
	)
	for {
		rec, err := c.PlayTurn(played + 1)
		if err != nil {
			reason, runErr = c.endReason(ctx, err)
			break
		}
		played++
		rec.MatchID = match.ID
		c.dispatch(dispatcher.CmdTurn, rec)
	}
	c.connected.Store(false)

	result := core.MatchResult{
		MatchID: match.ID,
		EndTime: time.Now(),
		Turns:   played,
		Reason:  reason,
	}
	c.dispatch(dispatcher.CmdMatchEnd, result)

	if runErr != nil {
		c.log.Error("Connection lost", "turns", played, "error", runErr)
	} else {
		c.log.Info("Match over", "turns", played, "reason", reason)
	}
	return result, runErr
}

func (c *Client) endReason(ctx context.Context, err error) (string, error) {
	switch {
	case ctx.Err() != nil:
		return ReasonInterrupted, nil
	case errors.Is(err, parser.ErrStreamClosed):
		return ReasonServerClosed, nil
	default:
		return ReasonConnLost, err
	}
}

// PlayTurn reads one snapshot, answers it and returns what was played.
// number is only used for the record.
func (c *Client) PlayTurn(number uint) (*core.TurnRecord, error) {
	if c.opts.ReadTimeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout)); err != nil {
			return nil, fmt.Errorf("failed to set read deadline: %w", err)
		}
	}
	t, err := c.parser.DecodeTurn(c.reader)
	if err != nil {
		return nil, err
	}
	received := time.Now()
	decodeDuration := c.parser.LastDuration()

	plan := c.engine.Plan(t, c.opts.Roles)
	decideDuration := time.Since(received)

	if err := c.write(plan.Commands[:]); err != nil {
		return nil, fmt.Errorf("failed to send commands for turn %d: %w", number, err)
	}

	own := roster.Build(t, t.OwnTeamID, &c.opts.Roles)
	if c.opts.PrintAnts {
		c.printAnts(number, own)
	}

	c.turns.Add(1)
	c.lastDecode.Store(int64(decodeDuration))
	c.lastDecide.Store(int64(decideDuration))
	c.lastTurnAt.Store(received.UnixNano())
	c.meters.recordTurn(decodeDuration, decideDuration)

	return &core.TurnRecord{
		Number:         number,
		OwnTeamID:      t.OwnTeamID,
		Teams:          t.Teams,
		ObjectCount:    len(t.Objects),
		Commands:       plan.Commands,
		Rules:          plan.Rules,
		AliveUnits:     own.Alive(),
		DecodeDuration: decodeDuration,
		DecideDuration: decideDuration,
		ReceivedAt:     received,
	}, nil
}

func (c *Client) write(b []byte) error {
	if c.opts.WriteTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout)); err != nil {
			return err
		}
	}
	_, err := c.conn.Write(b)
	return err
}

func (c *Client) printAnts(number uint, own roster.Roster) {
	ctx := logging.WithTurn(context.Background(), number)
	c.log.InfoContext(ctx, "Ants", "team", own.TeamID, "alive", own.Alive())
	for _, u := range own.Units {
		c.log.InfoContext(ctx, "Ant",
			"id", u.ID,
			"x", u.Pos.X,
			"y", u.Pos.Y,
			"health", u.Health,
			"cargo", u.Cargo.String(),
			"job", u.Job.String())
	}
}

// dispatch hands an event to the recorder. Recording failures are logged and
// never end the match.
func (c *Client) dispatch(cmd string, payload any) {
	if c.opts.Dispatcher == nil {
		return
	}
	if _, err := c.opts.Dispatcher.Dispatch(dispatcher.Event{Command: cmd, Payload: payload}); err != nil {
		c.log.Warn("Recording event failed", "command", cmd, "error", err)
	}
}

// Stats returns the current loop statistics.
func (c *Client) Stats() Stats {
	s := Stats{
		Connected:    c.connected.Load(),
		Turns:        c.turns.Load(),
		LastDecodeMs: durationMs(time.Duration(c.lastDecode.Load())),
		LastDecideMs: durationMs(time.Duration(c.lastDecide.Load())),
	}
	if ns := c.lastTurnAt.Load(); ns != 0 {
		s.LastTurnAt = time.Unix(0, ns)
	}
	return s
}

func durationMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

// Close closes the connection. It is safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.connected.Store(false)
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
