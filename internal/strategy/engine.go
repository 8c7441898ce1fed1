// Package strategy turns a decoded snapshot into one movement command per unit.
// The engine is stateless: every turn is decided from that turn's snapshot only.
package strategy

import (
	"github.com/antarena/antclient/internal/geo"
	"github.com/antarena/antclient/internal/roster"
	"github.com/antarena/antclient/pkg/core"
)

// maxAttempts bounds how many tiles navigation checks before accepting a collision.
const maxAttempts = 9

// Config tunes the policy.
type Config struct {
	// MaxAttackHealth is the highest enemy health an offensive unit will chase.
	MaxAttackHealth uint8
	// HuntEnabled lets gatherers chase enemies at low health.
	HuntEnabled bool
	// ReturnHomeWhenIdle sends units with nothing to do to their base instead
	// of keeping them still.
	ReturnHomeWhenIdle bool
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		MaxAttackHealth: 5,
		HuntEnabled:     true,
	}
}

// view holds per-turn data shared by all units of the observer.
type view struct {
	turn     *core.Turn
	own      int16
	occupied roster.OccupancySet
	objects  roster.OccupancySet
	enemies  []core.Unit
	sugar    []core.Position
	waste    []core.Position
}

func newView(t *core.Turn, own roster.Roster) *view {
	v := &view{
		turn:     t,
		own:      t.OwnTeamID,
		occupied: own.Positions,
		objects:  roster.ObjectTiles(t),
		enemies:  roster.EnemyUnits(t),
	}
	for _, obj := range t.Objects {
		if obj.IsUnit() {
			continue
		}
		switch obj.Cargo() {
		case core.CargoSugar:
			v.sugar = append(v.sugar, obj.Pos)
		case core.CargoToxicWaste:
			v.waste = append(v.waste, obj.Pos)
		}
	}
	return v
}

// Situation is everything a rule may look at for one unit.
type Situation struct {
	Unit   core.Unit
	Board  *Board
	Config Config
	view   *view
}

// Home returns the observer's base.
func (s *Situation) Home() core.Position {
	return s.Board.HomeBase(s.view.own)
}

// LeadingEnemyBase returns the base of the other team with the strictly
// highest score. Ties keep the lower team id; teams without points never
// qualify, in which case Board.NoTarget is returned.
func (s *Situation) LeadingEnemyBase() core.Position {
	target := s.Board.NoTarget
	var best uint16
	for _, team := range s.view.turn.Teams {
		if int16(team.ID) == s.view.own {
			continue
		}
		if team.Points > best {
			best = team.Points
			target = s.Board.HomeBase(int16(team.ID))
		}
	}
	return target
}

func (s *Situation) nearestEnemy(ceiling uint8) (Target, bool) {
	candidates := make([]core.Position, 0, len(s.view.enemies))
	for _, e := range s.view.enemies {
		if e.Health <= ceiling {
			candidates = append(candidates, e.Pos)
		}
	}
	return nearest(s.Unit.Pos, candidates)
}

// Plan is the full outcome of one turn.
type Plan struct {
	Commands [core.CommandSize]byte
	// Rules names the rule that decided each command.
	Rules [core.CommandSize]string
}

// Engine computes commands. It keeps no state between turns.
type Engine struct {
	board  Board
	cfg    Config
	policy Policy
	picker FallbackPicker
}

// Option configures an Engine.
type Option func(*Engine)

// WithBoard replaces the default map tables.
func WithBoard(b Board) Option {
	return func(e *Engine) { e.board = b }
}

// WithPolicy replaces the default rule chains.
func WithPolicy(p Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// NewEngine creates an engine. picker is required; it is the engine's only
// source of randomness.
func NewEngine(cfg Config, picker FallbackPicker, opts ...Option) *Engine {
	e := &Engine{
		board:  DefaultBoard(),
		cfg:    cfg,
		policy: DefaultPolicy(),
		picker: picker,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Board returns the map tables in use.
func (e *Engine) Board() Board {
	return e.board
}

// ComputeCommands returns one direction code per unit id, ascending.
func (e *Engine) ComputeCommands(t *core.Turn, roles core.RoleTable) [core.CommandSize]byte {
	return e.Plan(t, roles).Commands
}

// Plan decides every unit of the observer's team.
func (e *Engine) Plan(t *core.Turn, roles core.RoleTable) Plan {
	own := roster.Build(t, t.OwnTeamID, &roles)
	v := newView(t, own)

	var p Plan
	for i, u := range own.Units {
		dir, rule := e.decide(u, v)
		p.Commands[i] = byte(dir)
		p.Rules[i] = rule
	}
	return p
}

// Decide returns the command for a single unit.
func (e *Engine) Decide(t *core.Turn, u core.Unit, occupied roster.OccupancySet) (geo.Direction, string) {
	v := newView(t, roster.Roster{Positions: occupied})
	return e.decide(u, v)
}

func (e *Engine) decide(u core.Unit, v *view) (geo.Direction, string) {
	s := &Situation{Unit: u, Board: &e.board, Config: e.cfg, view: v}

	chain, ok := e.policy[u.Job]
	if !ok {
		chain = e.policy[core.RoleNone]
	}
	rule, target, ok := chain.Evaluate(s)
	if !ok {
		return geo.Stay, ruleIdle.Name
	}
	if target.Stay {
		return geo.Stay, rule.Name
	}

	dir := e.navigate(u, target.Pos, v)
	if !dir.Valid() {
		return geo.Stay, rule.Name
	}
	return dir, rule.Name
}

// navigate steps toward target, resampling the direction while the next tile
// is blocked. A tile is blocked when one of our units stands on it, or when
// the unit carries cargo and the tile holds no object. After maxAttempts the
// last sampled direction is used even if blocked.
func (e *Engine) navigate(u core.Unit, target core.Position, v *view) geo.Direction {
	dir := geo.DirectionTo(u.Pos, target)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		next, err := geo.NextTile(u.Pos, dir)
		if err != nil {
			return geo.Stay
		}
		blocked := v.occupied.Has(next) || (u.Cargo != core.CargoNone && !v.objects.Has(next))
		if !blocked {
			break
		}
		dir = e.picker.PickFallbackDirection()
	}
	return dir
}
