package strategy

import (
	"github.com/antarena/antclient/internal/geo"
	"github.com/antarena/antclient/pkg/core"
)

const (
	// lowHealth is the health at or below which a unit retreats home and
	// below which an enemy counts as easy prey for gatherers.
	lowHealth = 3
	// beaconDistance is the distance from home beyond which sugar carriers
	// head for the beacon instead of the base tile.
	beaconDistance = 20
)

// Target is the outcome of a rule: either a tile to move toward or stay put.
type Target struct {
	Pos  core.Position
	Stay bool
}

func moveTo(p core.Position) (Target, bool) { return Target{Pos: p}, true }

func stay() (Target, bool) { return Target{Stay: true}, true }

// Rule is one guard/action pair of a priority chain. Select reports false
// when the guard does not hold; otherwise it returns the rule's target.
type Rule struct {
	Name   string
	Select func(s *Situation) (Target, bool)
}

// Chain is an ordered list of rules evaluated top to bottom; the first rule
// whose guard holds decides.
type Chain []Rule

// Then returns a new chain that falls through to next after c.
func (c Chain) Then(next Chain) Chain {
	out := make(Chain, 0, len(c)+len(next))
	out = append(out, c...)
	return append(out, next...)
}

// Evaluate runs the chain and returns the first matching rule.
func (c Chain) Evaluate(s *Situation) (Rule, Target, bool) {
	for _, r := range c {
		if t, ok := r.Select(s); ok {
			return r, t, true
		}
	}
	return Rule{}, Target{}, false
}

var (
	ruleDead = Rule{Name: "dead", Select: func(s *Situation) (Target, bool) {
		if s.Unit.Alive() {
			return Target{}, false
		}
		return stay()
	}}

	ruleRetreat = Rule{Name: "retreat", Select: func(s *Situation) (Target, bool) {
		if s.Unit.Health > lowHealth {
			return Target{}, false
		}
		return moveTo(s.Home())
	}}

	ruleDumpWaste = Rule{Name: "dump_waste", Select: func(s *Situation) (Target, bool) {
		if s.Unit.Cargo != core.CargoToxicWaste {
			return Target{}, false
		}
		return moveTo(s.LeadingEnemyBase())
	}}

	ruleHunt = Rule{Name: "hunt", Select: func(s *Situation) (Target, bool) {
		if !s.Config.HuntEnabled {
			return Target{}, false
		}
		return s.nearestEnemy(lowHealth)
	}}

	ruleSugarToBeacon = Rule{Name: "sugar_to_beacon", Select: func(s *Situation) (Target, bool) {
		if s.Unit.Cargo != core.CargoSugar || geo.Distance(s.Unit.Pos, s.Home()) <= beaconDistance {
			return Target{}, false
		}
		return moveTo(s.Board.Beacon(s.view.own))
	}}

	ruleSugarHome = Rule{Name: "sugar_home", Select: func(s *Situation) (Target, bool) {
		if s.Unit.Cargo != core.CargoSugar {
			return Target{}, false
		}
		return moveTo(s.Home())
	}}

	ruleSeekSugar = Rule{Name: "seek_sugar", Select: func(s *Situation) (Target, bool) {
		return nearest(s.Unit.Pos, s.view.sugar)
	}}

	ruleAttack = Rule{Name: "attack", Select: func(s *Situation) (Target, bool) {
		return s.nearestEnemy(s.Config.MaxAttackHealth)
	}}

	ruleSeekWaste = Rule{Name: "seek_waste", Select: func(s *Situation) (Target, bool) {
		return nearest(s.Unit.Pos, s.view.waste)
	}}

	ruleIdle = Rule{Name: "idle", Select: func(s *Situation) (Target, bool) {
		if s.Config.ReturnHomeWhenIdle {
			return moveTo(s.Home())
		}
		return stay()
	}}
)

// Chains for every role. The Offensive and WasteMover fallbacks are explicit:
// an offensive unit with nothing to attack behaves like a gatherer, a waste
// mover with no waste in sight behaves like an offensive unit.
var (
	// SurvivalChain runs before any role logic.
	SurvivalChain = Chain{ruleDead, ruleRetreat, ruleDumpWaste}

	GathererChain   = Chain{ruleHunt, ruleSugarToBeacon, ruleSugarHome, ruleSeekSugar}
	OffensiveChain  = Chain{ruleAttack}.Then(GathererChain)
	WasteMoverChain = Chain{ruleSeekWaste}.Then(OffensiveChain)

	// IdleChain runs when no role rule applied.
	IdleChain = Chain{ruleIdle}
)

// Policy maps each role to its full priority chain.
type Policy map[core.Role]Chain

// DefaultPolicy builds the standard chains. A live unit without a role only idles.
func DefaultPolicy() Policy {
	return Policy{
		core.RoleNone:       SurvivalChain.Then(IdleChain),
		core.RoleGatherer:   SurvivalChain.Then(GathererChain).Then(IdleChain),
		core.RoleOffensive:  SurvivalChain.Then(OffensiveChain).Then(IdleChain),
		core.RoleWasteMover: SurvivalChain.Then(WasteMoverChain).Then(IdleChain),
	}
}

// nearest returns the candidate closest to from. Ties keep the earliest
// candidate, which is snapshot order for every caller.
func nearest(from core.Position, candidates []core.Position) (Target, bool) {
	found := false
	var best core.Position
	var bestDist uint16
	for _, c := range candidates {
		d := geo.Distance(from, c)
		if !found || d < bestDist {
			best, bestDist, found = c, d, true
		}
	}
	if !found {
		return Target{}, false
	}
	return moveTo(best)
}
