// Package roster derives per-team unit lists from a decoded snapshot.
package roster

import (
	"github.com/antarena/antclient/pkg/core"
)

// OccupancySet is a set of tiles.
type OccupancySet map[core.Position]struct{}

// Has reports whether p is in the set.
func (s OccupancySet) Has(p core.Position) bool {
	_, ok := s[p]
	return ok
}

func (s OccupancySet) add(p core.Position) {
	s[p] = struct{}{}
}

// Roster is the full 16-unit list of one team, ordered by unit id.
type Roster struct {
	TeamID int16
	Units  [core.UnitsPerTeam]core.Unit
	// Positions holds the tiles of every unit found in the snapshot.
	// Synthesized placeholders are not included.
	Positions OccupancySet
}

// Alive returns the number of units with health left.
func (r *Roster) Alive() int {
	n := 0
	for _, u := range r.Units {
		if u.Alive() {
			n++
		}
	}
	return n
}

// Build extracts the roster of teamID from t. Units missing from the object
// table are synthesized as dead placeholders at the origin. When roles is
// non-nil (the observer's own team) each unit gets its assigned job.
// If the object table lists the same unit id twice, the first entry wins.
func Build(t *core.Turn, teamID int16, roles *core.RoleTable) Roster {
	r := Roster{
		TeamID:    teamID,
		Positions: make(OccupancySet, core.UnitsPerTeam),
	}

	var seen [core.UnitsPerTeam]bool
	for _, obj := range t.Objects {
		if int16(obj.Owner) != teamID || !obj.IsUnit() {
			continue
		}
		id := obj.UnitID & 0x0F
		if seen[id] {
			continue
		}
		seen[id] = true

		u := core.Unit{
			ID:     id,
			Pos:    obj.Pos,
			Health: obj.Health,
			Cargo:  obj.Cargo(),
		}
		if roles != nil {
			u.Job = roles[id]
		}
		r.Units[id] = u
		r.Positions.add(obj.Pos)
	}

	for id := range r.Units {
		if !seen[id] {
			r.Units[id] = core.Unit{ID: uint8(id)}
		}
	}

	return r
}

// EnemyUnits returns the live units of every team except the observer's,
// ordered by team id and then unit id.
func EnemyUnits(t *core.Turn) []core.Unit {
	return enemyUnits(t, func(core.Unit) bool { return true })
}

// EnemyUnitsAtMost is EnemyUnits restricted to units with health <= ceiling.
func EnemyUnitsAtMost(t *core.Turn, ceiling uint8) []core.Unit {
	return enemyUnits(t, func(u core.Unit) bool { return u.Health <= ceiling })
}

func enemyUnits(t *core.Turn, keep func(core.Unit) bool) []core.Unit {
	var out []core.Unit
	for team := int16(0); team < core.TeamCount; team++ {
		if team == t.OwnTeamID {
			continue
		}
		r := Build(t, team, nil)
		for _, u := range r.Units {
			if u.Alive() && keep(u) {
				out = append(out, u)
			}
		}
	}
	return out
}

// ObjectTiles returns the positions of every object in the snapshot, units included.
func ObjectTiles(t *core.Turn) OccupancySet {
	s := make(OccupancySet, len(t.Objects))
	for _, obj := range t.Objects {
		s.add(obj.Pos)
	}
	return s
}
