package strategy

import (
	"github.com/antarena/antclient/pkg/core"
)

// beaconOffset is how far a beacon sits from its base, toward the map centre.
const beaconOffset = 10

// Board holds the static map tables. It is read-only for the whole match.
type Board struct {
	HomeBases [core.TeamCount]core.Position
	// Beacons are near-base waypoints used by long-distance carriers so they
	// do not all converge on the base tile itself.
	Beacons [core.TeamCount]core.Position
	// NoTarget is used when no enemy team qualifies as a target.
	NoTarget core.Position
}

var defaultHomeBases = [core.TeamCount]core.Position{
	{X: 100, Y: 100}, {X: 300, Y: 100}, {X: 500, Y: 100}, {X: 700, Y: 100},
	{X: 900, Y: 100}, {X: 900, Y: 300}, {X: 900, Y: 500}, {X: 900, Y: 700},
	{X: 900, Y: 900}, {X: 700, Y: 900}, {X: 500, Y: 900}, {X: 300, Y: 900},
	{X: 100, Y: 900}, {X: 100, Y: 700}, {X: 100, Y: 500}, {X: 100, Y: 300},
}

var mapCentre = core.Position{X: 500, Y: 500}

// DefaultBoard returns the tables of the standard 1000x1000 arena.
func DefaultBoard() Board {
	b := Board{
		HomeBases: defaultHomeBases,
		NoTarget:  defaultHomeBases[core.TeamCount-1],
	}
	for i, base := range b.HomeBases {
		b.Beacons[i] = core.Position{
			X: towards(base.X, mapCentre.X, beaconOffset),
			Y: towards(base.Y, mapCentre.Y, beaconOffset),
		}
	}
	return b
}

// HomeBase returns the base of a team, or NoTarget for an id outside 0..15.
func (b *Board) HomeBase(team int16) core.Position {
	if team < 0 || int(team) >= core.TeamCount {
		return b.NoTarget
	}
	return b.HomeBases[team]
}

// Beacon returns the beacon of a team, or NoTarget for an id outside 0..15.
func (b *Board) Beacon(team int16) core.Position {
	if team < 0 || int(team) >= core.TeamCount {
		return b.NoTarget
	}
	return b.Beacons[team]
}

func towards(v, target, step uint16) uint16 {
	switch {
	case v+step <= target:
		return v + step
	case v >= target+step:
		return v - step
	}
	return target
}
