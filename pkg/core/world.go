// pkg/core/world.go
package core

import "strings"

const (
	// TeamCount is the fixed number of teams in every snapshot.
	TeamCount = 16
	// UnitsPerTeam is the fixed roster size of every team.
	UnitsPerTeam = 16
	// CommandSize is the length of the command buffer sent back each turn.
	CommandSize = UnitsPerTeam
	// TeamNameSize is the fixed width of a team name on the wire.
	TeamNameSize = 16
)

// Position is a tile coordinate on the grid. North is +Y, east is +X.
type Position struct {
	X uint16 `json:"x"`
	Y uint16 `json:"y"`
}

// CargoKind is the resource carried by a unit or lying on a tile.
type CargoKind uint8

const (
	CargoNone CargoKind = iota
	CargoSugar
	CargoToxicWaste
)

func (c CargoKind) String() string {
	switch c {
	case CargoSugar:
		return "sugar"
	case CargoToxicWaste:
		return "toxic_waste"
	default:
		return "none"
	}
}

// Team is one row of the team table sent every turn.
type Team struct {
	ID             uint8  `json:"id"`
	Points         uint16 `json:"points"`
	RemainingUnits uint16 `json:"remainingUnits"`
	// Name holds the raw 16 wire bytes, one rune per byte.
	Name string `json:"name"`
}

// DisplayName returns the team name without its NUL/space padding.
func (t Team) DisplayName() string {
	return strings.TrimRight(t.Name, "\x00 ")
}

// WorldObject is a single decoded entry of the object table.
type WorldObject struct {
	Type   uint8    `json:"type"`   // upper nibble of byte 1
	Owner  uint8    `json:"owner"`  // lower nibble of byte 1
	UnitID uint8    `json:"unitId"` // upper nibble of byte 2
	Health uint8    `json:"health"` // lower nibble of byte 2
	Pos    Position `json:"pos"`
}

// IsUnit reports whether the object is an ant rather than a pickup.
func (o WorldObject) IsUnit() bool {
	return o.Type&1 != 0
}

// Cargo decodes the cargo kind from the type nibble.
func (o WorldObject) Cargo() CargoKind {
	switch o.Type {
	case 2, 3:
		return CargoSugar
	case 4, 5:
		return CargoToxicWaste
	default:
		return CargoNone
	}
}

// Turn is the decoded snapshot of one round. Nothing is carried over between turns.
type Turn struct {
	OwnTeamID int16           `json:"ownTeamId"`
	Teams     [TeamCount]Team `json:"teams"`
	Objects   []WorldObject   `json:"objects"`
}

// OwnTeamIndex returns the observer's team id as a table index, or false when
// the server sent an id outside 0..15.
func (t *Turn) OwnTeamIndex() (int, bool) {
	if t.OwnTeamID < 0 || int(t.OwnTeamID) >= TeamCount {
		return 0, false
	}
	return int(t.OwnTeamID), true
}
