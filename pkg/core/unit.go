// pkg/core/unit.go
package core

// Role is the behaviour class assigned to a unit for the whole match.
type Role uint8

const (
	// RoleNone is used for placeholders and for units of other teams.
	RoleNone Role = iota
	RoleGatherer
	RoleOffensive
	RoleWasteMover
)

func (r Role) String() string {
	switch r {
	case RoleGatherer:
		return "gatherer"
	case RoleOffensive:
		return "offensive"
	case RoleWasteMover:
		return "waste_mover"
	default:
		return "none"
	}
}

// RoleTable maps unit ids to roles. It is fixed before the match starts.
type RoleTable [UnitsPerTeam]Role

// Count returns how many units hold the given role.
func (rt RoleTable) Count(r Role) int {
	n := 0
	for _, role := range rt {
		if role == r {
			n++
		}
	}
	return n
}

// Unit is an ant extracted from a snapshot.
type Unit struct {
	ID     uint8     `json:"id"`
	Pos    Position  `json:"pos"`
	Health uint8     `json:"health"`
	Cargo  CargoKind `json:"cargo"`
	Job    Role      `json:"job"`
}

// Alive reports whether the unit still has health left.
func (u Unit) Alive() bool {
	return u.Health > 0
}
