// Package roles builds the fixed role table used for a whole match.
package roles

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/antarena/antclient/internal/config"
	"github.com/antarena/antclient/pkg/core"
)

// ErrInvalidRoleAssignment is returned when role counts do not cover exactly 16 units.
var ErrInvalidRoleAssignment = errors.New("invalid role assignment")

// Modes accepted by FromConfig.
const (
	ModeStatic  = "static"
	ModeDefault = "default"
	ModeRandom  = "random"
)

// Static assigns ids in order: gatherers first, then offensive units, then
// waste movers.
func Static(gatherers, offensive, wasteMovers int) (core.RoleTable, error) {
	var rt core.RoleTable
	if gatherers < 0 || offensive < 0 || wasteMovers < 0 {
		return rt, fmt.Errorf("%w: negative count in %d/%d/%d", ErrInvalidRoleAssignment, gatherers, offensive, wasteMovers)
	}
	if sum := gatherers + offensive + wasteMovers; sum != core.UnitsPerTeam {
		return rt, fmt.Errorf("%w: %d gatherers + %d offensive + %d waste movers = %d, want %d",
			ErrInvalidRoleAssignment, gatherers, offensive, wasteMovers, sum, core.UnitsPerTeam)
	}

	i := 0
	for _, group := range []struct {
		role  core.Role
		count int
	}{
		{core.RoleGatherer, gatherers},
		{core.RoleOffensive, offensive},
		{core.RoleWasteMover, wasteMovers},
	} {
		for n := 0; n < group.count; n++ {
			rt[i] = group.role
			i++
		}
	}
	return rt, nil
}

// Default is the standard 8/4/4 split.
func Default() core.RoleTable {
	rt, _ := Static(8, 4, 4)
	return rt
}

// Random draws counts that sum to 16 and assigns them like Static.
func Random(rng *rand.Rand) core.RoleTable {
	gatherers := rng.Intn(core.UnitsPerTeam + 1)
	offensive := rng.Intn(core.UnitsPerTeam - gatherers + 1)
	rt, _ := Static(gatherers, offensive, core.UnitsPerTeam-gatherers-offensive)
	return rt
}

// FromConfig selects the assignment mode. It runs once, before the match
// loop, so an invalid table stops the client before it connects.
func FromConfig(cfg config.JobsConfig, rng *rand.Rand) (core.RoleTable, error) {
	switch cfg.Mode {
	case ModeStatic:
		return Static(cfg.Gatherers, cfg.Offensive, cfg.WasteMovers)
	case ModeDefault, "":
		return Default(), nil
	case ModeRandom:
		return Random(rng), nil
	default:
		return core.RoleTable{}, fmt.Errorf("%w: unknown mode %q", ErrInvalidRoleAssignment, cfg.Mode)
	}
}

// Summary formats a table as "gatherers/offensive/waste movers" counts.
func Summary(rt core.RoleTable) string {
	return fmt.Sprintf("%d/%d/%d",
		rt.Count(core.RoleGatherer), rt.Count(core.RoleOffensive), rt.Count(core.RoleWasteMover))
}
