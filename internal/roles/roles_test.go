package roles

import (
	"math/rand"
	"testing"

	"github.com/antarena/antclient/internal/config"
	"github.com/antarena/antclient/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic(t *testing.T) {
	tests := []struct {
		name                         string
		gatherers, offensive, wastes int
		wantErr                      bool
	}{
		{"default split", 8, 4, 4, false},
		{"all gatherers", 16, 0, 0, false},
		{"all waste movers", 0, 0, 16, false},
		{"too few", 8, 4, 3, true},
		{"too many", 8, 4, 5, true},
		{"negative", 20, -4, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, err := Static(tt.gatherers, tt.offensive, tt.wastes)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidRoleAssignment)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.gatherers, rt.Count(core.RoleGatherer))
			assert.Equal(t, tt.offensive, rt.Count(core.RoleOffensive))
			assert.Equal(t, tt.wastes, rt.Count(core.RoleWasteMover))
			assert.Zero(t, rt.Count(core.RoleNone))
		})
	}
}

func TestStatic_AssignsInIDOrder(t *testing.T) {
	rt, err := Static(2, 1, 13)
	require.NoError(t, err)
	assert.Equal(t, core.RoleGatherer, rt[0])
	assert.Equal(t, core.RoleGatherer, rt[1])
	assert.Equal(t, core.RoleOffensive, rt[2])
	assert.Equal(t, core.RoleWasteMover, rt[3])
	assert.Equal(t, core.RoleWasteMover, rt[15])
}

func TestDefault(t *testing.T) {
	assert.Equal(t, "8/4/4", Summary(Default()))
}

func TestRandom_AlwaysCoversEveryUnit(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 500; i++ {
		rt := Random(rng)
		total := rt.Count(core.RoleGatherer) + rt.Count(core.RoleOffensive) + rt.Count(core.RoleWasteMover)
		require.Equal(t, core.UnitsPerTeam, total)
	}
}

func TestFromConfig(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	rt, err := FromConfig(config.JobsConfig{Mode: ModeStatic, Gatherers: 4, Offensive: 4, WasteMovers: 8}, rng)
	require.NoError(t, err)
	assert.Equal(t, "4/4/8", Summary(rt))

	rt, err = FromConfig(config.JobsConfig{Mode: ModeDefault, Gatherers: 1}, rng)
	require.NoError(t, err)
	assert.Equal(t, Default(), rt)

	_, err = FromConfig(config.JobsConfig{Mode: ModeRandom}, rng)
	require.NoError(t, err)

	_, err = FromConfig(config.JobsConfig{Mode: ModeStatic, Gatherers: 4}, rng)
	require.ErrorIs(t, err, ErrInvalidRoleAssignment)

	_, err = FromConfig(config.JobsConfig{Mode: "chaos"}, rng)
	require.ErrorIs(t, err, ErrInvalidRoleAssignment)
	assert.Contains(t, err.Error(), "chaos")
}
