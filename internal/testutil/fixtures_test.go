package testutil

import (
	"testing"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardState(t *testing.T) {
	s := StandardState()
	for _, p := range []core.PlayerID{core.P1, core.P2} {
		units := s.AliveUnits(p)
		require.Len(t, units, 5)
		lo, hi := core.SpawnColumns(p)
		for _, u := range units {
			assert.True(t, u.Pos.C >= lo && u.Pos.C <= hi, "%s deployed outside spawn", u.ID)
			assert.Equal(t, u.MaxHP, u.HP)
		}
	}
	assert.NotNil(t, s.Unit("p2-general"))
}

func TestAddUnit_DuplicateTypeGetsSuffix(t *testing.T) {
	s := EmptyState()
	a := AddUnit(s, core.P1, core.Ranger, core.Coordinate{R: 0, C: 0})
	b := AddUnit(s, core.P1, core.Ranger, core.Coordinate{R: 1, C: 0})
	assert.Equal(t, "p1-ranger", a)
	assert.NotEqual(t, a, b)
}

func TestSetEnergy(t *testing.T) {
	s := StandardState()
	SetEnergy(s, core.P2, 12)
	assert.Equal(t, 12, s.Players[core.P2].Energy)
	assert.Equal(t, 12, s.Unit("p2-sweeper").StartOfActionEnergy)
}
