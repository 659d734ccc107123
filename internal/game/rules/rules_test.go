package rules

import (
	"testing"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
	"github.com/mitchelldurbincs/tacticsai/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestStandard_AttackDamage(t *testing.T) {
	q := NewStandard()
	s := testutil.EmptyState()
	atk := s.Unit(testutil.AddUnit(s, core.P1, core.General, core.Coordinate{R: 3, C: 20}))
	near := s.Unit(testutil.AddUnit(s, core.P2, core.Defuser, core.Coordinate{R: 3, C: 21}))
	far := s.Unit(testutil.AddUnit(s, core.P2, core.Maker, core.Coordinate{R: 0, C: 10}))

	assert.Equal(t, 4, q.AttackDamage(s, atk, near))

	s.Players[core.P2].Evolution[core.General].B = 2
	assert.Equal(t, 3, q.AttackDamage(s, atk, near), "aura near own flag")
	assert.Equal(t, 4, q.AttackDamage(s, atk, far))

	q.GodMode = true
	assert.Equal(t, 0, q.AttackDamage(s, atk, far))
}

func TestStandard_CheckEnergyCap(t *testing.T) {
	q := NewStandard()
	u := &core.Unit{StartOfActionEnergy: 45}
	assert.True(t, q.CheckEnergyCap(u, 14))
	assert.False(t, q.CheckEnergyCap(u, 15))

	u.EnergyUsedThisTurn = 10
	assert.True(t, q.CheckEnergyCap(u, 4))
	assert.False(t, q.CheckEnergyCap(u, 5))
}

func TestStandard_TerritoryCost(t *testing.T) {
	q := NewStandard()
	tests := []struct {
		name  string
		owner core.PlayerID
		col   int
		base  int
		want  int
	}{
		{"home small", core.P1, 3, 3, 3},
		{"enemy small", core.P1, 12, 3, 4},
		{"enemy large", core.P1, 20, 8, 10},
		{"p2 home", core.P2, 12, 8, 8},
		{"p2 enemy", core.P2, 11, 4, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &core.Unit{Owner: tt.owner, Pos: core.Coordinate{R: 0, C: tt.col}}
			assert.Equal(t, tt.want, q.TerritoryCost(u, tt.base))
		})
	}
}

func TestStandard_DisplayCost(t *testing.T) {
	q := NewStandard()
	s := testutil.EmptyState()
	ranger := s.Unit(testutil.AddUnit(s, core.P1, core.Ranger, core.Coordinate{R: 2, C: 14}))

	assert.Equal(t, 3, q.DisplayCost(s, ranger, 2, core.ActionMove), "territory surcharge")
	assert.Equal(t, 2, q.DisplayCost(s, ranger, 2, core.ActionTeleport))
	assert.Equal(t, 10, q.DisplayCost(s, ranger, 10, core.ActionEvolveA))

	testutil.AddBuilding(s, core.P1, core.Hub, core.Coordinate{R: 2, C: 15})
	assert.Equal(t, 2, q.DisplayCost(s, ranger, 2, core.ActionMove), "hub discount then surcharge")

	ranger.MoveCostDebuff = 2
	assert.Equal(t, 4, q.DisplayCost(s, ranger, 2, core.ActionMove))

	ranger.Stealthed = true
	assert.Equal(t, 4, q.DisplayCost(s, ranger, 2, core.ActionMove), "stealth resets to 3")

	ranger.MoveCostDebuff = 0
	s.Players[core.P1].Evolution[core.Ranger] = core.EvolutionLevel{B: 3, BVariant: 1}
	assert.Equal(t, 2, q.DisplayCost(s, ranger, 2, core.ActionMove), "ranger b3v1 ignores stealth")
}

func TestCanGeneralAttack(t *testing.T) {
	q := NewStandard()
	tests := []struct {
		name    string
		setup   func(s *core.GameState)
		target  core.Coordinate
		allowed bool
	}{
		{"adjacent", nil, core.Coordinate{R: 3, C: 6}, true},
		{"diagonal", nil, core.Coordinate{R: 4, C: 6}, false},
		{"two away without range", nil, core.Coordinate{R: 3, C: 7}, false},
		{"two away with A2", func(s *core.GameState) { s.Players[core.P1].Evolution[core.General].A = 2 }, core.Coordinate{R: 3, C: 7}, true},
		{"carrying flag", func(s *core.GameState) { s.Players[core.P1].Units[0].HasFlag = true }, core.Coordinate{R: 3, C: 6}, false},
		{"carrying with A3v1", func(s *core.GameState) {
			s.Players[core.P1].Units[0].HasFlag = true
			s.Players[core.P1].Evolution[core.General] = core.EvolutionLevel{A: 3, AVariant: 1}
		}, core.Coordinate{R: 3, C: 6}, true},
		{"no energy", func(s *core.GameState) { s.Players[core.P1].Energy = 4 }, core.Coordinate{R: 3, C: 6}, false},
		{"energy cap", func(s *core.GameState) { s.Players[core.P1].Units[0].StartOfActionEnergy = 20 }, core.Coordinate{R: 3, C: 6}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testutil.EmptyState()
			gen := testutil.AddUnit(s, core.P1, core.General, core.Coordinate{R: 3, C: 5})
			victim := testutil.AddUnit(s, core.P2, core.Maker, tt.target)
			if tt.setup != nil {
				tt.setup(s)
			}
			assert.Equal(t, tt.allowed, CanGeneralAttack(q, s, s.Unit(gen), s.Unit(victim)))
		})
	}
}

func TestGeneralAttackCost(t *testing.T) {
	q := NewStandard()
	s := testutil.EmptyState()
	gen := s.Unit(testutil.AddUnit(s, core.P1, core.General, core.Coordinate{R: 3, C: 5}))
	assert.Equal(t, 8, GeneralAttackCost(q, s, gen))

	gen.Pos = core.Coordinate{R: 3, C: 15}
	assert.Equal(t, 10, GeneralAttackCost(q, s, gen))

	gen.HasFlag = true
	s.Players[core.P1].Evolution[core.General] = core.EvolutionLevel{A: 3, AVariant: 1}
	assert.Equal(t, 8, GeneralAttackCost(q, s, gen))
}

func TestLimitsAndUnlocks(t *testing.T) {
	s := testutil.EmptyState()
	assert.Equal(t, 1, TowerLimit(s, core.P1))
	assert.Equal(t, 1, FactoryLimit(s, core.P1))
	assert.Equal(t, []core.MineType{core.MineNormal}, MakerMineTypes(s, core.P1))

	s.Players[core.P1].Evolution[core.Sweeper] = core.EvolutionLevel{A: 3, AVariant: 1}
	s.Players[core.P1].Evolution[core.Maker] = core.EvolutionLevel{A: 3, AVariant: 2, B: 3, BVariant: 2}
	assert.Equal(t, 2, TowerLimit(s, core.P1))
	assert.Equal(t, 2, FactoryLimit(s, core.P1))
	assert.Equal(t, []core.MineType{core.MineNormal, core.MineSlow, core.MineSmoke, core.MineNuke}, MakerMineTypes(s, core.P1))
}

func TestCanOccupyAndCarry(t *testing.T) {
	s := testutil.EmptyState()
	s.Grid.SetObstacle(core.Coordinate{R: 1, C: 1}, true)
	id := testutil.AddUnit(s, core.P1, core.Ranger, core.Coordinate{R: 2, C: 2})

	assert.False(t, CanOccupy(s, core.Coordinate{R: 1, C: 1}))
	assert.False(t, CanOccupy(s, core.Coordinate{R: 2, C: 2}))
	assert.False(t, CanOccupy(s, core.Coordinate{R: -1, C: 2}))
	assert.True(t, CanOccupy(s, core.Coordinate{R: 3, C: 3}))

	assert.False(t, CanCarryFlag(s, s.Unit(id)))
	s.Players[core.P1].Evolution[core.General].B = 3
	assert.True(t, CanCarryFlag(s, s.Unit(id)))
}

func TestMoveBaseCost(t *testing.T) {
	gen := &core.Unit{Type: core.General}
	assert.Equal(t, 3, MoveBaseCost(gen))
	gen.HasFlag = true
	assert.Equal(t, 5, MoveBaseCost(gen))
	assert.Equal(t, 2, MoveBaseCost(&core.Unit{Type: core.Ranger}))
}
