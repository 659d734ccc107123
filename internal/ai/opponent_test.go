package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
	"github.com/mitchelldurbincs/tacticsai/internal/testutil"
)

func TestUpdateOpponentModel_NoPrevious(t *testing.T) {
	prev := OpponentModel{Aggression: 2, Hotspots: map[core.Coordinate]float64{}}
	next := UpdateOpponentModel(prev, nil, testutil.StandardState(), core.P1)
	assert.Equal(t, prev, next)
}

func TestUpdateOpponentModel(t *testing.T) {
	before := testutil.EmptyState()
	testutil.AddUnit(before, core.P1, core.General, at(3, 4))
	testutil.AddUnit(before, core.P2, core.General, at(3, 10))
	after := before.Clone()
	after.Unit("p2-general").Pos = at(3, 9)
	after.Unit("p1-general").HP -= 4
	testutil.AddMine(after, core.P2, core.MineNormal, at(0, 20))

	prev := NewOpponentModel()
	prev.Hotspots[at(0, 0)] = 0.4
	prev.Hotspots[at(1, 1)] = 1

	got := UpdateOpponentModel(prev, before, after, core.P1)

	assert.InDelta(t, 0.32, got.Aggression, 1e-9)
	assert.InDelta(t, 0.9, got.FlagRush, 1e-9)
	assert.InDelta(t, 1.4, got.MinePressure, 1e-9)
	assert.Equal(t, 1, got.Samples)

	assert.NotContains(t, got.Hotspots, at(0, 0), "decayed below the floor")
	assert.InDelta(t, 0.86, got.Hotspots[at(1, 1)], 1e-9)
	assert.InDelta(t, 1.2, got.Hotspots[at(3, 9)], 1e-9)

	assert.Len(t, prev.Hotspots, 2, "previous model is untouched")
	assert.Zero(t, prev.Samples)
}

func TestUpdateOpponentModel_CarrierAndDeaths(t *testing.T) {
	before := testutil.EmptyState()
	testutil.AddUnit(before, core.P1, core.Maker, at(3, 4))
	testutil.AddUnit(before, core.P2, core.General, at(3, 10))
	after := before.Clone()
	maker := after.Unit("p1-maker")
	maker.HP = 0
	maker.IsDead = true
	after.Unit("p2-general").HasFlag = true

	prev := NewOpponentModel()
	prev.FlagRush = 1
	got := UpdateOpponentModel(prev, before, after, core.P1)

	assert.InDelta(t, 12*0.08+1.5, got.Aggression, 1e-9)
	assert.InDelta(t, 0.8+1.7, got.FlagRush, 1e-9)
	assert.InDelta(t, 2.4, got.Hotspots[at(3, 10)], 1e-9, "carriers weigh double")
}

func TestUpdateOpponentModel_Clamped(t *testing.T) {
	s := testutil.EmptyState()
	testutil.AddUnit(s, core.P2, core.General, at(3, 10))

	m := NewOpponentModel()
	m.MinePressure = 10
	m.Hotspots[at(3, 10)] = 11.5
	for i := 0; i < 5; i++ {
		next := s.Clone()
		testutil.AddMine(next, core.P2, core.MineNormal, at(i, 15))
		testutil.AddMine(next, core.P2, core.MineNormal, at(i, 16))
		m = UpdateOpponentModel(m, s, next, core.P1)
		assert.LessOrEqual(t, m.MinePressure, signalCeiling)
		assert.LessOrEqual(t, m.Hotspots[at(3, 10)], hotspotCeiling)
	}
}

func TestOpponentModel_Clone(t *testing.T) {
	m := NewOpponentModel()
	m.Hotspots[at(1, 1)] = 3
	c := m.Clone()
	c.Hotspots[at(1, 1)] = 5
	assert.InDelta(t, 3, m.Hotspots[at(1, 1)], 1e-9)
}
