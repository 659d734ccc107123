package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
	"github.com/mitchelldurbincs/tacticsai/internal/game/rules"
	"github.com/mitchelldurbincs/tacticsai/internal/testutil"
)

func TestPlan_LethalHitOnCarrierComesFirst(t *testing.T) {
	s := testutil.EmptyState()
	testutil.AddUnit(s, core.P1, core.General, at(3, 10))
	testutil.AddUnit(s, core.P2, core.General, at(3, 11))
	carrier := s.Unit("p2-general")
	carrier.HasFlag = true
	carrier.HP = 1

	for _, d := range []Difficulty{Easy, Normal, Hard} {
		for _, prof := range []Profile{Balanced, Aggressive, Conservative} {
			t.Run(d.String()+"/"+prof.String(), func(t *testing.T) {
				p := newTestPlanner()
				plan, err := p.Plan(context.Background(), s, PlanInput{
					Difficulty:    d,
					Profile:       prof,
					Side:          core.P1,
					LastFeintTurn: NoFeintYet,
				})
				require.NoError(t, err)
				assert.Equal(t, "p1-general", plan.Unit.UnitID)
				require.NotEmpty(t, plan.Ranked)
				top := plan.Ranked[0]
				assert.Equal(t, core.ActionAttack, top.Type)
				assert.Equal(t, "p2-general", top.Target.UnitID)
			})
		}
	}
}

func TestPlan_StrictFlagDefenseClosesIn(t *testing.T) {
	s := testutil.EmptyState()
	testutil.AddUnit(s, core.P1, core.Ranger, at(3, 6))
	testutil.AddUnit(s, core.P2, core.Sweeper, at(3, 2))
	flag := s.Players[core.P1].FlagPosition

	p := newTestPlanner()
	plan, err := p.Plan(context.Background(), s, PlanInput{
		Difficulty:    Normal,
		Side:          core.P1,
		LastFeintTurn: NoFeintYet,
	})
	require.NoError(t, err)
	top := plan.Ranked[0]
	require.True(t, top.Type.IsRepositioning(), top.String())
	assert.Less(t, top.Target.Cell.Manhattan(flag), at(3, 6).Manhattan(flag))
	assert.NotEqual(t, core.ActionEndTurn, top.Type)
}

func TestPlan_NoUnits(t *testing.T) {
	s := testutil.EmptyState()
	testutil.AddUnit(s, core.P2, core.General, at(3, 20))
	p := newTestPlanner()

	plan, err := p.Plan(context.Background(), s, PlanInput{Difficulty: Normal, Side: core.P1})
	assert.ErrorIs(t, err, ErrNoCandidates)
	assert.NotNil(t, plan.Context)
	assert.Empty(t, plan.Ranked)
}

func TestPlan_Report(t *testing.T) {
	p := newTestPlanner()
	s := testutil.StandardState()
	plan, err := p.Plan(context.Background(), s, PlanInput{Difficulty: Hard, Profile: Aggressive, Side: core.P1, LastFeintTurn: NoFeintYet})
	require.NoError(t, err)

	r := plan.Report(plan.Ranked[0], Aggressive)
	assert.Equal(t, plan.Unit.UnitID, r.UnitID)
	assert.LessOrEqual(t, len(r.RawTop), reportTopCount)
	assert.LessOrEqual(t, len(r.Rejections), maxRejections)
	assert.Equal(t, plan.Ranked[0].IsFeint, r.IsFeint)
}

func TestPlan_FeintIsExecuted(t *testing.T) {
	s := testutil.StandardState()
	feints := 0
	for seed := int64(1); seed <= 400; seed++ {
		p := NewPlanner(rules.NewStandard(), nil, testutil.NewTestRNG(seed), testutil.NopLogger())
		plan, err := p.Plan(context.Background(), s, PlanInput{
			Difficulty:    Hard,
			Profile:       Aggressive,
			Side:          core.P2,
			LastFeintTurn: NoFeintYet,
		})
		require.NoError(t, err)
		top := plan.Ranked[0]
		if !plan.Feinted {
			require.False(t, top.IsFeint, "seed %d", seed)
			require.Equal(t, NoFeintYet, plan.LastFeintTurn, "seed %d", seed)
			continue
		}
		feints++
		require.True(t, top.IsFeint, "seed %d", seed)
		require.GreaterOrEqual(t, top.SourceRank, 2, "seed %d", seed)
		require.LessOrEqual(t, top.SourceRank, 4, "seed %d", seed)
		require.Equal(t, s.TurnCount, plan.LastFeintTurn, "seed %d", seed)
	}
	assert.Positive(t, feints)
}

func TestPlan_NoFeintOverLethalStrike(t *testing.T) {
	s := testutil.EmptyState()
	testutil.AddUnit(s, core.P1, core.General, at(3, 10))
	testutil.AddUnit(s, core.P2, core.General, at(3, 11))
	carrier := s.Unit("p2-general")
	carrier.HasFlag = true
	carrier.HP = 1

	p := newZeroPlanner()
	plan, err := p.Plan(context.Background(), s, PlanInput{
		Difficulty:    Hard,
		Profile:       Aggressive,
		Side:          core.P1,
		LastFeintTurn: NoFeintYet,
	})
	require.NoError(t, err)
	assert.False(t, plan.Feinted)
	assert.Equal(t, NoFeintYet, plan.LastFeintTurn)
	assert.Equal(t, core.ActionAttack, plan.Ranked[0].Type)
	assert.Equal(t, "p2-general", plan.Ranked[0].Target.UnitID)
}

func TestApplyFeint_EasyNeverChangesTop(t *testing.T) {
	p := newTestPlanner()
	s := testutil.StandardState()
	ctx := p.BuildContext(s, ContextInput{Difficulty: Easy, Profile: Aggressive, Side: core.P1})
	actions := SortByPriority(p.GenerateActions(s, s.Unit("p1-general"), Easy, ctx))
	require.Greater(t, len(actions), 1)

	for i := 0; i < 1000; i++ {
		out, last := p.ApplyFeint(actions, FeintInput{Difficulty: Easy, Profile: Aggressive, Turn: i, LastFeintTurn: NoFeintYet})
		require.Equal(t, actions[0], out[0])
		require.Equal(t, NoFeintYet, last)
	}
}

func TestApplyFeint_RespectsCooldown(t *testing.T) {
	p := newZeroPlanner()
	last := NoFeintYet
	feints := 0
	for turn := 1; turn <= 40; turn++ {
		prev := last
		var out []Candidate
		out, last = p.ApplyFeint(feintList(), FeintInput{Difficulty: Hard, Profile: Aggressive, Turn: turn, LastFeintTurn: last})
		if out[0].IsFeint {
			feints++
			assert.GreaterOrEqual(t, turn-prev, FeintCooldownTurns, "turn %d", turn)
			assert.Equal(t, turn, last)
		} else {
			assert.Equal(t, prev, last)
		}
	}
	assert.Equal(t, 20, feints, "a feint every other turn once eligible")
}

func TestApplyHardConstraints_LethalCarrierAlwaysLeads(t *testing.T) {
	p := newTestPlanner()
	rng := testutil.NewTestRNG(99)

	s := testutil.EmptyState()
	gid := testutil.AddUnit(s, core.P1, core.General, at(3, 10))
	testutil.AddUnit(s, core.P2, core.General, at(3, 11))
	testutil.AddUnit(s, core.P2, core.Maker, at(2, 10))
	s.Unit("p2-general").HasFlag = true
	s.Unit("p2-general").HP = 1
	s.Unit("p2-maker").HP = 1

	for i := 0; i < 200; i++ {
		actions := []Candidate{
			moveTo(at(4, 10), rng.Float64()*500),
			attackOn("p2-maker", rng.Float64()*500),
			attackOn("p2-general", rng.Float64()*500-250),
			cand(core.ActionEndTurn, rng.Float64()*500),
		}
		rng.Shuffle(len(actions), func(a, b int) { actions[a], actions[b] = actions[b], actions[a] })

		out := p.ApplyHardConstraints(s, s.Unit(gid), actions, nil)
		require.Len(t, out, len(actions))
		assert.Equal(t, "p2-general", out[0].Target.UnitID, "iteration %d", i)
	}
}

func TestUpdateOpponentModel_DecaysWithoutSignal(t *testing.T) {
	s := testutil.StandardState()
	m := NewOpponentModel()
	m.Aggression, m.FlagRush, m.MinePressure = 6, 4, 2

	for i := 0; i < 10; i++ {
		next := UpdateOpponentModel(m, s, s, core.P1)
		assert.LessOrEqual(t, next.Aggression, m.Aggression)
		assert.LessOrEqual(t, next.FlagRush, m.FlagRush)
		assert.LessOrEqual(t, next.MinePressure, m.MinePressure)
		assert.Equal(t, m.Samples+1, next.Samples)
		m = next
	}
}

func TestFollowUp(t *testing.T) {
	t.Run("margin", func(t *testing.T) {
		tests := []struct {
			name    string
			actions []Candidate
			want    core.ActionType
			ok      bool
		}{
			{"clears margin", []Candidate{cand(core.ActionScan, 5), cand(core.ActionEndTurn, 2)}, core.ActionScan, true},
			{"too close", []Candidate{cand(core.ActionScan, 3.5), cand(core.ActionEndTurn, 2)}, 0, false},
			{"exactly the margin", []Candidate{cand(core.ActionScan, 4), cand(core.ActionEndTurn, 2)}, 0, false},
			{"end turn first", []Candidate{cand(core.ActionEndTurn, 9), cand(core.ActionMove, 4)}, 0, false},
			{"no end turn", []Candidate{cand(core.ActionMove, -1)}, core.ActionMove, true},
			{"only end turn", []Candidate{cand(core.ActionEndTurn, 1)}, 0, false},
			{"empty", nil, 0, false},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, ok := ChooseFollowUp(tt.actions)
				assert.Equal(t, tt.ok, ok)
				if tt.ok {
					assert.Equal(t, tt.want, got.Type)
				}
			})
		}
	})

	t.Run("starved unit stops", func(t *testing.T) {
		p := newTestPlanner()
		s := testutil.StandardState()
		testutil.SetEnergy(s, core.P1, 0)
		_, ctx, ok := p.FollowUp(s, s.Unit("p1-general"), PlanInput{Difficulty: Normal, Side: core.P1})
		assert.False(t, ok)
		assert.NotNil(t, ctx)
	})
}
