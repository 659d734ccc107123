package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
)

func feintList() []Candidate {
	move := cand(core.ActionMove, 10)
	move.Breakdown.Safety = 5
	scan := cand(core.ActionScan, 9)
	scan.Breakdown.Safety = 5
	end := cand(core.ActionEndTurn, 8.5)
	mine := cand(core.ActionPlaceMine, 8)
	mine.Breakdown.Safety = 5
	return []Candidate{move, scan, end, mine}
}

func TestApplyFeint_Promotes(t *testing.T) {
	p := newZeroPlanner()
	out, last := p.ApplyFeint(feintList(), FeintInput{Difficulty: Normal, Turn: 5, LastFeintTurn: NoFeintYet})

	require.Len(t, out, 4)
	assert.Equal(t, 5, last)
	assert.Equal(t, []core.ActionType{core.ActionScan, core.ActionMove, core.ActionEndTurn, core.ActionPlaceMine}, types(out))
	assert.True(t, out[0].IsFeint)
	assert.Equal(t, 2, out[0].SourceRank)
	assert.False(t, out[1].IsFeint)
	assert.Equal(t, 1, out[1].SourceRank)
}

func TestApplyFeint_NoFeint(t *testing.T) {
	p := newZeroPlanner()

	strong := []Candidate{cand(core.ActionAttack, 20), cand(core.ActionAttack, 19)}
	strong[0].Breakdown.Attack = 18
	strong[1].Breakdown.Attack = 2

	unsafe := feintList()
	unsafe[1].Breakdown.Safety = 1
	unsafe[3].Breakdown.Safety = 1

	tests := []struct {
		name    string
		actions []Candidate
		in      FeintInput
	}{
		{"easy never feints", feintList(), FeintInput{Difficulty: Easy, Turn: 5, LastFeintTurn: NoFeintYet}},
		{"cooldown", feintList(), FeintInput{Difficulty: Hard, Turn: 5, LastFeintTurn: 4}},
		{"single action", feintList()[:1], FeintInput{Difficulty: Hard, Turn: 5, LastFeintTurn: NoFeintYet}},
		{"top is end turn", []Candidate{cand(core.ActionEndTurn, 5), cand(core.ActionMove, 4)}, FeintInput{Difficulty: Hard, Turn: 5, LastFeintTurn: NoFeintYet}},
		{"alternatives too weak", []Candidate{cand(core.ActionMove, 10), cand(core.ActionScan, 4)}, FeintInput{Difficulty: Hard, Turn: 5, LastFeintTurn: NoFeintYet}},
		{"alternatives less safe", unsafe, FeintInput{Difficulty: Normal, Turn: 5, LastFeintTurn: NoFeintYet}},
		{"keeps a strong attack", strong, FeintInput{Difficulty: Hard, Turn: 5, LastFeintTurn: NoFeintYet}},
		{"lethal leader", feintList(), FeintInput{Difficulty: Hard, Turn: 5, LastFeintTurn: NoFeintYet, Locked: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, last := p.ApplyFeint(tt.actions, tt.in)
			assert.Equal(t, tt.actions, out)
			assert.Equal(t, tt.in.LastFeintTurn, last)
		})
	}
}

func TestApplyFeint_NeverPromotesPastRankFour(t *testing.T) {
	p := newZeroPlanner()
	list := []Candidate{
		cand(core.ActionMove, 10),
		cand(core.ActionEndTurn, 9.9),
		cand(core.ActionEndTurn, 9.8),
		cand(core.ActionEndTurn, 9.7),
		cand(core.ActionScan, 9.6),
	}
	out, _ := p.ApplyFeint(list, FeintInput{Difficulty: Hard, Turn: 3, LastFeintTurn: NoFeintYet})
	assert.Equal(t, list, out)
}

func TestApplyFeint_Randomized(t *testing.T) {
	p := newTestPlanner()
	feints := 0
	for turn := 0; turn < 400; turn += FeintCooldownTurns {
		out, last := p.ApplyFeint(feintList(), FeintInput{Difficulty: Hard, Profile: Aggressive, Turn: turn, LastFeintTurn: NoFeintYet})
		require.Len(t, out, 4)
		if last == turn {
			feints++
			assert.True(t, out[0].IsFeint)
			assert.Contains(t, []int{2, 4}, out[0].SourceRank)
		}
	}
	assert.Positive(t, feints)
	assert.Less(t, feints, 200)
}
