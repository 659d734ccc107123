package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
)

func TestRecordAction(t *testing.T) {
	var recent []core.ActionType
	for i := 0; i < 8; i++ {
		recent = RecordAction(recent, core.ActionType(i))
	}
	assert.Len(t, recent, recentActionLimit)
	assert.Equal(t, core.ActionType(2), recent[0])
	assert.Equal(t, core.ActionType(7), recent[len(recent)-1])

	before := append([]core.ActionType(nil), recent...)
	_ = RecordAction(recent, core.ActionScan)
	assert.Equal(t, before, recent, "input window is not modified")
}

func TestDiversifyMoveStreak(t *testing.T) {
	moves := []core.ActionType{core.ActionScan, core.ActionMove, core.ActionMove, core.ActionMove}
	list := func(alt core.ActionType, altScore float64) []Candidate {
		return []Candidate{cand(core.ActionMove, 10), cand(core.ActionEndTurn, 9), cand(core.ActionMove, 8), cand(alt, altScore)}
	}

	tests := []struct {
		name    string
		actions []Candidate
		d       Difficulty
		recent  []core.ActionType
		want    []core.ActionType
	}{
		{
			name:    "promotes close alternative",
			actions: list(core.ActionScan, 6),
			d:       Normal,
			recent:  moves,
			want:    []core.ActionType{core.ActionScan, core.ActionMove, core.ActionEndTurn, core.ActionMove},
		},
		{
			name:    "easy tolerates a wider gap",
			actions: list(core.ActionDisarm, 3),
			d:       Easy,
			recent:  moves,
			want:    []core.ActionType{core.ActionDisarm, core.ActionMove, core.ActionEndTurn, core.ActionMove},
		},
		{
			name:    "gap too wide",
			actions: list(core.ActionScan, 5),
			d:       Hard,
			recent:  moves,
			want:    []core.ActionType{core.ActionMove, core.ActionEndTurn, core.ActionMove, core.ActionScan},
		},
		{
			name:    "no streak",
			actions: list(core.ActionScan, 9.5),
			d:       Normal,
			recent:  []core.ActionType{core.ActionMove, core.ActionScan, core.ActionMove},
			want:    []core.ActionType{core.ActionMove, core.ActionEndTurn, core.ActionMove, core.ActionScan},
		},
		{
			name:    "short history",
			actions: list(core.ActionScan, 9.5),
			d:       Normal,
			recent:  []core.ActionType{core.ActionMove, core.ActionMove},
			want:    []core.ActionType{core.ActionMove, core.ActionEndTurn, core.ActionMove, core.ActionScan},
		},
		{
			name:    "top is not a move",
			actions: []Candidate{cand(core.ActionScan, 10), cand(core.ActionAttack, 9)},
			d:       Normal,
			recent:  moves,
			want:    []core.ActionType{core.ActionScan, core.ActionAttack},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := DiversifyMoveStreak(tt.actions, tt.d, tt.recent)
			assert.Equal(t, tt.want, types(out))
			assert.Len(t, out, len(tt.actions))
		})
	}
}
