package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionType_ParseRoundTrip(t *testing.T) {
	for a := ActionType(0); a < ActionTypeCount; a++ {
		parsed, err := ParseActionType(a.String())
		require.NoError(t, err)
		assert.Equal(t, a, parsed)
	}

	_, err := ParseActionType("fly")
	assert.Error(t, err)
}

func TestActionType_TargetKind(t *testing.T) {
	assert.Equal(t, TargetUnit, ActionAttack.TargetKind())
	assert.Equal(t, TargetCell, ActionMove.TargetKind())
	assert.Equal(t, TargetCell, ActionMoveMine.TargetKind())
	assert.Equal(t, TargetNone, ActionDetonateTower.TargetKind())
	assert.Equal(t, TargetNone, ActionEvolveB2.TargetKind())
	assert.Equal(t, TargetNone, ActionEndTurn.TargetKind())
}

func TestActionType_Evolve(t *testing.T) {
	tests := []struct {
		action  ActionType
		branch  Branch
		variant int
	}{
		{ActionEvolveA, BranchA, 0},
		{ActionEvolveA1, BranchA, 1},
		{ActionEvolveA2, BranchA, 2},
		{ActionEvolveB, BranchB, 0},
		{ActionEvolveB1, BranchB, 1},
		{ActionEvolveB2, BranchB, 2},
	}

	for _, tt := range tests {
		t.Run(tt.action.String(), func(t *testing.T) {
			assert.True(t, tt.action.IsEvolve())
			assert.Equal(t, tt.branch, tt.action.EvolveBranch())
			assert.Equal(t, tt.variant, tt.action.EvolveVariant())
		})
	}
	assert.False(t, ActionMove.IsEvolve())
}

func TestCommand_Validate(t *testing.T) {
	src := Coordinate{2, 2}
	tests := []struct {
		name    string
		cmd     Command
		wantErr error
	}{
		{"valid move", Command{Player: P1, UnitID: "u", Type: ActionMove, Target: CellTarget(Coordinate{1, 1})}, nil},
		{"valid attack", Command{Player: P2, UnitID: "u", Type: ActionAttack, Target: UnitTarget("e")}, nil},
		{"valid end turn", Command{Player: P1, UnitID: "u", Type: ActionEndTurn, Target: NoTarget()}, nil},
		{"valid move mine", Command{Player: P1, UnitID: "u", Type: ActionMoveMine, Target: CellTarget(Coordinate{1, 1}), Source: &src}, nil},
		{"bad player", Command{Player: PlayerID(5), UnitID: "u", Type: ActionEndTurn}, ErrInvalidPlayer},
		{"missing unit", Command{Player: P1, Type: ActionEndTurn}, ErrUnitNotFound},
		{"attack with cell", Command{Player: P1, UnitID: "u", Type: ActionAttack, Target: CellTarget(Coordinate{1, 1})}, ErrTargetKind},
		{"move without target", Command{Player: P1, UnitID: "u", Type: ActionMove}, ErrTargetKind},
		{"move off grid", Command{Player: P1, UnitID: "u", Type: ActionMove, Target: CellTarget(Coordinate{-1, 0})}, ErrInvalidCoordinates},
		{"move mine without source", Command{Player: P1, UnitID: "u", Type: ActionMoveMine, Target: CellTarget(Coordinate{1, 1})}, ErrInvalidCoordinates},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestTarget_Position(t *testing.T) {
	s := &GameState{}
	s.Players[P2].Units = []Unit{{ID: "e", Owner: P2, Pos: Coordinate{4, 5}}}

	pos, ok := UnitTarget("e").Position(s)
	require.True(t, ok)
	assert.Equal(t, Coordinate{4, 5}, pos)

	pos, ok = CellTarget(Coordinate{1, 2}).Position(nil)
	require.True(t, ok)
	assert.Equal(t, Coordinate{1, 2}, pos)

	_, ok = NoTarget().Position(s)
	assert.False(t, ok)
	_, ok = UnitTarget("missing").Position(s)
	assert.False(t, ok)
}
