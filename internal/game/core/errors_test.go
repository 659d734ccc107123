package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapActionError(t *testing.T) {
	tests := []struct {
		name     string
		cmd      *Command
		err      error
		expected string
		isNil    bool
	}{
		{
			name:  "nil error returns nil",
			cmd:   &Command{Player: P1, UnitID: "p1-general", Type: ActionEndTurn},
			isNil: true,
		},
		{
			name:     "move with cell target",
			cmd:      &Command{Player: P1, UnitID: "p1-ranger", Type: ActionMove, Target: CellTarget(Coordinate{2, 3})},
			err:      ErrOccupied,
			expected: "player P1: p1-ranger move (2,3): target cell is occupied",
		},
		{
			name:     "untargeted action",
			cmd:      &Command{Player: P2, UnitID: "p2-maker", Type: ActionEvolveA},
			err:      ErrInsufficientEnergy,
			expected: "player P2: p2-maker evolve_a: insufficient energy",
		},
		{
			name:     "generic fallback",
			err:      ErrGameOver,
			expected: "player action: game is over",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := WrapActionError(tt.cmd, tt.err)
			if tt.isNil {
				assert.Nil(t, wrapped)
				return
			}
			require.NotNil(t, wrapped)
			assert.Equal(t, tt.expected, wrapped.Error())
			assert.True(t, errors.Is(wrapped, tt.err))
		})
	}
}
