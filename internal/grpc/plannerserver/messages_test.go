package plannerserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
	"github.com/mitchelldurbincs/tacticsai/internal/testutil"
)

func TestEncodeDecodeState(t *testing.T) {
	state := testutil.StandardState()
	testutil.AddMine(state, core.P1, core.MineType(0), core.Coordinate{R: 2, C: 6})
	state.Mines[0].Revealed[core.P2] = true
	state.Grid.SetObstacle(core.Coordinate{R: 0, C: 11}, true)
	state.Grid.Cells[4][9].SmokeTurns = 2
	state.Players[core.P1].Units[0].HasFlag = true
	state.TurnCount = 12

	encoded, err := EncodeState(state)
	require.NoError(t, err)
	decoded, err := DecodeState(encoded)
	require.NoError(t, err)
	assert.Equal(t, state, decoded)
}

func TestEncodeState_Nil(t *testing.T) {
	_, err := EncodeState(nil)
	assert.Error(t, err)
}

func TestDecodeState_Rejects(t *testing.T) {
	outOfBounds := testutil.StandardState()
	outOfBounds.Players[core.P1].Units[2].Pos = core.Coordinate{R: core.Rows, C: 0}
	deadOutOfBounds := testutil.StandardState()
	deadOutOfBounds.Players[core.P1].Units[2].Pos = core.Coordinate{R: -1, C: -1}
	deadOutOfBounds.Players[core.P1].Units[2].IsDead = true
	noID := testutil.StandardState()
	noID.Players[core.P2].Units[0].ID = ""

	tests := []struct {
		name    string
		state   *core.GameState
		wantErr bool
	}{
		{name: "standard", state: testutil.StandardState()},
		{name: "dead unit off the board", state: deadOutOfBounds},
		{name: "living unit off the board", state: outOfBounds, wantErr: true},
		{name: "unit without id", state: noID, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := EncodeState(tt.state)
			require.NoError(t, err)
			_, err = DecodeState(encoded)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDecodeState_WrongShape(t *testing.T) {
	s, err := structpb.NewStruct(map[string]any{"TurnCount": "soon"})
	require.NoError(t, err)
	_, err = DecodeState(s)
	assert.Error(t, err)

	_, err = DecodeState(nil)
	assert.Error(t, err)
}
