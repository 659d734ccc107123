package experience

import (
	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
)

const (
	// Channel indices for tensor representation
	ChannelOwnUnits       = 0
	ChannelEnemyUnits     = 1
	ChannelOwnFlag        = 2
	ChannelEnemyFlag      = 3
	ChannelObstacles      = 4
	ChannelSmoke          = 5
	ChannelOwnMines       = 6
	ChannelEnemyMines     = 7
	ChannelOwnBuildings   = 8
	ChannelEnemyBuildings = 9
	NumChannels           = 10

	// Scalars appended after the planes: own energy, enemy energy, turn.
	NumScalars = 3

	// Normalisation ceilings
	MaxEnergyValue = 400.0
	MaxTurnValue   = 100.0
)

// FeatureSize is the length of a StateFeatures vector.
const FeatureSize = NumChannels*core.Rows*core.Cols + NumScalars

// Serializer converts game states to tensor representations
type Serializer struct{}

// NewSerializer creates a new state serializer
func NewSerializer() *Serializer {
	return &Serializer{}
}

// StateFeatures converts a game state to a flat feature vector from side's
// perspective. Enemy mines only show once revealed to side.
func (s *Serializer) StateFeatures(state *core.GameState, side core.PlayerID) []float32 {
	out := make([]float32, FeatureSize)
	if state == nil || !side.Valid() {
		return out
	}
	opp := side.Opponent()

	for r := 0; r < core.Rows; r++ {
		for c := 0; c < core.Cols; c++ {
			cell := &state.Grid.Cells[r][c]
			if cell.Obstacle {
				out[channelIndex(ChannelObstacles, r, c)] = 1
			}
			if cell.SmokeTurns > 0 {
				out[channelIndex(ChannelSmoke, r, c)] = 1
			}
		}
	}

	for _, u := range state.AliveUnits(side) {
		out[channelIndex(ChannelOwnUnits, u.Pos.R, u.Pos.C)] = float32(u.HPRatio())
	}
	for _, u := range state.AliveUnits(opp) {
		if u.Stealthed {
			continue
		}
		out[channelIndex(ChannelEnemyUnits, u.Pos.R, u.Pos.C)] = float32(u.HPRatio())
	}

	if f := state.Players[side].FlagPosition; f.InBounds() {
		out[channelIndex(ChannelOwnFlag, f.R, f.C)] = 1
	}
	if f := state.Players[opp].FlagPosition; f.InBounds() {
		out[channelIndex(ChannelEnemyFlag, f.R, f.C)] = 1
	}

	for i := range state.Mines {
		m := &state.Mines[i]
		switch {
		case m.Owner == side:
			out[channelIndex(ChannelOwnMines, m.Pos.R, m.Pos.C)] = 1
		case m.RevealedTo(side):
			out[channelIndex(ChannelEnemyMines, m.Pos.R, m.Pos.C)] = 1
		}
	}

	for _, b := range state.Buildings {
		ch := ChannelEnemyBuildings
		if b.Owner == side {
			ch = ChannelOwnBuildings
		}
		out[channelIndex(ch, b.Pos.R, b.Pos.C)] = float32(b.Type+1) / 3
	}

	tail := NumChannels * core.Rows * core.Cols
	out[tail] = normalize(float32(state.Players[side].Energy), MaxEnergyValue)
	out[tail+1] = normalize(float32(state.Players[opp].Energy), MaxEnergyValue)
	out[tail+2] = normalize(float32(state.TurnCount), MaxTurnValue)
	return out
}

// ActionToIndex flattens a command into (action type, target cell). Commands
// without a target cell map to cell 0 of their action plane.
func (s *Serializer) ActionToIndex(cmd core.Command, state *core.GameState) int {
	cell := 0
	if pos, ok := cmd.Target.Position(state); ok && pos.InBounds() {
		cell = pos.ToIndex()
	}
	return int(cmd.Type)*core.Rows*core.Cols + cell
}

// IndexToAction converts a flattened index back to the action type and cell
func (s *Serializer) IndexToAction(index int) (core.ActionType, core.Coordinate) {
	plane := core.Rows * core.Cols
	return core.ActionType(index / plane), core.FromIndex(index % plane)
}

// ActionSpaceSize is the number of distinct ActionToIndex outputs.
func (s *Serializer) ActionSpaceSize() int {
	return int(core.ActionTypeCount) * core.Rows * core.Cols
}

func channelIndex(channel, r, c int) int {
	return channel*core.Rows*core.Cols + r*core.Cols + c
}

func normalize(v, ceiling float32) float32 {
	v /= ceiling
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}
