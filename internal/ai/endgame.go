package ai

import (
	"github.com/mitchelldurbincs/tacticsai/internal/common"
	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
)

// EvaluateEndgame classifies the late game from the acting side's view.
func EvaluateEndgame(state *core.GameState, side core.PlayerID) EndgameState {
	enemy := side.Opponent()
	own := state.AliveUnits(side)
	foes := state.AliveUnits(enemy)
	st := EndgameState{OwnAlive: len(own), EnemyAlive: len(foes)}

	ownCarrier := state.FlagCarrier(side)
	enemyCarrier := state.FlagCarrier(enemy)
	lowPop := st.OwnAlive+st.EnemyAlive <= 5
	late := state.TurnCount >= 18

	if !lowPop && !late && ownCarrier == nil && enemyCarrier == nil {
		return st
	}
	st.Active = true

	switch {
	case ownCarrier != nil:
		dist := ownCarrier.Pos.Manhattan(state.Players[enemy].FlagPosition)
		bonus := 0.0
		if st.EnemyAlive <= 2 {
			bonus = 0.45
		}
		st.Mode = EndgameRace
		st.Urgency = common.Clamp(1.2+float64(11-dist)*0.22+bonus, 1, 4.2)
	case enemyCarrier != nil:
		dist := enemyCarrier.Pos.Manhattan(state.Players[side].FlagPosition)
		bonus := 0.0
		if st.OwnAlive <= 2 {
			bonus = 0.55
		}
		st.Mode = EndgameDefense
		st.Urgency = common.Clamp(1.4+float64(10-dist)*0.24+bonus, 1, 4.6)
	default:
		bonus := 0.0
		if lowPop {
			bonus = 0.5
		}
		st.Mode = EndgameAttrition
		st.Urgency = common.Clamp(0.9+float64(state.TurnCount-14)*0.12+bonus, 0.9, 3.5)
	}
	return st
}
