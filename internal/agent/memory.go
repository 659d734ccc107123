package agent

import (
	"github.com/mitchelldurbincs/tacticsai/internal/ai"
	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
)

// openingTurns is the last turn on which an opening plan is carried.
const openingTurns = 6

// Memory is everything the agent carries from one decision to the next.
type Memory struct {
	Opponent      ai.OpponentModel
	OpeningPlan   ai.OpeningPlan
	LastFeintTurn int
	Recent        []core.ActionType
	LastSnapshot  *core.GameState
	LastTurn      int
}

// NewMemory returns a fresh memory.
func NewMemory() Memory {
	return Memory{
		Opponent:      ai.NewOpponentModel(),
		OpeningPlan:   ai.PlanNone,
		LastFeintTurn: ai.NoFeintYet,
	}
}

// Reset forgets everything, as after a rollback or a new match.
func (m *Memory) Reset() {
	*m = NewMemory()
}

// Observe folds a new snapshot into the memory: the opponent model is
// updated against the previous snapshot, which is then replaced. It reports
// whether the turn went backwards, in which case the memory was reset first.
func (m *Memory) Observe(state *core.GameState, side core.PlayerID) (rolledBack bool) {
	if state.TurnCount < m.LastTurn {
		m.Reset()
		rolledBack = true
	}
	m.Opponent = ai.UpdateOpponentModel(m.Opponent, m.LastSnapshot, state, side)
	m.LastSnapshot = state.Clone()
	m.LastTurn = state.TurnCount
	return rolledBack
}

// Clone returns a copy that shares nothing mutable with m.
func (m Memory) Clone() Memory {
	out := m
	out.Opponent = m.Opponent.Clone()
	out.Recent = append([]core.ActionType(nil), m.Recent...)
	out.LastSnapshot = m.LastSnapshot.Clone()
	return out
}

// RefreshOpening keeps a plan during the opening turns and drops it after.
func (m *Memory) RefreshOpening(turn int, choose func() ai.OpeningPlan) {
	if turn > openingTurns {
		m.OpeningPlan = ai.PlanNone
		return
	}
	if m.OpeningPlan == ai.PlanNone {
		m.OpeningPlan = choose()
	}
}
