package ai

import "github.com/mitchelldurbincs/tacticsai/internal/game/core"

// RecordAction appends a to the recent-action window, keeping the last few.
func RecordAction(recent []core.ActionType, a core.ActionType) []core.ActionType {
	out := append(append([]core.ActionType(nil), recent...), a)
	if len(out) > recentActionLimit {
		out = out[len(out)-recentActionLimit:]
	}
	return out
}

// DiversifyMoveStreak breaks up long runs of moves: when the top action is
// another move after a streak, the first close non-move alternative is
// promoted.
func DiversifyMoveStreak(actions []Candidate, d Difficulty, recent []core.ActionType) []Candidate {
	if len(actions) <= 1 || actions[0].Type != core.ActionMove || len(recent) < moveStreakLength {
		return actions
	}
	for _, a := range recent[len(recent)-moveStreakLength:] {
		if a != core.ActionMove {
			return actions
		}
	}
	delta := DiversityDelta[Normal]
	if d >= 0 && d < difficultyCount {
		delta = DiversityDelta[d]
	}

	primary := actions[0].RankScore()
	for i := 1; i < len(actions); i++ {
		a := actions[i]
		if a.Type == core.ActionMove || a.Type == core.ActionEndTurn || primary-a.RankScore() > delta {
			continue
		}
		out := make([]Candidate, 0, len(actions))
		out = append(out, a)
		out = append(out, actions[:i]...)
		return append(out, actions[i+1:]...)
	}
	return actions
}
