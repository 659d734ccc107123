package ai

import "github.com/mitchelldurbincs/tacticsai/internal/game/core"

// NoFeintYet is the last-feint turn of a fresh memory.
const NoFeintYet = -999

// FeintInput carries what ApplyFeint needs besides the ranked list.
type FeintInput struct {
	Difficulty    Difficulty
	Profile       Profile
	Endgame       EndgameState
	Turn          int
	LastFeintTurn int

	// Locked is set when the constrained leader is a lethal strike.
	Locked bool
}

// ApplyFeint occasionally promotes a near-best alternative (rank 2 to 4)
// over the top action to stay less predictable. It returns the possibly
// reordered list and the turn to record as the last feint; the list is
// returned unchanged when no feint happens.
func (p *Planner) ApplyFeint(actions []Candidate, in FeintInput) ([]Candidate, int) {
	d := in.Difficulty
	if d < 0 || d >= difficultyCount || len(actions) < 2 || in.Locked {
		return actions, in.LastFeintTurn
	}
	t := in.Profile.Tuning()
	chance := FeintChance[d] * t.FeintChanceMult
	switch {
	case in.Endgame.Mode == EndgameDefense && in.Endgame.Urgency >= 2.2:
		chance *= 0.35
	case in.Endgame.Mode == EndgameRace && in.Endgame.Urgency >= 2.6:
		chance *= 0.5
	}
	if chance <= 0 || in.Turn-in.LastFeintTurn < FeintCooldownTurns {
		return actions, in.LastFeintTurn
	}

	first := actions[0]
	if first.Type == core.ActionEndTurn {
		return actions, in.LastFeintTurn
	}
	maxDelta := FeintMaxDelta[d] * t.FeintMaxDeltaMult
	strongAttack := first.Type == core.ActionAttack && first.Breakdown.Attack >= 10

	var ranks []int
	for i := 1; i < min(4, len(actions)); i++ {
		a := actions[i]
		switch {
		case a.Type == core.ActionEndTurn:
		case first.RankScore()-a.RankScore() > maxDelta:
		case a.Breakdown.Safety+2 < first.Breakdown.Safety:
		case strongAttack && a.Breakdown.Attack+5 < first.Breakdown.Attack:
		default:
			ranks = append(ranks, i)
		}
	}
	if len(ranks) == 0 || p.randFloat() >= chance {
		return actions, in.LastFeintTurn
	}

	idx := ranks[int(p.randFloat()*float64(len(ranks)))%len(ranks)]
	promoted := actions[idx]
	promoted.IsFeint = true
	promoted.SourceRank = idx + 1
	demoted := first
	demoted.IsFeint = false
	demoted.SourceRank = 1

	out := make([]Candidate, 0, len(actions))
	out = append(out, promoted, demoted)
	for i, a := range actions {
		if i != 0 && i != idx {
			out = append(out, a)
		}
	}
	return out, in.Turn
}
