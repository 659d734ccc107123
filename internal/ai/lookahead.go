package ai

import (
	"context"
	"sort"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
	"github.com/mitchelldurbincs/tacticsai/internal/game/rules"
)

// bestReply estimates the strongest single action side could take in
// state: best unit by tuned priority, then that unit's best tuned action.
// Replies are judged with a fresh opponent model and no carried plan.
func (p *Planner) bestReply(state *core.GameState, d Difficulty, side core.PlayerID, profile Profile) (float64, *Candidate) {
	ctx := p.BuildContext(state, ContextInput{
		Difficulty: d,
		Profile:    profile,
		Side:       side,
		Opponent:   NewOpponentModel(),
	})
	units := TuneUnits(p.GenerateUnitCandidates(state, d, ctx, side), profile)
	best, ok := BestUnit(units)
	if !ok {
		return 0, nil
	}
	actions := SortByPriority(TuneActions(p.GenerateActions(state, state.Unit(best.UnitID), d, ctx), profile))
	if len(actions) == 0 {
		return 0, nil
	}
	return actions[0].Score, &actions[0]
}

func (p *Planner) project(state *core.GameState, side core.PlayerID, c *Candidate) *core.GameState {
	return rules.Project(p.rules, state, c.Command(side), c.EnergyCost)
}

// Rerank runs a two-ply beam over the top actions: own action, the
// opponent's best reply, then the best own follow-up. Actions past the beam
// keep their base score. The beam is skipped when the difficulty has no
// width or there is nothing to choose between. When ctx ends mid-beam the
// entries not yet simulated also keep their base score.
func (p *Planner) Rerank(ctx context.Context, state *core.GameState, actions []Candidate, d Difficulty, side core.PlayerID, profile Profile) []Candidate {
	width := 0
	if d >= 0 && d < difficultyCount {
		width = BeamWidth[d]
	}
	if width <= 1 || len(actions) <= 1 {
		return actions
	}

	t := profile.Tuning()
	counterW := BeamCounterW[d] * t.LookaheadCounterMult
	followW := BeamFollowUpW[d] * t.LookaheadFollowUpMult
	enemy := side.Opponent()

	out := append([]Candidate(nil), actions...)
	for i := 0; i < min(width, len(out)); i++ {
		if ctx.Err() != nil {
			p.logger.Debug().Int("simulated", i).Msg("Lookahead budget ran out")
			break
		}
		afterOwn := p.project(state, side, &out[i])
		enemyScore, reply := p.bestReply(afterOwn, d, enemy, profile)
		afterEnemy := afterOwn
		if reply != nil {
			afterEnemy = p.project(afterOwn, enemy, reply)
		}
		followScore, _ := p.bestReply(afterEnemy, d, side, profile)

		v := out[i].Score - enemyScore*counterW + followScore*followW
		out[i].Lookahead = &v
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].RankScore(), out[j].RankScore()
		if a != b {
			return a > b
		}
		return out[i].Score > out[j].Score
	})
	return out
}
