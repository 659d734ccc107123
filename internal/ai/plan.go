package ai

import (
	"context"
	"time"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
)

// PlanInput is the per-decision memory and settings handed to Plan.
type PlanInput struct {
	Difficulty    Difficulty
	Profile       Profile
	Side          core.PlayerID
	Opponent      OpponentModel
	OpeningPlan   OpeningPlan
	LastFeintTurn int
	Recent        []core.ActionType

	// SelectionBudget caps the lookahead; zero means the default.
	SelectionBudget time.Duration
}

// Plan is the outcome of one selection pass: which unit acts and its
// ranked options, best first.
type Plan struct {
	Context       *Context
	Unit          UnitCandidate
	RawTop        []Candidate
	Ranked        []Candidate
	Rejections    []Rejection
	LastFeintTurn int
	Feinted       bool
}

// Plan runs the full selection pipeline for in.Side: context, unit
// selection, generation, tuning, lookahead, hard constraints, feint and
// move-streak diversity. The lookahead runs under ctx capped at
// in.SelectionBudget; beam entries it does not reach keep their base scores.
// It returns ErrNoCandidates when the side has no unit left to act.
func (p *Planner) Plan(ctx context.Context, state *core.GameState, in PlanInput) (Plan, error) {
	pctx := p.BuildContext(state, ContextInput{
		Difficulty: in.Difficulty,
		Profile:    in.Profile,
		Side:       in.Side,
		Opponent:   in.Opponent,
		Plan:       in.OpeningPlan,
	})
	out := Plan{Context: pctx, LastFeintTurn: in.LastFeintTurn}

	units := SortUnits(TuneUnits(p.GenerateUnitCandidates(state, in.Difficulty, pctx, in.Side), in.Profile))
	chosen, ok := p.SelectUnit(state, units, in.Difficulty, in.Profile, pctx)
	if !ok {
		return out, ErrNoCandidates
	}
	out.Unit = chosen
	u := state.Unit(chosen.UnitID)

	sorted := SortByPriority(TuneActions(p.GenerateActions(state, u, in.Difficulty, pctx), in.Profile))
	if len(sorted) == 0 {
		return out, ErrNoCandidates
	}
	out.RawTop = sorted

	budget := in.SelectionBudget
	if budget <= 0 {
		budget = SelectionBudget
	}
	rctx, cancel := context.WithTimeout(ctx, budget)
	ranked := p.Rerank(rctx, state, sorted, in.Difficulty, in.Side, in.Profile)
	cancel()
	ranked, locked := p.constrain(state, u, ranked, pctx)
	ranked, feintTurn := p.ApplyFeint(ranked, FeintInput{
		Difficulty:    in.Difficulty,
		Profile:       in.Profile,
		Endgame:       pctx.Endgame,
		Turn:          state.TurnCount,
		LastFeintTurn: in.LastFeintTurn,
		Locked:        locked,
	})
	out.Ranked = DiversifyMoveStreak(ranked, in.Difficulty, in.Recent)
	// A feint only counts when it is still the action to execute.
	out.Feinted = out.Ranked[0].IsFeint
	if out.Feinted {
		out.LastFeintTurn = feintTurn
	}
	out.Rejections = p.CollectRejections(state, u, pctx)

	p.logger.Debug().
		Str("unit", chosen.UnitID).
		Float64("unit_score", chosen.Score).
		Int("candidates", len(out.Ranked)).
		Str("top", out.Ranked[0].String()).
		Bool("feint", out.Feinted).
		Msg("Ranked candidates")
	return out, nil
}

// Report builds the decision report for the candidate actually executed.
func (pl *Plan) Report(chosen Candidate, profile Profile) DecisionReport {
	return NewDecisionReport(chosen, pl.Context, profile, pl.RawTop, pl.Ranked, pl.Rejections)
}

// FollowUp picks a second action for a unit that already acted this turn.
// The list is rebuilt from a fresh context and constrained but not
// reranked; the best option that is not ending the turn must beat ending
// the turn by FollowUpMargin.
func (p *Planner) FollowUp(state *core.GameState, u *core.Unit, in PlanInput) (Candidate, *Context, bool) {
	pctx := p.BuildContext(state, ContextInput{
		Difficulty: in.Difficulty,
		Profile:    in.Profile,
		Side:       in.Side,
		Opponent:   in.Opponent,
		Plan:       in.OpeningPlan,
	})
	actions := SortByPriority(TuneActions(p.GenerateActions(state, u, in.Difficulty, pctx), in.Profile))
	actions = p.ApplyHardConstraints(state, u, actions, pctx)
	c, ok := ChooseFollowUp(actions)
	return c, pctx, ok
}

// ChooseFollowUp returns the first non end-turn action when it clears the
// end-turn score by FollowUpMargin. Without an end-turn option any
// non end-turn action qualifies.
func ChooseFollowUp(actions []Candidate) (Candidate, bool) {
	var best, end *Candidate
	for i := range actions {
		a := &actions[i]
		switch {
		case a.Type == core.ActionEndTurn:
			if end == nil {
				end = a
			}
		case best == nil:
			best = a
		}
	}
	if best == nil {
		return Candidate{}, false
	}
	if end != nil && best.Score <= end.Score+FollowUpMargin {
		return Candidate{}, false
	}
	return *best, true
}
