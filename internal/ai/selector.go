package ai

import (
	"sort"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
)

func actionPriority(a core.ActionType) int {
	if a < 0 || a >= core.ActionTypeCount {
		return 0
	}
	return ActionPriority[a]
}

// SortByPriority returns a copy ordered by score, then by action priority.
func SortByPriority(actions []Candidate) []Candidate {
	out := append([]Candidate(nil), actions...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return actionPriority(out[i].Type) > actionPriority(out[j].Type)
	})
	return out
}

// SortUnits returns a copy ordered by descending priority.
func SortUnits(units []UnitCandidate) []UnitCandidate {
	out := append([]UnitCandidate(nil), units...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// BestUnit is the highest priority unit, if any.
func BestUnit(units []UnitCandidate) (UnitCandidate, bool) {
	if len(units) == 0 {
		return UnitCandidate{}, false
	}
	return SortUnits(units)[0], true
}

// SelectUnit picks which unit acts. Among the top few units by priority it
// previews each unit's best tuned action and favours the strongest
// combination of action score and unit priority. It falls back to the
// plain priority order when no preview produces an action.
func (p *Planner) SelectUnit(state *core.GameState, units []UnitCandidate, d Difficulty, profile Profile, ctx *Context) (UnitCandidate, bool) {
	sorted := SortUnits(units)
	if len(sorted) == 0 {
		return UnitCandidate{}, false
	}
	chosen := sorted[0]
	bestPreview := 0.0
	previewed := false
	for _, cand := range sorted[:min(unitPreviewCount, len(sorted))] {
		u := state.Unit(cand.UnitID)
		actions := TuneActions(p.GenerateActions(state, u, d, ctx), profile)
		if len(actions) == 0 {
			continue
		}
		best := SortByPriority(actions)[0]
		combined := best.RankScore() + cand.Score*unitPreviewWeight
		if !previewed || combined > bestPreview {
			bestPreview = combined
			chosen = cand
			previewed = true
		}
	}
	return chosen, true
}
