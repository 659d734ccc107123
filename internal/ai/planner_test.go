package ai

import (
	"math/rand"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
	"github.com/mitchelldurbincs/tacticsai/internal/game/rules"
	"github.com/mitchelldurbincs/tacticsai/internal/testutil"
)

// zeroSource makes every random draw 0: no jitter offset beyond -jitter/2
// and feints always fire when eligible.
type zeroSource struct{}

func (zeroSource) Int63() int64 { return 0 }
func (zeroSource) Seed(int64)   {}

func newTestPlanner() *Planner {
	return NewPlanner(rules.NewStandard(), nil, testutil.NewTestRNG(7), testutil.NopLogger())
}

func newZeroPlanner() *Planner {
	return NewPlanner(rules.NewStandard(), nil, rand.New(zeroSource{}), testutil.NopLogger())
}

func at(r, c int) core.Coordinate { return core.Coordinate{R: r, C: c} }

func cand(t core.ActionType, score float64) Candidate {
	return Candidate{UnitID: "u", Type: t, Score: score, Breakdown: Breakdown{Total: score}}
}

func types(actions []Candidate) []core.ActionType {
	out := make([]core.ActionType, len(actions))
	for i, a := range actions {
		out[i] = a.Type
	}
	return out
}
