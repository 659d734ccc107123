package ai

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
	"github.com/mitchelldurbincs/tacticsai/internal/testutil"
)

func rankedActions(p *Planner, s *core.GameState, id string, d Difficulty) []Candidate {
	ctx := p.BuildContext(s, ContextInput{Difficulty: d, Side: core.P1})
	return SortByPriority(p.GenerateActions(s, s.Unit(id), d, ctx))
}

func TestRerank_EasyIsPassthrough(t *testing.T) {
	require.Zero(t, BeamWidth[Easy])
	p := newTestPlanner()
	s := testutil.StandardState()
	actions := rankedActions(p, s, "p1-general", Easy)

	out := p.Rerank(context.Background(), s, actions, Easy, core.P1, Balanced)
	assert.Equal(t, actions, out)
	for _, a := range out {
		assert.Nil(t, a.Lookahead)
	}
}

func TestRerank_SingleCandidate(t *testing.T) {
	p := newTestPlanner()
	s := testutil.StandardState()
	one := []Candidate{cand(core.ActionEndTurn, 1)}
	assert.Equal(t, one, p.Rerank(context.Background(), s, one, Hard, core.P1, Balanced))
}

func TestRerank_SimulatesBeam(t *testing.T) {
	p := newTestPlanner()
	s := busyState()
	snapshot := s.Clone()

	for _, d := range []Difficulty{Normal, Hard} {
		t.Run(d.String(), func(t *testing.T) {
			actions := rankedActions(p, s, "p1-general", d)
			require.Greater(t, len(actions), BeamWidth[d])

			out := p.Rerank(context.Background(), s, actions, d, core.P1, Aggressive)
			require.Len(t, out, len(actions))

			simulated := 0
			for _, a := range out {
				if a.Lookahead != nil {
					simulated++
				}
			}
			assert.Equal(t, BeamWidth[d], simulated)
			assert.True(t, sort.SliceIsSorted(out, func(i, j int) bool {
				return out[i].RankScore() > out[j].RankScore()
			}))
			assert.Equal(t, snapshot, s, "simulation never touches the live snapshot")
		})
	}
}

func TestRerank_CancelledContext(t *testing.T) {
	p := newTestPlanner()
	s := testutil.StandardState()
	actions := rankedActions(p, s, "p1-general", Hard)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := p.Rerank(ctx, s, actions, Hard, core.P1, Balanced)
	require.Len(t, out, len(actions))
	for i, a := range out {
		assert.Nil(t, a.Lookahead)
		assert.InDelta(t, actions[i].Score, a.Score, 1e-9)
	}
}

func TestBestReply(t *testing.T) {
	p := newTestPlanner()
	s := testutil.StandardState()

	score, reply := p.bestReply(s, Normal, core.P2, Balanced)
	require.NotNil(t, reply)
	assert.Equal(t, core.P2, s.Unit(reply.UnitID).Owner)
	assert.InDelta(t, reply.Score, score, 1e-9)

	empty := testutil.EmptyState()
	score, reply = p.bestReply(empty, Normal, core.P2, Balanced)
	assert.Nil(t, reply)
	assert.Zero(t, score)
}
