package ai

import (
	"fmt"
	"sort"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
	"github.com/mitchelldurbincs/tacticsai/internal/game/rules"
)

const maxRejections = 8

type RejectReason int

const (
	RejectEnergy RejectReason = iota
	RejectRisk
	RejectRules
)

func (r RejectReason) String() string {
	switch r {
	case RejectEnergy:
		return "energy"
	case RejectRisk:
		return "risk"
	case RejectRules:
		return "rules"
	}
	return fmt.Sprintf("RejectReason(%d)", int(r))
}

// Rejection counts how often one kind of option was ruled out.
type Rejection struct {
	Reason RejectReason
	Action core.ActionType
	Detail string
	Count  int
}

// RejectionSummary totals rejections per reason.
type RejectionSummary struct {
	Energy int
	Risk   int
	Rules  int
}

// CandidateView is the report form of a ranked candidate.
type CandidateView struct {
	Rank       int
	Type       core.ActionType
	Target     core.Target
	Score      float64
	Lookahead  *float64
	IsFeint    bool
	SourceRank int
	Breakdown  Breakdown
}

type rejectionSet struct {
	order []string
	byKey map[string]*Rejection
}

func (s *rejectionSet) push(reason RejectReason, action core.ActionType, detail string) {
	key := fmt.Sprintf("%s:%s:%s", reason, action, detail)
	if r, ok := s.byKey[key]; ok {
		r.Count++
		return
	}
	s.byKey[key] = &Rejection{Reason: reason, Action: action, Detail: detail, Count: 1}
	s.order = append(s.order, key)
}

func (s *rejectionSet) energy(q rules.Queries, u *core.Unit, have int, action core.ActionType, cost int) bool {
	if have < cost {
		s.push(RejectEnergy, action, fmt.Sprintf("need %d, have %d", cost, have))
		return false
	}
	if !q.CheckEnergyCap(u, cost) {
		s.push(RejectEnergy, action, "energy cap limit")
		return false
	}
	return true
}

// CollectRejections explains why common options are unavailable to u:
// unaffordable costs, blocked or fatal moves, and missing targets. The most
// frequent reasons come first.
func (p *Planner) CollectRejections(state *core.GameState, u *core.Unit, ctx *Context) []Rejection {
	if state == nil || !u.Alive() {
		return nil
	}
	s := &rejectionSet{byKey: map[string]*Rejection{}}
	p.moveRejections(s, state, u, ctx)
	p.attackRejections(s, state, u)
	p.unitActionRejections(s, state, u)

	out := make([]Rejection, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, *s.byKey[k])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > maxRejections {
		out = out[:maxRejections]
	}
	return out
}

func (p *Planner) moveRejections(s *rejectionSet, state *core.GameState, u *core.Unit, ctx *Context) {
	energy := state.Players[u.Owner].Energy
	cost := p.rules.DisplayCost(state, u, rules.MoveBaseCost(u), core.ActionMove)
	if !s.energy(p.rules, u, energy, core.ActionMove, cost) {
		return
	}
	for _, n := range u.Pos.Neighbors() {
		switch {
		case !n.InBounds():
			s.push(RejectRules, core.ActionMove, "out of bounds")
		case state.Grid.IsObstacle(n):
			s.push(RejectRules, core.ActionMove, "blocked by obstacle")
		case state.Occupied(n):
			s.push(RejectRules, core.ActionMove, "occupied cell")
		case EvaluateTargetCellRisk(state, u, n, ctx.ThreatMap()) >= obstacleRisk:
			s.push(RejectRisk, core.ActionMove, "fatal risk")
		}
	}
}

func (p *Planner) attackRejections(s *rejectionSet, state *core.GameState, u *core.Unit) {
	if u.Type != core.General {
		return
	}
	targets := state.AliveUnits(u.Owner.Opponent())
	if len(targets) == 0 {
		s.push(RejectRules, core.ActionAttack, "no enemy targets")
		return
	}
	cost := rules.GeneralAttackCost(p.rules, state, u)
	if !s.energy(p.rules, u, state.Players[u.Owner].Energy, core.ActionAttack, cost) {
		return
	}
	for _, t := range targets {
		if !rules.CanGeneralAttack(p.rules, state, u, t) {
			s.push(RejectRules, core.ActionAttack, "out of range or line rules")
			return
		}
	}
}

func (p *Planner) unitActionRejections(s *rejectionSet, state *core.GameState, u *core.Unit) {
	owner := state.Players[u.Owner]
	q := p.rules

	switch u.Type {
	case core.Sweeper:
		base := 3
		if owner.Quest.SweeperScansThisRound >= 2 {
			base = 4
		}
		s.energy(q, u, owner.Energy, core.ActionScan, q.TerritoryCost(u, base))

		levels := state.Evolution(u.Owner, core.Sweeper)
		if levels.B < 1 {
			s.push(RejectRules, core.ActionSensorScan, "not unlocked")
			break
		}
		cost := 5
		if levels.B >= 3 {
			cost = 4
		}
		s.energy(q, u, owner.Energy, core.ActionSensorScan, cost)

	case core.Maker:
		open := false
		for _, n := range u.Pos.Neighbors() {
			if rules.CanOccupy(state, n) {
				open = true
				break
			}
		}
		if !open {
			s.push(RejectRules, core.ActionPlaceMine, "no legal adjacent cell")
		}
		s.energy(q, u, owner.Energy, core.ActionPlaceMine, q.TerritoryCost(u, core.MineNormal.BaseCost()))

	case core.Defuser:
		s.energy(q, u, owner.Energy, core.ActionDisarm, q.TerritoryCost(u, u.Stats().DisarmCost))
		if len(rules.EnemyMinesWithin(state, u.Owner, u.Pos, 1)) == 0 {
			s.push(RejectRules, core.ActionDisarm, "no nearby enemy mine")
		}
	}
}

// SummarizeRejections totals rejection counts per reason.
func SummarizeRejections(rs []Rejection) RejectionSummary {
	var sum RejectionSummary
	for _, r := range rs {
		switch r.Reason {
		case RejectEnergy:
			sum.Energy += r.Count
		case RejectRisk:
			sum.Risk += r.Count
		case RejectRules:
			sum.Rules += r.Count
		}
	}
	return sum
}

// SummarizeTop converts the first limit candidates into 1-based views.
func SummarizeTop(actions []Candidate, limit int) []CandidateView {
	n := min(limit, len(actions))
	if n <= 0 {
		return nil
	}
	out := make([]CandidateView, n)
	for i, a := range actions[:n] {
		out[i] = CandidateView{
			Rank:       i + 1,
			Type:       a.Type,
			Target:     a.Target,
			Score:      a.Score,
			Lookahead:  a.Lookahead,
			IsFeint:    a.IsFeint,
			SourceRank: a.SourceRank,
			Breakdown:  a.Breakdown,
		}
	}
	return out
}
