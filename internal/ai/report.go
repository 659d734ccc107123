package ai

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
)

const reportTopCount = 5

// DecisionReport describes one chosen action and why it won.
type DecisionReport struct {
	UnitID    string
	Action    core.ActionType
	Target    core.Target
	MineType  core.MineType
	Score     float64
	Lookahead *float64

	Intent         Intent
	Role           Role
	HasRole        bool
	Profile        Profile
	OpeningPlan    OpeningPlan
	EndgameMode    EndgameMode
	EndgameUrgency float64

	OpponentAggression   float64
	OpponentFlagRush     float64
	OpponentMinePressure float64

	IsFeint    bool
	SourceRank int
	Breakdown  Breakdown

	RawTop           []CandidateView
	FinalTop         []CandidateView
	Rejections       []Rejection
	RejectionSummary RejectionSummary
}

// NewDecisionReport assembles the report for chosen. raw and final are the
// ranked lists before and after reranking and constraints.
func NewDecisionReport(chosen Candidate, ctx *Context, profile Profile, raw, final []Candidate, rejections []Rejection) DecisionReport {
	r := DecisionReport{
		UnitID:           chosen.UnitID,
		Action:           chosen.Type,
		Target:           chosen.Target,
		MineType:         chosen.MineType,
		Score:            chosen.Score,
		Lookahead:        chosen.Lookahead,
		Profile:          profile,
		IsFeint:          chosen.IsFeint,
		SourceRank:       chosen.SourceRank,
		Breakdown:        chosen.Breakdown,
		RawTop:           SummarizeTop(raw, reportTopCount),
		FinalTop:         SummarizeTop(final, reportTopCount),
		Rejections:       rejections,
		RejectionSummary: SummarizeRejections(rejections),
	}
	if ctx != nil {
		r.Intent = ctx.Intent
		r.Role, r.HasRole = ctx.RoleOf(chosen.UnitID)
		if ctx.Opening.Active {
			r.OpeningPlan = ctx.Opening.Plan
		}
		r.EndgameMode = ctx.Endgame.Mode
		r.EndgameUrgency = ctx.Endgame.Urgency
		r.OpponentAggression = ctx.Opponent.Aggression
		r.OpponentFlagRush = ctx.Opponent.FlagRush
		r.OpponentMinePressure = ctx.Opponent.MinePressure
	}
	return r
}

// RankScore mirrors Candidate.RankScore.
func (r *DecisionReport) RankScore() float64 {
	if r.Lookahead != nil {
		return *r.Lookahead
	}
	return r.Score
}

// MarshalZerologObject lets a report be logged with Event.Object.
func (r DecisionReport) MarshalZerologObject(e *zerolog.Event) {
	e.Str("unit", r.UnitID).
		Str("action", r.Action.String()).
		Str("target", r.Target.String()).
		Float64("score", r.Score).
		Str("intent", r.Intent.String()).
		Str("profile", r.Profile.String()).
		Str("opening", r.OpeningPlan.String()).
		Str("endgame", r.EndgameMode.String()).
		Float64("urgency", r.EndgameUrgency).
		Bool("feint", r.IsFeint)
	if r.Lookahead != nil {
		e.Float64("lookahead", *r.Lookahead)
	}
	if r.HasRole {
		e.Str("role", r.Role.String())
	}
	if r.IsFeint {
		e.Int("source_rank", r.SourceRank)
	}
	if n := len(r.Rejections); n > 0 {
		e.Int("rejections", n)
	}
}

// String is a multi-line summary used by the viewer and the clipboard.
func (r DecisionReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s score=%.2f", r.UnitID, r.Action, r.Target, r.Score)
	if r.Lookahead != nil {
		fmt.Fprintf(&b, " lookahead=%.2f", *r.Lookahead)
	}
	if r.IsFeint {
		fmt.Fprintf(&b, " feint(from #%d)", r.SourceRank)
	}
	fmt.Fprintf(&b, "\nintent=%s profile=%s opening=%s endgame=%s(%.2f)\n",
		r.Intent, r.Profile, r.OpeningPlan, r.EndgameMode, r.EndgameUrgency)
	fmt.Fprintf(&b, "opponent aggression=%.2f flag_rush=%.2f mine_pressure=%.2f\n",
		r.OpponentAggression, r.OpponentFlagRush, r.OpponentMinePressure)
	bd := r.Breakdown
	fmt.Fprintf(&b, "breakdown attack=%.2f flag=%.2f safety=%.2f utility=%.2f energy=%.2f\n",
		bd.Attack, bd.Flag, bd.Safety, bd.Utility, bd.Energy)
	for _, v := range r.FinalTop {
		fmt.Fprintf(&b, "  #%d %s %s %.2f\n", v.Rank, v.Type, v.Target, v.Score)
	}
	if len(r.Rejections) > 0 {
		s := r.RejectionSummary
		fmt.Fprintf(&b, "rejected energy=%d risk=%d rules=%d\n", s.Energy, s.Risk, s.Rules)
	}
	return b.String()
}
