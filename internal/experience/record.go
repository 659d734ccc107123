// Package experience collects decision traces from matches and persists
// them as parquet files for offline tuning.
package experience

// Record kinds.
const (
	KindDecision      = "decision"
	KindRejected      = "rejected"
	KindFeint         = "feint"
	KindFollowUp      = "follow_up"
	KindUnitCompleted = "unit_completed"
	KindBudget        = "budget_exceeded"
	KindApplied       = "applied"
	KindMatchEnded    = "match_ended"
)

// Record is one row of a decision trace. Decision rows carry the scoring
// breakdown; applied rows carry the energy and reward of a command the
// engine accepted.
type Record struct {
	MatchID   string `parquet:"match_id,dict"`
	CycleID   string `parquet:"cycle_id,dict,optional"`
	Kind      string `parquet:"kind,dict"`
	Side      string `parquet:"side,dict"`
	Turn      int32  `parquet:"turn"`
	Timestamp int64  `parquet:"timestamp_ms"`

	UnitID string `parquet:"unit_id,dict,optional"`
	Action string `parquet:"action,dict,optional"`
	Target string `parquet:"target,optional"`

	Attempt  int32 `parquet:"attempt"`
	FollowUp bool  `parquet:"follow_up"`
	Reason   string `parquet:"reason,dict,optional"`

	Score        float64 `parquet:"score"`
	HasLookahead bool    `parquet:"has_lookahead"`
	Lookahead    float64 `parquet:"lookahead"`
	Attack       float64 `parquet:"attack"`
	Flag         float64 `parquet:"flag"`
	Safety       float64 `parquet:"safety"`
	Utility      float64 `parquet:"utility"`
	Energy       float64 `parquet:"energy"`

	Intent     string `parquet:"intent,dict,optional"`
	Role       string `parquet:"role,dict,optional"`
	Profile    string `parquet:"profile,dict,optional"`
	Opening    string `parquet:"opening,dict,optional"`
	Endgame    string `parquet:"endgame,dict,optional"`
	IsFeint    bool   `parquet:"is_feint"`
	SourceRank int32  `parquet:"source_rank"`
	Rejections int32  `parquet:"rejections"`

	Cost         int32     `parquet:"cost"`
	EnergyBefore int32     `parquet:"energy_before"`
	EnergyAfter  int32     `parquet:"energy_after"`
	Reward       float32   `parquet:"reward"`
	Features     []float32 `parquet:"features"`
}
