package ai

import (
	"time"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
)

// Weights scale unit priority and action breakdown components per
// difficulty. Jitter is the spread of the random nudge on unit priority.
type Weights struct {
	UnitAttackOpportunity float64
	UnitFlagPressure      float64
	UnitSurvival          float64
	UnitEnergyEfficiency  float64
	ActionDamage          float64
	ActionFlagPressure    float64
	ActionSafety          float64
	ActionUtility         float64
	Jitter                float64
}

var DifficultyWeights = [difficultyCount]Weights{
	Easy:   {0.8, 0.7, 0.6, 0.5, 0.9, 0.8, 0.7, 0.6, 0.8},
	Normal: {1.2, 1.0, 1.0, 0.8, 1.3, 1.1, 1.2, 1.0, 0.4},
	Hard:   {1.5, 1.3, 1.2, 1.0, 1.6, 1.3, 1.5, 1.2, 0.15},
}

var (
	ThinkDelay     = [difficultyCount]time.Duration{320 * time.Millisecond, 420 * time.Millisecond, 520 * time.Millisecond}
	ReserveBase    = [difficultyCount]float64{4, 6, 8}
	FeintChance    = [difficultyCount]float64{0, 0.10, 0.14}
	FeintMaxDelta  = [difficultyCount]float64{0, 2.2, 3.2}
	BeamWidth      = [difficultyCount]int{0, 2, 4}
	BeamCounterW   = [difficultyCount]float64{0, 0.25, 0.45}
	BeamFollowUpW  = [difficultyCount]float64{0, 0.16, 0.32}
	DiversityDelta = [difficultyCount]float64{7.5, 5.5, 4.5}
	ThreatScale    = [difficultyCount]float64{0.9, 1.0, 1.15}
)

const (
	FeintCooldownTurns = 2
	MaxActionRetries   = 6
	MaxActionsPerUnit  = 3
	DecisionBudget     = 1200 * time.Millisecond
	// SelectionBudget bounds the lookahead inside one decision.
	SelectionBudget    = 400 * time.Millisecond
	ObserveDelay       = 120 * time.Millisecond
	FollowUpDelay      = 280 * time.Millisecond
	FollowUpJitter     = 220 * time.Millisecond
	DefaultActionThink = 400 * time.Millisecond
	// FollowUpMargin is how far a follow-up must beat ending the turn.
	FollowUpMargin = 2.0

	unitPreviewCount  = 3
	unitPreviewWeight = 0.2
	recentActionLimit = 6
	moveStreakLength  = 3
	maxHotspots       = 8
	obstacleRisk      = 999.0
)

// ActionThinkTime paces execution only; it never changes what is chosen.
var ActionThinkTime = [core.ActionTypeCount]time.Duration{
	core.ActionMove:          350 * time.Millisecond,
	core.ActionAttack:        600 * time.Millisecond,
	core.ActionScan:          700 * time.Millisecond,
	core.ActionSensorScan:    760 * time.Millisecond,
	core.ActionPlaceMine:     800 * time.Millisecond,
	core.ActionPlaceTower:    760 * time.Millisecond,
	core.ActionPlaceFactory:  760 * time.Millisecond,
	core.ActionPlaceHub:      760 * time.Millisecond,
	core.ActionTeleport:      620 * time.Millisecond,
	core.ActionDetonateTower: 800 * time.Millisecond,
	core.ActionThrowMine:     740 * time.Millisecond,
	core.ActionPickupMine:    500 * time.Millisecond,
	core.ActionDropMine:      500 * time.Millisecond,
	core.ActionMoveMine:      780 * time.Millisecond,
	core.ActionConvertMine:   760 * time.Millisecond,
	core.ActionDisarm:        650 * time.Millisecond,
	core.ActionEvolveA:       520 * time.Millisecond,
	core.ActionEvolveA1:      560 * time.Millisecond,
	core.ActionEvolveA2:      560 * time.Millisecond,
	core.ActionEvolveB:       520 * time.Millisecond,
	core.ActionEvolveB1:      560 * time.Millisecond,
	core.ActionEvolveB2:      560 * time.Millisecond,
	core.ActionPickupFlag:    450 * time.Millisecond,
	core.ActionDropFlag:      550 * time.Millisecond,
	core.ActionEndTurn:       250 * time.Millisecond,
}

// ExecutionDelay is the pause before acting on a ranked list of n options.
func ExecutionDelay(primary core.ActionType, n int) time.Duration {
	d := DefaultActionThink
	if primary >= 0 && primary < core.ActionTypeCount && ActionThinkTime[primary] > 0 {
		d = ActionThinkTime[primary]
	}
	extra := min(6, max(0, n-1))
	return d + time.Duration(extra)*60*time.Millisecond
}

// ActionPriority breaks score ties.
var ActionPriority = [core.ActionTypeCount]int{
	core.ActionAttack:        90,
	core.ActionPickupFlag:    80,
	core.ActionDetonateTower: 79,
	core.ActionEvolveA1:      78,
	core.ActionEvolveA2:      78,
	core.ActionEvolveB1:      76,
	core.ActionEvolveB2:      76,
	core.ActionEvolveA:       74,
	core.ActionEvolveB:       72,
	core.ActionConvertMine:   71,
	core.ActionMoveMine:      69,
	core.ActionTeleport:      67,
	core.ActionThrowMine:     66,
	core.ActionPlaceTower:    64,
	core.ActionPlaceFactory:  63,
	core.ActionPlaceHub:      62,
	core.ActionPickupMine:    61,
	core.ActionDropMine:      60,
	core.ActionPlaceMine:     60,
	core.ActionDisarm:        55,
	core.ActionSensorScan:    50,
	core.ActionScan:          45,
	core.ActionMove:          35,
	core.ActionDropFlag:      20,
	core.ActionEndTurn:       0,
}

var IntentActionBonus = [intentCount][core.ActionTypeCount]float64{
	PushFlag: {
		core.ActionMove:       3,
		core.ActionPickupFlag: 12,
		core.ActionAttack:     1.5,
		core.ActionTeleport:   2,
		core.ActionPlaceHub:   1.1,
		core.ActionDropFlag:   -10,
		core.ActionEndTurn:    -2,
	},
	HuntFlagCarrier: {
		core.ActionAttack:     5,
		core.ActionMove:       2.2,
		core.ActionScan:       1.4,
		core.ActionSensorScan: 1.8,
		core.ActionDropFlag:   -2,
	},
	ControlMines: {
		core.ActionScan:          4.5,
		core.ActionSensorScan:    5.2,
		core.ActionDisarm:        4.2,
		core.ActionPlaceTower:    2.2,
		core.ActionDetonateTower: 3.4,
		core.ActionPlaceMine:     3.5,
		core.ActionThrowMine:     2.1,
		core.ActionPickupMine:    1.7,
		core.ActionMoveMine:      3.2,
		core.ActionConvertMine:   3.6,
		core.ActionEvolveA:       0.8,
		core.ActionEvolveB:       1.4,
		core.ActionEvolveB1:      1.8,
		core.ActionEvolveB2:      1.8,
		core.ActionMove:          0.8,
	},
	Stabilize: {
		core.ActionDisarm:     2.4,
		core.ActionScan:       1.8,
		core.ActionSensorScan: 2.4,
		core.ActionPlaceTower: 1.5,
		core.ActionTeleport:   1.2,
		core.ActionMove:       -0.8,
		core.ActionPlaceMine:  -1.2,
		core.ActionEvolveA:    1.2,
		core.ActionEvolveB:    1.2,
		core.ActionEvolveA1:   1.4,
		core.ActionEvolveA2:   1.4,
		core.ActionEvolveB1:   1.4,
		core.ActionEvolveB2:   1.4,
		core.ActionAttack:     -1,
		core.ActionEndTurn:    1.2,
	},
}

var RoleActionBonus = [roleCount][core.ActionTypeCount]float64{
	Striker: {
		core.ActionAttack:     4.2,
		core.ActionMove:       1.8,
		core.ActionThrowMine:  1.6,
		core.ActionTeleport:   1.4,
		core.ActionPickupFlag: 2.2,
		core.ActionEndTurn:    -0.8,
	},
	Flanker: {
		core.ActionMove:       2.2,
		core.ActionAttack:     1.5,
		core.ActionScan:       1.2,
		core.ActionSensorScan: 1.4,
		core.ActionEvolveA:    0.8,
		core.ActionEvolveB:    0.8,
		core.ActionPlaceMine:  0.8,
	},
	Controller: {
		core.ActionPlaceMine:     4.3,
		core.ActionPlaceTower:    2.2,
		core.ActionDetonateTower: 2.6,
		core.ActionMoveMine:      2.6,
		core.ActionConvertMine:   2.8,
		core.ActionDisarm:        2.8,
		core.ActionScan:          2.3,
		core.ActionSensorScan:    2.8,
		core.ActionEvolveA:       1.4,
		core.ActionEvolveB:       1.6,
		core.ActionAttack:        -0.6,
	},
	Scout: {
		core.ActionScan:       4.1,
		core.ActionSensorScan: 4.6,
		core.ActionPickupMine: 1.2,
		core.ActionMove:       1.6,
		core.ActionEvolveB:    0.8,
		core.ActionDisarm:     1.8,
	},
	Support: {
		core.ActionDisarm:       4.2,
		core.ActionScan:         2.2,
		core.ActionSensorScan:   2.8,
		core.ActionPlaceHub:     1.4,
		core.ActionPlaceFactory: 1.2,
		core.ActionPlaceTower:   1.4,
		core.ActionEvolveB:      1.2,
		core.ActionMove:         1.2,
		core.ActionPickupFlag:   -0.8,
	},
}
