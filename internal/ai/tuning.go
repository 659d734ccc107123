package ai

import (
	"fmt"
	"strings"
)

// Profile selects a bias set layered over the difficulty tables.
type Profile int

const (
	Balanced Profile = iota
	Aggressive
	Conservative

	profileCount
)

var profileNames = [profileCount]string{"balanced", "aggressive", "conservative"}

func (p Profile) String() string {
	if p < 0 || p >= profileCount {
		return fmt.Sprintf("Profile(%d)", int(p))
	}
	return profileNames[p]
}

func ParseProfile(s string) (Profile, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range profileNames {
		if n == s {
			return Profile(i), nil
		}
	}
	return Balanced, fmt.Errorf("unknown tuning profile %q", s)
}

// Tuning holds the additive biases and multipliers of one profile.
type Tuning struct {
	UnitAttackBias        float64
	UnitFlagBias          float64
	UnitSafetyBias        float64
	UnitEnergyBias        float64
	ActionAttackBias      float64
	ActionFlagBias        float64
	ActionSafetyBias      float64
	ActionUtilityBias     float64
	ActionEnergyBias      float64
	ReserveEnergyDelta    float64
	LookaheadCounterMult  float64
	LookaheadFollowUpMult float64
	FeintChanceMult       float64
	FeintMaxDeltaMult     float64
}

var TuningProfiles = [profileCount]Tuning{
	Balanced: {
		LookaheadCounterMult:  1,
		LookaheadFollowUpMult: 1,
		FeintChanceMult:       1,
		FeintMaxDeltaMult:     1,
	},
	Aggressive: {
		UnitAttackBias:        1.8,
		UnitFlagBias:          1.1,
		UnitSafetyBias:        -1.1,
		UnitEnergyBias:        -0.2,
		ActionAttackBias:      2.4,
		ActionFlagBias:        1.2,
		ActionSafetyBias:      -1.5,
		ActionUtilityBias:     0.4,
		ActionEnergyBias:      -0.2,
		ReserveEnergyDelta:    -2,
		LookaheadCounterMult:  0.85,
		LookaheadFollowUpMult: 1.2,
		FeintChanceMult:       1.2,
		FeintMaxDeltaMult:     1.2,
	},
	Conservative: {
		UnitAttackBias:        -0.8,
		UnitFlagBias:          -0.2,
		UnitSafetyBias:        1.7,
		UnitEnergyBias:        0.8,
		ActionAttackBias:      -1.1,
		ActionFlagBias:        -0.3,
		ActionSafetyBias:      2.3,
		ActionUtilityBias:     0.6,
		ActionEnergyBias:      0.8,
		ReserveEnergyDelta:    2,
		LookaheadCounterMult:  1.25,
		LookaheadFollowUpMult: 0.9,
		FeintChanceMult:       0.7,
		FeintMaxDeltaMult:     0.75,
	},
}

func (p Profile) Tuning() Tuning {
	if p < 0 || p >= profileCount {
		return TuningProfiles[Balanced]
	}
	return TuningProfiles[p]
}

// TuneUnits returns a copy of units with the profile's unit biases folded
// into each score. Balanced is a passthrough.
func TuneUnits(units []UnitCandidate, p Profile) []UnitCandidate {
	out := append([]UnitCandidate(nil), units...)
	if p == Balanced {
		return out
	}
	t := p.Tuning()
	for i := range out {
		b := out[i].Breakdown
		score := out[i].Score +
			b.Attack*t.UnitAttackBias +
			b.Flag*t.UnitFlagBias +
			b.Safety*t.UnitSafetyBias +
			b.Energy*t.UnitEnergyBias
		out[i].Score = score
		out[i].Breakdown.Total = score
	}
	return out
}

// TuneActions returns a copy of actions with the profile's action biases
// folded into each score. Balanced is a passthrough.
func TuneActions(actions []Candidate, p Profile) []Candidate {
	out := append([]Candidate(nil), actions...)
	if p == Balanced {
		return out
	}
	t := p.Tuning()
	for i := range out {
		b := out[i].Breakdown
		score := out[i].Score +
			b.Attack*t.ActionAttackBias +
			b.Flag*t.ActionFlagBias +
			b.Safety*t.ActionSafetyBias +
			b.Utility*t.ActionUtilityBias +
			b.Energy*t.ActionEnergyBias
		out[i].Score = score
		out[i].Breakdown.Total = score
	}
	return out
}
