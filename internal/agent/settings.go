package agent

import (
	"fmt"
	"time"

	"github.com/mitchelldurbincs/tacticsai/internal/ai"
)

// Settings are the knobs a host may change between cycles.
type Settings struct {
	Difficulty        ai.Difficulty
	Profile           ai.Profile
	DecisionBudget    time.Duration
	SelectionBudget   time.Duration
	MaxRetries        int
	MaxActionsPerUnit int
	// PacingScale multiplies every think, observe and follow-up delay.
	// 0 runs a match as fast as the scheduler allows.
	PacingScale float64
	// Debug logs the full decision report of every action.
	Debug bool
}

// DefaultSettings returns normal difficulty with the standard pacing.
func DefaultSettings() Settings {
	return Settings{
		Difficulty:        ai.Normal,
		Profile:           ai.Balanced,
		DecisionBudget:    ai.DecisionBudget,
		SelectionBudget:   ai.SelectionBudget,
		MaxRetries:        ai.MaxActionRetries,
		MaxActionsPerUnit: ai.MaxActionsPerUnit,
		PacingScale:       1,
	}
}

func (s Settings) Validate() error {
	if s.Difficulty < ai.Easy || s.Difficulty > ai.Hard {
		return fmt.Errorf("invalid difficulty %d", s.Difficulty)
	}
	if s.Profile < ai.Balanced || s.Profile > ai.Conservative {
		return fmt.Errorf("invalid profile %d", s.Profile)
	}
	if s.DecisionBudget <= 0 {
		return fmt.Errorf("decision budget must be positive, got %s", s.DecisionBudget)
	}
	if s.SelectionBudget < 0 || s.SelectionBudget > s.DecisionBudget {
		return fmt.Errorf("selection budget must be within the decision budget, got %s", s.SelectionBudget)
	}
	if s.MaxRetries <= 0 || s.MaxActionsPerUnit <= 0 {
		return fmt.Errorf("retries and actions per unit must be positive")
	}
	if s.PacingScale < 0 {
		return fmt.Errorf("pacing scale must not be negative, got %g", s.PacingScale)
	}
	return nil
}

func (s Settings) pace(d time.Duration) time.Duration {
	return time.Duration(float64(d) * s.PacingScale)
}
