package ai

import "errors"

// Recoverable decision failures. None of them escape the agent; they are
// logged and published so a turn always completes.
var (
	ErrApplicationRejected = errors.New("action was not applied")
	ErrNoCandidates        = errors.New("no legal candidate")
	ErrBudgetExceeded      = errors.New("decision budget exceeded")
	ErrStaleContext        = errors.New("game state rolled back")
)
