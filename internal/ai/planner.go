package ai

import (
	"math/rand"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
	"github.com/mitchelldurbincs/tacticsai/internal/game/rules"
)

// Planner bundles the collaborators the scoring pipeline needs: the rules
// queries, the opening book and a random source for jitter and feints.
type Planner struct {
	rules  rules.Queries
	book   *OpeningBook
	logger zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPlanner creates a planner. A nil rng gets a time-seeded source and a
// nil book falls back to the embedded one.
func NewPlanner(q rules.Queries, book *OpeningBook, rng *rand.Rand, logger zerolog.Logger) *Planner {
	if q == nil {
		q = rules.NewStandard()
	}
	if book == nil {
		book = defaultBook
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Planner{
		rules:  q,
		book:   book,
		rng:    rng,
		logger: logger.With().Str("component", "Planner").Logger(),
	}
}

func (p *Planner) Rules() rules.Queries { return p.rules }

func (p *Planner) Book() *OpeningBook { return p.book }

// randFloat draws from [0, 1) under the planner's lock.
func (p *Planner) randFloat() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Float64()
}

// BuildContext is BuildContext with the planner's opening book.
func (p *Planner) BuildContext(state *core.GameState, in ContextInput) *Context {
	if in.Book == nil {
		in.Book = p.book
	}
	return BuildContext(state, in)
}
