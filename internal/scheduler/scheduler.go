// Package scheduler runs delayed continuations on a single goroutine. A
// decision cycle never blocks: it schedules the next step with After and
// returns. Every scheduled step carries a Token; cancelling the token turns
// the step into a no-op, which is how a stale cycle is discarded when the
// game rolls back or the turn ends.
package scheduler

import (
	"container/heap"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Token cancels one scheduled step. Cancelling twice is harmless and a nil
// token is never cancelled.
type Token struct {
	cancelled atomic.Bool
}

func (t *Token) Cancel() {
	if t != nil {
		t.cancelled.Store(true)
	}
}

func (t *Token) Cancelled() bool {
	return t != nil && t.cancelled.Load()
}

type entry struct {
	at    time.Time
	seq   uint64
	fn    func()
	token *Token
}

// queue orders entries by due time, then by scheduling order.
type queue []*entry

func (q queue) Len() int { return len(q) }
func (q queue) Less(i, j int) bool {
	if q[i].at.Equal(q[j].at) {
		return q[i].seq < q[j].seq
	}
	return q[i].at.Before(q[j].at)
}
func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *queue) Push(x any)   { *q = append(*q, x.(*entry)) }
func (q *queue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}

// Scheduler is a cooperative timer queue. Callbacks run one at a time,
// either from RunDue or from the Run loop, never concurrently.
type Scheduler struct {
	clock  Clock
	logger zerolog.Logger

	mu    sync.Mutex
	q     queue
	seq   uint64
	wake  chan struct{}
	runMu sync.Mutex
}

// New creates a scheduler on clock. A nil clock means SystemClock.
func New(clock Clock, logger zerolog.Logger) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Scheduler{
		clock:  clock,
		logger: logger.With().Str("component", "Scheduler").Logger(),
		wake:   make(chan struct{}, 1),
	}
}

func (s *Scheduler) Clock() Clock { return s.clock }

// After schedules fn to run once d has elapsed on the scheduler's clock and
// returns its cancellation token. A negative d is treated as zero.
func (s *Scheduler) After(d time.Duration, fn func()) *Token {
	return s.AfterWithToken(d, &Token{}, fn)
}

// AfterWithToken is After with a caller-supplied token, so that several
// steps of one cycle share a single cancellation.
func (s *Scheduler) AfterWithToken(d time.Duration, tok *Token, fn func()) *Token {
	if d < 0 {
		d = 0
	}
	if tok == nil {
		tok = &Token{}
	}
	s.mu.Lock()
	s.seq++
	heap.Push(&s.q, &entry{at: s.clock.Now().Add(d), seq: s.seq, fn: fn, token: tok})
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return tok
}

// Len reports pending entries, cancelled ones included until they are
// reached.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.q)
}

// next pops the earliest entry due at or before now.
func (s *Scheduler) next(now time.Time) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.q) == 0 || s.q[0].at.After(now) {
		return nil
	}
	return heap.Pop(&s.q).(*entry)
}

// NextDue returns when the earliest entry is due.
func (s *Scheduler) NextDue() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.q) == 0 {
		return time.Time{}, false
	}
	return s.q[0].at, true
}

// RunDue runs every entry due at the current clock time, including ones
// scheduled with a zero delay by the callbacks themselves, and returns how
// many callbacks ran. Cancelled entries are dropped without running.
func (s *Scheduler) RunDue() int {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	ran := 0
	now := s.clock.Now()
	for {
		e := s.next(now)
		if e == nil {
			return ran
		}
		if e.token.Cancelled() {
			continue
		}
		s.invoke(e)
		ran++
	}
}

func (s *Scheduler) invoke(e *entry) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Interface("panic", r).
				Msg("Scheduled step panicked")
		}
	}()
	e.fn()
}

// Run drives the queue from the wall clock until ctx is done. It is meant
// for SystemClock; with a ManualClock call RunDue after each Advance.
func (s *Scheduler) Run(ctx context.Context) error {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		s.RunDue()

		wait := time.Hour
		if at, ok := s.NextDue(); ok {
			wait = max(0, at.Sub(s.clock.Now()))
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.wake:
		case <-timer.C:
		}
	}
}
