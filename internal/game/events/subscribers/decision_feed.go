package subscribers

import (
	"fmt"
	"sync"

	"github.com/mitchelldurbincs/tacticsai/internal/ai"
	"github.com/mitchelldurbincs/tacticsai/internal/game/events"
)

// FeedEntry is one line of the decision feed.
type FeedEntry struct {
	MatchID string
	Meta    events.EventMetadata
	Line    string
	// Report is set for decisions only.
	Report *ai.DecisionReport
}

// DecisionFeed keeps the most recent decision events for viewers. It is safe
// to read from another goroutine than the publisher's.
type DecisionFeed struct {
	id       string
	capacity int

	mu      sync.RWMutex
	entries []FeedEntry
	last    *ai.DecisionReport
	seen    int
	notify  chan struct{}
}

// NewDecisionFeed keeps the latest capacity entries (at least one).
func NewDecisionFeed(id string, capacity int) *DecisionFeed {
	if capacity < 1 {
		capacity = 1
	}
	return &DecisionFeed{
		id:       id,
		capacity: capacity,
		notify:   make(chan struct{}, 1),
	}
}

func (f *DecisionFeed) ID() string { return f.id }

func (f *DecisionFeed) InterestedIn(eventType string) bool {
	switch eventType {
	case events.TypeDecisionMade, events.TypeActionRejected, events.TypeFeint,
		events.TypeTurnCompleted, events.TypeMatchEnded:
		return true
	}
	return false
}

func (f *DecisionFeed) HandleEvent(ev events.Event) {
	entry := FeedEntry{MatchID: ev.GameID()}
	switch e := ev.(type) {
	case *events.DecisionMadeEvent:
		report := e.Report
		entry.Meta = e.Metadata
		entry.Report = &report
		entry.Line = fmt.Sprintf("%s t%d %s %s %s %.2f", e.Metadata.Side, e.Metadata.Turn,
			report.UnitID, report.Action, report.Target, report.Score)
		if e.FollowUp {
			entry.Line += " (follow-up)"
		}
	case *events.ActionRejectedEvent:
		entry.Meta = e.Metadata
		entry.Line = fmt.Sprintf("%s t%d %s %s rejected: %s", e.Metadata.Side, e.Metadata.Turn,
			e.UnitID, e.Action, e.Reason)
	case *events.FeintEvent:
		entry.Meta = e.Metadata
		entry.Line = fmt.Sprintf("%s t%d %s feints %s (rank %d)", e.Metadata.Side, e.Metadata.Turn,
			e.UnitID, e.Action, e.SourceRank)
	case *events.TurnCompletedEvent:
		entry.Meta = e.Metadata
		entry.Line = fmt.Sprintf("%s t%d ends turn", e.Metadata.Side, e.Metadata.Turn)
	case *events.MatchEndedEvent:
		if e.Decided {
			entry.Line = fmt.Sprintf("match over on turn %d: %s wins", e.FinalTurn, e.Winner)
		} else {
			entry.Line = fmt.Sprintf("match over on turn %d: draw", e.FinalTurn)
		}
	default:
		return
	}

	f.mu.Lock()
	f.entries = append(f.entries, entry)
	if over := len(f.entries) - f.capacity; over > 0 {
		f.entries = append(f.entries[:0], f.entries[over:]...)
	}
	if entry.Report != nil {
		f.last = entry.Report
	}
	f.seen++
	f.mu.Unlock()

	select {
	case f.notify <- struct{}{}:
	default:
	}
}

// Entries returns a copy, oldest first.
func (f *DecisionFeed) Entries() []FeedEntry {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]FeedEntry(nil), f.entries...)
}

// LastReport returns the most recent decision report, if any.
func (f *DecisionFeed) LastReport() (ai.DecisionReport, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.last == nil {
		return ai.DecisionReport{}, false
	}
	return *f.last, true
}

// Seen counts every entry ever recorded, including evicted ones.
func (f *DecisionFeed) Seen() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.seen
}

// Updated is signalled, without blocking, after each new entry.
func (f *DecisionFeed) Updated() <-chan struct{} { return f.notify }

// Reset drops all entries, as between matches.
func (f *DecisionFeed) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = nil
	f.last = nil
}
