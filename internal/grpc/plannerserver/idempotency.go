package plannerserver

import (
	"sync"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	idempotencyTTL     = 10 * time.Minute
	idempotencyMaxSize = 1000
)

// idempotencyKey represents a composite key for idempotent requests
type idempotencyKey struct {
	SessionID string
	RequestID string
}

// idempotencyEntry stores a cached response with timestamp
type idempotencyEntry struct {
	response  *structpb.Struct
	createdAt time.Time
}

// IdempotencyManager caches Decide responses so a retried request does not
// fold the same snapshot into the session memory twice.
type IdempotencyManager struct {
	cache map[idempotencyKey]*idempotencyEntry
	mu    sync.RWMutex
	now   func() time.Time
}

// NewIdempotencyManager creates a new idempotency manager
func NewIdempotencyManager() *IdempotencyManager {
	return &IdempotencyManager{
		cache: make(map[idempotencyKey]*idempotencyEntry),
		now:   time.Now,
	}
}

// Check returns a copy of the cached response for the session's request id
func (im *IdempotencyManager) Check(sessionID, requestID string) *structpb.Struct {
	if requestID == "" {
		return nil
	}

	im.mu.RLock()
	defer im.mu.RUnlock()

	entry, exists := im.cache[idempotencyKey{SessionID: sessionID, RequestID: requestID}]
	if !exists || im.now().Sub(entry.createdAt) > idempotencyTTL {
		return nil
	}
	return proto.Clone(entry.response).(*structpb.Struct)
}

// Store caches a response for the given session and request id
func (im *IdempotencyManager) Store(sessionID, requestID string, resp *structpb.Struct) {
	if requestID == "" || resp == nil {
		return
	}

	im.mu.Lock()
	defer im.mu.Unlock()

	im.cache[idempotencyKey{SessionID: sessionID, RequestID: requestID}] = &idempotencyEntry{
		response:  proto.Clone(resp).(*structpb.Struct),
		createdAt: im.now(),
	}

	if len(im.cache) > idempotencyMaxSize {
		im.cleanupOldEntriesLocked()
	}
}

// Forget drops every cached response of a session
func (im *IdempotencyManager) Forget(sessionID string) {
	im.mu.Lock()
	defer im.mu.Unlock()
	for key := range im.cache {
		if key.SessionID == sessionID {
			delete(im.cache, key)
		}
	}
}

// Len returns the number of cached responses
func (im *IdempotencyManager) Len() int {
	im.mu.RLock()
	defer im.mu.RUnlock()
	return len(im.cache)
}

// cleanupOldEntriesLocked removes expired entries from the cache
// Must be called with mu held
func (im *IdempotencyManager) cleanupOldEntriesLocked() {
	cutoff := im.now().Add(-idempotencyTTL)
	for key, entry := range im.cache {
		if entry.createdAt.Before(cutoff) {
			delete(im.cache, key)
		}
	}
}
