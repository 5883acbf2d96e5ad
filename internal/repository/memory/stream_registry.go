package memory

import (
	"sync"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// StreamRegistry tracks the single live inference stream per chat session.
// Entries never expire on their own; the relay removes them on every exit
// path. The mutex serializes compound operations (cancel-and-replace,
// cancel-and-remove) that the cache cannot do atomically.
type StreamRegistry struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewStreamRegistry() *StreamRegistry {
	c := cache.New(cache.NoExpiration, 0)
	return &StreamRegistry{
		cache: c,
	}
}

// Register stores the handle for the session. If a previous handle is still
// live it is cancelled first, so at most one stream per session stays active.
func (r *StreamRegistry) Register(sessionId uuid.UUID, handle *StreamHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := sessionId.String()
	if x, found := r.cache.Get(key); found {
		x.(*StreamHandle).Cancel()
	}
	r.cache.Set(key, handle, cache.NoExpiration)
}

func (r *StreamRegistry) Lookup(sessionId uuid.UUID) (*StreamHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if x, found := r.cache.Get(sessionId.String()); found {
		return x.(*StreamHandle), true
	}
	return nil, false
}

// Cancel aborts the session's stream if one is registered. Returns false
// when there was nothing to cancel; calling it again after a successful
// cancel reports false as well.
func (r *StreamRegistry) Cancel(sessionId uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := sessionId.String()
	x, found := r.cache.Get(key)
	if !found {
		return false
	}
	x.(*StreamHandle).Cancel()
	r.cache.Delete(key)
	return true
}

// Unregister removes the entry, but only while it still maps to the given
// handle. A relay that was replaced mid-flight must not evict the handle its
// successor registered.
func (r *StreamRegistry) Unregister(sessionId uuid.UUID, handle *StreamHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := sessionId.String()
	if x, found := r.cache.Get(key); found && x.(*StreamHandle) == handle {
		r.cache.Delete(key)
	}
}
