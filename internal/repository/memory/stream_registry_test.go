package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestStreamRegistryRegisterAndLookup(t *testing.T) {
	registry := NewStreamRegistry()
	sessionId := uuid.New()

	_, found := registry.Lookup(sessionId)
	assert.False(t, found)

	handle := NewStreamHandle(context.Background())
	registry.Register(sessionId, handle)

	got, found := registry.Lookup(sessionId)
	assert.True(t, found)
	assert.Same(t, handle, got)
}

func TestStreamRegistryCancelActiveStream(t *testing.T) {
	registry := NewStreamRegistry()
	sessionId := uuid.New()

	handle := NewStreamHandle(context.Background())
	registry.Register(sessionId, handle)

	assert.True(t, registry.Cancel(sessionId))
	assert.True(t, handle.Cancelled())

	_, found := registry.Lookup(sessionId)
	assert.False(t, found)
}

func TestStreamRegistryCancelIsIdempotent(t *testing.T) {
	registry := NewStreamRegistry()
	sessionId := uuid.New()

	// No stream at all: both calls report nothing to cancel.
	assert.False(t, registry.Cancel(sessionId))
	assert.False(t, registry.Cancel(sessionId))

	registry.Register(sessionId, NewStreamHandle(context.Background()))
	assert.True(t, registry.Cancel(sessionId))
	assert.False(t, registry.Cancel(sessionId))
}

func TestStreamRegistryRegisterReplacesAndCancelsPrevious(t *testing.T) {
	registry := NewStreamRegistry()
	sessionId := uuid.New()

	first := NewStreamHandle(context.Background())
	second := NewStreamHandle(context.Background())

	registry.Register(sessionId, first)
	registry.Register(sessionId, second)

	// The old handle must not be left alive.
	assert.True(t, first.Cancelled())
	assert.False(t, second.Cancelled())

	got, found := registry.Lookup(sessionId)
	assert.True(t, found)
	assert.Same(t, second, got)
}

func TestStreamRegistryUnregisterRemovesOwnHandleOnly(t *testing.T) {
	registry := NewStreamRegistry()
	sessionId := uuid.New()

	handle := NewStreamHandle(context.Background())
	// Removing an absent entry is a no-op.
	registry.Unregister(sessionId, handle)

	registry.Register(sessionId, handle)
	registry.Unregister(sessionId, handle)

	_, found := registry.Lookup(sessionId)
	assert.False(t, found)
	// Unregister removes without cancelling; completion cleanup.
	assert.False(t, handle.Cancelled())

	// A stale handle cannot evict its replacement.
	replacement := NewStreamHandle(context.Background())
	registry.Register(sessionId, replacement)
	registry.Unregister(sessionId, handle)

	got, found := registry.Lookup(sessionId)
	assert.True(t, found)
	assert.Same(t, replacement, got)
}

func TestStreamRegistrySessionsAreIndependent(t *testing.T) {
	registry := NewStreamRegistry()
	a := uuid.New()
	b := uuid.New()

	handleA := NewStreamHandle(context.Background())
	handleB := NewStreamHandle(context.Background())
	registry.Register(a, handleA)
	registry.Register(b, handleB)

	assert.True(t, registry.Cancel(a))
	assert.False(t, handleB.Cancelled())

	_, found := registry.Lookup(b)
	assert.True(t, found)
}

func TestStreamRegistryConcurrentAccess(t *testing.T) {
	registry := NewStreamRegistry()
	sessionId := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			registry.Register(sessionId, NewStreamHandle(context.Background()))
		}()
		go func() {
			defer wg.Done()
			registry.Cancel(sessionId)
		}()
		go func() {
			defer wg.Done()
			registry.Unregister(sessionId, NewStreamHandle(context.Background()))
		}()
	}
	wg.Wait()

	// Whatever the interleaving, at most one handle can remain registered.
	if handle, found := registry.Lookup(sessionId); found {
		assert.NotNil(t, handle)
	}
}
