package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"ember/heap"
	"ember/value"
)

// handle is a server-side reference to a heap value, kept alive for as
// long as something outside the VM (an LSP session, an inspector) might
// still want to look it up.
type handle struct {
	id       string
	value    value.Value
	root     heap.RootHandle
	pinned   bool
	created  time.Time
	lastUsed time.Time
}

// HandleStore maps opaque UUID handle IDs to heap.GC-owned values. Objects
// are pinned via heap.Heap.AddRoot for as long as their handle lives, the
// same "pin on create, unpin on release" idiom the teacher's handle store
// used for its own VM objects.
type HandleStore struct {
	mu      sync.RWMutex
	handles map[string]*handle
	heap    *heap.Heap
}

// NewHandleStore creates a handle store backed by h.
func NewHandleStore(h *heap.Heap) *HandleStore {
	return &HandleStore{
		handles: make(map[string]*handle),
		heap:    h,
	}
}

// Create registers v and returns an opaque handle ID. Heap-allocated
// values (objects, arrays, functions, strings) are pinned to prevent GC
// for as long as the handle lives.
func (s *HandleStore) Create(v value.Value) string {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	h := &handle{id: id, value: v, created: time.Now(), lastUsed: time.Now()}
	if v.IsHeapRef() {
		h.root = s.heap.AddRoot(v)
		h.pinned = true
	}
	s.handles[id] = h
	return id
}

// Lookup retrieves the value for a handle. Returns the value and true,
// or the zero Value and false if the handle doesn't exist.
func (s *HandleStore) Lookup(id string) (value.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.handles[id]
	if !ok {
		return value.Value{}, false
	}
	h.lastUsed = time.Now()
	return h.value, true
}

// Release removes a handle and unpins its value.
func (s *HandleStore) Release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked(id)
}

func (s *HandleStore) releaseLocked(id string) {
	h, ok := s.handles[id]
	if !ok {
		return
	}
	if h.pinned {
		s.heap.RemoveRoot(h.root)
	}
	delete(s.handles, id)
}

// Sweep removes handles that haven't been looked up within the TTL.
func (s *HandleStore) Sweep(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-ttl)
	removed := 0
	for id, h := range s.handles {
		if h.lastUsed.Before(cutoff) {
			s.releaseLocked(id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs periodic TTL sweeps in the background. Returns a stop
// function.
func (s *HandleStore) StartSweeper(interval, ttl time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				s.Sweep(ttl)
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()
	return func() { close(done) }
}
