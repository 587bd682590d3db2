package heap

import (
	"sync"

	"github.com/google/uuid"

	"ember/value"
)

// WeakReference holds a weak reference to a heap object. When the target
// is collected, Get starts returning false and, if a finalizer was set, it
// fires exactly once with the value that used to be there.
type WeakReference struct {
	id        uuid.UUID
	target    value.HeapObject
	asValue   value.Value
	finalizer func(value.Value)
	mu        sync.RWMutex
}

// ID returns the weak reference's unique identifier.
func (wr *WeakReference) ID() uuid.UUID { return wr.id }

// Get returns the target value and true, or the zero Value and false once
// the target has been collected.
func (wr *WeakReference) Get() (value.Value, bool) {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	if wr.target == nil {
		return value.Value{}, false
	}
	return wr.asValue, true
}

// IsAlive reports whether the target has not yet been collected.
func (wr *WeakReference) IsAlive() bool {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	return wr.target != nil
}

// clear clears the reference and returns the old target, or nil if it was
// already cleared.
func (wr *WeakReference) clear() value.HeapObject {
	wr.mu.Lock()
	defer wr.mu.Unlock()
	old := wr.target
	wr.target = nil
	return old
}

// SetFinalizer installs a callback run once, after the target is collected.
func (wr *WeakReference) SetFinalizer(fn func(value.Value)) {
	wr.mu.Lock()
	defer wr.mu.Unlock()
	wr.finalizer = fn
}

func (wr *WeakReference) finalizerFn() func(value.Value) {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	return wr.finalizer
}

// WeakRegistry tracks every weak reference the host has created and clears
// them as their targets are collected.
type WeakRegistry struct {
	mu   sync.Mutex
	refs map[uuid.UUID]*WeakReference
}

func newWeakRegistry() *WeakRegistry {
	return &WeakRegistry{refs: make(map[uuid.UUID]*WeakReference)}
}

// New creates and registers a weak reference to v. v must be a heap-tagged
// value (object, array, function, or string); calling New on any other tag
// panics, matching the accessor convention used throughout the value
// package.
func (r *WeakRegistry) New(v value.Value) *WeakReference {
	ho := v.Heap()
	if ho == nil {
		panic("heap: WeakRegistry.New called on a non-heap value")
	}
	wr := &WeakReference{id: uuid.New(), target: ho, asValue: v}
	r.mu.Lock()
	r.refs[wr.id] = wr
	r.mu.Unlock()
	return wr
}

// Lookup finds a weak reference by ID.
func (r *WeakRegistry) Lookup(id uuid.UUID) *WeakReference {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refs[id]
}

// Forget removes a weak reference from the registry without running its
// finalizer.
func (r *WeakRegistry) Forget(wr *WeakReference) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.refs, wr.id)
}

// Count returns the number of registered weak references, live or cleared.
func (r *WeakRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.refs)
}

// ProcessGC clears every weak reference whose target isMarked reports
// unreachable, running each one's finalizer immediately after it clears —
// the same interleaved per-reference ordering the original uses in its own
// sweep (gc.c's clear-then-callback loop never collects a finalizer batch
// to run later). The scan that finds unreachable refs runs under the
// registry lock; clearing and finalizing happen after it's released, so a
// finalizer can safely create new weak references or touch the heap
// without deadlocking on this registry's lock.
func (r *WeakRegistry) ProcessGC(isMarked func(value.HeapObject) bool) int {
	r.mu.Lock()
	var toFinalize []*WeakReference
	for _, wr := range r.refs {
		wr.mu.RLock()
		target := wr.target
		wr.mu.RUnlock()
		if target != nil && !isMarked(target) {
			toFinalize = append(toFinalize, wr)
		}
	}
	r.mu.Unlock()

	cleared := 0
	for _, wr := range toFinalize {
		old := wr.clear()
		if old == nil {
			continue
		}
		cleared++
		if fn := wr.finalizerFn(); fn != nil {
			fn(wr.asValue)
		}
	}
	return cleared
}
