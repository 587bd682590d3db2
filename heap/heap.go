// Package heap implements Ember's generational, incremental, tri-colour
// mark-sweep collector over the object graph defined by the value package.
package heap

import (
	"errors"
	"sync"
	"time"

	"ember/value"
)

// PromotionThreshold is the number of young collections an object must
// survive before it is promoted to the old generation.
const PromotionThreshold = 2

// IncrementalStep bounds how many grey objects CollectIncremental traces
// per call, independent of its time budget, so a pathological budget can't
// turn one call into an unbounded pause.
const IncrementalStep = 256

// ErrOutOfMemory is returned by an Alloc* method when the heap has a
// configured maximum size and honoring the allocation would exceed it even
// after a collection.
var ErrOutOfMemory = errors.New("heap: out of memory")

// Phase names the collector's current position in its incremental cycle.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseMarking
	PhaseSweeping
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseMarking:
		return "marking"
	case PhaseSweeping:
		return "sweeping"
	default:
		return "unknown"
	}
}

// approxSize gives each heap type a fixed bookkeeping size for threshold
// accounting. Real payload sizes (string bytes, array backing stores) vary
// at runtime; this only needs to be good enough to pace collections.
const (
	sizeString   = 48
	sizeObject   = 64
	sizeArray    = 56
	sizeFunction = 96
)

// Heap owns both generations, the root set, the interned-string table, and
// the weak-reference registry. A Heap is safe for concurrent use; its
// mutex is coarse-grained, matching the single-writer assumption the rest
// of the engine makes about heap mutation.
type Heap struct {
	mu sync.Mutex

	young []value.HeapObject
	old   []value.HeapObject

	youngBytes     int
	youngThreshold int
	maxHeapBytes   int // 0 means unbounded

	roots    map[RootHandle]value.Value
	nextRoot RootHandle

	strings *value.StringTable
	weak    *WeakRegistry

	stats Stats

	// Incremental-cycle state, persisted across CollectIncremental calls.
	phase        Phase
	incGrey      []value.HeapObject
	sweepCursor  int
	sweepSurvive []value.HeapObject
}

// RootHandle identifies a pinned root returned by AddRoot.
type RootHandle int

// Config configures a freshly-created Heap.
type Config struct {
	// InitialYoungBytes is the young generation's starting collection
	// threshold. Zero selects a small default suitable for embedding.
	InitialYoungBytes int
	// MaxHeapBytes caps total retained bytes across both generations.
	// Zero means unbounded.
	MaxHeapBytes int
}

// New creates an empty heap with its own string table and weak-reference
// registry.
func New(cfg Config) *Heap {
	threshold := cfg.InitialYoungBytes
	if threshold <= 0 {
		threshold = 64 * 1024
	}
	return &Heap{
		youngThreshold: threshold,
		maxHeapBytes:   cfg.MaxHeapBytes,
		roots:          make(map[RootHandle]value.Value),
		strings:        value.NewStringTable(),
		weak:           newWeakRegistry(),
	}
}

// Strings returns the heap's interned-string table.
func (h *Heap) Strings() *value.StringTable { return h.strings }

// Weak returns the heap's weak-reference registry.
func (h *Heap) Weak() *WeakRegistry { return h.weak }

// Stats returns a snapshot of the heap's collection statistics.
func (h *Heap) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}

// AddRoot pins v so the collector treats it as always-reachable, and
// returns a handle to unpin it later with RemoveRoot. Pinning a value with
// no heap reference (a number, a boolean, undefined) is legal and a no-op
// for tracing purposes, so the caller doesn't need to check first.
func (h *Heap) AddRoot(v value.Value) RootHandle {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextRoot
	h.nextRoot++
	h.roots[id] = v
	return id
}

// RemoveRoot unpins a previously-added root. Removing an unknown or
// already-removed handle is a no-op.
func (h *Heap) RemoveRoot(id RootHandle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.roots, id)
}

// RootCount reports the number of currently-pinned roots, for diagnostics.
func (h *Heap) RootCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.roots)
}

// track registers a freshly-constructed payload with the young generation
// and records its bookkeeping size. If a collection is mid-cycle, the new
// object is conservatively treated as already reached (grey) rather than
// white, satisfying the invariant that a mutator allocation during an
// incremental cycle must not be swept as garbage before the cycle sees it.
func (h *Heap) track(obj value.HeapObject, size int) {
	hdr := obj.Head()
	hdr.Size = size
	hdr.GenAge = 0
	if h.phase == PhaseIdle {
		hdr.Mark = value.White
	} else {
		hdr.Mark = value.Grey
		h.incGrey = append(h.incGrey, obj)
	}
	h.young = append(h.young, obj)
	h.youngBytes += size
	h.stats.Allocations++
	h.stats.BytesAllocated += uint64(size)
	h.touchPeak()
}

func (h *Heap) touchPeak() {
	retained := h.stats.BytesAllocated - h.stats.BytesFreed
	if retained > h.stats.PeakBytesRetained {
		h.stats.PeakBytesRetained = retained
	}
}

// reserve makes room for an allocation of size bytes, collecting young (and
// growing the threshold) as needed, failing with ErrOutOfMemory only if a
// configured max is exceeded even after collection.
func (h *Heap) reserve(size int) error {
	if h.youngBytes+size <= h.youngThreshold {
		return nil
	}
	h.collectYoungLocked()
	if h.youngBytes+size <= h.youngThreshold {
		return nil
	}
	grown := h.youngThreshold * 2
	for grown < h.youngBytes+size {
		grown *= 2
	}
	if h.maxHeapBytes > 0 && h.youngBytes+h.oldBytes()+size > h.maxHeapBytes {
		return ErrOutOfMemory
	}
	h.youngThreshold = grown
	return nil
}

// resetStringMarks clears every interned string's mark to white. Interned
// strings live in the StringTable's chain rather than a generation list, so
// unlike young/old objects (whose marks are reset as part of sweeping) they
// need an explicit reset before each mark phase.
func (h *Heap) resetStringMarks() {
	for _, s := range h.strings.All() {
		s.Header.Mark = value.White
	}
}

func (h *Heap) oldBytes() int {
	total := 0
	for _, o := range h.old {
		total += o.Head().Size
	}
	return total
}

// AllocString allocates a fresh, non-interned string.
func (h *Heap) AllocString(data string) (*value.String, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.reserve(sizeString + len(data)); err != nil {
		return nil, err
	}
	s := value.NewString(data)
	h.track(s, sizeString+len(data))
	return s, nil
}

// InternString interns data via the heap's string table. Interning a
// string that already exists returns the canonical instance without
// allocating or counting against the young-generation threshold.
func (h *Heap) InternString(data string) *value.String {
	return h.strings.Intern(data)
}

// AllocObject allocates a fresh object with the given prototype (nil for
// none).
func (h *Heap) AllocObject(prototype *value.Object) (*value.Object, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.reserve(sizeObject); err != nil {
		return nil, err
	}
	o := value.NewObject(prototype)
	h.track(o, sizeObject)
	return o, nil
}

// AllocArray allocates a fresh, empty array.
func (h *Heap) AllocArray() (*value.Array, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.reserve(sizeArray); err != nil {
		return nil, err
	}
	a := value.NewArray()
	h.track(a, sizeArray)
	return a, nil
}

// AllocNativeFunction allocates a function wrapping a host callback.
func (h *Heap) AllocNativeFunction(name string, fn value.NativeFunc) (*value.Function, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.reserve(sizeFunction); err != nil {
		return nil, err
	}
	f := value.NewNativeFunction(name, fn)
	h.track(f, sizeFunction)
	return f, nil
}

// AllocBytecodeFunction allocates a function wrapping a compiled block.
func (h *Heap) AllocBytecodeFunction(name string, code any, paramNames []string, closure *value.Object) (*value.Function, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.reserve(sizeFunction); err != nil {
		return nil, err
	}
	f := value.NewBytecodeFunction(name, code, paramNames, closure)
	h.track(f, sizeFunction)
	return f, nil
}

// CollectYoung runs a minor collection: it marks from the root set and from
// every old-generation object's direct children (the simplified remembered
// set — old objects are never swept by a minor collection, so treating all
// of them as roots for this pass is slow but correct), then sweeps only the
// young generation, promoting survivors that have reached
// PromotionThreshold.
func (h *Heap) CollectYoung() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.collectYoungLocked()
	return h.stats
}

func (h *Heap) collectYoungLocked() {
	start := time.Now()
	h.resetStringMarks()

	var grey []value.HeapObject
	push := func(v value.Value) {
		if !v.IsHeapRef() {
			return
		}
		ho := v.Heap()
		if ho == nil || ho.Head().GenAge >= PromotionThreshold {
			return // old-generation target; its own children are pushed below
		}
		if ho.Head().Mark == value.White {
			ho.Head().Mark = value.Grey
			grey = append(grey, ho)
		}
	}

	for _, v := range h.roots {
		push(v)
	}
	for _, old := range h.old {
		old.Trace(push)
	}
	for len(grey) > 0 {
		obj := grey[len(grey)-1]
		grey = grey[:len(grey)-1]
		obj.Head().Mark = value.Black
		obj.Trace(push)
	}

	h.strings.EvictUnreachable(func(s *value.String) bool {
		if s.Header.GenAge >= PromotionThreshold {
			return true // not swept by this pass
		}
		return s.Header.Mark != value.White
	})

	h.stats.WeakRefsCleared += uint64(h.weak.ProcessGC(func(ho value.HeapObject) bool {
		return ho.Head().GenAge >= PromotionThreshold || ho.Head().Mark != value.White
	}))

	survivors := make([]value.HeapObject, 0, len(h.young))
	var freedBytes int
	var freed uint64
	for _, obj := range h.young {
		hdr := obj.Head()
		if hdr.Mark == value.White {
			freed++
			freedBytes += hdr.Size
			continue
		}
		hdr.Mark = value.White
		hdr.GenAge++
		if hdr.GenAge >= PromotionThreshold {
			h.old = append(h.old, obj)
		} else {
			survivors = append(survivors, obj)
		}
	}
	h.young = survivors
	h.youngBytes = 0
	for _, obj := range h.young {
		h.youngBytes += obj.Head().Size
	}

	h.stats.Collections++
	h.stats.MinorCollections++
	h.stats.Deallocations += freed
	h.stats.BytesFreed += uint64(freedBytes)
	h.stats.CollectionTime += time.Since(start)
	h.touchPeak()
}

// CollectFull runs a major collection over both generations: mark from
// roots only (no remembered-set shortcut is needed once everything is in
// scope), sweep both generations, and reset every surviving mark to white.
func (h *Heap) CollectFull() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.collectFullLocked()
	return h.stats
}

func (h *Heap) collectFullLocked() {
	start := time.Now()
	h.resetStringMarks()

	for _, obj := range h.young {
		obj.Head().Mark = value.White
	}
	for _, obj := range h.old {
		obj.Head().Mark = value.White
	}

	var grey []value.HeapObject
	push := func(v value.Value) {
		if !v.IsHeapRef() {
			return
		}
		ho := v.Heap()
		if ho == nil {
			return
		}
		if ho.Head().Mark == value.White {
			ho.Head().Mark = value.Grey
			grey = append(grey, ho)
		}
	}
	for _, v := range h.roots {
		push(v)
	}
	for len(grey) > 0 {
		obj := grey[len(grey)-1]
		grey = grey[:len(grey)-1]
		obj.Head().Mark = value.Black
		obj.Trace(push)
	}

	h.strings.EvictUnreachable(func(s *value.String) bool {
		return s.Header.Mark != value.White
	})

	sweep := func(list []value.HeapObject) (survivors []value.HeapObject, freed uint64, freedBytes int) {
		for _, obj := range list {
			hdr := obj.Head()
			if hdr.Mark == value.White {
				freed++
				freedBytes += hdr.Size
				continue
			}
			hdr.Mark = value.White
			survivors = append(survivors, obj)
		}
		return
	}

	h.stats.WeakRefsCleared += uint64(h.weak.ProcessGC(func(ho value.HeapObject) bool {
		return ho.Head().Mark != value.White
	}))

	ysurv, yfreed, yfreedBytes := sweep(h.young)
	osurv, ofreed, ofreedBytes := sweep(h.old)
	h.young = ysurv
	h.old = osurv
	h.youngBytes = 0
	for _, obj := range h.young {
		h.youngBytes += obj.Head().Size
	}

	h.stats.Collections++
	h.stats.MajorCollections++
	h.stats.Deallocations += yfreed + ofreed
	h.stats.BytesFreed += uint64(yfreedBytes + ofreedBytes)
	h.stats.CollectionTime += time.Since(start)
	h.touchPeak()
}

// CollectIncremental advances the collector by one step bounded by budget,
// cycling idle -> marking -> sweeping -> idle, and returns the phase it
// left off in. Calling it repeatedly with small budgets drives a full minor
// collection to completion without ever pausing the mutator for the whole
// cycle at once; calling CollectYoung or CollectFull mid-cycle is safe and
// simply restarts the incremental state machine from idle on its next call.
func (h *Heap) CollectIncremental(budget time.Duration) Phase {
	h.mu.Lock()
	defer h.mu.Unlock()

	deadline := time.Now().Add(budget)
	start := time.Now()

	if h.phase == PhaseIdle {
		h.phase = PhaseMarking
		h.resetStringMarks()
		h.incGrey = h.incGrey[:0]
		push := func(v value.Value) {
			if !v.IsHeapRef() {
				return
			}
			ho := v.Heap()
			if ho == nil || ho.Head().GenAge >= PromotionThreshold {
				return
			}
			if ho.Head().Mark == value.White {
				ho.Head().Mark = value.Grey
				h.incGrey = append(h.incGrey, ho)
			}
		}
		for _, v := range h.roots {
			push(v)
		}
		for _, old := range h.old {
			old.Trace(push)
		}
	}

	if h.phase == PhaseMarking {
		push := func(v value.Value) {
			if !v.IsHeapRef() {
				return
			}
			ho := v.Heap()
			if ho == nil || ho.Head().GenAge >= PromotionThreshold {
				return
			}
			if ho.Head().Mark == value.White {
				ho.Head().Mark = value.Grey
				h.incGrey = append(h.incGrey, ho)
			}
		}
		processed := 0
		for len(h.incGrey) > 0 {
			if processed >= IncrementalStep || time.Now().After(deadline) {
				h.stats.CollectionTime += time.Since(start)
				return h.phase
			}
			obj := h.incGrey[len(h.incGrey)-1]
			h.incGrey = h.incGrey[:len(h.incGrey)-1]
			obj.Head().Mark = value.Black
			obj.Trace(push)
			processed++
		}
		h.strings.EvictUnreachable(func(s *value.String) bool {
			if s.Header.GenAge >= PromotionThreshold {
				return true
			}
			return s.Header.Mark != value.White
		})
		h.stats.WeakRefsCleared += uint64(h.weak.ProcessGC(func(ho value.HeapObject) bool {
			return ho.Head().GenAge >= PromotionThreshold || ho.Head().Mark != value.White
		}))
		h.phase = PhaseSweeping
		h.sweepCursor = 0
		h.sweepSurvive = h.sweepSurvive[:0]
	}

	if h.phase == PhaseSweeping {
		var freed uint64
		var freedBytes int
		for h.sweepCursor < len(h.young) {
			if time.Now().After(deadline) {
				h.stats.CollectionTime += time.Since(start)
				return h.phase
			}
			obj := h.young[h.sweepCursor]
			hdr := obj.Head()
			if hdr.Mark == value.White {
				freed++
				freedBytes += hdr.Size
			} else {
				hdr.Mark = value.White
				hdr.GenAge++
				if hdr.GenAge >= PromotionThreshold {
					h.old = append(h.old, obj)
				} else {
					h.sweepSurvive = append(h.sweepSurvive, obj)
				}
			}
			h.sweepCursor++
		}

		h.young = h.sweepSurvive
		h.sweepSurvive = nil
		h.youngBytes = 0
		for _, obj := range h.young {
			h.youngBytes += obj.Head().Size
		}
		h.stats.Collections++
		h.stats.MinorCollections++
		h.stats.Deallocations += freed
		h.stats.BytesFreed += uint64(freedBytes)
		h.phase = PhaseIdle
	}

	h.stats.CollectionTime += time.Since(start)
	h.touchPeak()
	return h.phase
}

// MemoryUsage returns the number of bytes currently retained across both
// generations, for the host's memory_usage() observability hook.
func (h *Heap) MemoryUsage() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.youngBytes + h.oldBytes()
}

// ObjectCount returns the total number of live heap objects across both
// generations, for diagnostics and tests.
func (h *Heap) ObjectCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.young) + len(h.old)
}
