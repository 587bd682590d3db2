package heap

import "time"

// Stats holds the heap's read-only observables: counts of collections,
// allocations, deallocations, bytes allocated/freed, total collection
// time, and peak usage — ported field-for-field from the original
// engine's GC statistics struct.
type Stats struct {
	Collections      uint64
	MinorCollections  uint64
	MajorCollections  uint64
	Allocations       uint64
	Deallocations     uint64
	BytesAllocated    uint64
	BytesFreed        uint64
	CollectionTime    time.Duration
	PeakBytesRetained uint64
	WeakRefsCleared   uint64
}

func (s Stats) BytesRetained() uint64 {
	if s.BytesAllocated < s.BytesFreed {
		return 0
	}
	return s.BytesAllocated - s.BytesFreed
}
