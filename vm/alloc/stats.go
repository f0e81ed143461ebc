package alloc

import (
	"fmt"

	"github.com/joshuapare/vmkit/vm/memory"
)

// Stats holds allocator counters for tests and instrumentation.
type Stats struct {
	AllocCalls   int `json:"alloc_calls"`
	ReallocCalls int `json:"realloc_calls"`
	FreeCalls    int `json:"free_calls"`

	// Free calls that hit a still-referenced block.
	DeferredFrees int `json:"deferred_frees"`

	// Chunks created (including the seed) and new chunks dropped again
	// because they could not serve their request.
	GrowCalls       int `json:"grow_calls"`
	DiscardedChunks int `json:"discarded_chunks"`

	Defragmentations int `json:"defragmentations"` // per-chunk compactions
	Relocations      int `json:"relocations"`      // reallocs that moved the block
	FailedAllocs     int `json:"failed_allocs"`

	Chunks           int    `json:"chunks"`
	AllocatedTotal   uint64 `json:"allocated_total"`
	MaxChunkCapacity uint32 `json:"max_chunk_capacity"`
}

// Stats returns a snapshot of the allocator counters.
func (a *Allocator) Stats() Stats {
	s := a.stats
	s.Chunks = a.Len(Chunks)
	s.AllocatedTotal = a.allocated
	s.MaxChunkCapacity = a.maxSeen
	return s
}

// Verify checks every chunk and that AllocatedTotal equals the bytes
// reserved across all chunks.
func (a *Allocator) Verify() error {
	var reserved uint64
	for _, c := range a.Chunks() {
		if err := c.Verify(); err != nil {
			return fmt.Errorf("chunk %s: %w", memory.FormatAddr(c.BaseAddress()), err)
		}
		reserved += uint64(c.Capacity() - c.FreeBytes())
	}
	if reserved != a.allocated {
		return fmt.Errorf("%w: chunks reserve %d bytes, allocated total is %d", memory.ErrCorrupt, reserved, a.allocated)
	}
	return nil
}
