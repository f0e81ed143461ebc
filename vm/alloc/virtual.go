package alloc

import (
	"errors"
	"fmt"
	"math"

	"github.com/joshuapare/vmkit/internal/logger"
	"github.com/joshuapare/vmkit/vm/entity"
	"github.com/joshuapare/vmkit/vm/memory"
	"github.com/joshuapare/vmkit/vm/status"
)

// Allocator is the virtual allocator. It is itself an entity so the runtime
// can resolve it with Registry.GetFirst(entity.TypeAllocator).
type Allocator struct {
	entity.Entity

	reg *entity.Registry
	cfg Config

	allocated uint64
	maxSeen   uint32
	nextBase  memory.Addr

	stats Stats
}

// New creates an allocator with one seed chunk and registers it in reg.
func New(reg *entity.Registry, cfg Config) (*Allocator, error) {
	if reg == nil {
		reg = entity.NewRegistry()
	}
	a := &Allocator{
		reg:      reg,
		cfg:      cfg.normalized(),
		nextBase: FirstBase,
	}
	a.Init(a, entity.TypeAllocator, "")
	a.Declare(Chunks, entity.OneToMany)
	reg.Create(a)

	c, err := a.addChunk(a.cfg.SeedCapacity)
	if err != nil {
		reg.Destroy(a)
		return nil, fmt.Errorf("alloc: seed chunk: %w", err)
	}
	a.maxSeen = c.Capacity()
	return a, nil
}

// Registry returns the registry chunks and blocks are created in.
func (a *Allocator) Registry() *entity.Registry { return a.reg }

// Chunks returns the chunks in allocation order.
func (a *Allocator) Chunks() []*memory.Chunk {
	members := a.Members(Chunks)
	out := make([]*memory.Chunk, len(members))
	for i, n := range members {
		out[i] = n.(*memory.Chunk)
	}
	return out
}

// AllocatedTotal returns the bytes handed out and not yet freed.
func (a *Allocator) AllocatedTotal() uint64 { return a.allocated }

// MaxChunkCapacity returns the largest capacity any kept chunk was given.
func (a *Allocator) MaxChunkCapacity() uint32 { return a.maxSeen }

// Owner returns the chunk m was carved from, or nil if m does not belong to
// a live chunk of this allocator.
func (a *Allocator) Owner(m *memory.Memory) *memory.Chunk {
	if m == nil {
		return nil
	}
	c := m.Chunk()
	if c == nil || !a.Relationship(Chunks).Contains(c) || !c.Contains(m.Address()) || !c.Owns(m) {
		return nil
	}
	return c
}

// Alloc returns a block of exactly size bytes, or nil. A size of 0 or
// math.MaxUint32 fails without touching any chunk.
func (a *Allocator) Alloc(size uint32) *memory.Memory {
	const origin = "alloc.alloc"
	a.stats.AllocCalls++
	if size == 0 {
		status.Report(status.ZeroSize, origin)
		return nil
	}
	if size == math.MaxUint32 {
		status.Report(status.SizeTooLarge, origin)
		return nil
	}

	if m := a.scan(size); m != nil {
		return m
	}
	if m := a.defragAndReserve(size); m != nil {
		return m
	}
	if m := a.growAndReserve(size); m != nil {
		return m
	}

	a.Defragment()
	if m := a.scan(size); m != nil {
		return m
	}
	a.stats.FailedAllocs++
	status.Report(status.AllocFailed, origin)
	return nil
}

// scan reserves from the first chunk that can serve size.
func (a *Allocator) scan(size uint32) *memory.Memory {
	for _, c := range a.Chunks() {
		if c.CanReserve(size) {
			return a.reserve(c, size)
		}
	}
	return nil
}

func (a *Allocator) reserve(c *memory.Chunk, size uint32) *memory.Memory {
	m := c.Reserve(size)
	if m != nil {
		a.allocated += uint64(size)
	}
	return m
}

// defragAndReserve compacts the first chunk where compaction both helps and
// pays off, then reserves from it.
func (a *Allocator) defragAndReserve(size uint32) *memory.Memory {
	for _, c := range a.Chunks() {
		if !c.IsFragmented(size) || !c.WorthDefragmentation() {
			continue
		}
		c.Defragmentation()
		a.stats.Defragmentations++
		if c.CanReserve(size) {
			return a.reserve(c, size)
		}
		return a.scan(size)
	}
	return nil
}

// growAndReserve adds a chunk for size and reserves from it. A chunk that
// cannot serve the request is discarded again.
func (a *Allocator) growAndReserve(size uint32) *memory.Memory {
	capacity := a.cfg.chunkCapacity(size, a.maxSeen)
	c, err := a.addChunk(capacity)
	if err != nil {
		logger.Warn("chunk growth failed", "capacity", capacity, "err", err)
		return nil
	}
	if !c.CanReserve(size) {
		a.discard(c)
		return nil
	}
	a.maxSeen = max(a.maxSeen, capacity)
	return a.reserve(c, size)
}

func (a *Allocator) addChunk(capacity uint32) (*memory.Chunk, error) {
	base := a.nextBase
	c, err := memory.New(a.reg, base, capacity, memory.Options{Mapped: a.cfg.Mapped})
	if err != nil {
		return nil, err
	}
	a.Add(Chunks, c)
	a.nextBase = alignUp(c.End())
	a.stats.GrowCalls++
	logger.Debug("chunk added",
		"base", memory.FormatAddr(base),
		"capacity", capacity,
		"chunks", a.Len(Chunks),
	)
	return c, nil
}

// discard drops c from the allocator. Losing its only reference marks the
// chunk, which detaches and marks its blocks.
func (a *Allocator) discard(c *memory.Chunk) {
	a.Remove(Chunks, c)
	a.reg.Sweep()
	if alignUp(c.End()) == a.nextBase {
		a.nextBase = c.BaseAddress()
	}
	if err := c.Close(); err != nil {
		logger.Warn("chunk close failed", "base", memory.FormatAddr(c.BaseAddress()), "err", err)
	}
	a.stats.DiscardedChunks++
	logger.Debug("chunk discarded", "base", memory.FormatAddr(c.BaseAddress()), "capacity", c.Capacity())
}

// Defragment compacts every chunk. Each compaction counts in
// Stats.Defragmentations.
func (a *Allocator) Defragment() {
	for _, c := range a.Chunks() {
		c.Defragmentation()
		a.stats.Defragmentations++
	}
}

// Realloc resizes m to newSize. A nil m behaves like Alloc. When the owning
// chunk cannot grow m in place the bytes move to a new block, the old block
// is freed and the new block is returned. On any other failure m is returned
// unchanged.
func (a *Allocator) Realloc(m *memory.Memory, newSize uint32) *memory.Memory {
	const origin = "alloc.realloc"
	a.stats.ReallocCalls++
	if m == nil {
		return a.Alloc(newSize)
	}
	c := a.Owner(m)
	if c == nil {
		status.Report(status.NoOwningChunk, origin)
		return m
	}

	old := m.Size()
	switch code := c.Resize(m, newSize); code {
	case status.OK:
		a.allocated = a.allocated - uint64(old) + uint64(newSize)
		return m
	case status.NoMemory, status.FragmentedMemory:
		return a.relocate(m, newSize)
	case status.ZeroCapacity:
		// The chunk owns m, so it cannot be empty.
		status.Report(status.UnknownFault, origin)
		return m
	default:
		// Misuse such as ZeroSize was already reported by the chunk.
		return m
	}
}

func (a *Allocator) relocate(m *memory.Memory, newSize uint32) *memory.Memory {
	n := a.Alloc(newSize)
	if n == nil {
		status.Report(status.NoMemory, "alloc.realloc")
		return m
	}
	// Alloc may have compacted m's chunk; read m's bytes only now.
	copy(n.Bytes(), m.Bytes())
	a.stats.Relocations++
	a.Free(m)
	return n
}

// Free returns m to its chunk. If something still references m the release
// is deferred and AllocatedTotal is unchanged.
func (a *Allocator) Free(m *memory.Memory) {
	const origin = "alloc.free"
	a.stats.FreeCalls++
	if m == nil || m.Address() == memory.Null {
		status.Report(status.NullMemory, origin)
		return
	}
	c := a.Owner(m)
	if c == nil {
		status.Report(status.NoOwningChunk, origin)
		return
	}
	size := m.Size()
	freed, code := c.Release(m)
	switch {
	case code != status.OK:
		return
	case freed:
		a.allocated -= uint64(size)
	default:
		a.stats.DeferredFrees++
	}
}

// Close releases every chunk buffer. The allocator must not be used afterwards.
func (a *Allocator) Close() error {
	var errs []error
	for _, c := range a.Chunks() {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
