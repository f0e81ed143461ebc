package memory

import (
	"cmp"
	"fmt"
	"math"

	"github.com/joshuapare/vmkit/internal/backing"
	"github.com/joshuapare/vmkit/vm/entity"
	"github.com/joshuapare/vmkit/vm/status"
)

// Options configures chunk construction.
type Options struct {
	// Mapped backs the chunk with an anonymous mapping instead of a heap slice.
	Mapped bool
}

// Chunk is a fixed-capacity backing buffer managed as free and reserved blocks.
type Chunk struct {
	entity.Entity

	reg       *entity.Registry
	buf       *backing.Buffer
	base      Addr
	capacity  uint32
	freeBytes uint32

	// retired is set when a free block left the free list; the memory
	// repository is swept before the mutating call returns.
	retired bool
}

// New creates a chunk of capacity bytes at base, registers it and seeds its
// free list with one block spanning the whole buffer. A nil reg gets a
// private registry.
func New(reg *entity.Registry, base Addr, capacity uint32, opts Options) (*Chunk, error) {
	if base == Null {
		return nil, ErrZeroBase
	}
	if uint64(base) > math.MaxUint64-uint64(capacity) {
		return nil, ErrAddressSpace
	}
	if reg == nil {
		reg = entity.NewRegistry()
	}
	buf, err := backing.New(int(capacity), opts.Mapped)
	if err != nil {
		return nil, fmt.Errorf("memory: chunk at %s: %w", FormatAddr(base), err)
	}

	c := &Chunk{
		reg:       reg,
		buf:       buf,
		base:      base,
		capacity:  capacity,
		freeBytes: capacity,
	}
	c.Init(c, entity.TypeChunk, "")
	c.Declare(Free, entity.OneToMany).Declare(Reserved, entity.OneToMany)
	reg.Create(c)

	if capacity > 0 {
		c.newBlock(base, capacity, Free)
	}
	return c, nil
}

// Registry returns the registry the chunk's blocks live in.
func (c *Chunk) Registry() *entity.Registry { return c.reg }

// BaseAddress returns the address of the first byte.
func (c *Chunk) BaseAddress() Addr { return c.base }

// End returns the address one past the last byte.
func (c *Chunk) End() Addr { return c.base + Addr(c.capacity) }

// Capacity returns the chunk size in bytes.
func (c *Chunk) Capacity() uint32 { return c.capacity }

// FreeBytes returns the number of bytes not reserved.
func (c *Chunk) FreeBytes() uint32 { return c.freeBytes }

// Mapped reports whether the buffer is an anonymous mapping.
func (c *Chunk) Mapped() bool { return c.buf.Mapped() }

// Contains reports whether addr falls inside the chunk's range.
func (c *Chunk) Contains(addr Addr) bool { return addr >= c.base && addr < c.End() }

// IsReserved reports whether m is on the reserved list.
func (c *Chunk) IsReserved(m *Memory) bool {
	return m != nil && c.Relationship(Reserved).Contains(m)
}

// IsFree reports whether m is on the free list.
func (c *Chunk) IsFree(m *Memory) bool {
	return m != nil && c.Relationship(Free).Contains(m)
}

// Owns reports whether m is a member of either list.
func (c *Chunk) Owns(m *Memory) bool { return c.IsReserved(m) || c.IsFree(m) }

// FreeBlocks returns the free list in its current order.
func (c *Chunk) FreeBlocks() []*Memory { return c.blocks(Free) }

// ReservedBlocks returns the reserved list in its current order.
func (c *Chunk) ReservedBlocks() []*Memory { return c.blocks(Reserved) }

func (c *Chunk) blocks(name string) []*Memory {
	members := c.Relationship(name).Members()
	out := make([]*Memory, len(members))
	for i, n := range members {
		out[i] = n.(*Memory)
	}
	return out
}

// Close releases the backing buffer. The chunk must no longer be used.
func (c *Chunk) Close() error { return c.buf.Close() }

// Closed reports whether Close was called.
func (c *Chunk) Closed() bool { return c.buf.Closed() }

func (c *Chunk) newBlock(addr Addr, size uint32, list string) *Memory {
	m := &Memory{addr: addr, size: size, chunk: c}
	m.Init(m, entity.TypeMemory, FormatAddr(addr))
	c.reg.Create(m)
	c.Add(list, m)
	return m
}

// retire drops a free block. Losing its only reference marks it.
func (c *Chunk) retire(m *Memory) {
	c.Remove(Free, m)
	c.retired = true
}

// flush sweeps retired blocks out of the memory repository.
func (c *Chunk) flush() {
	if !c.retired {
		return
	}
	c.retired = false
	if r := c.reg.Repository(entity.TypeMemory); r != nil {
		r.Sweep()
	}
}

func (c *Chunk) freeAt(addr Addr) *Memory {
	n := c.Find(Free, func(n entity.Node) bool { return n.(*Memory).addr == addr })
	if n == nil {
		return nil
	}
	return n.(*Memory)
}

func byAddress(a, b entity.Node) int {
	return cmp.Compare(a.(*Memory).addr, b.(*Memory).addr)
}

// Reserve carves a block of exactly size bytes out of the first free block
// large enough, in free-list order. It returns nil if size is zero or no
// single free block can hold it.
func (c *Chunk) Reserve(size uint32) *Memory {
	const origin = "chunk.reserve"
	if size == 0 {
		status.Report(status.ZeroSize, origin)
		return nil
	}
	if size > c.freeBytes {
		status.Report(status.NoMemory, origin)
		return nil
	}
	n := c.Find(Free, func(n entity.Node) bool { return n.(*Memory).size >= size })
	if n == nil {
		status.Report(status.FragmentedMemory, origin)
		return nil
	}
	found := n.(*Memory)

	m := c.newBlock(found.addr, size, Reserved)
	if remainder := found.size - size; remainder == 0 {
		c.retire(found)
	} else {
		found.Reassign(found.addr+Addr(size), remainder)
	}
	c.freeBytes -= size
	c.flush()
	return m
}

// checkBlock validates m for Resize and Release. Only reserved blocks are
// live allocations; a free block is as unknown to callers as a foreign one.
func (c *Chunk) checkBlock(m *Memory, origin string) status.Code {
	if m == nil || m.addr == Null {
		return status.Report(status.NullMemory, origin)
	}
	if !c.IsReserved(m) {
		return status.Report(status.UnknownAddress, origin)
	}
	return status.OK
}

// Resize changes m's size in place.
//
//   - shrinking returns the tail to the free list
//   - growing consumes the free block that starts at m.End()
//
// NoMemory means the chunk as a whole lacks the bytes; FragmentedMemory means
// the bytes exist but not directly after m. Neither is logged: callers are
// expected to relocate.
func (c *Chunk) Resize(m *Memory, newSize uint32) status.Code {
	const origin = "chunk.resize"
	if code := c.checkBlock(m, origin); code != status.OK {
		return code
	}
	if c.capacity == 0 {
		return status.Report(status.ZeroCapacity, origin)
	}
	if newSize == 0 {
		return status.Report(status.ZeroSize, origin)
	}
	switch {
	case newSize == m.size:
		return status.OK
	case newSize < m.size:
		c.shrink(m, newSize)
		return status.OK
	default:
		return c.grow(m, newSize)
	}
}

func (c *Chunk) shrink(m *Memory, newSize uint32) {
	tail := m.size - newSize
	tailAddr := m.addr + Addr(newSize)
	end := m.End()

	m.Reassign(m.addr, newSize)
	if adj := c.freeAt(end); adj != nil {
		adj.Reassign(tailAddr, adj.size+tail)
	} else {
		c.newBlock(tailAddr, tail, Free)
	}
	c.freeBytes += tail
	c.Union()
}

func (c *Chunk) grow(m *Memory, newSize uint32) status.Code {
	delta := newSize - m.size
	if c.freeBytes < delta {
		return status.NoMemory
	}
	adj := c.freeAt(m.End())
	if adj == nil || adj.size < delta {
		return status.FragmentedMemory
	}
	if adj.size == delta {
		c.retire(adj)
	} else {
		adj.Reassign(adj.addr+Addr(delta), adj.size-delta)
	}
	m.Reassign(m.addr, newSize)
	c.freeBytes -= delta
	c.flush()
	return status.OK
}

// Release returns m to the free list and coalesces. If anything outside the
// chunk still references m the release is deferred: the result is OK but
// nothing changes and freed is false.
func (c *Chunk) Release(m *Memory) (freed bool, code status.Code) {
	if code := c.checkBlock(m, "chunk.release"); code != status.OK {
		return false, code
	}
	if len(m.Referrers()) > 0 {
		return false, status.OK
	}
	// Add before remove so m is never left unreferenced in between.
	c.Add(Free, m)
	c.Remove(Reserved, m)
	c.freeBytes += m.size
	c.Union()
	return true, status.OK
}

// Union sorts the free list by address and merges every run of touching
// blocks into its leftmost block.
func (c *Chunk) Union() {
	c.Sort(Free, byAddress)
	c.PairwiseForEach(Free, func(l, r entity.Node) entity.Step {
		left, right := l.(*Memory), r.(*Memory)
		if right.addr != left.End() {
			return entity.Continue
		}
		left.Reassign(left.addr, left.size+right.size)
		c.retired = true
		return entity.RemoveRight
	})
	c.flush()
}

// CanReserve reports whether Reserve(size) would succeed.
func (c *Chunk) CanReserve(size uint32) bool {
	if size == 0 || c.freeBytes < size {
		return false
	}
	if c.Len(Free) == 1 {
		return true
	}
	return c.Find(Free, func(n entity.Node) bool { return n.(*Memory).size >= size }) != nil
}

// IsFragmented reports whether the chunk has size free bytes in aggregate but
// no single free block that large.
func (c *Chunk) IsFragmented(size uint32) bool {
	return c.freeBytes >= size && !c.CanReserve(size)
}
