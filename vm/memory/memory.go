package memory

import (
	"strconv"

	"github.com/joshuapare/vmkit/vm/entity"
)

// Addr is a virtual address. 0 is the null handle.
type Addr uint64

// Null is the address no block ever has.
const Null Addr = 0

// Relationship names a chunk declares over its blocks.
const (
	Free     = "free"
	Reserved = "reserved"
)

// FormatAddr returns the identifier used for a block at a.
func FormatAddr(a Addr) string { return "0x" + strconv.FormatUint(uint64(a), 16) }

// Memory is one byte range inside a chunk's backing buffer.
type Memory struct {
	entity.Entity

	addr  Addr
	size  uint32
	chunk *Chunk
}

// Address returns the first byte of the block.
func (m *Memory) Address() Addr { return m.addr }

// Size returns the block length in bytes.
func (m *Memory) Size() uint32 { return m.size }

// End returns the address one past the last byte.
func (m *Memory) End() Addr { return m.addr + Addr(m.size) }

// Chunk returns the chunk the block was carved from.
func (m *Memory) Chunk() *Chunk { return m.chunk }

// Owner returns Reserved or Free depending on which of its chunk's lists
// currently holds m, or "" for a block that was retired.
func (m *Memory) Owner() string {
	if m.chunk == nil {
		return ""
	}
	switch {
	case m.chunk.IsReserved(m):
		return Reserved
	case m.chunk.IsFree(m):
		return Free
	default:
		return ""
	}
}

// Referrers returns the entities that reference m from outside its chunk,
// e.g. primitive values whose storage is m.
func (m *Memory) Referrers() []entity.Node {
	return m.Entity.Referrers(Free, Reserved)
}

// Reassign moves m to [addr, addr+size). The identifier follows the address
// and the registry index is updated in the same step. Bytes are not moved.
func (m *Memory) Reassign(addr Addr, size uint32) {
	if addr != m.addr {
		m.addr = addr
		m.chunk.reg.Rekey(m, FormatAddr(addr))
	}
	m.size = size
}

func (m *Memory) String() string {
	return FormatAddr(m.addr) + "+" + strconv.FormatUint(uint64(m.size), 10)
}
