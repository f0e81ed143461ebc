package memory

import (
	"github.com/joshuapare/vmkit/internal/logger"
)

// Compaction cost window. Below LowThreshold the gain is too small to bother;
// at HighThreshold and above shifting the data costs more than growing a new
// chunk.
const (
	LowThreshold  = 131072
	HighThreshold = 401408
)

// Dispersion is FreeBytes times the number of free blocks.
func (c *Chunk) Dispersion() uint64 {
	return uint64(c.freeBytes) * uint64(c.Len(Free))
}

// WorthDefragmentation reports whether compacting this chunk pays off.
func (c *Chunk) WorthDefragmentation() bool {
	if c.Len(Free) <= 1 {
		return false
	}
	d := c.Dispersion()
	return d >= LowThreshold && d < HighThreshold
}

// Defragmentation slides every reserved block down so the blocks sit back to
// back from the base address, preserving their bytes and address order, and
// replaces the free list with one block covering the rest of the chunk.
// FreeBytes is unchanged.
func (c *Chunk) Defragmentation() {
	if c.Len(Reserved) == 0 {
		return
	}
	c.Sort(Reserved, byAddress)

	moved := 0
	cursor := c.base
	for _, m := range c.ReservedBlocks() {
		if m.addr != cursor {
			c.move(m, cursor)
			moved++
		}
		cursor = m.End()
	}

	if c.Len(Free) > 0 {
		c.Clear(Free)
		c.retired = true
	}
	if c.freeBytes > 0 {
		c.newBlock(cursor, c.freeBytes, Free)
	}
	c.flush()

	logger.Debug("chunk defragmented",
		"chunk", FormatAddr(c.base),
		"moved", moved,
		"reserved", c.Len(Reserved),
		"free_bytes", c.freeBytes,
	)
}

// move copies m's bytes to dst and re-addresses it. dst is always below m's
// current address during compaction; copy handles the overlap.
func (c *Chunk) move(m *Memory, dst Addr) {
	data := c.buf.Bytes()
	from := int(m.addr - c.base)
	to := int(dst - c.base)
	copy(data[to:to+int(m.size)], data[from:from+int(m.size)])
	m.Reassign(dst, m.size)
}
