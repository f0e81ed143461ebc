package memory

import (
	"cmp"
	"fmt"
	"slices"
)

// Block is one entry of a chunk layout.
type Block struct {
	Addr Addr   `json:"addr" yaml:"addr"`
	Size uint32 `json:"size" yaml:"size"`
	Free bool   `json:"free" yaml:"free"`
}

// Layout returns every block of the chunk in address order.
func (c *Chunk) Layout() []Block {
	var out []Block
	for _, m := range c.ReservedBlocks() {
		out = append(out, Block{Addr: m.addr, Size: m.size})
	}
	for _, m := range c.FreeBlocks() {
		out = append(out, Block{Addr: m.addr, Size: m.size, Free: true})
	}
	slices.SortFunc(out, func(a, b Block) int { return cmp.Compare(a.Addr, b.Addr) })
	return out
}

// Verify checks the chunk's bookkeeping:
//
//   - FreeBytes + reserved sizes == Capacity, and free sizes == FreeBytes
//   - blocks tile [BaseAddress, End) with no gap or overlap
//   - no two free blocks touch
//   - every block is live, keyed by its address and mirrors the chunk
//
// It returns an error wrapping ErrCorrupt describing the first violation.
func (c *Chunk) Verify() error {
	var reservedSum, freeSum uint64
	for _, name := range []string{Reserved, Free} {
		for _, m := range c.blocks(name) {
			switch {
			case m.Marked():
				return corrupt("%s block %s is marked", name, m)
			case m.ID() != FormatAddr(m.addr):
				return corrupt("%s block %s keyed as %q", name, m, m.ID())
			case m.chunk != c:
				return corrupt("%s block %s belongs to another chunk", name, m)
			case m.Incoming(name) == nil || !m.Incoming(name).Contains(c):
				return corrupt("%s block %s does not mirror the chunk", name, m)
			case m.size == 0:
				return corrupt("%s block %s is empty", name, m)
			}
			if name == Free {
				freeSum += uint64(m.size)
			} else {
				reservedSum += uint64(m.size)
			}
		}
	}
	if reservedSum+uint64(c.freeBytes) != uint64(c.capacity) {
		return corrupt("reserved %d + free %d != capacity %d", reservedSum, c.freeBytes, c.capacity)
	}
	if freeSum != uint64(c.freeBytes) {
		return corrupt("free blocks sum to %d, FreeBytes is %d", freeSum, c.freeBytes)
	}

	cursor := c.base
	var prevFree bool
	for i, b := range c.Layout() {
		if b.Addr != cursor {
			return corrupt("block at %s, expected %s", FormatAddr(b.Addr), FormatAddr(cursor))
		}
		if i > 0 && b.Free && prevFree {
			return corrupt("free blocks touch at %s", FormatAddr(b.Addr))
		}
		prevFree = b.Free
		cursor = b.Addr + Addr(b.Size)
	}
	if cursor != c.End() {
		return corrupt("blocks end at %s, chunk ends at %s", FormatAddr(cursor), FormatAddr(c.End()))
	}
	return nil
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorrupt, fmt.Sprintf(format, args...))
}

// Stats summarises a chunk.
type Stats struct {
	Base           Addr   `json:"base"`
	Capacity       uint32 `json:"capacity"`
	FreeBytes      uint32 `json:"free_bytes"`
	ReservedBytes  uint32 `json:"reserved_bytes"`
	FreeBlocks     int    `json:"free_blocks"`
	ReservedBlocks int    `json:"reserved_blocks"`
	LargestFree    uint32 `json:"largest_free"`
	Dispersion     uint64 `json:"dispersion"`
	WorthDefrag    bool   `json:"worth_defrag"`
	Mapped         bool   `json:"mapped"`
}

// Stats returns a snapshot of the chunk's counters.
func (c *Chunk) Stats() Stats {
	s := Stats{
		Base:           c.base,
		Capacity:       c.capacity,
		FreeBytes:      c.freeBytes,
		ReservedBytes:  c.capacity - c.freeBytes,
		FreeBlocks:     c.Len(Free),
		ReservedBlocks: c.Len(Reserved),
		Dispersion:     c.Dispersion(),
		WorthDefrag:    c.WorthDefragmentation(),
		Mapped:         c.Mapped(),
	}
	for _, m := range c.FreeBlocks() {
		s.LargestFree = max(s.LargestFree, m.size)
	}
	return s
}
