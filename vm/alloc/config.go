package alloc

import "github.com/joshuapare/vmkit/vm/memory"

const (
	// MinChunk is the smallest chunk the allocator creates.
	MinChunk = 32768

	// MaxChunk is the largest chunk the allocator creates.
	MaxChunk = 134217728

	// FirstBase is where the first chunk is mapped.
	FirstBase memory.Addr = 0x1000

	// chunkAlign separates consecutive chunks in the address space.
	chunkAlign = 0x1000
)

// Chunks is the name of the allocator's relationship to its chunks.
const Chunks = "chunks"

// Config tunes an Allocator. Zero fields take their defaults.
type Config struct {
	SeedCapacity uint32 // capacity of the chunk created by New
	MinChunk     uint32
	MaxChunk     uint32
	Mapped       bool // back chunks with anonymous mappings
}

// DefaultConfig returns the interpreter's allocator configuration.
func DefaultConfig() Config {
	return Config{
		SeedCapacity: MinChunk,
		MinChunk:     MinChunk,
		MaxChunk:     MaxChunk,
	}
}

func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.MinChunk == 0 {
		c.MinChunk = d.MinChunk
	}
	if c.MaxChunk == 0 {
		c.MaxChunk = d.MaxChunk
	}
	if c.MaxChunk < c.MinChunk {
		c.MaxChunk = c.MinChunk
	}
	if c.SeedCapacity == 0 {
		c.SeedCapacity = c.MinChunk
	}
	return c
}

// nextPow2 returns the smallest power of two >= n (n > 0).
func nextPow2(n uint64) uint64 {
	p := uint64(1)
	for p < n {
		p <<= 1
	}
	return p
}

// chunkCapacity returns the capacity of the chunk grown to serve size bytes.
func (c Config) chunkCapacity(size, maxSeen uint32) uint32 {
	want := nextPow2(uint64(size))
	want = max(want, uint64(c.MinChunk))
	want = min(want, uint64(c.MaxChunk))
	return max(uint32(want), maxSeen)
}

func alignUp(a memory.Addr) memory.Addr {
	return (a + chunkAlign - 1) &^ (chunkAlign - 1)
}
