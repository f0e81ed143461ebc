// Package alloc implements the runtime's virtual allocator.
//
// # Overview
//
// An Allocator owns a growing list of memory.Chunk values through its
// "chunks" relationship and backs every primitive value the interpreter
// creates. Chunks are laid out back to back in one virtual address space
// starting at 0x1000, so a block's address identifies its chunk.
//
// # Allocation
//
// Alloc(n) tries, in order:
//
//  1. the first chunk that can reserve n bytes
//  2. the first chunk that is fragmented for n and worth compacting,
//     defragmented, then a fresh scan if that chunk still cannot serve n
//  3. a new chunk sized to the next power of two of n, clamped to
//     [MinChunk, MaxChunk] and never smaller than the largest chunk kept so far
//  4. if the new chunk cannot serve n either, it is discarded, every chunk is
//     defragmented and the scan runs once more
//
// Realloc resizes in place when the owning chunk allows it and otherwise
// moves the block, copying its bytes. Free returns a block to its chunk.
//
// # Thread Safety
//
// Allocator instances are not thread-safe.
package alloc
