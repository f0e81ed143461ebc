// Package memory implements chunks of byte-addressable storage and the memory
// blocks carved from them.
//
// # Overview
//
// A Chunk owns one contiguous backing buffer mapped at [BaseAddress, End) of
// the runtime's virtual address space, and two relationships over Memory
// entities: "free" and "reserved". Every byte of the chunk belongs to exactly
// one block in one of the two lists:
//
//	FreeBytes() + sum(reserved sizes) == Capacity()
//	sum(free sizes)                   == FreeBytes()
//
// Free blocks are coalesced before any mutating call returns, so no two free
// blocks are ever address-adjacent.
//
// # Operations
//
//   - Reserve(n): first-fit over the free list in its current order
//   - Resize(m, n): shrink in place, or grow into the adjacent free block
//   - Release(m): move a block back to the free list unless something still
//     references it (deferred release)
//   - Defragmentation(): slide every reserved block down to the base and
//     leave one trailing free block
//
// Resize and Release return explicit status codes instead of errors.
//
// # Addresses
//
// A Memory's identifier is its address in hex ("0x1040"). Anything that moves
// a block goes through Reassign, which re-keys the block in the registry in
// the same step.
//
// # Thread Safety
//
// Chunks are not thread-safe. They are driven by one interpreter loop.
package memory
