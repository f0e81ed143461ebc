package memory

import "errors"

var (
	// ErrZeroBase indicates a chunk placed at address 0, which is the null handle.
	ErrZeroBase = errors.New("memory: chunk base address must be non-zero")

	// ErrAddressSpace indicates a chunk whose range would overflow the address space.
	ErrAddressSpace = errors.New("memory: chunk range overflows the address space")

	// ErrCorrupt indicates a chunk whose bookkeeping invariants do not hold.
	ErrCorrupt = errors.New("memory: chunk invariant violated")
)
