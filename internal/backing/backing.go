// Package backing provides the byte buffers chunks carve memory blocks from.
//
// A buffer is either a zeroed heap slice or, on unix, an anonymous private
// mapping obtained from mmap. Both look the same to callers.
package backing

import (
	"errors"
	"fmt"
)

// ErrClosed is returned when a released buffer is used.
var ErrClosed = errors.New("backing: buffer closed")

// Buffer is a fixed-size zero-initialized byte buffer.
type Buffer struct {
	data    []byte
	mapped  bool
	release func() error
}

// New returns a buffer of exactly size bytes. When mapped is true and the
// platform supports it, the bytes come from an anonymous mapping instead of
// the Go heap.
func New(size int, mapped bool) (*Buffer, error) {
	if size < 0 {
		return nil, fmt.Errorf("backing: negative size %d", size)
	}
	if size == 0 || !mapped {
		return &Buffer{data: make([]byte, size), release: noop}, nil
	}
	data, release, err := mapAnon(size)
	if err != nil {
		return nil, fmt.Errorf("backing: map %d bytes: %w", size, err)
	}
	return &Buffer{data: data, mapped: release != nil, release: orNoop(release)}, nil
}

// Bytes returns the whole buffer. The slice is invalid after Close.
func (b *Buffer) Bytes() []byte { return b.data }

// Len returns the buffer size in bytes.
func (b *Buffer) Len() int { return len(b.data) }

// Mapped reports whether the buffer lives in an anonymous mapping.
func (b *Buffer) Mapped() bool { return b.mapped }

// Close releases the buffer. Closing twice is a no-op.
func (b *Buffer) Close() error {
	if b.release == nil {
		return nil
	}
	err := b.release()
	b.release = nil
	b.data = nil
	return err
}

// Closed reports whether Close has been called.
func (b *Buffer) Closed() bool { return b.release == nil }

func noop() error { return nil }

func orNoop(fn func() error) func() error {
	if fn == nil {
		return noop
	}
	return fn
}
