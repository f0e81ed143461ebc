package memory

import (
	"math"

	"golang.org/x/text/encoding/charmap"

	"github.com/joshuapare/vmkit/internal/buf"
	"github.com/joshuapare/vmkit/vm/status"
)

// Typed access to a block's bytes. Offsets are relative to the block start,
// values are little-endian. Any access that does not fit inside the block is
// reported as OutOfRange and reads as zero; a nil or retired block is
// reported as NullMemory.

// view returns the n bytes at off, or nil after reporting the fault.
func (m *Memory) view(off, n int, origin string) []byte {
	if m == nil || m.addr == Null || m.chunk == nil || m.chunk.buf.Closed() {
		status.Report(status.NullMemory, origin)
		return nil
	}
	if _, err := buf.CheckRange(int(m.size), off, n); err != nil {
		status.Report(status.OutOfRange, origin)
		return nil
	}
	start := int(m.addr-m.chunk.base) + off
	b, ok := buf.Slice(m.chunk.buf.Bytes(), start, n)
	if !ok {
		status.Report(status.UnknownFault, origin)
		return nil
	}
	return b
}

// Bytes returns the block's bytes. The slice aliases chunk storage and is
// invalidated by any operation that moves the block.
func (m *Memory) Bytes() []byte {
	if m == nil {
		status.Report(status.NullMemory, "memory.bytes")
		return nil
	}
	return m.view(0, int(m.size), "memory.bytes")
}

// ReadAt copies bytes starting at off into p and returns how many were copied.
func (m *Memory) ReadAt(p []byte, off int) int {
	if b := m.view(off, len(p), "memory.read"); b != nil {
		return copy(p, b)
	}
	return 0
}

// WriteAt copies p into the block at off and returns how many bytes were written.
func (m *Memory) WriteAt(p []byte, off int) int {
	if b := m.view(off, len(p), "memory.write"); b != nil {
		return copy(b, p)
	}
	return 0
}

// Uint8 reads one byte at off.
func (m *Memory) Uint8(off int) uint8 {
	if b := m.view(off, 1, "memory.uint8"); b != nil {
		return b[0]
	}
	return 0
}

// PutUint8 writes one byte at off.
func (m *Memory) PutUint8(off int, v uint8) bool {
	if b := m.view(off, 1, "memory.put_uint8"); b != nil {
		b[0] = v
		return true
	}
	return false
}

// Bool reads a one-byte boolean at off.
func (m *Memory) Bool(off int) bool { return m.Uint8(off) != 0 }

// PutBool writes a one-byte boolean at off.
func (m *Memory) PutBool(off int, v bool) bool {
	var b uint8
	if v {
		b = 1
	}
	return m.PutUint8(off, b)
}

// Uint16 reads a uint16 at off.
func (m *Memory) Uint16(off int) uint16 { return buf.U16LE(m.view(off, 2, "memory.uint16")) }

// PutUint16 writes a uint16 at off.
func (m *Memory) PutUint16(off int, v uint16) bool {
	return buf.PutU16LE(m.view(off, 2, "memory.put_uint16"), v)
}

// Uint32 reads a uint32 at off.
func (m *Memory) Uint32(off int) uint32 { return buf.U32LE(m.view(off, 4, "memory.uint32")) }

// PutUint32 writes a uint32 at off.
func (m *Memory) PutUint32(off int, v uint32) bool {
	return buf.PutU32LE(m.view(off, 4, "memory.put_uint32"), v)
}

// Uint64 reads a uint64 at off.
func (m *Memory) Uint64(off int) uint64 { return buf.U64LE(m.view(off, 8, "memory.uint64")) }

// PutUint64 writes a uint64 at off.
func (m *Memory) PutUint64(off int, v uint64) bool {
	return buf.PutU64LE(m.view(off, 8, "memory.put_uint64"), v)
}

// Int32 reads an int32 at off.
func (m *Memory) Int32(off int) int32 { return int32(m.Uint32(off)) }

// PutInt32 writes an int32 at off.
func (m *Memory) PutInt32(off int, v int32) bool { return m.PutUint32(off, uint32(v)) }

// Int64 reads an int64 at off.
func (m *Memory) Int64(off int) int64 { return int64(m.Uint64(off)) }

// PutInt64 writes an int64 at off.
func (m *Memory) PutInt64(off int, v int64) bool { return m.PutUint64(off, uint64(v)) }

// Float32 reads an IEEE-754 float32 at off.
func (m *Memory) Float32(off int) float32 { return math.Float32frombits(m.Uint32(off)) }

// PutFloat32 writes an IEEE-754 float32 at off.
func (m *Memory) PutFloat32(off int, v float32) bool {
	return m.PutUint32(off, math.Float32bits(v))
}

// Float64 reads an IEEE-754 float64 at off.
func (m *Memory) Float64(off int) float64 { return math.Float64frombits(m.Uint64(off)) }

// PutFloat64 writes an IEEE-754 float64 at off.
func (m *Memory) PutFloat64(off int, v float64) bool {
	return m.PutUint64(off, math.Float64bits(v))
}

// Chars decodes n one-byte characters at off. The interpreter's char type is
// a single Windows-1252 byte.
func (m *Memory) Chars(off, n int) string {
	b := m.view(off, n, "memory.chars")
	if b == nil {
		return ""
	}
	s, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		status.Report(status.UnknownFault, "memory.chars")
		return ""
	}
	return string(s)
}

// PutChars encodes s as one-byte characters at off and returns the number of
// bytes written. Characters outside Windows-1252 are reported as
// InvalidTarget and nothing is written.
func (m *Memory) PutChars(off int, s string) int {
	const origin = "memory.put_chars"
	enc, err := charmap.Windows1252.NewEncoder().Bytes([]byte(s))
	if err != nil {
		status.Report(status.InvalidTarget, origin)
		return 0
	}
	b := m.view(off, len(enc), origin)
	if b == nil {
		return 0
	}
	return copy(b, enc)
}
