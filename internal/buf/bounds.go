package buf

import (
	"fmt"
	"math"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// CheckRange validates that n bytes starting at off fit inside a window of
// size bytes. Returns the end offset if valid, or an error describing the
// failure (negative input, overflow or out of bounds).
//
//	end, err := buf.CheckRange(int(mem.Size()), off, 8)
//	if err != nil {
//	    return fmt.Errorf("read: %w", err)
//	}
func CheckRange(size, off, n int) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset: %d", off)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative length: %d", n)
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok {
		return 0, fmt.Errorf("overflow: offset=%d + length=%d", off, n)
	}
	if end > size {
		return 0, fmt.Errorf("bounds: end=%d > size=%d", end, size)
	}
	return end, nil
}

// Slice returns the sub-slice [off:off+n] if it fits within len(b).
func Slice(b []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off > len(b) {
		return nil, false
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok || end > len(b) {
		return nil, false
	}
	return b[off:end], true
}
