package buf

import "testing"

func TestEndianHelpers(t *testing.T) {
	data := []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef}

	if got := U16LE(data); got != 0x2301 {
		t.Fatalf("U16LE = 0x%x, want 0x2301", got)
	}
	if got := U32LE(data); got != 0x67452301 {
		t.Fatalf("U32LE = 0x%x, want 0x67452301", got)
	}
	if got := U64LE(data); got != 0xefcdab8967452301 {
		t.Fatalf("U64LE = 0x%x, want 0xefcdab8967452301", got)
	}

	short := []byte{0xAA}
	if U16LE(short) != 0 || U32LE(short) != 0 || U64LE(short) != 0 {
		t.Fatalf("short reads should return 0")
	}
}

func TestPutHelpers(t *testing.T) {
	data := make([]byte, 8)

	if !PutU16LE(data, 0xbeef) || U16LE(data) != 0xbeef {
		t.Fatalf("PutU16LE round trip failed: % x", data)
	}
	if !PutU32LE(data, 0xdeadbeef) || U32LE(data) != 0xdeadbeef {
		t.Fatalf("PutU32LE round trip failed: % x", data)
	}
	if !PutU64LE(data, 0x0102030405060708) || data[0] != 0x08 || data[7] != 0x01 {
		t.Fatalf("PutU64LE wrote % x", data)
	}

	short := []byte{0xAA, 0xBB, 0xCC}
	if PutU32LE(short, 1) || PutU64LE(short, 1) {
		t.Fatalf("short writes should fail")
	}
	if short[0] != 0xAA {
		t.Fatalf("failed write modified the slice: % x", short)
	}
}
