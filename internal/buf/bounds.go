package buf

import (
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

// Slice returns the sub-slice [off:off+n] if it fits within len(b).
// The result has its capacity clipped to n so appends never reach into
// the bytes that follow.
func Slice(b []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off > len(b) {
		return nil, false
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok || end > len(b) {
		return nil, false
	}
	return b[off:end:end], true
}

// Has reports whether b[off:off+n] is within bounds.
func Has(b []byte, off, n int) bool {
	_, ok := Slice(b, off, n)
	return ok
}

// Within reports whether the address range [addr, addr+n) lies inside
// [base, base+size). All arithmetic is overflow checked.
func Within(base uintptr, size int, addr uintptr, n int) (int, bool) {
	if addr < base || size < 0 || n < 0 {
		return 0, false
	}
	diff := addr - base
	if diff > uintptr(math.MaxInt) {
		return 0, false
	}
	off := int(diff)
	end, ok := AddOverflowSafe(off, n)
	if !ok || end > size {
		return 0, false
	}
	return off, true
}
