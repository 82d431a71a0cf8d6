package region

import "unsafe"

// AddrOf returns the address of the first byte of mem, or 0 for an empty slice.
func AddrOf(mem []byte) uintptr {
	if len(mem) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(mem)))
}

// Join returns a slice of n bytes starting at the first byte of lo.
//
// The caller guarantees that the n bytes are mapped and address-contiguous,
// e.g. lo is immediately followed in memory by another region. This is how
// the heap turns two adjacent mappings into one span.
func Join(lo []byte, n int) []byte {
	if len(lo) == 0 || n < len(lo) {
		return lo
	}
	return unsafe.Slice(unsafe.SliceData(lo), n)
}

func hintPointer(hint uintptr) unsafe.Pointer {
	return unsafe.Pointer(hint) //nolint:govet // hint is an address outside the Go heap
}
