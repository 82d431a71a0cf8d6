package heap

// Allocator is the allocate/release contract implemented by *Heap.
type Allocator interface {
	// Alloc returns the address and bytes of a payload of at least
	// max(n, MinPayload) bytes.
	Alloc(n int) (Ptr, []byte, error)

	// Free releases a payload. A zero Ptr is a no-op.
	Free(p Ptr) error
}

var _ Allocator = (*Heap)(nil)
