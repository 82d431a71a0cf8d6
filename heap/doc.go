// Package heap implements a first-fit dynamic memory allocator over raw
// regions obtained from the operating system.
//
// # Overview
//
// The heap is one chain of blocks threaded through the memory it manages.
// Every block starts with a 24-byte in-band header (next link, capacity,
// free flag) followed by its payload. The chain begins at a fixed start
// address and grows by appending new regions behind its last block.
//
// # Usage Example
//
//	h, err := heap.New(heap.Config{})
//	if err != nil {
//	    return err
//	}
//	if _, err := h.Init(0); err != nil {
//	    return err // region.ErrMappingFailed
//	}
//
//	p, payload, err := h.Alloc(123)
//	if err != nil {
//	    return err
//	}
//	copy(payload, data)
//
//	// Later
//	err = h.Free(p)
//
// # Allocation
//
// Alloc walks the chain from the start. At every block it first merges the
// block with directly following free blocks, then takes the first free
// block whose capacity is large enough (first-fit in chain order, no size
// classes). A block with enough surplus is split: the head keeps
// max(n, MinPayload) bytes and the rest becomes a new free block right
// behind it, provided the rest can hold a header plus MinPayload bytes.
//
// # Growth
//
// When no block fits, the heap maps a new region sized for the request
// (rounded up to the page size, at least Config.MinRegionBytes). It first
// asks for the address right after the last block so the heap stays
// contiguous; if that address is taken the region goes wherever the
// provider puts it and is still linked behind the last block. The search is
// then retried once from the old tail. A mapping failure is returned as is
// (wrapping region.ErrMappingFailed) and never retried.
//
// # Release
//
// Free flips the block to free and merges it forward with adjacent free
// blocks. There is no backward link, so a free block in front of the
// released one is merged only when a later search passes over it.
//
// # Initialization
//
// There is no implicit initialization: Alloc and Free fail with
// ErrUninitialized until Init succeeds. Regions are never unmapped.
//
// # Thread Safety
//
// Heap instances are not thread-safe. Callers must synchronize access
// externally.
//
// # Related Packages
//
//   - github.com/joshuapare/heapkit/region: region providers and sizing rules
package heap
