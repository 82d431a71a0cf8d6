package heap

import "fmt"

// Stats holds allocator counters. They only move on successful state changes
// (Free(0) touches nothing).
type Stats struct {
	AllocCalls      int   // Alloc calls past argument checks
	FailedAllocs    int   // Alloc calls that returned an error
	FreeCalls       int   // blocks released
	GrowCalls       int   // regions added after Init
	Regions         int   // regions mapped, including the first
	DisjointRegions int   // growth regions not placed at the preferred address
	BytesMapped     int64 // total region bytes
	Splits          int   // blocks split by the fit engine
	Merges          int   // forward merges, at search or release time
}

// Usage summarizes the current block chain.
type Usage struct {
	Blocks            int
	FreeBlocks        int
	UsedBlocks        int
	FreeBytes         int64 // payload bytes in free blocks
	UsedBytes         int64 // payload bytes in used blocks
	HeaderBytes       int64
	LargestFree       int
	AdjacentFreePairs int // free blocks followed by a free block they could merge with
}

// BlockInfo describes one block of the chain.
type BlockInfo struct {
	Addr     uintptr // header address
	Payload  Ptr
	Capacity int
	Free     bool
	Next     uintptr // header address of the next block, 0 for the tail
}

// Stats returns a copy of the counters.
func (h *Heap) Stats() Stats { return h.stats }

// Regions returns the mapped regions in acquisition order.
func (h *Heap) Regions() []RegionInfo {
	out := make([]RegionInfo, len(h.regions))
	copy(out, h.regions)
	return out
}

// Block returns the block owning payload p.
func (h *Heap) Block(p Ptr) (BlockInfo, error) {
	if !h.initialized {
		return BlockInfo{}, ErrUninitialized
	}
	if uintptr(p) < HeaderSize {
		return BlockInfo{}, fmt.Errorf("%w: %#x", ErrBadPointer, uintptr(p))
	}
	ref := headerOf(p)
	hd, err := h.load(ref)
	if err != nil {
		return BlockInfo{}, fmt.Errorf("%w: %#x: %w", ErrBadPointer, uintptr(p), err)
	}
	return blockInfo(ref, hd), nil
}

// Blocks walks the chain in heap order without merging anything.
func (h *Heap) Blocks() ([]BlockInfo, error) {
	var out []BlockInfo
	err := h.walk(func(ref uintptr, hd header) error {
		out = append(out, blockInfo(ref, hd))
		return nil
	})
	return out, err
}

// Usage computes block and byte totals from a chain walk.
func (h *Heap) Usage() (Usage, error) {
	var u Usage
	var prev header
	var prevRef uintptr
	err := h.walk(func(ref uintptr, hd header) error {
		u.Blocks++
		u.HeaderBytes += HeaderSize
		if hd.free {
			u.FreeBlocks++
			u.FreeBytes += int64(hd.capacity)
			u.LargestFree = max(u.LargestFree, hd.capacity)
			if prevRef != 0 && prev.free && blockAfter(prevRef, prev) == ref && h.mergeable(prevRef, prev, hd) {
				u.AdjacentFreePairs++
			}
		} else {
			u.UsedBlocks++
			u.UsedBytes += int64(hd.capacity)
		}
		prev, prevRef = hd, ref
		return nil
	})
	return u, err
}

// walk visits every block from the start, failing with ErrCorrupt on a cycle.
func (h *Heap) walk(fn func(ref uintptr, hd header) error) error {
	if !h.initialized {
		return ErrUninitialized
	}
	limit := h.maxSteps()
	ref := h.start
	for steps := 0; ref != 0; steps++ {
		if steps > limit {
			return fmt.Errorf("%w: chain exceeds %d blocks", ErrCorrupt, limit)
		}
		hd, err := h.load(ref)
		if err != nil {
			return err
		}
		if err := fn(ref, hd); err != nil {
			return err
		}
		ref = hd.next
	}
	return nil
}

func blockInfo(ref uintptr, hd header) BlockInfo {
	return BlockInfo{
		Addr:     ref,
		Payload:  payloadOf(ref),
		Capacity: hd.capacity,
		Free:     hd.free,
		Next:     hd.next,
	}
}
