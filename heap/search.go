package heap

import "fmt"

type searchStatus int

const (
	statusFound       searchStatus = iota // ref is a free block that fits, already split
	statusEndNotFound                     // ref is the tail of the chain
)

type searchResult struct {
	status searchStatus
	ref    uintptr
}

// maxSteps bounds a chain walk. A chain longer than the number of headers the
// mapped bytes could hold must contain a cycle.
func (h *Heap) maxSteps() int {
	return h.spans.total/HeaderSize + 1
}

// tryMergeWithNext absorbs the successor of ref when both are free, the
// successor starts right after ref's payload, and both share a span.
func (h *Heap) tryMergeWithNext(ref uintptr) (bool, error) {
	hd, err := h.load(ref)
	if err != nil {
		return false, err
	}
	if !hd.free || hd.next == 0 || hd.next != blockAfter(ref, hd) {
		return false, nil
	}
	next, err := h.load(hd.next)
	if err != nil {
		return false, err
	}
	if !next.free || !h.mergeable(ref, hd, next) {
		return false, nil
	}

	hd.capacity += sizeFromCapacity(next.capacity)
	hd.next = next.next
	if err := h.store(ref, hd); err != nil {
		return false, err
	}
	h.stats.Merges++
	return true, nil
}

// mergeable reports whether the block at ref and its address-adjacent
// successor lie in the same span and so can become one block.
func (h *Heap) mergeable(ref uintptr, hd, next header) bool {
	return h.spans.has(ref, sizeFromCapacity(hd.capacity)+sizeFromCapacity(next.capacity))
}

// mergeForward merges ref with its successors until the next block is used,
// missing, or not adjacent.
func (h *Heap) mergeForward(ref uintptr) error {
	for {
		merged, err := h.tryMergeWithNext(ref)
		if err != nil || !merged {
			return err
		}
	}
}

// splitIfTooBig carves a block of max(n, MinPayload) bytes out of a free
// block at ref, leaving the surplus as a new free block right behind it.
// Nothing happens unless the surplus can hold a header and MinPayload bytes.
func (h *Heap) splitIfTooBig(ref uintptr, n int) (bool, error) {
	needed := max(n, MinPayload)
	hd, err := h.load(ref)
	if err != nil {
		return false, err
	}
	if !hd.free || needed+HeaderSize+MinPayload > hd.capacity {
		return false, nil
	}

	full := hd.capacity
	hd.capacity = needed
	tail := blockAfter(ref, hd)
	if err := h.store(tail, header{
		next:     hd.next,
		capacity: full - needed - HeaderSize,
		free:     true,
	}); err != nil {
		return false, err
	}
	hd.next = tail
	if err := h.store(ref, hd); err != nil {
		return false, err
	}
	h.stats.Splits++
	return true, nil
}

// findGoodOrLast walks the chain from start, merging free neighbors as it
// goes, and returns the first free block with capacity >= n (split to size)
// or the last block of the chain.
func (h *Heap) findGoodOrLast(start uintptr, n int) (searchResult, error) {
	limit := h.maxSteps()
	ref := start
	for steps := 0; ; steps++ {
		if steps > limit {
			return searchResult{}, fmt.Errorf("%w: chain from %#x exceeds %d blocks", ErrCorrupt, start, limit)
		}
		if err := h.mergeForward(ref); err != nil {
			return searchResult{}, err
		}
		hd, err := h.load(ref)
		if err != nil {
			return searchResult{}, err
		}
		if hd.free && hd.capacity >= n {
			if _, err := h.splitIfTooBig(ref, n); err != nil {
				return searchResult{}, err
			}
			return searchResult{status: statusFound, ref: ref}, nil
		}
		if hd.next == 0 {
			return searchResult{status: statusEndNotFound, ref: ref}, nil
		}
		ref = hd.next
	}
}

// tryExisting searches from start and marks a found block used. This is the
// only place a block turns from free to used.
func (h *Heap) tryExisting(n int, start uintptr) (searchResult, error) {
	res, err := h.findGoodOrLast(start, n)
	if err != nil || res.status != statusFound {
		return res, err
	}
	hd, err := h.load(res.ref)
	if err != nil {
		return searchResult{}, err
	}
	hd.free = false
	if err := h.store(res.ref, hd); err != nil {
		return searchResult{}, err
	}
	return res, nil
}
