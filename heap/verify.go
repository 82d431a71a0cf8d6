package heap

import (
	"fmt"
	"sort"
)

// Verify checks the structural invariants of the whole heap:
//   - the chain from the start is acyclic and every header decodes inside mapped memory
//   - every block holds at least MinPayload bytes
//   - blocks never overlap and together tile every mapped byte exactly once
//
// Violations are reported as errors wrapping ErrCorrupt.
func (h *Heap) Verify() error {
	type extent struct {
		start, end uintptr
	}
	var blocks []extent
	var total int64

	err := h.walk(func(ref uintptr, hd header) error {
		if hd.capacity < MinPayload {
			return fmt.Errorf("%w: block %#x capacity %d below minimum %d", ErrCorrupt, ref, hd.capacity, MinPayload)
		}
		blocks = append(blocks, extent{start: ref, end: blockAfter(ref, hd)})
		total += int64(sizeFromCapacity(hd.capacity))
		return nil
	})
	if err != nil {
		return err
	}

	sort.Slice(blocks, func(i, j int) bool { return blocks[i].start < blocks[j].start })
	for i := 1; i < len(blocks); i++ {
		if blocks[i].start < blocks[i-1].end {
			return fmt.Errorf("%w: block %#x overlaps block %#x", ErrCorrupt, blocks[i].start, blocks[i-1].start)
		}
	}
	if total != h.stats.BytesMapped {
		return fmt.Errorf("%w: blocks cover %d bytes, %d mapped", ErrCorrupt, total, h.stats.BytesMapped)
	}
	return nil
}
