package heap

import (
	"fmt"
	"log/slog"

	"github.com/joshuapare/heapkit/region"
)

// grow maps a region able to hold a block of n bytes, preferably right after
// last, and links it behind last. The new region's block is returned. There
// is no second attempt: a mapping failure is the caller's allocation failure.
func (h *Heap) grow(last uintptr, n int) (uintptr, error) {
	if last == 0 {
		return 0, fmt.Errorf("%w: grow without a tail block", ErrCorrupt)
	}
	hd, err := h.load(last)
	if err != nil {
		return 0, err
	}

	preferred := blockAfter(last, hd)
	r, err := region.Acquire(h.cfg.Provider, preferred, sizeFromCapacity(max(n, MinPayload)), h.geom)
	if err != nil {
		h.log.Warn("heap: grow failed", addrAttr("preferred", preferred), slog.Int("need", n), slog.Any("err", err))
		return 0, err
	}

	ref, err := h.addRegion(r)
	if err != nil {
		return 0, err
	}
	hd.next = ref
	if err := h.store(last, hd); err != nil {
		return 0, err
	}
	h.recordRegion(r)

	h.stats.GrowCalls++
	if !r.Contiguous {
		h.stats.DisjointRegions++
	}
	h.log.Debug("heap: grew",
		addrAttr("tail", last),
		addrAttr("region", r.Addr),
		slog.Int("size", r.Size),
		slog.Bool("contiguous", r.Contiguous),
	)
	return ref, nil
}

// addRegion makes r addressable and covers it with one free block. The
// region only counts as mapped once recordRegion runs, after it is linked.
func (h *Heap) addRegion(r region.Region) (uintptr, error) {
	h.spans.add(r)
	if err := h.initBlock(r.Addr, r.Size, 0); err != nil {
		return 0, err
	}
	return r.Addr, nil
}

func (h *Heap) recordRegion(r region.Region) {
	h.regions = append(h.regions, RegionInfo{Addr: r.Addr, Size: r.Size, Contiguous: r.Contiguous})
	h.stats.Regions++
	h.stats.BytesMapped += int64(r.Size)
}

func addrAttr(key string, addr uintptr) slog.Attr {
	return slog.String(key, fmt.Sprintf("%#x", addr))
}
