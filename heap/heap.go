package heap

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/joshuapare/heapkit/region"
)

// maxRequest keeps size arithmetic (request + headers, page rounding) far
// from int overflow.
const maxRequest = math.MaxInt / 4

// Heap is a first-fit allocator over regions obtained from a region.Provider.
//
// The zero value is not usable; create one with New and map the first region
// with Init. A Heap is not safe for concurrent use.
type Heap struct {
	cfg  Config
	geom region.Geometry
	log  *slog.Logger

	spans   spanTable
	regions []RegionInfo

	start       uintptr // header of the first block; fixed after Init
	initialized bool

	stats Stats
}

// RegionInfo describes one mapped region, in acquisition order.
type RegionInfo struct {
	Addr       uintptr
	Size       int
	Contiguous bool // placed at the preferred address
}

// New validates cfg and returns an uninitialized heap.
func New(cfg Config) (*Heap, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Heap{
		cfg:  cfg,
		geom: cfg.Geometry(),
		log:  cfg.Logger,
	}, nil
}

// Init maps the first region, sized for initial bytes (at least the minimum
// region), preferably at Config.StartAddress, and returns the heap start.
//
// Calling Init on an initialized heap does nothing and returns the same start.
// If Init fails the heap stays uninitialized and Init may be called again.
func (h *Heap) Init(initial int) (uintptr, error) {
	if h.initialized {
		return h.start, nil
	}
	r, err := region.Acquire(h.cfg.Provider, h.cfg.StartAddress, initial, h.geom)
	if err != nil {
		h.log.Warn("heap: init failed", addrAttr("start", h.cfg.StartAddress), slog.Any("err", err))
		return 0, fmt.Errorf("heap: init: %w", err)
	}
	ref, err := h.addRegion(r)
	if err != nil {
		return 0, err
	}
	h.recordRegion(r)
	h.start = ref
	h.initialized = true
	h.log.Debug("heap: initialized",
		addrAttr("start", ref),
		slog.Int("size", r.Size),
		slog.Bool("at_preferred", r.Contiguous),
	)
	return ref, nil
}

// Initialized reports whether Init has succeeded.
func (h *Heap) Initialized() bool { return h.initialized }

// Start returns the header address of the first block, or 0 before Init.
func (h *Heap) Start() uintptr { return h.start }

// Config returns the effective configuration.
func (h *Heap) Config() Config { return h.cfg }

// Alloc returns a payload of at least max(n, MinPayload) bytes.
//
// The returned slice covers the whole block capacity, so len(payload) may
// exceed n when the block was too small to split. Payload memory is not
// cleared on reuse. On failure Alloc returns a zero Ptr and a nil slice.
func (h *Heap) Alloc(n int) (Ptr, []byte, error) {
	if !h.initialized {
		return 0, nil, ErrUninitialized
	}
	if n < 0 || n > maxRequest {
		return 0, nil, fmt.Errorf("%w: %d", ErrBadSize, n)
	}
	h.stats.AllocCalls++

	ref, err := h.memalloc(n, h.start)
	if err != nil {
		h.stats.FailedAllocs++
		return 0, nil, err
	}
	hd, err := h.load(ref)
	if err != nil {
		h.stats.FailedAllocs++
		return 0, nil, err
	}
	p := payloadOf(ref)
	payload, ok := h.spans.bytes(uintptr(p), hd.capacity)
	if !ok {
		h.stats.FailedAllocs++
		return 0, nil, fmt.Errorf("%w: payload %#x (+%d) outside mapped memory", ErrCorrupt, uintptr(p), hd.capacity)
	}
	return p, payload, nil
}

// memalloc tries the existing chain, grows once on a miss, and retries from
// the old tail so a contiguous extension merges with a free tail block.
func (h *Heap) memalloc(n int, start uintptr) (uintptr, error) {
	res, err := h.tryExisting(n, start)
	if err != nil {
		return 0, err
	}
	if res.status == statusFound {
		return res.ref, nil
	}

	if _, err := h.grow(res.ref, n); err != nil {
		return 0, fmt.Errorf("heap: grow for %d bytes: %w", n, err)
	}
	res, err = h.tryExisting(n, res.ref)
	if err != nil {
		return 0, err
	}
	if res.status != statusFound {
		return 0, fmt.Errorf("%w: %d bytes after growth", ErrNoSpace, n)
	}
	return res.ref, nil
}

// Free releases a payload returned by Alloc and merges it with the free
// blocks that directly follow it. A zero Ptr is a no-op.
//
// Blocks are never merged backwards; a free block followed by the released
// one is only absorbed during the next search that passes over it.
//
// p is not looked up on the chain: any address whose preceding bytes decode
// as a used header is released. Pointers that do not decode fail with
// ErrBadPointer.
func (h *Heap) Free(p Ptr) error {
	if p == 0 {
		return nil
	}
	if !h.initialized {
		return ErrUninitialized
	}
	if uintptr(p) < HeaderSize {
		return fmt.Errorf("%w: %#x", ErrBadPointer, uintptr(p))
	}
	ref := headerOf(p)
	hd, err := h.load(ref)
	if err != nil {
		return fmt.Errorf("%w: %#x", ErrBadPointer, uintptr(p))
	}
	if hd.free {
		return fmt.Errorf("%w: %#x", ErrNotAllocated, uintptr(p))
	}

	h.stats.FreeCalls++
	hd.free = true
	if err := h.store(ref, hd); err != nil {
		return err
	}
	return h.mergeForward(ref)
}
