package heap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/internal/logger"
	"github.com/joshuapare/heapkit/region"
)

const (
	testPageSize  = 4096
	testArenaSize = 1 << 20
)

// newTestConfig returns a config carving regions out of a, starting at its base.
func newTestConfig(a *region.Arena) Config {
	return Config{
		PageSize:       testPageSize,
		MinRegionBytes: DefaultMinRegionBytes,
		StartAddress:   a.Base(),
		Provider:       a,
		Logger:         logger.Discard(),
	}
}

// newArenaHeap returns an initialized heap over a fresh arena of size bytes.
// The first region is always at the arena base.
func newArenaHeap(t testing.TB, size int) (*Heap, *region.Arena) {
	t.Helper()
	a := region.NewArena(size)
	h, err := New(newTestConfig(a))
	require.NoError(t, err)
	start, err := h.Init(0)
	require.NoError(t, err)
	require.Equal(t, a.Base(), start)
	return h, a
}

func mustAlloc(t testing.TB, h *Heap, n int) Ptr {
	t.Helper()
	p, payload, err := h.Alloc(n)
	require.NoError(t, err, "Alloc(%d)", n)
	require.NotZero(t, p, "Alloc(%d) returned null", n)
	require.GreaterOrEqual(t, len(payload), max(n, MinPayload))
	return p
}

func mustFree(t testing.TB, h *Heap, p Ptr) {
	t.Helper()
	require.NoError(t, h.Free(p))
}

func blockOf(t testing.TB, h *Heap, p Ptr) BlockInfo {
	t.Helper()
	b, err := h.Block(p)
	require.NoError(t, err)
	return b
}

func assertInvariants(t testing.TB, h *Heap) {
	t.Helper()
	require.NoError(t, h.Verify())
}

// corruptHeader rewrites the header at ref in place.
func corruptHeader(t testing.TB, h *Heap, ref uintptr, fn func(hd *header)) {
	t.Helper()
	hd, err := h.load(ref)
	require.NoError(t, err)
	fn(&hd)
	require.NoError(t, h.store(ref, hd))
}
