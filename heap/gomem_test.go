package heap

import (
	"fmt"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/internal/logger"
	"github.com/joshuapare/heapkit/region"
)

// goMemProvider behaves like the provider used where mmap is unavailable:
// exact requests always fail and every region is a separate Go allocation.
type goMemProvider struct{}

func (goMemProvider) Map(hint uintptr, length int, exact bool) ([]byte, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: %d", region.ErrBadLength, length)
	}
	if exact {
		return nil, fmt.Errorf("%w: %#x", region.ErrAddressInUse, hint)
	}
	return make([]byte, length), nil
}

// relocatingArena refuses exact placement but hands out the arena's first
// free gap, so consecutive regions are address-adjacent without being
// contiguous mappings.
type relocatingArena struct {
	*region.Arena
}

func (r relocatingArena) Map(hint uintptr, length int, exact bool) ([]byte, error) {
	if exact {
		return nil, fmt.Errorf("%w: %#x", region.ErrAddressInUse, hint)
	}
	return r.Arena.Map(0, length, false)
}

func newProviderHeap(t *testing.T, p region.Provider) *Heap {
	t.Helper()
	h, err := New(Config{
		PageSize:       testPageSize,
		MinRegionBytes: DefaultMinRegionBytes,
		Provider:       p,
		Logger:         logger.Discard(),
	})
	require.NoError(t, err)
	_, err = h.Init(0)
	require.NoError(t, err)
	return h
}

func TestRelocatedAdjacentRegionsNeverMerge(t *testing.T) {
	a := region.NewArena(testArenaSize)
	h := newProviderHeap(t, relocatingArena{a})
	require.Equal(t, a.Base(), h.Start())

	p := mustAlloc(t, h, 16000)

	regions := h.Regions()
	require.Len(t, regions, 2)
	assert.Equal(t, a.Base()+DefaultMinRegionBytes, regions[1].Addr, "relocated right behind the first region")
	assert.False(t, regions[1].Contiguous, "landing at the preferred address by chance is not contiguous")
	assert.Len(t, h.spans.spans, 2)

	blocks, err := h.Blocks()
	require.NoError(t, err)
	require.Len(t, blocks, 3)
	assert.True(t, blocks[0].Free)
	assert.Equal(t, initialCapacity, blocks[0].Capacity, "free tail must not absorb the next region")
	assert.Equal(t, headerOf(p), blocks[1].Addr)

	mustFree(t, h, p)
	u, err := h.Usage()
	require.NoError(t, err)
	assert.Zero(t, u.AdjacentFreePairs, "blocks in different spans are not merge candidates")

	// A search over the boundary still leaves both blocks intact.
	mustAlloc(t, h, initialCapacity+1)
	assertInvariants(t, h)
}

func TestGoMemoryRegionsSurviveGC(t *testing.T) {
	h := newProviderHeap(t, goMemProvider{})

	// Only addresses are kept; the heap alone must keep the regions alive.
	var ptrs []Ptr
	for i := 0; i < 6; i++ {
		p, payload, err := h.Alloc(8000)
		require.NoError(t, err)
		for j := range payload {
			payload[j] = 0x5A
		}
		ptrs = append(ptrs, p)
	}
	assert.Len(t, h.spans.spans, len(h.Regions()), "Go allocations are never joined")

	runtime.GC()
	churn := make([][]byte, 0, 4000)
	for i := 0; i < 4000; i++ {
		b := make([]byte, 8192)
		for j := range b {
			b[j] = 0xEE
		}
		churn = append(churn, b)
	}
	runtime.GC()

	for _, p := range ptrs {
		info := blockOf(t, h, p)
		payload, ok := h.spans.bytes(uintptr(p), info.Capacity)
		require.True(t, ok)
		for j, c := range payload {
			if c != 0x5A {
				t.Fatalf("payload %#x byte %d = %#x after GC", uintptr(p), j, c)
			}
		}
	}
	assertInvariants(t, h)
	runtime.KeepAlive(churn)
}
