package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initialCapacity is the capacity of the single block covering a fresh
// 8192-byte first region.
const initialCapacity = DefaultMinRegionBytes - HeaderSize

// TestSplitLeavesExactRemainder verifies the head keeps exactly n bytes and
// the remainder is C - n - HeaderSize, linked right behind it.
func TestSplitLeavesExactRemainder(t *testing.T) {
	h, a := newArenaHeap(t, testArenaSize)
	base := a.Base()

	p := mustAlloc(t, h, 100)

	blocks, err := h.Blocks()
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	assert.Equal(t, Ptr(base+HeaderSize), p)
	assert.Equal(t, 100, blocks[0].Capacity)
	assert.False(t, blocks[0].Free)
	assert.Equal(t, base+HeaderSize+100, blocks[0].Next)

	assert.Equal(t, blocks[0].Next, blocks[1].Addr)
	assert.Equal(t, initialCapacity-100-HeaderSize, blocks[1].Capacity)
	assert.True(t, blocks[1].Free)
	assert.Zero(t, blocks[1].Next)
	assert.Equal(t, 1, h.Stats().Splits)
	assertInvariants(t, h)
}

// TestSplitSmallestRemainder: a surplus of exactly HeaderSize+MinPayload still splits.
func TestSplitSmallestRemainder(t *testing.T) {
	h, _ := newArenaHeap(t, testArenaSize)

	n := initialCapacity - HeaderSize - MinPayload
	p := mustAlloc(t, h, n)
	assert.Equal(t, n, blockOf(t, h, p).Capacity)

	blocks, err := h.Blocks()
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, MinPayload, blocks[1].Capacity)
	assertInvariants(t, h)
}

// TestNoSplitWhenRemainderTooSmall: one byte more and the whole block is handed out.
func TestNoSplitWhenRemainderTooSmall(t *testing.T) {
	h, _ := newArenaHeap(t, testArenaSize)

	n := initialCapacity - HeaderSize - MinPayload + 1
	p, payload, err := h.Alloc(n)
	require.NoError(t, err)
	assert.Equal(t, initialCapacity, blockOf(t, h, p).Capacity, "unsplit block keeps its full capacity")
	assert.Len(t, payload, initialCapacity)

	blocks, err := h.Blocks()
	require.NoError(t, err)
	assert.Len(t, blocks, 1)
	assert.Zero(t, h.Stats().Splits)
	assertInvariants(t, h)
}

// TestNoSplitExactFit: a request equal to the capacity takes the block as is.
func TestNoSplitExactFit(t *testing.T) {
	h, _ := newArenaHeap(t, testArenaSize)

	p := mustAlloc(t, h, initialCapacity)
	assert.Equal(t, initialCapacity, blockOf(t, h, p).Capacity)
	assert.Zero(t, h.Stats().GrowCalls, "exact fit must not grow the heap")
}

// TestSplitClampsSmallRequests: sizes below MinPayload produce MinPayload blocks.
func TestSplitClampsSmallRequests(t *testing.T) {
	h, _ := newArenaHeap(t, testArenaSize)

	for _, n := range []int{0, 1, 8, 23, 24} {
		p := mustAlloc(t, h, n)
		assert.Equal(t, MinPayload, blockOf(t, h, p).Capacity, "Alloc(%d)", n)
	}
	assertInvariants(t, h)
}

// TestSplitKeepsChainBehindRemainder: splitting a free block in the middle
// of the chain links the remainder to the old successor.
func TestSplitKeepsChainBehindRemainder(t *testing.T) {
	h, a := newArenaHeap(t, testArenaSize)
	base := a.Base()

	p1 := mustAlloc(t, h, 100)
	p2 := mustAlloc(t, h, 100)
	mustFree(t, h, p1)

	q := mustAlloc(t, h, 50)
	assert.Equal(t, p1, q, "first fit reuses the released block")

	blocks, err := h.Blocks()
	require.NoError(t, err)
	require.Len(t, blocks, 4)

	assert.Equal(t, 50, blocks[0].Capacity)
	assert.False(t, blocks[0].Free)

	assert.Equal(t, base+HeaderSize+50, blocks[1].Addr)
	assert.Equal(t, 100-50-HeaderSize, blocks[1].Capacity)
	assert.True(t, blocks[1].Free)

	assert.Equal(t, blockOf(t, h, p2).Addr, blocks[1].Next, "remainder must link to the old successor")
	assert.Equal(t, headerOf(p2), blocks[2].Addr)
	assert.False(t, blocks[2].Free)
	assertInvariants(t, h)
}

// TestFirstFitNotBestFit: the first large-enough block wins even when a
// tighter one follows.
func TestFirstFitNotBestFit(t *testing.T) {
	h, _ := newArenaHeap(t, testArenaSize)

	big := mustAlloc(t, h, 200)
	mustAlloc(t, h, 50)
	tight := mustAlloc(t, h, 100)
	mustAlloc(t, h, 50)

	mustFree(t, h, big)
	mustFree(t, h, tight)

	p := mustAlloc(t, h, 90)
	assert.Equal(t, big, p)
	assert.Equal(t, 90, blockOf(t, h, p).Capacity)
	assert.True(t, blockOf(t, h, tight).Free, "the tighter block is left alone")
	assertInvariants(t, h)
}
