//go:build linux

package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/internal/logger"
)

// newOSHeap maps real memory with the default provider. The mappings live
// until the test binary exits.
func newOSHeap(t *testing.T) *Heap {
	t.Helper()
	h, err := New(Config{Logger: logger.Discard()})
	require.NoError(t, err)
	_, err = h.Init(0)
	require.NoError(t, err)
	return h
}

func TestOSHeapScenarios(t *testing.T) {
	h := newOSHeap(t)

	p1 := mustAlloc(t, h, 123)
	p2 := mustAlloc(t, h, 21)
	assert.Equal(t, 123, blockOf(t, h, p1).Capacity)
	assert.Equal(t, MinPayload, blockOf(t, h, p2).Capacity)

	mustFree(t, h, p2)
	assert.True(t, blockOf(t, h, p2).Free)

	big := mustAlloc(t, h, 16000)
	assert.Equal(t, 16000, blockOf(t, h, big).Capacity)

	u1 := mustAlloc(t, h, 9000)
	u2 := mustAlloc(t, h, 16000)
	assert.False(t, blockOf(t, h, u1).Free)
	assert.False(t, blockOf(t, h, u2).Free)
	assert.GreaterOrEqual(t, h.Stats().GrowCalls, 1)
	assertInvariants(t, h)
}

func TestOSHeapPayloadWritable(t *testing.T) {
	h := newOSHeap(t)

	_, payload, err := h.Alloc(100000)
	require.NoError(t, err)
	for i := range payload {
		payload[i] = byte(i)
	}
	assert.Equal(t, byte(99999%256), payload[99999])
	assertInvariants(t, h)
}
