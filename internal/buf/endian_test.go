package buf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestU64LE(t *testing.T) {
	data := []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef}
	assert.Equal(t, uint64(0xefcdab8967452301), U64LE(data))
	assert.Zero(t, U64LE(data[:7]), "short reads return 0")

	out := make([]byte, 8)
	assert.True(t, PutU64LE(out, 0xefcdab8967452301))
	assert.Equal(t, data, out)
	assert.False(t, PutU64LE(out[:4], 1))
}
