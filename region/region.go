package region

import (
	"errors"
	"fmt"
	"math"

	"github.com/joshuapare/heapkit/internal/buf"
)

var (
	// ErrMappingFailed indicates that both the exact and the relocated mapping attempts failed.
	ErrMappingFailed = errors.New("region: mapping failed")

	// ErrAddressInUse indicates that an exact mapping could not be placed at the requested address.
	ErrAddressInUse = errors.New("region: preferred address unavailable")

	// ErrNoMemory indicates that a provider has no room left for the request.
	ErrNoMemory = errors.New("region: out of memory")

	// ErrBadLength indicates a zero, negative or unrepresentable mapping length.
	ErrBadLength = errors.New("region: bad length")
)

// Provider maps zero-initialized read/write memory.
//
// With exact set, the mapping must start at hint or the call must fail. A
// hint that is already occupied is reported with an error wrapping
// ErrAddressInUse; other failures carry the underlying cause. Without exact,
// the provider picks the address and hint may be ignored.
type Provider interface {
	Map(hint uintptr, length int, exact bool) ([]byte, error)
}

// Region is one mapping handed out by a Provider.
type Region struct {
	Addr       uintptr // first byte of the mapping
	Mem        []byte  // len(Mem) == Size
	Size       int
	Contiguous bool // placed by an exact mapping at the preferred address
}

// Valid reports whether r holds memory. The zero Region is the failure sentinel.
func (r Region) Valid() bool {
	return r.Mem != nil
}

// End returns the address immediately after the region.
func (r Region) End() uintptr {
	return r.Addr + uintptr(r.Size)
}

// Geometry holds the sizing rules applied to every region request.
type Geometry struct {
	PageSize       int // granularity for rounding, power of two
	MinRegionBytes int // floor for every region
}

// ActualSize returns the number of bytes a request for n will map:
// n rounded up to a page multiple, then raised to MinRegionBytes.
func (g Geometry) ActualSize(n int) (int, error) {
	if n < 0 || n > math.MaxInt-g.PageSize {
		return 0, fmt.Errorf("%w: %d", ErrBadLength, n)
	}
	return max(buf.AlignUp(n, g.PageSize), g.MinRegionBytes), nil
}

// Validate checks that the geometry can be used for rounding.
func (g Geometry) Validate() error {
	if !buf.IsPowerOfTwo(g.PageSize) {
		return fmt.Errorf("region: page size %d is not a power of two", g.PageSize)
	}
	if g.MinRegionBytes <= 0 {
		return fmt.Errorf("region: minimum region size %d must be positive", g.MinRegionBytes)
	}
	return nil
}

// Acquire maps a region of at least requested bytes, preferably at preferred.
//
// A preferred address of 0 skips the exact attempt. When the exact attempt
// fails for any reason, Acquire retries without an address preference and
// reports Contiguous=false, even if the relocated mapping happens to start
// at preferred: only an exact mapping may be treated as an extension of the
// memory before it. If both attempts fail it returns the zero Region
// and an error wrapping ErrMappingFailed.
func Acquire(p Provider, preferred uintptr, requested int, g Geometry) (Region, error) {
	size, err := g.ActualSize(requested)
	if err != nil {
		return Region{}, fmt.Errorf("%w: %w", ErrMappingFailed, err)
	}

	var mem []byte
	if preferred != 0 {
		mem, err = p.Map(preferred, size, true)
	}
	exact := mem != nil
	if !exact {
		var relocErr error
		mem, relocErr = p.Map(0, size, false)
		if relocErr != nil {
			return Region{}, fmt.Errorf("%w: %d bytes: %w", ErrMappingFailed, size, errors.Join(err, relocErr))
		}
	}
	if len(mem) < size {
		return Region{}, fmt.Errorf("%w: provider returned %d of %d bytes", ErrMappingFailed, len(mem), size)
	}

	addr := AddrOf(mem)
	return Region{
		Addr:       addr,
		Mem:        mem[:size:size],
		Size:       size,
		Contiguous: exact && addr == preferred,
	}, nil
}
