//go:build !linux && !darwin && !dragonfly && !freebsd && !openbsd

package region

import (
	"fmt"
	"os"
)

type osProvider struct{}

// NewOS returns a Provider backed by Go-allocated memory when mmap is not
// available. Exact placement is never possible, so every heap extension is
// disjoint.
func NewOS() Provider { return osProvider{} }

// PageSize returns the operating system page size.
func PageSize() int { return os.Getpagesize() }

// Map implements Provider.
func (osProvider) Map(hint uintptr, length int, exact bool) ([]byte, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadLength, length)
	}
	if exact {
		return nil, fmt.Errorf("%w: %#x", ErrAddressInUse, hint)
	}
	return make([]byte, length), nil
}
