//go:build linux

package region

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

type osProvider struct{}

// NewOS returns a Provider backed by anonymous private mmap.
func NewOS() Provider { return osProvider{} }

// PageSize returns the operating system page size.
func PageSize() int { return unix.Getpagesize() }

// Map implements Provider. Exact requests use MAP_FIXED_NOREPLACE so an
// occupied address fails with EEXIST instead of clobbering the old mapping.
// Kernels older than 4.17 ignore the flag and may relocate; that mapping is
// returned as is and Acquire reports it as non-contiguous.
func (osProvider) Map(hint uintptr, length int, exact bool) ([]byte, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadLength, length)
	}
	flags := unix.MAP_PRIVATE | unix.MAP_ANONYMOUS
	addr := unsafe.Pointer(nil)
	if exact {
		flags |= unix.MAP_FIXED_NOREPLACE
		addr = hintPointer(hint)
	}

	ptr, err := unix.MmapPtr(-1, 0, addr, uintptr(length), unix.PROT_READ|unix.PROT_WRITE, flags)
	if err != nil {
		if exact && errors.Is(err, unix.EEXIST) {
			return nil, fmt.Errorf("%w: %#x: %w", ErrAddressInUse, hint, err)
		}
		return nil, fmt.Errorf("region: mmap %d bytes at %#x: %w", length, hint, err)
	}
	return unsafe.Slice((*byte)(ptr), length), nil
}
