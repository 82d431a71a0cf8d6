//go:build darwin || dragonfly || freebsd || openbsd

package region

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

type osProvider struct{}

// NewOS returns a Provider backed by anonymous private mmap.
func NewOS() Provider { return osProvider{} }

// PageSize returns the operating system page size.
func PageSize() int { return unix.Getpagesize() }

// Map implements Provider. There is no portable "fixed but don't replace"
// flag here, so exact requests pass the address as a hint and unmap the
// result if the kernel placed it elsewhere.
func (osProvider) Map(hint uintptr, length int, exact bool) ([]byte, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadLength, length)
	}
	addr := unsafe.Pointer(nil)
	if exact {
		addr = hintPointer(hint)
	}

	ptr, err := unix.MmapPtr(-1, 0, addr, uintptr(length), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("region: mmap %d bytes at %#x: %w", length, hint, err)
	}
	if exact && uintptr(ptr) != hint {
		_ = unix.MunmapPtr(ptr, uintptr(length))
		return nil, fmt.Errorf("%w: %#x", ErrAddressInUse, hint)
	}
	return unsafe.Slice((*byte)(ptr), length), nil
}
