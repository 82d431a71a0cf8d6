package region

import (
	"fmt"
	"sort"

	"github.com/joshuapare/heapkit/internal/buf"
)

// Arena is an in-process Provider carving regions out of one byte slice.
//
// Exact requests succeed when the whole range is inside the arena and not yet
// handed out. Relocated requests take the lowest free gap that fits.
// Nothing is ever returned to the arena.
//
// Not thread-safe.
type Arena struct {
	mem  []byte
	base uintptr
	used []extent // sorted by off, non-overlapping
}

type extent struct {
	off int
	n   int
}

// NewArena allocates an arena of size bytes.
func NewArena(size int) *Arena {
	mem := make([]byte, size)
	return &Arena{mem: mem, base: AddrOf(mem)}
}

// Base returns the address of the first arena byte.
func (a *Arena) Base() uintptr { return a.base }

// Size returns the arena capacity in bytes.
func (a *Arena) Size() int { return len(a.mem) }

// Used returns the number of bytes handed out or reserved.
func (a *Arena) Used() int {
	total := 0
	for _, e := range a.used {
		total += e.n
	}
	return total
}

// Reserve marks [off, off+n) as taken without returning it, so a later
// exact request overlapping it fails.
func (a *Arena) Reserve(off, n int) error {
	if n <= 0 || !buf.Has(a.mem, off, n) {
		return fmt.Errorf("%w: reserve [%d,+%d) outside arena of %d bytes", ErrBadLength, off, n, len(a.mem))
	}
	if a.overlaps(off, n) {
		return fmt.Errorf("%w: reserve [%d,+%d)", ErrAddressInUse, off, n)
	}
	a.insert(off, n)
	return nil
}

// Map implements Provider.
func (a *Arena) Map(hint uintptr, length int, exact bool) ([]byte, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadLength, length)
	}

	if exact {
		off, ok := buf.Within(a.base, len(a.mem), hint, length)
		if !ok || a.overlaps(off, length) {
			return nil, fmt.Errorf("%w: %#x (+%d)", ErrAddressInUse, hint, length)
		}
		a.insert(off, length)
		return a.mem[off : off+length : off+length], nil
	}

	off, ok := a.firstGap(length)
	if !ok {
		return nil, fmt.Errorf("%w: %d bytes requested, %d of %d in use", ErrNoMemory, length, a.Used(), len(a.mem))
	}
	a.insert(off, length)
	return a.mem[off : off+length : off+length], nil
}

func (a *Arena) overlaps(off, n int) bool {
	end := off + n
	for _, e := range a.used {
		if off < e.off+e.n && e.off < end {
			return true
		}
	}
	return false
}

func (a *Arena) firstGap(n int) (int, bool) {
	cursor := 0
	for _, e := range a.used {
		if e.off-cursor >= n {
			return cursor, true
		}
		cursor = e.off + e.n
	}
	if len(a.mem)-cursor >= n {
		return cursor, true
	}
	return 0, false
}

func (a *Arena) insert(off, n int) {
	i := sort.Search(len(a.used), func(i int) bool { return a.used[i].off >= off })
	a.used = append(a.used, extent{})
	copy(a.used[i+1:], a.used[i:])
	a.used[i] = extent{off: off, n: n}
}
