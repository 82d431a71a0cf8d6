package heap

import (
	"sort"

	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/region"
)

// span is a maximal run of address-contiguous mapped memory. A block merged
// across a region boundary stays addressable as one slice.
type span struct {
	base uintptr
	mem  []byte
}

func (s span) end() uintptr { return s.base + uintptr(len(s.mem)) }

// spanTable indexes spans by base address for O(log S) header lookups.
//
// Only a region placed by an exact mapping is joined with its neighbors.
// Relocated regions may be separate Go objects that merely happen to be
// adjacent, so they stay spans of their own.
type spanTable struct {
	spans []span   // sorted by base
	keep  [][]byte // every region as mapped, so Go-allocated memory stays reachable
	total int
}

// add registers r. A contiguous region is joined with spans that end where
// it starts or start where it ends.
func (t *spanTable) add(r region.Region) {
	t.keep = append(t.keep, r.Mem)
	t.total += r.Size
	i := sort.Search(len(t.spans), func(i int) bool { return t.spans[i].base > r.Addr })

	cur := span{base: r.Addr, mem: r.Mem}
	if r.Contiguous && i > 0 && t.spans[i-1].end() == r.Addr {
		prev := t.spans[i-1]
		cur = span{base: prev.base, mem: region.Join(prev.mem, len(prev.mem)+r.Size)}
		i--
		t.spans = append(t.spans[:i], t.spans[i+1:]...)
	}
	if r.Contiguous && i < len(t.spans) && t.spans[i].base == cur.end() {
		next := t.spans[i]
		cur.mem = region.Join(cur.mem, len(cur.mem)+len(next.mem))
		t.spans = append(t.spans[:i], t.spans[i+1:]...)
	}

	t.spans = append(t.spans, span{})
	copy(t.spans[i+1:], t.spans[i:])
	t.spans[i] = cur
}

func (t *spanTable) find(addr uintptr) (span, bool) {
	i := sort.Search(len(t.spans), func(i int) bool { return t.spans[i].end() > addr })
	if i == len(t.spans) || t.spans[i].base > addr {
		return span{}, false
	}
	return t.spans[i], true
}

// bytes returns the n bytes at addr if they lie inside one span.
func (t *spanTable) bytes(addr uintptr, n int) ([]byte, bool) {
	s, ok := t.find(addr)
	if !ok {
		return nil, false
	}
	off, ok := buf.Within(s.base, len(s.mem), addr, n)
	if !ok {
		return nil, false
	}
	return buf.Slice(s.mem, off, n)
}

func (t *spanTable) has(addr uintptr, n int) bool {
	_, ok := t.bytes(addr, n)
	return ok
}
