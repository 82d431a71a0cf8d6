package heap

import (
	"fmt"
	"math"

	"github.com/joshuapare/heapkit/internal/buf"
)

const (
	// HeaderSize is the size of the in-band header preceding every payload.
	HeaderSize = 24

	// MinPayload is the smallest capacity a split may produce. Requests
	// below it are rounded up.
	MinPayload = 24
)

// Header layout (little endian):
//
//	0x00  next      uint64  address of the next header in heap order, 0 = tail
//	0x08  capacity  uint64  payload bytes
//	0x10  flags     uint8   high nibble tag, bit 0 free
//	0x11  padding   7 bytes
const (
	offNext     = 0
	offCapacity = 8
	offFlags    = 16

	flagTag     byte = 0xB0
	flagTagMask byte = 0xF0
	flagFree    byte = 0x01
)

// Ptr is the address of a payload, as returned by Alloc. The zero Ptr is null.
type Ptr uintptr

type header struct {
	next     uintptr
	capacity int
	free     bool
}

func blockAfter(ref uintptr, hd header) uintptr {
	return ref + HeaderSize + uintptr(hd.capacity)
}

func capacityFromSize(size int) int { return size - HeaderSize }

func sizeFromCapacity(capacity int) int { return HeaderSize + capacity }

// headerOf recovers the header address of a payload. It must stay the exact
// inverse of payloadOf.
func headerOf(p Ptr) uintptr { return uintptr(p) - HeaderSize }

func payloadOf(ref uintptr) Ptr { return Ptr(ref + HeaderSize) }

// load decodes the header at ref. The whole block, header and payload, must
// lie inside one mapped span.
func (h *Heap) load(ref uintptr) (header, error) {
	b, ok := h.spans.bytes(ref, HeaderSize)
	if !ok {
		return header{}, fmt.Errorf("%w: header %#x outside mapped memory", ErrCorrupt, ref)
	}
	flags := b[offFlags]
	if flags&flagTagMask != flagTag {
		return header{}, fmt.Errorf("%w: header %#x has bad tag 0x%02x", ErrCorrupt, ref, flags)
	}
	capacity := buf.U64LE(b[offCapacity:])
	if capacity > math.MaxInt/2 {
		return header{}, fmt.Errorf("%w: header %#x capacity %d", ErrCorrupt, ref, capacity)
	}
	hd := header{
		next:     uintptr(buf.U64LE(b[offNext:])),
		capacity: int(capacity),
		free:     flags&flagFree != 0,
	}
	if !h.spans.has(ref, sizeFromCapacity(hd.capacity)) {
		return header{}, fmt.Errorf("%w: block %#x (+%d) runs past mapped memory", ErrCorrupt, ref, hd.capacity)
	}
	return hd, nil
}

func (h *Heap) store(ref uintptr, hd header) error {
	b, ok := h.spans.bytes(ref, HeaderSize)
	if !ok {
		return fmt.Errorf("%w: header %#x outside mapped memory", ErrCorrupt, ref)
	}
	buf.PutU64LE(b[offNext:], uint64(hd.next))
	buf.PutU64LE(b[offCapacity:], uint64(hd.capacity))
	flags := flagTag
	if hd.free {
		flags |= flagFree
	}
	b[offFlags] = flags
	clear(b[offFlags+1:])
	return nil
}

// initBlock writes a free header spanning size bytes at ref.
func (h *Heap) initBlock(ref uintptr, size int, next uintptr) error {
	return h.store(ref, header{next: next, capacity: capacityFromSize(size), free: true})
}
