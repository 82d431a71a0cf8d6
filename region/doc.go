// Package region obtains raw memory regions for the heap.
//
// # Overview
//
// A Region is one span of zero-initialized memory returned by a single
// mapping call. Regions are never unmapped; their lifetime is the lifetime
// of the process (or of the Arena that produced them).
//
// # Providers
//
// Provider is the single operating-system service the heap depends on:
// "give me N bytes, preferably at this address, and fail instead of
// relocating if exact placement was requested".
//
//   - NewOS: anonymous private mmap via golang.org/x/sys/unix. On Linux,
//     exact requests use MAP_FIXED_NOREPLACE. Other unix systems pass the
//     address as a hint and reject relocated mappings. Platforms without
//     mmap fall back to Go-allocated memory and never honor exact requests.
//   - NewArena: carves regions out of one pre-allocated byte slice. Used for
//     deterministic tests and for tooling that wants a bounded heap.
//
// # Acquisition
//
// Acquire applies the sizing rules (page rounding, then a minimum region
// floor), tries an exact mapping at the preferred address so the heap stays
// contiguous, and falls back to a mapping anywhere:
//
//	g := region.Geometry{PageSize: 4096, MinRegionBytes: 8192}
//	r, err := region.Acquire(region.NewOS(), end, 16024, g)
//	if err != nil {
//	    return err // wraps region.ErrMappingFailed
//	}
//	if !r.Contiguous {
//	    // placed elsewhere; the heap links it in anyway
//	}
package region
