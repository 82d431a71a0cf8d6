package heap

import "testing"

func BenchmarkAllocFree(b *testing.B) {
	h, _ := newArenaHeap(b, 64<<20)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p, _, err := h.Alloc(64)
		if err != nil {
			b.Fatal(err)
		}
		if err := h.Free(p); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAllocFragmented(b *testing.B) {
	h, _ := newArenaHeap(b, 64<<20)
	// Release every other block so searches walk a long, holed chain.
	var odd []Ptr
	for i := 0; i < 512; i++ {
		p := mustAlloc(b, h, 32)
		if i%2 == 1 {
			odd = append(odd, p)
		}
	}
	for _, p := range odd {
		mustFree(b, h, p)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p, _, err := h.Alloc(200)
		if err != nil {
			b.Fatal(err)
		}
		if err := h.Free(p); err != nil {
			b.Fatal(err)
		}
	}
}
