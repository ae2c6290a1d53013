package chunk

import "testing"

func TestPackedArrayRoundTrip(t *testing.T) {
	for _, bits := range []int{1, 4, 5, 8, 13} {
		p := NewPackedArray(100, bits)
		for i := 0; i < 100; i++ {
			p.Set(i, uint32(i)&((1<<uint(bits))-1))
		}
		for i := 0; i < 100; i++ {
			want := uint32(i) & ((1 << uint(bits)) - 1)
			if got := p.Get(i); got != want {
				t.Fatalf("bits=%d Get(%d) = %d, want %d", bits, i, got, want)
			}
		}
	}
}

func TestPackedArrayZeroBitsAlwaysZero(t *testing.T) {
	p := NewPackedArray(10, 0)
	p.Set(3, 7) // no-op: zero-width array can't represent anything but 0
	for i := 0; i < 10; i++ {
		if got := p.Get(i); got != 0 {
			t.Fatalf("Get(%d) = %d, want 0", i, got)
		}
	}
}

func TestPackedArrayResizePreservesValues(t *testing.T) {
	p := NewPackedArray(20, 2)
	for i := 0; i < 20; i++ {
		p.Set(i, uint32(i%4))
	}
	resized := p.Resize(6)
	for i := 0; i < 20; i++ {
		want := uint32(i % 4)
		if got := resized.Get(i); got != want {
			t.Fatalf("after resize Get(%d) = %d, want %d", i, got, want)
		}
	}
	if resized.BitsPerEntry() != 6 {
		t.Fatalf("BitsPerEntry = %d, want 6", resized.BitsPerEntry())
	}
}
