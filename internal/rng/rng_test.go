package rng

import "testing"

func TestXoroshiroDeterministic(t *testing.T) {
	a := NewXoroshiro(42)
	b := NewXoroshiro(42)
	for i := 0; i < 100; i++ {
		if a.Uint64() != b.Uint64() {
			t.Fatalf("two generators seeded with the same seed diverged at step %d", i)
		}
	}
}

func TestXoroshiroInt32nRange(t *testing.T) {
	x := NewXoroshiro(7)
	for i := 0; i < 1000; i++ {
		v := x.Int32n(10)
		if v < 0 || v >= 10 {
			t.Fatalf("Int32n(10) out of range: %d", v)
		}
	}
}

func TestLegacyDeterministic(t *testing.T) {
	a := NewLegacy(1234)
	b := NewLegacy(1234)
	for i := 0; i < 100; i++ {
		if a.Int32() != b.Int32() {
			t.Fatalf("two legacy generators seeded identically diverged at step %d", i)
		}
	}
}

func TestLegacyInt32nPowerOfTwo(t *testing.T) {
	l := NewLegacy(99)
	for i := 0; i < 1000; i++ {
		v := l.Int32n(16)
		if v < 0 || v >= 16 {
			t.Fatalf("Int32n(16) out of range: %d", v)
		}
	}
}

func TestForkIsDeterministicPerKey(t *testing.T) {
	a := NewXoroshiro(5).Fork("minecraft:terrain")
	b := NewXoroshiro(5).Fork("minecraft:terrain")
	if a.Uint64() != b.Uint64() {
		t.Fatal("forking the same parent with the same key should be deterministic")
	}
	c := NewXoroshiro(5).Fork("minecraft:biome")
	// Re-derive a to compare against c fairly.
	a2 := NewXoroshiro(5).Fork("minecraft:terrain")
	if a2.Uint64() == c.Uint64() {
		t.Fatal("different fork keys should (almost always) diverge")
	}
}

func TestGaussianFinite(t *testing.T) {
	g := &GaussianSource{Source: NewXoroshiro(3)}
	for i := 0; i < 1000; i++ {
		v := g.NextGaussian()
		if v != v { // NaN check
			t.Fatal("NextGaussian produced NaN")
		}
	}
}
