package density

import (
	"math"
	"testing"
)

func TestDensityDeterministic(t *testing.T) {
	a := NewRouter(123456789)
	b := NewRouter(123456789)
	pts := [][3]int32{{0, 64, 0}, {100, 32, -50}, {-200, 100, 200}}
	for _, p := range pts {
		va := a.ComputeDensity(p[0], p[1], p[2])
		vb := b.ComputeDensity(p[0], p[1], p[2])
		if va != vb {
			t.Fatalf("density mismatch at %v: %v != %v", p, va, vb)
		}
	}
}

func TestPeaksAndValleysIdentity(t *testing.T) {
	cases := []struct {
		w, want float64
	}{
		{0, -1},
		{2.0 / 3.0, 1},
		{-2.0 / 3.0, 1},
		{1, 0},
		{-1, 0},
	}
	for _, c := range cases {
		got := PeaksAndValleys(c.w)
		if math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("pv(%v) = %v, want %v", c.w, got, c.want)
		}
	}
}

func TestClampedYGradient(t *testing.T) {
	if v := clampedYGradient(-100, -64, 320, 1.5, -1.5); v != 1.5 {
		t.Fatalf("below fromY should clamp to fromValue, got %v", v)
	}
	if v := clampedYGradient(1000, -64, 320, 1.5, -1.5); v != -1.5 {
		t.Fatalf("above toY should clamp to toValue, got %v", v)
	}
	mid := clampedYGradient(128, -64, 320, 1.5, -1.5)
	if mid >= 1.5 || mid <= -1.5 {
		t.Fatalf("midpoint should lie strictly between fromValue and toValue, got %v", mid)
	}
}

// TestCellInterpolationMatchesDirectSample mirrors spec.md §8.1 property 6:
// sampling the uncached subgraph directly at a cell corner must equal the
// cell-interpolated value at that same corner once the three deltas are
// set to exactly the corner's own fractional position.
func TestCellInterpolationMatchesDirectSample(t *testing.T) {
	g := NewGraph()
	// A simple linear function of block position so corner values are
	// easy to predict by hand: f(x,y,z) = x + 2y + 3z.
	fn := g.NoiseRef("linear", 1, 1)
	wrapped := g.Wrap(KindWrapCellCache, fn)

	params := &NoiseParams{Samplers: map[string]func(x, y, z float64) float64{
		"linear": func(x, y, z float64) float64 { return x + 2*y + 3*z },
	}}
	stack := NewStack(g, params, ComputeBounds(g, map[string]Bounds{"linear": {-1e9, 1e9}}), 0, 0, 0)

	base := CellPos{BlockX: 40, BlockY: 80, BlockZ: 40, HorizontalCellBlockCount: 4, VerticalCellBlockCount: 8}
	stack.FillCellCache(wrapped, base)

	for cy := 0; cy < 8; cy++ {
		for cx := 0; cx < 4; cx++ {
			for cz := 0; cz < 4; cz++ {
				p := base
				p.CellXBlock, p.CellYBlock, p.CellZBlock = cx, cy, cz
				p.BlockX = base.BlockX - int32(base.CellXBlock) + int32(cx)
				p.BlockY = base.BlockY - int32(base.CellYBlock) + int32(cy)
				p.BlockZ = base.BlockZ - int32(base.CellZBlock) + int32(cz)
				p.Populating = true
				direct := stack.eval(g.Nodes[wrapped].Inputs[0], p)
				cached := stack.sampleCellCache(wrapped, g.Nodes[wrapped], p)
				if direct != cached {
					t.Fatalf("cell cache mismatch at (%d,%d,%d): direct=%v cached=%v", cx, cy, cz, direct, cached)
				}
			}
		}
	}
}
