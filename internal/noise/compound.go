package noise

import (
	"math"

	"github.com/steelforge/voxelcore/internal/rng"
)

// simplexGradient is the 16-entry gradient table (the 12 edge midpoints
// of a cube plus four repeats) that ImprovedNoise also samples.
var simplexGradient = gradient

const (
	f2 = 0.3660254037844386  // (sqrt(3)-1)/2
	g2 = 0.21132486540518713 // (3-sqrt(3))/6
)

// Simplex is a single 2D simplex-noise sampler, built from the same
// permutation-table construction as ImprovedNoise so it can share a
// world-seed-derived rng.Source with the Perlin family.
type Simplex struct {
	p          [256]byte
	xo, yo, zo float64
}

// NewSimplex builds a simplex sampler the same way NewImprovedNoise does.
func NewSimplex(src rng.Source) *Simplex {
	s := &Simplex{
		xo: src.Float64() * 256,
		yo: src.Float64() * 256,
		zo: src.Float64() * 256,
	}
	for i := range s.p {
		s.p[i] = byte(i)
	}
	for i := 0; i < 256; i++ {
		j := int(src.Int32n(int32(256 - i)))
		s.p[i], s.p[i+j] = s.p[i+j], s.p[i]
	}
	return s
}

func (s *Simplex) perm(i int32) int32 { return int32(s.p[i&255]) }

// Sample2D evaluates 2D simplex noise at (x, y).
func (s *Simplex) Sample2D(x, y float64) float64 {
	skew := (x + y) * f2
	i := floor(x + skew)
	j := floor(y + skew)
	unskew := float64(i+j) * g2
	x0 := float64(i) - unskew
	y0 := float64(j) - unskew
	dx0 := x - x0
	dy0 := y - y0

	var i1, j1 int32
	if dx0 > dy0 {
		i1, j1 = 1, 0
	} else {
		i1, j1 = 0, 1
	}

	dx1 := dx0 - float64(i1) + g2
	dy1 := dy0 - float64(j1) + g2
	dx2 := dx0 - 1 + 2*g2
	dy2 := dy0 - 1 + 2*g2

	gi0 := s.perm(i + s.perm(j))
	gi1 := s.perm(i + i1 + s.perm(j+j1))
	gi2 := s.perm(i + 1 + s.perm(j+1))

	var n0, n1, n2 float64
	if t0 := 0.5 - dx0*dx0 - dy0*dy0; t0 > 0 {
		t0 *= t0
		n0 = t0 * t0 * dot2(gi0, dx0, dy0)
	}
	if t1 := 0.5 - dx1*dx1 - dy1*dy1; t1 > 0 {
		t1 *= t1
		n1 = t1 * t1 * dot2(gi1, dx1, dy1)
	}
	if t2 := 0.5 - dx2*dx2 - dy2*dy2; t2 > 0 {
		t2 *= t2
		n2 = t2 * t2 * dot2(gi2, dx2, dy2)
	}
	return 70 * (n0 + n1 + n2)
}

func dot2(gradIdx int32, x, y float64) float64 {
	g := simplexGradient[gradIdx&15]
	return float64(g[0])*x + float64(g[1])*y
}

// BlendedNoise blends a min-limit and a max-limit octave stack, weighted
// by a third (main) stack sampled at a separate xz/y resolution, used for
// the deep/main-terrain density component, matching the reference
// BlendedNoise.
type BlendedNoise struct {
	minLimit  *OctavePerlin
	maxLimit  *OctavePerlin
	main      *OctavePerlin
	xzScale   float64
	yScale    float64
	xzFactor  float64
	yFactor   float64
	smearScaleMultiplier float64
}

// BlendedNoiseParams configures a BlendedNoise sampler.
type BlendedNoiseParams struct {
	XZScale, YScale, XZFactor, YFactor, SmearScaleMultiplier float64
}

// NewBlendedNoise builds the min/max-limit and main octave stacks from a
// single rng.Source, in the order the reference constructs them.
func NewBlendedNoise(src rng.Source, p BlendedNoiseParams) *BlendedNoise {
	minAmps := amplitudesFirstN(16)
	mainAmps := amplitudesFirstN(8)
	return &BlendedNoise{
		minLimit:             NewOctavePerlin(src, -15, minAmps),
		maxLimit:             NewOctavePerlin(src, -15, minAmps),
		main:                 NewOctavePerlin(src, -7, mainAmps),
		xzScale:              p.XZScale,
		yScale:               p.YScale,
		xzFactor:             p.XZFactor,
		yFactor:              p.YFactor,
		smearScaleMultiplier: p.SmearScaleMultiplier,
	}
}

func amplitudesFirstN(n int) []float64 {
	amps := make([]float64, n)
	for i := range amps {
		amps[i] = 1
	}
	return amps
}

// Sample evaluates the blended-noise density contribution at a block
// position, using vanilla's y-clamped sampling of the min/max limit
// octaves to produce smooth vertical gradients near chunk cell
// boundaries.
func (b *BlendedNoise) Sample(x, y, z float64) float64 {
	xzs := x * b.xzScale
	ys := y * b.yScale
	zzs := z * b.xzScale
	xzm := xzs / b.xzFactor
	ym := ys / b.yFactor
	zzm := zzs / b.xzFactor

	ySmear := b.yScale * b.smearScaleMultiplier
	var minSum, maxSum float64
	var amp float64 = 1
	for i := 0; i < 8; i++ {
		freq := math.Pow(2, float64(i))
		nmin := wrapCoord(xzm * freq)
		nyMin := wrapCoord(ym * freq)
		nz := wrapCoord(zzm * freq)
		minSum += b.minLimit.octaveAt(i).SampleYClamped(nmin, nyMin, nz, ySmear*freq, ym*freq) / amp
		maxSum += b.maxLimit.octaveAt(i).SampleYClamped(nmin, nyMin, nz, ySmear*freq, ym*freq) / amp
		amp *= 2
	}

	var mainSum float64
	amp = 1
	for i := 0; i < 4; i++ {
		freq := math.Pow(2, float64(i))
		nx := wrapCoord(xzs * freq)
		ny := wrapCoord(ys * freq)
		nz := wrapCoord(zzs * freq)
		mainSum += b.main.octaveAt(i).SampleYClamped(nx, ny, nz, 0, 0) / amp
		amp *= 2
	}

	t := (mainSum/10 + 1) / 2
	return lerp(clamp01(t), minSum/512, maxSum/512)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func (o *OctavePerlin) octaveAt(i int) *ImprovedNoise { return o.octaves[i] }

// DoublePerlin samples two independently-initialized octave stacks, the
// second at coordinates scaled by 337/331, and sums them, matching the reference
// DoublePerlinNoise used for most "new style" terrain features (erosion,
// continentalness, ridges, ...).
type DoublePerlin struct {
	first, second *OctavePerlin
	amplitude     float64
}

// NewDoublePerlin builds both octave stacks from the same rng.Source, in
// construction order (first, then second), matching vanilla.
func NewDoublePerlin(src rng.Source, firstOctave int32, amplitudes []float64) *DoublePerlin {
	first := NewOctavePerlin(src, firstOctave, amplitudes)
	second := NewOctavePerlin(src, firstOctave, amplitudes)

	lo, hi := -1, len(amplitudes)
	for i, a := range amplitudes {
		if a != 0 {
			if lo == -1 {
				lo = i
			}
			hi = i
		}
	}
	n := hi - lo + 1
	amplitude := (10.0 / 6.0) * float64(n) / float64(n+1)
	return &DoublePerlin{first: first, second: second, amplitude: amplitude}
}

// Sample evaluates both octave stacks and sums them with the fixed
// cross-scale factor vanilla's DoublePerlinNoise applies.
func (d *DoublePerlin) Sample(x, y, z float64) float64 {
	const factor = 337.0 / 331.0
	v1 := d.first.Sample(x, y, z)
	v2 := d.second.Sample(x*factor, y*factor, z*factor)
	return (v1 + v2) * d.amplitude
}
