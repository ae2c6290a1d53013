// Package noise implements the procedural noise primitives the terrain
// engine samples: improved Perlin noise, multi-octave Perlin (both the
// modern and legacy initialization schemes), simplex noise, blended noise
// and double-Perlin noise. Each sampler is a pure function of its internal
// permutation/gradient tables and the (x, y, z) it is asked for, so two
// samplers built from the same rng.Source produce bit-identical output.
package noise

import (
	"math"

	"github.com/aquilax/go-perlin"

	"github.com/steelforge/voxelcore/internal/rng"
)

func floor(v float64) int32 {
	i := int32(v)
	if v < float64(i) {
		i--
	}
	return i
}

func smoothstep(t float64) float64 { return t * t * t * (t*(t*6-15) + 10) }

func smoothstepDerivative(t float64) float64 { return 30 * t * t * (t - 1) * (t - 1) }

func lerp(t, a, b float64) float64 { return a + t*(b-a) }

func lerp2(sx, sy, v00, v10, v01, v11 float64) float64 {
	return lerp(sy, lerp(sx, v00, v10), lerp(sx, v01, v11))
}

func lerp3(sx, sy, sz, v000, v100, v010, v110, v001, v101, v011, v111 float64) float64 {
	return lerp(sz, lerp2(sx, sy, v000, v100, v010, v110), lerp2(sx, sy, v001, v101, v011, v111))
}

// gradient is the classic 12-direction Perlin gradient table, extended to
// 16 entries (four duplicates) so a 4-bit index can select directly.
var gradient = [16][3]int8{
	{1, 1, 0}, {-1, 1, 0}, {1, -1, 0}, {-1, -1, 0},
	{1, 0, 1}, {-1, 0, 1}, {1, 0, -1}, {-1, 0, -1},
	{0, 1, 1}, {0, -1, 1}, {0, 1, -1}, {0, -1, -1},
	{1, 1, 0}, {0, -1, 1}, {-1, 1, 0}, {0, -1, -1},
}

func dot(g [3]int8, x, y, z float64) float64 {
	return float64(g[0])*x + float64(g[1])*y + float64(g[2])*z
}

// ImprovedNoise is a single-octave Perlin noise sampler with a shuffled
// 256-entry permutation table and a fixed per-instance (xo, yo, zo) offset,
// an exact structural port of the reference ImprovedNoise class.
type ImprovedNoise struct {
	p          [256]byte
	xo, yo, zo float64
}

// NewImprovedNoise builds a sampler, consuming exactly 3 float64 draws and
// a Fisher-Yates shuffle of 256 entries from src.
func NewImprovedNoise(src rng.Source) *ImprovedNoise {
	n := &ImprovedNoise{
		xo: src.Float64() * 256,
		yo: src.Float64() * 256,
		zo: src.Float64() * 256,
	}
	for i := range n.p {
		n.p[i] = byte(i)
	}
	for i := 0; i < 256; i++ {
		j := int(src.Int32n(int32(256 - i)))
		n.p[i], n.p[i+j] = n.p[i+j], n.p[i]
	}
	return n
}

func (n *ImprovedNoise) perm(index int32) int32 { return int32(n.p[index&255]) }

func (n *ImprovedNoise) gradDot(idx int32, x, y, z float64) float64 {
	return dot(gradient[idx&15], x, y, z)
}

// Sample evaluates the noise field at (x, y, z).
func (n *ImprovedNoise) Sample(x, y, z float64) float64 {
	return n.SampleYClamped(x, y, z, 0, 0)
}

// SampleYClamped evaluates the noise field with vanilla's vertical
// "y-clamping" trick used by BlendedNoise to smear the noise vertically
// over yScale/yMax.
func (n *ImprovedNoise) SampleYClamped(x, y, z, yScale, yMax float64) float64 {
	d := x + n.xo
	e := y + n.yo
	f := z + n.zo

	i := floor(d)
	j := floor(e)
	k := floor(f)

	g := d - float64(i)
	h := e - float64(j)
	l := f - float64(k)

	var w float64
	if yScale != 0 {
		m := h
		if yMax >= 0 && yMax < h {
			m = yMax
		}
		w = float64(floor(m/yScale+1.0e-7)) * yScale
	}
	return n.sampleAndLerp(i, j, k, g, h-w, l, h)
}

func (n *ImprovedNoise) sampleAndLerp(gx, gy, gz int32, dx, wdy, dz, dy float64) float64 {
	i := n.perm(gx)
	j := n.perm(gx + 1)
	k := n.perm(i + gy)
	l := n.perm(i + gy + 1)
	m := n.perm(j + gy)
	o := n.perm(j + gy + 1)

	d := n.gradDot(n.perm(k+gz), dx, wdy, dz)
	e := n.gradDot(n.perm(m+gz), dx-1, wdy, dz)
	f := n.gradDot(n.perm(l+gz), dx, wdy-1, dz)
	g := n.gradDot(n.perm(o+gz), dx-1, wdy-1, dz)
	h := n.gradDot(n.perm(k+gz+1), dx, wdy, dz-1)
	p := n.gradDot(n.perm(m+gz+1), dx-1, wdy, dz-1)
	q := n.gradDot(n.perm(l+gz+1), dx, wdy-1, dz-1)
	r := n.gradDot(n.perm(o+gz+1), dx-1, wdy-1, dz-1)

	sx := smoothstep(dx)
	sy := smoothstep(dy)
	sz := smoothstep(dz)

	return lerp3(sx, sy, sz, d, e, f, g, h, p, q, r)
}

// PerlinOctave is one octave of a multi-octave noise sum: an
// ImprovedNoise paired with the amplitude it contributes at its scale.
type PerlinOctave struct {
	Noise      *ImprovedNoise
	Amplitude  float64
	Frequency  float64
	LowestFreq float64
}

// OctavePerlin sums several octaves of ImprovedNoise, doubling the
// sampling frequency from one octave to the next. Each octave is
// weighted by its amplitude alone; no per-octave persistence falloff
// is applied.
type OctavePerlin struct {
	octaves    []*ImprovedNoise
	amplitudes []float64
	lowestFreq float64
	valueScale float64
}

// NewOctavePerlin builds a "new style" octave noise generator: one
// ImprovedNoise per requested octave index in [firstOctave, firstOctave+n),
// each built from a single shared rng.Source in order from lowest to
// highest frequency (matching vanilla's PerlinNoise::new).
func NewOctavePerlin(src rng.Source, firstOctave int32, amplitudes []float64) *OctavePerlin {
	o := &OctavePerlin{amplitudes: amplitudes}
	o.lowestFreq = math.Pow(2, float64(firstOctave))
	o.octaves = make([]*ImprovedNoise, len(amplitudes))
	// Vanilla burns one PerlinNoise per octave, consuming the shared
	// source octave-by-octave from lowest frequency upward.
	for i := range amplitudes {
		o.octaves[i] = NewImprovedNoise(src)
	}
	o.valueScale = 1.0
	return o
}

// NewLegacyOctavePerlin builds the "legacy style" initializer: the same
// octave set, but skipped octaves still burn RNG draws (legacy parity
// requires consuming a fixed number of ImprovedNoise constructions even
// for octaves with zero amplitude).
func NewLegacyOctavePerlin(src rng.Source, firstOctave int32, amplitudes []float64) *OctavePerlin {
	o := &OctavePerlin{amplitudes: amplitudes}
	o.lowestFreq = math.Pow(2, float64(firstOctave))
	o.octaves = make([]*ImprovedNoise, len(amplitudes))
	for i, amp := range amplitudes {
		if amp != 0 {
			o.octaves[i] = NewImprovedNoise(src)
		} else {
			// Still advance the stream: legacy burns a full
			// ImprovedNoise construction for skipped octaves so later
			// octaves land on the bit-exact state vanilla expects.
			NewImprovedNoise(src)
		}
	}
	return o
}

// Sample sums every octave's contribution at (x, y, z).
func (o *OctavePerlin) Sample(x, y, z float64) float64 {
	var value float64
	freq := o.lowestFreq
	for i, amp := range o.amplitudes {
		oct := o.octaves[i]
		if oct == nil || amp == 0 {
			freq *= 2
			continue
		}
		value += amp * oct.Sample(wrapCoord(x*freq), wrapCoord(y*freq), wrapCoord(z*freq))
		freq *= 2
	}
	return value
}

// wrapRange is the period (2^25) over which density-function coordinates
// wrap, matching the reference's "wrap" helper used to keep noise
// coordinates numerically stable far from the origin.
const wrapRange = 3.3554432e7

// wrapCoord wraps v into [-wrapRange/2, wrapRange/2), the invariant
// checked by spec.md §8.1 property 9.
func wrapCoord(v float64) float64 {
	return v - math.Floor(v/wrapRange+0.5)*wrapRange
}

// WrapCoord exposes wrapCoord for other packages and tests (property 9).
func WrapCoord(v float64) float64 { return wrapCoord(v) }

// referencePerlin wraps github.com/aquilax/go-perlin for noise fields
// that don't need bit-exact vanilla parity (see DESIGN.md, component
// B). No sampler in this module is built on it.
type referencePerlin struct {
	p *perlin.Perlin
}

// NewReferencePerlinOctaves adapts go-perlin's alpha/beta/n parametrized
// generator for auxiliary noise fields (e.g. decorative density wobble)
// that are not required to match the canonical terrain noise bit-for-bit.
func NewReferencePerlinOctaves(alpha, beta float64, octaves int32, seed int64) *referencePerlin {
	return &referencePerlin{p: perlin.NewPerlin(alpha, beta, octaves, seed)}
}

// Sample2D returns go-perlin's 2D noise value.
func (r *referencePerlin) Sample2D(x, y float64) float64 {
	return r.p.Noise2D(x, y)
}
