// Package density implements the three-stage density-function graph that
// drives procedural terrain generation: a flat, topologically sorted
// static graph (Stage 1), a seed-bound proto stack with precomputed
// min/max bounds (Stage 2), and a per-chunk stack with cell interpolation
// and wrapper caches (Stage 3). See spec.md §3.9 and §4.3.
package density

import (
	"math"
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

// Kind identifies the operation a graph node performs.
type Kind int

const (
	KindConstant Kind = iota
	KindNoise
	KindShiftA
	KindShiftB
	KindShiftedNoise
	KindInterpolatedNoiseSampler // BlendedNoise in practice
	KindEndIslands
	KindAdd
	KindMul
	KindMin
	KindMax
	KindAbs
	KindSquare
	KindCube
	KindHalfNegative
	KindQuarterNegative
	KindSqueeze
	KindClamp
	KindRangeChoice
	KindWeirdScaled
	KindClampedYGradient
	KindBlendAlpha
	KindBlendOffset
	KindBlendDensity
	KindBeardifier
	KindPeaksAndValleys
	KindSpline
	KindWrapCache2D
	KindWrapCacheFlat
	KindWrapCacheOnce
	KindWrapCellCache
	KindWrapInterpolated
)

// Node is one entry of the flat, content-addressed static base graph. All
// of Node.Inputs reference indices strictly less than the node's own
// index in the owning Graph, enforcing the DAG-by-construction invariant
// from spec.md Design Notes.
type Node struct {
	Kind   Kind
	Inputs [2]int // -1 where unused; most ops use Inputs[0] only
	Const  float64
	// NoiseID names which named noise parameter set (xz_scale, y_scale,
	// octave amplitudes) this Noise/ShiftedNoise/Interpolated node
	// samples from; resolved against NoiseParams at Stage 2 build time.
	NoiseID          string
	XZScale, YScale  float64
	Min, Max         float64 // Clamp / RangeChoice bounds
	RangeMinInput    int     // RangeChoice: which branch input to select when in range
	RangeOutInput    int     // RangeChoice: branch when out of range
	WeirdScaleMapper func(float64) float64
	Spline           *Spline
	structHash       uint64
}

// Graph is the flat, topologically sorted static base graph shared
// immutably across every world using the same terrain preset.
type Graph struct {
	Nodes  []Node
	hashes map[uint64]int // structural-hash -> first node index, for dedup
}

// NewGraph creates an empty graph ready for Add* calls in topological
// order (every input index must already exist).
func NewGraph() *Graph {
	return &Graph{hashes: make(map[uint64]int)}
}

// add appends a node, deduplicating structurally-identical subgraphs by
// content hash (Design Notes: "structural hashing").
func (g *Graph) add(n Node) int {
	h := g.hash(n)
	n.structHash = h
	if existing, ok := g.hashes[h]; ok && nodesEqual(g.Nodes[existing], n) {
		return existing
	}
	idx := len(g.Nodes)
	g.Nodes = append(g.Nodes, n)
	g.hashes[h] = idx
	return idx
}

func nodesEqual(a, b Node) bool {
	return a.Kind == b.Kind && a.Inputs == b.Inputs && a.Const == b.Const &&
		a.NoiseID == b.NoiseID && a.XZScale == b.XZScale && a.YScale == b.YScale &&
		a.Min == b.Min && a.Max == b.Max && a.Spline == b.Spline &&
		a.RangeMinInput == b.RangeMinInput && a.RangeOutInput == b.RangeOutInput &&
		a.WeirdScaleMapper == nil && b.WeirdScaleMapper == nil
}

func (g *Graph) hash(n Node) uint64 {
	d := xxhash.New()
	var buf [8]byte
	writeInt := func(v int64) {
		for i := 0; i < 8; i++ {
			buf[i] = byte(v >> (8 * i))
		}
		d.Write(buf[:])
	}
	writeInt(int64(n.Kind))
	writeInt(int64(n.Inputs[0]))
	writeInt(int64(n.Inputs[1]))
	writeInt(int64(math.Float64bits(n.Const)))
	writeInt(int64(math.Float64bits(n.XZScale)))
	writeInt(int64(math.Float64bits(n.YScale)))
	d.WriteString(n.NoiseID)
	if n.Spline != nil {
		// Splines are compared by identity, not structure: fold the
		// pointer in so two distinct splines never collide in the
		// dedup table even when their other scalar fields match.
		writeInt(int64(uintptr(unsafe.Pointer(n.Spline))))
	}
	return d.Sum64()
}

// Constant adds a constant-value node.
func (g *Graph) Constant(v float64) int { return g.add(Node{Kind: KindConstant, Const: v}) }

// NoiseRef adds a node sampling a named noise parameter set at the given
// horizontal/vertical scale.
func (g *Graph) NoiseRef(id string, xzScale, yScale float64) int {
	return g.add(Node{Kind: KindNoise, NoiseID: id, XZScale: xzScale, YScale: yScale})
}

// Binary adds a two-input arithmetic node (Add/Mul/Min/Max).
func (g *Graph) Binary(kind Kind, a, b int) int {
	return g.add(Node{Kind: kind, Inputs: [2]int{a, b}})
}

// Unary adds a single-input arithmetic node.
func (g *Graph) Unary(kind Kind, a int) int {
	return g.add(Node{Kind: kind, Inputs: [2]int{a, -1}})
}

// Clamp adds a node that clamps its input to [min, max].
func (g *Graph) Clamp(a int, min, max float64) int {
	return g.add(Node{Kind: KindClamp, Inputs: [2]int{a, -1}, Min: min, Max: max})
}

// ClampedYGradient adds the fixed top/bottom fast-path node described in
// spec.md §4.3 ("Bounds early-exit (example)"): below fromY returns
// fromValue, above toY returns toValue, with a linear ramp between.
func (g *Graph) ClampedYGradient(fromY, toY, fromValue, toValue float64) int {
	return g.add(Node{Kind: KindClampedYGradient, Min: fromY, Max: toY, Const: fromValue, XZScale: toValue})
}

// WeirdScaled adds a node that scales its input by a mapper function
// applied to a second, pre-sampled "factor" input.
func (g *Graph) WeirdScaled(factorInput, sourceInput int, mapper func(float64) float64) int {
	return g.add(Node{Kind: KindWeirdScaled, Inputs: [2]int{factorInput, sourceInput}, WeirdScaleMapper: mapper})
}

// RangeChoice adds a node selecting between two branches depending on
// whether its trigger input falls in [min, max).
func (g *Graph) RangeChoice(trigger, inRange, outRange int, min, max float64) int {
	return g.add(Node{Kind: KindRangeChoice, Inputs: [2]int{trigger, -1}, RangeMinInput: inRange,
		RangeOutInput: outRange, Min: min, Max: max})
}

// Wrap adds a caching/interpolating wrapper node around an existing
// subgraph; at Stage 1/2 these are no-op placeholders (spec.md Design
// Notes), materialized into concrete caches only by the Stage 3 builder.
func (g *Graph) Wrap(kind Kind, a int) int {
	return g.add(Node{Kind: kind, Inputs: [2]int{a, -1}})
}

// PeaksAndValleys is the pv(w) transform used by spec.md §8.1 property 8:
// pv(w) = -(||w| - 2/3| - 1/3)·3, matching the reference formula.
func PeaksAndValleys(w float64) float64 {
	return -(math.Abs(math.Abs(w)-2.0/3.0) - 1.0/3.0) * 3.0
}
