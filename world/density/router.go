package density

import (
	"github.com/steelforge/voxelcore/internal/noise"
	"github.com/steelforge/voxelcore/internal/rng"
)

// Router is the canonical terrain density-function router (spec.md
// §9 "canonical router" design note): a single Graph shared immutably
// across a world, paired with the seed-derived noise samplers every
// Noise/ShiftedNoise node in that graph resolves against.
type Router struct {
	Graph        *Graph
	Bounds       []Bounds
	Params       *NoiseParams
	FinalDensity int

	// Named auxiliary outputs the aquifer sampler and surface height
	// estimator read directly (spec.md §4.2 "Aquifer sampler" /
	// §4.3 "Surface height estimator"), each a plain node index into
	// the same static Graph as FinalDensity.
	ErosionNode, DepthNode                             int
	FloodednessNode, FluidSpreadNode, LavaNode, BarrierNode int
}

// CellGeometry names the fixed terrain cell size spec.md §3.9 mandates:
// a 4x8x4 block grid interpolated trilinearly per chunk.
var CellGeometry = struct{ Horizontal, Vertical int }{Horizontal: 4, Vertical: 8}

// NewRouter builds the canonical terrain graph for a world seed:
// continentalness/erosion/ridges double-Perlin fields feeding a
// spline-shaped offset/factor/jaggedness terrain shape, blended with a
// BlendedNoise deep-terrain component and peaks-and-valleys ridges, then
// wrapped in the Cache2D/CellCache/Interpolated hierarchy spec.md §4.3
// describes.
func NewRouter(seed int64) *Router {
	root := rng.NewXoroshiro(seed)

	continentalness := noise.NewDoublePerlin(root.Fork("minecraft:continentalness"), -9,
		[]float64{1, 1, 2, 2, 2, 1, 1, 1, 1})
	erosion := noise.NewDoublePerlin(root.Fork("minecraft:erosion"), -9,
		[]float64{1, 1, 0, 1, 1})
	ridges := noise.NewDoublePerlin(root.Fork("minecraft:ridge"), -7,
		[]float64{1, 2, 1, 1, 1, 1})
	jaggedness := noise.NewDoublePerlin(root.Fork("minecraft:jagged"), -16,
		[]float64{1, 1, 1, 1})
	blended := noise.NewBlendedNoise(root.Fork("minecraft:offset"), noise.BlendedNoiseParams{
		XZScale: 0.25, YScale: 0.125, XZFactor: 80, YFactor: 160, SmearScaleMultiplier: 8,
	})
	floodedness := noise.NewDoublePerlin(root.Fork("minecraft:aquifer_floodedness"), -7, []float64{1, 1})
	fluidSpread := noise.NewDoublePerlin(root.Fork("minecraft:aquifer_fluid_level_spread"), -5, []float64{1})
	lava := noise.NewDoublePerlin(root.Fork("minecraft:aquifer_lava"), -1, []float64{1})
	barrier := noise.NewDoublePerlin(root.Fork("minecraft:aquifer_barrier"), -3, []float64{1})

	params := &NoiseParams{Samplers: map[string]func(x, y, z float64) float64{
		"continentalness": func(x, y, z float64) float64 { return continentalness.Sample(x, 0, z) },
		"erosion":         func(x, y, z float64) float64 { return erosion.Sample(x, 0, z) },
		"ridges":          func(x, y, z float64) float64 { return ridges.Sample(x, 0, z) },
		"jaggedness":      func(x, y, z float64) float64 { return jaggedness.Sample(x, 0, z) },
		"blended":         blended.Sample,
		"floodedness":     func(x, y, z float64) float64 { return floodedness.Sample(x, y, z) },
		"fluid_spread":    func(x, y, z float64) float64 { return fluidSpread.Sample(x, y, z) },
		"lava":            func(x, y, z float64) float64 { return lava.Sample(x, y, z) },
		"barrier":         func(x, y, z float64) float64 { return barrier.Sample(x, y, z) },
	}}

	g := NewGraph()

	contNode := g.NoiseRef("continentalness", 1, 0)
	erosionNode := g.NoiseRef("erosion", 1, 0)
	ridgeNode := g.NoiseRef("ridges", 1, 0)
	jaggedNode := g.NoiseRef("jaggedness", 1, 0)
	blendedNode := g.NoiseRef("blended", 0.25, 0.125)

	offsetSpline := g.add(Node{Kind: KindSpline, Spline: NewSpline(contNode,
		[]float64{-1.2, -0.2, 0.2, 1.0},
		[]float64{-0.5, 0.0, 0.2, 0.9},
		[]float64{0, 0.3, 0.3, 0.1})})
	factorSpline := g.add(Node{Kind: KindSpline, Spline: NewSpline(erosionNode,
		[]float64{-1.0, 0.0, 1.0},
		[]float64{0.4, 1.0, 1.6},
		[]float64{0.2, 0.2, 0.2})})
	jaggednessSpline := g.add(Node{Kind: KindSpline, Spline: NewSpline(jaggedNode,
		[]float64{-1.0, 0.0, 1.0},
		[]float64{0.0, 0.0, 1.0},
		[]float64{0, 0, 0.5})})

	ridgePV := g.Unary(KindPeaksAndValleys, ridgeNode)
	jaggedTerm := g.Binary(KindMul, jaggednessSpline, ridgePV)
	shaped := g.Binary(KindAdd, offsetSpline, jaggedTerm)

	depth := g.Binary(KindAdd, shaped, g.Unary(KindHalfNegative, blendedNode))
	weighted := g.Binary(KindMul, depth, factorSpline)

	yGrad := g.ClampedYGradient(-64, 320, 1.5, -1.5)
	final := g.Binary(KindAdd, weighted, yGrad)
	final = g.Clamp(final, -64, 64)

	cached := g.Wrap(KindWrapCellCache, final)
	interpolated := g.Wrap(KindWrapInterpolated, cached)
	columnCached := g.Wrap(KindWrapCache2D, interpolated)

	floodednessNode := g.NoiseRef("floodedness", 1.0/32, 1.0/32)
	fluidSpreadNode := g.NoiseRef("fluid_spread", 1, 0)
	lavaNode := g.NoiseRef("lava", 1.0/64, 1.0/40)
	barrierNode := g.NoiseRef("barrier", 1, 1.0/2)

	bounds := ComputeBounds(g, map[string]Bounds{
		"continentalness": {-1, 1}, "erosion": {-1, 1}, "ridges": {-1, 1},
		"jaggedness": {-1, 1}, "blended": {-1, 1}, "floodedness": {-1, 1},
		"fluid_spread": {-1, 1}, "lava": {-1, 1}, "barrier": {-1, 1},
	})

	return &Router{
		Graph: g, Bounds: bounds, Params: params, FinalDensity: columnCached,
		ErosionNode: erosionNode, DepthNode: depth,
		FloodednessNode: floodednessNode, FluidSpreadNode: fluidSpreadNode,
		LavaNode: lavaNode, BarrierNode: barrierNode,
	}
}

// ComputeDensity evaluates the canonical final-density node directly
// against the static graph (Stage 1 semantics, bypassing every Stage 3
// wrapper cache), the form spec.md §8.1 property 2 ("density
// determinism") and §8.1 property 8 ("peaks-and-valleys identity")
// check against.
func (r *Router) ComputeDensity(x, y, z int32) float64 {
	pos := CellPos{BlockX: x, BlockY: y, BlockZ: z,
		HorizontalCellBlockCount: CellGeometry.Horizontal, VerticalCellBlockCount: CellGeometry.Vertical}
	stack := NewStack(r.Graph, r.Params, r.Bounds, 0, 0, 0)
	// SkipCellCaches semantics: every Wrap* node falls through to its
	// input directly since pos.Populating is left false.
	return stack.eval(r.FinalDensity, pos)
}

// sampleNode evaluates an arbitrary node directly (Stage 1 semantics),
// shared by ComputeDensity and the named auxiliary accessors below.
func (r *Router) sampleNode(node int, x, y, z int32) float64 {
	pos := CellPos{BlockX: x, BlockY: y, BlockZ: z,
		HorizontalCellBlockCount: CellGeometry.Horizontal, VerticalCellBlockCount: CellGeometry.Vertical}
	stack := NewStack(r.Graph, r.Params, r.Bounds, 0, 0, 0)
	return stack.eval(node, pos)
}

// Erosion samples the erosion noise field at a block position, used by
// the aquifer sampler's deep-dark check (spec.md §4.2).
func (r *Router) Erosion(x, y, z int32) float64 { return r.sampleNode(r.ErosionNode, x, y, z) }

// Depth samples the pre-clamp terrain-shape depth term.
func (r *Router) Depth(x, y, z int32) float64 { return r.sampleNode(r.DepthNode, x, y, z) }

// Floodedness samples the aquifer "is this column flooded" noise.
func (r *Router) Floodedness(x, y, z int32) float64 { return r.sampleNode(r.FloodednessNode, x, y, z) }

// FluidSpread samples the noise-based fluid level spread field.
func (r *Router) FluidSpread(x, y, z int32) float64 { return r.sampleNode(r.FluidSpreadNode, x, y, z) }

// Lava samples the deep-aquifer lava-vs-water noise.
func (r *Router) Lava(x, y, z int32) float64 { return r.sampleNode(r.LavaNode, x, y, z) }

// Barrier samples the water/lava barrier noise.
func (r *Router) Barrier(x, y, z int32) float64 { return r.sampleNode(r.BarrierNode, x, y, z) }

// NewChunkStack builds a Stage 3 stack for a single chunk at the given
// biome-grid origin, ready for the cell scheduler to drive through
// BeginCellRow/BeginColumn/FillCellCache/Sample.
func (r *Router) NewChunkStack(biomeStartX, biomeStartZ int32, horizontalBiomeEnd int) *Stack {
	return NewStack(r.Graph, r.Params, r.Bounds, biomeStartX, biomeStartZ, horizontalBiomeEnd)
}
