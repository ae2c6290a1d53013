package density

import "math"

// NoiseParams resolves a named noise parameter set referenced by
// KindNoise/KindShiftedNoise/KindInterpolatedNoiseSampler nodes to a
// concrete sampler. It is built once per world seed (Stage 2) and
// shared read-only across every chunk stack built from it (Stage 3).
type NoiseParams struct {
	Samplers map[string]func(x, y, z float64) float64
}

// cache2DState mirrors the reference Cache2D: a single (column, value)
// memo keyed by the packed xz column, invalidated whenever a different
// column is sampled (chunk_density_function.rs Cache2D).
type cache2DState struct {
	lastColumn uint64
	lastValue  float64
}

const columnMarker = ^uint64(0)

func packedColumn(x, z int32) uint64 {
	return (uint64(uint32(x)) & 0xFFFFFFFF) | (uint64(uint32(z))&0xFFFFFFFF)<<32
}

// cacheOnceState mirrors the reference CacheOnce: either a dense
// per-fill-pass array keyed by a fill-pass id, or a single last-sample
// memo keyed by a result-pass id, whichever the caller is using.
type cacheOnceState struct {
	resultID   uint64
	fillID     uint64
	lastValue  float64
	filled     []float64
}

// cellCacheState mirrors the reference CellCache: a dense array of one
// value per block position inside the current cell, indexed by the
// same (y, x, z) formula the reference uses.
type cellCacheState struct {
	values []float64
}

// interpolatorState mirrors the reference DensityInterpolator: two
// (vertical+1)x(horizontal+1) corner buffers (the "start" and "end" YZ
// planes of the current cell column) plus the 8/4/2/1-element
// progressive lerp passes used while sweeping a cell.
type interpolatorState struct {
	startBuf, endBuf       []float64
	firstPass              [8]float64
	secondPass             [4]float64
	thirdPass              [2]float64
	result                 float64
	verticalCellCount      int
	horizontalCellCount    int
}

func (d *interpolatorState) yzIndex(y, z int) int { return z*(d.verticalCellCount+1) + y }

func (d *interpolatorState) onSampledCellCorners(y, z int) {
	d.firstPass[0] = d.startBuf[d.yzIndex(y, z)]
	d.firstPass[1] = d.startBuf[d.yzIndex(y, z+1)]
	d.firstPass[4] = d.endBuf[d.yzIndex(y, z)]
	d.firstPass[5] = d.endBuf[d.yzIndex(y, z+1)]
	d.firstPass[2] = d.startBuf[d.yzIndex(y+1, z)]
	d.firstPass[3] = d.startBuf[d.yzIndex(y+1, z+1)]
	d.firstPass[6] = d.endBuf[d.yzIndex(y+1, z)]
	d.firstPass[7] = d.endBuf[d.yzIndex(y+1, z+1)]
}

func (d *interpolatorState) swapBuffers() { d.startBuf, d.endBuf = d.endBuf, d.startBuf }

// CellPos is the cell-relative sample coordinate the Stage 3 cell
// scheduler hands to wrapper nodes while filling a chunk, equivalent to
// WrapperData in chunk_density_function.rs.
type CellPos struct {
	BlockX, BlockY, BlockZ int32 // absolute block coordinates

	CellXBlock, CellYBlock, CellZBlock int // position within the current cell, in blocks
	HorizontalCellBlockCount           int
	VerticalCellBlockCount             int

	XDelta, YDelta, ZDelta float64 // fractional position within the cell, [0,1)

	// Populating is true while the cell scheduler is filling corner/edge
	// caches; false during the final per-block fill pass that reads them
	// back out via interpolation.
	Populating bool
	FillIndex  int
}

// NewCellPos derives CellX/Y/ZBlock and the deltas from an absolute
// block position and the cell geometry, matching WrapperData::new.
func NewCellPos(x, y, z int32, horizCellBlocks, vertCellBlocks int) CellPos {
	p := CellPos{BlockX: x, BlockY: y, BlockZ: z,
		HorizontalCellBlockCount: horizCellBlocks, VerticalCellBlockCount: vertCellBlocks}
	p.updatePosition(x, y, z)
	return p
}

func (p *CellPos) updatePosition(x, y, z int32) {
	p.BlockX, p.BlockY, p.BlockZ = x, y, z
	p.CellXBlock = int(mod(x, int32(p.HorizontalCellBlockCount)))
	p.CellYBlock = int(mod(y, int32(p.VerticalCellBlockCount)))
	p.CellZBlock = int(mod(z, int32(p.HorizontalCellBlockCount)))
	p.XDelta = float64(p.CellXBlock) / float64(p.HorizontalCellBlockCount)
	p.YDelta = float64(p.CellYBlock) / float64(p.VerticalCellBlockCount)
	p.ZDelta = float64(p.CellZBlock) / float64(p.HorizontalCellBlockCount)
}

func mod(v, m int32) int32 {
	r := v % m
	if r < 0 {
		r += m
	}
	return r
}

// Stack is a chunk-bound evaluation of the static Graph: Stage 3.
// It owns one wrapper-cache state slot per Wrap* node and is built
// fresh for each chunk being generated.
type Stack struct {
	graph  *Graph
	params *NoiseParams
	bounds []Bounds

	cache2D    map[int]*cache2DState
	cacheOnce  map[int]*cacheOnceState
	cellCache  map[int]*cellCacheState
	interp     map[int]*interpolatorState
	flatCache  map[int]*flatCacheState

	biomeStartX, biomeStartZ int32
	horizontalBiomeEnd       int

	resultPassID, fillPassID uint64
}

type flatCacheState struct {
	values []float64
}

// NewStack builds a Stage 3 evaluator bound to a single chunk, from the
// Stage 1 graph and Stage 2 bounds.
func NewStack(g *Graph, params *NoiseParams, bounds []Bounds, biomeStartX, biomeStartZ int32, horizontalBiomeEnd int) *Stack {
	return &Stack{
		graph: g, params: params, bounds: bounds,
		cache2D: make(map[int]*cache2DState), cacheOnce: make(map[int]*cacheOnceState),
		cellCache: make(map[int]*cellCacheState), interp: make(map[int]*interpolatorState),
		flatCache:          make(map[int]*flatCacheState),
		biomeStartX:        biomeStartX,
		biomeStartZ:        biomeStartZ,
		horizontalBiomeEnd: horizontalBiomeEnd,
	}
}

// BeginCellRow advances the fill-pass id, invalidating every CacheOnce
// node's per-fill memo; called once per horizontal cell row swept by
// the chunk cell scheduler (spec.md §4.3 "Cell scheduler").
func (s *Stack) BeginCellRow() { s.fillPassID++ }

// BeginColumn advances the result-pass id, invalidating every CacheOnce
// node's single-sample memo; called once per sampled column.
func (s *Stack) BeginColumn() { s.resultPassID++ }

// Sample evaluates node root at the given cell-relative position.
func (s *Stack) Sample(root int, pos CellPos) float64 {
	return s.eval(root, pos)
}

func (s *Stack) eval(idx int, pos CellPos) float64 {
	n := s.graph.Nodes[idx]
	switch n.Kind {
	case KindConstant:
		return n.Const
	case KindNoise, KindShiftedNoise, KindInterpolatedNoiseSampler:
		fn, ok := s.params.Samplers[n.NoiseID]
		if !ok {
			return 0
		}
		x := float64(pos.BlockX) * n.XZScale
		y := float64(pos.BlockY) * n.YScale
		z := float64(pos.BlockZ) * n.XZScale
		return fn(x, y, z)
	case KindAdd:
		return s.eval(n.Inputs[0], pos) + s.eval(n.Inputs[1], pos)
	case KindMul:
		return s.eval(n.Inputs[0], pos) * s.eval(n.Inputs[1], pos)
	case KindMin:
		return math.Min(s.eval(n.Inputs[0], pos), s.eval(n.Inputs[1], pos))
	case KindMax:
		return math.Max(s.eval(n.Inputs[0], pos), s.eval(n.Inputs[1], pos))
	case KindAbs:
		return math.Abs(s.eval(n.Inputs[0], pos))
	case KindSquare:
		v := s.eval(n.Inputs[0], pos)
		return v * v
	case KindCube:
		v := s.eval(n.Inputs[0], pos)
		return v * v * v
	case KindHalfNegative:
		return minHalfNeg(s.eval(n.Inputs[0], pos))
	case KindQuarterNegative:
		return minQuarterNeg(s.eval(n.Inputs[0], pos))
	case KindSqueeze:
		return squeeze(s.eval(n.Inputs[0], pos))
	case KindClamp:
		v := s.eval(n.Inputs[0], pos)
		return math.Max(n.Min, math.Min(n.Max, v))
	case KindRangeChoice:
		trigger := s.eval(n.Inputs[0], pos)
		if trigger >= n.Min && trigger < n.Max {
			return s.eval(n.RangeMinInput, pos)
		}
		return s.eval(n.RangeOutInput, pos)
	case KindWeirdScaled:
		factor := s.eval(n.Inputs[0], pos)
		src := s.eval(n.Inputs[1], pos)
		return n.WeirdScaleMapper(factor) * src
	case KindClampedYGradient:
		return clampedYGradient(float64(pos.BlockY), n.Min, n.Max, n.Const, n.XZScale)
	case KindPeaksAndValleys:
		return PeaksAndValleys(s.eval(n.Inputs[0], pos))
	case KindSpline:
		loc := s.eval(n.Spline.Input, pos)
		return n.Spline.Sample(loc)
	case KindWrapCache2D:
		return s.sampleCache2D(idx, n, pos)
	case KindWrapCacheFlat:
		return s.sampleFlatCache(idx, n, pos)
	case KindWrapCacheOnce:
		return s.sampleCacheOnce(idx, n, pos)
	case KindWrapCellCache:
		return s.sampleCellCache(idx, n, pos)
	case KindWrapInterpolated:
		return s.sampleInterpolator(idx, n, pos)
	case KindEndIslands, KindBlendAlpha, KindBlendOffset, KindBeardifier:
		return 0
	case KindBlendDensity:
		return s.eval(n.Inputs[0], pos)
	default:
		return 0
	}
}

// clampedYGradient implements the fast top/bottom linear ramp described
// in spec.md §4.3's bounds early-exit example.
func clampedYGradient(y, fromY, toY, fromValue, toValue float64) float64 {
	if y <= fromY {
		return fromValue
	}
	if y >= toY {
		return toValue
	}
	t := (y - fromY) / (toY - fromY)
	return fromValue + t*(toValue-fromValue)
}

func (s *Stack) sampleCache2D(idx int, n Node, pos CellPos) float64 {
	st, ok := s.cache2D[idx]
	if !ok {
		st = &cache2DState{lastColumn: columnMarker}
		s.cache2D[idx] = st
	}
	col := packedColumn(pos.BlockX, pos.BlockZ)
	if col == st.lastColumn {
		return st.lastValue
	}
	v := s.eval(n.Inputs[0], pos)
	st.lastColumn = col
	st.lastValue = v
	return v
}

func (s *Stack) sampleFlatCache(idx int, n Node, pos CellPos) float64 {
	st, ok := s.flatCache[idx]
	if !ok {
		side := s.horizontalBiomeEnd + 1
		st = &flatCacheState{values: make([]float64, side*side)}
		s.flatCache[idx] = st
	}
	biomeX := pos.BlockX >> 2
	biomeZ := pos.BlockZ >> 2
	rx := biomeX - s.biomeStartX
	rz := biomeZ - s.biomeStartZ
	if rx >= 0 && rz >= 0 && int(rx) <= s.horizontalBiomeEnd && int(rz) <= s.horizontalBiomeEnd {
		i := int(rx)*(s.horizontalBiomeEnd+1) + int(rz)
		return st.values[i]
	}
	return s.eval(n.Inputs[0], pos)
}

// FillFlatCache precomputes every biome-grid cell of a FlatCache node up
// front, matching vanilla generating the biome density field once per
// chunk before block/surface generation reads from it.
func (s *Stack) FillFlatCache(idx int, sampleAt func(bx, bz int32) CellPos) {
	n := s.graph.Nodes[idx]
	side := s.horizontalBiomeEnd + 1
	st := &flatCacheState{values: make([]float64, side*side)}
	for x := 0; x <= s.horizontalBiomeEnd; x++ {
		for z := 0; z <= s.horizontalBiomeEnd; z++ {
			pos := sampleAt((s.biomeStartX+int32(x))<<2, (s.biomeStartZ+int32(z))<<2)
			st.values[x*side+z] = s.eval(n.Inputs[0], pos)
		}
	}
	s.flatCache[idx] = st
}

func (s *Stack) sampleCacheOnce(idx int, n Node, pos CellPos) float64 {
	st, ok := s.cacheOnce[idx]
	if !ok {
		st = &cacheOnceState{}
		s.cacheOnce[idx] = st
	}
	if !pos.Populating {
		return s.eval(n.Inputs[0], pos)
	}
	if st.fillID == s.fillPassID && st.filled != nil && pos.FillIndex < len(st.filled) {
		return st.filled[pos.FillIndex]
	}
	if st.resultID == s.resultPassID {
		return st.lastValue
	}
	v := s.eval(n.Inputs[0], pos)
	st.resultID = s.resultPassID
	st.lastValue = v
	return v
}

func (s *Stack) sampleCellCache(idx int, n Node, pos CellPos) float64 {
	st, ok := s.cellCache[idx]
	if !ok {
		count := pos.HorizontalCellBlockCount * pos.HorizontalCellBlockCount * pos.VerticalCellBlockCount
		st = &cellCacheState{values: make([]float64, count)}
		s.cellCache[idx] = st
	}
	if !pos.Populating {
		return s.eval(n.Inputs[0], pos)
	}
	i := ((pos.VerticalCellBlockCount-1-pos.CellYBlock)*pos.HorizontalCellBlockCount+pos.CellXBlock)*pos.HorizontalCellBlockCount + pos.CellZBlock
	if i >= 0 && i < len(st.values) {
		return st.values[i]
	}
	return s.eval(n.Inputs[0], pos)
}

// FillCellCache densely evaluates every block position of the current
// cell into a CellCache node's backing array, matching CellCache's
// construction-time fill in the reference cell scheduler.
func (s *Stack) FillCellCache(idx int, base CellPos) {
	n := s.graph.Nodes[idx]
	count := base.HorizontalCellBlockCount * base.HorizontalCellBlockCount * base.VerticalCellBlockCount
	st := &cellCacheState{values: make([]float64, count)}
	for cy := 0; cy < base.VerticalCellBlockCount; cy++ {
		for cx := 0; cx < base.HorizontalCellBlockCount; cx++ {
			for cz := 0; cz < base.HorizontalCellBlockCount; cz++ {
				p := base
				p.CellXBlock, p.CellYBlock, p.CellZBlock = cx, cy, cz
				p.BlockX = base.BlockX - int32(base.CellXBlock) + int32(cx)
				p.BlockY = base.BlockY - int32(base.CellYBlock) + int32(cy)
				p.BlockZ = base.BlockZ - int32(base.CellZBlock) + int32(cz)
				i := ((base.VerticalCellBlockCount-1-cy)*base.HorizontalCellBlockCount+cx)*base.HorizontalCellBlockCount + cz
				st.values[i] = s.eval(n.Inputs[0], p)
			}
		}
	}
	s.cellCache[idx] = st
}

func (s *Stack) sampleInterpolator(idx int, n Node, pos CellPos) float64 {
	st, ok := s.interp[idx]
	if !ok {
		st = &interpolatorState{verticalCellCount: pos.VerticalCellBlockCount, horizontalCellCount: pos.HorizontalCellBlockCount}
		s.interp[idx] = st
	}
	if !pos.Populating {
		return s.eval(n.Inputs[0], pos)
	}
	return lerp3(pos.XDelta, pos.YDelta, pos.ZDelta,
		st.firstPass[0], st.firstPass[4], st.firstPass[2], st.firstPass[6],
		st.firstPass[1], st.firstPass[5], st.firstPass[3], st.firstPass[7])
}

// Interpolator returns the DensityInterpolator state for node idx,
// allocating its corner buffers from the given cell geometry if this is
// the first time it's touched. The cell scheduler drives this directly
// to fill corner/edge values before the per-block fill pass runs.
func (s *Stack) Interpolator(idx int, horizontalCellCount, verticalCellCount int) *interpolatorState {
	st, ok := s.interp[idx]
	if !ok || len(st.startBuf) == 0 {
		size := (verticalCellCount + 1) * (horizontalCellCount + 1)
		st = &interpolatorState{
			startBuf: make([]float64, size), endBuf: make([]float64, size),
			verticalCellCount: verticalCellCount, horizontalCellCount: horizontalCellCount,
		}
		s.interp[idx] = st
	}
	return st
}

// SampleCorner evaluates node idx's input subgraph at a cell corner and
// writes it into the interpolator's end buffer at (cellY, cellZ),
// matching the reference's per-corner fill step.
func (s *Stack) SampleCorner(idx int, st *interpolatorState, cellY, cellZ int, pos CellPos) {
	n := s.graph.Nodes[idx]
	v := s.eval(n.Inputs[0], pos)
	st.endBuf[st.yzIndex(cellY, cellZ)] = v
}

// AdvanceCellColumn swaps an interpolator's start/end buffers once a
// full YZ plane of corners has been sampled, matching
// DensityInterpolator::swap_buffers.
func (s *Stack) AdvanceCellColumn(idx int) {
	if st, ok := s.interp[idx]; ok {
		st.swapBuffers()
	}
}

// OnSampledCellCorners loads the 8 corner values of the cell at
// (cellY, cellZ) from an interpolator's start/end buffers into its
// first lerp pass, matching DensityInterpolator::on_sampled_cell_corners.
func (s *Stack) OnSampledCellCorners(idx, cellY, cellZ int) {
	if st, ok := s.interp[idx]; ok {
		st.onSampledCellCorners(cellY, cellZ)
	}
}

func lerp3(dx, dy, dz, v000, v100, v010, v110, v001, v101, v011, v111 float64) float64 {
	x00 := lerp(dx, v000, v100)
	x10 := lerp(dx, v010, v110)
	x01 := lerp(dx, v001, v101)
	x11 := lerp(dx, v011, v111)
	y0 := lerp(dy, x00, x10)
	y1 := lerp(dy, x01, x11)
	return lerp(dz, y0, y1)
}
