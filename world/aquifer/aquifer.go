package aquifer

import (
	"math"

	"github.com/steelforge/voxelcore/internal/rng"
)

// Blocks names the fixed block states the aquifer sampler substitutes.
type Blocks struct {
	Water, Lava, Air BlockState
}

// Sampler decides, for a column whose final density is already known to
// be non-solid at a position, which block (if any) an aquifer places
// there. Apply returns ok=false when the position should fall back to
// the ordinary solid/air decision.
type Sampler interface {
	Apply(x, y, z int32, finalDensity float64) (block BlockState, ok bool)
}

// SeaLevel is the simplest aquifer: no underground pockets, just the
// world's single default fluid level (spec.md §4.2 "sea-level variant").
type SeaLevel struct {
	Level  LevelSampler
	Blocks Blocks
}

// Apply implements Sampler.
func (s SeaLevel) Apply(x, y, z int32, finalDensity float64) (BlockState, bool) {
	if finalDensity > 0 {
		return 0, false
	}
	return s.Level.FluidLevel(x, y, z).GetBlock(y, s.Blocks.Air), true
}

const minHeightCell = math.MinInt32

var chunkPosOffsets = [13][2]int32{
	{0, 0},
	{-2, -1}, {-1, -1}, {0, -1}, {1, -1},
	{-3, 0}, {-2, 0}, {-1, 0}, {1, 0},
	{-2, 1}, {-1, 1}, {0, 1}, {1, 1},
}

func floorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func localXZ(v int32) int32 { return floorDiv(v, 16) }
func localY(v int32) int32  { return floorDiv(v, 12) }

func packedIndex(x, y, z, dimY, dimZ int) int { return (x*dimZ+z)*dimY + y }

func clampedMap(v, oldLo, oldHi, newLo, newHi float64) float64 {
	t := clamp01((v - oldLo) / (oldHi - oldLo))
	return newLo + t*(newHi-newLo)
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

func mapRange(v, oldLo, oldHi, newLo, newHi float64) float64 {
	return newLo + (v-oldLo)*(newHi-newLo)/(oldHi-oldLo)
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// packedPos mirrors pack_block_pos: a BlockPos packed into 64 bits as
// (x:26 | z:26 | y:12), sign-extended on unpack.
func packPos(x, y, z int32) int64 {
	const xBits, yBits, zBits = 26, 12, 26
	const xOff, zOff = yBits + zBits, yBits
	xMask := int64(1)<<xBits - 1
	yMask := int64(1)<<yBits - 1
	zMask := int64(1)<<zBits - 1
	return (int64(x)&xMask)<<xOff | (int64(z)&zMask)<<zOff | (int64(y) & yMask)
}

func unpackPos(packed int64) (x, y, z int32) {
	const xBits, yBits, zBits = 26, 12, 26
	const xOff, zOff = yBits + zBits, yBits
	sx := packed >> xOff
	x = int32(sx << (64 - xBits) >> (64 - xBits))
	yMask := int64(1)<<yBits - 1
	sy := packed & yMask
	y = int32(sy << (64 - yBits) >> (64 - yBits))
	zMask := int64(1)<<zBits - 1
	sz := (packed >> zOff) & zMask
	z = int32(sz << (64 - zBits) >> (64 - zBits))
	return
}

// World is the full underground aquifer sampler: a sparse 4x*x4 grid
// (16 blocks horizontally, 12 vertically) of randomly jittered sample
// points per chunk, blended by 3-nearest-neighbour interpolation with a
// barrier-noise boundary (spec.md §4.2).
type World struct {
	density DensitySampler
	level   LevelSampler
	blocks  Blocks
	height  *SurfaceHeightEstimator

	startX, startY, startZ int32
	sizeY, sizeZ           int

	packedPositions []int64
	levels          []*FluidLevel
}

// NewWorld builds a World aquifer sampler for one chunk, matching
// WorldAquiferSampler::new's packed-position grid: 4 cells in x and z
// around the chunk, and the full world height in 12-block cells.
func NewWorld(density DensitySampler, level LevelSampler, blocks Blocks, height *SurfaceHeightEstimator,
	seed int64, chunkX, chunkZ int32, minimumY int32, worldHeight int32) *World {

	startX := localXZ(chunkX*16) - 1
	startZ := localXZ(chunkZ*16) - 1

	maxY := minimumY + worldHeight
	startY := localY(minimumY) - 1
	endY := localY(maxY) + 1

	sizeX := localXZ(16) + 3
	sizeY := int(endY-startY) + 1
	sizeZ := int(localXZ(16) + 3)

	total := int(sizeX) * sizeY * sizeZ
	packed := make([]int64, total)

	for xc := int32(0); xc < sizeX; xc++ {
		absX := startX + xc
		for zc := int32(0); zc < int32(sizeZ); zc++ {
			absZ := startZ + zc
			for yc := int32(0); yc < int32(sizeY); yc++ {
				absY := startY + yc
				src := rng.NewXoroshiro(seed ^ int64(rng.HashBlockPos(absX, absY, absZ)))
				rx := absX*16 + src.Int32n(10)
				ry := absY*12 + src.Int32n(9)
				rz := absZ*16 + src.Int32n(10)
				idx := packedIndex(int(xc), int(yc), int(zc), sizeY, sizeZ)
				packed[idx] = packPos(rx, ry, rz)
			}
		}
	}

	return &World{
		density: density, level: level, blocks: blocks, height: height,
		startX: startX, startY: startY, startZ: startZ, sizeY: sizeY, sizeZ: sizeZ,
		packedPositions: packed, levels: make([]*FluidLevel, total),
	}
}

func (w *World) randomPositionsFor(x, y, z int32, out *[13]int64) int {
	n := 0
	for _, off := range chunkPosOffsets {
		cellX := x - w.startX + off[0]
		cellZ := z - w.startZ + off[1]
		if cellX < 0 || int(cellX) >= 4 || cellZ < 0 || int(cellZ) >= w.sizeZ {
			continue
		}
		for dy := int32(-1); dy <= 1; dy++ {
			cellY := y - w.startY + dy
			if cellY >= 0 && int(cellY) < w.sizeY {
				idx := packedIndex(int(cellX), int(cellY), int(cellZ), w.sizeY, w.sizeZ)
				out[n] = w.packedPositions[idx]
				n++
				break
			}
		}
	}
	return n
}

func (w *World) waterLevelAt(packed int64) FluidLevel {
	x, y, z := unpackPos(packed)
	cellX := localXZ(x) - w.startX
	cellY := localY(y) - w.startY
	cellZ := localXZ(z) - w.startZ
	if cellX < 0 || int(cellX) >= 4 || cellZ < 0 || int(cellZ) >= w.sizeZ || cellY < 0 || int(cellY) >= w.sizeY {
		return w.computeFluidLevel(x, y, z)
	}
	idx := packedIndex(int(cellX), int(cellY), int(cellZ), w.sizeY, w.sizeZ)
	if w.levels[idx] != nil {
		return *w.levels[idx]
	}
	lvl := w.computeFluidLevel(x, y, z)
	w.levels[idx] = &lvl
	return lvl
}

func (w *World) computeFluidLevel(x, y, z int32) FluidLevel {
	def := w.level.FluidLevel(x, y, z)
	levelY := w.fluidBlockY(x, y, z, def)
	if levelY == minHeightCell {
		return def
	}
	block := w.fluidBlockState(x, y, z, def, levelY)
	return NewFluidLevel(levelY, block)
}

func (w *World) fluidBlockY(x, y, z int32, def FluidLevel) int32 {
	surface := w.height.EstimateHeight(x, z)

	erosion := w.density.Erosion(x, y, z)
	depth := w.density.Depth(x, y, z)
	deepDark := erosion < -0.225 && depth > 0.9

	var d, e float64
	if deepDark {
		d, e = -1, -1
	} else {
		topY := float64(surface + 8 - y)
		f := clampedMap(topY, 0, 64, 1, 0)
		g := clampf(w.density.Floodedness(x, y, z), -1, 1)
		h := mapRange(f, 1, 0, -0.3, 0.8)
		k := mapRange(f, 1, 0, -0.8, 0.4)
		d, e = g-k, g-h
	}

	switch {
	case e > 0:
		return def.MaxYExclusive()
	case d > 0:
		return w.noiseBasedFluidLevel(x, y, z, surface)
	default:
		return minHeightCell
	}
}

func (w *World) noiseBasedFluidLevel(x, y, z, surface int32) int32 {
	gridX := floorDiv(x, 16)
	gridY := floorDiv(y, 40)
	gridZ := floorDiv(z, 16)
	localHeight := gridY*40 + 20

	sample := w.density.FluidSpread(gridX, gridY, gridZ) * 10
	quantized := int32(math.Floor(sample/3)) * 3
	h := quantized + localHeight
	if surface < h {
		return surface
	}
	return h
}

func (w *World) fluidBlockState(x, y, z int32, def FluidLevel, level int32) BlockState {
	if level <= -10 && level != minHeightCell && def.Block != w.blocks.Lava {
		gridX := floorDiv(x, 64)
		gridY := floorDiv(y, 40)
		gridZ := floorDiv(z, 64)
		sample := w.density.Lava(gridX, gridY, gridZ)
		if math.Abs(sample) > 0.3 {
			return w.blocks.Lava
		}
	}
	return def.Block
}

func maxDistance(d1sq, d2sq int32) float64 {
	d1, d2 := d1sq, d2sq
	if d2 > d1 {
		d1 = d2
	}
	return 1 - math.Sqrt(float64(d1))/25
}

func (w *World) calculateDensity(barrier *float64, x, y, z int32, l1, l2 FluidLevel) float64 {
	b1 := l1.GetBlock(y, w.blocks.Air)
	b2 := l2.GetBlock(y, w.blocks.Air)
	if (b1 == w.blocks.Lava && b2 == w.blocks.Water) || (b1 == w.blocks.Water && b2 == w.blocks.Lava) {
		return 2
	}

	levelDiff := l1.MaxYExclusive() - l2.MaxYExclusive()
	if levelDiff < 0 {
		levelDiff = -levelDiff
	}
	if levelDiff == 0 {
		return 0
	}

	avgLevel := 0.5 * float64(l1.MaxYExclusive()+l2.MaxYExclusive())
	scaledLevel := float64(y) + 0.5 - avgLevel
	halvedDiff := float64(levelDiff) / 2

	o := halvedDiff - math.Abs(scaledLevel)
	var q float64
	if scaledLevel > 0 {
		if o > 0 {
			q = o / 1.5
		} else {
			q = o / 2.5
		}
	} else {
		p := 3 + o
		if p > 0 {
			q = p / 3
		} else {
			q = p / 10
		}
	}

	var r float64
	if q >= -2 && q <= 2 {
		if barrier != nil {
			if *barrier == notSampled {
				*barrier = w.density.Barrier(x, y, z)
			}
			r = *barrier
		}
	}
	return 2 * (r + q)
}

// notSampled is a sentinel NaN-free marker meaning "barrier noise not
// yet sampled this call", since 0 is a legitimate barrier value.
const notSampled = math.MaxFloat64

// Apply implements Sampler, matching WorldAquiferSampler::apply: find
// the 3 nearest jittered sample points, blend their fluid levels, and
// decide solid-vs-fluid from the combined density.
func (w *World) Apply(x, y, z int32, finalDensity float64) (BlockState, bool) {
	if finalDensity > 0 {
		return 0, false
	}

	scaledX := localXZ(x - 5)
	scaledY := localY(y + 1)
	scaledZ := localXZ(z - 5)

	var candidates [13]int64
	n := w.randomPositionsFor(scaledX, scaledY, scaledZ, &candidates)

	var nearestPacked [3]int64
	nearestDist := [3]int32{math.MaxInt32, math.MaxInt32, math.MaxInt32}
	for i := 0; i < n; i++ {
		px, py, pz := unpackPos(candidates[i])
		dx, dy, dz := px-x, py-y, pz-z
		distSq := dx*dx + dy*dy + dz*dz
		switch {
		case distSq < nearestDist[0]:
			nearestDist[2], nearestPacked[2] = nearestDist[1], nearestPacked[1]
			nearestDist[1], nearestPacked[1] = nearestDist[0], nearestPacked[0]
			nearestDist[0], nearestPacked[0] = distSq, candidates[i]
		case distSq < nearestDist[1]:
			nearestDist[2], nearestPacked[2] = nearestDist[1], nearestPacked[1]
			nearestDist[1], nearestPacked[1] = distSq, candidates[i]
		case distSq < nearestDist[2]:
			nearestDist[2], nearestPacked[2] = distSq, candidates[i]
		}
	}

	l1 := w.waterLevelAt(nearestPacked[0])
	l2 := w.waterLevelAt(nearestPacked[1])
	l3 := w.waterLevelAt(nearestPacked[2])

	d := maxDistance(nearestDist[0], nearestDist[1])
	block := l1.GetBlock(y, w.blocks.Air)
	if d <= 0 {
		return block, true
	}

	var barrier = notSampled
	e := d * w.calculateDensity(&barrier, x, y, z, l1, l2)
	if finalDensity+e > 0 {
		return 0, false
	}

	if f := maxDistance(nearestDist[0], nearestDist[2]); f > 0 {
		g := d * f * w.calculateDensity(&barrier, x, y, z, l1, l3)
		if finalDensity+g > 0 {
			return 0, false
		}
	}

	if g := maxDistance(nearestDist[1], nearestDist[2]); g > 0 {
		h := d * g * w.calculateDensity(&barrier, x, y, z, l2, l3)
		if finalDensity+h > 0 {
			return 0, false
		}
	}

	return block, true
}
