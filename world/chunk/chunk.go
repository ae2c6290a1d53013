package chunk

import (
	"sync/atomic"

	"github.com/steelforge/voxelcore/world"
	"github.com/steelforge/voxelcore/world/ticks"
)

// BlockEntity is the NBT-backed extra state attached to one block
// position (chests, hoppers, signs, ...).
type BlockEntity struct {
	Pos  world.BlockPos
	Type int32
	Data map[string]any
}

// HeightmapKind enumerates the four heightmaps every chunk tracks
// (spec.md §3.3).
type HeightmapKind uint8

const (
	HeightmapMotionBlocking HeightmapKind = iota
	HeightmapWorldSurface
	HeightmapOceanFloor
	HeightmapMotionBlockingNoLeaves
	heightmapCount
)

// Classifier answers the block-state predicates a chunk needs for its
// derived bookkeeping (counts, heightmaps) without depending on the
// block registry, the same decoupling used by the aquifer sampler,
// fire, and light engine.
type Classifier interface {
	IsAir(state uint16) bool
	IsTickable(state uint16) bool
	MotionBlocking(state uint16) bool
	WorldSurface(state uint16) bool
	OceanFloor(state uint16) bool
	MotionBlockingNoLeaves(state uint16) bool
}

// Chunk is a vertical stack of sections plus the per-column and
// per-chunk state that lives outside them (spec.md §3.3).
type Chunk struct {
	pos         world.ChunkPos
	minSectionY int32
	sections    []*Section
	classifier  Classifier

	defaultBlock uint16

	heightmaps [heightmapCount][sectionSize * sectionSize]int32

	blockEntities map[world.BlockPos]BlockEntity

	// BlockTicks and FluidTicks hold this chunk's scheduled block and
	// fluid ticks respectively (spec.md §3.3: "Two LevelChunkTicks<T>:
	// one keyed by block ref ..., one by fluid ref").
	BlockTicks *ticks.LevelChunkTicks[uint16]
	FluidTicks *ticks.LevelChunkTicks[uint16]

	skyChangedSections   atomic.Uint32
	blockChangedSections atomic.Uint32
}

// NewChunk builds an empty chunk of sectionCount sections, the lowest
// one starting at Y = minSectionY*16, filled with defaultBlock and
// defaultBiome.
func NewChunk(pos world.ChunkPos, minSectionY int32, sectionCount int, classifier Classifier, defaultBlock, defaultBiome uint16) *Chunk {
	c := &Chunk{
		pos:           pos,
		minSectionY:   minSectionY,
		sections:      make([]*Section, sectionCount),
		classifier:    classifier,
		defaultBlock:  defaultBlock,
		blockEntities: make(map[world.BlockPos]BlockEntity),
		BlockTicks:    ticks.NewLevelChunkTicks[uint16](),
		FluidTicks:    ticks.NewLevelChunkTicks[uint16](),
	}
	for i := range c.sections {
		c.sections[i] = NewSection(defaultBlock, defaultBiome)
	}
	baseY := minSectionY * sectionSize
	for k := range c.heightmaps {
		for i := range c.heightmaps[k] {
			c.heightmaps[k][i] = baseY
		}
	}
	return c
}

// Pos returns the chunk's column position.
func (c *Chunk) Pos() world.ChunkPos { return c.pos }

// SectionCount returns how many vertical sections this chunk has.
func (c *Chunk) SectionCount() int { return len(c.sections) }

// Section returns the section at the given index (0 = lowest).
func (c *Chunk) Section(index int) *Section { return c.sections[index] }

func (c *Chunk) sectionIndex(y int32) int { return int(y>>4) - int(c.minSectionY) }

func localCoord(v int32) int { return int(((v % sectionSize) + sectionSize) % sectionSize) }

func (c *Chunk) localY(y int32) int { return int(((y % sectionSize) + sectionSize) % sectionSize) }

// blockAtLocal reads a block by its local column coordinates (0..15)
// and absolute Y, avoiding the need to reconstruct an absolute
// BlockPos when walking a single column (as the heightmap recompute
// does).
func (c *Chunk) blockAtLocal(lx int, y int32, lz int) uint16 {
	idx := c.sectionIndex(y)
	if idx < 0 || idx >= len(c.sections) {
		return c.defaultBlock
	}
	return c.sections[idx].Block(lx, c.localY(y), lz)
}

// Block returns the block-state id at pos.
func (c *Chunk) Block(pos world.BlockPos) uint16 {
	return c.blockAtLocal(localCoord(pos.X), pos.Y, localCoord(pos.Z))
}

// SetBlock writes state at pos, updating the owning section's derived
// counts and every heightmap whose top is affected.
func (c *Chunk) SetBlock(pos world.BlockPos, state uint16) {
	idx := c.sectionIndex(pos.Y)
	if idx < 0 || idx >= len(c.sections) {
		return
	}
	x, y, z := localCoord(pos.X), c.localY(pos.Y), localCoord(pos.Z)
	sec := c.sections[idx]
	old := sec.Block(x, y, z)
	if old == state {
		return
	}
	sec.setBlock(x, y, z, state)

	airBefore, airAfter := c.classifier.IsAir(old), c.classifier.IsAir(state)
	if airBefore && !airAfter {
		sec.nonEmptyCount++
	} else if !airBefore && airAfter {
		sec.nonEmptyCount--
	}
	tickBefore, tickAfter := c.classifier.IsTickable(old), c.classifier.IsTickable(state)
	if tickBefore && !tickAfter {
		sec.tickableCount--
	} else if !tickBefore && tickAfter {
		sec.tickableCount++
	}

	c.updateHeightmaps(localCoord(pos.X), pos.Y, localCoord(pos.Z), state)
}

// Biome returns the biome ref covering pos (biome cells are 4 blocks
// wide).
func (c *Chunk) Biome(pos world.BlockPos) uint16 {
	idx := c.sectionIndex(pos.Y)
	if idx < 0 || idx >= len(c.sections) {
		return 0
	}
	return c.sections[idx].Biome(localCoord(pos.X)/4, c.localY(pos.Y)/4, localCoord(pos.Z)/4)
}

// SetBiome writes the biome ref covering pos.
func (c *Chunk) SetBiome(pos world.BlockPos, biome uint16) {
	idx := c.sectionIndex(pos.Y)
	if idx < 0 || idx >= len(c.sections) {
		return
	}
	c.sections[idx].SetBiome(localCoord(pos.X)/4, c.localY(pos.Y)/4, localCoord(pos.Z)/4, biome)
}

func (c *Chunk) predicates() [heightmapCount]func(uint16) bool {
	return [heightmapCount]func(uint16) bool{
		c.classifier.MotionBlocking,
		c.classifier.WorldSurface,
		c.classifier.OceanFloor,
		c.classifier.MotionBlockingNoLeaves,
	}
}

// updateHeightmaps keeps every heightmap's (x,z) column equal to
// top+1 of the highest block satisfying that heightmap's predicate,
// either raising it immediately or, if the changed block was the
// previous top, rescanning downward for the new one.
func (c *Chunk) updateHeightmaps(lx int, y int32, lz int, state uint16) {
	col := lz*sectionSize + lx
	preds := c.predicates()
	for k, predicate := range preds {
		hm := &c.heightmaps[k]
		if predicate(state) {
			if y+1 > hm[col] {
				hm[col] = y + 1
			}
			continue
		}
		if y+1 == hm[col] {
			hm[col] = c.recomputeColumn(lx, lz, predicate, y-1)
		}
	}
}

func (c *Chunk) recomputeColumn(lx, lz int, predicate func(uint16) bool, fromY int32) int32 {
	minY := c.minSectionY * sectionSize
	for y := fromY; y >= minY; y-- {
		if predicate(c.blockAtLocal(lx, y, lz)) {
			return y + 1
		}
	}
	return minY
}

// Heightmap returns the stored height (top+1 of the highest block
// satisfying kind's predicate) at local column (lx, lz).
func (c *Chunk) Heightmap(kind HeightmapKind, lx, lz int) int32 {
	return c.heightmaps[kind][lz*sectionSize+lx]
}

// BlockEntityAt returns the block entity at pos, if any.
func (c *Chunk) BlockEntityAt(pos world.BlockPos) (BlockEntity, bool) {
	be, ok := c.blockEntities[pos]
	return be, ok
}

// SetBlockEntity stores (or replaces) a block entity.
func (c *Chunk) SetBlockEntity(be BlockEntity) { c.blockEntities[be.Pos] = be }

// RemoveBlockEntity deletes the block entity at pos, if any.
func (c *Chunk) RemoveBlockEntity(pos world.BlockPos) { delete(c.blockEntities, pos) }

// BlockEntities returns the chunk's full block-entity map.
func (c *Chunk) BlockEntities() map[world.BlockPos]BlockEntity { return c.blockEntities }

// MarkBlockLightChanged flags sectionIndex's block-light array as
// changed since the last broadcast.
func (c *Chunk) MarkBlockLightChanged(sectionIndex int) {
	markSectionChanged(&c.blockChangedSections, uint32(sectionIndex)%32)
}

// MarkSkyLightChanged flags sectionIndex's sky-light array as changed
// since the last broadcast.
func (c *Chunk) MarkSkyLightChanged(sectionIndex int) {
	markSectionChanged(&c.skyChangedSections, uint32(sectionIndex)%32)
}

// ConsumeChangedSections returns and clears the sky/block
// changed-section bitmasks, for the chunk sender to build an
// incremental CLightUpdate from.
func (c *Chunk) ConsumeChangedSections() (sky, block uint32) {
	return c.skyChangedSections.Swap(0), c.blockChangedSections.Swap(0)
}

// markSectionChanged sets bit in mask, retrying under concurrent
// writers (the same compare-and-swap pattern world/light uses for its
// own per-chunk changed-section masks).
func markSectionChanged(mask *atomic.Uint32, bit uint32) {
	for {
		old := mask.Load()
		updated := old | (1 << bit)
		if updated == old || mask.CompareAndSwap(old, updated) {
			return
		}
	}
}
