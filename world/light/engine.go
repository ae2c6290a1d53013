package light

import (
	"sync/atomic"

	"github.com/steelforge/voxelcore/world"
)

// Accessor answers the block-shape questions the propagation passes
// need: how much light a block blocks (opacity) and emits (light
// sources), and whether its collision shape is empty (full light
// passes straight through instead of losing a level).
type Accessor interface {
	Opacity(pos world.BlockPos) uint8
	Emission(pos world.BlockPos) uint8
	IsEmptyShape(pos world.BlockPos) bool
}

// chunkLight is the light state for one loaded chunk column: one
// SectionArray per populated 16-block Y section, for each of sky and
// block light, plus a changed-since-last-broadcast bitmask per kind
// (bit SectionBit(i) set ⇒ section i changed) so the chunk sender can emit
// incremental light updates instead of resending everything.
type chunkLight struct {
	sky, block   map[int32]*SectionArray
	skyChanged   atomic.Uint32
	blockChanged atomic.Uint32
}

func newChunkLight() *chunkLight {
	return &chunkLight{sky: make(map[int32]*SectionArray), block: make(map[int32]*SectionArray)}
}

func (c *chunkLight) section(m map[int32]*SectionArray, sectionY int32) *SectionArray {
	s, ok := m[sectionY]
	if !ok {
		s = &SectionArray{}
		m[sectionY] = s
	}
	return s
}

// Engine is the per-world light coordinator: it owns every loaded
// chunk's sky/block light sections and runs the BFS increase/decrease
// propagation passes over them.
type Engine struct {
	accessor Accessor
	chunks   map[world.ChunkPos]*chunkLight
}

// NewEngine builds a light engine backed by accessor.
func NewEngine(accessor Accessor) *Engine {
	return &Engine{accessor: accessor, chunks: make(map[world.ChunkPos]*chunkLight)}
}

func (e *Engine) chunkAt(pos world.ChunkPos) *chunkLight {
	c, ok := e.chunks[pos]
	if !ok {
		c = newChunkLight()
		e.chunks[pos] = c
	}
	return c
}

// UnloadChunk drops a chunk's light state when it unloads.
func (e *Engine) UnloadChunk(pos world.ChunkPos) { delete(e.chunks, pos) }

func sectionLocal(pos world.BlockPos) (sectionY int32, x, y, z int) {
	sectionY = pos.Y >> 4
	x = int(((pos.X % 16) + 16) % 16)
	y = int(((pos.Y % 16) + 16) % 16)
	z = int(((pos.Z % 16) + 16) % 16)
	return
}

// BlockLevel returns the stored block-light level at pos.
func (e *Engine) BlockLevel(pos world.BlockPos) uint8 {
	c := e.chunkAt(pos.ChunkPos())
	sectionY, x, y, z := sectionLocal(pos)
	return c.section(c.block, sectionY).Get(x, y, z)
}

// SkyLevel returns the stored sky-light level at pos.
func (e *Engine) SkyLevel(pos world.BlockPos) uint8 {
	c := e.chunkAt(pos.ChunkPos())
	sectionY, x, y, z := sectionLocal(pos)
	return c.section(c.sky, sectionY).Get(x, y, z)
}

func (e *Engine) setBlockLevel(pos world.BlockPos, level uint8) {
	c := e.chunkAt(pos.ChunkPos())
	sectionY, x, y, z := sectionLocal(pos)
	c.section(c.block, sectionY).Set(x, y, z, level)
	markChanged(&c.blockChanged, blockmaskBit(sectionY))
}

func (e *Engine) setSkyLevel(pos world.BlockPos, level uint8) {
	c := e.chunkAt(pos.ChunkPos())
	sectionY, x, y, z := sectionLocal(pos)
	c.section(c.sky, sectionY).Set(x, y, z, level)
	markChanged(&c.skyChanged, blockmaskBit(sectionY))
}

// markChanged sets bit in mask, retrying under concurrent writers.
func markChanged(mask *atomic.Uint32, bit uint32) {
	for {
		old := mask.Load()
		updated := old | (1 << bit)
		if updated == old || mask.CompareAndSwap(old, updated) {
			return
		}
	}
}

// blockmaskBit maps a (possibly negative) section Y index into a
// 0-31 bit position for the changed-section bitmask: the section Y
// plus a fixed bias of 32, wrapped mod 32 (every section Y below -32
// maps to bit 0).
func blockmaskBit(sectionY int32) uint32 {
	return SectionBit(sectionY)
}

// SectionBit is the exported form of blockmaskBit, for callers outside
// this package (a chunk sender reading back which sections a
// ConsumeChangedSections mask refers to) that need the same section Y
// -> bit mapping used when the mask was set.
func SectionBit(sectionY int32) uint32 {
	biased := sectionY + 32
	if biased < 0 {
		biased = 0
	}
	return uint32(biased) % 32
}

// ConsumeChangedSections returns and clears the changed-section
// bitmasks for pos, for the chunk sender to build an incremental
// CLightUpdate packet from.
func (e *Engine) ConsumeChangedSections(pos world.ChunkPos) (sky, block uint32) {
	c := e.chunkAt(pos)
	return c.skyChanged.Swap(0), c.blockChanged.Swap(0)
}

// SectionBytes returns the packed nibble array for one section's sky
// or block light, for a chunk sender to attach to a flagged bit in the
// mask ConsumeChangedSections returned.
func (e *Engine) SectionBytes(pos world.ChunkPos, sectionY int32, sky bool) []byte {
	c := e.chunkAt(pos)
	if sky {
		return c.section(c.sky, sectionY).Bytes()
	}
	return c.section(c.block, sectionY).Bytes()
}

// work is one pending BFS step: a position to propagate out from and
// the queue entry describing how.
type work struct {
	pos   world.BlockPos
	entry QueueEntry
}

// propagateIncrease runs the increase BFS from the seed, using get to
// read a stored level and set to write one. Opacity and emptiness
// come from the engine's Accessor.
func (e *Engine) propagateIncrease(seed world.BlockPos, entry QueueEntry, get func(world.BlockPos) uint8, set func(world.BlockPos, uint8)) {
	set(seed, entry.Level())
	queue := []work{{pos: seed, entry: entry}}
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		for _, dir := range world.Directions {
			if !item.entry.ShouldPropagate(dir) {
				continue
			}
			npos := dir.Relative(item.pos)
			opacity := e.accessor.Opacity(npos)
			if opacity >= 15 {
				continue
			}
			loss := uint8(1)
			if item.entry.IsFromEmptyShape() {
				loss = 0
			}
			if opacity > loss {
				loss = opacity
			}
			if item.entry.Level() <= loss {
				continue
			}
			newLevel := item.entry.Level() - loss
			if newLevel <= get(npos) {
				continue
			}
			set(npos, newLevel)
			nextEntry := IncreaseSkipOneDirection(newLevel, e.accessor.IsEmptyShape(npos), dir.Opposite())
			queue = append(queue, work{pos: npos, entry: nextEntry})
		}
	}
}

// propagateDecrease runs the two-phase decrease BFS: it clears every
// position whose light was solely explained by the removed level,
// tracking the frontier of neighbors whose own (possibly
// independently-sourced) light survives, then re-propagates increase
// from each survivor so the cleared area refills correctly.
func (e *Engine) propagateDecrease(seed world.BlockPos, oldLevel uint8, get func(world.BlockPos) uint8, set func(world.BlockPos, uint8), increase func(world.BlockPos, uint8)) {
	set(seed, 0)
	queue := []work{{pos: seed, entry: DecreaseAllDirections(oldLevel)}}
	var refill []world.BlockPos

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		for _, dir := range world.Directions {
			if !item.entry.ShouldPropagate(dir) {
				continue
			}
			npos := dir.Relative(item.pos)
			cur := get(npos)
			if cur == 0 {
				continue
			}
			if cur < item.entry.Level() {
				set(npos, 0)
				queue = append(queue, work{pos: npos, entry: DecreaseSkipOneDirection(cur, dir.Opposite())})
			} else {
				refill = append(refill, npos)
			}
		}
	}

	for _, pos := range refill {
		increase(pos, get(pos))
	}
}

// BlockIncrease raises the block light at pos to level, flooding
// outward through neighbors that would be brighter as a result.
func (e *Engine) BlockIncrease(pos world.BlockPos, level uint8) {
	entry := IncreaseFromEmission(level, e.accessor.IsEmptyShape(pos))
	e.propagateIncrease(pos, entry, e.BlockLevel, e.setBlockLevel)
}

// BlockDecrease removes a block light source of oldLevel at pos,
// clearing and refilling the affected region.
func (e *Engine) BlockDecrease(pos world.BlockPos, oldLevel uint8) {
	e.propagateDecrease(pos, oldLevel, e.BlockLevel, e.setBlockLevel, e.BlockIncrease)
}

// SkyIncrease raises the sky light at pos, flooding outward.
func (e *Engine) SkyIncrease(pos world.BlockPos, level uint8) {
	entry := IncreaseFromEmission(level, e.accessor.IsEmptyShape(pos))
	e.propagateIncrease(pos, entry, e.SkyLevel, e.setSkyLevel)
}

// SkyDecrease removes sky light of oldLevel at pos (e.g. a block was
// placed blocking the sky), clearing and refilling.
func (e *Engine) SkyDecrease(pos world.BlockPos, oldLevel uint8) {
	e.propagateDecrease(pos, oldLevel, e.SkyLevel, e.setSkyLevel, e.SkyIncrease)
}

// SeedSkyColumn drops level-15 sky light straight down from topY
// until it hits an opaque block, flooding sideways at every open step
// along the way (spec.md §4.7: "sky light is always level 15 at the
// column top and propagates downward unimpeded through air, losing 1
// per side step").
func (e *Engine) SeedSkyColumn(x, z, topY, bottomY int32) {
	for y := topY; y >= bottomY; y-- {
		pos := world.BlockPos{X: x, Y: y, Z: z}
		if e.accessor.Opacity(pos) > 0 {
			return
		}
		e.setSkyLevel(pos, 15)
		entry := IncreaseSkySourceInDirections(y > bottomY, true, true, true, true)
		e.propagateIncrease(pos, entry, e.SkyLevel, e.setSkyLevel)
	}
}
