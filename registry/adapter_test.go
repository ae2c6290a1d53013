package registry

import (
	"testing"

	"github.com/steelforge/voxelcore/block/fire"
	"github.com/steelforge/voxelcore/world"
	"github.com/steelforge/voxelcore/world/chunk"
	"github.com/steelforge/voxelcore/world/fluid"
)

// regClassifier answers chunk.Classifier purely from registry
// BlockConfig flags, so tests can build real *chunk.Chunk values
// without a second, parallel block-state vocabulary.
type regClassifier struct {
	states *StateTable
}

func (c regClassifier) config(state uint16) BlockConfig {
	bt, ok := c.states.Lookup(StateID(state))
	if !ok {
		return BlockConfig{}
	}
	return bt.Config
}

func (c regClassifier) IsAir(state uint16) bool                 { return c.config(state).IsAir }
func (c regClassifier) IsTickable(state uint16) bool            { return false }
func (c regClassifier) MotionBlocking(state uint16) bool        { return c.config(state).HasCollision }
func (c regClassifier) WorldSurface(state uint16) bool          { return c.config(state).HasCollision }
func (c regClassifier) OceanFloor(state uint16) bool            { return c.config(state).HasCollision }
func (c regClassifier) MotionBlockingNoLeaves(state uint16) bool { return c.config(state).HasCollision }

type fakeChunkSource struct {
	chunks map[world.ChunkPos]*chunk.Chunk
}

func (s *fakeChunkSource) ChunkAt(pos world.ChunkPos) (*chunk.Chunk, bool) {
	c, ok := s.chunks[pos]
	return c, ok
}

func newFakeWorld(t *testing.T, r *Registry, v *VanillaBlocks) *fakeChunkSource {
	t.Helper()
	classifier := regClassifier{states: r.States}
	c := chunk.NewChunk(world.ChunkPos{}, -4, 24, classifier, uint16(v.Air.DefaultState()), 0)
	return &fakeChunkSource{chunks: map[world.ChunkPos]*chunk.Chunk{{}: c}}
}

func TestFireWorldIgniteOddsZeroWhenWaterlogged(t *testing.T) {
	r, v := NewVanilla()
	chunks := newFakeWorld(t, r, v)
	fw := &FireWorld{Registry: r, Chunks: chunks, Fire: v.Fire, Air: v.Air}

	leaves := v.OakLeaves
	// Bool properties default to index 0, which is true, so the default
	// state is waterlogged; clear the flag explicitly for the dry case.
	dryID, ok := leaves.SetValue(leaves.DefaultState(), PropWaterlogged, PropWaterlogged.Index(false))
	if !ok {
		t.Fatal("SetValue(waterlogged=false) failed")
	}
	wetID, ok := leaves.SetValue(dryID, PropWaterlogged, PropWaterlogged.Index(true))
	if !ok {
		t.Fatal("SetValue(waterlogged) failed")
	}

	pos := world.BlockPos{X: 1, Y: 64, Z: 1}
	chunks.chunks[world.ChunkPos{}].SetBlock(pos, uint16(dryID))
	if got := fw.IgniteOdds(pos); got != leaves.Config.IgniteOdds {
		t.Fatalf("dry leaves IgniteOdds = %d, want %d", got, leaves.Config.IgniteOdds)
	}

	chunks.chunks[world.ChunkPos{}].SetBlock(pos, uint16(wetID))
	if got := fw.IgniteOdds(pos); got != 0 {
		t.Fatalf("waterlogged leaves IgniteOdds = %d, want 0", got)
	}
	if got := fw.BurnOdds(pos); got != 0 {
		t.Fatalf("waterlogged leaves BurnOdds = %d, want 0", got)
	}
}

func TestFireWorldSetFireRoundTripsState(t *testing.T) {
	r, v := NewVanilla()
	chunks := newFakeWorld(t, r, v)
	fw := &FireWorld{Registry: r, Chunks: chunks, Fire: v.Fire, Air: v.Air}

	pos := world.BlockPos{X: 0, Y: 70, Z: 0}
	state := fire.State{Age: 9, North: true, East: true}
	fw.SetFire(pos, state)

	id := StateID(chunks.chunks[world.ChunkPos{}].Block(pos))
	if got, _ := v.Fire.GetValue(id, PropAge15); got != PropAge15.Index(9) {
		t.Fatalf("stored age index = %d, want %d", got, PropAge15.Index(9))
	}
	north := NewBoolProperty("north")
	if got, _ := v.Fire.GetValue(id, north); got != boolIndex(true) {
		t.Fatalf("stored north flag index = %d, want %d", got, boolIndex(true))
	}
	south := NewBoolProperty("south")
	if got, _ := v.Fire.GetValue(id, south); got != boolIndex(false) {
		t.Fatalf("stored south flag index = %d, want %d", got, boolIndex(false))
	}

	fw.ClearFire(pos)
	if got := chunks.chunks[world.ChunkPos{}].Block(pos); got != uint16(v.Air.DefaultState()) {
		t.Fatalf("block after ClearFire = %d, want air default state %d", got, v.Air.DefaultState())
	}
}

func TestFluidWorldSetFluidBlockRoundTripsSourceAndFlowing(t *testing.T) {
	r, v := NewVanilla()
	chunks := newFakeWorld(t, r, v)
	fw := &FluidWorld{
		Registry: r, Chunks: chunks,
		Water: v.Water, Lava: v.Lava,
		Air: v.Air, Obsidian: v.Obsidian, Cobblestone: v.Cobblestone,
	}

	pos := world.BlockPos{X: 2, Y: 64, Z: 2}
	source := fluid.Source(fluid.KindWater)
	if !fw.SetFluidBlock(pos, source) {
		t.Fatal("SetFluidBlock(source) returned false")
	}
	if got := fw.FluidStateAt(pos); got != source {
		t.Fatalf("FluidStateAt after source write = %+v, want %+v", got, source)
	}

	flowing := fluid.Flowing(fluid.KindWater, 3, false)
	if !fw.SetFluidBlock(pos, flowing) {
		t.Fatal("SetFluidBlock(flowing) returned false")
	}
	if got := fw.FluidStateAt(pos); got != flowing {
		t.Fatalf("FluidStateAt after flowing write = %+v, want %+v", got, flowing)
	}
}

func TestFluidWorldShapeQueriesFollowBlockConfig(t *testing.T) {
	r, v := NewVanilla()
	chunks := newFakeWorld(t, r, v)
	fw := &FluidWorld{
		Registry: r, Chunks: chunks,
		Water: v.Water, Lava: v.Lava,
		Air: v.Air, Obsidian: v.Obsidian, Cobblestone: v.Cobblestone,
	}

	airPos := world.BlockPos{X: 0, Y: 64, Z: 0}
	stonePos := world.BlockPos{X: 1, Y: 64, Z: 0}
	chunks.chunks[world.ChunkPos{}].SetBlock(stonePos, uint16(v.Stone.DefaultState()))

	if !fw.IsOpen(airPos) {
		t.Error("air should be open")
	}
	if fw.IsOpen(stonePos) {
		t.Error("stone should not be open")
	}
	if !fw.IsSolid(stonePos) {
		t.Error("stone should be solid")
	}
	if fw.IsSolid(airPos) {
		t.Error("air should not be solid")
	}
	if !fw.CanPassThroughWall(airPos, airPos, world.DirectionNorth) {
		t.Error("fluid should pass into open air")
	}
	if fw.CanPassThroughWall(airPos, stonePos, world.DirectionNorth) {
		t.Error("fluid should not pass into solid stone")
	}
}
