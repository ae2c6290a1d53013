package light

import (
	"testing"

	"github.com/steelforge/voxelcore/world"
)

// stubAccessor is an all-air world except for a configurable set of
// opaque positions, used to exercise propagation without a real
// chunk/block registry.
type stubAccessor struct {
	opaque map[world.BlockPos]bool
}

func newStubAccessor() *stubAccessor { return &stubAccessor{opaque: make(map[world.BlockPos]bool)} }

func (s *stubAccessor) Opacity(pos world.BlockPos) uint8 {
	if s.opaque[pos] {
		return 15
	}
	return 0
}
func (s *stubAccessor) Emission(world.BlockPos) uint8    { return 0 }
func (s *stubAccessor) IsEmptyShape(world.BlockPos) bool { return false }

func TestBlockIncreaseFloodsOutwardLosingOnePerStep(t *testing.T) {
	acc := newStubAccessor()
	e := NewEngine(acc)
	origin := world.BlockPos{X: 0, Y: 64, Z: 0}

	e.BlockIncrease(origin, 15)

	if got := e.BlockLevel(origin); got != 15 {
		t.Fatalf("origin level = %d, want 15", got)
	}
	one := world.BlockPos{X: 1, Y: 64, Z: 0}
	if got := e.BlockLevel(one); got != 14 {
		t.Fatalf("level one step away = %d, want 14", got)
	}
	five := world.BlockPos{X: 5, Y: 64, Z: 0}
	if got := e.BlockLevel(five); got != 10 {
		t.Fatalf("level five steps away = %d, want 10", got)
	}
	farAway := world.BlockPos{X: 15, Y: 64, Z: 0}
	if got := e.BlockLevel(farAway); got != 0 {
		t.Fatalf("level fifteen steps away = %d, want 0 (light exhausted)", got)
	}
}

func TestBlockIncreaseStopsAtOpaqueBlock(t *testing.T) {
	acc := newStubAccessor()
	// Light bends around a lone opaque block, so build a wall at x=2
	// wider than level-15 light can travel around.
	for y := int32(64 - 15); y <= 64+15; y++ {
		for z := int32(-15); z <= 15; z++ {
			acc.opaque[world.BlockPos{X: 2, Y: y, Z: z}] = true
		}
	}
	e := NewEngine(acc)

	e.BlockIncrease(world.BlockPos{X: 0, Y: 64, Z: 0}, 15)

	beyond := world.BlockPos{X: 3, Y: 64, Z: 0}
	if got := e.BlockLevel(beyond); got != 0 {
		t.Fatalf("light should not pass an opaque block, got %d", got)
	}
}

func TestBlockDecreaseClearsAndDoesNotLeaveStaleLight(t *testing.T) {
	acc := newStubAccessor()
	e := NewEngine(acc)
	origin := world.BlockPos{X: 0, Y: 64, Z: 0}
	e.BlockIncrease(origin, 15)

	e.BlockDecrease(origin, 15)

	if got := e.BlockLevel(origin); got != 0 {
		t.Fatalf("origin level after decrease = %d, want 0", got)
	}
	one := world.BlockPos{X: 1, Y: 64, Z: 0}
	if got := e.BlockLevel(one); got != 0 {
		t.Fatalf("level one step away after decrease = %d, want 0", got)
	}
}

func TestBlockDecreaseRefillsFromSurvivingSource(t *testing.T) {
	acc := newStubAccessor()
	e := NewEngine(acc)
	a := world.BlockPos{X: 0, Y: 64, Z: 0}
	b := world.BlockPos{X: 10, Y: 64, Z: 0}

	e.BlockIncrease(a, 15)
	e.BlockIncrease(b, 15)

	mid := world.BlockPos{X: 5, Y: 64, Z: 0}
	levelBefore := e.BlockLevel(mid)
	if levelBefore == 0 {
		t.Fatal("midpoint should be lit by one of the two sources")
	}

	e.BlockDecrease(a, 15)

	if got := e.BlockLevel(mid); got != levelBefore {
		t.Fatalf("midpoint light after removing the other source = %d, want unchanged %d", got, levelBefore)
	}
}

func TestSeedSkyColumnStopsAtRoof(t *testing.T) {
	acc := newStubAccessor()
	// Sky light spreading sideways would wrap around a lone roof block,
	// so the roof spans further than level-15 light can travel.
	for x := int32(-15); x <= 15; x++ {
		for z := int32(-15); z <= 15; z++ {
			acc.opaque[world.BlockPos{X: x, Y: 60, Z: z}] = true
		}
	}
	e := NewEngine(acc)

	e.SeedSkyColumn(0, 0, 70, 50)

	if got := e.SkyLevel(world.BlockPos{X: 0, Y: 70, Z: 0}); got != 15 {
		t.Fatalf("sky level at top = %d, want 15", got)
	}
	if got := e.SkyLevel(world.BlockPos{X: 0, Y: 61, Z: 0}); got != 15 {
		t.Fatalf("sky level just above roof = %d, want 15", got)
	}
	if got := e.SkyLevel(world.BlockPos{X: 0, Y: 59, Z: 0}); got != 0 {
		t.Fatalf("sky level below roof = %d, want 0", got)
	}
}

func TestConsumeChangedSectionsClearsMask(t *testing.T) {
	acc := newStubAccessor()
	e := NewEngine(acc)
	e.BlockIncrease(world.BlockPos{X: 0, Y: 64, Z: 0}, 10)

	chunkPos := (world.BlockPos{X: 0, Y: 64, Z: 0}).ChunkPos()
	_, block := e.ConsumeChangedSections(chunkPos)
	if block == 0 {
		t.Fatal("expected the block-light section bit to be marked changed")
	}
	_, block2 := e.ConsumeChangedSections(chunkPos)
	if block2 != 0 {
		t.Fatal("mask should be cleared after consuming")
	}
}
