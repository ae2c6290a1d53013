package fluid

import (
	"math/rand/v2"
	"testing"

	"github.com/steelforge/voxelcore/world"
)

// fakeWorld is a minimal in-memory world used only to exercise the
// fluid engine's control flow; blocks are just "open" (air) unless
// marked solid, and fluids live in a sparse map keyed by position.
type fakeWorld struct {
	fluids             map[world.BlockPos]State
	solid              map[world.BlockPos]bool
	closedToFluid      map[world.BlockPos]bool
	special            map[world.BlockPos]SpecialBlock
	scheduled          []world.BlockPos
	fizzCount          int
	waterSourceConvert bool
	lavaSourceConvert  bool
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		fluids:        map[world.BlockPos]State{},
		solid:         map[world.BlockPos]bool{},
		closedToFluid: map[world.BlockPos]bool{},
		special:       map[world.BlockPos]SpecialBlock{},
	}
}

func (w *fakeWorld) FluidStateAt(pos world.BlockPos) State { return w.fluids[pos] }

func (w *fakeWorld) IsOpen(pos world.BlockPos) bool {
	if w.solid[pos] {
		return false
	}
	return w.fluids[pos].IsEmpty()
}

func (w *fakeWorld) IsSolid(pos world.BlockPos) bool { return w.solid[pos] }

func (w *fakeWorld) CanHoldFluid(pos world.BlockPos) bool { return !w.closedToFluid[pos] }

func (w *fakeWorld) CanPassThroughWall(from, to world.BlockPos, dir world.Direction) bool {
	return !w.solid[to]
}

func (w *fakeWorld) SetFluidBlock(pos world.BlockPos, state State) bool {
	if w.solid[pos] {
		return false
	}
	w.fluids[pos] = state
	return true
}

func (w *fakeWorld) SetBlock(pos world.BlockPos, block SpecialBlock) {
	delete(w.fluids, pos)
	w.special[pos] = block
}

func (w *fakeWorld) ScheduleFluidTick(pos world.BlockPos, currentTick uint64, delay uint32) {
	w.scheduled = append(w.scheduled, pos)
}

func (w *fakeWorld) SourceConversionEnabled(kind Kind) bool {
	if kind == KindWater {
		return w.waterSourceConvert
	}
	return w.lavaSourceConvert
}

func (w *fakeWorld) PlayFizz(pos world.BlockPos) { w.fizzCount++ }

func (w *fakeWorld) PlayAmbient(pos world.BlockPos, kind Kind) {}

func TestNewLiquidFallingUnderSource(t *testing.T) {
	w := newFakeWorld()
	pos := world.BlockPos{X: 0, Y: 64, Z: 0}
	w.fluids[pos.Offset(0, 1, 0)] = Source(KindWater)

	got := NewLiquid(w, pos, KindWater, 1)
	if !got.Falling || got.Level != 8 {
		t.Fatalf("NewLiquid under a source = %+v, want falling level 8", got)
	}
}

func TestNewLiquidDrainsWithNoNeighbors(t *testing.T) {
	w := newFakeWorld()
	pos := world.BlockPos{X: 0, Y: 64, Z: 0}
	got := NewLiquid(w, pos, KindWater, 1)
	if !got.IsEmpty() {
		t.Fatalf("NewLiquid with no neighbors = %+v, want empty", got)
	}
}

func TestNewLiquidTakesStrongestNeighborMinusDropOff(t *testing.T) {
	w := newFakeWorld()
	pos := world.BlockPos{X: 0, Y: 64, Z: 0}
	w.fluids[world.DirectionNorth.Relative(pos)] = Source(KindWater) // amount 8
	w.fluids[world.DirectionSouth.Relative(pos)] = Flowing(KindWater, 6, false) // amount 2

	got := NewLiquid(w, pos, KindWater, 1)
	if got.IsEmpty() || got.Level != 1 { // 8-1=7 amount -> level 8-7=1
		t.Fatalf("NewLiquid = %+v, want level 1 (from the source neighbor)", got)
	}
}

func TestNewLiquidRegeneratesSourceBetweenTwoSourcesOverSolidFloor(t *testing.T) {
	w := newFakeWorld()
	w.waterSourceConvert = true
	pos := world.BlockPos{X: 1, Y: 64, Z: 0}
	w.fluids[world.DirectionNorth.Relative(pos)] = Source(KindWater)
	w.fluids[world.DirectionSouth.Relative(pos)] = Source(KindWater)
	w.solid[pos.Offset(0, -1, 0)] = true

	got := NewLiquid(w, pos, KindWater, 1)
	if !got.IsSource() {
		t.Fatalf("NewLiquid between two sources over a solid floor = %+v, want source", got)
	}
}

func TestNewLiquidSkipsSourceRegenWhenGameRuleDisabled(t *testing.T) {
	w := newFakeWorld()
	w.waterSourceConvert = false
	pos := world.BlockPos{X: 1, Y: 64, Z: 0}
	w.fluids[world.DirectionNorth.Relative(pos)] = Source(KindWater)
	w.fluids[world.DirectionSouth.Relative(pos)] = Source(KindWater)
	w.solid[pos.Offset(0, -1, 0)] = true

	got := NewLiquid(w, pos, KindWater, 1)
	if got.IsSource() {
		t.Fatalf("source regenerated despite the game rule being off: %+v", got)
	}
}

func TestTickDrainsUnsupportedFlowingWaterToAir(t *testing.T) {
	w := newFakeWorld()
	pos := world.BlockPos{X: 0, Y: 64, Z: 0}
	w.fluids[pos] = Flowing(KindWater, 3, false)
	rng := rand.New(rand.NewPCG(1, 2))

	Tick(w, rng, Water{}, pos, 0)

	if _, stillFluid := w.fluids[pos]; stillFluid {
		t.Fatalf("unsupported flowing water should have drained, still present: %+v", w.fluids[pos])
	}
	if w.special[pos] != SpecialAir {
		t.Fatalf("expected the cell to be set to air, got %v", w.special[pos])
	}
}

func TestTickSpreadsSourceDownIntoOpenSpace(t *testing.T) {
	w := newFakeWorld()
	pos := world.BlockPos{X: 0, Y: 64, Z: 0}
	w.fluids[pos] = Source(KindWater)
	rng := rand.New(rand.NewPCG(1, 2))

	Tick(w, rng, Water{}, pos, 0)

	below := pos.Offset(0, -1, 0)
	got := w.fluids[below]
	if got.IsEmpty() || got.Kind != KindWater {
		t.Fatalf("expected water to spread down into %v, got %+v", below, got)
	}
	if !got.Falling {
		t.Fatalf("water spreading straight down should be falling, got %+v", got)
	}
}

func TestLavaMeetingWaterProducesObsidianAndFizz(t *testing.T) {
	w := newFakeWorld()
	lavaPos := world.BlockPos{X: 0, Y: 64, Z: 0}
	waterPos := lavaPos.Offset(0, -1, 0)
	w.fluids[lavaPos] = Source(KindLava)
	w.fluids[waterPos] = Source(KindWater)
	rng := rand.New(rand.NewPCG(1, 2))

	Tick(w, rng, Lava{}, lavaPos, 0)

	if w.special[waterPos] != SpecialObsidian {
		t.Fatalf("lava source meeting water below should produce obsidian, got %v", w.special[waterPos])
	}
	if w.fizzCount != 1 {
		t.Fatalf("expected exactly one fizz event, got %d", w.fizzCount)
	}
}

func TestLavaMeetingWaterFromFlowingProducesCobblestone(t *testing.T) {
	w := newFakeWorld()
	lavaPos := world.BlockPos{X: 0, Y: 64, Z: 0}
	waterPos := lavaPos.Offset(0, -1, 0)
	// A source neighbor keeps this flowing cell alive at level 2 when
	// Tick recomputes it, instead of draining away before it ever
	// reaches the water below.
	w.fluids[lavaPos] = Flowing(KindLava, 2, false)
	w.fluids[world.DirectionNorth.Relative(lavaPos)] = Source(KindLava)
	w.fluids[waterPos] = Source(KindWater)
	rng := rand.New(rand.NewPCG(1, 2))

	Tick(w, rng, Lava{}, lavaPos, 0)

	if w.special[waterPos] != SpecialCobblestone {
		t.Fatalf("flowing lava meeting water below should produce cobblestone, got %v", w.special[waterPos])
	}
}

func TestSpreadToSidesDoesNotOverwriteStrongerSameFluid(t *testing.T) {
	w := newFakeWorld()
	pos := world.BlockPos{X: 0, Y: 64, Z: 0}
	// Block the downward path so spread goes sideways.
	w.solid[pos.Offset(0, -1, 0)] = true
	target := world.DirectionNorth.Relative(pos)
	w.fluids[target] = Flowing(KindWater, 1, false) // amount 7, stronger than any fresh spread

	Spread(w, Water{}, pos, Source(KindWater), 0)

	if got := w.fluids[target]; got.Level != 1 {
		t.Fatalf("stronger existing flowing water should not be overwritten, got %+v", got)
	}
}
