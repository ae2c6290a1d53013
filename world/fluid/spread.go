package fluid

import (
	"math/rand/v2"

	"github.com/steelforge/voxelcore/world"
)

// NewLiquid recomputes the fluid state pos should settle into from its
// four horizontal neighbors and the block above, for a flowing (not
// source) cell. A source directly above always produces a falling
// column; two-or-more source neighbors over a solid floor (or another
// source of either fluid, matching a quirk in the reference
// implementation) regenerate a source when the relevant game rule
// allows it; otherwise the strongest incoming neighbor level minus
// dropOff determines the new level, or the cell drains to empty.
func NewLiquid(w World, pos world.BlockPos, kind Kind, dropOff uint8) State {
	above := w.FluidStateAt(pos.Offset(0, 1, 0))
	if above.Kind == kind {
		return Flowing(kind, 8, true)
	}

	var maxIncoming uint8
	sourceNeighbors := 0
	for _, dir := range world.HorizontalDirections {
		n := w.FluidStateAt(dir.Relative(pos))
		if n.Kind != kind {
			continue
		}
		if n.IsSource() {
			sourceNeighbors++
		}
		if incoming := satSub(n.Amount(), dropOff); incoming > maxIncoming {
			maxIncoming = incoming
		}
	}

	if sourceNeighbors >= 2 && w.SourceConversionEnabled(kind) {
		below := pos.Offset(0, -1, 0)
		belowFluid := w.FluidStateAt(below)
		if w.IsSolid(below) || belowFluid.IsSource() {
			return Source(kind)
		}
	}

	if maxIncoming == 0 {
		return State{}
	}
	return Flowing(kind, satSub(8, maxIncoming), false)
}

// Tick runs one scheduled fluid tick at pos: recompute and possibly
// shrink/drain a non-source cell, then spread outward using the state
// the cell had before this tick (spec.md §4.5 steps 1-4). A cell that
// drains, weakens, or turns into a water source stops before spreading.
func Tick(w World, rng *rand.Rand, b Behavior, pos world.BlockPos, currentTick uint64) {
	kind := b.Kind()
	current := w.FluidStateAt(pos)
	if current.IsEmpty() || current.Kind != kind {
		return
	}
	b.AnimateTick(w, pos, current, rng)

	if !current.IsSource() {
		next := NewLiquid(w, pos, kind, b.DropOff())
		if next.IsEmpty() {
			w.SetBlock(pos, SpecialAir)
			return
		}
		if next != current {
			w.SetFluidBlock(pos, next)
			if kind == KindWater && next.IsSource() {
				for _, dir := range world.HorizontalDirections {
					w.ScheduleFluidTick(dir.Relative(pos), currentTick, b.TickDelay())
				}
				return
			}
			if next.Amount() < current.Amount() {
				w.ScheduleFluidTick(pos, currentTick, b.TickDelay())
				return
			}
		}
	}

	// Spread against the pre-tick state, matching the reference
	// implementation's reuse of the stale local rather than the
	// just-recomputed one.
	Spread(w, b, pos, current, currentTick)
}

// Spread pushes a source or flowing cell outward: a successful
// downward drop takes priority, with sideways spread alongside it only
// once 3+ source neighbors are already feeding the cell; otherwise it
// spreads sideways whenever it's a source or the ground below isn't an
// open drop.
func Spread(w World, b Behavior, pos world.BlockPos, state State, currentTick uint64) {
	if state.IsEmpty() {
		return
	}
	kind := b.Kind()

	if spreadDown(w, b, pos, state, currentTick) {
		if sourceNeighborCount(w, kind, pos) >= 3 {
			spreadToSides(w, b, pos, state, currentTick)
		}
		return
	}

	if state.IsSource() || !isHole(w, kind, pos) {
		spreadToSides(w, b, pos, state, currentTick)
	}
}

// canSpreadDown reports whether the cell directly below pos is open to
// receiving this fluid: empty/replaceable, or already the same,
// non-source fluid.
func canSpreadDown(w World, kind Kind, pos world.BlockPos) bool {
	below := pos.Offset(0, -1, 0)
	if w.IsOpen(below) {
		return true
	}
	f := w.FluidStateAt(below)
	return f.Kind == kind && !f.IsSource()
}

// isHole is the same openness test, named for its use deciding whether
// a non-source cell should still bother spreading sideways once its
// downward drop has failed.
func isHole(w World, kind Kind, pos world.BlockPos) bool {
	return canSpreadDown(w, kind, pos)
}

func sourceNeighborCount(w World, kind Kind, pos world.BlockPos) int {
	n := 0
	for _, dir := range world.HorizontalDirections {
		f := w.FluidStateAt(dir.Relative(pos))
		if f.Kind == kind && f.IsSource() {
			n++
		}
	}
	return n
}

// spreadDown attempts to extend the fluid one block down, or to
// trigger a lava/water contact conversion if lava finds water waiting
// there. Reports whether the downward cell ended up filled (by either
// path), which gates the "spread sideways too" check above.
func spreadDown(w World, b Behavior, pos world.BlockPos, state State, currentTick uint64) bool {
	kind := b.Kind()
	below := pos.Offset(0, -1, 0)

	if kind == KindLava {
		if belowFluid := w.FluidStateAt(below); belowFluid.Kind == KindWater {
			convertOnContact(w, state.IsSource(), below)
			return true
		}
	}

	if !canSpreadDown(w, kind, pos) {
		return false
	}
	next := NewLiquid(w, below, kind, b.DropOff())
	if next.IsEmpty() {
		return false
	}
	if !w.SetFluidBlock(below, next) {
		return false
	}
	w.ScheduleFluidTick(below, currentTick, b.TickDelay())
	return true
}

// spreadToSides pushes the fluid into its horizontal spread targets
// (chosen by getSpread), converting on contact with the opposite fluid
// and otherwise only overwriting cells that are empty, a weaker amount
// of the same fluid, or explicitly replaceable per the behavior.
func spreadToSides(w World, b Behavior, pos world.BlockPos, state State, currentTick uint64) {
	kind := b.Kind()
	var newAmount uint8
	if state.Falling {
		newAmount = 7
	} else {
		newAmount = satSub(state.Amount(), 1)
	}
	if newAmount == 0 {
		return
	}
	next := Flowing(kind, satSub(8, newAmount), false)

	targets := getSpread(w, pos, kind, b.SlopeFindDistance())
	for dir, ok := range targets {
		if !ok {
			continue
		}
		neighbor := dir.Relative(pos)
		if !w.CanHoldFluid(neighbor) {
			continue
		}
		existing := w.FluidStateAt(neighbor)

		if existing.Kind == kind.other() && !existing.IsEmpty() {
			lavaIsSource := state.IsSource()
			if kind == KindWater {
				lavaIsSource = existing.IsSource()
			}
			convertOnContact(w, lavaIsSource, neighbor)
			continue
		}
		if !existing.IsEmpty() {
			if existing.Kind == kind {
				if existing.Amount() >= next.Amount() {
					continue
				}
			} else if !b.CanBeReplacedWith(existing, kind, dir) {
				continue
			}
		}
		if w.SetFluidBlock(neighbor, next) {
			w.ScheduleFluidTick(neighbor, currentTick, b.TickDelay())
		}
	}
}

func convertOnContact(w World, lavaIsSource bool, pos world.BlockPos) {
	if lavaIsSource {
		w.SetBlock(pos, SpecialObsidian)
	} else {
		w.SetBlock(pos, SpecialCobblestone)
	}
	w.PlayFizz(pos)
}

// getSpread decides which of the four horizontal directions a cell
// should spread into this tick. There's no live reference
// implementation for this search (only its call sites survive); it's
// reconstructed here as a depth-limited search for the shortest path,
// through fluid-passable neighbors, to a one-block drop: directions
// reaching a drop within range win outright, and only when none do does
// the fluid fall back to spreading into every direction it can pass
// through at all.
func getSpread(w World, pos world.BlockPos, kind Kind, slopeFindDistance uint8) map[world.Direction]bool {
	reachable := map[world.Direction]bool{}
	distance := map[world.Direction]int{}
	for _, dir := range world.HorizontalDirections {
		n := dir.Relative(pos)
		if !w.CanPassThroughWall(pos, n, dir) {
			continue
		}
		reachable[dir] = true
		distance[dir] = holeDistance(w, kind, n, dir, int(slopeFindDistance))
	}

	best := -1
	for _, d := range distance {
		if d >= 0 && (best < 0 || d < best) {
			best = d
		}
	}

	targets := make(map[world.Direction]bool, len(reachable))
	for dir := range reachable {
		if best >= 0 {
			targets[dir] = distance[dir] == best
		} else {
			targets[dir] = true
		}
	}
	return targets
}

// holeDistance is the recursive search behind getSpread: the fewest
// steps from pos, moving only through cells this fluid could occupy,
// to reach a cell with an open drop beneath it. Returns -1 if none is
// found within remaining steps.
func holeDistance(w World, kind Kind, pos world.BlockPos, cameFrom world.Direction, remaining int) int {
	if !openForFluid(w, kind, pos) {
		return -1
	}
	if canSpreadDown(w, kind, pos) {
		return 0
	}
	if remaining == 0 {
		return -1
	}

	best := -1
	for _, dir := range world.HorizontalDirections {
		if dir == cameFrom.Opposite() {
			continue
		}
		n := dir.Relative(pos)
		if !w.CanPassThroughWall(pos, n, dir) {
			continue
		}
		if d := holeDistance(w, kind, n, dir, remaining-1); d >= 0 && (best < 0 || d+1 < best) {
			best = d + 1
		}
	}
	return best
}

func openForFluid(w World, kind Kind, pos world.BlockPos) bool {
	if w.IsOpen(pos) {
		return true
	}
	f := w.FluidStateAt(pos)
	return f.Kind == kind && !f.IsSource()
}
