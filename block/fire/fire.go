// Package fire implements the fire block's scheduled-tick state
// machine: aging, neighbour burn-out and spread into nearby
// flammable air pockets (spec.md "Fire block state machine").
//
// Fire is decoupled from the block registry (not yet built): instead
// of operating on opaque block-state IDs it works with a small
// NeighborQuery/World interface the caller implements on top of
// whatever registry and world transaction types exist, the same way
// the aquifer sampler and surface-height estimator were decoupled
// from it.
package fire

import (
	"math/rand/v2"

	"github.com/steelforge/voxelcore/world"
)

// fireTickDelayMin and fireTickDelayRange bound the random delay
// (30-39 ticks) before a fire block's next scheduled tick.
const (
	fireTickDelayMin   = 30
	fireTickDelayRange = 10
)

// State is a fire block's mutable state: how long it's burned, and
// which adjacent faces it visually licks based on nearby flammable
// blocks.
type State struct {
	Age                          uint8
	North, South, East, West, Up bool
}

// NeighborQuery answers the questions fire needs about the blocks
// around it.
type NeighborQuery interface {
	// FaceSturdy reports whether the block at pos presents a sturdy
	// face in direction face (used to test for a solid floor).
	FaceSturdy(pos world.BlockPos, face world.Direction) bool
	// IgniteOdds returns the ignite odds of the block at pos, or 0 if
	// it never ignites (including when it's waterlogged).
	IgniteOdds(pos world.BlockPos) uint8
	// BurnOdds returns the burn-out odds of the block at pos, or 0 if
	// it never burns away (including when it's waterlogged).
	BurnOdds(pos world.BlockPos) uint8
	// IsAir reports whether pos holds air.
	IsAir(pos world.BlockPos) bool
}

// World is the subset of the world transaction fire needs to act:
// neighbor queries plus the ability to place/clear fire, schedule its
// own next tick, and play its extinguish sound.
type World interface {
	NeighborQuery
	SetFire(pos world.BlockPos, state State)
	ClearFire(pos world.BlockPos)
	ScheduleTick(pos world.BlockPos, delay uint32)
	PlayExtinguishSound(pos world.BlockPos)
}

// CanBurn reports whether the block at pos can catch fire.
func CanBurn(w NeighborQuery, pos world.BlockPos) bool {
	return w.IgniteOdds(pos) > 0
}

// IsValidFireLocation reports whether any of the six blocks adjacent
// to pos is flammable.
func IsValidFireLocation(w NeighborQuery, pos world.BlockPos) bool {
	for _, d := range world.Directions {
		if CanBurn(w, d.Relative(pos)) {
			return true
		}
	}
	return false
}

// CanSurvive reports whether fire can persist at pos: either the
// block below is a sturdy floor, or an adjacent block is flammable.
func CanSurvive(w NeighborQuery, pos world.BlockPos) bool {
	below := world.DirectionDown.Relative(pos)
	return w.FaceSturdy(below, world.DirectionUp) || IsValidFireLocation(w, pos)
}

// igniteOddsAt returns the highest ignite odds among the blocks
// adjacent to pos, or 0 if pos itself isn't air (fire only spreads
// into empty space).
func igniteOddsAt(w NeighborQuery, pos world.BlockPos) uint8 {
	if !w.IsAir(pos) {
		return 0
	}
	var max uint8
	for _, d := range world.Directions {
		if odds := w.IgniteOdds(d.Relative(pos)); odds > max {
			max = odds
		}
	}
	return max
}

// StateFor computes the fire state's directional flags for pos: a
// solid floor below yields plain floor fire (no flags at all),
// otherwise each flag reflects whether the matching neighbor is
// flammable.
func StateFor(w NeighborQuery, pos world.BlockPos) State {
	below := world.DirectionDown.Relative(pos)
	if w.FaceSturdy(below, world.DirectionUp) {
		return State{}
	}
	return State{
		North: CanBurn(w, world.DirectionNorth.Relative(pos)),
		South: CanBurn(w, world.DirectionSouth.Relative(pos)),
		West:  CanBurn(w, world.DirectionWest.Relative(pos)),
		East:  CanBurn(w, world.DirectionEast.Relative(pos)),
		Up:    CanBurn(w, world.DirectionUp.Relative(pos)),
	}
}

// tickDelay returns a random 30-39 tick delay for the next scheduled
// tick.
func tickDelay(rnd *rand.Rand) uint32 {
	return fireTickDelayMin + uint32(rnd.IntN(fireTickDelayRange))
}

// OnPlace schedules fire's first tick after it's placed.
func OnPlace(w World, rnd *rand.Rand, pos world.BlockPos) {
	w.ScheduleTick(pos, tickDelay(rnd))
}

// PlayerWillDestroy plays the extinguish sound in place of the usual
// block-break sound.
func PlayerWillDestroy(w World, pos world.BlockPos) {
	w.PlayExtinguishSound(pos)
}

// checkBurnOut rolls whether the block at pos burns away: with
// probability burnOdds/chance it either ages into fire or is
// destroyed outright, biased toward destruction as the source fire
// ages.
func checkBurnOut(w World, rnd *rand.Rand, pos world.BlockPos, chance uint32, age uint8) {
	burnOdds := uint32(w.BurnOdds(pos))
	if uint32(rnd.IntN(int(chance))) >= burnOdds {
		return
	}
	if uint32(rnd.IntN(int(age)+10)) < 5 {
		state := StateFor(w, pos)
		state.Age = bumpAge(age, rnd)
		w.SetFire(pos, state)
	} else {
		w.ClearFire(pos)
	}
}

// bumpAge nudges age up by 0 or 1 (rarely 1: rnd%5/4), clamped to 15.
func bumpAge(age uint8, rnd *rand.Rand) uint8 {
	next := age + uint8(rnd.IntN(5))/4
	if next > 15 {
		return 15
	}
	return next
}

// difficultyIgniteBonus scales spread odds by world difficulty
// (0=peaceful .. 3=hard).
func difficultyIgniteBonus(difficulty int) uint32 { return uint32(difficulty) * 7 }

// ScheduledTick runs one fire tick: reschedules itself, ages up,
// extinguishes when conditions no longer allow fire, tries to burn
// out the six adjacent blocks, and tries to spread into nearby
// flammable air.
func ScheduledTick(w World, rnd *rand.Rand, pos world.BlockPos, state State, difficulty int) {
	w.ScheduleTick(pos, tickDelay(rnd))

	below := world.DirectionDown.Relative(pos)
	isOnSolid := w.FaceSturdy(below, world.DirectionUp)
	age := state.Age

	if newAge := bumpAge(age, rnd); newAge != age {
		updated := state
		updated.Age = newAge
		w.SetFire(pos, updated)
	}

	if !IsValidFireLocation(w, pos) {
		if !isOnSolid || age > 3 {
			w.ClearFire(pos)
		}
		return
	}

	if age == 15 && rnd.IntN(4) == 0 && !CanBurn(w, below) {
		w.ClearFire(pos)
		return
	}

	checkBurnOut(w, rnd, world.DirectionEast.Relative(pos), 300, age)
	checkBurnOut(w, rnd, world.DirectionWest.Relative(pos), 300, age)
	checkBurnOut(w, rnd, world.DirectionDown.Relative(pos), 250, age)
	checkBurnOut(w, rnd, world.DirectionUp.Relative(pos), 250, age)
	checkBurnOut(w, rnd, world.DirectionNorth.Relative(pos), 300, age)
	checkBurnOut(w, rnd, world.DirectionSouth.Relative(pos), 300, age)

	for dx := int32(-1); dx <= 1; dx++ {
		for dz := int32(-1); dz <= 1; dz++ {
			for dy := int32(-1); dy <= 4; dy++ {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				trySpread(w, rnd, pos.Offset(dx, dy, dz), dy, age, difficulty)
			}
		}
	}
}

func trySpread(w World, rnd *rand.Rand, pos world.BlockPos, dy int32, age uint8, difficulty int) {
	rate := uint32(100)
	if dy > 1 {
		rate += uint32(dy-1) * 100
	}

	igniteOdds := uint32(igniteOddsAt(w, pos))
	if igniteOdds == 0 {
		return
	}

	odds := (igniteOdds + 40 + difficultyIgniteBonus(difficulty)) / (uint32(age) + 30)
	if odds == 0 || uint32(rnd.IntN(int(rate))) > odds {
		return
	}

	state := StateFor(w, pos)
	state.Age = bumpAge(age, rnd)
	w.SetFire(pos, state)
}

// NeighbourUpdateTick recalculates fire's directional flags in
// response to a neighbor change, extinguishing it if it can no longer
// survive at pos.
func NeighbourUpdateTick(w World, pos world.BlockPos, state State) {
	if !CanSurvive(w, pos) {
		w.ClearFire(pos)
		return
	}
	updated := StateFor(w, pos)
	updated.Age = state.Age
	w.SetFire(pos, updated)
}
