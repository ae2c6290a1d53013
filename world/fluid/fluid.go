// Package fluid implements the flowing-fluid engine shared by water and
// lava: deriving the fluid state a position should settle into from its
// neighbors, and spreading a source or flowing fluid outward on its
// scheduled tick (spec.md §4.5 "Fluid engine").
package fluid

import (
	"math/rand/v2"

	"github.com/steelforge/voxelcore/world"
)

// Kind identifies which fluid a State belongs to.
type Kind uint8

const (
	KindNone Kind = iota
	KindWater
	KindLava
)

func (k Kind) other() Kind {
	if k == KindWater {
		return KindLava
	}
	return KindWater
}

// State is a fluid's derived view of a block (spec.md §3.8): level 0
// is a source, 1-7 are progressively weaker flowing fluid, and 8 means
// falling (draining straight down from above).
type State struct {
	Kind    Kind
	Level   uint8
	Falling bool
}

// Source builds a source-block state.
func Source(kind Kind) State { return State{Kind: kind} }

// Flowing builds a flowing-fluid state, clamping level to 8.
func Flowing(kind Kind, level uint8, falling bool) State {
	if level > 8 {
		level = 8
	}
	return State{Kind: kind, Level: level, Falling: falling}
}

// IsSource reports whether s is a source block.
func (s State) IsSource() bool { return s.Kind != KindNone && s.Level == 0 && !s.Falling }

// IsEmpty reports whether s represents no fluid at all.
func (s State) IsEmpty() bool { return s.Kind == KindNone }

// Amount is the inverse of level used for spread-strength comparisons:
// a source has amount 8, falling fluid's amount equals its level
// (clamped to [1,8]), and ordinary flowing fluid's amount is 8-level.
func (s State) Amount() uint8 {
	switch {
	case s.IsSource():
		return 8
	case s.Falling:
		return clamp(s.Level, 1, 8)
	default:
		return satSub(8, s.Level)
	}
}

func clamp(v, lo, hi uint8) uint8 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func satSub(a, b uint8) uint8 {
	if a < b {
		return 0
	}
	return a - b
}

// SpecialBlock is one of the fixed block conversions the fluid engine
// can trigger directly (lava/water contact, or clearing to air).
type SpecialBlock uint8

const (
	SpecialAir SpecialBlock = iota
	SpecialObsidian
	SpecialCobblestone
)

// Behavior holds the per-fluid constants and hooks spec.md §4.5 calls
// out as varying between water and lava.
type Behavior interface {
	Kind() Kind
	TickDelay() uint32
	DropOff() uint8
	SlopeFindDistance() uint8
	// CanBeReplacedWith reports whether existing (a different fluid
	// than incoming) can be overwritten by incoming flowing in from
	// dir.
	CanBeReplacedWith(existing State, incoming Kind, dir world.Direction) bool
	// AnimateTick plays whatever ambient sound/particle effect this
	// fluid emits on a tick; a no-op for fluids that don't have one.
	AnimateTick(w World, pos world.BlockPos, state State, rng *rand.Rand)
}

// World is the subset of world/block-registry operations the fluid
// engine needs, the same decoupling used by the aquifer sampler, fire,
// and light engine: FluidStateAt/IsOpen/IsSolid/CanHoldFluid/
// CanPassThroughWall answer shape questions, the rest perform
// mutations.
type World interface {
	FluidStateAt(pos world.BlockPos) State
	// IsOpen reports whether pos is air or otherwise freely
	// replaceable (not counting existing fluid).
	IsOpen(pos world.BlockPos) bool
	// IsSolid reports whether pos has collision and isn't replaceable
	// or air (used by the source-conversion "solid block below" check).
	IsSolid(pos world.BlockPos) bool
	// CanHoldFluid reports whether pos is a kind of block fluid can
	// occupy at all (false for doors, signs, ladders, ...).
	CanHoldFluid(pos world.BlockPos) bool
	// CanPassThroughWall reports whether fluid can flow from "from"
	// to "to" in the given direction given both blocks' collision
	// shapes.
	CanPassThroughWall(from, to world.BlockPos, dir world.Direction) bool

	SetFluidBlock(pos world.BlockPos, state State) bool
	SetBlock(pos world.BlockPos, block SpecialBlock)
	ScheduleFluidTick(pos world.BlockPos, currentTick uint64, delay uint32)
	SourceConversionEnabled(kind Kind) bool
	PlayFizz(pos world.BlockPos)
	// PlayAmbient plays a fluid's idle sound/particle effect (water's
	// drip, lava's pop) at pos.
	PlayAmbient(pos world.BlockPos, kind Kind)
}
