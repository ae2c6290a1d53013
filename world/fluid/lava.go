package fluid

import (
	"math/rand/v2"

	"github.com/steelforge/voxelcore/world"
)

// Lava is the fluid.Behavior for lava: a much slower tick delay, a
// steeper drop-off, and a short slope-finding reach, with no ambient
// animation of its own (the pop/crackle sound comes from random block
// ticks on the block itself, not the fluid engine).
type Lava struct{}

func (Lava) Kind() Kind              { return KindLava }
func (Lava) TickDelay() uint32       { return 30 }
func (Lava) DropOff() uint8          { return 2 }
func (Lava) SlopeFindDistance() uint8 { return 2 }

// CanBeReplacedWith reports whether lava can flow into a cell
// currently occupied by water. It can't: any lava reaching a water
// cell converts on contact instead (handled in spreadToSides), it
// never just overwrites the water block silently.
func (Lava) CanBeReplacedWith(existing State, incoming Kind, dir world.Direction) bool {
	return existing.Kind != KindWater
}

func (Lava) AnimateTick(w World, pos world.BlockPos, state State, rng *rand.Rand) {}
