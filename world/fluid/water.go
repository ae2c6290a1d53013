package fluid

import (
	"math/rand/v2"

	"github.com/steelforge/voxelcore/world"
)

// Water is the fluid.Behavior for water: short tick delay, shallow
// drop-off, a long slope-finding reach, and a chance of an ambient
// drip/ripple effect on every tick.
type Water struct{}

func (Water) Kind() Kind              { return KindWater }
func (Water) TickDelay() uint32       { return 5 }
func (Water) DropOff() uint8          { return 1 }
func (Water) SlopeFindDistance() uint8 { return 4 }

// CanBeReplacedWith reports whether water can flow into a cell
// currently occupied by a different fluid: only when it arrives moving
// down (dir is DirectionDown); from the side or from below it cannot.
func (Water) CanBeReplacedWith(existing State, incoming Kind, dir world.Direction) bool {
	return dir == world.DirectionDown && existing.Kind != KindWater
}

// AnimateTick rolls water's low-probability ambient sound; real audio
// dispatch belongs to the caller's World implementation, this only
// decides whether a roll succeeds.
func (Water) AnimateTick(w World, pos world.BlockPos, state State, rng *rand.Rand) {
	if rng.IntN(64) != 0 {
		return
	}
	w.PlayAmbient(pos, KindWater)
}
