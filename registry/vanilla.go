package registry

import "github.com/steelforge/voxelcore/world/fluid"

// VanillaBlocks names the specific block types NewVanilla registers,
// so FireWorld/FluidWorld (and their tests) can wire against them
// directly instead of re-resolving by name every call.
type VanillaBlocks struct {
	Air, Stone, Obsidian, Cobblestone *BlockType
	OakPlanks, OakLeaves              *BlockType
	Fire                              *BlockType
	Water, Lava                       *BlockType
}

// NewVanilla builds a Registry carrying the small set of block kinds
// block/fire and world/fluid need real config records for. It is not
// a full 1.21.10 block list — generating that list is exactly the
// registry-generation step spec.md's Non-goals exclude — just enough
// correctly shaped entries, in the property-table style of
// steel-registry/src/blocks/properties.rs, to back those packages'
// decoupling interfaces with genuine data instead of test doubles.
func NewVanilla() (*Registry, *VanillaBlocks) {
	r := New()

	air := NewBlockType("minecraft:air", BlockConfig{IsAir: true, Replaceable: true})
	r.States.Register(air)

	stone := NewBlockType("minecraft:stone", BlockConfig{HasCollision: true})
	r.States.Register(stone)

	obsidian := NewBlockType("minecraft:obsidian", BlockConfig{HasCollision: true})
	r.States.Register(obsidian)

	cobblestone := NewBlockType("minecraft:cobblestone", BlockConfig{HasCollision: true})
	r.States.Register(cobblestone)

	oakPlanks := NewBlockType("minecraft:oak_planks", BlockConfig{
		HasCollision: true, Flammable: true, IgniteOdds: 5, BurnOdds: 20,
	})
	r.States.Register(oakPlanks)

	oakLeaves := NewBlockType("minecraft:oak_leaves", BlockConfig{
		HasCollision: true, Flammable: true, IgniteOdds: 30, BurnOdds: 60,
	}, PropPersistent, PropDistance7, PropWaterlogged)
	r.States.Register(oakLeaves)

	fire := NewBlockType("minecraft:fire", BlockConfig{IsAir: true, Replaceable: true},
		PropAge15,
		NewBoolProperty("north"), NewBoolProperty("south"),
		NewBoolProperty("east"), NewBoolProperty("west"), NewBoolProperty("up"))
	r.States.Register(fire)

	water := NewBlockType("minecraft:water", BlockConfig{Replaceable: true}, PropLevelFluid, PropFalling)
	r.States.Register(water)

	lava := NewBlockType("minecraft:lava", BlockConfig{Replaceable: true}, PropLevelFluid, PropFalling)
	r.States.Register(lava)

	// Behavior dispatch, keyed by registry ref (component M's
	// "polymorphic per-kind behavior objects keyed by registry ref").
	r.RegisterBehavior(water.Name, fluid.Water{})
	r.RegisterBehavior(lava.Name, fluid.Lava{})

	return r, &VanillaBlocks{
		Air: air, Stone: stone, Obsidian: obsidian, Cobblestone: cobblestone,
		OakPlanks: oakPlanks, OakLeaves: oakLeaves,
		Fire:  fire,
		Water: water, Lava: lava,
	}
}
