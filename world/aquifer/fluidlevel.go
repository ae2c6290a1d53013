// Package aquifer implements the aquifer sampler and surface-height
// estimator that decide where underground water/lava pockets appear
// during terrain generation (spec.md §4.2, §4.3 "Surface height
// estimator").
package aquifer

// BlockState is an opaque block-state identifier. The aquifer sampler
// only ever compares states for equality and substitutes a handful of
// fixed states (water, lava, air), so it has no need for the full block
// registry (component M) and is kept decoupled from it.
type BlockState uint32

// FluidLevel names the Y level (exclusive upper bound) a fluid surface
// sits at, and the block that surface is made of.
type FluidLevel struct {
	Y     int32
	Block BlockState
}

// NewFluidLevel builds a FluidLevel.
func NewFluidLevel(y int32, block BlockState) FluidLevel { return FluidLevel{Y: y, Block: block} }

// MaxYExclusive returns the Y this fluid's surface occupies.
func (f FluidLevel) MaxYExclusive() int32 { return f.Y }

// GetBlock returns the fluid's block if y is below its surface,
// otherwise the supplied default (ordinarily air).
func (f FluidLevel) GetBlock(y int32, defaultBlock BlockState) BlockState {
	if y < f.Y {
		return f.Block
	}
	return defaultBlock
}

// LevelSampler resolves the default (non-aquifer) fluid level at a
// position — ordinarily sea level for the overworld, lava level in the
// nether. Grounded on FluidLevelSampler/FluidLevelSamplerImpl.
type LevelSampler interface {
	FluidLevel(x, y, z int32) FluidLevel
}

// ColumnSampler implements LevelSampler with a single fixed fluid level
// used everywhere in the dimension, the common case for the overworld
// (sea level) and the nether (lava level).
type ColumnSampler struct {
	Level FluidLevel
}

// FluidLevel implements LevelSampler.
func (c ColumnSampler) FluidLevel(x, y, z int32) FluidLevel { return c.Level }
