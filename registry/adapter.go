package registry

import (
	"github.com/steelforge/voxelcore/block/fire"
	"github.com/steelforge/voxelcore/world"
	"github.com/steelforge/voxelcore/world/chunk"
	"github.com/steelforge/voxelcore/world/fluid"
)

// ChunkSource resolves the chunk (if loaded) backing an absolute
// block position — the same accessor shape world/tick.go's
// canTickChunk closure already uses against the chunk map, reused
// here so these adapters can sit directly on top of a *ChunkMap/
// *ChunkHolder pair once a caller wires one in.
type ChunkSource interface {
	ChunkAt(pos world.ChunkPos) (*chunk.Chunk, bool)
}

func boolIndex(v bool) int {
	if v {
		return 0
	}
	return 1
}

// FireWorld adapts a Registry and ChunkSource to block/fire's World
// interface: ignite/burn odds, air and sturdy-face checks come from
// registered BlockConfig records (including the waterlogged override
// spec.md calls out — "IgniteOdds returns ... 0 if it never ignites
// (including when it's waterlogged)") instead of the ad-hoc stand-ins
// fire's own tests use.
type FireWorld struct {
	Registry *Registry
	Chunks   ChunkSource
	Fire     *BlockType
	Air      *BlockType

	Scheduler       func(pos world.BlockPos, delay uint32)
	ExtinguishSound func(pos world.BlockPos)
}

var _ fire.World = (*FireWorld)(nil)

func (f *FireWorld) stateAt(pos world.BlockPos) (StateID, *BlockType, bool) {
	c, ok := f.Chunks.ChunkAt(pos.ChunkPos())
	if !ok {
		return 0, nil, false
	}
	id := StateID(c.Block(pos))
	bt, ok := f.Registry.States.Lookup(id)
	return id, bt, ok
}

func waterlogged(bt *BlockType, id StateID) bool {
	v, ok := bt.GetValue(id, PropWaterlogged)
	return ok && v == PropWaterlogged.Index(true)
}

// FaceSturdy reports whether the block at pos has collision; vanilla
// distinguishes full-cube faces from partial ones via per-shape data
// this registry doesn't carry yet, so HasCollision is the coarse
// stand-in.
func (f *FireWorld) FaceSturdy(pos world.BlockPos, _ world.Direction) bool {
	_, bt, ok := f.stateAt(pos)
	return ok && bt.Config.HasCollision
}

func (f *FireWorld) IgniteOdds(pos world.BlockPos) uint8 {
	id, bt, ok := f.stateAt(pos)
	if !ok || waterlogged(bt, id) {
		return 0
	}
	return bt.Config.IgniteOdds
}

func (f *FireWorld) BurnOdds(pos world.BlockPos) uint8 {
	id, bt, ok := f.stateAt(pos)
	if !ok || waterlogged(bt, id) {
		return 0
	}
	return bt.Config.BurnOdds
}

func (f *FireWorld) IsAir(pos world.BlockPos) bool {
	_, bt, ok := f.stateAt(pos)
	if !ok {
		return true
	}
	return bt.Config.IsAir
}

// SetFire writes state's age and directional flags into the fire
// block's property schema and stores the resulting state id.
func (f *FireWorld) SetFire(pos world.BlockPos, state fire.State) {
	c, ok := f.Chunks.ChunkAt(pos.ChunkPos())
	if !ok || f.Fire == nil {
		return
	}
	id := f.Fire.DefaultState()
	id = setBoolProp(f.Fire, id, "north", state.North)
	id = setBoolProp(f.Fire, id, "south", state.South)
	id = setBoolProp(f.Fire, id, "east", state.East)
	id = setBoolProp(f.Fire, id, "west", state.West)
	id = setBoolProp(f.Fire, id, "up", state.Up)
	if v, ok := f.Fire.SetValue(id, PropAge15, PropAge15.Index(state.Age)); ok {
		id = v
	}
	c.SetBlock(pos, uint16(id))
}

func setBoolProp(bt *BlockType, id StateID, name string, v bool) StateID {
	prop := NewBoolProperty(name)
	if next, ok := bt.SetValue(id, prop, boolIndex(v)); ok {
		return next
	}
	return id
}

func (f *FireWorld) ClearFire(pos world.BlockPos) {
	c, ok := f.Chunks.ChunkAt(pos.ChunkPos())
	if !ok || f.Air == nil {
		return
	}
	c.SetBlock(pos, uint16(f.Air.DefaultState()))
}

func (f *FireWorld) ScheduleTick(pos world.BlockPos, delay uint32) {
	if f.Scheduler != nil {
		f.Scheduler(pos, delay)
	}
}

func (f *FireWorld) PlayExtinguishSound(pos world.BlockPos) {
	if f.ExtinguishSound != nil {
		f.ExtinguishSound(pos)
	}
}

// FluidWorld adapts a Registry and ChunkSource to world/fluid's World
// interface: source/flowing/falling state is read from and written to
// the water/lava block types' level+falling properties, and shape
// questions (IsOpen/IsSolid/CanHoldFluid/CanPassThroughWall) answer
// from BlockConfig's coarse collision/replaceable flags, the same
// simplification FireWorld makes for sturdy faces — a real per-face
// voxel shape table belongs to the registry's generated block-shape
// data, not this behavior lookup.
type FluidWorld struct {
	Registry                   *Registry
	Chunks                     ChunkSource
	Water, Lava                *BlockType
	Air, Obsidian, Cobblestone *BlockType
	SourceConversion           map[fluid.Kind]bool

	ScheduleFn func(pos world.BlockPos, currentTick uint64, delay uint32)
	FizzFn     func(pos world.BlockPos)
	AmbientFn  func(pos world.BlockPos, kind fluid.Kind)
}

var _ fluid.World = (*FluidWorld)(nil)

func (w *FluidWorld) blockTypeFor(kind fluid.Kind) *BlockType {
	if kind == fluid.KindWater {
		return w.Water
	}
	return w.Lava
}

func (w *FluidWorld) stateAt(pos world.BlockPos) (StateID, *BlockType, bool) {
	c, ok := w.Chunks.ChunkAt(pos.ChunkPos())
	if !ok {
		return 0, nil, false
	}
	id := StateID(c.Block(pos))
	bt, ok := w.Registry.States.Lookup(id)
	return id, bt, ok
}

func (w *FluidWorld) FluidStateAt(pos world.BlockPos) fluid.State {
	id, bt, ok := w.stateAt(pos)
	if !ok {
		return fluid.State{}
	}
	var kind fluid.Kind
	switch bt {
	case w.Water:
		kind = fluid.KindWater
	case w.Lava:
		kind = fluid.KindLava
	default:
		return fluid.State{}
	}
	level, _ := bt.GetValue(id, PropLevelFluid)
	fallingIdx, _ := bt.GetValue(id, PropFalling)
	falling := fallingIdx == PropFalling.Index(true)
	if level == 0 && !falling {
		return fluid.Source(kind)
	}
	return fluid.Flowing(kind, uint8(level), falling)
}

func (w *FluidWorld) IsOpen(pos world.BlockPos) bool {
	_, bt, ok := w.stateAt(pos)
	if !ok {
		return true
	}
	return bt.Config.IsAir || bt.Config.Replaceable
}

func (w *FluidWorld) IsSolid(pos world.BlockPos) bool {
	_, bt, ok := w.stateAt(pos)
	if !ok {
		return false
	}
	return bt.Config.HasCollision && !bt.Config.Replaceable && !bt.Config.IsAir
}

func (w *FluidWorld) CanHoldFluid(pos world.BlockPos) bool {
	_, bt, ok := w.stateAt(pos)
	if !ok {
		return false
	}
	return bt.Config.IsAir || bt.Config.Replaceable || bt == w.Water || bt == w.Lava
}

func (w *FluidWorld) CanPassThroughWall(_, to world.BlockPos, _ world.Direction) bool {
	return !w.IsSolid(to)
}

func (w *FluidWorld) SetFluidBlock(pos world.BlockPos, state fluid.State) bool {
	c, ok := w.Chunks.ChunkAt(pos.ChunkPos())
	if !ok {
		return false
	}
	bt := w.blockTypeFor(state.Kind)
	if bt == nil {
		return false
	}
	id := bt.DefaultState()
	level := state.Level
	if state.IsSource() {
		level = 0
	}
	if v, ok := bt.SetValue(id, PropLevelFluid, PropLevelFluid.Index(level)); ok {
		id = v
	}
	if v, ok := bt.SetValue(id, PropFalling, boolIndex(state.Falling)); ok {
		id = v
	}
	c.SetBlock(pos, uint16(id))
	return true
}

func (w *FluidWorld) SetBlock(pos world.BlockPos, block fluid.SpecialBlock) {
	c, ok := w.Chunks.ChunkAt(pos.ChunkPos())
	if !ok {
		return
	}
	var bt *BlockType
	switch block {
	case fluid.SpecialObsidian:
		bt = w.Obsidian
	case fluid.SpecialCobblestone:
		bt = w.Cobblestone
	default:
		bt = w.Air
	}
	if bt == nil {
		return
	}
	c.SetBlock(pos, uint16(bt.DefaultState()))
}

func (w *FluidWorld) ScheduleFluidTick(pos world.BlockPos, currentTick uint64, delay uint32) {
	if w.ScheduleFn != nil {
		w.ScheduleFn(pos, currentTick, delay)
	}
}

func (w *FluidWorld) SourceConversionEnabled(kind fluid.Kind) bool {
	return w.SourceConversion[kind]
}

func (w *FluidWorld) PlayFizz(pos world.BlockPos) {
	if w.FizzFn != nil {
		w.FizzFn(pos)
	}
}

func (w *FluidWorld) PlayAmbient(pos world.BlockPos, kind fluid.Kind) {
	if w.AmbientFn != nil {
		w.AmbientFn(pos, kind)
	}
}
