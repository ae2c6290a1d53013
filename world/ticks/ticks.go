// Package ticks implements the scheduled-tick machinery that drives
// delayed block updates (falling sand, redstone, fluid spread, crop
// growth, ...). A per-chunk LevelChunkTicks holds a priority queue of
// pending ticks; a world-level LevelTicks coordinates across every
// loaded chunk so the tick loop only has to look at chunks with work
// due (spec.md §3.7 "Scheduled ticks").
package ticks

import (
	"container/heap"

	"github.com/steelforge/voxelcore/world"
)

// TickPriority orders ticks that fall due on the same game tick. Lower
// values run first, matching vanilla's ExtremelyHigh..ExtremelyLow scale.
type TickPriority int8

const (
	PriorityExtremelyHigh TickPriority = -3
	PriorityVeryHigh      TickPriority = -2
	PriorityHigh          TickPriority = -1
	PriorityNormal        TickPriority = 0
	PriorityLow           TickPriority = 1
	PriorityVeryLow       TickPriority = 2
	PriorityExtremelyLow  TickPriority = 3
)

// BlockPos and ChunkPos are the shared world.BlockPos/world.ChunkPos
// coordinate types; aliased here so callers don't need to import both
// packages just to name a tick's position.
type (
	BlockPos = world.BlockPos
	ChunkPos = world.ChunkPos
)

// ScheduledTick is one pending tick: a type of update T (e.g. a block
// ID, or a fluid ID) due to fire at a block position on or after
// TriggerTick.
type ScheduledTick[T comparable] struct {
	Pos          BlockPos
	Type         T
	TriggerTick  uint64
	Priority     TickPriority
	SubTickOrder uint64
}

// With normal priority, schedule in world order for two ticks
// scheduled on the same trigger tick: earlier Priority first, then
// earlier SubTickOrder first.
func (a ScheduledTick[T]) less(b ScheduledTick[T]) bool {
	if a.TriggerTick != b.TriggerTick {
		return a.TriggerTick < b.TriggerTick
	}
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	return a.SubTickOrder < b.SubTickOrder
}

func withPriority[T comparable](tickType T, pos BlockPos, triggerTick uint64, priority TickPriority, subTickOrder uint64) ScheduledTick[T] {
	return ScheduledTick[T]{Pos: pos, Type: tickType, TriggerTick: triggerTick, Priority: priority, SubTickOrder: subTickOrder}
}

type tickKey[T comparable] struct {
	pos  BlockPos
	kind T
}

// tickHeap is a container/heap.Interface min-heap of scheduled ticks
// ordered by ScheduledTick.less.
type tickHeap[T comparable] []ScheduledTick[T]

func (h tickHeap[T]) Len() int            { return len(h) }
func (h tickHeap[T]) Less(i, j int) bool  { return h[i].less(h[j]) }
func (h tickHeap[T]) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *tickHeap[T]) Push(x interface{}) { *h = append(*h, x.(ScheduledTick[T])) }
func (h *tickHeap[T]) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// LevelChunkTicks is the per-chunk container of pending scheduled
// ticks: a binary min-heap for ordered processing, plus a dedup set so
// a (position, type) pair is never scheduled twice.
type LevelChunkTicks[T comparable] struct {
	heap      tickHeap[T]
	scheduled map[tickKey[T]]struct{}
}

// NewLevelChunkTicks builds an empty per-chunk tick container.
func NewLevelChunkTicks[T comparable]() *LevelChunkTicks[T] {
	return &LevelChunkTicks[T]{scheduled: make(map[tickKey[T]]struct{})}
}

// Schedule adds tick to the container, returning false if a tick with
// the same position and type is already pending.
func (c *LevelChunkTicks[T]) Schedule(tick ScheduledTick[T]) bool {
	key := tickKey[T]{pos: tick.Pos, kind: tick.Type}
	if _, ok := c.scheduled[key]; ok {
		return false
	}
	c.scheduled[key] = struct{}{}
	heap.Push(&c.heap, tick)
	return true
}

// HasScheduledTick reports whether a tick is already pending for pos
// and tickType.
func (c *LevelChunkTicks[T]) HasScheduledTick(pos BlockPos, tickType T) bool {
	_, ok := c.scheduled[tickKey[T]{pos: pos, kind: tickType}]
	return ok
}

// Peek returns the earliest-due pending tick without removing it.
func (c *LevelChunkTicks[T]) Peek() (ScheduledTick[T], bool) {
	if len(c.heap) == 0 {
		return ScheduledTick[T]{}, false
	}
	return c.heap[0], true
}

// Poll removes and returns the earliest-due pending tick.
func (c *LevelChunkTicks[T]) Poll() (ScheduledTick[T], bool) {
	if len(c.heap) == 0 {
		return ScheduledTick[T]{}, false
	}
	tick := heap.Pop(&c.heap).(ScheduledTick[T])
	delete(c.scheduled, tickKey[T]{pos: tick.Pos, kind: tick.Type})
	return tick, true
}

// Count returns the number of pending ticks in this chunk.
func (c *LevelChunkTicks[T]) Count() int { return len(c.heap) }

// ScheduledTickSource adapts a *LevelTicks[uint16] to world.TickSource,
// reshaping the unexported firedTick[uint16] slice Tick returns into
// world.TickSourceEntry values. world.Ticker drives block and fluid
// ticks through this, one ScheduledTickSource per tick type registry.
type ScheduledTickSource struct {
	Ticks *LevelTicks[uint16]
}

func (s ScheduledTickSource) Tick(currentTick uint64, maxTicks int, canTickChunk func(world.ChunkPos) bool) []world.TickSourceEntry {
	fired := s.Ticks.Tick(currentTick, maxTicks, canTickChunk)
	if len(fired) == 0 {
		return nil
	}
	out := make([]world.TickSourceEntry, len(fired))
	for i, f := range fired {
		out[i] = world.TickSourceEntry{Pos: f.Pos, Type: f.Type}
	}
	return out
}
