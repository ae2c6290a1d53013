package ticks

import (
	"container/heap"
	"log/slog"
	"sort"
)

// LevelTicks is the world-level coordinator across every loaded
// chunk's LevelChunkTicks. It tracks the earliest pending trigger
// tick per chunk so Tick can skip chunks with nothing due without
// visiting their heaps, and hands out a monotonic sub-tick order so
// ticks scheduled on the same game tick still process in a stable,
// deterministic sequence.
type LevelTicks[T comparable] struct {
	containers   map[ChunkPos]*LevelChunkTicks[T]
	nextTick     map[ChunkPos]uint64
	subTickOrder uint64
}

// NewLevelTicks builds an empty world tick coordinator.
func NewLevelTicks[T comparable]() *LevelTicks[T] {
	return &LevelTicks[T]{
		containers: make(map[ChunkPos]*LevelChunkTicks[T]),
		nextTick:   make(map[ChunkPos]uint64),
	}
}

// AddContainer registers a chunk's tick container when the chunk is
// loaded, seeding the earliest-tick tracking from any ticks it
// already holds (e.g. loaded from storage).
func (l *LevelTicks[T]) AddContainer(pos ChunkPos, container *LevelChunkTicks[T]) {
	if next, ok := container.Peek(); ok {
		l.nextTick[pos] = next.TriggerTick
	}
	l.containers[pos] = container
}

// RemoveContainer unregisters a chunk's tick container when the chunk
// unloads, returning it so it can be persisted.
func (l *LevelTicks[T]) RemoveContainer(pos ChunkPos) (*LevelChunkTicks[T], bool) {
	delete(l.nextTick, pos)
	c, ok := l.containers[pos]
	delete(l.containers, pos)
	return c, ok
}

// Schedule schedules tickType at pos to fire at currentTick+delay,
// returning false if the owning chunk isn't loaded or a tick with the
// same position and type is already pending.
func (l *LevelTicks[T]) Schedule(pos BlockPos, tickType T, currentTick uint64, delay uint32, priority TickPriority) bool {
	chunkPos := pos.ChunkPos()
	triggerTick := currentTick + uint64(delay)

	container, ok := l.containers[chunkPos]
	if !ok {
		slog.Warn("scheduled tick in unloaded chunk", "chunk", chunkPos)
		return false
	}

	subTickOrder := l.subTickOrder
	l.subTickOrder++

	tick := withPriority(tickType, pos, triggerTick, priority, subTickOrder)
	if !container.Schedule(tick) {
		return false
	}

	if earliest, ok := l.nextTick[chunkPos]; !ok || triggerTick < earliest {
		l.nextTick[chunkPos] = triggerTick
	}
	return true
}

// ScheduleTick schedules tickType at pos with normal priority.
func (l *LevelTicks[T]) ScheduleTick(pos BlockPos, tickType T, currentTick uint64, delay uint32) bool {
	return l.Schedule(pos, tickType, currentTick, delay, PriorityNormal)
}

// HasScheduledTick reports whether a tick is already pending for pos
// and tickType.
func (l *LevelTicks[T]) HasScheduledTick(pos BlockPos, tickType T) bool {
	chunkPos := pos.ChunkPos()
	container, ok := l.containers[chunkPos]
	return ok && container.HasScheduledTick(pos, tickType)
}

// firedTick is one tick that fired during a Tick call.
type firedTick[T comparable] struct {
	Pos  BlockPos
	Type T
}

// Tick processes every tick due at or before currentTick, in global
// (trigger tick, priority, sub-tick order) sequence, stopping after
// maxTicks. canTickChunk filters which loaded chunks are eligible to
// tick at all (e.g. outside the simulation distance).
func (l *LevelTicks[T]) Tick(currentTick uint64, maxTicks int, canTickChunk func(ChunkPos) bool) []firedTick[T] {
	var chunksToTick []ChunkPos
	for pos, earliest := range l.nextTick {
		if earliest <= currentTick && canTickChunk(pos) {
			chunksToTick = append(chunksToTick, pos)
		}
	}
	sort.Slice(chunksToTick, func(i, j int) bool {
		return l.nextTick[chunksToTick[i]] < l.nextTick[chunksToTick[j]]
	})

	var result []firedTick[T]
	processed := 0

	merged := make(mergedHeap[T], 0, len(chunksToTick))
	for _, chunkPos := range chunksToTick {
		container := l.containers[chunkPos]
		if tick, ok := container.Peek(); ok && tick.TriggerTick <= currentTick {
			merged = append(merged, mergedEntry[T]{tick: tick, chunk: chunkPos})
		}
	}
	heap.Init(&merged)

	for processed < maxTicks {
		if merged.Len() == 0 {
			break
		}
		entry := heap.Pop(&merged).(mergedEntry[T])

		container, ok := l.containers[entry.chunk]
		if !ok {
			continue
		}

		top, ok := container.Peek()
		if !ok || top.Pos != entry.tick.Pos || top.TriggerTick != entry.tick.TriggerTick {
			continue
		}

		tick, ok := container.Poll()
		if !ok {
			panic("ticks: container.Peek() returned a tick but Poll() found none")
		}
		result = append(result, firedTick[T]{Pos: tick.Pos, Type: tick.Type})
		processed++

		if next, ok := container.Peek(); ok && next.TriggerTick <= currentTick {
			heap.Push(&merged, mergedEntry[T]{tick: next, chunk: entry.chunk})
		}
	}

	for _, chunkPos := range chunksToTick {
		container, ok := l.containers[chunkPos]
		if !ok {
			continue
		}
		if next, ok := container.Peek(); ok {
			l.nextTick[chunkPos] = next.TriggerTick
		} else {
			delete(l.nextTick, chunkPos)
		}
	}

	return result
}

// Count returns the total number of pending ticks across every loaded
// chunk.
func (l *LevelTicks[T]) Count() int {
	n := 0
	for _, c := range l.containers {
		n += c.Count()
	}
	return n
}

// mergedEntry pairs a chunk's current earliest-due tick with the
// chunk it came from, so Tick can pop ticks in strict global order
// while still knowing which container to advance next.
type mergedEntry[T comparable] struct {
	tick  ScheduledTick[T]
	chunk ChunkPos
}

type mergedHeap[T comparable] []mergedEntry[T]

func (h mergedHeap[T]) Len() int            { return len(h) }
func (h mergedHeap[T]) Less(i, j int) bool  { return h[i].tick.less(h[j].tick) }
func (h mergedHeap[T]) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *mergedHeap[T]) Push(x interface{}) { *h = append(*h, x.(mergedEntry[T])) }
func (h *mergedHeap[T]) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}
