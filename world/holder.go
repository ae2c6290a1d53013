package world

import "sync"

// ChunkAccess is the shared, immutable-once-published view of a chunk
// at a particular status. It's deliberately opaque here — the actual
// ProtoChunk/LevelChunk payload lives in world/chunk and the generator,
// decoupled from the holder the same way world/fluid decouples from
// the block registry via its World interface.
type ChunkAccess interface {
	Pos() ChunkPos
	Status() Status
}

// ChunkHolder is the one-per-loaded-ChunkPos record tracking a
// chunk's progress through the generation pyramid (spec.md §3.5).
type ChunkHolder struct {
	pos ChunkPos

	mu              sync.RWMutex
	ticketLevel     int
	persistedStatus Status
	chunkAt         [statusCount]ChunkAccess
	skyChangeMask   uint32
	blockChangeMask uint32

	ready chan struct{}
}

// NewChunkHolder creates a holder with no ticket level and nothing
// generated yet.
func NewChunkHolder(pos ChunkPos) *ChunkHolder {
	return &ChunkHolder{
		pos:         pos,
		ticketLevel: maxTicketLevel,
		ready:       make(chan struct{}),
	}
}

// maxTicketLevel is used as the "no ticket reaches this chunk"
// sentinel; TargetStatus of anything this high collapses to Empty.
const maxTicketLevel = 1 << 20

// Pos returns the position this holder tracks.
func (h *ChunkHolder) Pos() ChunkPos { return h.pos }

// TicketLevel returns the smallest ticket level currently contributing
// to this chunk.
func (h *ChunkHolder) TicketLevel() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ticketLevel
}

// SetTicketLevel updates the level the ticket propagator computed for
// this chunk.
func (h *ChunkHolder) SetTicketLevel(level int) {
	h.mu.Lock()
	h.ticketLevel = level
	h.mu.Unlock()
}

// TargetStatus is the status this holder's current ticket level
// demands.
func (h *ChunkHolder) TargetStatus() Status {
	return TargetStatus(h.TicketLevel())
}

// PersistedStatus returns the highest status this chunk has reached
// and still has a valid ChunkAccess for.
func (h *ChunkHolder) PersistedStatus() Status {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.persistedStatus
}

// At returns the ChunkAccess reached for status s, if any.
func (h *ChunkHolder) At(s Status) (ChunkAccess, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	a := h.chunkAt[s]
	return a, a != nil
}

// Publish atomically installs the ChunkAccess for status s and raises
// persistedStatus if s is a new high point. Promotion steps must
// publish only after the step completes successfully; a failed step
// must not call Publish, leaving persistedStatus unchanged (spec.md
// §4.1 "Failure semantics").
func (h *ChunkHolder) Publish(s Status, access ChunkAccess) {
	h.mu.Lock()
	h.chunkAt[s] = access
	if s > h.persistedStatus || h.chunkAt[h.persistedStatus] == nil {
		h.persistedStatus = s
	}
	h.mu.Unlock()
}

// NeedsPromotion reports whether this holder's target status exceeds
// what it has already reached.
func (h *ChunkHolder) NeedsPromotion() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.persistedStatus < TargetStatus(h.ticketLevel)
}

// MarkSkyLightChanged and MarkBlockLightChanged record that a section
// index changed, mirroring world/chunk's own change masks so a chunk
// map can coalesce re-send work across promotions without reaching
// into the LevelChunk payload directly.
func (h *ChunkHolder) MarkSkyLightChanged(section int)   { h.markChanged(&h.skyChangeMask, section) }
func (h *ChunkHolder) MarkBlockLightChanged(section int) { h.markChanged(&h.blockChangeMask, section) }

func (h *ChunkHolder) markChanged(mask *uint32, section int) {
	h.mu.Lock()
	*mask |= 1 << uint(section)
	h.mu.Unlock()
}

// ConsumeChangedSections returns and clears the accumulated change
// masks.
func (h *ChunkHolder) ConsumeChangedSections() (sky, block uint32) {
	h.mu.Lock()
	sky, block = h.skyChangeMask, h.blockChangeMask
	h.skyChangeMask, h.blockChangeMask = 0, 0
	h.mu.Unlock()
	return
}

// MarkReady closes the ready channel, waking every waiter blocked in
// WaitReady. A call after an earlier one has returned is a no-op; two
// concurrent calls can both find the channel open and race to close
// it, so callers that may publish concurrently guard it themselves,
// matching the teacher's Column.markReady/waitReady split.
func (h *ChunkHolder) MarkReady() {
	select {
	case <-h.ready:
	default:
		close(h.ready)
	}
}

// WaitReady blocks until MarkReady has been called.
func (h *ChunkHolder) WaitReady() { <-h.ready }
