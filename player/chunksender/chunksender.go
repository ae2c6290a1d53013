// Package chunksender streams a player's view-distance worth of
// chunks at a flow-controlled rate and keeps their light state in
// sync, the way chunk_sender.rs's ChunkSender drives one connection's
// CLevelChunkWithLight/CLightUpdate traffic instead of dumping every
// loaded chunk at once.
package chunksender

import (
	"sort"

	"github.com/steelforge/voxelcore/world"
	"github.com/steelforge/voxelcore/world/light"
)

// defaultDesiredChunksPerTick and defaultMaxUnacknowledgedBatches are
// ChunkSender's zero-value defaults, matching the Default impl's
// desired_chunks_per_tick: 32.0, max_unacknowledged_batches: 1.
const (
	defaultDesiredChunksPerTick     = 32.0
	defaultMaxUnacknowledgedBatches = 1
)

// Sink is the per-connection outbound surface a ChunkSender drives.
// Concrete packet layout is protocol/codec's concern; this package
// only decides what to send and when.
type Sink interface {
	SendChunkBatchStart() error
	SendChunk(pos world.ChunkPos, access world.ChunkAccess) error
	SendChunkBatchFinished(count int) error
	SendForgetChunk(pos world.ChunkPos) error
	SendLightUpdate(update LightUpdate) error
}

// Holders resolves a loaded chunk's holder, the same lookup surface
// world.ChunkMap already provides.
type Holders interface {
	Holder(pos world.ChunkPos) (*world.ChunkHolder, bool)
}

// LightEngine is the light-diff surface a ChunkSender reads from when
// broadcasting incremental updates.
type LightEngine interface {
	ConsumeChangedSections(pos world.ChunkPos) (sky, block uint32)
	SectionBytes(pos world.ChunkPos, sectionY int32, sky bool) []byte
}

// LightUpdate is one chunk's incremental sky/block light diff, built
// from a changed-section bitmask plus the section payloads it refers
// to.
type LightUpdate struct {
	Pos          world.ChunkPos
	SkyMask      uint32
	BlockMask    uint32
	SkyUpdates   [][]byte
	BlockUpdates [][]byte
}

// Empty reports whether this update carries nothing worth sending,
// matching the Rust side's check before emitting CLightUpdate.
func (u LightUpdate) Empty() bool {
	return u.SkyMask == 0 && u.BlockMask == 0
}

// Config configures a ChunkSender. MinSectionY/SectionCount describe
// the vertical section range light updates are built over.
type Config struct {
	Holders      Holders
	Light        LightEngine
	Sink         Sink
	MinSectionY  int32
	SectionCount int

	DesiredChunksPerTick     float64
	MaxUnacknowledgedBatches uint16
}

// ChunkSender tracks one connection's pending-chunk queue and flow
// control state: pending_chunks, unacknowledged_batches,
// desired_chunks_per_tick/batch_quota, max_unacknowledged_batches.
type ChunkSender struct {
	holders Holders
	light   LightEngine
	sink    Sink

	minSectionY  int32
	sectionCount int

	pendingChunks map[world.ChunkPos]struct{}

	unacknowledgedBatches    uint16
	maxUnacknowledgedBatches uint16
	desiredChunksPerTick     float64
	batchQuota               float64
}

// New builds a ChunkSender with cfg's flow-control parameters, falling
// back to the vanilla defaults when left zero.
func New(cfg Config) *ChunkSender {
	if cfg.DesiredChunksPerTick <= 0 {
		cfg.DesiredChunksPerTick = defaultDesiredChunksPerTick
	}
	if cfg.MaxUnacknowledgedBatches == 0 {
		cfg.MaxUnacknowledgedBatches = defaultMaxUnacknowledgedBatches
	}
	return &ChunkSender{
		holders:                  cfg.Holders,
		light:                    cfg.Light,
		sink:                     cfg.Sink,
		minSectionY:              cfg.MinSectionY,
		sectionCount:             cfg.SectionCount,
		pendingChunks:            make(map[world.ChunkPos]struct{}),
		maxUnacknowledgedBatches: cfg.MaxUnacknowledgedBatches,
		desiredChunksPerTick:     cfg.DesiredChunksPerTick,
	}
}

// MarkChunkPending queues pos to be sent on a future SendNextChunks
// call.
func (s *ChunkSender) MarkChunkPending(pos world.ChunkPos) {
	s.pendingChunks[pos] = struct{}{}
}

// DropChunk un-watches pos: if it was still only pending (never sent
// to the client), it's simply removed from the queue; otherwise the
// client already has it and needs an explicit CForgetLevelChunk.
func (s *ChunkSender) DropChunk(pos world.ChunkPos) error {
	if _, pending := s.pendingChunks[pos]; pending {
		delete(s.pendingChunks, pos)
		return nil
	}
	return s.sink.SendForgetChunk(pos)
}

// OnChunkBatchReceived processes the client's CChunkBatchReceived ack,
// releasing one slot in the unacknowledged-batch window.
func (s *ChunkSender) OnChunkBatchReceived() {
	if s.unacknowledgedBatches > 0 {
		s.unacknowledgedBatches--
	}
}

// candidate is a pending chunk scored by squared distance from the
// viewer, for nearest-first dispatch.
type candidate struct {
	pos    world.ChunkPos
	distSq int64
	holder *world.ChunkHolder
}

// collectCandidates returns every pending chunk that has reached
// StatusFull, sorted nearest-first to viewer.
func (s *ChunkSender) collectCandidates(viewer world.ChunkPos) []candidate {
	candidates := make([]candidate, 0, len(s.pendingChunks))
	for pos := range s.pendingChunks {
		holder, ok := s.holders.Holder(pos)
		if !ok || holder.PersistedStatus() != world.StatusFull {
			continue
		}
		dx, dz := int64(pos.X-viewer.X), int64(pos.Z-viewer.Z)
		candidates = append(candidates, candidate{pos: pos, distSq: dx*dx + dz*dz, holder: holder})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].distSq < candidates[j].distSq })
	return candidates
}

// SendNextChunks is the main per-tick driver: if the connection is
// under its unacknowledged-batch cap, it accumulates quota, then — if
// quota has reached at least one whole chunk and there are pending,
// Full-status chunks to send — dispatches up to floor(quota) of the
// nearest ones as a single CChunkBatchStart/N*CLevelChunkWithLight/
// CChunkBatchFinished batch, spending the quota and occupying one
// unacknowledged-batch slot until the client acks it.
func (s *ChunkSender) SendNextChunks(viewer world.ChunkPos) error {
	if s.unacknowledgedBatches >= s.maxUnacknowledgedBatches {
		return nil
	}

	quotaCap := s.desiredChunksPerTick
	if quotaCap < 1.0 {
		quotaCap = 1.0
	}
	s.batchQuota += s.desiredChunksPerTick
	if s.batchQuota > quotaCap {
		s.batchQuota = quotaCap
	}

	if s.batchQuota < 1.0 {
		return nil
	}

	candidates := s.collectCandidates(viewer)
	if len(candidates) == 0 {
		return nil
	}

	n := int(s.batchQuota)
	if n > len(candidates) {
		n = len(candidates)
	}
	batch := candidates[:n]

	if err := s.sink.SendChunkBatchStart(); err != nil {
		return err
	}
	for _, c := range batch {
		access, ok := c.holder.At(world.StatusFull)
		if !ok {
			continue
		}
		if err := s.sink.SendChunk(c.pos, access); err != nil {
			return err
		}
		delete(s.pendingChunks, c.pos)
	}
	if err := s.sink.SendChunkBatchFinished(len(batch)); err != nil {
		return err
	}

	s.batchQuota -= float64(len(batch))
	s.unacknowledgedBatches++
	return nil
}

// BroadcastLightUpdates scans the view-distance ring around viewer and
// sends a CLightUpdate for every chunk whose sky or block light
// changed since the last broadcast, then clears those flags. Ring
// order matches vanilla: every loaded chunk within Chebyshev
// viewDistance of the viewer, not just the pending set.
func (s *ChunkSender) BroadcastLightUpdates(viewer world.ChunkPos, viewDistance int32) error {
	for dz := -viewDistance; dz <= viewDistance; dz++ {
		for dx := -viewDistance; dx <= viewDistance; dx++ {
			pos := world.ChunkPos{X: viewer.X + dx, Z: viewer.Z + dz}
			if _, ok := s.holders.Holder(pos); !ok {
				continue
			}
			update := s.extractLightUpdate(pos)
			if update.Empty() {
				continue
			}
			if err := s.sink.SendLightUpdate(update); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *ChunkSender) extractLightUpdate(pos world.ChunkPos) LightUpdate {
	sky, block := s.light.ConsumeChangedSections(pos)
	update := LightUpdate{Pos: pos, SkyMask: sky, BlockMask: block}
	for i := 0; i < s.sectionCount; i++ {
		sectionY := s.minSectionY + int32(i)
		bit := light.SectionBit(sectionY)
		if sky&(1<<bit) != 0 {
			update.SkyUpdates = append(update.SkyUpdates, s.light.SectionBytes(pos, sectionY, true))
		}
		if block&(1<<bit) != 0 {
			update.BlockUpdates = append(update.BlockUpdates, s.light.SectionBytes(pos, sectionY, false))
		}
	}
	return update
}

// PendingCount reports how many chunks are still queued to send,
// mostly useful for tests and metrics.
func (s *ChunkSender) PendingCount() int { return len(s.pendingChunks) }

// UnacknowledgedBatches reports the current in-flight batch count.
func (s *ChunkSender) UnacknowledgedBatches() uint16 { return s.unacknowledgedBatches }
