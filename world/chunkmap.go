package world

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Generator performs the generation step for a single status,
// producing the ChunkAccess for pos given read-only neighbor views
// already confirmed to be at status.Pred() or better (spec.md §4.1
// step 3). It must not write to any chunk but pos; Features is the
// one status allowed to touch neighbors, and it does so through the
// NeighborView it's handed rather than by reaching outside the
// contract.
type Generator interface {
	GenerateStep(pos ChunkPos, status Status, neighbors NeighborView) (ChunkAccess, error)
}

// NeighborView looks up another chunk's access at a specific status,
// used by a Generator step to read (and, for Features only, write
// through the margin the pyramid radius protects) its surroundings.
type NeighborView interface {
	At(pos ChunkPos, status Status) (ChunkAccess, bool)
}

// ChunkMap owns every loaded chunk's holder, the ticket propagator
// feeding their target statuses, and a bounded pool of workers driving
// promotion jobs (spec.md §4.1's "chunk map" of F/G/H). It mirrors the
// teacher's World.chunks map + generatorQueue/generatorWorker split,
// generalized from one fixed "generate straight to Full" pipeline into
// the full Empty..Full status pyramid.
type ChunkMap struct {
	log       *slog.Logger
	generator Generator
	workers   int

	mu      sync.RWMutex
	holders map[ChunkPos]*ChunkHolder
	tickets *TicketManager

	jobs    chan ChunkPos
	closing chan struct{}
	wg      sync.WaitGroup

	loadedGauge prometheus.Gauge
	queueGauge  prometheus.Gauge
}

// ChunkMapConfig configures a ChunkMap; zero-value fields fall back to
// the same defaults the teacher's generator queue uses for its worker
// count and channel capacity.
type ChunkMapConfig struct {
	Logger    *slog.Logger
	Generator Generator
	Workers   int
	QueueSize int

	// Registerer receives the loaded-chunk-count and promotion-queue-
	// depth gauges, if set. A nil Registerer still creates the gauges
	// (so the rest of ChunkMap can update them unconditionally) but
	// leaves them unregistered.
	Registerer prometheus.Registerer
}

// NewChunkMap builds a ChunkMap and starts its promotion worker pool.
func NewChunkMap(cfg ChunkMapConfig) *ChunkMap {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 4096
	}
	m := &ChunkMap{
		log:       cfg.Logger,
		generator: cfg.Generator,
		workers:   cfg.Workers,
		holders:   make(map[ChunkPos]*ChunkHolder),
		tickets:   NewTicketManager(),
		jobs:      make(chan ChunkPos, cfg.QueueSize),
		closing:   make(chan struct{}),
		loadedGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "voxelcore_world_loaded_chunks",
			Help: "Number of chunk holders currently tracked by the chunk map.",
		}),
		queueGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "voxelcore_world_promotion_queue_depth",
			Help: "Number of promotion jobs enqueued but not yet picked up by a worker.",
		}),
	}
	if cfg.Registerer != nil {
		cfg.Registerer.MustRegister(m.loadedGauge, m.queueGauge)
	}
	for i := 0; i < cfg.Workers; i++ {
		m.wg.Add(1)
		go m.worker()
	}
	return m
}

// AddTicket installs a ticket, pulling in a holder for its position if
// one doesn't exist yet.
func (m *ChunkMap) AddTicket(t Ticket) {
	m.mu.Lock()
	m.holderLocked(t.Pos)
	m.mu.Unlock()
	m.tickets.Add(t)
}

// RemoveTicket drops a ticket; the chunks it reached stay loaded until
// the next StepTickets call re-floods and finds nothing else keeping
// them alive.
func (m *ChunkMap) RemoveTicket(typ TicketType, pos ChunkPos) {
	m.tickets.Remove(typ, pos)
}

func (m *ChunkMap) holderLocked(pos ChunkPos) *ChunkHolder {
	h, ok := m.holders[pos]
	if !ok {
		h = NewChunkHolder(pos)
		m.holders[pos] = h
	}
	return h
}

// Holder returns the holder at pos, if loaded.
func (m *ChunkMap) Holder(pos ChunkPos) (*ChunkHolder, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.holders[pos]
	return h, ok
}

// At implements NeighborView over this map's own holders.
func (m *ChunkMap) At(pos ChunkPos, status Status) (ChunkAccess, bool) {
	h, ok := m.Holder(pos)
	if !ok {
		return nil, false
	}
	return h.At(status)
}

// LoadedChunkCount returns how many holders are currently tracked.
func (m *ChunkMap) LoadedChunkCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.holders)
}

// StepTickets re-floods ticket levels (if any ticket changed since the
// last call), applies the new levels to every holder, unloads holders
// no ticket reaches anymore (spec.md §4.1 steps 1-2, "Termination"),
// and enqueues promotion jobs for every holder that still hasn't
// reached its target status. The last part runs every call regardless
// of whether tickets changed: a holder can be stuck only because a
// neighbor wasn't ready on a previous pass, and that neighbor may have
// finished since without any ticket changing, so it needs to be
// retried every tick, not just the tick its level last changed on.
// Jobs are enqueued in ascending ChunkPos order for determinism, the
// same role the teacher's redstone scheduler gives its Morton-sorted
// order.
func (m *ChunkMap) StepTickets() {
	if m.tickets.Dirty() {
		levels := m.tickets.Recompute()

		m.mu.Lock()
		for pos, level := range levels {
			m.holderLocked(pos).SetTicketLevel(level)
		}
		var unload []ChunkPos
		for pos, h := range m.holders {
			if _, reached := levels[pos]; !reached {
				h.SetTicketLevel(maxTicketLevel)
				if h.TargetStatus() == StatusEmpty {
					unload = append(unload, pos)
				}
			}
		}
		for _, pos := range unload {
			delete(m.holders, pos)
		}
		m.mu.Unlock()
	}

	m.mu.RLock()
	pending := make([]ChunkPos, 0, len(m.holders))
	for pos, h := range m.holders {
		if h.NeedsPromotion() {
			pending = append(pending, pos)
		}
	}
	m.loadedGauge.Set(float64(len(m.holders)))
	m.mu.RUnlock()

	sort.Slice(pending, func(i, j int) bool {
		if pending[i].X != pending[j].X {
			return pending[i].X < pending[j].X
		}
		return pending[i].Z < pending[j].Z
	})
	for _, pos := range pending {
		select {
		case m.jobs <- pos:
		default:
			m.log.Warn("chunk map: promotion queue full, dropping job for this tick", "x", pos.X, "z", pos.Z)
		}
	}
	m.queueGauge.Set(float64(len(m.jobs)))
}

func (m *ChunkMap) worker() {
	defer m.wg.Done()
	for {
		select {
		case pos := <-m.jobs:
			m.promote(pos)
		case <-m.closing:
			return
		}
	}
}

// promote advances the holder at pos one status at a time until it
// reaches its current target or a dependency isn't ready yet, in
// which case the remaining steps wait for a future tick (spec.md
// §4.1 step 3, "Jobs whose neighbors are not ready wait").
func (m *ChunkMap) promote(pos ChunkPos) {
	h, ok := m.Holder(pos)
	if !ok {
		return
	}
	for {
		target := h.TargetStatus()
		current := h.PersistedStatus()
		if current >= target {
			return
		}
		next := current + 1
		if current == StatusEmpty && h.chunkAt[StatusEmpty] == nil {
			next = StatusEmpty
		}
		if !m.neighborsReady(pos, next) {
			return
		}
		access, err := m.generator.GenerateStep(pos, next, m)
		if err != nil {
			m.log.Error("chunk map: promotion step failed", "x", pos.X, "z", pos.Z, "status", next.String(), "err", err)
			return
		}
		h.Publish(next, access)
		if next == StatusFull {
			h.MarkReady()
		}
	}
}

// neighborsReady reports whether every chunk within status's
// dependency radius of pos is at least at status.Pred().
func (m *ChunkMap) neighborsReady(pos ChunkPos, status Status) bool {
	r := status.DependencyRadius()
	need := status.Pred()
	for dx := -r; dx <= r; dx++ {
		for dz := -r; dz <= r; dz++ {
			npos := ChunkPos{X: pos.X + int32(dx), Z: pos.Z + int32(dz)}
			h, ok := m.Holder(npos)
			if !ok || h.PersistedStatus() < need {
				return false
			}
		}
	}
	return true
}

// Close stops the worker pool, letting in-flight jobs finish.
func (m *ChunkMap) Close() {
	close(m.closing)
	m.wg.Wait()
}
