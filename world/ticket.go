package world

// TicketType identifies why a chunk is being kept loaded.
type TicketType uint8

const (
	TicketPlayer TicketType = iota
	TicketPortal
	TicketForced
	TicketUnknown
)

// Ticket is a request that the chunk at Pos reach at least the status
// TargetStatus(Level) implies (spec.md §3.6).
type Ticket struct {
	Type  TicketType
	Pos   ChunkPos
	Level int
}

type ticketKey struct {
	typ TicketType
	pos ChunkPos
}

// TicketManager tracks every outstanding ticket and floods each one's
// level outward over Chebyshev rings, so every chunk within reach of a
// ticket knows the smallest (most urgent) level any ticket assigns it.
// Recompute re-floods every ticket from scratch; Dirty reports whether
// any ticket changed since the last Recompute.
type TicketManager struct {
	tickets map[ticketKey]Ticket
	levels  map[ChunkPos]int
	dirty   bool
}

// NewTicketManager returns an empty manager.
func NewTicketManager() *TicketManager {
	return &TicketManager{
		tickets: make(map[ticketKey]Ticket),
		levels:  make(map[ChunkPos]int),
	}
}

// Add installs or updates a ticket, marking the level table dirty so
// the next Recompute call re-floods.
func (m *TicketManager) Add(t Ticket) {
	m.tickets[ticketKey{t.Type, t.Pos}] = t
	m.dirty = true
}

// Remove drops a ticket. The chunks it used to reach stay loaded at
// whatever level their remaining tickets still imply, recomputed on
// the next Recompute call.
func (m *TicketManager) Remove(typ TicketType, pos ChunkPos) {
	if _, ok := m.tickets[ticketKey{typ, pos}]; !ok {
		return
	}
	delete(m.tickets, ticketKey{typ, pos})
	m.dirty = true
}

// Level returns the current ticket level of pos, and false if no
// ticket reaches it.
func (m *TicketManager) Level(pos ChunkPos) (int, bool) {
	l, ok := m.levels[pos]
	return l, ok
}

// Dirty reports whether any ticket has changed since the last
// Recompute.
func (m *TicketManager) Dirty() bool { return m.dirty }

// Recompute re-floods every ticket's level outward from scratch and
// returns the full resulting level table. Each source chunk gets its
// ticket's level; a neighbor at Chebyshev distance d inherits level+d,
// taking the minimum across every ticket and every path that reaches
// it (a breadth-first relaxation identical in shape to the light
// engine's propagateIncrease pass, just over ticket level instead of
// light level).
func (m *TicketManager) Recompute() map[ChunkPos]int {
	levels := make(map[ChunkPos]int, len(m.levels))
	type frontierEntry struct {
		pos   ChunkPos
		level int
	}
	var frontier []frontierEntry

	for _, t := range m.tickets {
		if cur, ok := levels[t.Pos]; !ok || t.Level < cur {
			levels[t.Pos] = t.Level
			frontier = append(frontier, frontierEntry{t.Pos, t.Level})
		}
	}

	maxLevel := MaxViewDistance + int(StatusFull) + 1
	for len(frontier) > 0 {
		next := frontier[:0:0]
		for _, e := range frontier {
			if e.level >= maxLevel {
				continue
			}
			for dx := -1; dx <= 1; dx++ {
				for dz := -1; dz <= 1; dz++ {
					if dx == 0 && dz == 0 {
						continue
					}
					npos := ChunkPos{X: e.pos.X + int32(dx), Z: e.pos.Z + int32(dz)}
					nlevel := e.level + 1
					if cur, ok := levels[npos]; ok && cur <= nlevel {
						continue
					}
					levels[npos] = nlevel
					next = append(next, frontierEntry{npos, nlevel})
				}
			}
		}
		frontier = next
	}

	m.levels = levels
	m.dirty = false
	return levels
}
