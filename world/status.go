package world

// Status is a chunk's position in the generation pipeline, in the
// fixed total order spec.md §3.4 defines. Each status has a
// compile-time-known dependency radius: to promote a chunk to s, every
// chunk within Chebyshev distance r_s of it must already be at status
// pred(s).
type Status uint8

const (
	StatusEmpty Status = iota
	StatusStructureStarts
	StatusStructureReferences
	StatusBiomes
	StatusNoise
	StatusSurface
	StatusCarvers
	StatusFeatures
	StatusInitializeLight
	StatusLight
	StatusSpawn
	StatusFull

	statusCount
)

// dependencyRadius is r_s for each status, fixed per the generation
// pyramid contract: most statuses need only the chunk itself;
// structure references reach 8 chunks out, and features and light 1,
// since they may read or write across chunk borders.
var dependencyRadius = [statusCount]int{
	StatusEmpty:                0,
	StatusStructureStarts:      0,
	StatusStructureReferences:  8,
	StatusBiomes:               0,
	StatusNoise:                0,
	StatusSurface:              0,
	StatusCarvers:              0,
	StatusFeatures:             1,
	StatusInitializeLight:      0,
	StatusLight:                1,
	StatusSpawn:                0,
	StatusFull:                 0,
}

// DependencyRadius returns r_s for status s.
func (s Status) DependencyRadius() int { return dependencyRadius[s] }

// Pred returns the status that must hold for a chunk's neighbors
// before s can be computed. Pred(Empty) is Empty itself: nothing
// depends on anything to be merely Empty.
func (s Status) Pred() Status {
	if s == StatusEmpty {
		return StatusEmpty
	}
	return s - 1
}

// Before reports whether s precedes other in the fixed status order.
func (s Status) Before(other Status) bool { return s < other }

// cumulativeRadius is r_s* = sum_{t<=s} r_t, the total ring width of
// Empty chunks needed around a single chunk to carry it all the way to
// status s.
var cumulativeRadius [statusCount]int

func init() {
	sum := 0
	for s := Status(0); s < statusCount; s++ {
		sum += dependencyRadius[s]
		cumulativeRadius[s] = sum
	}
}

// CumulativeRadius returns r_s*.
func (s Status) CumulativeRadius() int { return cumulativeRadius[s] }

func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "Empty"
	case StatusStructureStarts:
		return "StructureStarts"
	case StatusStructureReferences:
		return "StructureReferences"
	case StatusBiomes:
		return "Biomes"
	case StatusNoise:
		return "Noise"
	case StatusSurface:
		return "Surface"
	case StatusCarvers:
		return "Carvers"
	case StatusFeatures:
		return "Features"
	case StatusInitializeLight:
		return "InitializeLight"
	case StatusLight:
		return "Light"
	case StatusSpawn:
		return "Spawn"
	case StatusFull:
		return "Full"
	default:
		return "Unknown"
	}
}

// MaxViewDistance is the ticket-level threshold at or below which a
// chunk must reach StatusFull (spec.md §3.5): chunks any player can
// actually see need full block/entity simulation, not just terrain.
const MaxViewDistance = 32

// TargetStatus derives the status a chunk must reach for the given
// ticket level: at or within MaxViewDistance it's Full, and each ring
// beyond that drops one status along the pyramid, bottoming out at
// Empty once the level exceeds the number of non-Full statuses.
func TargetStatus(ticketLevel int) Status {
	if ticketLevel <= MaxViewDistance {
		return StatusFull
	}
	drop := ticketLevel - MaxViewDistance
	if drop >= int(StatusFull) {
		return StatusEmpty
	}
	return StatusFull - Status(drop)
}
