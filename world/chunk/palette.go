package chunk

import "math/bits"

// paletteMode mirrors the palette progression spec.md §3.3 describes:
// "single-entry → linear (small set) → hashmap (medium) → global
// registry indices (large)". Linear and hashmap lookup only differ in
// how the entry list is searched, not in the storage layout, so both
// collapse into a single indirect mode here; global drops the entry
// table entirely and stores registry indices directly.
type paletteMode uint8

const (
	paletteSingle paletteMode = iota
	paletteIndirect
	paletteGlobal
)

// Palette is a paletted fixed-size array of T values (block states or
// biome refs). It starts as a single repeated value, grows an
// indirect lookup table as distinct values are inserted (widening its
// backing PackedArray as needed), and promotes to storing registry
// indices directly once the indirect table would need more bits than
// maxIndirectBits.
type Palette[T comparable] struct {
	mode  paletteMode
	entry T // paletteSingle value

	entries []T
	index   map[T]int

	storage *PackedArray

	globalBits      int
	maxIndirectBits int
	toGlobal        func(T) uint32
	fromGlobal      func(uint32) T
}

// NewPalette builds a palette of count entries, all initially
// defaultValue. globalBits is the width used once the palette
// promotes to direct registry-index storage; maxIndirectBits is the
// largest indirect-table width still worth keeping before promoting.
func NewPalette[T comparable](count int, defaultValue T, globalBits, maxIndirectBits int, toGlobal func(T) uint32, fromGlobal func(uint32) T) *Palette[T] {
	return &Palette[T]{
		mode:            paletteSingle,
		entry:           defaultValue,
		storage:         NewPackedArray(count, 0),
		globalBits:      globalBits,
		maxIndirectBits: maxIndirectBits,
		toGlobal:        toGlobal,
		fromGlobal:      fromGlobal,
	}
}

// Get returns the value at index i.
func (p *Palette[T]) Get(i int) T {
	switch p.mode {
	case paletteSingle:
		return p.entry
	case paletteGlobal:
		return p.fromGlobal(p.storage.Get(i))
	default:
		idx := int(p.storage.Get(i))
		if idx >= len(p.entries) {
			idx = 0
		}
		return p.entries[idx]
	}
}

// Set stores v at index i, growing the palette's representation as
// necessary.
func (p *Palette[T]) Set(i int, v T) {
	switch p.mode {
	case paletteSingle:
		if p.entry == v {
			return
		}
		p.growFromSingle()
		p.Set(i, v)
	case paletteGlobal:
		p.storage.Set(i, p.toGlobal(v))
	default:
		idx, ok := p.index[v]
		if !ok {
			idx = p.insertIndirect(v)
			if p.mode == paletteGlobal {
				p.storage.Set(i, p.toGlobal(v))
				return
			}
		}
		p.storage.Set(i, uint32(idx))
	}
}

func (p *Palette[T]) growFromSingle() {
	old := p.entry
	p.entries = []T{old}
	p.index = map[T]int{old: 0}
	p.storage = NewPackedArray(p.storage.count, 1)
	p.mode = paletteIndirect
}

// insertIndirect adds v to the indirect entry table, widening the
// backing storage if needed, or promotes to global mode if the new
// entry count no longer fits within maxIndirectBits. Returns the new
// entry's index (meaningless if a promotion occurred; the caller must
// check p.mode afterward).
func (p *Palette[T]) insertIndirect(v T) int {
	idx := len(p.entries)
	p.entries = append(p.entries, v)
	p.index[v] = idx

	needed := bits.Len(uint(idx))
	if needed == 0 {
		needed = 1
	}
	if needed > p.maxIndirectBits {
		p.promoteToGlobal()
		return idx
	}
	if needed > p.storage.BitsPerEntry() {
		p.storage = p.storage.Resize(needed)
	}
	return idx
}

func (p *Palette[T]) promoteToGlobal() {
	old := p.storage
	values := make([]T, old.count)
	for i := 0; i < old.count; i++ {
		idx := int(old.Get(i))
		if idx >= len(p.entries) {
			idx = 0
		}
		values[i] = p.entries[idx]
	}
	p.storage = NewPackedArray(old.count, p.globalBits)
	for i, v := range values {
		p.storage.Set(i, p.toGlobal(v))
	}
	p.entries = nil
	p.index = nil
	p.mode = paletteGlobal
}

// Len returns the number of distinct entries currently in the palette
// (1 while single, growing while indirect, undefined/0 once global).
func (p *Palette[T]) Len() int {
	switch p.mode {
	case paletteSingle:
		return 1
	case paletteGlobal:
		return 0
	default:
		return len(p.entries)
	}
}

// BitsPerEntry returns the current backing storage width (0 while
// single-entry).
func (p *Palette[T]) BitsPerEntry() int { return p.storage.BitsPerEntry() }
