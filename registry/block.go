package registry

// StateID is the opaque 16-bit global index spec.md §3.1 describes: a
// block-state id pointing into the registry's one global table.
type StateID uint16

// BlockConfig is the per-block config record shared by every state of
// one block (spec.md §3.1: "a config record holding is_air,
// replaceable, has_collision, ignite_odds, burn_odds, …").
type BlockConfig struct {
	IsAir        bool
	Replaceable  bool
	HasCollision bool
	// Flammable mirrors vanilla's "can catch fire at all" flag
	// independent of the specific odds. No code in this module reads
	// it; FireWorld answers from IgniteOdds and BurnOdds.
	Flammable  bool
	IgniteOdds uint8
	BurnOdds   uint8
}

// BlockType is one block kind: a shared config plus the property
// schema spanning every state id it owns. States are addressed by
// mixed-radix arithmetic over the property value counts rather than
// an explicit combination table, so SetValue/GetValue are stride
// arithmetic after a scan of the block's short property list (spec.md §3.1's set_value/get_value round-trip
// invariant), matching the spirit of steel-registry's Property<T>
// index methods without materializing every combination up front.
type BlockType struct {
	Name       string
	Config     BlockConfig
	Properties []Property

	strides []int
	count   int
	base    StateID
}

// NewBlockType builds a block kind with the given config and property
// schema. Properties with zero value count would produce a
// zero-state block, which never happens for any real property, so
// it's not guarded against here.
func NewBlockType(name string, cfg BlockConfig, props ...Property) *BlockType {
	bt := &BlockType{Name: name, Config: cfg, Properties: props}
	bt.strides = make([]int, len(props))
	stride := 1
	for i := len(props) - 1; i >= 0; i-- {
		bt.strides[i] = stride
		stride *= props[i].ValueCount()
	}
	bt.count = stride
	return bt
}

// StateCount returns how many distinct state ids bt owns.
func (bt *BlockType) StateCount() int { return bt.count }

// DefaultState returns bt's default state: every property at its
// index-0 value.
func (bt *BlockType) DefaultState() StateID { return bt.base }

func (bt *BlockType) indexOf(prop Property) int {
	for i, p := range bt.Properties {
		if p.Name() == prop.Name() {
			return i
		}
	}
	return -1
}

func (bt *BlockType) valueIndexAt(local, propIdx int) int {
	return (local / bt.strides[propIdx]) % bt.Properties[propIdx].ValueCount()
}

// GetValue returns the internal index prop holds on id, or false if
// id doesn't belong to bt or bt has no such property.
func (bt *BlockType) GetValue(id StateID, prop Property) (int, bool) {
	local := int(id) - int(bt.base)
	if local < 0 || local >= bt.count {
		return 0, false
	}
	propIdx := bt.indexOf(prop)
	if propIdx < 0 {
		return 0, false
	}
	return bt.valueIndexAt(local, propIdx), true
}

// SetValue returns the state id reached by changing prop to
// valueIndex on id, leaving every other property untouched. Round-
// trips with GetValue for every valid (id, prop, valueIndex): that's
// spec.md §3.1's "set_value/try_get_value/get_value round-trip"
// invariant.
func (bt *BlockType) SetValue(id StateID, prop Property, valueIndex int) (StateID, bool) {
	local := int(id) - int(bt.base)
	if local < 0 || local >= bt.count {
		return 0, false
	}
	propIdx := bt.indexOf(prop)
	if propIdx < 0 {
		return 0, false
	}
	if valueIndex < 0 || valueIndex >= bt.Properties[propIdx].ValueCount() {
		return 0, false
	}
	cur := bt.valueIndexAt(local, propIdx)
	local += (valueIndex - cur) * bt.strides[propIdx]
	return bt.base + StateID(local), true
}

// StateTable assigns a contiguous global StateID range to each
// registered BlockType — "an opaque 16-bit index into a global,
// read-only registry" (spec.md §3.1) — and answers the reverse lookup
// a paletted chunk section needs to turn a stored uint16 back into
// its owning BlockType.
type StateTable struct {
	owners []*BlockType
	byName map[string]*BlockType
}

// NewStateTable builds an empty table.
func NewStateTable() *StateTable {
	return &StateTable{byName: make(map[string]*BlockType)}
}

// Register assigns bt the next free range of state ids.
func (t *StateTable) Register(bt *BlockType) {
	bt.base = StateID(len(t.owners))
	for i := 0; i < bt.count; i++ {
		t.owners = append(t.owners, bt)
	}
	t.byName[bt.Name] = bt
}

// Lookup returns the BlockType owning id.
func (t *StateTable) Lookup(id StateID) (*BlockType, bool) {
	if int(id) < 0 || int(id) >= len(t.owners) {
		return nil, false
	}
	return t.owners[id], true
}

// ByName returns the registered BlockType with the given name.
func (t *StateTable) ByName(name string) (*BlockType, bool) {
	bt, ok := t.byName[name]
	return bt, ok
}

// Len returns the number of state ids assigned so far.
func (t *StateTable) Len() int { return len(t.owners) }
