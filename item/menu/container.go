package menu

import "github.com/steelforge/voxelcore/item"

// SliceContainer is a fixed-size Container backed by a plain slice,
// the generic backing store for chests/barrels/player inventories and
// for tests exercising Menu in isolation.
type SliceContainer struct {
	items   []item.Stack
	changed func()
}

// NewSliceContainer builds a SliceContainer with size slots, all
// empty.
func NewSliceContainer(size int) *SliceContainer {
	return &SliceContainer{items: make([]item.Stack, size)}
}

// OnChanged installs a callback invoked whenever SetChanged runs, so
// callers can mark a block entity dirty or broadcast an update.
func (c *SliceContainer) OnChanged(fn func()) { c.changed = fn }

// Item returns slot's contents, or the empty stack if out of range.
func (c *SliceContainer) Item(slot int) item.Stack {
	if slot < 0 || slot >= len(c.items) {
		return item.Empty()
	}
	return c.items[slot]
}

// SetItem overwrites slot's contents.
func (c *SliceContainer) SetItem(slot int, stack item.Stack) {
	if slot < 0 || slot >= len(c.items) {
		return
	}
	c.items[slot] = stack
}

// SetChanged invokes the installed change callback, if any.
func (c *SliceContainer) SetChanged() {
	if c.changed != nil {
		c.changed()
	}
}

// Size returns the number of slots this container has.
func (c *SliceContainer) Size() int { return len(c.items) }
