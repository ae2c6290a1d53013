// Package item holds the value types menus and inventories move
// around: an opaque item identity plus a count, generalized from
// steel_registry::item_stack::ItemStack's clone-by-value semantics.
package item

// Stack is an item identity (Kind, plus arbitrary component data for
// enchantments/durability/custom-name overrides) with a count. The
// zero Stack is empty.
type Stack struct {
	Kind       string
	Count      int32
	MaxStack   int32
	Components map[string]any
}

// Empty returns the empty stack.
func Empty() Stack { return Stack{} }

// IsEmpty reports whether s carries no items.
func (s Stack) IsEmpty() bool { return s.Kind == "" || s.Count <= 0 }

// MaxStackSize returns s's stacking limit, defaulting to 64 the way
// vanilla items do when no explicit limit applies.
func (s Stack) MaxStackSize() int32 {
	if s.MaxStack <= 0 {
		return 64
	}
	return s.MaxStack
}

// IsStackable reports whether more than one of this item can occupy a
// single slot.
func (s Stack) IsStackable() bool { return !s.IsEmpty() && s.MaxStackSize() > 1 }

// CopyWithCount returns a copy of s with its count replaced.
func (s Stack) CopyWithCount(count int32) Stack {
	c := s
	c.Count = count
	return c
}

// Grow increases s's count by n.
func (s *Stack) Grow(n int32) { s.Count += n }

// Shrink decreases s's count by n, floored at zero (at zero count the
// stack reads as empty regardless of Kind).
func (s *Stack) Shrink(n int32) {
	s.Count -= n
	if s.Count < 0 {
		s.Count = 0
	}
}

// SetCount overwrites s's count directly.
func (s *Stack) SetCount(count int32) { s.Count = count }

// Split removes up to n items from s (capped at s's count) and
// returns them as a new stack of the same kind.
func (s *Stack) Split(n int32) Stack {
	if n > s.Count {
		n = s.Count
	}
	if n < 0 {
		n = 0
	}
	out := s.CopyWithCount(n)
	s.Count -= n
	return out
}

// SameItemSameComponents reports whether a and b are the same item
// kind with identical component data — the gate every merge/stack
// operation uses before combining two stacks.
func SameItemSameComponents(a, b Stack) bool {
	if a.Kind != b.Kind {
		return false
	}
	return componentsEqual(a.Components, b.Components)
}

func componentsEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || av != bv {
			return false
		}
	}
	return true
}
