package item

import "testing"

func TestIsEmpty(t *testing.T) {
	if !Empty().IsEmpty() {
		t.Fatal("zero-value Stack should be empty")
	}
	s := Stack{Kind: "minecraft:dirt", Count: 0}
	if !s.IsEmpty() {
		t.Fatal("zero-count stack should be empty regardless of kind")
	}
	s.Count = 1
	if s.IsEmpty() {
		t.Fatal("positive-count named stack should not be empty")
	}
}

func TestMaxStackSizeDefault(t *testing.T) {
	s := Stack{Kind: "minecraft:dirt", Count: 1}
	if got := s.MaxStackSize(); got != 64 {
		t.Fatalf("default max stack size = %d, want 64", got)
	}
	s.MaxStack = 16
	if got := s.MaxStackSize(); got != 16 {
		t.Fatalf("explicit max stack size = %d, want 16", got)
	}
}

func TestGrowShrink(t *testing.T) {
	s := Stack{Kind: "minecraft:stone", Count: 10}
	s.Grow(5)
	if s.Count != 15 {
		t.Fatalf("after Grow(5), count = %d, want 15", s.Count)
	}
	s.Shrink(20)
	if s.Count != 0 {
		t.Fatalf("Shrink below zero should floor at 0, got %d", s.Count)
	}
}

func TestSplitConservesCount(t *testing.T) {
	s := Stack{Kind: "minecraft:stone", Count: 10}
	half := s.Split(4)
	if half.Count != 4 || s.Count != 6 {
		t.Fatalf("split(4) from 10 = (%d,%d), want (4,6)", half.Count, s.Count)
	}
	if half.Kind != s.Kind {
		t.Fatalf("split result kind = %q, want %q", half.Kind, s.Kind)
	}
}

func TestSplitCapsAtCount(t *testing.T) {
	s := Stack{Kind: "minecraft:stone", Count: 3}
	taken := s.Split(10)
	if taken.Count != 3 || s.Count != 0 {
		t.Fatalf("over-split should cap at available count, got taken=%d remaining=%d", taken.Count, s.Count)
	}
}

func TestSameItemSameComponents(t *testing.T) {
	a := Stack{Kind: "minecraft:diamond_sword", Components: map[string]any{"minecraft:damage": 3}}
	b := Stack{Kind: "minecraft:diamond_sword", Components: map[string]any{"minecraft:damage": 3}}
	c := Stack{Kind: "minecraft:diamond_sword", Components: map[string]any{"minecraft:damage": 4}}
	d := Stack{Kind: "minecraft:diamond_pickaxe", Components: map[string]any{"minecraft:damage": 3}}

	if !SameItemSameComponents(a, b) {
		t.Fatal("identical kind+components should match")
	}
	if SameItemSameComponents(a, c) {
		t.Fatal("differing component value should not match")
	}
	if SameItemSameComponents(a, d) {
		t.Fatal("differing kind should not match")
	}
}

func TestIsStackable(t *testing.T) {
	stackable := Stack{Kind: "minecraft:dirt", Count: 1, MaxStack: 64}
	unique := Stack{Kind: "minecraft:diamond_sword", Count: 1, MaxStack: 1}
	if !stackable.IsStackable() {
		t.Fatal("64-max item should be stackable")
	}
	if unique.IsStackable() {
		t.Fatal("1-max item should not be stackable")
	}
	if Empty().IsStackable() {
		t.Fatal("empty stack should not be stackable")
	}
}
