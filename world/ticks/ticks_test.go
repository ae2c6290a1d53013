package ticks

import "testing"

func TestLevelChunkTicksOrdersByComparator(t *testing.T) {
	c := NewLevelChunkTicks[uint32]()
	c.Schedule(withPriority[uint32](1, BlockPos{X: 1}, 10, PriorityNormal, 2))
	c.Schedule(withPriority[uint32](2, BlockPos{X: 2}, 5, PriorityNormal, 1))
	c.Schedule(withPriority[uint32](3, BlockPos{X: 3}, 10, PriorityHigh, 0))

	want := []BlockPos{{X: 2}, {X: 3}, {X: 1}}
	for _, w := range want {
		tick, ok := c.Poll()
		if !ok || tick.Pos != w {
			t.Fatalf("poll order wrong: got %v, want %v", tick.Pos, w)
		}
	}
	if _, ok := c.Poll(); ok {
		t.Fatal("container should be empty")
	}
}

func TestLevelChunkTicksDedup(t *testing.T) {
	c := NewLevelChunkTicks[uint32]()
	pos := BlockPos{X: 1, Y: 2, Z: 3}

	if !c.Schedule(withPriority[uint32](1, pos, 10, PriorityNormal, 0)) {
		t.Fatal("first schedule should succeed")
	}
	if c.Schedule(withPriority[uint32](1, pos, 20, PriorityNormal, 1)) {
		t.Fatal("duplicate (pos, type) should be rejected")
	}
	if c.Count() != 1 {
		t.Fatalf("count = %d, want 1", c.Count())
	}

	tick, ok := c.Poll()
	if !ok || tick.TriggerTick != 10 {
		t.Fatalf("expected the original trigger_tick=10 to survive, got %+v", tick)
	}

	// Once polled, the same (pos, type) can be scheduled again.
	if !c.Schedule(withPriority[uint32](1, pos, 30, PriorityNormal, 2)) {
		t.Fatal("re-scheduling after poll should succeed")
	}
}
