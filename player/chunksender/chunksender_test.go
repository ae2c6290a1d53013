package chunksender

import (
	"testing"

	"github.com/steelforge/voxelcore/world"
	"github.com/steelforge/voxelcore/world/light"
)

type fakeAccess struct {
	pos    world.ChunkPos
	status world.Status
}

func (f fakeAccess) Pos() world.ChunkPos  { return f.pos }
func (f fakeAccess) Status() world.Status { return f.status }

type fakeHolders struct {
	holders map[world.ChunkPos]*world.ChunkHolder
}

func newFakeHolders() *fakeHolders {
	return &fakeHolders{holders: make(map[world.ChunkPos]*world.ChunkHolder)}
}

func (f *fakeHolders) Holder(pos world.ChunkPos) (*world.ChunkHolder, bool) {
	h, ok := f.holders[pos]
	return h, ok
}

func (f *fakeHolders) addFull(pos world.ChunkPos) {
	h := world.NewChunkHolder(pos)
	h.Publish(world.StatusFull, fakeAccess{pos: pos, status: world.StatusFull})
	f.holders[pos] = h
}

func (f *fakeHolders) addPartial(pos world.ChunkPos, status world.Status) {
	h := world.NewChunkHolder(pos)
	h.Publish(status, fakeAccess{pos: pos, status: status})
	f.holders[pos] = h
}

type lightChange struct {
	sky, block uint32
}

type fakeLight struct {
	changes map[world.ChunkPos]lightChange
}

func newFakeLight() *fakeLight { return &fakeLight{changes: make(map[world.ChunkPos]lightChange)} }

func (f *fakeLight) ConsumeChangedSections(pos world.ChunkPos) (sky, block uint32) {
	c := f.changes[pos]
	delete(f.changes, pos)
	return c.sky, c.block
}

func (f *fakeLight) SectionBytes(pos world.ChunkPos, sectionY int32, sky bool) []byte {
	return []byte{byte(sectionY), boolByte(sky)}
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

type sinkCall struct {
	kind string
	pos  world.ChunkPos
	n    int
}

type fakeSink struct {
	calls        []sinkCall
	lightUpdates []LightUpdate
}

func (s *fakeSink) SendChunkBatchStart() error {
	s.calls = append(s.calls, sinkCall{kind: "start"})
	return nil
}

func (s *fakeSink) SendChunk(pos world.ChunkPos, access world.ChunkAccess) error {
	s.calls = append(s.calls, sinkCall{kind: "chunk", pos: pos})
	return nil
}

func (s *fakeSink) SendChunkBatchFinished(n int) error {
	s.calls = append(s.calls, sinkCall{kind: "finish", n: n})
	return nil
}

func (s *fakeSink) SendForgetChunk(pos world.ChunkPos) error {
	s.calls = append(s.calls, sinkCall{kind: "forget", pos: pos})
	return nil
}

func (s *fakeSink) SendLightUpdate(update LightUpdate) error {
	s.lightUpdates = append(s.lightUpdates, update)
	return nil
}

func newTestSender(holders *fakeHolders, lt *fakeLight, sink *fakeSink, desired float64) *ChunkSender {
	return New(Config{
		Holders:              holders,
		Light:                lt,
		Sink:                 sink,
		MinSectionY:          -4,
		SectionCount:         24,
		DesiredChunksPerTick: desired,
	})
}

func TestSendNextChunksDispatchesBatchOfFullChunks(t *testing.T) {
	holders := newFakeHolders()
	holders.addFull(world.ChunkPos{X: 0, Z: 0})
	holders.addFull(world.ChunkPos{X: 1, Z: 0})

	sink := &fakeSink{}
	s := newTestSender(holders, newFakeLight(), sink, 10)
	s.MarkChunkPending(world.ChunkPos{X: 0, Z: 0})
	s.MarkChunkPending(world.ChunkPos{X: 1, Z: 0})

	if err := s.SendNextChunks(world.ChunkPos{}); err != nil {
		t.Fatalf("SendNextChunks: %v", err)
	}

	if len(sink.calls) != 4 {
		t.Fatalf("got %d sink calls, want 4 (start, chunk, chunk, finish): %+v", len(sink.calls), sink.calls)
	}
	if sink.calls[0].kind != "start" || sink.calls[len(sink.calls)-1].kind != "finish" {
		t.Fatalf("batch not bracketed by start/finish: %+v", sink.calls)
	}
	if sink.calls[len(sink.calls)-1].n != 2 {
		t.Fatalf("finish count = %d, want 2", sink.calls[len(sink.calls)-1].n)
	}
	if s.PendingCount() != 0 {
		t.Fatalf("PendingCount = %d, want 0 after dispatch", s.PendingCount())
	}
	if s.UnacknowledgedBatches() != 1 {
		t.Fatalf("UnacknowledgedBatches = %d, want 1", s.UnacknowledgedBatches())
	}
}

func TestSendNextChunksSkipsChunksNotYetFull(t *testing.T) {
	holders := newFakeHolders()
	holders.addFull(world.ChunkPos{X: 0, Z: 0})
	holders.addPartial(world.ChunkPos{X: 5, Z: 5}, world.StatusNoise)

	sink := &fakeSink{}
	s := newTestSender(holders, newFakeLight(), sink, 10)
	s.MarkChunkPending(world.ChunkPos{X: 0, Z: 0})
	s.MarkChunkPending(world.ChunkPos{X: 5, Z: 5})

	if err := s.SendNextChunks(world.ChunkPos{}); err != nil {
		t.Fatalf("SendNextChunks: %v", err)
	}

	if s.PendingCount() != 1 {
		t.Fatalf("PendingCount = %d, want 1 (the not-yet-Full chunk stays pending)", s.PendingCount())
	}
	for _, c := range sink.calls {
		if c.kind == "chunk" && c.pos == (world.ChunkPos{X: 5, Z: 5}) {
			t.Fatal("non-Full chunk was sent")
		}
	}
}

func TestSendNextChunksRespectsUnacknowledgedBatchCap(t *testing.T) {
	holders := newFakeHolders()
	holders.addFull(world.ChunkPos{X: 0, Z: 0})

	sink := &fakeSink{}
	s := newTestSender(holders, newFakeLight(), sink, 10)
	s.MarkChunkPending(world.ChunkPos{X: 0, Z: 0})
	s.unacknowledgedBatches = s.maxUnacknowledgedBatches

	if err := s.SendNextChunks(world.ChunkPos{}); err != nil {
		t.Fatalf("SendNextChunks: %v", err)
	}
	if len(sink.calls) != 0 {
		t.Fatalf("got %d sink calls while at the unacknowledged-batch cap, want 0", len(sink.calls))
	}
	if s.PendingCount() != 1 {
		t.Fatalf("PendingCount = %d, want 1 (nothing dispatched)", s.PendingCount())
	}
}

func TestSendNextChunksDispatchesAtMostFloorQuotaPerTick(t *testing.T) {
	holders := newFakeHolders()
	for i := int32(0); i < 5; i++ {
		holders.addFull(world.ChunkPos{X: i, Z: 0})
	}

	sink := &fakeSink{}
	s := newTestSender(holders, newFakeLight(), sink, 2.4)
	for i := int32(0); i < 5; i++ {
		s.MarkChunkPending(world.ChunkPos{X: i, Z: 0})
	}

	if err := s.SendNextChunks(world.ChunkPos{}); err != nil {
		t.Fatalf("SendNextChunks: %v", err)
	}
	sentFirst := countKind(sink.calls, "chunk")
	if sentFirst != 2 {
		t.Fatalf("first tick sent %d chunks, want floor(2.4) = 2", sentFirst)
	}
	if s.PendingCount() != 3 {
		t.Fatalf("PendingCount after first tick = %d, want 3", s.PendingCount())
	}

	// Ack the first batch so a second can go out; the next tick tops
	// the quota back up.
	s.OnChunkBatchReceived()
	sink.calls = nil
	if err := s.SendNextChunks(world.ChunkPos{}); err != nil {
		t.Fatalf("SendNextChunks (2nd): %v", err)
	}
	sentSecond := countKind(sink.calls, "chunk")
	if sentSecond == 0 {
		t.Fatal("second tick sent no chunks despite an acked slot and accumulated quota")
	}
}

func countKind(calls []sinkCall, kind string) int {
	n := 0
	for _, c := range calls {
		if c.kind == kind {
			n++
		}
	}
	return n
}

func TestSendNextChunksOrdersNearestFirst(t *testing.T) {
	holders := newFakeHolders()
	far := world.ChunkPos{X: 10, Z: 0}
	near := world.ChunkPos{X: 1, Z: 0}
	holders.addFull(far)
	holders.addFull(near)

	sink := &fakeSink{}
	s := newTestSender(holders, newFakeLight(), sink, 1)
	s.MarkChunkPending(far)
	s.MarkChunkPending(near)

	if err := s.SendNextChunks(world.ChunkPos{}); err != nil {
		t.Fatalf("SendNextChunks: %v", err)
	}

	var sentPos world.ChunkPos
	for _, c := range sink.calls {
		if c.kind == "chunk" {
			sentPos = c.pos
		}
	}
	if sentPos != near {
		t.Fatalf("first chunk sent = %+v, want the nearer chunk %+v", sentPos, near)
	}
}

func TestDropChunkStillPendingDoesNotSendForget(t *testing.T) {
	holders := newFakeHolders()
	sink := &fakeSink{}
	s := newTestSender(holders, newFakeLight(), sink, 10)
	pos := world.ChunkPos{X: 2, Z: 2}
	s.MarkChunkPending(pos)

	if err := s.DropChunk(pos); err != nil {
		t.Fatalf("DropChunk: %v", err)
	}
	if len(sink.calls) != 0 {
		t.Fatalf("got %d sink calls, want 0 (chunk was never actually sent)", len(sink.calls))
	}
	if s.PendingCount() != 0 {
		t.Fatalf("PendingCount = %d, want 0", s.PendingCount())
	}
}

func TestDropChunkAlreadySentSendsForget(t *testing.T) {
	holders := newFakeHolders()
	sink := &fakeSink{}
	s := newTestSender(holders, newFakeLight(), sink, 10)
	pos := world.ChunkPos{X: 3, Z: 3}

	if err := s.DropChunk(pos); err != nil {
		t.Fatalf("DropChunk: %v", err)
	}
	if len(sink.calls) != 1 || sink.calls[0].kind != "forget" || sink.calls[0].pos != pos {
		t.Fatalf("sink calls = %+v, want one forget(%v)", sink.calls, pos)
	}
}

func TestOnChunkBatchReceivedDecrementsCounter(t *testing.T) {
	holders := newFakeHolders()
	sink := &fakeSink{}
	s := newTestSender(holders, newFakeLight(), sink, 10)
	s.unacknowledgedBatches = 2

	s.OnChunkBatchReceived()
	if s.UnacknowledgedBatches() != 1 {
		t.Fatalf("UnacknowledgedBatches = %d, want 1", s.UnacknowledgedBatches())
	}
	s.OnChunkBatchReceived()
	s.OnChunkBatchReceived()
	if s.UnacknowledgedBatches() != 0 {
		t.Fatalf("UnacknowledgedBatches = %d, want 0 (must not go negative)", s.UnacknowledgedBatches())
	}
}

func TestBroadcastLightUpdatesSendsOnlyNonEmptyDiffs(t *testing.T) {
	holders := newFakeHolders()
	changed := world.ChunkPos{X: 0, Z: 0}
	unchanged := world.ChunkPos{X: 1, Z: 0}
	holders.addFull(changed)
	holders.addFull(unchanged)

	lt := newFakeLight()
	lt.changes[changed] = lightChange{sky: 1 << light.SectionBit(0), block: 0}

	sink := &fakeSink{}
	s := newTestSender(holders, lt, sink, 10)

	if err := s.BroadcastLightUpdates(world.ChunkPos{}, 1); err != nil {
		t.Fatalf("BroadcastLightUpdates: %v", err)
	}

	if len(sink.lightUpdates) != 1 {
		t.Fatalf("got %d light updates, want 1", len(sink.lightUpdates))
	}
	if sink.lightUpdates[0].Pos != changed {
		t.Fatalf("light update pos = %+v, want %+v", sink.lightUpdates[0].Pos, changed)
	}
	if len(sink.lightUpdates[0].SkyUpdates) != 1 {
		t.Fatalf("got %d sky section payloads, want 1", len(sink.lightUpdates[0].SkyUpdates))
	}
}
