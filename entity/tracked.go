// Package entity implements the tracked-entity broadcaster: per-entity
// visibility bookkeeping and the position/rotation/metadata delta
// encoding sent to the players watching it (spec.md §4.8 "Tracked
// entity").
package entity

import (
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// maxDeltaDistance is the largest single-step position change that
// can still be delta-encoded; anything larger needs an absolute
// teleport packet. i16 max / 128 / 32 ≈ 8 blocks.
const maxDeltaDistance = 8.0

// Rotation is a yaw/pitch pair in degrees.
type Rotation struct{ Yaw, Pitch float32 }

// Entry is one metadata slot's wire-ready value; its concrete typed
// encoding is the wire codec's concern (component O), not this
// package's.
type Entry struct {
	Index uint8
	Type  uint8
	Value any
}

// Source is the entity state TrackedEntity reads each tick; it is
// implemented by the concrete entity types (component N operates on
// this narrow interface rather than a single concrete Entity type, the
// same decoupling used for the aquifer sampler and fire block).
type Source interface {
	ID() int32
	UUID() uuid.UUID
	TypeID() int32
	Position() mgl64.Vec3
	Rotation() Rotation
	Velocity() mgl64.Vec3
	PackAll() []Entry
	PackDirty() []Entry
	StartSeenByPlayer(uuid.UUID)
	RemoveSeenByPlayer(uuid.UUID)
}

// Sink receives the outbound packet intents TrackedEntity produces for
// one viewing player's connection.
type Sink interface {
	SendAddEntity(AddEntity)
	SendMoveEntityPos(MoveEntityPos)
	SendMoveEntityRot(MoveEntityRot)
	SendMoveEntityPosRot(MoveEntityPosRot)
	SendTeleportEntity(TeleportEntity)
	SendRotateHead(RotateHead)
	SendSetEntityData(SetEntityData)
	SendRemoveEntities(RemoveEntities)
}

// AddEntity is the absolute spawn packet sent when a player first
// sees an entity.
type AddEntity struct {
	EntityID            int32
	UUID                uuid.UUID
	EntityType          int32
	X, Y, Z             float64
	Pitch, Yaw, HeadYaw int8
}

// MoveEntityPos is a fixed-point position-only delta.
type MoveEntityPos struct {
	EntityID   int32
	DX, DY, DZ int16
	OnGround   bool
}

// MoveEntityRot is a rotation-only update.
type MoveEntityRot struct {
	EntityID   int32
	Yaw, Pitch int8
	OnGround   bool
}

// MoveEntityPosRot is a combined fixed-point position delta and
// rotation update.
type MoveEntityPosRot struct {
	EntityID   int32
	DX, DY, DZ int16
	Yaw, Pitch int8
	OnGround   bool
}

// TeleportEntity is the absolute-position fallback used when a single
// step moves an entity further than delta encoding can represent.
type TeleportEntity struct {
	EntityID   int32
	X, Y, Z    float64
	DX, DY, DZ float64
	Yaw, Pitch float32
	OnGround   bool
}

// RotateHead updates the entity's head yaw independently of body
// rotation.
type RotateHead struct {
	EntityID int32
	HeadYaw  int8
}

// SetEntityData carries a metadata diff (or a full dump on pairing).
type SetEntityData struct {
	EntityID int32
	Metadata []Entry
}

// RemoveEntities despawns one or more entities on the client.
type RemoveEntities struct {
	EntityIDs []int32
}

// TrackedEntity wraps an entity and the set of players currently
// watching it, broadcasting spawn/despawn/move/metadata packets as
// its state changes.
type TrackedEntity struct {
	entity              Source
	trackingRangeBlocks int32
	updateInterval      uint8

	mu           sync.RWMutex
	seenBy       map[uuid.UUID]Sink
	lastPosition mgl64.Vec3
	lastRotation Rotation

	tickCount atomic.Uint64
}

// NewTrackedEntity wraps entity, broadcasting to players within
// trackingRangeBlocks, updating every tick by default.
func NewTrackedEntity(entity Source, trackingRangeBlocks int32) *TrackedEntity {
	return &TrackedEntity{
		entity:              entity,
		trackingRangeBlocks: trackingRangeBlocks,
		updateInterval:      1,
		seenBy:              make(map[uuid.UUID]Sink),
		lastPosition:        entity.Position(),
		lastRotation:        entity.Rotation(),
	}
}

// AddPlayer adds a player to the seen-by set and sends it spawn and
// initial metadata packets. A no-op if the player already sees it.
func (t *TrackedEntity) AddPlayer(player uuid.UUID, sink Sink) {
	t.mu.Lock()
	if _, ok := t.seenBy[player]; ok {
		t.mu.Unlock()
		return
	}
	t.seenBy[player] = sink
	t.mu.Unlock()

	t.sendPairingData(sink)
	t.entity.StartSeenByPlayer(player)
}

// RemovePlayer removes a player from the seen-by set and sends it a
// despawn packet.
func (t *TrackedEntity) RemovePlayer(player uuid.UUID) {
	t.mu.Lock()
	sink, ok := t.seenBy[player]
	if ok {
		delete(t.seenBy, player)
	}
	t.mu.Unlock()
	if !ok {
		return
	}
	t.sendRemovalPacket(sink)
	t.entity.RemoveSeenByPlayer(player)
}

// sendPairingData sends a freshly-paired player the absolute spawn
// packet plus a full metadata dump, and seeds last-synced state so the
// next delta is computed against what the player actually saw.
func (t *TrackedEntity) sendPairingData(sink Sink) {
	pos := t.entity.Position()
	rot := t.entity.Rotation()

	t.mu.Lock()
	t.lastPosition = pos
	t.lastRotation = rot
	t.mu.Unlock()

	sink.SendAddEntity(AddEntity{
		EntityID:   t.entity.ID(),
		UUID:       t.entity.UUID(),
		EntityType: t.entity.TypeID(),
		X:          pos.X(),
		Y:          pos.Y(),
		Z:          pos.Z(),
		Pitch:      angleByte(rot.Pitch),
		Yaw:        angleByte(rot.Yaw),
		HeadYaw:    angleByte(rot.Yaw),
	})

	if all := t.entity.PackAll(); len(all) > 0 {
		sink.SendSetEntityData(SetEntityData{EntityID: t.entity.ID(), Metadata: all})
	}
}

func (t *TrackedEntity) sendRemovalPacket(sink Sink) {
	sink.SendRemoveEntities(RemoveEntities{EntityIDs: []int32{t.entity.ID()}})
}

// BroadcastRemoval sends a despawn packet to every tracking player,
// without otherwise touching the seen-by set (used when the entity
// itself is being removed from the world).
func (t *TrackedEntity) BroadcastRemoval() {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, sink := range t.seenBy {
		t.sendRemovalPacket(sink)
	}
}

// TrackingPlayerCount returns how many players currently see this
// entity.
func (t *TrackedEntity) TrackingPlayerCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.seenBy)
}

// SeenByPlayers returns the UUIDs of every player currently tracking
// this entity.
func (t *TrackedEntity) SeenByPlayers() []uuid.UUID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(t.seenBy))
	for id := range t.seenBy {
		ids = append(ids, id)
	}
	return ids
}

// SendChanges runs one tracking tick: every updateInterval ticks, it
// diffs the entity's current position/rotation/metadata against what
// was last broadcast and sends the minimal set of packets needed to
// bring every tracking player's view up to date.
func (t *TrackedEntity) SendChanges() {
	if t.tickCount.Add(1)%uint64(t.updateInterval) != 0 {
		return
	}

	currentPos := t.entity.Position()
	currentRot := t.entity.Rotation()

	t.mu.Lock()
	lastPos := t.lastPosition
	lastRot := t.lastRotation
	posChanged := lastPos != currentPos
	rotChanged := lastRot != currentRot

	if len(t.seenBy) == 0 {
		if posChanged || rotChanged {
			t.lastPosition = currentPos
			t.lastRotation = currentRot
		}
		t.mu.Unlock()
		return
	}
	sinks := make([]Sink, 0, len(t.seenBy))
	for _, sink := range t.seenBy {
		sinks = append(sinks, sink)
	}
	t.mu.Unlock()

	if !posChanged && !rotChanged {
		t.sendMetadataIfDirty(sinks)
		return
	}

	entityID := t.entity.ID()
	dx := currentPos.X() - lastPos.X()
	dy := currentPos.Y() - lastPos.Y()
	dz := currentPos.Z() - lastPos.Z()
	maxDelta := absMax3(dx, dy, dz)

	switch {
	case posChanged && maxDelta > maxDeltaDistance:
		velocity := t.entity.Velocity()
		packet := TeleportEntity{
			EntityID: entityID,
			X:        currentPos.X(), Y: currentPos.Y(), Z: currentPos.Z(),
			DX: velocity.X(), DY: velocity.Y(), DZ: velocity.Z(),
			Yaw: currentRot.Yaw, Pitch: currentRot.Pitch,
			OnGround: true,
		}
		for _, sink := range sinks {
			sink.SendTeleportEntity(packet)
		}
	case posChanged && rotChanged:
		ddx, ddy, ddz := deltaFixed(currentPos, lastPos)
		packet := MoveEntityPosRot{
			EntityID: entityID,
			DX:       ddx, DY: ddy, DZ: ddz,
			Yaw: angleByte(currentRot.Yaw), Pitch: angleByte(currentRot.Pitch),
			OnGround: true,
		}
		for _, sink := range sinks {
			sink.SendMoveEntityPosRot(packet)
		}
	case posChanged:
		ddx, ddy, ddz := deltaFixed(currentPos, lastPos)
		packet := MoveEntityPos{EntityID: entityID, DX: ddx, DY: ddy, DZ: ddz, OnGround: true}
		for _, sink := range sinks {
			sink.SendMoveEntityPos(packet)
		}
	case rotChanged:
		packet := MoveEntityRot{EntityID: entityID, Yaw: angleByte(currentRot.Yaw), Pitch: angleByte(currentRot.Pitch), OnGround: true}
		for _, sink := range sinks {
			sink.SendMoveEntityRot(packet)
		}
	}

	t.mu.Lock()
	t.lastPosition = currentPos
	t.lastRotation = currentRot
	t.mu.Unlock()

	if rotChanged {
		head := RotateHead{EntityID: entityID, HeadYaw: angleByte(currentRot.Yaw)}
		for _, sink := range sinks {
			sink.SendRotateHead(head)
		}
	}

	t.sendMetadataIfDirty(sinks)
}

func (t *TrackedEntity) sendMetadataIfDirty(sinks []Sink) {
	dirty := t.entity.PackDirty()
	if len(dirty) == 0 {
		return
	}
	packet := SetEntityData{EntityID: t.entity.ID(), Metadata: dirty}
	for _, sink := range sinks {
		sink.SendSetEntityData(packet)
	}
}

// deltaFixed converts a position delta into the wire's fixed-point i16
// encoding: (cur*32 - last*32) * 128.
func deltaFixed(cur, last mgl64.Vec3) (dx, dy, dz int16) {
	dx = int16((cur.X()*32 - last.X()*32) * 128)
	dy = int16((cur.Y()*32 - last.Y()*32) * 128)
	dz = int16((cur.Z()*32 - last.Z()*32) * 128)
	return
}

// angleByte packs a degree rotation into the wire's 256ths-of-a-turn
// byte encoding.
func angleByte(degrees float32) int8 { return int8(degrees * 256.0 / 360.0) }

func absMax3(a, b, c float64) float64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	if c < 0 {
		c = -c
	}
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
