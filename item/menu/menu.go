// Package menu implements the container-menu click protocol: the
// slot bookkeeping and click-type dispatch that sit behind a
// CContainerClick packet, generalized from AbstractContainerMenu's
// click()/quick-move/quick-craft machinery.
package menu

import (
	"sort"

	"github.com/steelforge/voxelcore/item"
)

// InvalidSlot is the sentinel slot index meaning "the cursor, not any
// container slot" — e.g. a Throw click outside the window.
const InvalidSlot = -999

// Container is the backing store a Menu's slots read from and write
// to. ContainerSlot indices are the container's own numbering, not the
// Menu's combined Slots[] indices.
type Container interface {
	Item(containerSlot int) item.Stack
	SetItem(containerSlot int, stack item.Stack)
	SetChanged()
}

// Slot binds one Menu slot index to a Container slot, with optional
// placement/pickup/stack-size gates. Nil gate funcs mean "always
// allowed" / "the container's own default", matching Slot's unoverridden
// mayPlace/mayPickup/getMaxStackSize.
type Slot struct {
	Index         int
	Container     Container
	ContainerSlot int

	MayPlaceFn        func(stack item.Stack) bool
	MayPickupFn       func(stack item.Stack) bool
	MaxStackSizeForFn func(stack item.Stack) int32
}

// NewSlot builds a Slot bound to container's containerSlot.
func NewSlot(index int, container Container, containerSlot int) Slot {
	return Slot{Index: index, Container: container, ContainerSlot: containerSlot}
}

// MayPlace reports whether stack may be placed into this slot.
func (s Slot) MayPlace(stack item.Stack) bool {
	if s.MayPlaceFn != nil {
		return s.MayPlaceFn(stack)
	}
	return true
}

// MayPickup reports whether the current contents of this slot may be
// picked up.
func (s Slot) MayPickup(stack item.Stack) bool {
	if s.MayPickupFn != nil {
		return s.MayPickupFn(stack)
	}
	return true
}

// MaxStackSizeFor returns the largest stack this slot will hold of
// stack's kind.
func (s Slot) MaxStackSizeFor(stack item.Stack) int32 {
	if s.MaxStackSizeForFn != nil {
		return s.MaxStackSizeForFn(stack)
	}
	return stack.MaxStackSize()
}

func (s Slot) getItem() item.Stack { return s.Container.Item(s.ContainerSlot) }

func (s Slot) setItem(stack item.Stack) {
	s.Container.SetItem(s.ContainerSlot, stack)
	s.Container.SetChanged()
}

// hasItem reports whether the slot is occupied.
func (s Slot) hasItem() bool { return !s.getItem().IsEmpty() }

// ClickType mirrors the client's ClickType enum for a
// CContainerClick packet.
type ClickType int

const (
	ClickPickup ClickType = iota
	ClickQuickMove
	ClickSwap
	ClickClone
	ClickThrow
	ClickQuickCraft
	ClickPickupAll
)

// ClickAction distinguishes a primary (left) click from a secondary
// (right) click, decoded from the click button.
type ClickAction int

const (
	ActionPrimary ClickAction = iota
	ActionSecondary
)

// ActionFromButton decodes button into primary/secondary for the click
// types that use it (Pickup, QuickMove, Throw, Swap's button==0
// convention is handled by the caller).
func ActionFromButton(button int32) ClickAction {
	if button == 1 {
		return ActionSecondary
	}
	return ActionPrimary
}

// QuickCraftPhase is the drag-click lifecycle phase, decoded from the
// top two bits of a QuickCraft click's button field (vanilla wire
// convention: bits 2-3 of button encode phase, bits 0-1 encode type).
type QuickCraftPhase int

const (
	QuickCraftStart QuickCraftPhase = iota
	QuickCraftContinue
	QuickCraftEnd
)

func quickCraftPhaseFromHeader(button int32) QuickCraftPhase {
	switch (button >> 2) & 0x3 {
	case 0:
		return QuickCraftStart
	case 2:
		return QuickCraftEnd
	default:
		return QuickCraftContinue
	}
}

// QuickCraftType is the drag-distribution strategy for a QuickCraft
// click sequence, decoded from the low two bits of button.
type QuickCraftType int

const (
	QuickCraftCharitable QuickCraftType = iota
	QuickCraftGreedy
	QuickCraftClone
)

func quickCraftTypeFromHeader(button int32) QuickCraftType {
	switch button & 0x3 {
	case 1:
		return QuickCraftGreedy
	case 2:
		return QuickCraftClone
	default:
		return QuickCraftCharitable
	}
}

// IsValidForPlayer reports whether t is permitted outside creative
// mode; Clone-drag redistributes a single item into many slots for
// free and is creative-only.
func (t QuickCraftType) IsValidForPlayer(isCreative bool) bool {
	if t == QuickCraftClone {
		return isCreative
	}
	return true
}

// MenuType enumerates the vanilla container window kinds a Menu can
// represent, for the CContainerOpen packet's window-type field.
type MenuType int

const (
	MenuGeneric9x1 MenuType = iota
	MenuGeneric9x2
	MenuGeneric9x3
	MenuGeneric9x4
	MenuGeneric9x5
	MenuGeneric9x6
	MenuGeneric3x3
	MenuAnvil
	MenuBeacon
	MenuBlastFurnace
	MenuBrewingStand
	MenuCrafting
	MenuCrafter3x3
	MenuEnchantment
	MenuFurnace
	MenuGrindstone
	MenuHopper
	MenuLectern
	MenuLoom
	MenuMerchant
	MenuShulkerBox
	MenuSmithing
	MenuSmoker
	MenuCartography
	MenuStonecutter
)

// ID returns the registry id string for t (e.g. "minecraft:generic_9x3").
func (t MenuType) ID() string {
	id, ok := menuTypeIDs[t]
	if !ok {
		return ""
	}
	return id
}

var menuTypeIDs = map[MenuType]string{
	MenuGeneric9x1:   "minecraft:generic_9x1",
	MenuGeneric9x2:   "minecraft:generic_9x2",
	MenuGeneric9x3:   "minecraft:generic_9x3",
	MenuGeneric9x4:   "minecraft:generic_9x4",
	MenuGeneric9x5:   "minecraft:generic_9x5",
	MenuGeneric9x6:   "minecraft:generic_9x6",
	MenuGeneric3x3:   "minecraft:generic_3x3",
	MenuAnvil:        "minecraft:anvil",
	MenuBeacon:       "minecraft:beacon",
	MenuBlastFurnace: "minecraft:blast_furnace",
	MenuBrewingStand: "minecraft:brewing_stand",
	MenuCrafting:     "minecraft:crafting",
	MenuCrafter3x3:   "minecraft:crafter_3x3",
	MenuEnchantment:  "minecraft:enchantment",
	MenuFurnace:      "minecraft:furnace",
	MenuGrindstone:   "minecraft:grindstone",
	MenuHopper:       "minecraft:hopper",
	MenuLectern:      "minecraft:lectern",
	MenuLoom:         "minecraft:loom",
	MenuMerchant:     "minecraft:merchant",
	MenuShulkerBox:   "minecraft:shulker_box",
	MenuSmithing:     "minecraft:smithing",
	MenuSmoker:       "minecraft:smoker",
	MenuCartography:  "minecraft:cartography_table",
	MenuStonecutter:  "minecraft:stonecutter",
}

// FromID returns the MenuType for a registry id string, and false if
// it isn't recognized.
func FromID(id string) (MenuType, bool) {
	for t, i := range menuTypeIDs {
		if i == id {
			return t, true
		}
	}
	return 0, false
}

// Menu is a container window's server-side slot state and click
// handling. QuickMoveStack and OnThrow are overridable hooks — the Go
// equivalent of AbstractContainerMenu's virtual quickMoveStack/
// dropping callers are expected to specialize per concrete menu.
type Menu struct {
	ContainerID int32
	Slots       []Slot

	carried item.Stack
	stateID int32

	quickCraftType  QuickCraftType
	quickCraftPhase QuickCraftPhase
	quickCraftSlots map[int]struct{}
	quickCrafting   bool

	// QuickMoveStack implements ClickQuickMove (shift-click) for slot
	// index slotIndex, returning the stack actually moved (Empty if
	// nothing moved). Callers supply this per concrete menu since the
	// destination ordering is menu-specific.
	QuickMoveStack func(slotIndex int) item.Stack

	// OnThrow is called with the item dropped by a Throw click, so the
	// caller can spawn the corresponding item entity.
	OnThrow func(stack item.Stack)
}

// New builds an empty Menu with the given container id.
func New(containerID int32) *Menu {
	return &Menu{ContainerID: containerID}
}

// AddSlot appends slot to the menu, returning its assigned index.
func (m *Menu) AddSlot(slot Slot) int {
	slot.Index = len(m.Slots)
	m.Slots = append(m.Slots, slot)
	return slot.Index
}

// Slot returns the slot at index, or false if out of range.
func (m *Menu) Slot(index int) (Slot, bool) {
	if index < 0 || index >= len(m.Slots) {
		return Slot{}, false
	}
	return m.Slots[index], true
}

// Carried returns the item currently held by the cursor.
func (m *Menu) Carried() item.Stack { return m.carried }

// SetCarried replaces the cursor's held item.
func (m *Menu) SetCarried(stack item.Stack) { m.carried = stack }

// StateID returns the current state revision, echoed back by clients
// on every click so stale clicks can be detected.
func (m *Menu) StateID() int32 { return m.stateID }

// IncrementStateID bumps and returns the new state revision.
func (m *Menu) IncrementStateID() int32 {
	m.stateID++
	return m.stateID
}

// IsValidSlotIndex reports whether index addresses a real slot.
func (m *Menu) IsValidSlotIndex(index int) bool {
	return index >= 0 && index < len(m.Slots)
}

func (m *Menu) resetQuickCraft() {
	m.quickCrafting = false
	m.quickCraftSlots = nil
}

// Click dispatches one CContainerClick: slotIndex addresses a Menu
// slot (or InvalidSlot for the cursor), button carries the per-type
// payload described above, and clickType selects the handler.
func (m *Menu) Click(slotIndex int, button int32, clickType ClickType) {
	switch clickType {
	case ClickQuickCraft:
		m.handleQuickCraft(slotIndex, button)
	case ClickQuickMove:
		m.handleQuickMove(slotIndex)
	case ClickSwap:
		m.handleSwap(slotIndex, int(button))
	case ClickClone:
		m.handleClone(slotIndex)
	case ClickThrow:
		m.handleThrow(slotIndex, ActionFromButton(button))
	case ClickPickupAll:
		m.handlePickupAll(slotIndex)
	default:
		m.handlePickup(slotIndex, ActionFromButton(button))
	}
}

// handleQuickCraft implements drag-click distribution: Start clears
// the drag set and records the drag type; Continue adds
// slotIndex to the drag set if it's a legal drop target; End
// distributes carried across the tracked slots per quickCraftType and
// resets.
func (m *Menu) handleQuickCraft(slotIndex int, button int32) {
	phase := quickCraftPhaseFromHeader(button)
	qtype := quickCraftTypeFromHeader(button)

	switch phase {
	case QuickCraftStart:
		m.quickCraftType = qtype
		m.quickCraftPhase = QuickCraftStart
		m.quickCraftSlots = make(map[int]struct{})
		m.quickCrafting = true
	case QuickCraftContinue:
		if !m.quickCrafting {
			return
		}
		slot, ok := m.Slot(slotIndex)
		if !ok || m.carried.IsEmpty() {
			return
		}
		if !slot.MayPlace(m.carried) {
			return
		}
		current := slot.getItem()
		if !current.IsEmpty() && !item.SameItemSameComponents(current, m.carried) {
			return
		}
		m.quickCraftSlots[slotIndex] = struct{}{}
	case QuickCraftEnd:
		if m.quickCrafting {
			m.distributeQuickCraft()
		}
		m.resetQuickCraft()
	}
}

// distributeQuickCraft spreads m.carried across the tracked drag slots
// per the active QuickCraftType: Charitable splits evenly (1 each,
// repeated while supply remains), Greedy fills each slot to its max
// before moving to the next, Clone duplicates a single item into every
// slot without consuming carried (creative-only, enforced by the
// caller via IsValidForPlayer before this runs).
func (m *Menu) distributeQuickCraft() {
	if len(m.quickCraftSlots) == 0 || m.carried.IsEmpty() {
		return
	}
	slots := make([]int, 0, len(m.quickCraftSlots))
	for idx := range m.quickCraftSlots {
		slots = append(slots, idx)
	}
	sort.Ints(slots)

	switch m.quickCraftType {
	case QuickCraftClone:
		for _, idx := range slots {
			slot, ok := m.Slot(idx)
			if !ok {
				continue
			}
			slot.setItem(m.carried.CopyWithCount(m.carried.MaxStackSize()))
		}
		return
	case QuickCraftGreedy:
		for _, idx := range slots {
			if m.carried.IsEmpty() {
				break
			}
			slot, ok := m.Slot(idx)
			if !ok {
				continue
			}
			room := slot.MaxStackSizeFor(m.carried) - slot.getItem().Count
			if room <= 0 {
				continue
			}
			take := m.carried.Count
			if take > room {
				take = room
			}
			placed := slot.getItem()
			if placed.IsEmpty() {
				placed = m.carried.CopyWithCount(0)
			}
			placed.Grow(take)
			slot.setItem(placed)
			m.carried.Shrink(take)
		}
	default: // QuickCraftCharitable
		remaining := len(slots)
		for remaining > 0 && !m.carried.IsEmpty() {
			progressed := false
			for _, idx := range slots {
				if m.carried.IsEmpty() {
					break
				}
				slot, ok := m.Slot(idx)
				if !ok {
					continue
				}
				room := slot.MaxStackSizeFor(m.carried) - slot.getItem().Count
				if room <= 0 {
					continue
				}
				placed := slot.getItem()
				if placed.IsEmpty() {
					placed = m.carried.CopyWithCount(0)
				}
				placed.Grow(1)
				slot.setItem(placed)
				m.carried.Shrink(1)
				progressed = true
			}
			if !progressed {
				break
			}
		}
	}
	if m.carried.IsEmpty() {
		m.carried = item.Empty()
	}
}

// handlePickup implements a plain left/right click on a slot (or the
// cursor): left click swaps the slot's whole contents with the
// cursor if they differ, or merges/splits if they match; right click
// picks up or places half.
func (m *Menu) handlePickup(slotIndex int, action ClickAction) {
	if slotIndex == InvalidSlot {
		if action == ActionPrimary && !m.carried.IsEmpty() {
			m.dropCarried(m.carried)
			m.carried = item.Empty()
		} else if action == ActionSecondary && !m.carried.IsEmpty() {
			one := m.carried.Split(1)
			m.dropCarried(one)
		}
		return
	}
	slot, ok := m.Slot(slotIndex)
	if !ok {
		return
	}
	current := slot.getItem()

	switch {
	case current.IsEmpty() && m.carried.IsEmpty():
		return
	case current.IsEmpty():
		placeCount := m.carried.Count
		if action == ActionSecondary {
			placeCount = (placeCount + 1) / 2
		}
		if !slot.MayPlace(m.carried) {
			return
		}
		taken := m.carried.Split(placeCount)
		slot.setItem(taken)
	case m.carried.IsEmpty():
		if !slot.MayPickup(current) {
			return
		}
		takeCount := current.Count
		if action == ActionSecondary {
			takeCount = (takeCount + 1) / 2
		}
		m.carried = current.Split(takeCount)
		slot.setItem(current)
	case item.SameItemSameComponents(current, m.carried):
		if !slot.MayPlace(m.carried) {
			return
		}
		room := slot.MaxStackSizeFor(current) - current.Count
		if room <= 0 {
			return
		}
		add := m.carried.Count
		if action == ActionSecondary && add > 1 {
			add = 1
		}
		if add > room {
			add = room
		}
		current.Grow(add)
		slot.setItem(current)
		m.carried.Shrink(add)
	default:
		if !slot.MayPickup(current) || !slot.MayPlace(m.carried) {
			return
		}
		if current.Count > slot.MaxStackSizeFor(m.carried) {
			return
		}
		m.carried, current = current, m.carried
		slot.setItem(current)
	}
}

// handleQuickMove implements shift-click by delegating to the
// caller-supplied QuickMoveStack override, mirroring AbstractContainerMenu's
// abstract quickMoveStack.
func (m *Menu) handleQuickMove(slotIndex int) {
	if m.QuickMoveStack == nil {
		return
	}
	m.QuickMoveStack(slotIndex)
}

// MoveItemStackTo moves as much of stack as will fit into
// [start,end), first merging into existing compatible stacks, then
// placing into empty slots — the two-pass strategy every
// quickMoveStack override builds on. It mutates stack in place and
// returns true if anything moved.
func (m *Menu) MoveItemStackTo(stack *item.Stack, start, end int, reverse bool) bool {
	moved := false

	indices := slotRange(start, end, reverse)
	for _, idx := range indices {
		if stack.IsEmpty() {
			break
		}
		slot, ok := m.Slot(idx)
		if !ok {
			continue
		}
		current := slot.getItem()
		if current.IsEmpty() || !item.SameItemSameComponents(current, *stack) {
			continue
		}
		if !slot.MayPlace(*stack) {
			continue
		}
		room := slot.MaxStackSizeFor(*stack) - current.Count
		if room <= 0 {
			continue
		}
		add := stack.Count
		if add > room {
			add = room
		}
		current.Grow(add)
		slot.setItem(current)
		stack.Shrink(add)
		moved = true
	}

	for _, idx := range indices {
		if stack.IsEmpty() {
			break
		}
		slot, ok := m.Slot(idx)
		if !ok {
			continue
		}
		if slot.hasItem() {
			continue
		}
		if !slot.MayPlace(*stack) {
			continue
		}
		place := stack.Count
		if max := slot.MaxStackSizeFor(*stack); place > max {
			place = max
		}
		taken := stack.Split(place)
		slot.setItem(taken)
		moved = true
	}

	return moved
}

func slotRange(start, end int, reverse bool) []int {
	n := end - start
	if n <= 0 {
		return nil
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		if reverse {
			out[i] = end - 1 - i
		} else {
			out[i] = start + i
		}
	}
	return out
}

// handleSwap implements a number-key swap between slotIndex and a
// hotbar slot identified by hotbarButton.
//
// TODO: Implement proper swap with player hotbar.
func (m *Menu) handleSwap(slotIndex int, hotbarButton int) {
	_ = slotIndex
	_ = hotbarButton
}

// handleClone implements middle-click: in creative mode, duplicates
// the clicked slot's contents onto the cursor at max stack size
// without consuming the source. Non-creative callers should not
// dispatch ClickClone at all; this still no-ops safely if called.
func (m *Menu) handleClone(slotIndex int) {
	if !m.carried.IsEmpty() {
		return
	}
	slot, ok := m.Slot(slotIndex)
	if !ok {
		return
	}
	current := slot.getItem()
	if current.IsEmpty() {
		return
	}
	m.carried = current.CopyWithCount(current.MaxStackSize())
}

// handleThrow implements Q (drop one) / Ctrl-Q (drop stack) on a
// slot, calling OnThrow with whatever was actually removed — an
// improvement over silently discarding the dropped stack.
func (m *Menu) handleThrow(slotIndex int, action ClickAction) {
	slot, ok := m.Slot(slotIndex)
	if !ok {
		return
	}
	current := slot.getItem()
	if current.IsEmpty() || !slot.MayPickup(current) {
		return
	}
	count := int32(1)
	if action == ActionSecondary {
		count = current.Count
	}
	dropped := current.Split(count)
	slot.setItem(current)
	m.dropCarried(dropped)
}

func (m *Menu) dropCarried(stack item.Stack) {
	if stack.IsEmpty() || m.OnThrow == nil {
		return
	}
	m.OnThrow(stack)
}

// handlePickupAll implements double-click: gathers every stack of the
// cursor's kind from the menu into the cursor, up to its max stack
// size, taking from non-full stacks before full ones so full stacks
// are drawn on only once the partial stacks are exhausted.
func (m *Menu) handlePickupAll(slotIndex int) {
	if m.carried.IsEmpty() {
		return
	}
	_, _ = m.Slot(slotIndex)

	max := m.carried.MaxStackSize()
	for pass := 0; pass < 2 && m.carried.Count < max; pass++ {
		for i := range m.Slots {
			if m.carried.Count >= max {
				break
			}
			slot := m.Slots[i]
			current := slot.getItem()
			if current.IsEmpty() || !item.SameItemSameComponents(current, m.carried) {
				continue
			}
			if !slot.MayPickup(current) {
				continue
			}
			isFull := current.Count >= slot.MaxStackSizeFor(current)
			if pass == 0 && isFull {
				continue
			}
			if pass == 1 && !isFull {
				continue
			}
			take := max - m.carried.Count
			if take > current.Count {
				take = current.Count
			}
			m.carried.Grow(take)
			current.Shrink(take)
			slot.setItem(current)
		}
	}
}

// canItemQuickReplace reports whether stack may be placed into slot
// given slot's current contents: empty slots accept whatever MayPlace
// allows, occupied
// slots require the same item identity and enough remaining room.
func canItemQuickReplace(slot Slot, stack item.Stack) bool {
	current := slot.getItem()
	if current.IsEmpty() {
		return slot.MayPlace(stack)
	}
	if !item.SameItemSameComponents(current, stack) {
		return false
	}
	return current.Count < slot.MaxStackSizeFor(current)
}

// Removed clears and returns the cursor's carried item, used when a
// menu closes and any held item must be returned to the player.
func (m *Menu) Removed() item.Stack {
	out := m.carried
	m.carried = item.Empty()
	return out
}

// SetSlot force-sets slot index's contents, used for server-driven
// full-window sync (CContainerSetContent).
func (m *Menu) SetSlot(index int, stack item.Stack) {
	slot, ok := m.Slot(index)
	if !ok {
		return
	}
	slot.setItem(stack)
}

// InitializeContents force-sets every slot from items in Menu slot
// order, used when first opening a window.
func (m *Menu) InitializeContents(items []item.Stack) {
	for i, stack := range items {
		m.SetSlot(i, stack)
	}
}

// AddPlayerInventorySlots appends the standard 27 main-inventory slots
// followed by the 9 hotbar slots from inv, the layout every non-
// inventory menu appends below its own slots. Client-side rendering
// geometry is left to the client.
func AddPlayerInventorySlots(m *Menu, inv Container) {
	for row := 0; row < 3; row++ {
		for col := 0; col < 9; col++ {
			containerSlot := 9 + row*9 + col
			m.AddSlot(NewSlot(0, inv, containerSlot))
		}
	}
	for col := 0; col < 9; col++ {
		m.AddSlot(NewSlot(0, inv, col))
	}
}
