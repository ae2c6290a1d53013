package menu

import "github.com/steelforge/voxelcore/item"

// NewGenericMenu builds a Generic9xRows container menu (chest, double
// chest, shulker box, etc.): rows*9 container slots followed by the
// player's inventory, with the standard quickMoveStack behavior of
// moving container<->inventory depending on which side was clicked.
func NewGenericMenu(containerID int32, rows int, container Container, playerInv Container) *Menu {
	m := New(containerID)
	for i := 0; i < rows*9; i++ {
		m.AddSlot(NewSlot(0, container, i))
	}
	AddPlayerInventorySlots(m, playerInv)
	containerSlotCount := rows * 9
	inventoryEnd := containerSlotCount + 36

	m.QuickMoveStack = func(slotIndex int) item.Stack {
		slot, ok := m.Slot(slotIndex)
		if !ok {
			return item.Empty()
		}
		original := slot.getItem()
		if original.IsEmpty() {
			return item.Empty()
		}
		stack := original

		if slotIndex < containerSlotCount {
			if !m.MoveItemStackTo(&stack, containerSlotCount, inventoryEnd, false) {
				return item.Empty()
			}
		} else {
			if !m.MoveItemStackTo(&stack, 0, containerSlotCount, false) {
				return item.Empty()
			}
		}

		if stack.IsEmpty() {
			slot.setItem(item.Empty())
		} else {
			slot.setItem(stack)
		}
		return original
	}
	return m
}
