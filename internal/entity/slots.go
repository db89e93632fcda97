package entity

// slotOrder is the claim order for free roles.
var slotOrder = [...]Mark{PlayerX, PlayerO}

// SlotTable maps each player mark to the ID of the connection holding it.
// An empty ID means the slot is free.
type SlotTable struct {
	occupants map[Mark]string
}

func NewSlotTable() *SlotTable {
	return &SlotTable{
		occupants: map[Mark]string{PlayerX: "", PlayerO: ""},
	}
}

// Claim - gives connID the first free slot. A connection that already holds a slot keeps it.
func (that *SlotTable) Claim(connID string) (Mark, bool) {
	if mark, ok := that.Holds(connID); ok {
		return mark, true
	}

	for _, mark := range slotOrder {
		if that.occupants[mark] == "" {
			that.occupants[mark] = connID
			return mark, true
		}
	}

	return EmptyCell, false
}

// Release - frees whatever slot connID holds.
func (that *SlotTable) Release(connID string) (Mark, bool) {
	mark, ok := that.Holds(connID)
	if !ok {
		return EmptyCell, false
	}

	that.occupants[mark] = ""

	return mark, true
}

func (that *SlotTable) Holds(connID string) (Mark, bool) {
	if connID == "" {
		return EmptyCell, false
	}

	for _, mark := range slotOrder {
		if that.occupants[mark] == connID {
			return mark, true
		}
	}

	return EmptyCell, false
}

func (that *SlotTable) Occupant(mark Mark) (string, bool) {
	id := that.occupants[mark]
	return id, id != ""
}

func (that *SlotTable) IsFree(mark Mark) bool {
	return that.occupants[mark] == ""
}
