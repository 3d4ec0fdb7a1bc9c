package linker

// Table is one indirection table. Slot i lives at
// Addr + HeaderSize + i*EntrySize; slots are never reordered.
type Table struct {
	Kind       SlotKind
	Section    string
	Addr       uint64
	HeaderSize uint64
	EntrySize  uint64
	Slots      []*Slot

	// GOT and GOT-PLT content, one word per entry including the header
	Words []uint64
	// PLT content
	Data []byte
}

func NewTable(kind SlotKind, section string, addr, entrySize uint64, slots []*Slot) *Table {
	return &Table{
		Kind:      kind,
		Section:   section,
		Addr:      addr,
		EntrySize: entrySize,
		Slots:     slots,
	}
}

func (t *Table) SlotBase() uint64 {
	return t.Addr + t.HeaderSize
}

func (t *Table) SlotAddr(idx uint32) uint64 {
	return t.SlotBase() + uint64(idx)*t.EntrySize
}

func (t *Table) Size() uint64 {
	if t.HeaderSize == 0 && len(t.Slots) == 0 {
		return 0
	}
	return t.HeaderSize + uint64(len(t.Slots))*t.EntrySize
}

func (t *Table) End() uint64 {
	return t.Addr + t.Size()
}

func (t *Table) assignAddrs() {
	for _, slot := range t.Slots {
		slot.SetAddr(t.SlotAddr(slot.Index))
	}
}

// Tables is the table builder's output.
type Tables struct {
	GOT    *Table
	GOTPLT *Table
	PLT    *Table

	DynamicAddr uint64
	Addrs       SectionAddrs
	Plan        *Plan
}

func (t *Tables) Table(kind SlotKind) *Table {
	switch kind {
	case SlotGOT:
		return t.GOT
	case SlotGOTPLT:
		return t.GOTPLT
	case SlotPLT:
		return t.PLT
	}
	return nil
}
