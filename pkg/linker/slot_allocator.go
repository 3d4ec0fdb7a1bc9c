package linker

// SlotAllocator hands out one slot per SlotKey. Indices are dense per kind
// and follow first-seen order, so identical request streams number slots
// identically.
type SlotAllocator struct {
	arch  *Arch
	slots map[SlotKey]*Slot
	order [numSlotKinds][]*Slot
	kinds map[*Symbol][]SlotKind
}

func NewSlotAllocator(arch *Arch) *SlotAllocator {
	return &SlotAllocator{
		arch:  arch,
		slots: make(map[SlotKey]*Slot),
		kinds: make(map[*Symbol][]SlotKind),
	}
}

func (a *SlotAllocator) Assign(key SlotKey) (*Slot, error) {
	if slot, ok := a.slots[key]; ok {
		return slot, nil
	}

	for _, have := range a.kinds[key.Symbol] {
		if a.arch.Incompatible(have, key.Kind) {
			return nil, &SlotKindConflictError{
				Symbol: key.Symbol.String(),
				Have:   have,
				Want:   key.Kind,
			}
		}
	}

	var pair *Slot
	if key.Kind == SlotPLT {
		var err error
		pair, err = a.Assign(SlotKey{Symbol: key.Symbol, Kind: SlotGOTPLT})
		if err != nil {
			return nil, err
		}
	}

	slot := &Slot{
		Key:    key,
		Index:  uint32(len(a.order[key.Kind])),
		GOTPLT: pair,
	}
	a.slots[key] = slot
	a.order[key.Kind] = append(a.order[key.Kind], slot)
	a.kinds[key.Symbol] = append(a.kinds[key.Symbol], key.Kind)
	return slot, nil
}

// Snapshot freezes the current assignment.
func (a *SlotAllocator) Snapshot() *Allocation {
	alloc := &Allocation{index: make(map[SlotKey]*Slot, len(a.slots))}
	for k, s := range a.slots {
		alloc.index[k] = s
	}
	for kind := range a.order {
		alloc.slots[kind] = append([]*Slot(nil), a.order[kind]...)
	}
	return alloc
}

// Allocation is the allocator's output handed to the table builder.
type Allocation struct {
	slots [numSlotKinds][]*Slot
	index map[SlotKey]*Slot
}

func (a *Allocation) Slots(kind SlotKind) []*Slot {
	return a.slots[kind]
}

func (a *Allocation) Len(kind SlotKind) int {
	return len(a.slots[kind])
}

func (a *Allocation) Lookup(key SlotKey) (*Slot, bool) {
	s, ok := a.index[key]
	return s, ok
}

func (a *Allocation) Total() int {
	n := 0
	for _, kind := range SlotKinds {
		n += a.Len(kind)
	}
	return n
}
