package linker

import (
	"fmt"

	"github.com/hcyang1106/gotplt/pkg/utils"
)

type SlotKind uint8

const (
	SlotGOT SlotKind = iota
	SlotGOTPLT
	SlotPLT
	numSlotKinds
)

var SlotKinds = [...]SlotKind{SlotGOT, SlotGOTPLT, SlotPLT}

func (k SlotKind) String() string {
	switch k {
	case SlotGOT:
		return "GOT"
	case SlotGOTPLT:
		return "GOT-PLT"
	case SlotPLT:
		return "PLT"
	}
	return fmt.Sprintf("SlotKind(%d)", uint8(k))
}

type SlotKey struct {
	Symbol *Symbol
	Kind   SlotKind
}

func (k SlotKey) String() string {
	return fmt.Sprintf("%s@%s", k.Symbol, k.Kind)
}

type Slot struct {
	Key   SlotKey
	Index uint32
	// the GOT-PLT slot a PLT stub jumps through; nil for other kinds
	GOTPLT *Slot

	addr    uint64
	addrSet bool
}

func (s *Slot) Addr() uint64 {
	return s.addr
}

func (s *Slot) HasAddr() bool {
	return s.addrSet
}

// SetAddr is write-once; assigning a different address later is a bug in
// the table builder.
func (s *Slot) SetAddr(addr uint64) {
	if s.addrSet {
		utils.Assert(s.addr == addr)
		return
	}
	s.addr = addr
	s.addrSet = true
}
