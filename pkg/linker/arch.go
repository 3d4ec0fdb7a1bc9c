package linker

import (
	"debug/elf"
	"encoding/binary"
	"fmt"
)

// SlotRule maps a relocation type to the slot it needs. Preemptible rules
// only apply when the target symbol can be interposed at load time.
type SlotRule struct {
	Kind        SlotKind
	Preemptible bool
}

// Arch gathers everything the GOT/PLT pipeline needs to know about a
// target. One Arch is selected per link; the passes never switch on the
// machine themselves.
type Arch struct {
	Name      string
	Machine   elf.Machine
	ByteOrder binary.ByteOrder
	PtrSize   uint64 // GOT entry size
	AddrBits  int

	GOTAlign uint64
	PLTAlign uint64

	// reserved words at the start of the GOT-PLT table
	GOTPLTHeaderEntries int
	PLTHeaderSize       uint64
	PLTEntrySize        uint64

	// GOT-PLT and GOT share the .got section, GOT-PLT part first
	MergedGOT bool

	SlotRules map[uint32]SlotRule
	// every relocation type that needs an indirect slot, mapped or not
	SlotRelocs        map[uint32]bool
	IncompatibleKinds [][2]SlotKind

	RelocName func(typ uint32) string

	// dynamic relocation types
	GlobDat  uint32
	JumpSlot uint32
	Relative uint32

	// both fail with a *LayoutOverflowError when a displacement does not
	// fit the instruction encoding
	WritePLTHeader func(arch *Arch, buf []byte, p PLTHeaderParams) error
	WritePLTEntry  func(arch *Arch, buf []byte, p PLTEntryParams) error
	// initial GOT-PLT content for lazy binding
	LazyGOTPLT func(pltAddr, entryAddr uint64) uint64

	Disasm disasmFunc
}

type PLTHeaderParams struct {
	PLTAddr    uint64
	GOTPLTAddr uint64
	Shared     bool
}

type PLTEntryParams struct {
	Index      uint32
	Addr       uint64 // address of this PLT entry
	PLTAddr    uint64
	GOTPLTAddr uint64 // GOT-PLT table base
	SlotAddr   uint64 // GOT-PLT slot the entry jumps through
	RelOffset  uint64 // offset of the entry's JUMP_SLOT in .rel.plt
	Shared     bool   // position-independent stubs
}

var arches = map[MachineType]*Arch{}

func registerArch(m MachineType, a *Arch) {
	arches[m] = a
}

func LookupArch(m MachineType) (*Arch, error) {
	if a, ok := arches[m]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("unsupported machine type: %s", m)
}

func (a *Arch) GOTSection() string {
	return ".got"
}

func (a *Arch) GOTPLTSection() string {
	if a.MergedGOT {
		return ".got"
	}
	return ".got.plt"
}

func (a *Arch) PLTSection() string {
	return ".plt"
}

// SlotKindFor classifies one request. needsSlot is false when the
// relocation is handled by the general relocation engine alone.
func (a *Arch) SlotKindFor(req RelocationRequest, shared bool) (kind SlotKind, needsSlot bool, err error) {
	rule, ok := a.SlotRules[req.Type]
	if !ok {
		if a.SlotRelocs[req.Type] {
			return 0, false, &UnsupportedRelocationError{
				Type: req.Type,
				Name: a.RelocName(req.Type),
				Loc:  req.Loc,
			}
		}
		return 0, false, nil
	}
	if rule.Preemptible && !req.Symbol.IsPreemptible(shared) {
		return 0, false, nil
	}
	return rule.Kind, true, nil
}

func (a *Arch) Incompatible(x, y SlotKind) bool {
	for _, pair := range a.IncompatibleKinds {
		if pair[0] == x && pair[1] == y || pair[0] == y && pair[1] == x {
			return true
		}
	}
	return false
}

// MaxAddr is the highest address representable on the target.
func (a *Arch) MaxAddr() uint64 {
	if a.AddrBits >= 64 {
		return ^uint64(0)
	}
	return 1<<uint(a.AddrBits) - 1
}

func (a *Arch) RelEntSize() uint64 {
	return 2 * a.PtrSize
}

func (a *Arch) DynEntSize() uint64 {
	return 2 * a.PtrSize
}

func (a *Arch) putWord(buf []byte, val uint64) {
	switch a.PtrSize {
	case 4:
		a.ByteOrder.PutUint32(buf, uint32(val))
	case 8:
		a.ByteOrder.PutUint64(buf, val)
	default:
		panic(fmt.Sprintf("unsupported pointer size %d", a.PtrSize))
	}
}

func (a *Arch) word(buf []byte) uint64 {
	switch a.PtrSize {
	case 4:
		return uint64(a.ByteOrder.Uint32(buf))
	case 8:
		return a.ByteOrder.Uint64(buf)
	}
	panic(fmt.Sprintf("unsupported pointer size %d", a.PtrSize))
}

// RelInfo packs a dynamic relocation's r_info.
func (a *Arch) RelInfo(symIdx, typ uint32) uint64 {
	if a.PtrSize == 8 {
		return elf.R_INFO(symIdx, typ)
	}
	return uint64(elf.R_INFO32(symIdx, typ))
}
