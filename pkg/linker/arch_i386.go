package linker

import (
	"debug/elf"
	"encoding/binary"
)

// PIC PLT for i386 shared objects; %ebx holds the GOT-PLT base.
var i386PICPLT0 = [...]byte{
	0xff, 0xb3, 0x04, 0x00, 0x00, 0x00, // pushl 4(%ebx)
	0xff, 0xa3, 0x08, 0x00, 0x00, 0x00, // jmp   *8(%ebx)
	0x0f, 0x1f, 0x40, 0x00, // nopl  0(%eax)
}

var i386PICPLT1 = [...]byte{
	0xff, 0xa3, 0x00, 0x00, 0x00, 0x00, // jmp   *slot(%ebx)
	0x68, 0x00, 0x00, 0x00, 0x00, // push  $reloc_offset
	0xe9, 0x00, 0x00, 0x00, 0x00, // jmp   PLT0
}

// Executables use absolute GOT-PLT addresses; %ebx is not set up.
var i386PLT0 = [...]byte{
	0xff, 0x35, 0x00, 0x00, 0x00, 0x00, // pushl GOTPLT+4
	0xff, 0x25, 0x00, 0x00, 0x00, 0x00, // jmp   *GOTPLT+8
	0x00, 0x00, 0x00, 0x00,
}

var i386PLT1 = [...]byte{
	0xff, 0x25, 0x00, 0x00, 0x00, 0x00, // jmp   *slot
	0x68, 0x00, 0x00, 0x00, 0x00, // push  $reloc_offset
	0xe9, 0x00, 0x00, 0x00, 0x00, // jmp   PLT0
}

var ArchI386 = &Arch{
	Name:      "i386",
	Machine:   elf.EM_386,
	ByteOrder: binary.LittleEndian,
	PtrSize:   4,
	AddrBits:  32,
	GOTAlign:  4,
	PLTAlign:  16,

	GOTPLTHeaderEntries: 3,
	PLTHeaderSize:       uint64(len(i386PLT0)),
	PLTEntrySize:        uint64(len(i386PLT1)),

	SlotRules: map[uint32]SlotRule{
		uint32(elf.R_386_GOT32):  {Kind: SlotGOT},
		uint32(elf.R_386_GOT32X): {Kind: SlotGOT},
		uint32(elf.R_386_PLT32):  {Kind: SlotPLT, Preemptible: true},
	},
	SlotRelocs: map[uint32]bool{
		uint32(elf.R_386_TLS_IE):    true,
		uint32(elf.R_386_TLS_GOTIE): true,
		uint32(elf.R_386_TLS_GD):    true,
		uint32(elf.R_386_TLS_LDM):   true,
	},

	RelocName: func(typ uint32) string { return elf.R_386(typ).String() },

	GlobDat:  uint32(elf.R_386_GLOB_DAT),
	JumpSlot: uint32(elf.R_386_JMP_SLOT),
	Relative: uint32(elf.R_386_RELATIVE),

	WritePLTHeader: writeI386PLTHeader,
	WritePLTEntry:  writeI386PLTEntry,
	// the loader first lands on the push that follows the indirect jmp
	LazyGOTPLT: func(pltAddr, entryAddr uint64) uint64 {
		return entryAddr + 6
	},

	Disasm: disasm386,
}

func init() {
	registerArch(MachineTypeI386, ArchI386)
}

func writeI386PLTHeader(arch *Arch, buf []byte, p PLTHeaderParams) error {
	if p.Shared {
		copy(buf, i386PICPLT0[:])
		return nil
	}
	copy(buf, i386PLT0[:])
	arch.ByteOrder.PutUint32(buf[2:], uint32(p.GOTPLTAddr+4))
	arch.ByteOrder.PutUint32(buf[8:], uint32(p.GOTPLTAddr+8))
	return nil
}

// 32-bit displacements wrap, so every address in range is reachable.
func writeI386PLTEntry(arch *Arch, buf []byte, p PLTEntryParams) error {
	if p.Shared {
		copy(buf, i386PICPLT1[:])
		arch.ByteOrder.PutUint32(buf[2:], uint32(p.SlotAddr-p.GOTPLTAddr))
	} else {
		copy(buf, i386PLT1[:])
		arch.ByteOrder.PutUint32(buf[2:], uint32(p.SlotAddr))
	}
	arch.ByteOrder.PutUint32(buf[7:], uint32(p.RelOffset))
	arch.ByteOrder.PutUint32(buf[12:], uint32(p.PLTAddr-(p.Addr+16)))
	return nil
}
