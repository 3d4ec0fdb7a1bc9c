package linker

import (
	"debug/elf"
	"encoding/binary"
)

// ARM PLT templates, as emitted by GNU ld and mcld for ARM mode.
var armPLT0 = [...]uint32{
	0xe52de004, // str   lr, [sp, #-4]!
	0xe59fe004, // ldr   lr, [pc, #4]
	0xe08fe00e, // add   lr, pc, lr
	0xe5bef008, // ldr   pc, [lr, #8]!
	0x00000000, // .word &GOT[0] - .
}

// the three-instruction entry reaches forward up to 256MiB
const armPLTReachBits = 28

var armPLT1 = [...]uint32{
	0xe28fc600, // add   ip, pc, #0xNN00000
	0xe28cca00, // add   ip, ip, #0xNN000
	0xe5bcf000, // ldr   pc, [ip, #0xNNN]!
}

var ArchARM = &Arch{
	Name:      "arm",
	Machine:   elf.EM_ARM,
	ByteOrder: binary.LittleEndian,
	PtrSize:   4,
	AddrBits:  32,
	GOTAlign:  4,
	PLTAlign:  4,

	GOTPLTHeaderEntries: 3,
	PLTHeaderSize:       uint64(len(armPLT0) * 4),
	PLTEntrySize:        uint64(len(armPLT1) * 4),
	MergedGOT:           true,

	SlotRules: map[uint32]SlotRule{
		uint32(elf.R_ARM_GOT32):      {Kind: SlotGOT},
		uint32(elf.R_ARM_GOT_PREL):   {Kind: SlotGOT},
		uint32(elf.R_ARM_GOT_ABS):    {Kind: SlotGOT},
		uint32(elf.R_ARM_GOT_BREL12): {Kind: SlotGOT},
		uint32(elf.R_ARM_PLT32):      {Kind: SlotPLT, Preemptible: true},
		uint32(elf.R_ARM_CALL):       {Kind: SlotPLT, Preemptible: true},
		uint32(elf.R_ARM_JUMP24):     {Kind: SlotPLT, Preemptible: true},
		uint32(elf.R_ARM_THM_PC22):   {Kind: SlotPLT, Preemptible: true},
		uint32(elf.R_ARM_THM_JUMP24): {Kind: SlotPLT, Preemptible: true},
	},
	SlotRelocs: map[uint32]bool{
		uint32(elf.R_ARM_TLS_GD32):   true,
		uint32(elf.R_ARM_TLS_LDM32):  true,
		uint32(elf.R_ARM_TLS_IE32):   true,
		uint32(elf.R_ARM_TLS_IE12GP): true,
	},

	RelocName: func(typ uint32) string { return elf.R_ARM(typ).String() },

	GlobDat:  uint32(elf.R_ARM_GLOB_DAT),
	JumpSlot: uint32(elf.R_ARM_JUMP_SLOT),
	Relative: uint32(elf.R_ARM_RELATIVE),

	WritePLTHeader: writeARMPLTHeader,
	WritePLTEntry:  writeARMPLTEntry,
	LazyGOTPLT: func(pltAddr, entryAddr uint64) uint64 {
		return pltAddr
	},

	Disasm: disasmARM,
}

func init() {
	registerArch(MachineTypeARM, ArchARM)
}

// ARM PLT code is pc-relative, so executables and shared objects share
// one template.
func writeARMPLTHeader(arch *Arch, buf []byte, p PLTHeaderParams) error {
	for i, insn := range armPLT0 {
		arch.ByteOrder.PutUint32(buf[i*4:], insn)
	}
	// pc reads 8 ahead of the add at PLT0+8; the add wraps mod 2^32
	arch.ByteOrder.PutUint32(buf[16:], uint32(p.GOTPLTAddr-(p.PLTAddr+16)))
	return nil
}

func writeARMPLTEntry(arch *Arch, buf []byte, p PLTEntryParams) error {
	pc := p.Addr + 8
	if p.SlotAddr < pc || p.SlotAddr-pc >= 1<<armPLTReachBits {
		return &LayoutOverflowError{
			Section: arch.PLTSection(),
			Addr:    p.SlotAddr,
			Bits:    armPLTReachBits,
			From:    pc,
		}
	}
	offset := uint32(p.SlotAddr - pc)
	arch.ByteOrder.PutUint32(buf[0:], armPLT1[0]|(offset>>20)&0xff)
	arch.ByteOrder.PutUint32(buf[4:], armPLT1[1]|(offset>>12)&0xff)
	arch.ByteOrder.PutUint32(buf[8:], armPLT1[2]|offset&0xfff)
	return nil
}
