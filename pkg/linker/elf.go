package linker

import (
	"bytes"
	"debug/elf"
	"unsafe"
)

// ARM and i386 are both ELFCLASS32 targets.
const EhdrSize = int(unsafe.Sizeof(Ehdr{}))
const ShdrSize = int(unsafe.Sizeof(Shdr32{}))
const SymSize = int(unsafe.Sizeof(Sym{}))
const RelSize = int(unsafe.Sizeof(Rel{}))
const DynSize = int(unsafe.Sizeof(Dyn{}))
const PhdrSize = int(unsafe.Sizeof(Phdr{}))

type Ehdr struct {
	Ident     [16]uint8
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint32
	PhOff     uint32
	ShOff     uint32
	Flags     uint32
	EhSize    uint16
	PhEntSize uint16
	PhNum     uint16
	ShEntSize uint16
	ShNum     uint16
	ShStrndx  uint16
}

// Shdr is kept at 64-bit width in memory so output sections can describe
// addresses the emitter later range-checks against the target.
type Shdr struct {
	Name      uint32
	Type      uint32
	Flags     uint64
	Addr      uint64
	Offset    uint64
	Size      uint64
	Link      uint32
	Info      uint32
	AddrAlign uint64
	EntSize   uint64
}

// on-disk ELF32 section header
type Shdr32 struct {
	Name      uint32
	Type      uint32
	Flags     uint32
	Addr      uint32
	Offset    uint32
	Size      uint32
	Link      uint32
	Info      uint32
	AddrAlign uint32
	EntSize   uint32
}

func (s *Shdr32) Widen() Shdr {
	return Shdr{
		Name:      s.Name,
		Type:      s.Type,
		Flags:     uint64(s.Flags),
		Addr:      uint64(s.Addr),
		Offset:    uint64(s.Offset),
		Size:      uint64(s.Size),
		Link:      s.Link,
		Info:      s.Info,
		AddrAlign: uint64(s.AddrAlign),
		EntSize:   uint64(s.EntSize),
	}
}

// Narrow converts back to the on-disk layout; the caller has range
// checked the 64-bit fields.
func (s *Shdr) Narrow() Shdr32 {
	return Shdr32{
		Name:      s.Name,
		Type:      s.Type,
		Flags:     uint32(s.Flags),
		Addr:      uint32(s.Addr),
		Offset:    uint32(s.Offset),
		Size:      uint32(s.Size),
		Link:      s.Link,
		Info:      s.Info,
		AddrAlign: uint32(s.AddrAlign),
		EntSize:   uint32(s.EntSize),
	}
}

// ELF32 program header; field order differs from ELF64
type Phdr struct {
	Type     uint32
	Offset   uint32
	VAddr    uint32
	PAddr    uint32
	FileSize uint32
	MemSize  uint32
	Flags    uint32
	Align    uint32
}

type Sym struct {
	Name  uint32
	Val   uint32
	Size  uint32
	Info  uint8
	Other uint8
	Shndx uint16
}

func (s *Sym) GetShndx(table []uint32, idx uint32) uint32 {
	if elf.SectionIndex(s.Shndx) != elf.SHN_XINDEX {
		return uint32(s.Shndx)
	}
	return table[idx]
}

func (s *Sym) IsAbs() bool {
	return s.Shndx == uint16(elf.SHN_ABS)
}

func (s *Sym) IsUndef() bool {
	return s.Shndx == uint16(elf.SHN_UNDEF)
}

func (s *Sym) IsCommon() bool {
	return s.Shndx == uint16(elf.SHN_COMMON)
}

func (s *Sym) Bind() elf.SymBind {
	return elf.ST_BIND(s.Info)
}

func (s *Sym) Type() elf.SymType {
	return elf.ST_TYPE(s.Info)
}

func (s *Sym) Visibility() elf.SymVis {
	return elf.ST_VISIBILITY(s.Other)
}

type Rel struct {
	Offset uint32
	Info   uint32
}

func (r *Rel) Sym() uint32 {
	return elf.R_SYM32(r.Info)
}

func (r *Rel) Type() uint32 {
	return elf.R_TYPE32(r.Info)
}

type Rela struct {
	Offset uint32
	Info   uint32
	Addend int32
}

type Dyn struct {
	Tag int32
	Val uint32
}

func ElfGetName(strTab []byte, offset uint32) string {
	if offset >= uint32(len(strTab)) {
		return ""
	}
	length := bytes.IndexByte(strTab[offset:], 0)
	if length < 0 {
		return string(strTab[offset:])
	}
	return string(strTab[offset : offset+uint32(length)])
}
