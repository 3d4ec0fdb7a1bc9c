package linker

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

type testSym struct {
	name    string
	defined bool
	local   bool
	common  bool
	value   uint32
	vis     elf.SymVis
}

type testRel struct {
	offset uint32
	sym    string
	typ    uint32
}

// testObject assembles a minimal little-endian ELF32 relocatable with a
// .text section, one .rel.text and a symbol table.
type testObject struct {
	machine elf.Machine
	syms    []testSym
	rels    []testRel
}

const testTextSize = 64

func (o testObject) bytes(t *testing.T) []byte {
	t.Helper()
	order := binary.LittleEndian

	strtab := []byte{0}
	addStr := func(tab *[]byte, s string) uint32 {
		off := uint32(len(*tab))
		*tab = append(*tab, s...)
		*tab = append(*tab, 0)
		return off
	}

	// null, section symbol, locals, then globals
	syms := []Sym{{}, {Info: elf.ST_INFO(elf.STB_LOCAL, elf.STT_SECTION), Shndx: 1}}
	index := map[string]uint32{}
	ordered := make([]testSym, 0, len(o.syms))
	for _, s := range o.syms {
		if s.local {
			ordered = append(ordered, s)
		}
	}
	firstGlobal := uint32(len(syms) + len(ordered))
	for _, s := range o.syms {
		if !s.local {
			ordered = append(ordered, s)
		}
	}
	for _, s := range ordered {
		esym := Sym{Name: addStr(&strtab, s.name), Other: uint8(s.vis)}
		bind := elf.STB_GLOBAL
		if s.local {
			bind = elf.STB_LOCAL
		}
		typ := elf.STT_NOTYPE
		switch {
		case s.common:
			typ = elf.STT_OBJECT
			esym.Shndx = uint16(elf.SHN_COMMON)
			esym.Val = s.value
		case s.defined:
			typ = elf.STT_FUNC
			esym.Shndx = 1
			esym.Val = s.value
		}
		esym.Info = elf.ST_INFO(bind, typ)
		index[s.name] = uint32(len(syms))
		syms = append(syms, esym)
	}

	rels := make([]Rel, 0, len(o.rels))
	for _, r := range o.rels {
		idx, ok := index[r.sym]
		require.True(t, ok, "unknown symbol %s", r.sym)
		rels = append(rels, Rel{Offset: r.offset, Info: elf.R_INFO32(idx, r.typ)})
	}

	shstrtab := []byte{0}
	names := []uint32{0}
	for _, n := range []string{".text", ".rel.text", ".symtab", ".strtab", ".shstrtab"} {
		names = append(names, addStr(&shstrtab, n))
	}

	body := bytes.Buffer{}
	body.Write(make([]byte, EhdrSize))
	place := func(data any) (uint32, uint32) {
		for body.Len()%4 != 0 {
			body.WriteByte(0)
		}
		off := uint32(body.Len())
		require.NoError(t, binary.Write(&body, order, data))
		return off, uint32(body.Len()) - off
	}

	textOff, textSize := place(make([]byte, testTextSize))
	relOff, relSize := place(rels)
	symOff, symSize := place(syms)
	strOff, strSize := place(strtab)
	shstrOff, shstrSize := place(shstrtab)

	shdrs := []Shdr32{
		{},
		{Name: names[1], Type: uint32(elf.SHT_PROGBITS), Flags: uint32(elf.SHF_ALLOC | elf.SHF_EXECINSTR),
			Offset: textOff, Size: textSize, AddrAlign: 4},
		{Name: names[2], Type: uint32(elf.SHT_REL), Flags: uint32(elf.SHF_INFO_LINK),
			Offset: relOff, Size: relSize, Link: 3, Info: 1, AddrAlign: 4, EntSize: uint32(RelSize)},
		{Name: names[3], Type: uint32(elf.SHT_SYMTAB), Offset: symOff, Size: symSize,
			Link: 4, Info: firstGlobal, AddrAlign: 4, EntSize: uint32(SymSize)},
		{Name: names[4], Type: uint32(elf.SHT_STRTAB), Offset: strOff, Size: strSize, AddrAlign: 1},
		{Name: names[5], Type: uint32(elf.SHT_STRTAB), Offset: shstrOff, Size: shstrSize, AddrAlign: 1},
	}
	shOff, _ := place(shdrs)

	ehdr := Ehdr{
		Type:      uint16(elf.ET_REL),
		Machine:   uint16(o.machine),
		Version:   uint32(elf.EV_CURRENT),
		ShOff:     shOff,
		Flags:     0x05000000,
		EhSize:    uint16(EhdrSize),
		ShEntSize: uint16(ShdrSize),
		ShNum:     uint16(len(shdrs)),
		ShStrndx:  5,
	}
	WriteMagic(ehdr.Ident[:])
	ehdr.Ident[elf.EI_CLASS] = uint8(elf.ELFCLASS32)
	ehdr.Ident[elf.EI_DATA] = uint8(elf.ELFDATA2LSB)
	ehdr.Ident[elf.EI_VERSION] = uint8(elf.EV_CURRENT)

	out := body.Bytes()
	hdr := bytes.Buffer{}
	require.NoError(t, binary.Write(&hdr, order, ehdr))
	copy(out, hdr.Bytes())
	return out
}

// newTestContext returns a context for machine with logging discarded.
func newTestContext(t *testing.T, m MachineType, shared bool) *Context {
	t.Helper()
	ctx := NewContext()
	ctx.Logger = NewLogger(io.Discard, false)
	ctx.Args.Shared = shared
	require.NoError(t, ctx.SetMachine(m))
	return ctx
}

func loadTestObject(t *testing.T, ctx *Context, name string, o testObject) *ObjectFile {
	t.Helper()
	if o.machine == elf.EM_NONE {
		o.machine = ctx.Arch.Machine
	}
	obj, err := NewObjectFile(ctx, NewFileFromContent(name, o.bytes(t)))
	require.NoError(t, err)
	return obj
}
