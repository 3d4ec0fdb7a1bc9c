package linker

import (
	"debug/elf"

	"github.com/hcyang1106/gotplt/pkg/utils"
)

type OutputPhdrsWriter struct {
	OutputWriter
	Phdrs []Phdr
}

func NewOutputPhdrsWriter() *OutputPhdrsWriter {
	return &OutputPhdrsWriter{
		OutputWriter: OutputWriter{
			Name: "phdr",
			Shdr: Shdr{
				AddrAlign: 4,
				Flags:     uint64(elf.SHF_ALLOC),
			},
		},
	}
}

func (o *OutputPhdrsWriter) UpdateSize(sections []*OutputSection) {
	o.createPhdrs(sections)
	o.Shdr.Size = uint64(len(o.Phdrs)) * uint64(PhdrSize)
}

func (o *OutputPhdrsWriter) CopyBuf(ctx *Context, buf []byte) error {
	for _, phdr := range o.Phdrs {
		utils.Write[Phdr](ctx.Arch.ByteOrder, buf, phdr)
		buf = buf[PhdrSize:]
	}
	return nil
}

func toPhdrFlags(shdr *Shdr) uint32 {
	ret := uint32(elf.PF_R)
	if shdr.Flags&uint64(elf.SHF_WRITE) != 0 {
		ret |= uint32(elf.PF_W)
	}
	if shdr.Flags&uint64(elf.SHF_EXECINSTR) != 0 {
		ret |= uint32(elf.PF_X)
	}
	return ret
}

// one PT_LOAD per run of sections with equal permissions, plus PT_DYNAMIC.
// sections must be sorted by address and have file offsets set.
func (o *OutputPhdrsWriter) createPhdrs(sections []*OutputSection) {
	o.Phdrs = make([]Phdr, 0)
	define := func(typ, flags uint32, align uint64, osec *OutputSection) {
		o.Phdrs = append(o.Phdrs, Phdr{
			Type:     typ,
			Flags:    flags,
			Align:    uint32(align),
			Offset:   uint32(osec.Shdr.Offset),
			VAddr:    uint32(osec.Shdr.Addr),
			PAddr:    uint32(osec.Shdr.Addr),
			FileSize: uint32(osec.Shdr.Size),
			MemSize:  uint32(osec.Shdr.Size),
		})
	}

	// size = arriving section end address - phdr start address
	push := func(osec *OutputSection) {
		phdr := &o.Phdrs[len(o.Phdrs)-1]
		phdr.FileSize = uint32(osec.End()) - phdr.VAddr
		phdr.MemSize = phdr.FileSize
	}

	for i := 0; i < len(sections); {
		curr := sections[i]
		flags := toPhdrFlags(&curr.Shdr)
		define(uint32(elf.PT_LOAD), flags, PageSize, curr)
		i++
		for i < len(sections) && toPhdrFlags(&sections[i].Shdr) == flags {
			push(sections[i])
			i++
		}
	}

	for _, osec := range sections {
		if osec.Shdr.Type == uint32(elf.SHT_DYNAMIC) {
			define(uint32(elf.PT_DYNAMIC), toPhdrFlags(&osec.Shdr), osec.Shdr.AddrAlign, osec)
		}
	}
}
