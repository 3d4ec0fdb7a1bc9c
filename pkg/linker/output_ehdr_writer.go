package linker

import (
	"debug/elf"
	"encoding/binary"

	"github.com/hcyang1106/gotplt/pkg/utils"
)

type OutputEhdrWriter struct {
	OutputWriter
	file *OutputFile
}

func NewOutputEhdrWriter(file *OutputFile) *OutputEhdrWriter {
	return &OutputEhdrWriter{
		OutputWriter: OutputWriter{
			Name: "ehdr",
			Shdr: Shdr{
				Flags:     uint64(elf.SHF_ALLOC),
				Size:      uint64(EhdrSize),
				AddrAlign: 4,
			},
		},
		file: file,
	}
}

// the first input object decides the processor flags, e.g. the ARM EABI
// version
func getFlags(ctx *Context) uint32 {
	if len(ctx.Objs) == 0 {
		return 0
	}
	return ctx.Objs[0].ElfEhdr.Flags
}

func (o *OutputEhdrWriter) CopyBuf(ctx *Context, buf []byte) error {
	ehdr := Ehdr{}
	WriteMagic(ehdr.Ident[:])
	ehdr.Ident[elf.EI_CLASS] = uint8(elf.ELFCLASS32)
	ehdr.Ident[elf.EI_DATA] = uint8(elf.ELFDATA2LSB)
	if ctx.Arch.ByteOrder == binary.BigEndian {
		ehdr.Ident[elf.EI_DATA] = uint8(elf.ELFDATA2MSB)
	}
	ehdr.Ident[elf.EI_VERSION] = uint8(elf.EV_CURRENT)
	ehdr.Type = uint16(elf.ET_EXEC)
	if ctx.Args.Shared {
		ehdr.Type = uint16(elf.ET_DYN)
	}
	ehdr.Machine = uint16(ctx.Arch.Machine)
	ehdr.Version = uint32(elf.EV_CURRENT)
	ehdr.Flags = getFlags(ctx)
	ehdr.EhSize = uint16(EhdrSize)
	ehdr.PhOff = uint32(o.file.Phdrs.Shdr.Offset)
	ehdr.PhEntSize = uint16(PhdrSize)
	ehdr.PhNum = uint16(len(o.file.Phdrs.Phdrs))
	ehdr.ShOff = uint32(o.file.Shdrs.Shdr.Offset)
	ehdr.ShEntSize = uint16(ShdrSize)
	ehdr.ShNum = uint16(o.file.Shdrs.Shdr.Size / uint64(ShdrSize))
	ehdr.ShStrndx = uint16(o.file.ShStrTab.Idx)
	utils.Write[Ehdr](ctx.Arch.ByteOrder, buf, ehdr)
	return nil
}
