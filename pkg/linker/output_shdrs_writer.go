package linker

import (
	"github.com/hcyang1106/gotplt/pkg/utils"
)

// should setup size, offset before using
type OutputShdrsWriter struct {
	OutputWriter
	file *OutputFile
}

func NewOutputShdrsWriter(file *OutputFile) *OutputShdrsWriter {
	return &OutputShdrsWriter{
		OutputWriter: OutputWriter{
			Name: "shdr",
			Shdr: Shdr{
				AddrAlign: 4,
			},
		},
		file: file,
	}
}

// null header, one per section, then .shstrtab
func (o *OutputShdrsWriter) UpdateSize() {
	o.Shdr.Size = uint64(len(o.file.Sections)+2) * uint64(ShdrSize)
}

func (o *OutputShdrsWriter) CopyBuf(ctx *Context, buf []byte) error {
	utils.Write[Shdr32](ctx.Arch.ByteOrder, buf, Shdr32{})
	for _, osec := range o.file.Sections {
		utils.Write[Shdr32](ctx.Arch.ByteOrder, buf[osec.Idx*uint32(ShdrSize):],
			osec.Shdr.Narrow())
	}
	strtab := o.file.ShStrTab
	utils.Write[Shdr32](ctx.Arch.ByteOrder, buf[strtab.Idx*uint32(ShdrSize):],
		strtab.Shdr.Narrow())
	return nil
}
