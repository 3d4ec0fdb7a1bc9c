package linker

import "debug/elf"

type OutputDynamicSectionWriter struct {
	OutputWriter
	Entries []DynamicEntry
}

func NewOutputDynamicSectionWriter(ctx *Context, addr uint64, entries []DynamicEntry) *OutputDynamicSectionWriter {
	d := &OutputDynamicSectionWriter{
		OutputWriter: *NewOutputWriter(DynamicSection, elf.SHT_DYNAMIC,
			elf.SHF_ALLOC|elf.SHF_WRITE, ctx.Arch.PtrSize),
		Entries: entries,
	}
	d.Shdr.Addr = addr
	d.Shdr.EntSize = ctx.Arch.DynEntSize()
	d.Shdr.Size = uint64(len(entries)) * d.Shdr.EntSize
	return d
}

func (d *OutputDynamicSectionWriter) CopyBuf(ctx *Context, buf []byte) error {
	ptr := ctx.Arch.PtrSize
	for i, e := range d.Entries {
		ent := buf[uint64(i)*d.Shdr.EntSize:]
		ctx.Arch.putWord(ent, uint64(e.Tag))
		if err := putAddr(ctx, d.Name, ent[ptr:], e.Val); err != nil {
			return err
		}
	}
	return nil
}
