package linker

import "debug/elf"

// OutputRelSectionWriter writes REL-format dynamic relocations. The
// addend lives in the GOT word the relocation targets.
type OutputRelSectionWriter struct {
	OutputWriter
	Relocs []DynamicRelocation
}

func NewOutputRelSectionWriter(ctx *Context, name string, addr uint64, relocs []DynamicRelocation) *OutputRelSectionWriter {
	flags := elf.SHF_ALLOC
	if name == RelPltSection {
		flags |= elf.SHF_INFO_LINK
	}
	r := &OutputRelSectionWriter{
		OutputWriter: *NewOutputWriter(name, elf.SHT_REL, flags, ctx.Arch.PtrSize),
		Relocs:       relocs,
	}
	r.Shdr.Addr = addr
	r.Shdr.EntSize = ctx.Arch.RelEntSize()
	r.Shdr.Size = uint64(len(relocs)) * r.Shdr.EntSize
	return r
}

func (r *OutputRelSectionWriter) CopyBuf(ctx *Context, buf []byte) error {
	ptr := ctx.Arch.PtrSize
	for i, rel := range r.Relocs {
		ent := buf[uint64(i)*r.Shdr.EntSize:]
		if err := putAddr(ctx, r.Name, ent, rel.Offset); err != nil {
			return err
		}
		ctx.Arch.putWord(ent[ptr:], ctx.Arch.RelInfo(rel.SymIdx, rel.Type))
	}
	return nil
}
