package linker

import "debug/elf"

type OutputPltSectionWriter struct {
	OutputWriter
	Table *Table
}

func NewOutputPltSectionWriter(t *Table, align uint64) *OutputPltSectionWriter {
	p := &OutputPltSectionWriter{
		OutputWriter: *NewOutputWriter(t.Section, elf.SHT_PROGBITS,
			elf.SHF_ALLOC|elf.SHF_EXECINSTR, align),
		Table: t,
	}
	p.Shdr.Addr = t.Addr
	p.Shdr.Size = t.Size()
	return p
}

func (p *OutputPltSectionWriter) CopyBuf(ctx *Context, buf []byte) error {
	copy(buf, p.Table.Data)
	return nil
}
