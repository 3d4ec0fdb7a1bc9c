package linker

import (
	"debug/elf"
	"fmt"
)

// OutputGotSectionWriter writes .got and, on targets that keep it apart,
// .got.plt. When the GOT-PLT table is merged into .got it is added first.
type OutputGotSectionWriter struct {
	OutputWriter
	Tables []*Table
}

func NewOutputGotSectionWriter(name string, align uint64) *OutputGotSectionWriter {
	return &OutputGotSectionWriter{
		OutputWriter: *NewOutputWriter(name, elf.SHT_PROGBITS,
			elf.SHF_ALLOC|elf.SHF_WRITE, align),
	}
}

func (g *OutputGotSectionWriter) AddTable(t *Table) {
	if len(g.Tables) == 0 {
		g.Shdr.Addr = t.Addr
	}
	g.Tables = append(g.Tables, t)
	g.Shdr.Size += t.Size()
}

func (g *OutputGotSectionWriter) CopyBuf(ctx *Context, buf []byte) error {
	for _, t := range g.Tables {
		if t.Size() == 0 {
			continue
		}
		if t.Addr < g.Shdr.Addr || t.End() > g.Shdr.Addr+g.Shdr.Size {
			return fmt.Errorf("%s: %s table at 0x%x lies outside the section",
				g.Name, t.Kind, t.Addr)
		}
		base := buf[t.Addr-g.Shdr.Addr:]
		for idx, word := range t.Words {
			off := uint64(idx) * t.EntrySize
			if err := putAddr(ctx, g.Name, base[off:], word); err != nil {
				return err
			}
		}
	}
	return nil
}
