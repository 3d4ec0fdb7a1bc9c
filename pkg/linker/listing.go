package linker

import (
	"fmt"
	"io"
)

// WriteListing prints a human readable summary of a link: section
// placement, slot contents, dynamic entries and the disassembled PLT.
func WriteListing(w io.Writer, ctx *Context, res *LinkResult) {
	fmt.Fprintf(w, "Sections:\n")
	for _, osec := range res.Image.Sorted() {
		fmt.Fprintf(w, "  %-10s 0x%08x 0x%06x\n", osec.Name, osec.Shdr.Addr, osec.Shdr.Size)
	}

	t := res.Tables
	for _, table := range []*Table{t.GOTPLT, t.GOT} {
		if len(table.Words) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s (%s):\n", table.Kind, table.Section)
		header := int(table.HeaderSize / table.EntrySize)
		for i, word := range table.Words {
			addr := table.Addr + uint64(i)*table.EntrySize
			name := "<header>"
			if i >= header {
				name = table.Slots[i-header].Key.Symbol.String()
			}
			fmt.Fprintf(w, "  0x%08x: 0x%08x %s\n", addr, word, name)
		}
	}

	fmt.Fprintf(w, "\nDynamic section:\n")
	for _, e := range res.Dynamic.Entries {
		fmt.Fprintf(w, "  %-12s 0x%x\n", e.Tag, e.Val)
	}

	for _, sec := range []struct {
		name   string
		relocs []DynamicRelocation
	}{
		{RelDynSection, res.Dynamic.RelDyn},
		{RelPltSection, res.Dynamic.RelPlt},
	} {
		if len(sec.relocs) == 0 {
			continue
		}
		fmt.Fprintf(w, "\nRelocations in %s:\n", sec.name)
		for _, rel := range sec.relocs {
			name := ""
			if rel.Symbol != nil {
				name = rel.Symbol.String()
			}
			fmt.Fprintf(w, "  0x%08x %-18s %s\n", rel.Offset, ctx.Arch.RelocName(rel.Type), name)
		}
	}

	if len(t.PLT.Data) > 0 {
		fmt.Fprintf(w, "\nDisassembly of %s:\n", t.PLT.Section)
		for _, line := range DisassemblePLT(ctx.Arch, t.PLT) {
			fmt.Fprintln(w, line)
		}
	}
}
