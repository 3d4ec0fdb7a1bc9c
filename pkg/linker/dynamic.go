package linker

import (
	"debug/elf"
	"fmt"
)

type DynamicEntry struct {
	Tag elf.DynTag
	Val uint64
}

func (e DynamicEntry) String() string {
	return fmt.Sprintf("%s 0x%x", e.Tag, e.Val)
}

// DynamicRelocation is one entry of .rel.dyn or .rel.plt.
type DynamicRelocation struct {
	Offset uint64
	Type   uint32
	Symbol *Symbol // nil for RELATIVE
	SymIdx uint32
}

// DynamicSymbols numbers the symbols dynamic relocations refer to, in
// first-reference order. Index 0 is the null symbol.
type DynamicSymbols struct {
	syms  []*Symbol
	index map[*Symbol]uint32
}

func NewDynamicSymbols() *DynamicSymbols {
	return &DynamicSymbols{
		syms:  []*Symbol{nil},
		index: make(map[*Symbol]uint32),
	}
}

func (d *DynamicSymbols) Add(sym *Symbol) uint32 {
	if idx, ok := d.index[sym]; ok {
		return idx
	}
	idx := uint32(len(d.syms))
	d.syms = append(d.syms, sym)
	d.index[sym] = idx
	return idx
}

func (d *DynamicSymbols) Index(sym *Symbol) (uint32, bool) {
	idx, ok := d.index[sym]
	return idx, ok
}

// Symbols excludes the null entry.
func (d *DynamicSymbols) Symbols() []*Symbol {
	return d.syms[1:]
}

// gotSlotReloc tells which dynamic relocation a GOT slot needs, if any.
func gotSlotReloc(ctx *Context, slot *Slot) (uint32, bool) {
	sym := slot.Key.Symbol
	if sym.IsPreemptible(ctx.Args.Shared) {
		return ctx.Arch.GlobDat, true
	}
	if ctx.Args.Shared {
		return ctx.Arch.Relative, true
	}
	return 0, false
}

// planDynamic returns the final .dynamic tag sequence with the values the
// patcher owns still zero. Existing entries keep their position; missing
// tags are appended before the terminating DT_NULL.
func planDynamic(ctx *Context, entries []DynamicEntry, p *Plan) []DynamicEntry {
	out := make([]DynamicEntry, 0, len(entries)+10)
	for _, e := range entries {
		if e.Tag == elf.DT_NULL {
			break
		}
		out = append(out, e)
	}

	ensure := func(tag elf.DynTag) {
		for _, e := range out {
			if e.Tag == tag {
				return
			}
		}
		out = append(out, DynamicEntry{Tag: tag})
	}

	ensure(elf.DT_PLTGOT)
	if p.RelDynCount > 0 {
		ensure(elf.DT_REL)
		ensure(elf.DT_RELSZ)
		ensure(elf.DT_RELENT)
	}
	if p.RelPltCount > 0 {
		ensure(elf.DT_JMPREL)
		ensure(elf.DT_PLTRELSZ)
		ensure(elf.DT_PLTREL)
	}
	if ctx.Args.BindNow {
		ensure(elf.DT_FLAGS)
	}
	return append(out, DynamicEntry{Tag: elf.DT_NULL})
}
