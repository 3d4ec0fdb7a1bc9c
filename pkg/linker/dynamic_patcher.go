package linker

import (
	"debug/elf"
	"fmt"
)

type DynamicResult struct {
	Entries []DynamicEntry
	RelDyn  []DynamicRelocation
	RelPlt  []DynamicRelocation
	Symbols *DynamicSymbols
}

func (r *DynamicResult) Lookup(tag elf.DynTag) (uint64, bool) {
	for _, e := range r.Entries {
		if e.Tag == tag {
			return e.Val, true
		}
	}
	return 0, false
}

// PatchDynamic fills in the .dynamic values that depend on the built
// tables and synthesizes the dynamic relocations for every slot.
// DT_PLTGOT always points at the GOT-PLT base.
func PatchDynamic(ctx *Context, t *Tables) (*DynamicResult, error) {
	arch := ctx.Arch
	res := &DynamicResult{Symbols: NewDynamicSymbols()}

	for _, slot := range t.GOT.Slots {
		typ, ok := gotSlotReloc(ctx, slot)
		if !ok {
			continue
		}
		rel := DynamicRelocation{Offset: slot.Addr(), Type: typ}
		if typ != arch.Relative {
			rel.Symbol = slot.Key.Symbol
			rel.SymIdx = res.Symbols.Add(rel.Symbol)
		}
		res.RelDyn = append(res.RelDyn, rel)
	}
	for _, slot := range t.GOTPLT.Slots {
		sym := slot.Key.Symbol
		res.RelPlt = append(res.RelPlt, DynamicRelocation{
			Offset: slot.Addr(),
			Type:   arch.JumpSlot,
			Symbol: sym,
			SymIdx: res.Symbols.Add(sym),
		})
	}

	if len(res.RelDyn) != t.Plan.RelDynCount || len(res.RelPlt) != t.Plan.RelPltCount {
		return nil, fmt.Errorf("dynamic relocation count changed after planning: "+
			"rel.dyn %d/%d, rel.plt %d/%d",
			len(res.RelDyn), t.Plan.RelDynCount, len(res.RelPlt), t.Plan.RelPltCount)
	}

	relent := arch.RelEntSize()
	res.Entries = append([]DynamicEntry(nil), t.Plan.Dynamic...)
	for i := range res.Entries {
		e := &res.Entries[i]
		switch e.Tag {
		case elf.DT_PLTGOT:
			e.Val = t.GOTPLT.Addr
		case elf.DT_REL:
			e.Val = t.Addrs[RelDynSection]
		case elf.DT_RELSZ:
			e.Val = uint64(len(res.RelDyn)) * relent
		case elf.DT_RELENT:
			e.Val = relent
		case elf.DT_JMPREL:
			e.Val = t.Addrs[RelPltSection]
		case elf.DT_PLTRELSZ:
			e.Val = uint64(len(res.RelPlt)) * relent
		case elf.DT_PLTREL:
			e.Val = uint64(elf.DT_REL)
		case elf.DT_FLAGS:
			if ctx.Args.BindNow {
				e.Val |= uint64(elf.DF_BIND_NOW)
			}
		}
	}

	ctx.Logger.Debug("patched dynamic section",
		"entries", len(res.Entries), "rel_dyn", len(res.RelDyn), "rel_plt", len(res.RelPlt),
		"pltgot", fmt.Sprintf("0x%x", t.GOTPLT.Addr))
	return res, nil
}
