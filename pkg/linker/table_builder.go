package linker

import (
	"debug/elf"
	"fmt"
)

const GOTSymbolName = "_GLOBAL_OFFSET_TABLE_"

// DefineGOTSymbol makes _GLOBAL_OFFSET_TABLE_ a hidden, link-time
// defined symbol if any input references it. Its value is filled in once
// the GOT-PLT base is known.
func DefineGOTSymbol(ctx *Context) *Symbol {
	sym, ok := ctx.SymbolMap[GOTSymbolName]
	if !ok {
		return nil
	}
	sym.Defined = true
	sym.Absolute = true
	sym.Visibility = elf.STV_HIDDEN
	return sym
}

// BuildTables fixes every slot's address and renders the GOT, GOT-PLT
// and PLT contents. The GOT-PLT header's first word holds the address of
// .dynamic.
func BuildTables(ctx *Context, alloc *Allocation, plan *Plan, addrs SectionAddrs) (*Tables, error) {
	arch := ctx.Arch

	lookup := func(name string) (uint64, error) {
		addr, ok := addrs[name]
		if !ok {
			return 0, fmt.Errorf("no address for %s", name)
		}
		return addr, nil
	}

	gotpltAddr, err := lookup(arch.GOTPLTSection())
	if err != nil {
		return nil, err
	}
	pltAddr, err := lookup(arch.PLTSection())
	if err != nil {
		return nil, err
	}
	dynAddr, err := lookup(DynamicSection)
	if err != nil {
		return nil, err
	}
	gotAddr := gotpltAddr + plan.GOTPLTSize
	if !arch.MergedGOT {
		if gotAddr, err = lookup(arch.GOTSection()); err != nil {
			return nil, err
		}
	}

	t := &Tables{
		GOT: NewTable(SlotGOT, arch.GOTSection(), gotAddr, arch.PtrSize,
			alloc.Slots(SlotGOT)),
		GOTPLT: NewTable(SlotGOTPLT, arch.GOTPLTSection(), gotpltAddr, arch.PtrSize,
			alloc.Slots(SlotGOTPLT)),
		PLT: NewTable(SlotPLT, arch.PLTSection(), pltAddr, arch.PLTEntrySize,
			alloc.Slots(SlotPLT)),
		DynamicAddr: dynAddr,
		Addrs:       addrs,
		Plan:        plan,
	}
	if plan.GOTPLTSize > 0 {
		t.GOTPLT.HeaderSize = uint64(arch.GOTPLTHeaderEntries) * arch.PtrSize
	}
	if plan.PLTSize > 0 {
		t.PLT.HeaderSize = arch.PLTHeaderSize
	}

	for _, table := range []*Table{t.GOTPLT, t.GOT, t.PLT} {
		table.assignAddrs()
	}

	if sym := ctx.SymbolMap[GOTSymbolName]; sym != nil && sym.Absolute {
		sym.SetValue(gotpltAddr)
	}

	buildGOTPLT(ctx, t)
	buildGOT(ctx, t)
	if err := buildPLT(ctx, t); err != nil {
		return nil, err
	}

	ctx.Logger.Debug("built tables",
		"got", fmt.Sprintf("0x%x", t.GOT.Addr), "got_slots", len(t.GOT.Slots),
		"gotplt", fmt.Sprintf("0x%x", t.GOTPLT.Addr), "gotplt_slots", len(t.GOTPLT.Slots),
		"plt", fmt.Sprintf("0x%x", t.PLT.Addr), "plt_slots", len(t.PLT.Slots))
	return t, nil
}

func buildGOTPLT(ctx *Context, t *Tables) {
	table := t.GOTPLT
	table.Words = make([]uint64, table.Size()/table.EntrySize)
	if table.HeaderSize > 0 {
		table.Words[0] = t.DynamicAddr
	}
	if ctx.Args.BindNow {
		return
	}

	stubs := make(map[*Slot]*Slot, len(t.PLT.Slots))
	for _, stub := range t.PLT.Slots {
		stubs[stub.GOTPLT] = stub
	}
	header := int(table.HeaderSize / table.EntrySize)
	for _, slot := range table.Slots {
		stub, ok := stubs[slot]
		if !ok {
			continue
		}
		table.Words[header+int(slot.Index)] = ctx.Arch.LazyGOTPLT(t.PLT.Addr, stub.Addr())
	}
}

// Preemptible symbols are left for GLOB_DAT; everything else is resolved
// here and, in a shared object, rebased by RELATIVE.
func buildGOT(ctx *Context, t *Tables) {
	table := t.GOT
	table.Words = make([]uint64, len(table.Slots))
	for _, slot := range table.Slots {
		sym := slot.Key.Symbol
		if sym.IsPreemptible(ctx.Args.Shared) {
			continue
		}
		table.Words[slot.Index] = sym.GetAddr()
	}
}

func buildPLT(ctx *Context, t *Tables) error {
	arch := ctx.Arch
	table := t.PLT
	table.Data = make([]byte, table.Size())
	if len(table.Slots) == 0 {
		return nil
	}

	err := arch.WritePLTHeader(arch, table.Data, PLTHeaderParams{
		PLTAddr:    table.Addr,
		GOTPLTAddr: t.GOTPLT.Addr,
		Shared:     ctx.Args.Shared,
	})
	if err != nil {
		return err
	}
	for _, slot := range table.Slots {
		off := table.SlotAddr(slot.Index) - table.Addr
		err := arch.WritePLTEntry(arch, table.Data[off:off+table.EntrySize], PLTEntryParams{
			Index:      slot.Index,
			Addr:       slot.Addr(),
			PLTAddr:    table.Addr,
			GOTPLTAddr: t.GOTPLT.Addr,
			SlotAddr:   slot.GOTPLT.Addr(),
			RelOffset:  uint64(slot.GOTPLT.Index) * arch.RelEntSize(),
			Shared:     ctx.Args.Shared,
		})
		if err != nil {
			return fmt.Errorf("PLT entry for %s: %w", slot.Key.Symbol, err)
		}
	}
	return nil
}
