package linker

import (
	"debug/elf"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func patch(t *testing.T, ctx *Context, reqs RequestList, dynamic []DynamicEntry) (*Tables, *DynamicResult) {
	t.Helper()
	filtered, err := CollectRelocations(ctx, []RelocationSource{reqs})
	require.NoError(t, err)
	alloc, err := AllocateSlots(ctx, filtered)
	require.NoError(t, err)
	plan := PlanSections(ctx, alloc, dynamic)
	addrs, err := PlaceSections(testLayout, plan)
	require.NoError(t, err)
	tables, err := BuildTables(ctx, alloc, plan, addrs)
	require.NoError(t, err)
	res, err := PatchDynamic(ctx, tables)
	require.NoError(t, err)
	return tables, res
}

func TestPatchDynamicPLTGOTIsGOTBase(t *testing.T) {
	ctx := newTestContext(t, MachineTypeARM, true)
	tables, res := patch(t, ctx, RequestList{
		req(NewUndefinedSymbol("foo"), elf.R_ARM_GOT32, 0),
	}, nil)

	pltgot, ok := res.Lookup(elf.DT_PLTGOT)
	require.True(t, ok)
	assert.Equal(t, tables.Addrs[".got"], pltgot)
	assert.Equal(t, tables.GOTPLT.Addr, pltgot)
	assert.Equal(t, elf.DT_NULL, res.Entries[len(res.Entries)-1].Tag)
}

func TestPatchDynamicRelocations(t *testing.T) {
	ctx := newTestContext(t, MachineTypeARM, true)
	foo := NewUndefinedSymbol("foo")
	bar := NewUndefinedSymbol("bar")
	local := NewDefinedSymbol("local", 0x8000)
	local.Visibility = elf.STV_PROTECTED

	tables, res := patch(t, ctx, RequestList{
		req(foo, elf.R_ARM_GOT32, 0),
		req(local, elf.R_ARM_GOT32, 4),
		req(bar, elf.R_ARM_JUMP24, 8),
		req(foo, elf.R_ARM_CALL, 12),
	}, nil)

	require.Len(t, res.RelDyn, 2)
	assert.Equal(t, uint32(elf.R_ARM_GLOB_DAT), res.RelDyn[0].Type)
	assert.Same(t, foo, res.RelDyn[0].Symbol)
	assert.Equal(t, tables.GOT.Slots[0].Addr(), res.RelDyn[0].Offset)
	assert.Equal(t, uint32(elf.R_ARM_RELATIVE), res.RelDyn[1].Type)
	assert.Nil(t, res.RelDyn[1].Symbol)
	assert.Zero(t, res.RelDyn[1].SymIdx)

	require.Len(t, res.RelPlt, 2)
	for i, rel := range res.RelPlt {
		assert.Equal(t, uint32(elf.R_ARM_JUMP_SLOT), rel.Type)
		assert.Equal(t, tables.GOTPLT.Slots[i].Addr(), rel.Offset)
	}
	assert.Same(t, bar, res.RelPlt[0].Symbol)

	// foo keeps the index it got from its GLOB_DAT
	assert.Equal(t, uint32(1), res.RelDyn[0].SymIdx)
	assert.Equal(t, uint32(1), res.RelPlt[1].SymIdx)
	assert.Equal(t, uint32(2), res.RelPlt[0].SymIdx)
	assert.Equal(t, []*Symbol{foo, bar}, res.Symbols.Symbols())

	vals := map[elf.DynTag]uint64{}
	for _, e := range res.Entries {
		vals[e.Tag] = e.Val
	}
	assert.Equal(t, tables.Addrs[RelDynSection], vals[elf.DT_REL])
	assert.Equal(t, uint64(16), vals[elf.DT_RELSZ])
	assert.Equal(t, uint64(8), vals[elf.DT_RELENT])
	assert.Equal(t, tables.Addrs[RelPltSection], vals[elf.DT_JMPREL])
	assert.Equal(t, uint64(16), vals[elf.DT_PLTRELSZ])
	assert.Equal(t, uint64(elf.DT_REL), vals[elf.DT_PLTREL])
	_, hasFlags := vals[elf.DT_FLAGS]
	assert.False(t, hasFlags)
}

func TestPatchDynamicKeepsExistingEntries(t *testing.T) {
	ctx := newTestContext(t, MachineTypeARM, true)
	ctx.Args.BindNow = true
	_, res := patch(t, ctx, RequestList{
		req(NewUndefinedSymbol("bar"), elf.R_ARM_PLT32, 0),
	}, []DynamicEntry{
		{Tag: elf.DT_NEEDED, Val: 1},
		{Tag: elf.DT_FLAGS, Val: uint64(elf.DF_TEXTREL)},
		{Tag: elf.DT_NULL},
		{Tag: elf.DT_DEBUG}, // after the terminator, dropped
	})

	tags := make([]elf.DynTag, 0)
	for _, e := range res.Entries {
		tags = append(tags, e.Tag)
	}
	assert.Equal(t, []elf.DynTag{
		elf.DT_NEEDED, elf.DT_FLAGS, elf.DT_PLTGOT,
		elf.DT_JMPREL, elf.DT_PLTRELSZ, elf.DT_PLTREL, elf.DT_NULL,
	}, tags)

	assert.Equal(t, uint64(1), res.Entries[0].Val)
	assert.Equal(t, uint64(elf.DF_TEXTREL|elf.DF_BIND_NOW), res.Entries[1].Val)
}

func TestPatchDynamicExecutableNeedsNoRelative(t *testing.T) {
	ctx := newTestContext(t, MachineTypeARM, false)
	tables, res := patch(t, ctx, RequestList{
		req(NewDefinedSymbol("local", 0x8000), elf.R_ARM_GOT32, 0),
	}, nil)

	assert.Empty(t, res.RelDyn)
	assert.Empty(t, res.RelPlt)
	_, ok := res.Lookup(elf.DT_REL)
	assert.False(t, ok)
	pltgot, _ := res.Lookup(elf.DT_PLTGOT)
	assert.Equal(t, tables.GOTPLT.Addr, pltgot)
}

func TestPatchDynamicZeroSlots(t *testing.T) {
	ctx := newTestContext(t, MachineTypeARM, true)
	tables, res := patch(t, ctx, RequestList{}, nil)

	require.Len(t, res.Entries, 2)
	assert.Equal(t, elf.DT_PLTGOT, res.Entries[0].Tag)
	assert.Equal(t, tables.Addrs[".got"], res.Entries[0].Val)
}
