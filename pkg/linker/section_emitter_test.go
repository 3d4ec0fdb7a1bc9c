package linker

import (
	"debug/elf"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emit(t *testing.T, ctx *Context, reqs RequestList, layout Layout) (*Tables, *DynamicResult, *Image, error) {
	t.Helper()
	filtered, err := CollectRelocations(ctx, []RelocationSource{reqs})
	require.NoError(t, err)
	alloc, err := AllocateSlots(ctx, filtered)
	require.NoError(t, err)
	plan := PlanSections(ctx, alloc, nil)
	addrs, err := PlaceSections(layout, plan)
	require.NoError(t, err)
	tables, err := BuildTables(ctx, alloc, plan, addrs)
	require.NoError(t, err)
	dyn, err := PatchDynamic(ctx, tables)
	require.NoError(t, err)
	img, err := EmitSections(ctx, tables, dyn)
	return tables, dyn, img, err
}

func TestEmitSectionsLittleEndian(t *testing.T) {
	ctx := newTestContext(t, MachineTypeARM, true)
	foo := NewUndefinedSymbol("foo")
	tables, dyn, img, err := emit(t, ctx, RequestList{
		req(foo, elf.R_ARM_GOT32, 0),
		req(NewUndefinedSymbol("bar"), elf.R_ARM_CALL, 4),
	}, testLayout)
	require.NoError(t, err)

	names := make([]string, 0)
	for _, osec := range img.Sections {
		names = append(names, osec.Name)
	}
	assert.Equal(t, []string{".rel.dyn", ".rel.plt", ".plt", ".dynamic", ".got"}, names)

	got := img.Section(".got")
	require.NotNil(t, got)
	require.Len(t, got.Data, 20)
	assert.Equal(t, uint32(tables.DynamicAddr), binary.LittleEndian.Uint32(got.Data[0:]))
	assert.Equal(t, uint32(tables.PLT.Addr), binary.LittleEndian.Uint32(got.Data[12:]))
	assert.Equal(t, uint32(elf.SHT_PROGBITS), got.Shdr.Type)

	assert.Equal(t, tables.PLT.Data, img.Section(".plt").Data)

	rel := img.Section(".rel.dyn")
	require.Len(t, rel.Data, 8)
	assert.Equal(t, uint32(tables.GOT.Slots[0].Addr()), binary.LittleEndian.Uint32(rel.Data[0:]))
	info := binary.LittleEndian.Uint32(rel.Data[4:])
	assert.Equal(t, uint32(elf.R_ARM_GLOB_DAT), elf.R_TYPE32(info))
	assert.Equal(t, dyn.RelDyn[0].SymIdx, elf.R_SYM32(info))

	dynamic := img.Section(".dynamic")
	assert.Equal(t, uint64(8), dynamic.Shdr.EntSize)
	assert.Equal(t, uint32(elf.DT_PLTGOT), binary.LittleEndian.Uint32(dynamic.Data[0:]))
	assert.Equal(t, uint32(got.Shdr.Addr), binary.LittleEndian.Uint32(dynamic.Data[4:]))
}

func TestEmitSectionsBigEndian(t *testing.T) {
	ctx := newTestContext(t, MachineTypeARM, true)
	arch := *ArchARM
	arch.ByteOrder = binary.BigEndian
	ctx.Arch = &arch

	tables, _, img, err := emit(t, ctx, RequestList{
		req(NewUndefinedSymbol("foo"), elf.R_ARM_GOT32, 0),
	}, testLayout)
	require.NoError(t, err)

	got := img.Section(".got").Data
	assert.Equal(t, uint32(tables.DynamicAddr), binary.BigEndian.Uint32(got[0:]))
	assert.Equal(t, img.ByteOrder, binary.ByteOrder(binary.BigEndian))
}

func TestEmitSectionsLayoutOverflow(t *testing.T) {
	ctx := newTestContext(t, MachineTypeARM, true)
	_, _, img, err := emit(t, ctx, RequestList{
		req(NewUndefinedSymbol("foo"), elf.R_ARM_GOT32, 0),
	}, SequentialLayout{Base: 0xffffffe0})
	require.ErrorIs(t, err, ErrLayoutOverflow)
	assert.Nil(t, img)

	var overflow *LayoutOverflowError
	require.ErrorAs(t, err, &overflow)
	assert.Equal(t, 32, overflow.Bits)
	assert.Greater(t, overflow.Addr, uint64(0xffffffff))
}

func TestImageBytes(t *testing.T) {
	ctx := newTestContext(t, MachineTypeARM, true)
	_, _, img, err := emit(t, ctx, RequestList{
		req(NewUndefinedSymbol("bar"), elf.R_ARM_CALL, 0),
	}, testLayout)
	require.NoError(t, err)

	base, buf := img.Bytes()
	assert.Equal(t, uint64(0x20000), base)
	for _, osec := range img.Sections {
		off := osec.Shdr.Addr - base
		assert.Equal(t, osec.Data, buf[off:off+osec.Shdr.Size], osec.Name)
	}

	sorted := img.Sorted()
	for i := 1; i < len(sorted); i++ {
		assert.LessOrEqual(t, sorted[i-1].Shdr.Addr, sorted[i].Shdr.Addr)
	}
}
