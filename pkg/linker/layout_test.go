package linker

import (
	"debug/elf"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type layoutFunc func([]SectionRequest) (SectionAddrs, error)

func (f layoutFunc) Place(reqs []SectionRequest) (SectionAddrs, error) {
	return f(reqs)
}

func TestPlanSectionsSizes(t *testing.T) {
	ctx := newTestContext(t, MachineTypeARM, true)
	foo := NewUndefinedSymbol("foo")
	alloc, err := AllocateSlots(ctx, []RelocationRequest{
		req(foo, elf.R_ARM_GOT32, 0),
		req(NewUndefinedSymbol("bar"), elf.R_ARM_CALL, 4),
		req(NewUndefinedSymbol("baz"), elf.R_ARM_CALL, 8),
	})
	require.NoError(t, err)

	plan := PlanSections(ctx, alloc, nil)
	assert.Equal(t, uint64(12+2*4), plan.GOTPLTSize)
	assert.Equal(t, uint64(4), plan.GOTSize)
	assert.Equal(t, uint64(20+2*12), plan.PLTSize)
	assert.Equal(t, 1, plan.RelDynCount)
	assert.Equal(t, 2, plan.RelPltCount)

	got, ok := plan.Section(".got")
	require.True(t, ok)
	assert.Equal(t, plan.GOTPLTSize+plan.GOTSize, got.Size)
	assert.NotZero(t, got.Flags&elf.SHF_WRITE)

	plt, ok := plan.Section(".plt")
	require.True(t, ok)
	assert.NotZero(t, plt.Flags&elf.SHF_EXECINSTR)

	_, ok = plan.Section(".got.plt")
	assert.False(t, ok, "ARM keeps GOT-PLT inside .got")
}

func TestPlanSectionsI386SplitsGOT(t *testing.T) {
	ctx := newTestContext(t, MachineTypeI386, true)
	alloc, err := AllocateSlots(ctx, nil)
	require.NoError(t, err)

	plan := PlanSections(ctx, alloc, nil)
	_, hasGOT := plan.Section(".got")
	_, hasGOTPLT := plan.Section(".got.plt")
	assert.True(t, hasGOT)
	assert.True(t, hasGOTPLT)
	assert.Zero(t, plan.GOTPLTSize)
}

func TestSequentialLayout(t *testing.T) {
	addrs, err := SequentialLayout{Base: 0x1001, PageSize: 0x1000}.Place([]SectionRequest{
		{Name: "a", Size: 3, Align: 4, Flags: elf.SHF_ALLOC},
		{Name: "b", Size: 8, Align: 16, Flags: elf.SHF_ALLOC | elf.SHF_EXECINSTR},
		{Name: "c", Size: 4, Align: 4, Flags: elf.SHF_ALLOC | elf.SHF_WRITE},
		{Name: "d", Size: 4, Align: 4, Flags: elf.SHF_ALLOC | elf.SHF_WRITE},
	})
	require.NoError(t, err)
	assert.Equal(t, SectionAddrs{"a": 0x1004, "b": 0x1010, "c": 0x2000, "d": 0x2004}, addrs)
}

func TestPlaceSectionsValidates(t *testing.T) {
	plan := &Plan{Sections: []SectionRequest{
		{Name: ".got", Size: 4, Align: 4},
		{Name: ".plt", Size: 4, Align: 4},
	}}

	_, err := PlaceSections(FixedLayout{".got": 0x1000}, plan)
	assert.ErrorContains(t, err, ".plt")

	_, err = PlaceSections(layoutFunc(func([]SectionRequest) (SectionAddrs, error) {
		return SectionAddrs{".got": 0x1000}, nil
	}), plan)
	assert.ErrorContains(t, err, "did not place .plt")

	_, err = PlaceSections(FixedLayout{".got": 0x1002, ".plt": 0x2000}, plan)
	assert.ErrorContains(t, err, "alignment")

	boom := errors.New("boom")
	_, err = PlaceSections(layoutFunc(func([]SectionRequest) (SectionAddrs, error) {
		return nil, boom
	}), plan)
	assert.ErrorIs(t, err, boom)

	addrs, err := PlaceSections(FixedLayout{".got": 0x1000, ".plt": 0x2000}, plan)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x2000), addrs[".plt"])
}

func TestArchSlotKindFor(t *testing.T) {
	foo := NewUndefinedSymbol("foo")
	kind, needsSlot, err := ArchARM.SlotKindFor(req(foo, elf.R_ARM_GOT_ABS, 0), true)
	require.NoError(t, err)
	assert.True(t, needsSlot)
	assert.Equal(t, SlotGOT, kind)

	_, needsSlot, err = ArchARM.SlotKindFor(req(foo, elf.R_ARM_MOVW_ABS_NC, 0), true)
	require.NoError(t, err)
	assert.False(t, needsSlot)

	_, err = LookupArch(MachineTypeNone)
	assert.Error(t, err)
	arm, err := LookupArch(MachineTypeARM)
	require.NoError(t, err)
	assert.Same(t, ArchARM, arm)
	arch, err := LookupArch(MachineTypeI386)
	require.NoError(t, err)
	assert.Same(t, ArchI386, arch)
	assert.Equal(t, uint64(0xffffffff), arch.MaxAddr())
}
