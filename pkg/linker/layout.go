package linker

import (
	"debug/elf"
	"fmt"

	"github.com/hcyang1106/gotplt/pkg/utils"
)

const (
	DynamicSection = ".dynamic"
	RelDynSection  = ".rel.dyn"
	RelPltSection  = ".rel.plt"
)

// SectionRequest is what the layout planner is asked to place.
type SectionRequest struct {
	Name  string
	Size  uint64
	Align uint64
	Flags elf.SectionFlag
}

// SectionAddrs maps output section names to their virtual addresses.
type SectionAddrs map[string]uint64

// Layout is the external section-layout planner. It receives final sizes
// and must return an address for every requested section.
type Layout interface {
	Place(reqs []SectionRequest) (SectionAddrs, error)
}

// Plan is everything known once slots are allocated: table sizes, the
// dynamic relocation counts and the .dynamic tags that will be written.
type Plan struct {
	GOTPLTSize uint64
	GOTSize    uint64
	PLTSize    uint64

	RelDynCount int
	RelPltCount int

	Dynamic  []DynamicEntry
	Sections []SectionRequest
}

func (p *Plan) Section(name string) (SectionRequest, bool) {
	for _, s := range p.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return SectionRequest{}, false
}

func PlanSections(ctx *Context, alloc *Allocation, dynamic []DynamicEntry) *Plan {
	arch := ctx.Arch
	p := &Plan{}

	nGOT := uint64(alloc.Len(SlotGOT))
	nGOTPLT := uint64(alloc.Len(SlotGOTPLT))
	nPLT := uint64(alloc.Len(SlotPLT))

	if nGOT+nGOTPLT > 0 {
		p.GOTPLTSize = uint64(arch.GOTPLTHeaderEntries)*arch.PtrSize + nGOTPLT*arch.PtrSize
	}
	p.GOTSize = nGOT * arch.PtrSize
	if nPLT > 0 {
		p.PLTSize = arch.PLTHeaderSize + nPLT*arch.PLTEntrySize
	}

	for _, slot := range alloc.Slots(SlotGOT) {
		if _, ok := gotSlotReloc(ctx, slot); ok {
			p.RelDynCount++
		}
	}
	p.RelPltCount = int(nGOTPLT)

	p.Dynamic = planDynamic(ctx, dynamic, p)

	write := elf.SHF_ALLOC | elf.SHF_WRITE
	p.Sections = append(p.Sections,
		SectionRequest{Name: RelDynSection, Size: uint64(p.RelDynCount) * arch.RelEntSize(),
			Align: arch.PtrSize, Flags: elf.SHF_ALLOC},
		SectionRequest{Name: RelPltSection, Size: uint64(p.RelPltCount) * arch.RelEntSize(),
			Align: arch.PtrSize, Flags: elf.SHF_ALLOC | elf.SHF_INFO_LINK},
		SectionRequest{Name: arch.PLTSection(), Size: p.PLTSize,
			Align: arch.PLTAlign, Flags: elf.SHF_ALLOC | elf.SHF_EXECINSTR},
		SectionRequest{Name: DynamicSection, Size: uint64(len(p.Dynamic)) * arch.DynEntSize(),
			Align: arch.PtrSize, Flags: write},
	)
	if arch.MergedGOT {
		p.Sections = append(p.Sections,
			SectionRequest{Name: arch.GOTSection(), Size: p.GOTPLTSize + p.GOTSize,
				Align: arch.GOTAlign, Flags: write})
	} else {
		p.Sections = append(p.Sections,
			SectionRequest{Name: arch.GOTSection(), Size: p.GOTSize,
				Align: arch.GOTAlign, Flags: write},
			SectionRequest{Name: arch.GOTPLTSection(), Size: p.GOTPLTSize,
				Align: arch.GOTAlign, Flags: write})
	}
	return p
}

// PlaceSections asks the planner for addresses and checks it answered
// for every section.
func PlaceSections(layout Layout, plan *Plan) (SectionAddrs, error) {
	addrs, err := layout.Place(plan.Sections)
	if err != nil {
		return nil, err
	}
	for _, req := range plan.Sections {
		addr, ok := addrs[req.Name]
		if !ok {
			return nil, fmt.Errorf("layout did not place %s", req.Name)
		}
		if req.Align > 1 && addr%req.Align != 0 {
			return nil, fmt.Errorf("layout placed %s at 0x%x, want %d-byte alignment",
				req.Name, addr, req.Align)
		}
	}
	return addrs, nil
}

// SequentialLayout places sections back to back from Base in request
// order. Writable sections start on a new page when PageSize is set, so
// read-only and writable data can live in separate segments.
type SequentialLayout struct {
	Base     uint64
	PageSize uint64
}

func (l SequentialLayout) Place(reqs []SectionRequest) (SectionAddrs, error) {
	addrs := make(SectionAddrs, len(reqs))
	addr := l.Base
	prevWrite := false
	for _, req := range reqs {
		isWrite := req.Flags&elf.SHF_WRITE != 0
		if isWrite && !prevWrite && l.PageSize > 0 {
			addr = utils.AlignTo(addr, l.PageSize)
		}
		prevWrite = isWrite
		addr = utils.AlignTo(addr, req.Align)
		addrs[req.Name] = addr
		addr += req.Size
	}
	return addrs, nil
}

// FixedLayout returns preassigned addresses, as a linker script would.
type FixedLayout SectionAddrs

func (l FixedLayout) Place(reqs []SectionRequest) (SectionAddrs, error) {
	addrs := make(SectionAddrs, len(reqs))
	for _, req := range reqs {
		addr, ok := l[req.Name]
		if !ok {
			return nil, fmt.Errorf("no address for %s", req.Name)
		}
		addrs[req.Name] = addr
	}
	return addrs, nil
}
