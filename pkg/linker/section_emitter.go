package linker

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// Image holds the emitted sections in layout request order.
type Image struct {
	ByteOrder binary.ByteOrder
	Sections  []*OutputSection
}

func (img *Image) Section(name string) *OutputSection {
	for _, osec := range img.Sections {
		if osec.Name == name {
			return osec
		}
	}
	return nil
}

// Bytes returns the sections flattened into one buffer that starts at the
// lowest section address. Gaps are zero.
func (img *Image) Bytes() (base uint64, buf []byte) {
	if len(img.Sections) == 0 {
		return 0, nil
	}
	base, end := img.Sections[0].Shdr.Addr, uint64(0)
	for _, osec := range img.Sections {
		base = min(base, osec.Shdr.Addr)
		end = max(end, osec.End())
	}
	buf = make([]byte, end-base)
	for _, osec := range img.Sections {
		copy(buf[osec.Shdr.Addr-base:], osec.Data)
	}
	return base, buf
}

// Sorted returns the sections ordered by address.
func (img *Image) Sorted() []*OutputSection {
	out := append([]*OutputSection(nil), img.Sections...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Shdr.Addr < out[j].Shdr.Addr
	})
	return out
}

// EmitSections serializes every synthetic section in the target byte
// order. Nothing is returned unless every section fits the target's
// address width.
func EmitSections(ctx *Context, t *Tables, dyn *DynamicResult) (*Image, error) {
	writers, err := createOutputWriters(ctx, t, dyn)
	if err != nil {
		return nil, err
	}

	img := &Image{ByteOrder: ctx.Arch.ByteOrder}
	for _, w := range writers {
		shdr := w.GetShdr()
		if err := checkRange(ctx, w.GetName(), shdr.Addr, shdr.Size); err != nil {
			return nil, err
		}
		buf := make([]byte, shdr.Size)
		if err := w.CopyBuf(ctx, buf); err != nil {
			return nil, err
		}
		img.Sections = append(img.Sections, NewOutputSection(w, buf))
	}

	ctx.Logger.Debug("emitted sections", "count", len(img.Sections))
	return img, nil
}

// the writers follow the plan's request order
func createOutputWriters(ctx *Context, t *Tables, dyn *DynamicResult) ([]iOutputWriter, error) {
	arch := ctx.Arch
	writers := make([]iOutputWriter, 0, len(t.Plan.Sections))
	for _, req := range t.Plan.Sections {
		addr := t.Addrs[req.Name]

		var w iOutputWriter
		switch req.Name {
		case RelDynSection:
			w = NewOutputRelSectionWriter(ctx, req.Name, addr, dyn.RelDyn)
		case RelPltSection:
			w = NewOutputRelSectionWriter(ctx, req.Name, addr, dyn.RelPlt)
		case DynamicSection:
			w = NewOutputDynamicSectionWriter(ctx, addr, dyn.Entries)
		case arch.PLTSection():
			w = NewOutputPltSectionWriter(t.PLT, arch.PLTAlign)
		case arch.GOTSection(), arch.GOTPLTSection():
			g := NewOutputGotSectionWriter(req.Name, arch.GOTAlign)
			if req.Name == arch.GOTPLTSection() {
				g.AddTable(t.GOTPLT)
			}
			if req.Name == arch.GOTSection() {
				g.AddTable(t.GOT)
			}
			w = g
		default:
			return nil, fmt.Errorf("no writer for section %s", req.Name)
		}

		if w.GetShdr().Size != req.Size {
			return nil, fmt.Errorf("%s: emitted size %d differs from planned size %d",
				req.Name, w.GetShdr().Size, req.Size)
		}
		writers = append(writers, w)
	}
	return writers, nil
}

func checkRange(ctx *Context, name string, addr, size uint64) error {
	limit := ctx.Arch.MaxAddr()
	if addr > limit {
		return &LayoutOverflowError{Section: name, Addr: addr, Bits: ctx.Arch.AddrBits}
	}
	if size > 0 && size-1 > limit-addr {
		return &LayoutOverflowError{Section: name, Addr: addr + size - 1, Bits: ctx.Arch.AddrBits}
	}
	return nil
}
