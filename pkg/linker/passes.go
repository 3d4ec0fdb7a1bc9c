package linker

import (
	"fmt"

	"github.com/hcyang1106/gotplt/pkg/utils"
)

// ReadInputFiles parses every object in command-line order. The machine
// must already be set.
func ReadInputFiles(ctx *Context, filenames []string) error {
	for _, filename := range filenames {
		file, err := NewFile(filename)
		if err != nil {
			return err
		}
		if err := readInputFile(ctx, file); err != nil {
			return err
		}
	}
	return nil
}

func readInputFile(ctx *Context, file *File) error {
	switch GetFileTypeFromContent(file.Content) {
	case FileTypeObject:
		if err := CheckFileCompatibility(ctx, file); err != nil {
			return err
		}
		_, err := NewObjectFile(ctx, file)
		return err
	case FileTypeEmpty:
		return nil
	}
	return fmt.Errorf("%s: unknown file type", file.Name)
}

// ObjectSources returns the parsed objects as relocation sources, in the
// order they were read.
func ObjectSources(ctx *Context) []RelocationSource {
	ret := make([]RelocationSource, 0, len(ctx.Objs))
	for _, obj := range ctx.Objs {
		ret = append(ret, obj)
	}
	return ret
}

// AssignInputSectionAddresses places the allocatable input sections back
// to back from the image base and returns the first free address. Symbol
// addresses are meaningful only after this pass.
func AssignInputSectionAddresses(ctx *Context) uint64 {
	addr := ctx.Args.ImageBase
	for _, obj := range ctx.Objs {
		for _, isec := range obj.InputSections {
			if !isec.IsAlloc() {
				continue
			}
			addr = utils.AlignTo(addr, isec.Shdr.AddrAlign)
			isec.Addr = addr
			addr += isec.Shdr.Size
		}
	}
	return addr
}

// AllocateSlots runs the filtered requests through a fresh allocator.
func AllocateSlots(ctx *Context, reqs []RelocationRequest) (*Allocation, error) {
	allocator := NewSlotAllocator(ctx.Arch)
	for _, req := range reqs {
		kind, needsSlot, err := ctx.Arch.SlotKindFor(req, ctx.Args.Shared)
		if err != nil {
			return nil, err
		}
		if !needsSlot {
			continue
		}
		if _, err := allocator.Assign(SlotKey{Symbol: req.Symbol, Kind: kind}); err != nil {
			return nil, err
		}
	}

	alloc := allocator.Snapshot()
	ctx.Logger.Debug("allocated slots",
		"got", alloc.Len(SlotGOT), "gotplt", alloc.Len(SlotGOTPLT), "plt", alloc.Len(SlotPLT))
	return alloc, nil
}
