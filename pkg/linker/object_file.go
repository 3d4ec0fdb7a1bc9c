package linker

import (
	"debug/elf"
	"fmt"
	"sort"

	"github.com/hcyang1106/gotplt/pkg/utils"
)

type ObjectFile struct {
	*InputFile

	InputSections []*InputSection
	Symbols       []*Symbol
	LocalSymbols  []*Symbol
}

// NewObjectFile parses file and registers its globals in ctx.SymbolMap.
// The object is appended to ctx.Objs, which fixes its scan order.
func NewObjectFile(ctx *Context, file *File) (*ObjectFile, error) {
	in, err := NewInputFile(file)
	if err != nil {
		return nil, err
	}
	if elf.Type(in.ElfEhdr.Type) != elf.ET_REL {
		return nil, fmt.Errorf("%s: not a relocatable object", file.Name)
	}

	f := &ObjectFile{InputFile: in}
	if err := f.Parse(ctx); err != nil {
		return nil, err
	}
	ctx.Objs = append(ctx.Objs, f)
	return f, nil
}

func (f *ObjectFile) Parse(ctx *Context) error {
	if err := f.ParseSymTab(); err != nil {
		return err
	}
	if err := f.ParseSymtabShndxSec(); err != nil {
		return err
	}
	if err := f.ParseInputSections(); err != nil {
		return err
	}
	return f.ParseSymbols(ctx) // should be after parsing sections
}

// fill in input sections field, one per section header so that
// InputSections[shndx] lines up with symbol section indices
func (f *ObjectFile) ParseInputSections() error {
	f.InputSections = make([]*InputSection, 0, len(f.ElfSecHdrs))
	for i := range f.ElfSecHdrs {
		hdr := f.ElfSecHdrs[i]
		content, err := f.GetBytesFromShdr(&hdr)
		if err != nil {
			return err
		}
		f.InputSections = append(f.InputSections,
			NewInputSection(f, content, uint32(i), f.SectionName(uint32(i)), hdr))
	}
	return nil
}

// fill in LocalSymbols and Symbols field
// abs => no section
// undefined globals stay shared through ctx.SymbolMap
func (f *ObjectFile) ParseSymbols(ctx *Context) error {
	f.LocalSymbols = make([]*Symbol, 0)
	f.Symbols = make([]*Symbol, 0, len(f.ElfSyms))

	for i, esym := range f.ElfSyms {
		idx := uint32(i)
		if idx == 0 {
			// first symbol is not used
			first := NewSymbol(f, "")
			first.Bind = elf.STB_LOCAL
			f.LocalSymbols = append(f.LocalSymbols, first)
			f.Symbols = append(f.Symbols, first)
			continue
		}

		name := ElfGetName(f.SymStrTab, esym.Name)
		sym := NewSymbol(f, name)
		if err := f.fillSymbol(sym, &esym, idx); err != nil {
			return err
		}

		if idx < f.FirstGlobal {
			sym.Bind = elf.STB_LOCAL
			if esym.Type() == elf.STT_SECTION && sym.InputSection != nil {
				sym.Name = sym.InputSection.Name
			}
			f.LocalSymbols = append(f.LocalSymbols, sym)
			f.Symbols = append(f.Symbols, sym)
			continue
		}

		gSym := ctx.GetSymbol(name)
		f.Symbols = append(f.Symbols, gSym)
		if !esym.IsUndef() && !gSym.Defined {
			*gSym = *sym
		}
	}
	return nil
}

func (f *ObjectFile) fillSymbol(sym *Symbol, esym *Sym, idx uint32) error {
	sym.SetValue(uint64(esym.Val))
	sym.SetSymIdx(idx)
	sym.Bind = esym.Bind()
	sym.Type = esym.Type()
	sym.Visibility = esym.Visibility()
	// commons get no storage here, the loader or a later definition
	// supplies it
	sym.Defined = !esym.IsUndef() && !esym.IsCommon()
	sym.Absolute = esym.IsAbs()
	if esym.IsUndef() || esym.IsAbs() || esym.IsCommon() {
		return nil
	}
	shndx := esym.GetShndx(f.SymtabShndxSec, idx)
	if shndx >= uint32(len(f.InputSections)) {
		return fmt.Errorf("%s: symbol %d has bad section index %d", f.File.Name, idx, shndx)
	}
	sym.SetInputSection(f.InputSections[shndx])
	return nil
}

// Relocations implements RelocationSource. Requests come out in section
// order, then offset order within each section.
func (f *ObjectFile) Relocations() ([]RelocationRequest, error) {
	type relSec struct {
		target uint32
		shdr   *Shdr
	}
	secs := make([]relSec, 0)
	for i := range f.ElfSecHdrs {
		shdr := &f.ElfSecHdrs[i]
		switch elf.SectionType(shdr.Type) {
		case elf.SHT_REL, elf.SHT_RELA:
			secs = append(secs, relSec{target: shdr.Info, shdr: shdr})
		}
	}
	sort.SliceStable(secs, func(i, j int) bool {
		return secs[i].target < secs[j].target
	})

	reqs := make([]RelocationRequest, 0)
	for _, sec := range secs {
		rels, err := f.readRels(sec.shdr)
		if err != nil {
			return nil, err
		}
		sort.SliceStable(rels, func(i, j int) bool {
			return rels[i].Offset < rels[j].Offset
		})

		name := f.SectionName(sec.target)
		for _, rel := range rels {
			symIdx := rel.Sym()
			if symIdx >= uint32(len(f.Symbols)) {
				return nil, fmt.Errorf("%s: relocation in %s references bad symbol %d",
					f.File.Name, name, symIdx)
			}
			if symIdx == 0 {
				continue
			}
			reqs = append(reqs, RelocationRequest{
				Symbol: f.Symbols[symIdx],
				Type:   rel.Type(),
				Loc: Location{
					File:    f.File.Name,
					Section: name,
					Offset:  uint64(rel.Offset),
				},
			})
		}
	}
	return reqs, nil
}

func (f *ObjectFile) readRels(shdr *Shdr) ([]Rel, error) {
	content, err := f.GetBytesFromShdr(shdr)
	if err != nil {
		return nil, err
	}
	if shdr.Type == uint32(elf.SHT_REL) {
		return utils.ReadSlice[Rel](f.Order, content, RelSize)
	}
	relas, err := utils.ReadSlice[Rela](f.Order, content, RelSize+4)
	if err != nil {
		return nil, err
	}
	rels := make([]Rel, 0, len(relas))
	for _, r := range relas {
		rels = append(rels, Rel{Offset: r.Offset, Info: r.Info})
	}
	return rels, nil
}
