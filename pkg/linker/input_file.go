package linker

import (
	"debug/elf"
	"encoding/binary"
	"fmt"

	"github.com/hcyang1106/gotplt/pkg/utils"
)

// InputFile holds the raw ELF32 tables of one input; ObjectFile builds the
// linker view on top of it.
type InputFile struct {
	File           *File
	Order          binary.ByteOrder
	ElfEhdr        Ehdr
	ElfSecHdrs     []Shdr
	ElfSyms        []Sym
	SymTabSecHdr   *Shdr // already saved in ElfSecHdrs, so use pointer here
	FirstGlobal    uint32
	ShStrTab       []byte
	SymStrTab      []byte
	SymtabShndxSec []uint32
}

func NewInputFile(file *File) (*InputFile, error) {
	f := &InputFile{
		File:       file,
		ElfSecHdrs: []Shdr{},
	}

	if len(file.Content) < EhdrSize {
		return nil, fmt.Errorf("%s: file is smaller than Ehdr size", file.Name)
	}
	if err := MustHaveMagic(file.Content); err != nil {
		return nil, fmt.Errorf("%s: %w", file.Name, err)
	}
	if elf.Class(file.Content[elf.EI_CLASS]) != elf.ELFCLASS32 {
		return nil, fmt.Errorf("%s: not an ELFCLASS32 object", file.Name)
	}
	f.Order = elfByteOrder(file.Content)

	if err := utils.ReadWith[Ehdr](f.Order, file.Content, &f.ElfEhdr); err != nil {
		return nil, fmt.Errorf("%s: %w", file.Name, err)
	}

	shdr, err := f.readShdr(0)
	if err != nil {
		return nil, err
	}
	f.ElfSecHdrs = append(f.ElfSecHdrs, shdr)

	numSecs := uint32(f.ElfEhdr.ShNum)
	if numSecs == 0 {
		numSecs = uint32(f.ElfSecHdrs[0].Size)
	}

	for i := uint32(1); i < numSecs; i++ {
		shdr, err := f.readShdr(i)
		if err != nil {
			return nil, err
		}
		f.ElfSecHdrs = append(f.ElfSecHdrs, shdr)
	}

	shStrndx := uint32(f.ElfEhdr.ShStrndx)
	if shStrndx == uint32(elf.SHN_XINDEX) {
		shStrndx = f.ElfSecHdrs[0].Link
	}
	f.ShStrTab, err = f.GetBytesFromIdx(shStrndx)
	if err != nil {
		return nil, err
	}

	return f, nil
}

func (f *InputFile) readShdr(idx uint32) (Shdr, error) {
	start := uint64(f.ElfEhdr.ShOff) + uint64(idx)*uint64(ShdrSize)
	if start+uint64(ShdrSize) > uint64(len(f.File.Content)) {
		return Shdr{}, fmt.Errorf("%s: section header %d out of range", f.File.Name, idx)
	}
	s := Shdr32{}
	if err := utils.ReadWith[Shdr32](f.Order, f.File.Content[start:], &s); err != nil {
		return Shdr{}, err
	}
	return s.Widen(), nil
}

func (f *InputFile) GetBytesFromShdr(s *Shdr) ([]byte, error) {
	if s.Type == uint32(elf.SHT_NOBITS) {
		return nil, nil
	}
	end := s.Offset + s.Size
	if end > uint64(len(f.File.Content)) {
		return nil, fmt.Errorf("%s: section exceeds file length", f.File.Name)
	}

	return f.File.Content[s.Offset:end], nil
}

func (f *InputFile) GetBytesFromIdx(idx uint32) ([]byte, error) {
	if idx >= uint32(len(f.ElfSecHdrs)) {
		return nil, fmt.Errorf("%s: section index %d exceeds section header table length",
			f.File.Name, idx)
	}

	return f.GetBytesFromShdr(&f.ElfSecHdrs[idx])
}

func (f *InputFile) FindSectionHdr(secType uint32) *Shdr {
	for i := range f.ElfSecHdrs {
		if f.ElfSecHdrs[i].Type == secType {
			return &f.ElfSecHdrs[i]
		}
	}
	return nil
}

func (f *InputFile) SectionName(idx uint32) string {
	if idx >= uint32(len(f.ElfSecHdrs)) {
		return ""
	}
	return ElfGetName(f.ShStrTab, f.ElfSecHdrs[idx].Name)
}

// find symbol table section header and
// create symbol array
func (f *InputFile) ParseSymTab() error {
	f.SymTabSecHdr = f.FindSectionHdr(uint32(elf.SHT_SYMTAB))
	if f.SymTabSecHdr == nil {
		return nil
	}
	f.FirstGlobal = f.SymTabSecHdr.Info
	bs, err := f.GetBytesFromShdr(f.SymTabSecHdr)
	if err != nil {
		return err
	}
	if f.ElfSyms, err = utils.ReadSlice[Sym](f.Order, bs, SymSize); err != nil {
		return fmt.Errorf("%s: .symtab: %w", f.File.Name, err)
	}
	f.SymStrTab, err = f.GetBytesFromIdx(f.SymTabSecHdr.Link)
	return err
}

func (f *InputFile) ParseSymtabShndxSec() error {
	secHdr := f.FindSectionHdr(uint32(elf.SHT_SYMTAB_SHNDX))
	if secHdr == nil {
		return nil
	}
	content, err := f.GetBytesFromShdr(secHdr)
	if err != nil {
		return err
	}
	f.SymtabShndxSec, err = utils.ReadSlice[uint32](f.Order, content, 4)
	return err
}
