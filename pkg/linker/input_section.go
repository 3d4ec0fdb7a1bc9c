package linker

import "debug/elf"

type InputSection struct {
	ObjFile *ObjectFile
	Content []byte
	Shndx   uint32
	Name    string
	Shdr    Shdr
	Addr    uint64 // assigned by AssignInputSectionAddresses
}

func NewInputSection(obj *ObjectFile, content []byte, shndx uint32, name string, shdr Shdr) *InputSection {
	return &InputSection{
		ObjFile: obj,
		Content: content,
		Shndx:   shndx,
		Name:    name,
		Shdr:    shdr,
	}
}

func (i *InputSection) IsAlloc() bool {
	return i.Shdr.Flags&uint64(elf.SHF_ALLOC) != 0
}
