package linker

import "debug/elf"

type Symbol struct {
	File         *ObjectFile
	InputSection *InputSection
	Name         string
	Value        uint64
	SymIdx       uint32
	Bind         elf.SymBind
	Type         elf.SymType
	Visibility   elf.SymVis
	Defined      bool
	Absolute     bool
}

func NewSymbol(file *ObjectFile, name string) *Symbol {
	return &Symbol{
		File: file,
		Name: name,
		Bind: elf.STB_GLOBAL,
	}
}

// NewUndefinedSymbol is a global reference resolved only by the dynamic loader.
func NewUndefinedSymbol(name string) *Symbol {
	return NewSymbol(nil, name)
}

// NewDefinedSymbol is a global symbol at an absolute link-time address.
func NewDefinedSymbol(name string, addr uint64) *Symbol {
	s := NewSymbol(nil, name)
	s.Defined = true
	s.Absolute = true
	s.Value = addr
	return s
}

func (s *Symbol) SetInputSection(section *InputSection) {
	s.InputSection = section
}

func (s *Symbol) SetValue(value uint64) {
	s.Value = value
}

func (s *Symbol) SetSymIdx(idx uint32) {
	s.SymIdx = idx
}

func (s *Symbol) IsLocal() bool {
	return s.Bind == elf.STB_LOCAL
}

func (s *Symbol) GetAddr() uint64 {
	if s.InputSection != nil && !s.Absolute {
		return s.InputSection.Addr + s.Value
	}
	return s.Value
}

// IsPreemptible reports whether the symbol's final address is only known
// to the dynamic loader. Undefined symbols always are; in a shared object
// so is every default-visibility global, which another module may
// interpose.
func (s *Symbol) IsPreemptible(shared bool) bool {
	if s.IsLocal() {
		return false
	}
	if !s.Defined {
		return true
	}
	if !shared {
		return false
	}
	return s.Visibility == elf.STV_DEFAULT
}

func (s *Symbol) String() string {
	if s.Name == "" {
		return "<anonymous>"
	}
	return s.Name
}
