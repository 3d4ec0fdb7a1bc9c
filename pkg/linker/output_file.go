package linker

import (
	"debug/elf"
	"fmt"

	"github.com/hcyang1106/gotplt/pkg/utils"
)

type OutputShStrTabWriter struct {
	OutputWriter
	Idx     uint32
	content []byte
}

func NewOutputShStrTabWriter() *OutputShStrTabWriter {
	s := &OutputShStrTabWriter{
		OutputWriter: *NewOutputWriter(".shstrtab", elf.SHT_STRTAB, 0, 1),
		content:      []byte{0},
	}
	s.Shdr.Name = s.Add(s.Name)
	return s
}

func (s *OutputShStrTabWriter) Add(name string) uint32 {
	off := uint32(len(s.content))
	s.content = append(s.content, name...)
	s.content = append(s.content, 0)
	s.Shdr.Size = uint64(len(s.content))
	return off
}

func (s *OutputShStrTabWriter) CopyBuf(ctx *Context, buf []byte) error {
	copy(buf, s.content)
	return nil
}

// OutputFile wraps an Image into a loadable ELF32 file so the result can
// be inspected with standard tools.
type OutputFile struct {
	Ehdr     *OutputEhdrWriter
	Phdrs    *OutputPhdrsWriter
	Sections []*OutputSection
	ShStrTab *OutputShStrTabWriter
	Shdrs    *OutputShdrsWriter
	Buf      []byte
}

func (f *OutputFile) writers() []iOutputWriter {
	ret := []iOutputWriter{f.Ehdr, f.Phdrs}
	for _, osec := range f.Sections {
		ret = append(ret, osec)
	}
	return append(ret, f.ShStrTab, f.Shdrs)
}

// WriteOutputFile lays the image out so that every section's file offset
// is congruent to its address modulo the page size.
func WriteOutputFile(ctx *Context, img *Image) ([]byte, error) {
	f := &OutputFile{
		Phdrs:    NewOutputPhdrsWriter(),
		ShStrTab: NewOutputShStrTabWriter(),
	}
	f.Ehdr = NewOutputEhdrWriter(f)
	f.Shdrs = NewOutputShdrsWriter(f)

	for i, s := range img.Sorted() {
		osec := &OutputSection{OutputWriter: s.OutputWriter, Data: s.Data}
		osec.Idx = uint32(i + 1)
		osec.Shdr.Name = f.ShStrTab.Add(osec.Name)
		f.Sections = append(f.Sections, osec)
	}
	f.ShStrTab.Idx = uint32(len(f.Sections) + 1)
	linkSections(ctx, f.Sections)

	// program header count only depends on section order
	f.Phdrs.UpdateSize(f.Sections)
	f.Phdrs.Shdr.Offset = uint64(EhdrSize)

	offset := utils.AlignTo(uint64(EhdrSize)+f.Phdrs.Shdr.Size, PageSize)
	if len(f.Sections) > 0 {
		vbase := f.Sections[0].Shdr.Addr &^ (PageSize - 1)
		for _, osec := range f.Sections {
			osec.Shdr.Offset = offset + osec.Shdr.Addr - vbase
		}
		offset = max(offset, f.Sections[len(f.Sections)-1].Shdr.Offset+
			f.Sections[len(f.Sections)-1].Shdr.Size)
	}
	f.Phdrs.UpdateSize(f.Sections)

	f.ShStrTab.Shdr.Offset = offset
	offset += f.ShStrTab.Shdr.Size
	f.Shdrs.UpdateSize()
	f.Shdrs.Shdr.Offset = utils.AlignTo(offset, f.Shdrs.Shdr.AddrAlign)
	fileSize := f.Shdrs.Shdr.Offset + f.Shdrs.Shdr.Size
	if fileSize > ctx.Arch.MaxAddr() {
		return nil, &LayoutOverflowError{Section: "file", Addr: fileSize, Bits: ctx.Arch.AddrBits}
	}

	f.Buf = make([]byte, fileSize)
	for _, w := range f.writers() {
		shdr := w.GetShdr()
		if err := w.CopyBuf(ctx, f.Buf[shdr.Offset:shdr.Offset+shdr.Size]); err != nil {
			return nil, fmt.Errorf("%s: %w", w.GetName(), err)
		}
	}
	return f.Buf, nil
}

// .rel.plt names the table its relocations patch in sh_info
func linkSections(ctx *Context, sections []*OutputSection) {
	var gotplt uint32
	for _, osec := range sections {
		if osec.Name == ctx.Arch.GOTPLTSection() {
			gotplt = osec.Idx
		}
	}
	for _, osec := range sections {
		if osec.Name == RelPltSection {
			osec.Shdr.Info = gotplt
		}
	}
}
