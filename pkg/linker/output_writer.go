package linker

import "debug/elf"

type iOutputWriter interface {
	GetName() string
	GetShdr() *Shdr
	// buf is exactly Shdr.Size bytes
	CopyBuf(ctx *Context, buf []byte) error
}

type OutputWriter struct {
	Name string
	Shdr Shdr
}

func NewOutputWriter(name string, typ elf.SectionType, flags elf.SectionFlag, align uint64) *OutputWriter {
	if align == 0 {
		align = 1
	}
	return &OutputWriter{
		Name: name,
		Shdr: Shdr{
			Type:      uint32(typ),
			Flags:     uint64(flags),
			AddrAlign: align,
		},
	}
}

func (o *OutputWriter) GetName() string {
	return o.Name
}

func (o *OutputWriter) GetShdr() *Shdr {
	return &o.Shdr
}

func (o *OutputWriter) CopyBuf(ctx *Context, buf []byte) error {
	return nil
}

// putAddr writes one target word holding an address, failing if the
// address is not representable on the target.
func putAddr(ctx *Context, section string, buf []byte, val uint64) error {
	if val > ctx.Arch.MaxAddr() {
		return &LayoutOverflowError{Section: section, Addr: val, Bits: ctx.Arch.AddrBits}
	}
	ctx.Arch.putWord(buf, val)
	return nil
}
