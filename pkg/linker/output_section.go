package linker

// OutputSection is one emitted synthetic section: its header and the
// exact bytes a loader will see at Shdr.Addr.
type OutputSection struct {
	OutputWriter
	Data []byte
	Idx  uint32 // section header index once written to a file
}

func NewOutputSection(w iOutputWriter, data []byte) *OutputSection {
	return &OutputSection{
		OutputWriter: OutputWriter{Name: w.GetName(), Shdr: *w.GetShdr()},
		Data:         data,
	}
}

func (o *OutputSection) CopyBuf(ctx *Context, buf []byte) error {
	copy(buf, o.Data)
	return nil
}

func (o *OutputSection) End() uint64 {
	return o.Shdr.Addr + o.Shdr.Size
}
