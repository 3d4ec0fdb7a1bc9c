package linker

import "fmt"

type Location struct {
	File    string
	Section string
	Offset  uint64
}

func (l Location) String() string {
	return fmt.Sprintf("%s:(%s+0x%x)", l.File, l.Section, l.Offset)
}

// RelocationRequest is one relocation as produced by the relocation
// scanner. It is never modified after creation.
type RelocationRequest struct {
	Symbol *Symbol
	Type   uint32
	Loc    Location
}

type RelocationSource interface {
	Relocations() ([]RelocationRequest, error)
}

// RequestList is a RelocationSource over already materialized requests.
type RequestList []RelocationRequest

func (l RequestList) Relocations() ([]RelocationRequest, error) {
	return l, nil
}
