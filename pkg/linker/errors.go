package linker

import (
	"errors"
	"fmt"
)

type Stage uint8

const (
	StageCollecting Stage = iota
	StageAllocating
	StagePlanning
	StageBuilding
	StagePatching
	StageEmitting
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageCollecting:
		return "collecting"
	case StageAllocating:
		return "allocating"
	case StagePlanning:
		return "planning"
	case StageBuilding:
		return "building"
	case StagePatching:
		return "patching"
	case StageEmitting:
		return "emitting"
	case StageDone:
		return "done"
	}
	return "unknown"
}

var (
	ErrUnsupportedRelocation = errors.New("unsupported relocation")
	ErrSlotKindConflict      = errors.New("slot kind conflict")
	ErrLayoutOverflow        = errors.New("layout overflow")
)

type UnsupportedRelocationError struct {
	Type uint32
	Name string
	Loc  Location
}

func (e *UnsupportedRelocationError) Error() string {
	return fmt.Sprintf("%s: relocation %s (%d) needs an indirect slot but has no mapping",
		e.Loc, e.Name, e.Type)
}

func (e *UnsupportedRelocationError) Is(target error) bool {
	return target == ErrUnsupportedRelocation
}

type SlotKindConflictError struct {
	Symbol string
	Have   SlotKind
	Want   SlotKind
}

func (e *SlotKindConflictError) Error() string {
	return fmt.Sprintf("symbol %s: %s slot cannot be combined with existing %s slot",
		e.Symbol, e.Want, e.Have)
}

func (e *SlotKindConflictError) Is(target error) bool {
	return target == ErrSlotKindConflict
}

type LayoutOverflowError struct {
	Section string
	Addr    uint64
	Bits    int
	// set for pc-relative displacements: Addr is out of reach from From
	From uint64
}

func (e *LayoutOverflowError) Error() string {
	if e.From != 0 {
		return fmt.Sprintf("%s: 0x%x is out of %d-bit reach from 0x%x",
			e.Section, e.Addr, e.Bits, e.From)
	}
	return fmt.Sprintf("%s: address 0x%x does not fit in %d bits", e.Section, e.Addr, e.Bits)
}

func (e *LayoutOverflowError) Is(target error) bool {
	return target == ErrLayoutOverflow
}

// StageError reports which pipeline stage aborted the link.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
