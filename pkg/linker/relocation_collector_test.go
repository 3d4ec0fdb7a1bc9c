package linker

import (
	"debug/elf"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func req(sym *Symbol, typ elf.R_ARM, off uint64) RelocationRequest {
	return RelocationRequest{
		Symbol: sym,
		Type:   uint32(typ),
		Loc:    Location{File: "a.o", Section: ".text", Offset: off},
	}
}

type failingSource struct{ err error }

func (s failingSource) Relocations() ([]RelocationRequest, error) {
	return nil, s.err
}

// fails only after done is closed
type slowFailingSource struct {
	err  error
	done <-chan struct{}
}

func (s slowFailingSource) Relocations() ([]RelocationRequest, error) {
	<-s.done
	return nil, s.err
}

type signalingSource struct {
	err  error
	done chan struct{}
}

func (s signalingSource) Relocations() ([]RelocationRequest, error) {
	defer close(s.done)
	return nil, s.err
}

func TestCollectRelocationsFiltersSlotKinds(t *testing.T) {
	ctx := newTestContext(t, MachineTypeARM, false)
	foo := NewUndefinedSymbol("foo")
	local := NewDefinedSymbol("local", 0x8000)

	reqs, err := CollectRelocations(ctx, []RelocationSource{RequestList{
		req(foo, elf.R_ARM_ABS32, 0),
		req(foo, elf.R_ARM_GOT32, 4),
		req(local, elf.R_ARM_CALL, 8), // resolved directly in an executable
		req(foo, elf.R_ARM_CALL, 12),
		req(local, elf.R_ARM_GOT_PREL, 16),
	}})
	require.NoError(t, err)

	offsets := make([]uint64, 0)
	for _, r := range reqs {
		offsets = append(offsets, r.Loc.Offset)
	}
	assert.Equal(t, []uint64{4, 12, 16}, offsets)
}

func TestCollectRelocationsSharedCallsGoThroughPLT(t *testing.T) {
	ctx := newTestContext(t, MachineTypeARM, true)
	global := NewDefinedSymbol("global", 0x8000)
	hidden := NewDefinedSymbol("hidden", 0x8010)
	hidden.Visibility = elf.STV_HIDDEN

	reqs, err := CollectRelocations(ctx, []RelocationSource{RequestList{
		req(global, elf.R_ARM_CALL, 0),
		req(hidden, elf.R_ARM_CALL, 4),
	}})
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Same(t, global, reqs[0].Symbol)
}

func TestCollectRelocationsUnsupported(t *testing.T) {
	ctx := newTestContext(t, MachineTypeARM, true)
	foo := NewUndefinedSymbol("foo")

	_, err := CollectRelocations(ctx, []RelocationSource{RequestList{
		req(foo, elf.R_ARM_GOT32, 0),
		req(foo, elf.R_ARM_TLS_IE32, 0x24),
	}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedRelocation))

	var unsupported *UnsupportedRelocationError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, uint32(elf.R_ARM_TLS_IE32), unsupported.Type)
	assert.Equal(t, uint64(0x24), unsupported.Loc.Offset)
	assert.Contains(t, err.Error(), "a.o:(.text+0x24)")
	assert.Contains(t, err.Error(), "R_ARM_TLS_IE32")
}

func TestCollectRelocationsMergesInSourceOrder(t *testing.T) {
	syms := make([]*Symbol, 0)
	sources := make([]RelocationSource, 0)
	for i := 0; i < 16; i++ {
		sym := NewUndefinedSymbol(fmt.Sprintf("s%d", i))
		syms = append(syms, sym)
		sources = append(sources, RequestList{
			req(sym, elf.R_ARM_GOT32, 0),
			req(sym, elf.R_ARM_GOT32, 4),
		})
	}

	for _, threads := range []int{1, 3, 16} {
		ctx := newTestContext(t, MachineTypeARM, true)
		ctx.Args.Threads = threads

		reqs, err := CollectRelocations(ctx, sources)
		require.NoError(t, err)
		require.Len(t, reqs, 32)
		for i, r := range reqs {
			assert.Same(t, syms[i/2], r.Symbol, "threads=%d index=%d", threads, i)
		}
	}
}

func TestCollectRelocationsReportsFirstFailingSource(t *testing.T) {
	ctx := newTestContext(t, MachineTypeARM, true)
	first := errors.New("first")
	second := errors.New("second")

	_, err := CollectRelocations(ctx, []RelocationSource{
		RequestList{},
		failingSource{first},
		failingSource{second},
	})
	assert.ErrorIs(t, err, first)
	assert.NotErrorIs(t, err, second)

	// the later source fails first in time; input order still wins
	ctx.Args.Threads = 0
	done := make(chan struct{})
	_, err = CollectRelocations(ctx, []RelocationSource{
		slowFailingSource{err: first, done: done},
		signalingSource{err: second, done: done},
	})
	assert.ErrorIs(t, err, first)
	assert.NotErrorIs(t, err, second)
}

func TestCollectRelocationsFromObjects(t *testing.T) {
	ctx := newTestContext(t, MachineTypeARM, true)
	loadTestObject(t, ctx, "a.o", testObject{
		syms: []testSym{{name: "foo"}},
		rels: []testRel{{offset: 0, sym: "foo", typ: uint32(elf.R_ARM_GOT32)}},
	})
	loadTestObject(t, ctx, "b.o", testObject{
		syms: []testSym{{name: "bar"}},
		rels: []testRel{{offset: 0, sym: "bar", typ: uint32(elf.R_ARM_PLT32)}},
	})

	reqs, err := CollectRelocations(ctx, ObjectSources(ctx))
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, "foo", reqs[0].Symbol.Name)
	assert.Equal(t, "b.o", reqs[1].Loc.File)
}
