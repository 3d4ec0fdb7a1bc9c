package linker

import (
	"io"
	"log/slog"
	"os"
	"runtime"
)

const DefaultImageBase = 0x10000

const PageSize = 0x1000

type Args struct {
	Output    string
	Machine   MachineType
	Shared    bool // produce a shared object instead of an executable
	BindNow   bool
	ImageBase uint64
	Threads   int
	Verbose   bool
	Dump      bool
}

type Context struct {
	Args   Args
	Arch   *Arch
	Logger *slog.Logger

	Objs      []*ObjectFile
	SymbolMap map[string]*Symbol
}

func NewContext() *Context {
	return &Context{
		Args: Args{
			Output:    "a.out",
			Machine:   MachineTypeNone,
			ImageBase: DefaultImageBase,
			Threads:   runtime.NumCPU(),
		},
		Logger:    NewLogger(os.Stderr, false),
		SymbolMap: make(map[string]*Symbol),
	}
}

func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// SetMachine selects the architecture parameters for the whole run.
func (ctx *Context) SetMachine(m MachineType) error {
	arch, err := LookupArch(m)
	if err != nil {
		return err
	}
	ctx.Args.Machine = m
	ctx.Arch = arch
	return nil
}

// GetSymbol returns the unique global symbol for name, creating an
// undefined one on first use.
func (ctx *Context) GetSymbol(name string) *Symbol {
	if sym, ok := ctx.SymbolMap[name]; ok {
		return sym
	}
	sym := NewSymbol(nil, name)
	ctx.SymbolMap[name] = sym
	return sym
}
