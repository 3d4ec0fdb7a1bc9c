package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hcyang1106/gotplt/pkg/linker"
	"github.com/hcyang1106/gotplt/pkg/utils"
	"github.com/xyproto/env/v2"
)

var version string

// functions handle errs themselves
func main() {
	ctx := linker.NewContext()
	readEnv(ctx)
	// remaining contains obj files only
	remaining := parseArgs(ctx)
	ctx.Logger = linker.NewLogger(os.Stderr, ctx.Args.Verbose)

	if len(remaining) == 0 {
		utils.Fatal("no input files")
	}

	// if machine type not specified, find it in obj file
	if ctx.Args.Machine == linker.MachineTypeNone {
		for _, filename := range remaining {
			file, err := linker.NewFile(filename)
			utils.MustNo(err)
			if mType := linker.GetMachineTypeFromContent(file.Content); mType != linker.MachineTypeNone {
				ctx.Args.Machine = mType
				break
			}
		}
	}
	utils.MustNo(ctx.SetMachine(ctx.Args.Machine))

	utils.MustNo(linker.ReadInputFiles(ctx, remaining))
	end := linker.AssignInputSectionAddresses(ctx)

	res, err := linker.Link(ctx, linker.LinkInput{
		Sources: linker.ObjectSources(ctx),
		Layout: linker.SequentialLayout{
			Base:     utils.AlignTo(end, linker.PageSize),
			PageSize: linker.PageSize,
		},
	})
	utils.MustNo(err)

	buf, err := linker.WriteOutputFile(ctx, res.Image)
	utils.MustNo(err)
	utils.MustNo(os.WriteFile(ctx.Args.Output, buf, 0755))

	if ctx.Args.Dump {
		linker.WriteListing(os.Stdout, ctx, res)
	}
}

// command-line options override these
func readEnv(ctx *linker.Context) {
	ctx.Args.Output = env.Str("GOTPLT_OUTPUT", ctx.Args.Output)
	ctx.Args.Threads = env.Int("GOTPLT_THREADS", ctx.Args.Threads)
	ctx.Args.Verbose = env.Bool("GOTPLT_VERBOSE")
	if env.Has("GOTPLT_IMAGE_BASE") {
		base, err := strconv.ParseUint(env.Str("GOTPLT_IMAGE_BASE"), 0, 64)
		if err != nil {
			utils.Fatal(fmt.Sprintf("GOTPLT_IMAGE_BASE: %v", err))
		}
		ctx.Args.ImageBase = base
	}
}

func parseArgs(ctx *linker.Context) []string {
	args := os.Args[1:]

	arg := ""
	readArg := func(name string) bool {
		for _, opt := range utils.AddDashes(name) {
			if args[0] == opt {
				if len(args) == 1 {
					utils.Fatal(fmt.Sprintf("option -%s: argument missing", name))
				}
				arg = args[1]
				args = args[2:]
				return true
			}

			prefix := opt
			if len(name) > 1 {
				prefix += "="
			}
			if strings.HasPrefix(args[0], prefix) {
				arg = args[0][len(prefix):]
				args = args[1:]
				return true
			}
		}
		return false
	}

	readFlag := func(name string) bool {
		for _, opt := range utils.AddDashes(name) {
			if args[0] == opt {
				args = args[1:]
				return true
			}
		}
		return false
	}

	remaining := make([]string, 0)
	for len(args) > 0 {
		if readFlag("help") {
			fmt.Printf("usage: %s [options] file.o...\n", os.Args[0])
			fmt.Println("  -o FILE        write the synthetic sections to FILE")
			fmt.Println("  -m EMULATION   armelf_linux_eabi or elf_i386")
			fmt.Println("  -shared        link as a shared object")
			fmt.Println("  -z now         bind PLT slots eagerly")
			fmt.Println("  -threads N     relocation scan workers")
			fmt.Println("  -dump          print tables and PLT disassembly")
			fmt.Println("  -verbose       debug logging")
			os.Exit(0)
		}

		if readArg("o") || readArg("output") {
			ctx.Args.Output = arg
		} else if readFlag("v") || readFlag("version") {
			fmt.Printf("gotplt %s\n", version)
			os.Exit(0)
		} else if readArg("m") {
			ctx.Args.Machine = linker.MachineTypeFromEmulation(arg)
			if ctx.Args.Machine == linker.MachineTypeNone {
				utils.Fatal(fmt.Sprintf("unknown -m argument: %s", arg))
			}
		} else if readFlag("shared") || readFlag("Bshareable") {
			ctx.Args.Shared = true
		} else if readArg("z") {
			switch arg {
			case "now":
				ctx.Args.BindNow = true
			case "lazy":
				ctx.Args.BindNow = false
			}
		} else if readArg("threads") {
			n, err := strconv.Atoi(arg)
			if err != nil || n < 1 {
				utils.Fatal(fmt.Sprintf("-threads: bad value %q", arg))
			}
			ctx.Args.Threads = n
		} else if readArg("image-base") {
			base, err := strconv.ParseUint(arg, 0, 64)
			utils.MustNo(err)
			ctx.Args.ImageBase = base
		} else if readFlag("dump") {
			ctx.Args.Dump = true
		} else if readFlag("verbose") {
			ctx.Args.Verbose = true
		} else {
			if args[0][0] == '-' {
				utils.Fatal(fmt.Sprintf("unknown command line option: %s", args[0]))
			}
			remaining = append(remaining, args[0])
			args = args[1:]
		}
	}

	return remaining
}
