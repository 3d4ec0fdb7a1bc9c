package linker

import (
	"fmt"

	"golang.org/x/arch/arm/armasm"
	"golang.org/x/arch/x86/x86asm"
)

type disasmFunc func(code []byte, pc uint64) (text string, size int)

func disasmARM(code []byte, pc uint64) (string, int) {
	inst, err := armasm.Decode(code, armasm.ModeARM)
	size := inst.Len
	if err != nil || size == 0 || inst.Op == 0 {
		return "?", 4
	}
	return armasm.GNUSyntax(inst), size
}

func disasm386(code []byte, pc uint64) (string, int) {
	inst, err := x86asm.Decode(code, 32)
	size := inst.Len
	if err != nil || size == 0 || inst.Op == 0 {
		return "?", 1
	}
	return x86asm.GNUSyntax(inst, pc, nil), size
}

// DisassemblePLT renders a PLT as "addr: insn" lines. Literal words in the
// header decode as whatever instruction shares their encoding.
func DisassemblePLT(arch *Arch, t *Table) []string {
	if arch.Disasm == nil {
		return nil
	}
	lines := make([]string, 0)
	for off := 0; off < len(t.Data); {
		pc := t.Addr + uint64(off)
		text, size := arch.Disasm(t.Data[off:], pc)
		lines = append(lines, fmt.Sprintf("%8x:\t%s", pc, text))
		off += size
	}
	return lines
}
