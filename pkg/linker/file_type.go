package linker

import (
	"debug/elf"
	"encoding/binary"
	"fmt"

	"github.com/hcyang1106/gotplt/pkg/utils"
)

type FileType uint8

const (
	FileTypeUnknown FileType = iota
	FileTypeEmpty
	FileTypeObject
)

func GetFileTypeFromContent(content []byte) FileType {
	if len(content) == 0 {
		return FileTypeEmpty
	}
	if CheckMagic(content) && len(content) >= EhdrSize {
		var elfType uint16
		if err := readHalf(content, 16, &elfType); err != nil {
			return FileTypeUnknown
		}
		switch elf.Type(elfType) {
		case elf.ET_REL:
			return FileTypeObject
		}
	}

	return FileTypeUnknown
}

func CheckFileCompatibility(ctx *Context, file *File) error {
	t := GetMachineTypeFromContent(file.Content)
	if ctx.Args.Machine != t {
		return fmt.Errorf("%s: incompatible machine type %s, linking for %s",
			file.Name, t, ctx.Args.Machine)
	}
	return nil
}

// reads a header half-word honoring EI_DATA
func readHalf(content []byte, offset int, val *uint16) error {
	if len(content) < offset+2 || len(content) <= elf.EI_DATA {
		return fmt.Errorf("truncated ELF header")
	}
	return utils.ReadWith[uint16](elfByteOrder(content), content[offset:], val)
}

func elfByteOrder(content []byte) binary.ByteOrder {
	if elf.Data(content[elf.EI_DATA]) == elf.ELFDATA2MSB {
		return binary.BigEndian
	}
	return binary.LittleEndian
}
