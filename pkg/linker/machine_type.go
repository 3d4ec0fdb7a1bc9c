package linker

import (
	"debug/elf"
)

type MachineType uint8

const (
	MachineTypeNone MachineType = iota
	MachineTypeARM
	MachineTypeI386
)

func (m MachineType) String() string {
	switch m {
	case MachineTypeNone:
		return "none"
	case MachineTypeARM:
		return "arm"
	case MachineTypeI386:
		return "i386"
	}
	return "unknown"
}

// -m emulation names accepted by the driver
func MachineTypeFromEmulation(name string) MachineType {
	switch name {
	case "armelf", "armelf_linux_eabi", "arm":
		return MachineTypeARM
	case "elf_i386", "i386":
		return MachineTypeI386
	}
	return MachineTypeNone
}

func GetMachineTypeFromContent(content []byte) MachineType {
	fileType := GetFileTypeFromContent(content)
	switch fileType {
	case FileTypeObject:
		if elf.Class(content[elf.EI_CLASS]) != elf.ELFCLASS32 {
			return MachineTypeNone
		}
		var machineType uint16
		if err := readHalf(content, 18, &machineType); err != nil {
			return MachineTypeNone
		}
		switch elf.Machine(machineType) {
		case elf.EM_ARM:
			return MachineTypeARM
		case elf.EM_386:
			return MachineTypeI386
		}
	}

	return MachineTypeNone
}
