package linker

import (
	"bytes"
	"fmt"
)

func MustHaveMagic(content []byte) error {
	if !CheckMagic(content) {
		return fmt.Errorf("invalid magic number")
	}
	return nil
}

func CheckMagic(content []byte) bool {
	return bytes.HasPrefix(content, []byte("\177ELF"))
}

func WriteMagic(contents []byte) {
	copy(contents, "\177ELF")
}
