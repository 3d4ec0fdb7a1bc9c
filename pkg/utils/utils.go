package utils

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"runtime/debug"
)

func Fatal(v any) {
	fmt.Printf("fatal: %v\n", v)
	debug.PrintStack()
	os.Exit(1)
}

func MustNo(err error) {
	if err != nil {
		Fatal(err)
	}
}

func Assert(res bool) {
	if !res {
		Fatal("assertion failed")
	}
}

func ReadWith[T any](order binary.ByteOrder, content []byte, val *T) error {
	reader := bytes.NewReader(content)
	return binary.Read(reader, order, val)
}

func ReadSlice[T any](order binary.ByteOrder, content []byte, size int) ([]T, error) {
	if size <= 0 || len(content)%size != 0 {
		return nil, fmt.Errorf("content length %d is not a multiple of %d",
			len(content), size)
	}
	ret := make([]T, 0, len(content)/size)
	for len(content) > 0 {
		var ele T
		if err := ReadWith[T](order, content, &ele); err != nil {
			return nil, err
		}
		ret = append(ret, ele)
		content = content[size:]
	}
	return ret, nil
}

// buf must be at least binary.Size(val) long
func Write[T any](order binary.ByteOrder, buf []byte, val T) {
	b := bytes.Buffer{}
	MustNo(binary.Write(&b, order, val))
	copy(buf, b.Bytes())
}

// o => -o
// plugin => -plugin, --plugin
func AddDashes(option string) []string {
	res := []string{}

	if len(option) == 1 {
		res = append(res, "-"+option)
	} else {
		res = append(res, "-"+option, "--"+option)
	}

	return res
}

// align must be a power of two, zero means no alignment
func AlignTo(val, align uint64) uint64 {
	if align == 0 {
		return val
	}
	return (val + align - 1) &^ (align - 1)
}
