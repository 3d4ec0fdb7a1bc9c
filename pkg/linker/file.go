package linker

import (
	"os"
)

type File struct {
	Name    string
	Content []byte
}

func NewFile(filename string) (*File, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return &File{
		Name:    filename,
		Content: content,
	}, nil
}

// for objects synthesized in memory
func NewFileFromContent(name string, content []byte) *File {
	return &File{
		Name:    name,
		Content: content,
	}
}
