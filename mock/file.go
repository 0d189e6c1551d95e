package mock

import (
	"context"

	"github.com/fwojciec/omnirag"
)

// Interface compliance check.
var _ omnirag.File = (*File)(nil)

// File is a test double for omnirag.File. With ReadFn unset, Read returns
// Data. Size reports len(Data) unless SizeBytes is set.
type File struct {
	FileName  string
	Type      string
	Data      []byte
	SizeBytes int64
	ReadFn    func(ctx context.Context) ([]byte, error)
}

// TextFile returns a File holding text with media type text/plain.
func TextFile(name, text string) *File {
	return &File{FileName: name, Type: "text/plain", Data: []byte(text)}
}

// Name returns FileName.
func (f *File) Name() string { return f.FileName }

// MediaType returns Type.
func (f *File) MediaType() string { return f.Type }

// Size returns SizeBytes, or len(Data) when SizeBytes is zero.
func (f *File) Size() int64 {
	if f.SizeBytes != 0 {
		return f.SizeBytes
	}
	return int64(len(f.Data))
}

// Read delegates to ReadFn, or returns Data when ReadFn is nil.
func (f *File) Read(ctx context.Context) ([]byte, error) {
	if f.ReadFn == nil {
		return f.Data, nil
	}
	return f.ReadFn(ctx)
}
