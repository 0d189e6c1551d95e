// Package fs provides a disk file source for the document store.
package fs

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/omnirag"
)

// sniffLen is the number of leading bytes inspected when the extension does
// not determine a media type.
const sniffLen = 512

// File is a file on disk. It implements [omnirag.File]; the content is read
// lazily by Read.
type File struct {
	path      string
	size      int64
	mediaType string
}

// Interface compliance check.
var _ omnirag.File = (*File)(nil)

// Open stats path and detects its media type. Directories are rejected.
func Open(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("fs: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("fs: %s is a directory", path)
	}
	mediaType, err := detectMediaType(path)
	if err != nil {
		return nil, err
	}
	return &File{path: path, size: info.Size(), mediaType: mediaType}, nil
}

// Name returns the base name of the file.
func (f *File) Name() string { return filepath.Base(f.path) }

// Path returns the path the file was opened with.
func (f *File) Path() string { return f.path }

func (f *File) MediaType() string { return f.mediaType }

func (f *File) Size() int64 { return f.size }

// Read returns the file content, passed through [Clean].
func (f *File) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("fs: %w", err)
	}
	return Clean(data), nil
}

func detectMediaType(path string) (string, error) {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); t != "" {
		return t, nil
	}
	fh, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("fs: %w", err)
	}
	defer fh.Close()
	buf := make([]byte, sniffLen)
	n, _ := fh.Read(buf)
	return http.DetectContentType(buf[:n]), nil
}
