package omnirag

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"
)

// Document is an uploaded text document. Documents are immutable; the only
// lifecycle transition after creation is removal from the store.
type Document struct {
	ID        string
	Name      string
	Content   string
	MediaType string
	Size      int64
	// Tokens is an estimate computed once at upload time. It approximates,
	// but does not match, the remote model's tokenizer.
	Tokens  int
	AddedAt time.Time
}

// File is a file supplied by a file source (disk, HTTP upload, ...).
// Read may fail per file; failures never affect sibling files.
type File interface {
	Name() string
	MediaType() string
	Size() int64
	Read(ctx context.Context) ([]byte, error)
}

// FileError reports a file that could not be added to the store.
type FileError struct {
	Name string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Name, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// EstimateTokens approximates the token count of content as one token per
// four characters, rounded up. It is a pure function of content length.
func EstimateTokens(content string) int {
	n := utf8.RuneCountInString(content)
	return (n + 3) / 4
}
