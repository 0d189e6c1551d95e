// Package readability converts HTML uploads into plain-text documents using
// go-readability.
package readability

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/fwojciec/omnirag"
	"github.com/go-shiori/go-readability"
)

const textMediaType = "text/plain; charset=utf-8"

// File wraps an HTML file so that Read returns the extracted article text.
type File struct {
	omnirag.File
}

// Interface compliance check.
var _ omnirag.File = (*File)(nil)

// IsHTML reports whether f looks like an HTML document, by media type or,
// failing that, by extension.
func IsHTML(f omnirag.File) bool {
	if mediaType, _, err := mime.ParseMediaType(f.MediaType()); err == nil {
		switch mediaType {
		case "text/html", "application/xhtml+xml":
			return true
		}
	}
	switch strings.ToLower(filepath.Ext(f.Name())) {
	case ".html", ".htm", ".xhtml":
		return true
	}
	return false
}

// Wrap returns files with every HTML file wrapped in a [File]. Other files
// are passed through unchanged.
func Wrap(files []omnirag.File) []omnirag.File {
	out := make([]omnirag.File, len(files))
	for i, f := range files {
		if IsHTML(f) {
			out[i] = &File{File: f}
			continue
		}
		out[i] = f
	}
	return out
}

// MediaType reports plain text, since Read returns extracted text.
func (f *File) MediaType() string { return textMediaType }

// Read returns the article title followed by its text content. A page with
// no readable text is a read failure.
func (f *File) Read(ctx context.Context) ([]byte, error) {
	data, err := f.File.Read(ctx)
	if err != nil {
		return nil, err
	}
	pageURL := &url.URL{Scheme: "file", Path: "/" + f.Name()}
	article, err := readability.FromReader(bytes.NewReader(data), pageURL)
	if err != nil {
		return nil, fmt.Errorf("readability: %w", err)
	}
	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return nil, fmt.Errorf("readability: no readable content in %s", f.Name())
	}
	if title := strings.TrimSpace(article.Title); title != "" && !strings.HasPrefix(text, title) {
		text = title + "\n\n" + text
	}
	return []byte(text), nil
}
