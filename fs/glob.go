package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fwojciec/omnirag"
)

// ErrNoMatch is returned when a pattern matches no files.
var ErrNoMatch = errors.New("no files match")

// Expand resolves patterns to file paths. A pattern is a plain path, a
// directory (all files below it), or a doublestar glob such as
// "docs/**/*.md". Paths are returned once each, in pattern order and
// lexical order within a pattern. A pattern that matches nothing is an
// error.
func Expand(patterns ...string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)
	for _, pattern := range patterns {
		matches, err := expandOne(pattern)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("fs: %s: %w", pattern, ErrNoMatch)
		}
		for _, m := range matches {
			m = filepath.Clean(m)
			if seen[m] {
				continue
			}
			seen[m] = true
			paths = append(paths, m)
		}
	}
	return paths, nil
}

func expandOne(pattern string) ([]string, error) {
	if info, err := os.Stat(pattern); err == nil {
		if !info.IsDir() {
			return []string{pattern}, nil
		}
		pattern = filepath.Join(pattern, "**", "*")
	}
	if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
		return nil, fmt.Errorf("fs: invalid pattern %q", pattern)
	}
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("fs: %w", err)
	}
	slices.Sort(matches)
	return matches, nil
}

// Collect expands patterns and opens every matching file. Expansion errors
// are returned; a path that cannot be opened becomes a File whose Read
// fails, so it is reported per file while its siblings are still read.
func Collect(patterns ...string) ([]omnirag.File, error) {
	paths, err := Expand(patterns...)
	if err != nil {
		return nil, err
	}
	files := make([]omnirag.File, 0, len(paths))
	for _, p := range paths {
		f, err := Open(p)
		if err != nil {
			files = append(files, &brokenFile{path: p, err: err})
			continue
		}
		files = append(files, f)
	}
	return files, nil
}

// brokenFile stands in for a path that failed to open.
type brokenFile struct {
	path string
	err  error
}

var _ omnirag.File = (*brokenFile)(nil)

func (f *brokenFile) Name() string      { return filepath.Base(f.path) }
func (f *brokenFile) MediaType() string { return "" }
func (f *brokenFile) Size() int64       { return 0 }

func (f *brokenFile) Read(context.Context) ([]byte, error) { return nil, f.err }
