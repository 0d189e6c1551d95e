package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/omnirag"
	"github.com/fwojciec/omnirag/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	t.Parallel()

	t.Run("matches files with simple pattern", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "a.md"), "")
		writeFile(t, filepath.Join(dir, "b.md"), "")
		writeFile(t, filepath.Join(dir, "c.txt"), "")

		paths, err := fs.Expand(filepath.Join(dir, "*.md"))
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(dir, "a.md"),
			filepath.Join(dir, "b.md"),
		}, paths)
	})

	t.Run("matches files recursively with doublestar", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "top.md"), "")
		writeFile(t, filepath.Join(dir, "sub", "deep", "nested.md"), "")

		paths, err := fs.Expand(filepath.Join(dir, "**", "*.md"))
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{
			filepath.Join(dir, "top.md"),
			filepath.Join(dir, "sub", "deep", "nested.md"),
		}, paths)
	})

	t.Run("expands a directory to every file below it", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "a.txt"), "")
		writeFile(t, filepath.Join(dir, "sub", "b.txt"), "")

		paths, err := fs.Expand(dir)
		require.NoError(t, err)
		assert.Len(t, paths, 2)
	})

	t.Run("accepts plain paths and removes duplicates", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		a := filepath.Join(dir, "a.txt")
		writeFile(t, a, "")

		paths, err := fs.Expand(a, filepath.Join(dir, "*.txt"))
		require.NoError(t, err)
		assert.Equal(t, []string{a}, paths)
	})

	t.Run("keeps pattern order", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		a := filepath.Join(dir, "a.txt")
		b := filepath.Join(dir, "b.txt")
		writeFile(t, a, "")
		writeFile(t, b, "")

		paths, err := fs.Expand(b, a)
		require.NoError(t, err)
		assert.Equal(t, []string{b, a}, paths)
	})

	t.Run("returns error when nothing matches", func(t *testing.T) {
		t.Parallel()
		_, err := fs.Expand(filepath.Join(t.TempDir(), "*.pdf"))
		assert.ErrorIs(t, err, fs.ErrNoMatch)
	})

	t.Run("returns error for invalid pattern", func(t *testing.T) {
		t.Parallel()
		_, err := fs.Expand(filepath.Join(t.TempDir(), "[invalid"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid pattern")
	})
}

func TestCollect(t *testing.T) {
	t.Parallel()

	t.Run("opens every matching file", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "one.txt"), "1")
		writeFile(t, filepath.Join(dir, "two.txt"), "22")

		files, err := fs.Collect(filepath.Join(dir, "*.txt"))
		require.NoError(t, err)
		require.Len(t, files, 2)
		assert.Equal(t, "one.txt", files[0].Name())
		assert.Equal(t, int64(2), files[1].Size())
	})

	t.Run("unreadable entry fails alone", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "a.txt"), "alpha")
		require.NoError(t, os.Symlink(filepath.Join(dir, "missing.txt"), filepath.Join(dir, "b.txt")))

		files, err := fs.Collect(dir)
		require.NoError(t, err)
		require.Len(t, files, 2)
		assert.Equal(t, "b.txt", files[1].Name())
		_, err = files[1].Read(context.Background())
		assert.ErrorIs(t, err, os.ErrNotExist)

		res := omnirag.NewDocumentStore().Add(context.Background(), files)
		require.Len(t, res.Added, 1)
		assert.Equal(t, "a.txt", res.Added[0].Name)
		require.Len(t, res.Failed, 1)
		assert.Equal(t, "b.txt", res.Failed[0].Name)
	})

	t.Run("propagates expansion errors", func(t *testing.T) {
		t.Parallel()
		_, err := fs.Collect(filepath.Join(t.TempDir(), "nope.txt"))
		assert.ErrorIs(t, err, fs.ErrNoMatch)
	})
}
