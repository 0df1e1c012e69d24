package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
}

func TestFindFilesByExtension(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.hcl", "b.yaml", "nested/c.yml", "nested/d.txt", "E.HCL")

	files, err := FindFilesByExtension(root, ".hcl", ".yaml", ".yml")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "E.HCL"),
		filepath.Join(root, "a.hcl"),
		filepath.Join(root, "b.yaml"),
		filepath.Join(root, "nested", "c.yml"),
	}, files)

	assert.Panics(t, func() { _, _ = FindFilesByExtension(root) })
}

func TestFindFiles(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "net/a.hcl", "net/b.txt", "single.yaml", "other.txt")

	t.Run("mixes files and directories", func(t *testing.T) {
		files, err := FindFiles([]string{
			filepath.Join(root, "single.yaml"),
			filepath.Join(root, "net"),
			filepath.Join(root, "other.txt"),
			filepath.Join(root, "net", "a.hcl"),
		}, ".hcl", ".yaml")
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(root, "single.yaml"),
			filepath.Join(root, "net", "a.hcl"),
		}, files)
	})

	t.Run("missing path is an error", func(t *testing.T) {
		_, err := FindFiles([]string{filepath.Join(root, "missing.hcl")}, ".hcl")
		assert.ErrorContains(t, err, "error accessing path")
	})
}
