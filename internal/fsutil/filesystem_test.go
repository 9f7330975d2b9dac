package fsutil

import (
	"bytes"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSystems(t *testing.T) {
	t.Parallel()

	impls := map[string]func(t *testing.T) (FileSystem, string){
		"os": func(t *testing.T) (FileSystem, string) {
			return OSFileSystem{}, t.TempDir()
		},
		"memory": func(t *testing.T) (FileSystem, string) {
			return NewMemoryFileSystem(), "/work"
		},
	}

	for name, setup := range impls {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			fsys, root := setup(t)
			dir := filepath.Join(root, "reports", "run1")

			require.NoError(t, fsys.MkdirAll(dir, 0o755))
			assert.True(t, fsys.Exists(dir))

			path := filepath.Join(dir, "summary.txt")
			assert.False(t, fsys.Exists(path))
			require.NoError(t, WriteFrom(fsys, path, bytes.NewBufferString("rmse=0.05")))
			assert.True(t, fsys.Exists(path))

			got, err := fsys.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, "rmse=0.05", string(got))

			// Create truncates.
			require.NoError(t, WriteFrom(fsys, path, bytes.NewBufferString("x")))
			got, err = fsys.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, "x", string(got))

			_, err = fsys.ReadFile(filepath.Join(dir, "missing"))
			assert.True(t, errors.Is(err, fs.ErrNotExist))
		})
	}
}

func TestMemoryFileSystemRequiresParent(t *testing.T) {
	t.Parallel()
	m := NewMemoryFileSystem()

	_, err := m.Create("/nowhere/file.png")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	require.NoError(t, m.MkdirAll("/out", 0o755))
	require.NoError(t, WriteFrom(m, "/out/b.png", bytes.NewBufferString("b")))
	require.NoError(t, WriteFrom(m, "/out/a.png", bytes.NewBufferString("a")))
	assert.Equal(t, []string{"/out/a.png", "/out/b.png"}, m.Files())

	// A file cannot become a directory.
	assert.ErrorIs(t, m.MkdirAll("/out/a.png/sub", 0o755), fs.ErrExist)
}

func TestMemoryFileSystemReadReturnsCopy(t *testing.T) {
	t.Parallel()
	m := NewMemoryFileSystem()
	require.NoError(t, WriteFrom(m, "data.bin", bytes.NewBuffer([]byte{1, 2, 3})))

	got, err := m.ReadFile("data.bin")
	require.NoError(t, err)
	got[0] = 9

	again, err := m.ReadFile("data.bin")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, again)
}
