package nestile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSink(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "out.chr")

	require.NoError(t, FileSink(file).Store([]byte{1, 2, 3}))
	b, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, b)

	info, err := os.Stat(file)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm()&0o600)

	require.NoError(t, os.Chmod(file, 0o600))
	require.NoError(t, FileSink(file).Store([]byte{4}))
	b, err = os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, []byte{4}, b)

	info, err = os.Stat(file)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// No temporary files are left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileSinkMissingDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "missing", "out.chr")
	assert.Error(t, FileSink(file).Store([]byte{1}))
}
