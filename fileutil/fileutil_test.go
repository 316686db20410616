package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTarget(t *testing.T) {
	dir := t.TempDir()
	fp := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(fp, []byte("x"), 0o644))

	abs, err := ResolveTarget(fp)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(abs))
	assert.Equal(t, fp, abs)
}

func TestResolveTarget_Relative(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rel.txt"), []byte("x"), 0o644))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	abs, err := ResolveTarget("rel.txt")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(abs))
	assert.Equal(t, "rel.txt", filepath.Base(abs))
}

func TestResolveTarget_Missing(t *testing.T) {
	_, err := ResolveTarget(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestResolveTarget_Directory(t *testing.T) {
	dir := t.TempDir()
	_, err := ResolveTarget(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}

func TestOverwrite(t *testing.T) {
	fp := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(fp, []byte("a much longer original content"), 0o644))

	require.NoError(t, Overwrite(fp, "short"))
	got, err := os.ReadFile(fp)
	require.NoError(t, err)
	assert.Equal(t, "short", string(got))
}

func TestOverwrite_BadPath(t *testing.T) {
	err := Overwrite(filepath.Join(t.TempDir(), "no", "such", "dir", "f.txt"), "x")
	assert.Error(t, err)
}
