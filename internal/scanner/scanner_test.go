package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whiffhq/whiff/pkg/config"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("def f():\n    pass\n"), 0o644))
}

func TestScanDirFindsSourceFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.py"))
	writeFile(t, filepath.Join(dir, "sub", "b.go"))
	writeFile(t, filepath.Join(dir, "notes.txt"))

	s := New(config.Default())
	files, err := s.ScanDir(dir)
	require.NoError(t, err)

	require.Len(t, files, 2)
	assert.Contains(t, files, filepath.Join(dir, "a.py"))
	assert.Contains(t, files, filepath.Join(dir, "sub", "b.go"))
}

func TestScanDirExcludePatterns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "keep.py"))
	writeFile(t, filepath.Join(dir, "vendor", "dep.py"))

	cfg := config.Default()
	cfg.Exclude = []string{"vendor/"}

	s := New(cfg)
	files, err := s.ScanDir(dir)
	require.NoError(t, err)

	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(dir, "keep.py"), files[0])
}

func TestScanDirHonorsGitignore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("generated.py\n"), 0o644))
	writeFile(t, filepath.Join(dir, "kept.py"))
	writeFile(t, filepath.Join(dir, "generated.py"))

	s := New(config.Default())
	files, err := s.ScanDir(dir)
	require.NoError(t, err)

	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(dir, "kept.py"), files[0])
}

func TestScanDirGitignoreDisabled(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("generated.py\n"), 0o644))
	writeFile(t, filepath.Join(dir, "generated.py"))

	cfg := config.Default()
	cfg.UseGitignore = false

	s := New(cfg)
	files, err := s.ScanDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestScanFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.py"))
	writeFile(t, filepath.Join(dir, "b.txt"))

	s := New(config.Default())

	ok, err := s.ScanFile(filepath.Join(dir, "a.py"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.ScanFile(filepath.Join(dir, "b.txt"))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.ScanFile(filepath.Join(dir, "absent.py"))
	assert.Error(t, err)
}
