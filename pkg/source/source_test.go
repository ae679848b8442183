package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesystemRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.py")
	require.NoError(t, os.WriteFile(path, []byte("pass\n"), 0o644))

	fs := NewFilesystem()
	content, err := fs.Read(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("pass\n"), content)

	_, err = fs.Read(filepath.Join(dir, "missing.py"))
	assert.Error(t, err)
}

func TestMapRead(t *testing.T) {
	m := NewMap(map[string][]byte{
		"b.py": []byte("b"),
		"a.py": []byte("a"),
	})

	content, err := m.Read("a.py")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), content)

	_, err = m.Read("c.py")
	assert.Error(t, err)

	assert.Equal(t, []string{"a.py", "b.py"}, m.Paths())
}
