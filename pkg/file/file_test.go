package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileService(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "machine-id")
	require.NoError(t, os.WriteFile(path, []byte("b08dfa6083e7567a1921a715000001fb\n"), 0o600))

	fs := NewFileService()

	exists, err := fs.IsFileExists(path)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = fs.IsFileExists(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.False(t, exists)

	content, err := fs.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "b08dfa6083e7567a1921a715000001fb", content)

	raw, err := fs.ReadFileRaw(path)
	require.NoError(t, err)
	assert.Equal(t, "b08dfa6083e7567a1921a715000001fb\n", string(raw))

	_, err = fs.ReadFile(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestReadYamlFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: agent\nport: 1883\n"), 0o600))

	var v struct {
		Name string `yaml:"name"`
		Port int    `yaml:"port"`
	}
	require.NoError(t, NewFileService().ReadYamlFile(path, &v))
	assert.Equal(t, "agent", v.Name)
	assert.Equal(t, 1883, v.Port)

	var strict struct {
		Name string `yaml:"name"`
	}
	assert.Error(t, NewFileService().ReadYamlFile(path, &strict))
}
