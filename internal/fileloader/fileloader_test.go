package fileloader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLiteralPathTakesPriority(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "helper"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "helper.rb"), []byte(""), 0644))

	resolved, err := Resolve("helper", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "helper"), resolved)
}

func TestResolveFallsBackToRbThenMx(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "helper.mx"), []byte(""), 0644))

	resolved, err := Resolve("helper", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "helper.mx"), resolved)
}

func TestResolveMissingFileReturnsError(t *testing.T) {
	dir := t.TempDir()
	_, err := Resolve("nope", dir)
	assert.Error(t, err)
}
