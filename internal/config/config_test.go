package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProjectConfigAppliesDefaults(t *testing.T) {
	cfg, err := ParseProjectConfig([]byte(""), "metorex.yaml")
	require.NoError(t, err)
	assert.Equal(t, SourceFileExtensions, cfg.SourceExtensions)
	assert.Equal(t, FloatEqualityEpsilon, cfg.FloatEpsilon)
	assert.Equal(t, DefaultMaxCallDepth, cfg.MaxCallDepth)
}

func TestParseProjectConfigHonorsExplicitValues(t *testing.T) {
	data := []byte("float_epsilon: 0.01\nmax_call_depth: 100\nrequire_roots:\n  - lib\n")
	cfg, err := ParseProjectConfig(data, "metorex.yaml")
	require.NoError(t, err)
	assert.Equal(t, 0.01, cfg.FloatEpsilon)
	assert.Equal(t, 100, cfg.MaxCallDepth)
	assert.Equal(t, []string{"lib"}, cfg.RequireRoots)
}

func TestLoadProjectConfigReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metorex.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_call_depth: 50\n"), 0644))

	cfg, err := LoadProjectConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.MaxCallDepth)
}

func TestFindProjectConfigWalksUpToParent(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "metorex.yaml"), []byte(""), 0644))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	found, err := FindProjectConfig(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "metorex.yaml"), found)
}

func TestFindProjectConfigReturnsEmptyWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	found, err := FindProjectConfig(dir)
	require.NoError(t, err)
	assert.Empty(t, found)
}
