package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("RECALL_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("RECALL_DATA_DIR", "")
	t.Setenv("RECALL_EMBED_URL", "")
	t.Setenv("RECALL_EMBED_MODEL", "")
	t.Setenv("RECALL_EMBED_DIMENSIONS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:11434", cfg.Embedding.BaseURL)
	assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
	assert.Equal(t, 768, cfg.Embedding.Dimensions)
	assert.Equal(t, 5, cfg.Retrieval.SectionLimit)
	assert.Equal(t, 3, cfg.Retrieval.JournalLimit)
	assert.Equal(t, 500, cfg.Watch.DebounceMS)
	assert.False(t, cfg.Watch.Enabled)
	assert.Contains(t, cfg.DataDir, ".recall")
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
data_dir: /tmp/recall-test
embedding:
  model: mxbai-embed-large
  dimensions: 1024
watch:
  enabled: true
  paths:
    - TODO.md
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	t.Setenv("RECALL_CONFIG", path)
	t.Setenv("RECALL_DATA_DIR", "")
	t.Setenv("RECALL_EMBED_MODEL", "")
	t.Setenv("RECALL_EMBED_DIMENSIONS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/recall-test", cfg.DataDir)
	assert.Equal(t, "mxbai-embed-large", cfg.Embedding.Model)
	assert.Equal(t, 1024, cfg.Embedding.Dimensions)
	// Untouched keys keep defaults.
	assert.Equal(t, "http://localhost:11434", cfg.Embedding.BaseURL)
	assert.True(t, cfg.Watch.Enabled)
	assert.Equal(t, []string{"TODO.md"}, cfg.Watch.Paths)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("embedding:\n  model: from-file\n"), 0600))

	t.Setenv("RECALL_CONFIG", path)
	t.Setenv("RECALL_DATA_DIR", "/tmp/env-dir")
	t.Setenv("RECALL_EMBED_MODEL", "from-env")
	t.Setenv("RECALL_EMBED_DIMENSIONS", "384")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/env-dir", cfg.DataDir)
	assert.Equal(t, "from-env", cfg.Embedding.Model)
	assert.Equal(t, 384, cfg.Embedding.Dimensions)
}

func TestLoad_BadDimensions(t *testing.T) {
	t.Setenv("RECALL_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("RECALL_EMBED_DIMENSIONS", "not-a-number")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RECALL_EMBED_DIMENSIONS")
}

func TestLoad_BadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("key: [unclosed"), 0600))
	t.Setenv("RECALL_CONFIG", path)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}
