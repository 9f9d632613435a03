package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the search paths at empty temp directories.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, wdErr := os.Getwd()
	if wdErr != nil {
		t.Fatal(wdErr)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_NoConfigFileUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := NewLoaderWith(viper.New()).Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 1, cfg.Extract.Workers)
	assert.Equal(t, 1, cfg.Extract.Page)
	assert.Nil(t, cfg.Extract.ConfidenceThreshold)
	assert.True(t, cfg.Output.Pretty)
	assert.Equal(t, 300, cfg.Bootstrap.DPI)
	assert.Equal(t, "eng", cfg.Bootstrap.Language)
}

func TestLoad_FindsFileInWorkingDirectory(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "form-mcp.yaml"), `
log_level: debug
extract:
  language: hin
  workers: 4
  confidence_threshold: 0.85
  segment_grids: true
`)

	l := NewLoaderWith(viper.New())
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "hin", cfg.Extract.Language)
	assert.Equal(t, 4, cfg.Extract.Workers)
	require.NotNil(t, cfg.Extract.ConfidenceThreshold)
	assert.InDelta(t, 0.85, *cfg.Extract.ConfidenceThreshold, 1e-9)
	assert.True(t, cfg.Extract.SegmentGrids)
	assert.Contains(t, l.GetConfigFileUsed(), "form-mcp.yaml")
}

func TestLoadWithFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, `
bootstrap:
  dpi: 200
output:
  file: out.json
  pretty: false
server:
  metrics_addr: ":9090"
`)

	cfg, err := NewLoaderWith(viper.New()).LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, 200, cfg.Bootstrap.DPI)
	assert.Equal(t, "out.json", cfg.Output.File)
	assert.False(t, cfg.Output.Pretty)
	assert.Equal(t, ":9090", cfg.Server.MetricsAddr)
}

func TestLoadWithFile_Missing(t *testing.T) {
	isolate(t)

	_, err := NewLoaderWith(viper.New()).LoadWithFile("does-not-exist.yaml")
	assert.ErrorContains(t, err, "does not exist")
}

func TestLoadWithFile_Invalid(t *testing.T) {
	dir := isolate(t)

	malformed := filepath.Join(dir, "bad.yaml")
	writeFile(t, malformed, "extract: {workers: 2\n")
	_, err := NewLoaderWith(viper.New()).LoadWithFile(malformed)
	assert.ErrorContains(t, err, "error reading config file")

	invalid := filepath.Join(dir, "invalid.yaml")
	writeFile(t, invalid, "extract:\n  workers: 0\n")
	_, err = NewLoaderWith(viper.New()).LoadWithFile(invalid)
	assert.ErrorContains(t, err, "validation failed")
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "form-mcp.yaml"), "extract:\n  workers: 2\n")
	t.Setenv("FORM_MCP_EXTRACT_WORKERS", "8")
	t.Setenv("FORM_MCP_LOG_LEVEL", "warn")
	t.Setenv("FORM_MCP_EXTRACT_CONFIDENCE_THRESHOLD", "0.5")

	cfg, err := NewLoaderWith(viper.New()).Load()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Extract.Workers)
	assert.Equal(t, "warn", cfg.LogLevel)
	require.NotNil(t, cfg.Extract.ConfidenceThreshold)
	assert.InDelta(t, 0.5, *cfg.Extract.ConfidenceThreshold, 1e-9)
}

func TestReload_PicksUpLaterSettings(t *testing.T) {
	isolate(t)

	l := NewLoaderWith(viper.New())
	_, err := l.Load()
	require.NoError(t, err)

	l.GetViper().Set("extract.page", 2)
	cfg, err := l.Reload()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Extract.Page)
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "test.env")
	writeFile(t, path, "FORM_MCP_TEST_DOTENV=from-file\n")
	t.Setenv("FORM_MCP_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("FORM_MCP_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "from-file", os.Getenv("FORM_MCP_TEST_DOTENV"))

	// Default file absent from the working directory.
	assert.NoError(t, LoadDotEnv())
}
