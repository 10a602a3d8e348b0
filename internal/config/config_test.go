package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "ghostsite.yaml")

	yaml := `
ghost:
  url: https://cms.example.com
  key: abc123
site:
  url: https://example.com
build:
  outputDir: dist
serve:
  port: 3000
log:
  level: debug
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0o644))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "https://cms.example.com", cfg.Ghost.URL)
	assert.Equal(t, "abc123", cfg.Ghost.Key)
	assert.Equal(t, "https://example.com", cfg.Site.URL)
	assert.Equal(t, "dist", cfg.Build.OutputDir)
	assert.Equal(t, 3000, cfg.Serve.Port)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Unset fields keep defaults.
	assert.Equal(t, "layouts", cfg.Build.LayoutsDir)
	assert.Equal(t, ".cache/content.db", cfg.Cache.Path)
	assert.Equal(t, []int{300, 600, 1000, 2000}, cfg.Images.Widths)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("GHOSTSITE_GHOST_URL", "https://env.example.com")
	t.Setenv("GHOSTSITE_GHOST_KEY", "envkey")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.Ghost.URL)
	assert.Equal(t, "envkey", cfg.Ghost.Key)
}

func TestLoadMissingGhostURL(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "ghostsite.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("ghost:\n  key: abc\n"), 0o644))

	_, err := Load(cfgPath)
	require.ErrorIs(t, err, ErrMissingGhostURL)
}

func TestLoadMissingGhostKey(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "ghostsite.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("ghost:\n  url: https://cms.example.com\n"), 0o644))

	_, err := Load(cfgPath)
	require.ErrorIs(t, err, ErrMissingGhostKey)
}

func TestValidateRejectsBadURL(t *testing.T) {
	cfg := &Config{
		Ghost:  GhostConfig{URL: "not a url", Key: "k"},
		Build:  BuildConfig{OutputDir: "public", LayoutsDir: "layouts"},
		Cache:  CacheConfig{Path: "cache.db"},
		Serve:  ServeConfig{Port: 8080},
		Images: ImagesConfig{Widths: []int{300}},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate config")
}

func TestSiteURLFallback(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, "https://cms.example.com", cfg.SiteURL("https://cms.example.com"))

	cfg.Site.URL = "https://public.example.com"
	assert.Equal(t, "https://public.example.com", cfg.SiteURL("https://cms.example.com"))
}
