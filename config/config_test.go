package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	cfile := filepath.Join(dir, "catalogd.yml")
	content := `
system:
  workdir: ` + dir + `
web:
  port: 9090
  allow_origins:
    - https://shop.example
  upload_max_size: 2MiB
auth:
  token_ttl: 24h
  login_fail_delay: 0s
`
	require.NoError(t, os.WriteFile(cfile, []byte(content), 0o644))

	cfg := LoadConfig(cfile)
	assert.Equal(t, dir, cfg.System.Workdir)
	assert.Equal(t, 9090, cfg.Web.Port)
	assert.Equal(t, []string{"https://shop.example"}, cfg.Web.AllowOrigins)
	assert.Equal(t, int64(2<<20), cfg.UploadMaxBytes())
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, time.Duration(0), cfg.Auth.LoginFailDelay)
	// untouched sections keep defaults
	assert.Equal(t, "admin123", cfg.Auth.BootstrapPassword)
	assert.Equal(t, 6, cfg.Auth.MinPasswordLen)
	assert.Equal(t, filepath.Join(dir, "data"), cfg.GetDataDir())
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CATALOGD_SYSTEM_WORKDIR", dir)
	t.Setenv("CATALOGD_WEB_PORT", "8181")
	t.Setenv("CATALOGD_WEB_ALLOW_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("CATALOGD_AUTH_TOKEN_TTL", "1h")
	t.Setenv("CATALOGD_LOGGER_FILE_ENABLE", "false")

	cfg := LoadConfig(filepath.Join(dir, "missing.yml"))
	assert.Equal(t, dir, cfg.System.Workdir)
	assert.Equal(t, 8181, cfg.Web.Port)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Web.AllowOrigins)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.False(t, cfg.Logger.FileEnable)

	// defaults are not mutated by a load
	assert.Equal(t, 8080, DefaultAppConfig.Web.Port)
}

func TestUploadMaxBytesFallback(t *testing.T) {
	cfg := &AppConfig{Web: WebConfig{UploadMaxSize: "garbage"}}
	assert.Equal(t, int64(5<<20), cfg.UploadMaxBytes())
}

func TestInitDirsAndSave(t *testing.T) {
	dir := t.TempDir()
	cfg := LoadConfig(filepath.Join(dir, "none.yml"))
	cfg.System.Workdir = filepath.Join(dir, "work")
	require.NoError(t, cfg.InitDirs())
	assert.DirExists(t, cfg.GetProductImagesDir())
	assert.DirExists(t, cfg.GetDataDir())

	cfile := filepath.Join(dir, "out.yml")
	require.NoError(t, SaveConfig(cfg, cfile))
	again := LoadConfig(cfile)
	assert.Equal(t, cfg.System.Workdir, again.System.Workdir)
}
