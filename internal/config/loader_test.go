package config

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestHome points HOME at a temp dir and returns the config dir inside it.
func setupTestHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "svclocator")
	require.NoError(t, os.MkdirAll(dir, 0700))
	return dir
}

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadWithFile_ValidYAML(t *testing.T) {
	dir := setupTestHome(t)
	path := writeConfig(t, dir, "config.yaml", `server:
  port: 8088
  host: 0.0.0.0
loop:
  tick_interval: 50ms
  stop_on_exit: false
observability:
  service_name: svclocd-test
services:
  snapshot:
    auto_start: true
    every: 120
    path: /tmp/snapshot.json
  uptime:
    paused: true
`)

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 50*time.Millisecond, cfg.Loop.TickInterval.Duration())
	assert.False(t, cfg.Loop.StopOnExit)
	assert.Equal(t, "svclocd-test", cfg.Observability.ServiceName)

	snap := cfg.Service("snapshot")
	require.NotNil(t, snap.AutoStart)
	assert.True(t, *snap.AutoStart)
	assert.Equal(t, 120, snap.Every)
	assert.Equal(t, "/tmp/snapshot.json", snap.Path)
	assert.True(t, cfg.Service("uptime").Paused)

	// Unset values keep their defaults.
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadWithFile_ValidTOML(t *testing.T) {
	dir := setupTestHome(t)
	path := writeConfig(t, dir, "config.toml", `
[server]
port = 7070

[loop]
tick_interval = "20ms"

[events]
enabled = true
url = "nats://127.0.0.1:4333"
subject_prefix = "game"

[services.heartbeat]
every = 600
disabled = true
`)

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 20*time.Millisecond, cfg.Loop.TickInterval.Duration())
	assert.True(t, cfg.Events.Enabled)
	assert.Equal(t, "game", cfg.Events.SubjectPrefix)
	assert.Equal(t, 600, cfg.Service("heartbeat").Every)
	assert.True(t, cfg.Service("heartbeat").Disabled)
}

func TestLoadWithFile_EnvironmentOverride(t *testing.T) {
	dir := setupTestHome(t)
	path := writeConfig(t, dir, "config.yaml", "server:\n  port: 8088\n")

	t.Setenv("SVCLOC_SERVER_PORT", "9999")
	t.Setenv("SVCLOC_LOOP_TICK_INTERVAL", "1s")
	t.Setenv("SVCLOC_SERVICES_SNAPSHOT_AUTO_START", "true")

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, time.Second, cfg.Loop.TickInterval.Duration())
	snap := cfg.Service("snapshot")
	require.NotNil(t, snap.AutoStart)
	assert.True(t, *snap.AutoStart)
}

func TestLoadWithFile_MissingFile(t *testing.T) {
	dir := setupTestHome(t)

	cfg, err := LoadWithFile(filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Server, cfg.Server)
}

func TestLoadWithFile_DefaultPath(t *testing.T) {
	dir := setupTestHome(t)
	writeConfig(t, dir, "config.yaml", "server:\n  port: 8123\n")

	cfg, err := LoadWithFile("")
	require.NoError(t, err)
	assert.Equal(t, 8123, cfg.Server.Port)
}

func TestLoadWithFile_InvalidYAML(t *testing.T) {
	dir := setupTestHome(t)
	path := writeConfig(t, dir, "config.yaml", "server: [unclosed\n")

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config file")
}

func TestLoadWithFile_InvalidTOML(t *testing.T) {
	dir := setupTestHome(t)
	path := writeConfig(t, dir, "config.toml", "[server\nport = 1\n")

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid TOML")
}

func TestLoadWithFile_Validation(t *testing.T) {
	dir := setupTestHome(t)
	path := writeConfig(t, dir, "config.yaml", "logging:\n  format: xml\n")

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestLoadWithFile_PathOutsideAllowedDirs(t *testing.T) {
	setupTestHome(t)
	outside := filepath.Join(t.TempDir(), "config.yaml")

	_, err := LoadWithFile(outside)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config path validation failed")

	_, err = LoadWithFile(filepath.Join(os.Getenv("HOME"), ".config", "svclocator", "..", "escape.yaml"))
	assert.Error(t, err)
}

func TestLoadWithFile_InsecurePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission model differs on windows")
	}
	dir := setupTestHome(t)
	path := writeConfig(t, dir, "config.yaml", "server:\n  port: 8088\n")
	require.NoError(t, os.Chmod(path, 0644))

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insecure config file permissions")
}

func TestLoadWithFile_FileTooLarge(t *testing.T) {
	dir := setupTestHome(t)
	content := "# " + string(bytes.Repeat([]byte("x"), maxConfigFileSize)) + "\n"
	path := writeConfig(t, dir, "config.yaml", content)

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file too large")
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"SVCLOC_SERVER_PORT":                  "server.port",
		"SVCLOC_LOOP_TICK_INTERVAL":           "loop.tick_interval",
		"SVCLOC_OBSERVABILITY_SERVICE_NAME":   "observability.service_name",
		"SVCLOC_SERVICES_SNAPSHOT_AUTO_START": "services.snapshot.auto_start",
		"SVCLOC_SERVICES_UPTIME_PAUSED":       "services.uptime.paused",
		"SVCLOC_DEBUG":                        "debug",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}

func TestEnsureConfigDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	require.NoError(t, EnsureConfigDir())
	info, err := os.Stat(filepath.Join(home, ".config", "svclocator"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
