package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestLoadParsesShippedConfig guards against config.yaml and Config drifting
// apart — e.g. a field whose YAML tag no longer matches yaml.v3's decode
// rules for its Go type (snapshot_interval: "60s" into a bare time.Duration
// used to fail exactly this way).
func TestLoadParsesShippedConfig(t *testing.T) {
	cfg, err := Load("../../config.yaml")
	require.NoError(t, err)
	require.Equal(t, 4002, cfg.Gateway.Port)
	require.Equal(t, "gateway-snapshot.json", cfg.Gateway.SnapshotPath)
	require.Equal(t, 60*time.Second, cfg.Gateway.SnapshotInterval.Duration())
}

func TestLoadAppliesPortEnvOverride(t *testing.T) {
	t.Setenv("PORT", "9090")
	cfg, err := Load("../../config.yaml")
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Gateway.Port)
}

func TestLoadDefaultsSnapshotIntervalWhenAbsent(t *testing.T) {
	path := writeTempConfig(t, `
name: test
gateway:
  port: 4002
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 60*time.Second, cfg.Gateway.SnapshotInterval.Duration())
}

func TestLoadRejectsMalformedSnapshotInterval(t *testing.T) {
	path := writeTempConfig(t, `
name: test
gateway:
  port: 4002
  snapshot_interval: "not-a-duration"
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadParsesNonSecondDurationUnits(t *testing.T) {
	path := writeTempConfig(t, `
name: test
gateway:
  port: 4002
  snapshot_interval: 5m
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 5*time.Minute, cfg.Gateway.SnapshotInterval.Duration())
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	path := writeTempConfig(t, `
name: test
gateway:
  port: 70000
`)
	_, err := Load(path)
	require.Error(t, err)
}

func writeTempConfig(t *testing.T, yaml string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}
