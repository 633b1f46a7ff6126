package runtimeconfig_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/archonkit/archon/runtimeconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDefaultIsZeroConcurrencyNoGuards(t *testing.T) {
	cfg := runtimeconfig.Default()
	assert.Equal(t, 0, cfg.Concurrency)
	assert.False(t, cfg.DeadlockCheck)
	assert.False(t, cfg.DanglingRefScan)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadParsesYAMLOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
concurrency: 4
deadlock_check: true
dangling_ref_scan: true
par_iter_split_cutoff: 64
log_level: debug
`), 0o644))

	cfg, err := runtimeconfig.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.True(t, cfg.DeadlockCheck)
	assert.True(t, cfg.DanglingRefScan)
	assert.Equal(t, 64, cfg.ParIterSplitCutoff)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := runtimeconfig.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestZapLevelParsesAndDefaults(t *testing.T) {
	cfg := runtimeconfig.Config{LogLevel: "warn"}
	assert.Equal(t, zap.WarnLevel, cfg.ZapLevel().Level())

	cfg = runtimeconfig.Config{LogLevel: "not-a-level"}
	assert.Equal(t, zap.InfoLevel, cfg.ZapLevel().Level())
}
