package futurecash

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.Equal(t, 24*time.Hour, cfg.Hold.Duration)
	require.Equal(t, 24*time.Hour, cfg.Hold.AccountAge)
	require.Equal(t, 10, cfg.Hold.IPThreshold)
	require.Equal(t, int64(5000), cfg.Hold.HighValuePoints)
	require.Equal(t, 0.1, cfg.Referral.Percentage)
	require.Equal(t, 5*time.Minute, cfg.Sweep.Interval)
	require.Equal(t, 3, cfg.Sweep.Workers)
	require.Equal(t, 1, cfg.Stats.Hour)
	require.False(t, cfg.Callback.Strict)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := "hold:\n  ip_threshold: 3\n  duration: 2h\nreferral:\n  percentage: 0.25\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	t.Setenv("FUTURECASH_CALLBACK_STRICT", "true")

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Hold.IPThreshold)
	require.Equal(t, 2*time.Hour, cfg.Hold.Duration)
	require.Equal(t, 0.25, cfg.Referral.Percentage)
	require.True(t, cfg.Callback.Strict)
	// не переопределенные ключи остаются по умолчанию
	require.Equal(t, int64(5000), cfg.Hold.HighValuePoints)
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, 10, cfg.Hold.IPThreshold)
}
