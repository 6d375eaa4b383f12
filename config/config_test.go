package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	t.Setenv("BINANCE_API_KEY", "key")
	t.Setenv("BINANCE_API_SECRET", "secret")

	path := writeYAML(t, "arbitrage:\n  base_currency: USDT\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "USDT", cfg.Arbitrage.BaseCurrency)
	assert.Equal(t, 0.001, cfg.Arbitrage.FeeRate)
	assert.Equal(t, 100, cfg.Arbitrage.MaxTriangles)
	assert.Equal(t, 3, cfg.Arbitrage.MaxConcurrentTriangles)
	assert.Equal(t, "https://api.binance.com", cfg.Exchange.RESTBase)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_MissingCredentialsIsFatal(t *testing.T) {
	path := writeYAML(t, "arbitrage:\n  base_currency: USDT\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverridesDryRun(t *testing.T) {
	t.Setenv("BINANCE_API_KEY", "key")
	t.Setenv("BINANCE_API_SECRET", "secret")
	t.Setenv("DRY_RUN", "true")

	path := writeYAML(t, "execution:\n  dry_run: false\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Execution.DryRun)
}
