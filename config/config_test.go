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
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileUsesLiquidityDefaults(t *testing.T) {
	t.Setenv("RIT_API_KEY", "KEY")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ModeLive, cfg.Mode)
	assert.Equal(t, "liquidity", cfg.Strategy.Variant)
	assert.Equal(t, "liquidity", cfg.Sizing.Model)
	assert.Equal(t, []string{"ALGO"}, cfg.Strategy.Tickers)
	assert.Equal(t, 6, cfg.Strategy.StartTick)
	assert.Equal(t, 295, cfg.Strategy.EndTick)
	assert.Equal(t, 4, cfg.Strategy.TTL())
	assert.True(t, cfg.Strategy.Refine)
	assert.InDelta(t, 0.035, cfg.Strategy.MinMarketSpread, 1e-9)
	assert.Equal(t, 7500, cfg.Risk.MaxLong)
	assert.Equal(t, 25000, cfg.Risk.MaxGross)
	assert.Equal(t, 3500, cfg.Sizing.BaseQty)
	assert.Equal(t, 10, cfg.Sizing.WarmupTicks)
	assert.Equal(t, 0, cfg.API.MaxRetries)
	assert.Equal(t, "KEY", cfg.API.APIKey)
}

func TestLoad_TargetVariant(t *testing.T) {
	t.Setenv("RIT_API_KEY", "KEY")
	path := writeYAML(t, `
strategy:
  variant: target
sizing:
  soft_position: 1000
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "target", cfg.Sizing.Model)
	assert.Equal(t, 2000, cfg.Risk.MaxLong)
	assert.Equal(t, 0, cfg.Risk.MaxGross, "variant has no portfolio cap")
	assert.Equal(t, 0, cfg.Strategy.TTL())
	assert.False(t, cfg.Strategy.Refine)
	assert.Equal(t, 2000, cfg.Sizing.HardPosition)
	assert.Equal(t, 1000, cfg.Sizing.SoftPosition)
	assert.Equal(t, 0, cfg.Sizing.WarmupTicks)
}

func TestLoad_ExplicitZeroTTLDisablesExpiry(t *testing.T) {
	t.Setenv("RIT_API_KEY", "KEY")
	path := writeYAML(t, `
strategy:
  variant: liquidity
  order_ttl_ticks: 0
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.NotNil(t, cfg.Strategy.OrderTTL)
	assert.Equal(t, 0, cfg.Strategy.TTL())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RIT_API_KEY", "SECRET")
	t.Setenv("RIT_BASE_URL", "http://rit:9999")
	t.Setenv("RIT_MODE", "paper")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	path := writeYAML(t, `
api:
  base_url: "http://localhost:1"
  api_key: "FROM_YAML"
log:
  level: warn
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "SECRET", cfg.API.APIKey)
	assert.Equal(t, "http://rit:9999", cfg.API.BaseURL)
	assert.Equal(t, ModePaper, cfg.Mode)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeYAML(t, "strategy: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse YAML")
}

func TestLoad_LiveRequiresKey(t *testing.T) {
	t.Setenv("RIT_API_KEY", "")
	_, err := Load(writeYAML(t, "mode: live\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key")
}

func TestValidate(t *testing.T) {
	t.Setenv("RIT_API_KEY", "KEY")
	base, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown variant", func(c *Config) { c.Strategy.Variant = "momentum" }, "unknown variant"},
		{"no tickers", func(c *Config) { c.Strategy.Tickers = nil }, "tickers"},
		{"window", func(c *Config) { c.Strategy.EndTick = c.Strategy.StartTick }, "end_tick"},
		{"ttl", func(c *Config) { ttl := -1; c.Strategy.OrderTTL = &ttl }, "order_ttl"},
		{"qty", func(c *Config) { c.Sizing.MinQty = c.Sizing.MaxQty + 1 }, "min_qty"},
		{"soft", func(c *Config) { c.Sizing.SoftPosition = c.Sizing.HardPosition + 1 }, "soft_position"},
		{"cushion", func(c *Config) { c.Strategy.Cushion = 0 }, "price_cushion"},
		{"signal", func(c *Config) { c.Sizing.FillSignal = "psychic" }, "fill signal"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := *base
			c.Strategy.Tickers = append([]string(nil), base.Strategy.Tickers...)
			tc.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	assert.NoError(t, base.Validate())
}

func TestSleepInterval(t *testing.T) {
	c := &Config{Strategy: StrategyConfig{SleepMillis: 250}, API: APIConfig{TimeoutSeconds: 3}}
	assert.Equal(t, "250ms", c.SleepInterval().String())
	assert.Equal(t, "3s", c.Timeout().String())
}
