package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 2024, cfg.Pipeline.BaselineYear)
	assert.Equal(t, 2025, cfg.Pipeline.ProcessingYear)
	assert.Equal(t, "weighted_sum", cfg.Pipeline.CombineStrategy)
	assert.Len(t, cfg.Pipeline.Commodities, 3)
	assert.Equal(t, "2024 Avg", cfg.BaselineLabel())
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "processing year not after baseline",
			mutate: func(c *Config) { c.Pipeline.ProcessingYear = c.Pipeline.BaselineYear },
		},
		{
			name:   "negative quantity",
			mutate: func(c *Config) { c.Pipeline.Quantities["eggs"] = -1 },
		},
		{
			name:   "quantity for unknown commodity",
			mutate: func(c *Config) { c.Pipeline.Quantities["caviar"] = 1 },
		},
		{
			name: "duplicate commodity",
			mutate: func(c *Config) {
				c.Pipeline.Commodities = append(c.Pipeline.Commodities, c.Pipeline.Commodities[0])
			},
		},
		{
			name:   "bad combine strategy",
			mutate: func(c *Config) { c.Pipeline.CombineStrategy = "median" },
		},
		{
			name:   "missing redis addr",
			mutate: func(c *Config) { c.Redis.Addr = "" },
		},
		{
			name:   "bad log level",
			mutate: func(c *Config) { c.Logging.Level = "verbose" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9090
pipeline:
  combine_strategy: normalized_average
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	t.Setenv("BASKET_CONFIG_FILE", path)
	t.Setenv("BASKET_REDIS_ADDR", "redis.internal:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port, "file overrides default")
	assert.Equal(t, "normalized_average", cfg.Pipeline.CombineStrategy)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr, "env overrides file")
	assert.Equal(t, "info", cfg.Logging.Level, "untouched default survives")
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline: [not, a, map]"), 0o644))

	t.Setenv("BASKET_CONFIG_FILE", path)
	_, err := Load()
	assert.Error(t, err)
}
