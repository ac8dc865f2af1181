package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "entries.json", cfg.EntriesPath)
	assert.Equal(t, "taxonomy.yaml", cfg.TaxonomyPath)
	assert.True(t, cfg.WorkerEnabled)
	assert.Equal(t, int64(1), cfg.PlacementSeed)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("ONEIROGRAPH_ENTRIES", "/data/journal.json")
	t.Setenv("ONEIROGRAPH_WORKER", "false")
	t.Setenv("ONEIROGRAPH_SEED", "99")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "/data/journal.json", cfg.EntriesPath)
	assert.False(t, cfg.WorkerEnabled)
	assert.Equal(t, int64(99), cfg.PlacementSeed)
	assert.False(t, cfg.IsDevelopment())
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{EntriesPath: "", LayoutCachePath: "x"}
	assert.Error(t, cfg.Validate())

	cfg = &Config{EntriesPath: "x", LayoutCachePath: ""}
	assert.Error(t, cfg.Validate())

	cfg = &Config{EntriesPath: "x", LayoutCachePath: "y"}
	assert.NoError(t, cfg.Validate())
}
