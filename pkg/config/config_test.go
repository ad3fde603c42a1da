package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("MESH_DELAY_UNIT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":3001", cfg.Addr)
	assert.Equal(t, "/api", cfg.APIPrefix)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "gemini", cfg.LLMProvider)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLMModel)
	assert.Equal(t, 1500*time.Millisecond, cfg.MeshDelayUnit)
	assert.Equal(t, 2*time.Second, cfg.MeshDiscoveryDelay)
	assert.Equal(t, cfg.GuideCacheTTL, cfg.Cache.Local.DefaultExpiration)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("MESH_DELAY_UNIT", "10ms")
	t.Setenv("CACHE_TYPE", "gocache")
	t.Setenv("BACKUP_ENABLED", "1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.LLMModel)
	assert.Equal(t, 10*time.Millisecond, cfg.MeshDelayUnit)
	assert.Equal(t, "gocache", cfg.Cache.Type)
	assert.True(t, cfg.BackupEnabled)
	assert.Equal(t, 7, cfg.BackupKeep)
}
