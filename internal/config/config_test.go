package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "GEMINI_MODEL", "CACHE_TTL_MINUTES", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "gemini-2.0-flash", cfg.GeminiModel)
	assert.Equal(t, 30*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CACHE_TTL_MINUTES", "5")
	t.Setenv("BIGQUERY_PROJECT", "my-project")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "my-project", cfg.BigQueryProject)
}

func TestLoad_BadTTL(t *testing.T) {
	t.Setenv("CACHE_TTL_MINUTES", "soon")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("CACHE_TTL_MINUTES", "-5")
	_, err = Load()
	assert.Error(t, err)
}
