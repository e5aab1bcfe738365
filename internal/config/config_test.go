package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"HOST", "PORT", "GEMINI_API_KEY", "GEMINI_MODEL", "GEMINI_TEMPERATURE",
		"WEATHER_CACHE_TTL", "SWEEP_INTERVAL", "SESSION_RETENTION", "HISTORY_LIMIT",
		"STORE_MAX_TURNS", "LOG_LEVEL", "WEATHER_OPENMETEO_FALLBACK",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.Addr())
	assert.Empty(t, cfg.GeminiAPIKey)
	assert.Equal(t, "gemini-2.0-flash", cfg.GeminiModel)
	assert.Equal(t, 0.3, cfg.Prompt.Temperature)
	assert.Equal(t, 1024, cfg.Prompt.MaxOutputTokens)
	assert.Equal(t, 10*time.Minute, cfg.WeatherCacheTTL)
	assert.Equal(t, 30*time.Minute, cfg.SweepInterval)
	assert.Equal(t, time.Hour, cfg.SessionRetention)
	assert.Equal(t, 20, cfg.HistoryLimit)
	assert.Equal(t, 200, cfg.StoreMaxTurns)
	assert.False(t, cfg.OpenMeteoFallback)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "8081")
	t.Setenv("GEMINI_API_KEY", " secret ")
	t.Setenv("GEMINI_TEMPERATURE", "0.1")
	t.Setenv("GEMINI_TOP_K", "20")
	t.Setenv("WEATHER_CACHE_TTL", "5m")
	t.Setenv("WEATHER_OPENMETEO_FALLBACK", "true")
	t.Setenv("HISTORY_LIMIT", "10")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8081", cfg.Addr())
	assert.Equal(t, "secret", cfg.GeminiAPIKey)
	assert.Equal(t, 0.1, cfg.Prompt.Temperature)
	assert.Equal(t, 20, cfg.Prompt.TopK)
	assert.Equal(t, 5*time.Minute, cfg.WeatherCacheTTL)
	assert.True(t, cfg.OpenMeteoFallback)
	assert.Equal(t, 10, cfg.HistoryLimit)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
}

func TestLoadInvalidValues(t *testing.T) {
	cases := map[string]string{
		"PORT":               "80 80",
		"SWEEP_INTERVAL":     "soon",
		"HISTORY_LIMIT":      "many",
		"GEMINI_TEMPERATURE": "warm",
		"LOG_LEVEL":          "loud",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
