package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/i474232898/farm-advisor/internal/chat"
)

type AppConfig struct {
	Host string
	Port string

	// Generative AI. An empty key disables only the chat endpoint.
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	Prompt        chat.PromptConfig

	// Weather providers, tried in this order.
	OpenWeatherAPIKey string
	WeatherAPIKey     string
	OpenMeteoFallback bool
	WeatherCacheTTL   time.Duration
	WeatherMaxRetries int

	// Outbound HTTP timeout shared by all clients.
	HTTPTimeout time.Duration

	// Session retention.
	SweepInterval    time.Duration
	SessionRetention time.Duration
	HistoryLimit     int
	StoreMaxTurns    int // max turns per session (0 = unlimited)

	LogLevel logrus.Level
}

// Addr returns the listen address.
func (c *AppConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}
	var err error

	cfg.Host = strings.TrimSpace(os.Getenv("HOST"))
	cfg.Port = getenvDefault("PORT", "5000")
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return nil, fmt.Errorf("invalid PORT value %q", cfg.Port)
	}

	cfg.GeminiAPIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	cfg.GeminiModel = getenvDefault("GEMINI_MODEL", "gemini-2.0-flash")
	cfg.GeminiBaseURL = getenvDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta")

	prompt := chat.DefaultPromptConfig()
	if prompt.MaxOutputTokens, err = getenvInt("GEMINI_MAX_OUTPUT_TOKENS", prompt.MaxOutputTokens); err != nil {
		return nil, err
	}
	if prompt.Temperature, err = getenvFloat("GEMINI_TEMPERATURE", prompt.Temperature); err != nil {
		return nil, err
	}
	if prompt.TopP, err = getenvFloat("GEMINI_TOP_P", prompt.TopP); err != nil {
		return nil, err
	}
	if prompt.TopK, err = getenvInt("GEMINI_TOP_K", prompt.TopK); err != nil {
		return nil, err
	}
	cfg.Prompt = prompt

	cfg.OpenWeatherAPIKey = strings.TrimSpace(os.Getenv("OPENWEATHER_API_KEY"))
	cfg.WeatherAPIKey = strings.TrimSpace(os.Getenv("WEATHERAPI_API_KEY"))
	if cfg.OpenMeteoFallback, err = getenvBool("WEATHER_OPENMETEO_FALLBACK", false); err != nil {
		return nil, err
	}
	if cfg.WeatherCacheTTL, err = getenvDuration("WEATHER_CACHE_TTL", "10m"); err != nil {
		return nil, err
	}
	if cfg.WeatherMaxRetries, err = getenvInt("WEATHER_MAX_RETRIES", 1); err != nil {
		return nil, err
	}

	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "20s"); err != nil {
		return nil, err
	}

	if cfg.SweepInterval, err = getenvDuration("SWEEP_INTERVAL", "30m"); err != nil {
		return nil, err
	}
	if cfg.SessionRetention, err = getenvDuration("SESSION_RETENTION", "1h"); err != nil {
		return nil, err
	}
	if cfg.HistoryLimit, err = getenvInt("HISTORY_LIMIT", chat.DefaultHistoryLimit); err != nil {
		return nil, err
	}
	if cfg.StoreMaxTurns, err = getenvInt("STORE_MAX_TURNS", 200); err != nil {
		return nil, err
	}

	level, err := logrus.ParseLevel(getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
	}
	return f, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, v, err)
	}
	return b, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
