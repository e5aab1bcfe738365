package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	httpapi "github.com/i474232898/farm-advisor/internal/api/http"
	"github.com/i474232898/farm-advisor/internal/chat"
	"github.com/i474232898/farm-advisor/internal/config"
	"github.com/i474232898/farm-advisor/internal/gemini"
	"github.com/i474232898/farm-advisor/internal/scheduler"
	"github.com/i474232898/farm-advisor/internal/store"
	"github.com/i474232898/farm-advisor/internal/weather"
	"github.com/i474232898/farm-advisor/internal/weather/providers"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Infof("no .env file found or error loading it: %v", err)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	logrus.SetLevel(cfg.LogLevel)

	// Shared HTTP client for outbound calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// In-memory session store with a per-session cap.
	sessions := store.NewMemoryStore(cfg.StoreMaxTurns)

	// Weather providers in fallback order.
	popts := providers.Options{Client: httpClient, MaxRetries: cfg.WeatherMaxRetries}
	var provs []weather.Provider
	if cfg.OpenWeatherAPIKey != "" {
		provs = append(provs, providers.NewOpenWeatherProvider(cfg.OpenWeatherAPIKey, popts))
	}
	if cfg.WeatherAPIKey != "" {
		provs = append(provs, providers.NewWeatherAPIProvider(cfg.WeatherAPIKey, popts))
	}
	if cfg.OpenMeteoFallback {
		provs = append(provs, providers.NewOpenMeteoProvider(popts))
	}

	var weatherSource chat.WeatherSource
	if len(provs) > 0 {
		weatherSource = weather.NewCache(provs, cfg.WeatherCacheTTL)
	} else {
		logrus.Warn("no weather provider configured; answers will not include weather context")
	}

	var generator chat.Generator
	if cfg.GeminiAPIKey != "" {
		generator = gemini.NewClient(httpClient, cfg.GeminiBaseURL, cfg.GeminiModel, cfg.GeminiAPIKey)
	} else {
		logrus.Error("GEMINI_API_KEY is not set; POST /api/a will return 500")
	}

	service := chat.NewService(sessions, weatherSource, generator, chat.Options{
		HistoryLimit: cfg.HistoryLimit,
		Prompt:       cfg.Prompt,
	})

	// Idle session eviction.
	sweeper := scheduler.New(sessions, cfg.SweepInterval, cfg.SessionRetention)
	if err := sweeper.Start(); err != nil {
		logrus.Fatalf("failed to start session sweeper: %v", err)
	}
	defer sweeper.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "farm-advisor",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          60 * time.Second,
		BodyLimit:             64 * 1024,
		UnescapePath:          true,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	httpapi.RegisterRoutes(app, service)

	go func() {
		logrus.Infof("farm-advisor listening on %s", cfg.Addr())
		if err := app.Listen(cfg.Addr()); err != nil {
			logrus.Errorf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logrus.Errorf("error during shutdown: %v", err)
	}
}
