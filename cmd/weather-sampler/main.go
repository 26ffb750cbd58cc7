package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/cuacakota/weather-sampler/internal/api/http"
	"github.com/cuacakota/weather-sampler/internal/bmkg"
	"github.com/cuacakota/weather-sampler/internal/bulletin"
	"github.com/cuacakota/weather-sampler/internal/config"
	"github.com/cuacakota/weather-sampler/internal/enhance"
	"github.com/cuacakota/weather-sampler/internal/observability"
	"github.com/cuacakota/weather-sampler/internal/region"
	"github.com/cuacakota/weather-sampler/internal/scheduler"
	"github.com/cuacakota/weather-sampler/internal/store"
	"github.com/cuacakota/weather-sampler/internal/weather"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Region reference dataset. Missing or corrupt data aborts startup.
	regions, err := region.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open region dataset: %v", err)
	}
	defer regions.Close()

	metrics := observability.NewMetrics()

	// Shared HTTP client for outbound forecast calls.
	httpClient := &http.Client{
		Timeout: cfg.FetchTimeout,
	}

	client := bmkg.NewClient(httpClient, cfg.BMKGBaseURL, regions)
	normalizer := weather.NewNormalizer(cfg.TargetHour, nil)

	batch := weather.NewService(client, normalizer, regions, metrics, weather.BatchConfig{
		Concurrency:     cfg.FetchConcurrency,
		FetchTimeout:    cfg.FetchTimeout,
		AutoReplace:     cfg.AutoReplace,
		MaxReplacements: cfg.MaxReplacements,
	})

	sampler := region.NewSampler(regions, nil)
	bulletins := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	var enhancer bulletin.Enhancer
	if cfg.UseAIEnhancement {
		e, err := enhance.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			log.Printf("AI enhancement disabled: %v", err)
		} else {
			enhancer = e
		}
	}

	generator := bulletin.NewGenerator(sampler, batch, enhancer, bulletins, metrics)

	// Daily bulletin job.
	sched := scheduler.New(generator, cfg.SelectionRequest(), cfg.BulletinSchedule)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weather-sampler",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-sampler",
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, httpapi.Deps{
		Regions:        regions,
		Generator:      generator,
		Bulletins:      bulletins,
		DefaultRequest: cfg.SelectionRequest(),
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
