package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"gamo-keyword-api/internal/ai"
	"gamo-keyword-api/internal/config"
	"gamo-keyword-api/internal/jobs"
	"gamo-keyword-api/internal/logger"
	"gamo-keyword-api/internal/queue"
	"gamo-keyword-api/internal/store"
	"gamo-keyword-api/internal/telemetry"
	"gamo-keyword-api/middleware"
	"gamo-keyword-api/routes"
	"gamo-keyword-api/services"
	"gamo-keyword-api/utils"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg)

	shutdownTracer, err := telemetry.InitTracer(cfg, telemetry.ServiceName)
	if err != nil {
		log.Fatal("Failed to initialize tracing:", err)
	}
	defer shutdownTracer()

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		logger.Warn("metrics disabled", "error", err)
	}

	ctx := context.Background()

	keywordStore, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to open keyword store:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := keywordStore.Close(ctx); err != nil {
			logger.Error("failed to close keyword store", "error", err)
		}
	}()

	gemini, err := ai.NewGeminiClient(ctx, cfg, metrics)
	if err != nil {
		log.Fatal("Failed to initialize Gemini client:", err)
	}
	defer gemini.Close()

	extraction := services.NewExtractionService(gemini, keywordStore, metrics, cfg.KeywordIDMaxRetries)
	agenda := services.NewAgendaService(keywordStore, gemini, metrics)
	letters := services.NewLetterService(gemini)

	var enqueuer routes.ExtractionEnqueuer
	if cfg.ExtractionMode == config.ExtractionAsync {
		redisOpt, err := config.AsynqRedisOpt(cfg)
		if err != nil {
			log.Fatal("Failed to configure task queue:", err)
		}
		client := queue.NewClient(redisOpt)
		defer client.Close()
		enqueuer = client
	}

	// Store probe feeding /ready
	probe := jobs.NewStoreProbe(keywordStore, utils.ShortTimeout)
	scheduler := jobs.NewScheduler()
	if err := probe.Schedule(scheduler, cfg.ProbeInterval()); err != nil {
		log.Fatal("Failed to schedule store probe:", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	registry, err := telemetry.NewRegistry(keywordStore, cfg.StoreDriver)
	if err != nil {
		log.Fatal("Failed to register metrics:", err)
	}

	// Initialize Gin router
	gin.SetMode(cfg.GinMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.TracingMiddleware())
	router.Use(middleware.EnrichTrace())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.MetricsMiddleware(metrics))
	router.Use(middleware.CORSMiddlewareWithOrigins(cfg.CORSOrigins))
	router.Use(middleware.RequestSizeLimit(cfg.MaxBodySize))

	if cfg.RedisURL != "" {
		rdb, err := config.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("rate limiting disabled", "error", err)
		} else {
			defer rdb.Close()
			router.Use(middleware.RateLimitMiddleware(rdb, cfg.RateLimitReqs, time.Duration(cfg.RateLimitWindow)*time.Second))
		}
	}

	// Setup routes
	routes.SetupHealthRoutes(router, probe, registry)
	routes.SetupKeywordRoutes(router, cfg, extraction, enqueuer)
	routes.SetupAgendaRoutes(router, cfg, agenda)
	routes.SetupLetterRoutes(router, cfg, letters)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server starting",
			"addr", cfg.Addr(),
			"store", cfg.StoreDriver,
			"extraction_mode", cfg.ExtractionMode,
			"gemini_model", cfg.GeminiModel,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
