package main

import (
	"context"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"gamo-keyword-api/internal/ai"
	"gamo-keyword-api/internal/config"
	"gamo-keyword-api/internal/logger"
	"gamo-keyword-api/internal/queue"
	"gamo-keyword-api/internal/store"
	"gamo-keyword-api/internal/telemetry"
	"gamo-keyword-api/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	if cfg.RedisURL == "" {
		log.Fatal("REDIS_URL is required to run the worker")
	}
	logger.InitLogger(cfg)

	shutdownTracer, err := telemetry.InitTracer(cfg, telemetry.ServiceName+"-worker")
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
	defer closeStore(keywordStore, 10*time.Second)

	gemini, err := ai.NewGeminiClient(ctx, cfg, metrics)
	if err != nil {
		log.Fatal("Failed to initialize Gemini client:", err)
	}
	defer gemini.Close()

	extraction := services.NewExtractionService(gemini, keywordStore, metrics, cfg.KeywordIDMaxRetries)
	extraction.SetMode(config.ExtractionAsync)

	redisOpt, err := config.AsynqRedisOpt(cfg)
	if err != nil {
		log.Fatal("Failed to configure task queue:", err)
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
			Queues: map[string]int{
				queue.QueueDefault: 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logger.Error("task failed",
					"type", task.Type(),
					"retry", retried,
					"max_retry", maxRetry,
					"error", err,
				)
			}),
		},
	)

	processor := queue.NewTaskProcessor(extraction)
	mux := asynq.NewServeMux()
	processor.Register(mux)

	logger.Info("starting asynq worker",
		"concurrency", cfg.WorkerConcurrency,
		"queue", queue.QueueDefault,
		"store", cfg.StoreDriver,
	)

	// Run blocks until SIGINT/SIGTERM and drains in-flight tasks.
	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}

func closeStore(s store.Store, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.Close(ctx); err != nil {
		logger.Error("failed to close keyword store", "error", err)
	}
}
