// Package main is the entrypoint for the ExamForge generation worker.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kiranshivaraju/examforge/internal/ai/provider"
	"github.com/kiranshivaraju/examforge/internal/cache"
	"github.com/kiranshivaraju/examforge/internal/config"
	"github.com/kiranshivaraju/examforge/internal/exam"
	"github.com/kiranshivaraju/examforge/internal/objectstore"
	"github.com/kiranshivaraju/examforge/internal/queue"
	"github.com/kiranshivaraju/examforge/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("worker failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded",
		"ai_provider", cfg.AI.Provider,
		"object_store", cfg.ObjectStore.Driver,
		"concurrency", cfg.Worker.Concurrency,
		"job_timeout", cfg.Worker.JobTimeout,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	pgStore := store.NewPostgresStore(pool)

	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	objects, err := objectstore.NewReader(ctx, cfg.ObjectStore)
	if err != nil {
		return fmt.Errorf("create object store reader: %w", err)
	}
	if c, ok := objects.(io.Closer); ok {
		defer c.Close()
	}

	providers, err := provider.NewFactory(cfg.AI)
	if err != nil {
		return fmt.Errorf("create AI provider factory: %w", err)
	}

	prompts, err := exam.NewPromptBuilder(cfg.Exam.PromptTemplatePath)
	if err != nil {
		return fmt.Errorf("load prompt template: %w", err)
	}

	generator := exam.NewGenerator(pgStore, pgStore, objects, providers, prompts)
	worker, err := queue.NewWorker(cfg.Redis.URL, cfg.Worker,
		queue.NewHandler(generator, redisCache, cfg.Worker.Retention))
	if err != nil {
		return fmt.Errorf("create worker: %w", err)
	}

	if err := worker.Start(); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}
	slog.Info("worker started", "queue", cfg.Worker.Queue)

	<-ctx.Done()
	slog.Info("shutdown signal received, waiting for active jobs")
	worker.Shutdown()

	slog.Info("worker stopped gracefully")
	return nil
}
