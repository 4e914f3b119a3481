// Package main is the entrypoint for the ExamForge API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kiranshivaraju/examforge/internal/ai/provider"
	"github.com/kiranshivaraju/examforge/internal/api"
	"github.com/kiranshivaraju/examforge/internal/api/handler"
	mw "github.com/kiranshivaraju/examforge/internal/api/middleware"
	"github.com/kiranshivaraju/examforge/internal/cache"
	"github.com/kiranshivaraju/examforge/internal/config"
	"github.com/kiranshivaraju/examforge/internal/exam"
	"github.com/kiranshivaraju/examforge/internal/queue"
	"github.com/kiranshivaraju/examforge/internal/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "ai_provider", cfg.AI.Provider, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	if err := store.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	jobs, err := queue.NewAsynqQueue(cfg.Redis.URL, cfg.Worker, redisCache)
	if err != nil {
		return fmt.Errorf("create job queue: %w", err)
	}
	defer jobs.Close()

	providers, err := provider.NewFactory(cfg.AI)
	if err != nil {
		return fmt.Errorf("create AI provider factory: %w", err)
	}

	pgStore := store.NewPostgresStore(pool)
	examSvc := exam.NewService(jobs, redisCache, cfg.Worker.Retention,
		exam.WithDefaultTemperature(cfg.Exam.DefaultTemperature))
	keySvc := exam.NewKeyService(pgStore, providers)

	auth := mw.NewAuth(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	router := api.NewRouter(api.Dependencies{
		Auth:      auth,
		RateLimit: mw.NewRateLimit(redisCache, cfg.Server.RateLimitPerMinute),

		HealthHandler: handler.NewHealthHandler(map[string]handler.Pinger{
			"database": pgStore,
			"cache":    redisCache,
		}),
		LoginHandler: handler.NewLoginHandler(pgStore, auth),

		GenerateHandler:     handler.NewGenerateHandler(examSvc),
		TaskStatusHandler:   handler.NewTaskStatusHandler(examSvc),
		ListTasksHandler:    handler.NewListTasksHandler(examSvc),
		DeleteTaskHandler:   handler.NewDeleteTaskHandler(examSvc),
		GetAPIKeyHandler:    handler.NewGetAPIKeyHandler(keySvc),
		UpdateAPIKeyHandler: handler.NewUpdateAPIKeyHandler(keySvc),
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
