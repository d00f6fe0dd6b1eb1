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

	_ "github.com/lib/pq"

	"github.com/taskline-app/taskline/internal/config"
	taskhttp "github.com/taskline-app/taskline/internal/http"
	"github.com/taskline-app/taskline/internal/service"
	"github.com/taskline-app/taskline/internal/store"
)

func main() {
	// Initial logger at info level; reconfigured after config load
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(context.Background()); err != nil {
		logger.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.ParseLogLevel(),
	}))
	slog.SetDefault(logger)

	logger.Info("config loaded",
		"env", cfg.AppEnv,
		"port", cfg.ServerPort,
		"backend", cfg.Store.Backend,
		"serialized", cfg.Store.Serialized,
		"strict", cfg.Store.Strict,
		"log_level", cfg.LogLevel,
	)

	st, cleanup, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	var opts []service.Option
	if cfg.Store.Serialized {
		// Stronger than the stock last-writer-wins behavior; never
		// enabled silently.
		logger.Warn("serialized store mode enabled: concurrent mutations are serialized per document")
		opts = append(opts, service.WithSerialized())
	}
	taskSvc := service.NewTaskService(st, opts...)

	srv := taskhttp.NewServer(cfg.ServerPort, logger, taskSvc)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	logger.Info("server starting", "port", cfg.ServerPort)

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("server stopped gracefully")
	return nil
}

// newStore builds the configured document store. The returned cleanup
// closes any underlying connection.
func newStore(ctx context.Context, cfg config.Config) (store.Store, func(), error) {
	switch cfg.Store.Backend {
	case "file":
		st, err := store.NewFile(cfg.Store.FilePath, cfg.Store.Strict)
		if err != nil {
			return nil, nil, err
		}
		return st, nil, nil
	case "s3":
		st, err := store.NewS3(ctx, cfg.S3.Region, cfg.S3.Bucket, cfg.S3.Key, cfg.Store.Strict)
		if err != nil {
			return nil, nil, err
		}
		return st, nil, nil
	case "postgres":
		db, err := store.NewDB(cfg.DB.DSN())
		if err != nil {
			return nil, nil, err
		}
		return store.NewPostgres(db, cfg.Store.Strict), func() { db.Close() }, nil
	case "memory":
		return store.NewMemory(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
