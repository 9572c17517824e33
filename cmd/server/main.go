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

	"github.com/cubny/metro"
	"github.com/cubny/metro/internal/api"
	"github.com/cubny/metro/internal/config"
	"github.com/cubny/metro/internal/logging"
	"github.com/joho/godotenv"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	logger := logging.New(os.Stdout, level)
	if envErr != nil {
		logger.Info("no .env file found, using environment variables")
	}

	if err := run(cfg, logger); err != nil {
		logging.LogError(logger, "server stopped", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dataset, err := openDataset(ctx, cfg.StationsCSV, logger)
	if err != nil {
		return err
	}

	table, err := cfg.Tariff()
	if err != nil {
		return err
	}

	handler, err := api.New(dataset, metro.NewCalculator(table), logger, api.Options{
		RateLimit:   cfg.RateLimit,
		CacheSize:   cfg.CacheSize,
		CacheTTL:    cfg.CacheTTL,
		Currency:    cfg.Currency,
		Compression: api.DefaultCompressionConfig(),
	})
	if err != nil {
		return err
	}
	defer handler.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       time.Minute,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "env", cfg.Env)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func openDataset(ctx context.Context, path string, logger *slog.Logger) (*metro.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stations: %w", err)
	}
	defer logging.Close(f, logger, "stations file")

	start := time.Now()
	dataset, err := metro.LoadDataset(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("load stations %q: %w", path, err)
	}

	quality := metro.Quality(dataset)
	logger.LogAttrs(ctx, slog.LevelInfo, "stations_loaded",
		slog.String("path", path),
		slog.Int("rows", quality.Rows),
		slog.Int("stations", quality.Stations),
		slog.Int("invalid", len(quality.Invalid)),
		slog.Int("duplicates", len(quality.Duplicates)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return dataset, nil
}
