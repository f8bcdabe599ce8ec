// Package main implements the loresmith API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/loresmith/loresmith/engine/index"
	"github.com/loresmith/loresmith/engine/rag"
	"github.com/loresmith/loresmith/engine/semantic"
	"github.com/loresmith/loresmith/pkg/config"
	"github.com/loresmith/loresmith/pkg/embedding"
	"github.com/loresmith/loresmith/pkg/metrics"
	"github.com/loresmith/loresmith/pkg/mid"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(envOr("LORESMITH_CONFIG", "loresmith.yaml"))
	if err != nil {
		logger.Error("config load failed", "err", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := semantic.New(cfg.Qdrant.Addr, semantic.Options{
		Prefix:     cfg.Qdrant.Prefix,
		Dimensions: cfg.Embedding.Dimensions,
		Model:      cfg.Embedding.Model,
	}, logger)
	if err != nil {
		return fmt.Errorf("qdrant connect: %w", err)
	}
	defer store.Close()

	if err := store.EnsureCollections(ctx); err != nil {
		return fmt.Errorf("collection init: %w", err)
	}

	provider, closeCache, err := buildProvider(cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	indexSvc := index.New(index.Deps{Provider: provider, Store: store, Logger: logger})
	assembler := rag.New(provider, store, logger)
	registry := metrics.New()

	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: mid.Chain(newMux(store, provider, indexSvc, assembler, registry, logger),
			mid.Recover(logger),
			mid.Logger(logger),
			mid.Measure(registry),
			mid.OTel("loresmith-api"),
			mid.CORS(cfg.HTTP.CORSOrigin),
		),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.HTTP.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// buildProvider wires the embedding client with the optional bbolt cache.
func buildProvider(cfg *config.Config) (embedding.Provider, func(), error) {
	client := embedding.NewClient(embedding.ClientConfig{
		BaseURL:           cfg.Embedding.BaseURL,
		APIKey:            cfg.APIKey(),
		Model:             cfg.Embedding.Model,
		Dimensions:        cfg.Embedding.Dimensions,
		RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
		Timeout:           cfg.Embedding.Timeout.Std(),
	})
	if cfg.Embedding.CachePath == "" {
		return client, func() {}, nil
	}
	cache, err := embedding.OpenCache(cfg.Embedding.CachePath)
	if err != nil {
		return nil, nil, fmt.Errorf("embedding cache: %w", err)
	}
	return embedding.NewCachedProvider(client, cache), func() { cache.Close() }, nil
}
