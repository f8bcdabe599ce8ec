// Package main runs the asynchronous index consumer. It subscribes to the
// index subject on NATS and feeds requests through the upsert pipeline.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"

	"github.com/loresmith/loresmith/engine/index"
	"github.com/loresmith/loresmith/engine/semantic"
	"github.com/loresmith/loresmith/pkg/config"
	"github.com/loresmith/loresmith/pkg/embedding"
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
		logger.Error("indexer exited with error", "err", err)
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

	provider := embedding.NewClient(embedding.ClientConfig{
		BaseURL:           cfg.Embedding.BaseURL,
		APIKey:            cfg.APIKey(),
		Model:             cfg.Embedding.Model,
		Dimensions:        cfg.Embedding.Dimensions,
		RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
		Timeout:           cfg.Embedding.Timeout.Std(),
	})

	nc, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats connect: %w", err)
	}
	defer nc.Close()

	svc := index.New(index.Deps{Provider: provider, Store: store, Logger: logger})
	sub, err := index.StartConsumer(nc, svc, logger)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	logger.Info("indexer running", "subject", index.IndexSubject)
	<-ctx.Done()
	logger.Info("shutdown signal received")
	return nil
}
