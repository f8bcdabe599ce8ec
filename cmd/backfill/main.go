// Package main migrates stored points from the legacy 32-bit point IDs to
// the current 64-bit scheme. Run once per deployment after upgrading; reruns
// are harmless since migrated points no longer match the legacy hash.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/loresmith/loresmith/engine/content"
	"github.com/loresmith/loresmith/engine/semantic"
	"github.com/loresmith/loresmith/pkg/config"
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
		logger.Error("backfill failed", "err", err)
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

	total := 0
	for _, kind := range content.Kinds {
		n, err := store.MigrateLegacyIDs(ctx, kind)
		if err != nil {
			return fmt.Errorf("migrate %s: %w", kind, err)
		}
		logger.Info("backfill: collection done", "kind", kind, "migrated", n)
		total += n
	}
	logger.Info("backfill complete", "migrated", total)
	return nil
}
