// Package main implements the loresmith CLI for operating the semantic
// index: provisioning collections, ingesting content files, searching, and
// inspecting stats.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/loresmith/loresmith/engine/semantic"
	"github.com/loresmith/loresmith/pkg/config"
	"github.com/loresmith/loresmith/pkg/embedding"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "loresmith",
	Short: "Semantic index for game design content",
	Long: `loresmith indexes game design content (lore, quests, NPCs, items,
characters, asset manifests) into a vector store and retrieves it by
semantic similarity.

Example usage:
  loresmith init                          # Provision collections
  loresmith ingest 'content/**/*.json'    # Index content files
  loresmith search -q "forest spirits"    # Search across all kinds`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		level := slog.LevelInfo
		if cfg.Logging.Level == "debug" {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "loresmith.yaml", "config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore dials the vector store with the configured options.
func openStore() (*semantic.Store, error) {
	store, err := semantic.New(cfg.Qdrant.Addr, semantic.Options{
		Prefix:     cfg.Qdrant.Prefix,
		Dimensions: cfg.Embedding.Dimensions,
		Model:      cfg.Embedding.Model,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w", err)
	}
	return store, nil
}

// newProvider builds the embedding provider, optionally cache-backed.
func newProvider() (embedding.Provider, func(), error) {
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
		return nil, nil, err
	}
	return embedding.NewCachedProvider(client, cache), func() { cache.Close() }, nil
}
