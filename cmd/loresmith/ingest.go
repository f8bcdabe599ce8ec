package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/nats-io/nats.go"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/loresmith/loresmith/engine/content"
	"github.com/loresmith/loresmith/engine/index"
	"github.com/loresmith/loresmith/pkg/natsutil"
)

var ingestAsync bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [patterns...]",
	Short: "Index content files into the vector store",
	Long: `Ingest reads JSON content files matched by glob patterns and indexes
every record. Each file holds one document:

  {"type": "quest", "records": [{"id": "q1", "name": "...", ...}]}

Patterns support doublestar globs, e.g. 'content/**/*.json'.

With --async, records are published to NATS for the indexer service instead
of being embedded in-process.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestAsync, "async", false, "publish to NATS instead of indexing in-process")
	rootCmd.AddCommand(ingestCmd)
}

// contentFile is the on-disk ingest document format.
type contentFile struct {
	Type     content.Kind      `json:"type"`
	Records  []json.RawMessage `json:"records"`
	Metadata map[string]any    `json:"metadata,omitempty"`
}

func runIngest(cmd *cobra.Command, args []string) error {
	var paths []string
	for _, pattern := range args {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no files matched")
	}

	ctx := cmd.Context()

	var indexFn func(kind content.Kind, raw json.RawMessage, meta map[string]any) error
	if ingestAsync {
		nc, err := nats.Connect(cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		defer nc.Close()
		indexFn = func(kind content.Kind, raw json.RawMessage, meta map[string]any) error {
			return natsutil.Publish(ctx, nc, index.IndexSubject, index.Request{
				Kind: kind, Record: raw, Metadata: meta,
			})
		}
	} else {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		provider, closeCache, err := newProvider()
		if err != nil {
			return err
		}
		defer closeCache()
		svc := index.New(index.Deps{Provider: provider, Store: store, Logger: logger})
		indexFn = func(kind content.Kind, raw json.RawMessage, meta map[string]any) error {
			rec, err := content.DecodeRecord(kind, raw)
			if err != nil {
				return err
			}
			return svc.IndexRecord(ctx, rec, meta)
		}
	}

	bar := progressbar.Default(int64(len(paths)), "indexing")
	indexed, failed := 0, 0
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		var doc contentFile
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		for _, raw := range doc.Records {
			if err := indexFn(doc.Type, raw, doc.Metadata); err != nil {
				logger.Error("ingest: record failed", "file", path, "err", err)
				failed++
				continue
			}
			indexed++
		}
		bar.Add(1)
	}

	fmt.Printf("\nindexed %d records (%d failed) from %d files\n", indexed, failed, len(paths))
	if failed > 0 {
		return fmt.Errorf("%d records failed", failed)
	}
	return nil
}
