package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loresmith/loresmith/engine/content"
	"github.com/loresmith/loresmith/engine/rag"
	"github.com/loresmith/loresmith/engine/semantic"
)

var (
	searchQuery     string
	searchType      string
	searchLimit     int
	searchThreshold float32
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search indexed content by semantic similarity",
	RunE:  runSearch,
}

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Assemble an attributed retrieval context for a query",
	RunE:  runContext,
}

func init() {
	for _, cmd := range []*cobra.Command{searchCmd, contextCmd} {
		cmd.Flags().StringVarP(&searchQuery, "query", "q", "", "query text (required)")
		cmd.Flags().StringVarP(&searchType, "type", "t", "", "restrict to one content type")
		cmd.Flags().IntVarP(&searchLimit, "limit", "l", 0, "max results")
		cmd.Flags().Float32Var(&searchThreshold, "threshold", 0, "minimum similarity score")
		cmd.MarkFlagRequired("query")
	}
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(contextCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	kind := content.Kind(searchType)
	if searchType != "" && !kind.Valid() {
		return fmt.Errorf("unknown content type %q", searchType)
	}

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

	ctx := cmd.Context()
	vector, err := provider.Embed(ctx, searchQuery)
	if err != nil {
		return fmt.Errorf("embed query: %w", err)
	}

	hits, err := store.Search(ctx, vector, semantic.SearchOptions{
		Kind:           kind,
		Limit:          searchLimit,
		ScoreThreshold: searchThreshold,
	})
	if err != nil {
		return err
	}

	if len(hits) == 0 {
		fmt.Println("no results")
		return nil
	}
	for i, h := range hits {
		fmt.Printf("%2d. [%s] %s (score %.3f)\n", i+1, h.Payload.ContentType, h.Payload.ContentID, h.Score)
		fmt.Printf("    %s\n", firstLine(h.Payload.SourceText))
	}
	return nil
}

func runContext(cmd *cobra.Command, args []string) error {
	kind := content.Kind(searchType)
	if searchType != "" && !kind.Valid() {
		return fmt.Errorf("unknown content type %q", searchType)
	}

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

	assembler := rag.New(provider, store, logger)
	rc, err := assembler.BuildContext(cmd.Context(), searchQuery, rag.Options{
		Kind:           kind,
		Limit:          searchLimit,
		ScoreThreshold: searchThreshold,
	})
	if err != nil {
		return err
	}
	if !rc.HasContext {
		fmt.Println("no matching context")
		return nil
	}
	fmt.Println(rc.ContextText)
	return nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
