// Package rag assembles retrieval context for generation. It embeds a query,
// searches the vector store, and formats the hits into an attributed context
// block a prompt can consume directly.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/loresmith/loresmith/engine/content"
	"github.com/loresmith/loresmith/engine/semantic"
	"github.com/loresmith/loresmith/pkg/embedding"
)

// Searcher abstracts vector search over the semantic store.
type Searcher interface {
	Search(ctx context.Context, vector []float32, opts semantic.SearchOptions) ([]semantic.SearchHit, error)
}

// Options configures a context assembly run.
type Options struct {
	// Kind restricts retrieval to one content kind. Empty searches all kinds.
	Kind content.Kind
	// Limit caps the number of retrieved blocks. Defaults to 5.
	Limit int
	// ScoreThreshold drops hits below this similarity. Defaults to 0.7.
	ScoreThreshold float32
	// Filter adds exact-match payload conditions.
	Filter map[string]string
}

// DefaultOptions returns the retrieval defaults.
func DefaultOptions() Options {
	return Options{Limit: 5, ScoreThreshold: 0.7}
}

// Source attributes one context block to its stored record.
type Source struct {
	Type       content.Kind `json:"type"`
	ID         string       `json:"id"`
	Similarity float32      `json:"similarity"`
}

// Context is the assembled retrieval result.
type Context struct {
	// ContextText holds the formatted blocks, or "" when nothing matched.
	ContextText string   `json:"context_text"`
	Sources     []Source `json:"sources"`
	HasContext  bool     `json:"has_context"`
}

// Assembler builds retrieval context from a query string.
type Assembler struct {
	provider embedding.Provider
	searcher Searcher
	logger   *slog.Logger
}

// New creates an Assembler.
func New(provider embedding.Provider, searcher Searcher, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{provider: provider, searcher: searcher, logger: logger}
}

// BuildContext embeds the query once, retrieves matching content, and formats
// it. Zero hits yield an empty Context with HasContext false, not an error;
// callers fall back to generation without retrieval.
func (a *Assembler) BuildContext(ctx context.Context, query string, opts Options) (Context, error) {
	if strings.TrimSpace(query) == "" {
		return Context{}, fmt.Errorf("rag: empty query")
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultOptions().Limit
	}
	if opts.ScoreThreshold <= 0 {
		opts.ScoreThreshold = DefaultOptions().ScoreThreshold
	}

	vector, err := a.provider.Embed(ctx, query)
	if err != nil {
		return Context{}, fmt.Errorf("rag: embed query: %w", err)
	}

	hits, err := a.searcher.Search(ctx, vector, semantic.SearchOptions{
		Kind:           opts.Kind,
		Limit:          opts.Limit,
		ScoreThreshold: opts.ScoreThreshold,
		Filter:         opts.Filter,
	})
	if err != nil {
		return Context{}, fmt.Errorf("rag: search: %w", err)
	}

	if len(hits) == 0 {
		a.logger.Info("rag: no context found", "kind", opts.Kind)
		return Context{ContextText: "", Sources: []Source{}, HasContext: false}, nil
	}

	blocks := make([]string, len(hits))
	sources := make([]Source, len(hits))
	for i, hit := range hits {
		blocks[i] = formatBlock(i+1, hit)
		sources[i] = Source{
			Type:       hit.Payload.ContentType,
			ID:         hit.Payload.ContentID,
			Similarity: hit.Score,
		}
	}

	a.logger.Info("rag: context assembled", "kind", opts.Kind, "blocks", len(blocks))
	return Context{
		ContextText: strings.Join(blocks, "\n\n"),
		Sources:     sources,
		HasContext:  true,
	}, nil
}

// formatBlock renders one hit as an attributed block. Rank is 1-based and
// relevance is the similarity as a rounded percentage.
func formatBlock(rank int, hit semantic.SearchHit) string {
	pct := int(math.Round(float64(hit.Score) * 100))
	return fmt.Sprintf("[%s %d] (%d%% relevant)\n%s",
		strings.ToUpper(string(hit.Payload.ContentType)), rank, pct, hit.Payload.SourceText)
}
