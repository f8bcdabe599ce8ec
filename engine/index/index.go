// Package index implements the upsert pipeline: content records are
// validated, flattened to canonical text, embedded, and written to the
// vector store as staged fn pipelines.
package index

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/loresmith/loresmith/engine/content"
	"github.com/loresmith/loresmith/engine/semantic"
	"github.com/loresmith/loresmith/pkg/embedding"
	"github.com/loresmith/loresmith/pkg/fn"
	"github.com/loresmith/loresmith/pkg/resilience"
)

// EmbedBatchSize is the max texts per embedding call. Chunks are processed
// sequentially to bound memory and avoid provider rate-limit bursts.
const EmbedBatchSize = 100

// VectorWriter is the subset of the semantic store the pipeline writes to.
type VectorWriter interface {
	Upsert(ctx context.Context, kind content.Kind, contentID string, vector []float32, sourceText string, metadata map[string]any) error
	UpsertBatch(ctx context.Context, kind content.Kind, items []semantic.BatchItem) error
}

// Deps holds the external dependencies for the pipeline.
type Deps struct {
	Provider embedding.Provider
	Store    VectorWriter
	Logger   *slog.Logger
}

// Service runs the upsert pipeline.
type Service struct {
	provider embedding.Provider
	store    VectorWriter
	logger   *slog.Logger
	breaker  *resilience.Breaker
	retry    fn.RetryOpts
}

// New creates a pipeline Service.
func New(deps Deps) *Service {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		provider: deps.Provider,
		store:    deps.Store,
		logger:   log,
		breaker:  resilience.NewBreaker(resilience.DefaultBreakerOpts),
		retry:    fn.DefaultRetry,
	}
}

type extracted struct {
	kind content.Kind
	id   string
	text string
	meta map[string]any
}

type embedded struct {
	extracted
	vector []float32
}

// IndexRecord embeds one content record and upserts its point, waiting for
// store acknowledgment.
func (s *Service) IndexRecord(ctx context.Context, rec content.Record, metadata map[string]any) error {
	validate := fn.TracedStage("index.validate", func(_ context.Context, rec content.Record) fn.Result[content.Record] {
		if err := content.ValidateRecord(rec); err != nil {
			return fn.Err[content.Record](err)
		}
		return fn.Ok(rec)
	})

	extract := fn.MapStage(func(rec content.Record) extracted {
		return extracted{
			kind: rec.Kind(),
			id:   rec.ContentID(),
			text: rec.CanonicalText(),
			meta: metadata,
		}
	})

	embed := fn.RetryStage(s.retry, resilience.BreakerStage(s.breaker,
		fn.TracedStage("index.embed", func(ctx context.Context, e extracted) fn.Result[embedded] {
			vector, err := s.provider.Embed(ctx, e.text)
			if err != nil {
				return fn.Errf[embedded]("index: embed %s/%s: %w", e.kind, e.id, err)
			}
			return fn.Ok(embedded{extracted: e, vector: vector})
		})))

	store := fn.TracedStage("index.store", func(ctx context.Context, e embedded) fn.Result[string] {
		if err := s.store.Upsert(ctx, e.kind, e.id, e.vector, e.text, e.meta); err != nil {
			return fn.Err[string](err)
		}
		return fn.Ok(e.id)
	})

	pipeline := fn.Then(fn.Then(fn.Then(validate, extract), embed), store)
	id, err := pipeline(ctx, rec).Unwrap()
	if err != nil {
		return err
	}
	s.logger.Info("index: record stored", "kind", rec.Kind(), "content_id", id)
	return nil
}

// BatchInput is one pre-extracted entry for a batch index.
type BatchInput struct {
	ContentID string         `json:"content_id"`
	Text      string         `json:"text"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// BatchResult reports a batch index outcome. An all-invalid batch is a
// success with zero count, not an error.
type BatchResult struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
	Skipped int  `json:"skipped"`
}

// IndexBatch embeds and upserts a kind-uniform batch. Empty and
// whitespace-only texts are filtered out before any provider call; skips are
// logged. Embedding is chunked at EmbedBatchSize and the chunks run
// sequentially; the store write is a single round trip.
func (s *Service) IndexBatch(ctx context.Context, kind content.Kind, inputs []BatchInput) (BatchResult, error) {
	if !kind.Valid() {
		return BatchResult{}, content.NewValidationError("kind", string(kind), content.ErrUnknownKind)
	}

	valid := fn.Filter(inputs, func(in BatchInput) bool {
		return content.ValidateText(in.Text) == nil && in.ContentID != ""
	})
	skipped := len(inputs) - len(valid)
	if skipped > 0 {
		s.logger.Info("index: skipped invalid batch items", "kind", kind, "skipped", skipped)
	}
	if len(valid) == 0 {
		return BatchResult{Success: true, Count: 0, Skipped: skipped}, nil
	}

	items := make([]semantic.BatchItem, 0, len(valid))
	for _, chunk := range fn.Chunk(valid, EmbedBatchSize) {
		texts := fn.Map(chunk, func(in BatchInput) string { return in.Text })
		vectors, err := s.provider.EmbedBatch(ctx, texts)
		if err != nil {
			return BatchResult{Skipped: skipped}, fmt.Errorf("index: embed batch of %d (%s): %w", len(texts), kind, err)
		}
		for i, in := range chunk {
			items = append(items, semantic.BatchItem{
				ContentID:  in.ContentID,
				Embedding:  vectors[i],
				SourceText: in.Text,
				Metadata:   in.Metadata,
			})
		}
	}

	if err := s.store.UpsertBatch(ctx, kind, items); err != nil {
		return BatchResult{Skipped: skipped}, err
	}
	s.logger.Info("index: batch stored", "kind", kind, "count", len(items), "skipped", skipped)
	return BatchResult{Success: true, Count: len(items), Skipped: skipped}, nil
}
