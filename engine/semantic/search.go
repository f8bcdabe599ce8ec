package semantic

import (
	"context"
	"fmt"
	"sort"

	pb "github.com/qdrant/go-client/qdrant"

	"github.com/loresmith/loresmith/engine/content"
	"github.com/loresmith/loresmith/pkg/fn"
)

// DefaultSearchLimit applies when SearchOptions.Limit is unset.
const DefaultSearchLimit = 10

// Search runs a similarity query. With a Kind set it queries exactly that
// collection and propagates errors. Without one it queries every collection
// concurrently, degrades failed collections to empty results, merges by
// descending score, and truncates to the limit. Scores are comparable across
// collections only because all share one distance metric and model.
func (s *Store) Search(ctx context.Context, vector []float32, opts SearchOptions) ([]SearchHit, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultSearchLimit
	}

	if opts.Kind != "" {
		return s.searchCollection(ctx, s.CollectionFor(opts.Kind), vector, opts)
	}

	queries := make([]func() []SearchHit, len(content.Kinds))
	for i, kind := range content.Kinds {
		name := s.CollectionFor(kind)
		queries[i] = func() []SearchHit {
			hits, err := s.searchCollection(ctx, name, vector, opts)
			if err != nil {
				// Partial results beat total failure: a missing or
				// unreachable collection contributes nothing.
				s.logger.Warn("semantic: fan-out query failed", "collection", name, "err", err)
				return nil
			}
			return hits
		}
	}
	perKind := fn.FanOut(queries...)

	var merged []SearchHit
	for _, hits := range perKind {
		merged = append(merged, hits...)
	}
	// Stable sort keeps the original relative order of equal scores.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	if len(merged) > opts.Limit {
		merged = merged[:opts.Limit]
	}
	return merged, nil
}

func (s *Store) searchCollection(ctx context.Context, collection string, vector []float32, opts SearchOptions) ([]SearchHit, error) {
	req := &pb.SearchPoints{
		CollectionName: collection,
		Vector:         vector,
		Limit:          uint64(opts.Limit),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	}
	if opts.ScoreThreshold > 0 {
		threshold := opts.ScoreThreshold
		req.ScoreThreshold = &threshold
	}
	if len(opts.Filter) > 0 {
		must := make([]*pb.Condition, 0, len(opts.Filter))
		for k, v := range opts.Filter {
			must = append(must, fieldMatch(k, v))
		}
		req.Filter = &pb.Filter{Must: must}
	}

	resp, err := s.points.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("semantic: search %s: %w", collection, err)
	}

	hits := make([]SearchHit, len(resp.GetResult()))
	for i, r := range resp.GetResult() {
		hits[i] = SearchHit{
			ID:      r.GetId().GetNum(),
			Score:   r.GetScore(),
			Payload: payloadFrom(r.GetPayload()),
		}
	}
	return hits, nil
}
