package semantic

import (
	"time"

	"github.com/loresmith/loresmith/engine/content"
)

// Payload is the metadata stored alongside every vector point.
type Payload struct {
	ContentID           string         `json:"content_id"`
	ContentType         content.Kind   `json:"content_type"`
	EmbeddingModel      string         `json:"embedding_model"`
	EmbeddingDimensions int            `json:"embedding_dimensions"`
	SourceText          string         `json:"source_text"`
	Metadata            map[string]any `json:"metadata,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// SearchHit is a single similarity-search result.
type SearchHit struct {
	ID      uint64  `json:"id"`
	Score   float32 `json:"score"`
	Payload Payload `json:"payload"`
}

// BatchItem is one entry in a kind-uniform batch upsert.
type BatchItem struct {
	ContentID  string         `json:"content_id"`
	Embedding  []float32      `json:"embedding"`
	SourceText string         `json:"source_text"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// SearchOptions configures a similarity search. A zero Kind fans the query
// out across every collection.
type SearchOptions struct {
	Kind           content.Kind
	Limit          int
	ScoreThreshold float32
	// Filter is an equality conjunction over payload fields; every condition
	// must match.
	Filter map[string]string
}

// CollectionStats describes one collection for the stats endpoint.
type CollectionStats struct {
	Name       string `json:"name"`
	Points     uint64 `json:"points"`
	VectorSize uint64 `json:"vector_size"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}
