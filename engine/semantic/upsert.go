package semantic

import (
	"context"
	"errors"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"

	"github.com/loresmith/loresmith/engine/content"
)

// ErrDimensionMismatch is returned when a vector's length differs from the
// collection's configured size. Checked locally so the failure names the
// content id instead of surfacing as an opaque store rejection.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

func (s *Store) checkDims(contentID string, vector []float32) error {
	if len(vector) != s.opts.Dimensions {
		return fmt.Errorf("semantic: %s: got %d dims, collection has %d: %w",
			contentID, len(vector), s.opts.Dimensions, ErrDimensionMismatch)
	}
	return nil
}

// Upsert writes a single point for the given content, waiting for store
// acknowledgment before returning. Repeated upserts of the same content id
// update the same point.
func (s *Store) Upsert(ctx context.Context, kind content.Kind, contentID string, vector []float32, sourceText string, metadata map[string]any) error {
	if err := s.checkDims(contentID, vector); err != nil {
		return err
	}
	now := s.now().UTC()
	payload := Payload{
		ContentID:           contentID,
		ContentType:         kind,
		EmbeddingModel:      s.opts.Model,
		EmbeddingDimensions: s.opts.Dimensions,
		SourceText:          sourceText,
		Metadata:            metadata,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	wait := true
	_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.CollectionFor(kind),
		Wait:           &wait,
		Points: []*pb.PointStruct{{
			Id: numericID(PointID(contentID)),
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: vector}},
			},
			Payload: payloadValues(payload),
		}},
	})
	if err != nil {
		return fmt.Errorf("semantic: upsert %s/%s: %w", kind, contentID, err)
	}
	return nil
}

// UpsertBatch writes a kind-uniform batch of points in a single round trip.
// All payloads share one timestamp; point-level application is the store's
// responsibility.
func (s *Store) UpsertBatch(ctx context.Context, kind content.Kind, items []BatchItem) error {
	if len(items) == 0 {
		return nil
	}
	for _, it := range items {
		if err := s.checkDims(it.ContentID, it.Embedding); err != nil {
			return err
		}
	}

	now := s.now().UTC()
	points := make([]*pb.PointStruct, len(items))
	for i, it := range items {
		payload := Payload{
			ContentID:           it.ContentID,
			ContentType:         kind,
			EmbeddingModel:      s.opts.Model,
			EmbeddingDimensions: s.opts.Dimensions,
			SourceText:          it.SourceText,
			Metadata:            it.Metadata,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		points[i] = &pb.PointStruct{
			Id: numericID(PointID(it.ContentID)),
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: it.Embedding}},
			},
			Payload: payloadValues(payload),
		}
	}

	wait := true
	_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.CollectionFor(kind),
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("semantic: upsert batch of %d into %s: %w", len(items), kind, err)
	}
	return nil
}

// Delete removes the point for a content id from the kind's collection.
func (s *Store) Delete(ctx context.Context, kind content.Kind, contentID string) error {
	wait := true
	_, err := s.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: s.CollectionFor(kind),
		Wait:           &wait,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{Ids: []*pb.PointId{numericID(PointID(contentID))}},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("semantic: delete %s/%s: %w", kind, contentID, err)
	}
	return nil
}
