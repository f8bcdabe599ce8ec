package semantic

import (
	"context"
	"testing"

	pb "github.com/qdrant/go-client/qdrant"

	"github.com/loresmith/loresmith/engine/content"
)

func retrievedPoint(id uint64, contentID string, vector []float32) *pb.RetrievedPoint {
	return &pb.RetrievedPoint{
		Id: numericID(id),
		Payload: map[string]*pb.Value{
			keyContentID:  toValue(contentID),
			keyContentTyp: toValue("lore"),
			keySourceText: toValue("text"),
		},
		Vectors: &pb.VectorsOutput{
			VectorsOptions: &pb.VectorsOutput_Vector{Vector: &pb.VectorOutput{Data: vector}},
		},
	}
}

func TestMigrateLegacyIDs(t *testing.T) {
	legacy := retrievedPoint(LegacyPointID("lore-1"), "lore-1", []float32{1, 2, 3, 4})
	current := retrievedPoint(PointID("lore-2"), "lore-2", []float32{4, 3, 2, 1})

	points := &mockPoints{
		scrollFn: func(req *pb.ScrollPoints) (*pb.ScrollResponse, error) {
			if req.GetOffset() != nil {
				return &pb.ScrollResponse{}, nil
			}
			return &pb.ScrollResponse{
				Result: []*pb.RetrievedPoint{legacy, current},
			}, nil
		},
	}
	s := newTestStore(points, &mockCollections{})

	migrated, err := s.MigrateLegacyIDs(context.Background(), content.KindLore)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if migrated != 1 {
		t.Fatalf("migrated %d points, want 1", migrated)
	}

	// The legacy point is re-upserted under its 64-bit id and then removed.
	if len(points.upsertReqs) != 1 {
		t.Fatalf("got %d upserts, want 1", len(points.upsertReqs))
	}
	newID := points.upsertReqs[0].GetPoints()[0].GetId().GetNum()
	if newID != PointID("lore-1") {
		t.Errorf("re-upserted under id %d, want PointID(lore-1)", newID)
	}
	if len(points.deleteReqs) != 1 {
		t.Fatalf("got %d deletes, want 1", len(points.deleteReqs))
	}
	oldID := points.deleteReqs[0].GetPoints().GetPoints().GetIds()[0].GetNum()
	if oldID != LegacyPointID("lore-1") {
		t.Errorf("deleted id %d, want legacy id", oldID)
	}
}

func TestMigrateLegacyIDs_NothingToDo(t *testing.T) {
	points := &mockPoints{
		scrollFn: func(*pb.ScrollPoints) (*pb.ScrollResponse, error) {
			return &pb.ScrollResponse{Result: []*pb.RetrievedPoint{
				retrievedPoint(PointID("lore-9"), "lore-9", []float32{1, 2, 3, 4}),
			}}, nil
		},
	}
	s := newTestStore(points, &mockCollections{})

	migrated, err := s.MigrateLegacyIDs(context.Background(), content.KindLore)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if migrated != 0 || len(points.upsertReqs) != 0 || len(points.deleteReqs) != 0 {
		t.Fatalf("migrated=%d upserts=%d deletes=%d, want all zero",
			migrated, len(points.upsertReqs), len(points.deleteReqs))
	}
}
