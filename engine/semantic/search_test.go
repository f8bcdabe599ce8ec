package semantic

import (
	"context"
	"errors"
	"strings"
	"testing"

	pb "github.com/qdrant/go-client/qdrant"

	"github.com/loresmith/loresmith/engine/content"
)

func scoredPoint(id uint64, score float32, contentID, contentType string) *pb.ScoredPoint {
	return &pb.ScoredPoint{
		Id:    numericID(id),
		Score: score,
		Payload: map[string]*pb.Value{
			keyContentID:  toValue(contentID),
			keyContentTyp: toValue(contentType),
			keySourceText: toValue("text for " + contentID),
		},
	}
}

func TestSearch_SingleKind(t *testing.T) {
	points := &mockPoints{
		searchFn: func(req *pb.SearchPoints) (*pb.SearchResponse, error) {
			if req.GetCollectionName() != "loresmith_quest" {
				t.Errorf("searched %q, want loresmith_quest", req.GetCollectionName())
			}
			if req.GetLimit() != 10 {
				t.Errorf("limit = %d, want default 10", req.GetLimit())
			}
			if req.GetScoreThreshold() != 0.5 {
				t.Errorf("threshold = %v, want 0.5", req.GetScoreThreshold())
			}
			return &pb.SearchResponse{Result: []*pb.ScoredPoint{
				scoredPoint(1, 0.9, "q1", "quest"),
			}}, nil
		},
	}
	s := newTestStore(points, &mockCollections{})

	hits, err := s.Search(context.Background(), []float32{1, 0, 0, 0}, SearchOptions{
		Kind:           content.KindQuest,
		ScoreThreshold: 0.5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 || hits[0].Payload.ContentID != "q1" {
		t.Fatalf("hits = %+v", hits)
	}
}

func TestSearch_SingleKindErrorPropagates(t *testing.T) {
	points := &mockPoints{
		searchFn: func(*pb.SearchPoints) (*pb.SearchResponse, error) {
			return nil, errors.New("rpc fail")
		},
	}
	s := newTestStore(points, &mockCollections{})
	if _, err := s.Search(context.Background(), []float32{1, 0, 0, 0}, SearchOptions{Kind: content.KindLore}); err == nil {
		t.Fatal("targeted search must surface store errors")
	}
}

func TestSearch_FanOutMergesByScore(t *testing.T) {
	points := &mockPoints{
		searchFn: func(req *pb.SearchPoints) (*pb.SearchResponse, error) {
			switch req.GetCollectionName() {
			case "loresmith_lore":
				return &pb.SearchResponse{Result: []*pb.ScoredPoint{
					scoredPoint(1, 0.81, "l1", "lore"),
				}}, nil
			case "loresmith_quest":
				return &pb.SearchResponse{Result: []*pb.ScoredPoint{
					scoredPoint(2, 0.92, "q1", "quest"),
					scoredPoint(3, 0.40, "q2", "quest"),
				}}, nil
			case "loresmith_npc":
				return &pb.SearchResponse{Result: []*pb.ScoredPoint{
					scoredPoint(4, 0.75, "n1", "npc"),
				}}, nil
			default:
				return &pb.SearchResponse{}, nil
			}
		},
	}
	s := newTestStore(points, &mockCollections{})

	hits, err := s.Search(context.Background(), []float32{1, 0, 0, 0}, SearchOptions{Limit: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("got %d hits, want 3 (truncated)", len(hits))
	}
	wantOrder := []string{"q1", "l1", "n1"}
	for i, want := range wantOrder {
		if hits[i].Payload.ContentID != want {
			t.Errorf("hit %d = %s, want %s", i, hits[i].Payload.ContentID, want)
		}
	}
}

func TestSearch_FanOutDegradesFailedCollections(t *testing.T) {
	points := &mockPoints{
		searchFn: func(req *pb.SearchPoints) (*pb.SearchResponse, error) {
			if req.GetCollectionName() == "loresmith_manifest" {
				return nil, errors.New("collection not found")
			}
			if req.GetCollectionName() == "loresmith_lore" {
				return &pb.SearchResponse{Result: []*pb.ScoredPoint{
					scoredPoint(1, 0.6, "l1", "lore"),
				}}, nil
			}
			return &pb.SearchResponse{}, nil
		},
	}
	s := newTestStore(points, &mockCollections{})

	hits, err := s.Search(context.Background(), []float32{1, 0, 0, 0}, SearchOptions{})
	if err != nil {
		t.Fatalf("fan-out must not fail on a single bad collection: %v", err)
	}
	if len(hits) != 1 || hits[0].Payload.ContentID != "l1" {
		t.Fatalf("hits = %+v", hits)
	}
}

func TestSearch_TieOrderIsStable(t *testing.T) {
	// Equal scores keep the collection iteration order: lore before quest.
	points := &mockPoints{
		searchFn: func(req *pb.SearchPoints) (*pb.SearchResponse, error) {
			switch req.GetCollectionName() {
			case "loresmith_lore":
				return &pb.SearchResponse{Result: []*pb.ScoredPoint{
					scoredPoint(1, 0.5, "l1", "lore"),
				}}, nil
			case "loresmith_quest":
				return &pb.SearchResponse{Result: []*pb.ScoredPoint{
					scoredPoint(2, 0.5, "q1", "quest"),
				}}, nil
			default:
				return &pb.SearchResponse{}, nil
			}
		},
	}
	s := newTestStore(points, &mockCollections{})

	hits, err := s.Search(context.Background(), []float32{1, 0, 0, 0}, SearchOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 || hits[0].Payload.ContentID != "l1" || hits[1].Payload.ContentID != "q1" {
		t.Fatalf("tie order not stable: %+v", hits)
	}
}

func TestSearch_FilterBecomesMustConditions(t *testing.T) {
	points := &mockPoints{
		searchFn: func(req *pb.SearchPoints) (*pb.SearchResponse, error) {
			must := req.GetFilter().GetMust()
			if len(must) != 1 {
				t.Fatalf("got %d conditions, want 1", len(must))
			}
			field := must[0].GetField()
			if field.GetKey() != "region" || field.GetMatch().GetKeyword() != "north" {
				t.Errorf("condition = %v", field)
			}
			return &pb.SearchResponse{}, nil
		},
	}
	s := newTestStore(points, &mockCollections{})
	if _, err := s.Search(context.Background(), []float32{1, 0, 0, 0}, SearchOptions{
		Kind:   content.KindLore,
		Filter: map[string]string{"region": "north"},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSearch_ZeroThresholdOmitted(t *testing.T) {
	points := &mockPoints{
		searchFn: func(req *pb.SearchPoints) (*pb.SearchResponse, error) {
			if req.ScoreThreshold != nil {
				t.Error("zero threshold must not be sent to the store")
			}
			return &pb.SearchResponse{}, nil
		},
	}
	s := newTestStore(points, &mockCollections{})
	if _, err := s.Search(context.Background(), []float32{1, 0, 0, 0}, SearchOptions{Kind: content.KindLore}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSearch_ErrorNamesCollection(t *testing.T) {
	points := &mockPoints{
		searchFn: func(*pb.SearchPoints) (*pb.SearchResponse, error) {
			return nil, errors.New("rpc fail")
		},
	}
	s := newTestStore(points, &mockCollections{})
	_, err := s.Search(context.Background(), []float32{1, 0, 0, 0}, SearchOptions{Kind: content.KindItem})
	if err == nil || !strings.Contains(err.Error(), "loresmith_item") {
		t.Fatalf("error should name the collection: %v", err)
	}
}
