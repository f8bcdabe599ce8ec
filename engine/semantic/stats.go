package semantic

import (
	"context"

	pb "github.com/qdrant/go-client/qdrant"

	"github.com/loresmith/loresmith/engine/content"
)

// Stats fetches point count, vector size, and status for every collection.
// Failures are isolated per collection: an unreachable collection reports an
// error string instead of aborting the whole call.
func (s *Store) Stats(ctx context.Context) map[content.Kind]CollectionStats {
	out := make(map[content.Kind]CollectionStats, len(content.Kinds))
	for _, kind := range content.Kinds {
		name := s.CollectionFor(kind)
		resp, err := s.collections.Get(ctx, &pb.GetCollectionInfoRequest{CollectionName: name})
		if err != nil {
			out[kind] = CollectionStats{Name: name, Error: "not found or inaccessible"}
			continue
		}
		info := resp.GetResult()
		out[kind] = CollectionStats{
			Name:       name,
			Points:     info.GetPointsCount(),
			VectorSize: info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize(),
			Status:     info.GetStatus().String(),
		}
	}
	return out
}

// HealthCheck verifies store connectivity by listing collections. Never
// returns an error; false means the store is unreachable.
func (s *Store) HealthCheck(ctx context.Context) bool {
	_, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	return err == nil
}
