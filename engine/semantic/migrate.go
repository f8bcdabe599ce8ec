package semantic

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"

	"github.com/loresmith/loresmith/engine/content"
)

const scrollPageSize = 256

// MigrateLegacyIDs rewrites points addressed by the legacy 32-bit hash to
// their 64-bit keys. It scrolls the kind's collection page by page, and for
// every point whose stored id matches the legacy hash of its content id but
// not the current one, re-upserts the point under the new id and deletes the
// old one. Returns the number of points migrated.
func (s *Store) MigrateLegacyIDs(ctx context.Context, kind content.Kind) (int, error) {
	name := s.CollectionFor(kind)
	migrated := 0

	var offset *pb.PointId
	for {
		limit := uint32(scrollPageSize)
		resp, err := s.points.Scroll(ctx, &pb.ScrollPoints{
			CollectionName: name,
			Limit:          &limit,
			Offset:         offset,
			WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
			WithVectors:    &pb.WithVectorsSelector{SelectorOptions: &pb.WithVectorsSelector_Enable{Enable: true}},
		})
		if err != nil {
			return migrated, fmt.Errorf("semantic: scroll %s: %w", name, err)
		}

		for _, point := range resp.GetResult() {
			payload := payloadFrom(point.GetPayload())
			if payload.ContentID == "" {
				continue
			}
			oldID := point.GetId().GetNum()
			newID := PointID(payload.ContentID)
			if oldID != LegacyPointID(payload.ContentID) || oldID == newID {
				continue
			}

			vector := point.GetVectors().GetVector().GetData()
			wait := true
			_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
				CollectionName: name,
				Wait:           &wait,
				Points: []*pb.PointStruct{{
					Id: numericID(newID),
					Vectors: &pb.Vectors{
						VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: vector}},
					},
					Payload: point.GetPayload(),
				}},
			})
			if err != nil {
				return migrated, fmt.Errorf("semantic: migrate %s/%s: %w", name, payload.ContentID, err)
			}

			_, err = s.points.Delete(ctx, &pb.DeletePoints{
				CollectionName: name,
				Wait:           &wait,
				Points: &pb.PointsSelector{
					PointsSelectorOneOf: &pb.PointsSelector_Points{
						Points: &pb.PointsIdsList{Ids: []*pb.PointId{numericID(oldID)}},
					},
				},
			})
			if err != nil {
				return migrated, fmt.Errorf("semantic: drop legacy point %s/%d: %w", name, oldID, err)
			}
			migrated++
		}

		offset = resp.GetNextPageOffset()
		if offset == nil || len(resp.GetResult()) == 0 {
			break
		}
	}
	return migrated, nil
}
