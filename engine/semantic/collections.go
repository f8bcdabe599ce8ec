package semantic

import (
	"context"
	"fmt"
	"strings"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/loresmith/loresmith/engine/content"
)

// ANN index parameters shared by every collection.
const (
	hnswM           = 16
	hnswEfConstruct = 100
)

// payloadIndexes lists the payload fields indexed at collection creation,
// with their index types.
var payloadIndexes = []struct {
	field string
	typ   pb.FieldType
}{
	{keyContentID, pb.FieldType_FieldTypeKeyword},
	{keyContentTyp, pb.FieldType_FieldTypeKeyword},
	{keyModel, pb.FieldType_FieldTypeKeyword},
	{keyCreatedAt, pb.FieldType_FieldTypeInteger},
	{keyUpdatedAt, pb.FieldType_FieldTypeInteger},
}

// EnsureCollections creates one collection per content kind if absent, with
// the configured vector size, cosine distance, and payload indexes. Safe to
// call on every process start: existing collections are left untouched and
// "already exists" index errors are suppressed.
func (s *Store) EnsureCollections(ctx context.Context) error {
	list, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("semantic: list collections: %w", err)
	}
	existing := make(map[string]bool, len(list.GetCollections()))
	for _, c := range list.GetCollections() {
		existing[c.GetName()] = true
	}

	for _, kind := range content.Kinds {
		name := s.CollectionFor(kind)
		if existing[name] {
			continue
		}
		if err := s.createCollection(ctx, name); err != nil {
			return err
		}
		s.logger.Info("semantic: collection created", "collection", name, "dims", s.opts.Dimensions)
	}
	return nil
}

func (s *Store) createCollection(ctx context.Context, name string) error {
	var (
		size        = uint64(s.opts.Dimensions)
		m           = uint64(hnswM)
		efConstruct = uint64(hnswEfConstruct)
	)
	_, err := s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: name,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     size,
					Distance: pb.Distance_Cosine,
				},
			},
		},
		HnswConfig: &pb.HnswConfigDiff{
			M:           &m,
			EfConstruct: &efConstruct,
		},
	})
	if err != nil && !alreadyExists(err) {
		return fmt.Errorf("semantic: create collection %s: %w", name, err)
	}

	for _, idx := range payloadIndexes {
		ft := idx.typ
		_, err := s.points.CreateFieldIndex(ctx, &pb.CreateFieldIndexCollection{
			CollectionName: name,
			FieldName:      idx.field,
			FieldType:      &ft,
		})
		if err != nil && !alreadyExists(err) {
			return fmt.Errorf("semantic: index %s.%s: %w", name, idx.field, err)
		}
	}
	return nil
}

// alreadyExists reports whether err is an "already exists" condition. Only
// these are suppressed during provisioning; anything else propagates so
// schema failures stay visible.
func alreadyExists(err error) bool {
	if status.Code(err) == codes.AlreadyExists {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "already exists")
}

// DropCollection deletes the collection for a kind. Used by tests and the
// admin CLI; never called by the serving path.
func (s *Store) DropCollection(ctx context.Context, kind content.Kind) error {
	name := s.CollectionFor(kind)
	_, err := s.collections.Delete(ctx, &pb.DeleteCollection{CollectionName: name})
	if err != nil {
		return fmt.Errorf("semantic: delete collection %s: %w", name, err)
	}
	return nil
}
