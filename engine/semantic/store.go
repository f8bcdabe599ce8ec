// Package semantic owns all Qdrant operations for the loresmith engine:
// per-kind collection management, deterministic point addressing, single and
// batched upserts, fan-out similarity search, and stats reporting.
package semantic

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/loresmith/loresmith/engine/content"
)

// pointsAPI is the subset of the Qdrant points service the store uses.
type pointsAPI interface {
	Upsert(ctx context.Context, in *pb.UpsertPoints, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error)
	Delete(ctx context.Context, in *pb.DeletePoints, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error)
	Search(ctx context.Context, in *pb.SearchPoints, opts ...grpc.CallOption) (*pb.SearchResponse, error)
	Scroll(ctx context.Context, in *pb.ScrollPoints, opts ...grpc.CallOption) (*pb.ScrollResponse, error)
	CreateFieldIndex(ctx context.Context, in *pb.CreateFieldIndexCollection, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error)
}

// collectionsAPI is the subset of the Qdrant collections service the store uses.
type collectionsAPI interface {
	List(ctx context.Context, in *pb.ListCollectionsRequest, opts ...grpc.CallOption) (*pb.ListCollectionsResponse, error)
	Create(ctx context.Context, in *pb.CreateCollection, opts ...grpc.CallOption) (*pb.CollectionOperationResponse, error)
	Get(ctx context.Context, in *pb.GetCollectionInfoRequest, opts ...grpc.CallOption) (*pb.GetCollectionInfoResponse, error)
	Delete(ctx context.Context, in *pb.DeleteCollection, opts ...grpc.CallOption) (*pb.CollectionOperationResponse, error)
}

// Options configures a Store.
type Options struct {
	// Prefix names collections as "<prefix>_<kind>". Defaults to "loresmith".
	Prefix string
	// Dimensions is the embedding vector length every collection is created
	// with. Mismatched vectors are rejected before reaching the store.
	Dimensions int
	// Model is the embedding model identifier written into every payload.
	Model string
}

// Store is the sole owner of all Qdrant operations.
type Store struct {
	conn        *grpc.ClientConn
	points      pointsAPI
	collections collectionsAPI
	opts        Options
	logger      *slog.Logger
	now         func() time.Time
}

// New creates a Store connected to Qdrant at the given gRPC address.
func New(addr string, opts Options, logger *slog.Logger) (*Store, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("semantic: dial qdrant %s: %w", addr, err)
	}
	s := NewWithClients(pb.NewPointsClient(conn), pb.NewCollectionsClient(conn), opts, logger)
	s.conn = conn
	return s, nil
}

// NewWithClients creates a Store from pre-built service clients. Used by
// tests to inject mocks.
func NewWithClients(points pointsAPI, collections collectionsAPI, opts Options, logger *slog.Logger) *Store {
	if opts.Prefix == "" {
		opts.Prefix = "loresmith"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		points:      points,
		collections: collections,
		opts:        opts,
		logger:      logger,
		now:         time.Now,
	}
}

// Close closes the underlying gRPC connection.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// CollectionFor returns the collection name for a content kind.
func (s *Store) CollectionFor(kind content.Kind) string {
	return s.opts.Prefix + "_" + string(kind)
}

// Model returns the configured embedding model identifier.
func (s *Store) Model() string { return s.opts.Model }

// Dimensions returns the configured vector length.
func (s *Store) Dimensions() int { return s.opts.Dimensions }

// toValue converts an arbitrary payload value to a Qdrant value.
func toValue(val any) *pb.Value {
	switch tv := val.(type) {
	case string:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: tv}}
	case int:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(tv)}}
	case int64:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: tv}}
	case float64:
		return &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: tv}}
	case bool:
		return &pb.Value{Kind: &pb.Value_BoolValue{BoolValue: tv}}
	default:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: fmt.Sprint(tv)}}
	}
}

// Reserved payload keys written and read by the store. Metadata keys never
// shadow them.
const (
	keyContentID  = "content_id"
	keyContentTyp = "content_type"
	keyModel      = "embedding_model"
	keyDims       = "embedding_dimensions"
	keySourceText = "source_text"
	keyCreatedAt  = "created_at"
	keyUpdatedAt  = "updated_at"
)

func reservedKey(k string) bool {
	switch k {
	case keyContentID, keyContentTyp, keyModel, keyDims, keySourceText, keyCreatedAt, keyUpdatedAt:
		return true
	}
	return false
}

// payloadValues flattens a Payload into the Qdrant payload map. Timestamps
// are stored as unix seconds so they can carry an integer index.
func payloadValues(p Payload) map[string]*pb.Value {
	out := map[string]*pb.Value{
		keyContentID:  toValue(p.ContentID),
		keyContentTyp: toValue(string(p.ContentType)),
		keyModel:      toValue(p.EmbeddingModel),
		keyDims:       toValue(p.EmbeddingDimensions),
		keySourceText: toValue(p.SourceText),
		keyCreatedAt:  toValue(p.CreatedAt.Unix()),
		keyUpdatedAt:  toValue(p.UpdatedAt.Unix()),
	}
	for k, v := range p.Metadata {
		if !reservedKey(k) {
			out[k] = toValue(v)
		}
	}
	return out
}

// payloadFrom rebuilds a Payload from a Qdrant payload map.
func payloadFrom(values map[string]*pb.Value) Payload {
	p := Payload{}
	for k, v := range values {
		switch k {
		case keyContentID:
			p.ContentID = v.GetStringValue()
		case keyContentTyp:
			p.ContentType = content.Kind(v.GetStringValue())
		case keyModel:
			p.EmbeddingModel = v.GetStringValue()
		case keyDims:
			p.EmbeddingDimensions = int(v.GetIntegerValue())
		case keySourceText:
			p.SourceText = v.GetStringValue()
		case keyCreatedAt:
			p.CreatedAt = time.Unix(v.GetIntegerValue(), 0).UTC()
		case keyUpdatedAt:
			p.UpdatedAt = time.Unix(v.GetIntegerValue(), 0).UTC()
		default:
			if p.Metadata == nil {
				p.Metadata = make(map[string]any)
			}
			p.Metadata[k] = fromValue(v)
		}
	}
	return p
}

func fromValue(v *pb.Value) any {
	switch kind := v.GetKind().(type) {
	case *pb.Value_StringValue:
		return kind.StringValue
	case *pb.Value_IntegerValue:
		return kind.IntegerValue
	case *pb.Value_DoubleValue:
		return kind.DoubleValue
	case *pb.Value_BoolValue:
		return kind.BoolValue
	default:
		return v.String()
	}
}

func fieldMatch(key, value string) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key: key,
				Match: &pb.Match{
					MatchValue: &pb.Match_Keyword{Keyword: value},
				},
			},
		},
	}
}

func numericID(id uint64) *pb.PointId {
	return &pb.PointId{PointIdOptions: &pb.PointId_Num{Num: id}}
}
