package adapter

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/kioku-app/kioku/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// VectorMatch is one ranked nearest-neighbor result from the index.
type VectorMatch struct {
	ID    model.MemoryID
	Score float64
}

// VectorMetadata is the denormalized payload stored alongside each vector.
// UserID is mandatory and used as an exact-match filter on every query so
// that tenant isolation holds at the index layer as well as in the store.
type VectorMetadata struct {
	UserID    model.UserID
	Title     string
	Content   string
	Tags      []string
	CreatedAt time.Time
}

// VectorIndex is the vector-search capability: one vector per memory, keyed
// by memory ID. Delete is idempotent; deleting an unknown ID is not an error.
type VectorIndex interface {
	Upsert(ctx context.Context, id model.MemoryID, vector []float32, meta *VectorMetadata) (string, error)
	Query(ctx context.Context, vector []float32, topK int, userID model.UserID) ([]*VectorMatch, error)
	Delete(ctx context.Context, id model.MemoryID) error
}

// metadataContentLimit truncates content stored in vector payloads so the
// payload stays small; the record store keeps the full text.
const metadataContentLimit = 1000

// truncateRunes cuts s to at most limit bytes without splitting a UTF-8
// sequence, so the stored payload stays valid UTF-8.
func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

// QdrantIndex implements VectorIndex against a Qdrant server over gRPC.
type QdrantIndex struct {
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
}

func NewQdrant(addr, collection string) (*QdrantIndex, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect to qdrant", goerr.V("addr", addr))
	}

	return &QdrantIndex{
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
	}, nil
}

// EnsureCollection creates the collection with cosine distance if it does not
// exist yet. Dimension must match the embedding model of the deployment.
func (x *QdrantIndex) EnsureCollection(ctx context.Context, dimension uint64) error {
	resp, err := x.collections.CollectionExists(ctx, &pb.CollectionExistsRequest{
		CollectionName: x.collection,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to check collection existence")
	}
	if resp.GetResult().GetExists() {
		return nil
	}

	if _, err := x.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: x.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     dimension,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	}); err != nil {
		return goerr.Wrap(err, "failed to create collection", goerr.V("collection", x.collection))
	}
	return nil
}

func (x *QdrantIndex) Upsert(ctx context.Context, id model.MemoryID, vector []float32, meta *VectorMetadata) (string, error) {
	content := truncateRunes(meta.Content, metadataContentLimit)

	tags := make([]*pb.Value, len(meta.Tags))
	for i, tag := range meta.Tags {
		tags[i] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: tag}}
	}

	payload := map[string]*pb.Value{
		"user_id":    {Kind: &pb.Value_StringValue{StringValue: string(meta.UserID)}},
		"title":      {Kind: &pb.Value_StringValue{StringValue: meta.Title}},
		"content":    {Kind: &pb.Value_StringValue{StringValue: content}},
		"tags":       {Kind: &pb.Value_ListValue{ListValue: &pb.ListValue{Values: tags}}},
		"created_at": {Kind: &pb.Value_StringValue{StringValue: meta.CreatedAt.Format(time.RFC3339)}},
	}

	wait := true
	if _, err := x.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: x.collection,
		Wait:           &wait,
		Points: []*pb.PointStruct{
			{
				Id: &pb.PointId{
					PointIdOptions: &pb.PointId_Uuid{Uuid: string(id)},
				},
				Vectors: &pb.Vectors{
					VectorsOptions: &pb.Vectors_Vector{
						Vector: &pb.Vector{Data: vector},
					},
				},
				Payload: payload,
			},
		},
	}); err != nil {
		return "", goerr.Wrap(err, "failed to upsert point", goerr.V("memory_id", id))
	}

	return string(id), nil
}

func (x *QdrantIndex) Query(ctx context.Context, vector []float32, topK int, userID model.UserID) ([]*VectorMatch, error) {
	resp, err := x.points.Search(ctx, &pb.SearchPoints{
		CollectionName: x.collection,
		Vector:         vector,
		Limit:          uint64(topK),
		Filter: &pb.Filter{
			Must: []*pb.Condition{
				{
					ConditionOneOf: &pb.Condition_Field{
						Field: &pb.FieldCondition{
							Key: "user_id",
							Match: &pb.Match{
								MatchValue: &pb.Match_Keyword{Keyword: string(userID)},
							},
						},
					},
				},
			},
		},
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search points")
	}

	matches := make([]*VectorMatch, len(resp.Result))
	for i, r := range resp.Result {
		matches[i] = &VectorMatch{
			ID:    model.MemoryID(r.Id.GetUuid()),
			Score: float64(r.Score),
		}
	}

	return matches, nil
}

func (x *QdrantIndex) Delete(ctx context.Context, id model.MemoryID) error {
	wait := true
	if _, err := x.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: x.collection,
		Wait:           &wait,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{
					Ids: []*pb.PointId{
						{PointIdOptions: &pb.PointId_Uuid{Uuid: string(id)}},
					},
				},
			},
		},
	}); err != nil {
		return goerr.Wrap(err, "failed to delete point", goerr.V("memory_id", id))
	}
	return nil
}
