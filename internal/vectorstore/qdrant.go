package vectorstore

import (
	"context"
	"fmt"
	"net/url"

	"github.com/josinaldojr/book-rag/internal/rag"
	"github.com/qdrant/go-client/qdrant"
)

const payloadTextKey = "text"

// qdrantAPI is the subset of *qdrant.Client the store calls.
type qdrantAPI interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Close() error
}

type QdrantStore struct {
	client     qdrantAPI
	collection string
}

// NewQdrantStore connects over gRPC. rawURL is the REST-style cluster URL
// (scheme and host are used; https turns TLS on), grpcPort the gRPC port.
func NewQdrantStore(rawURL, apiKey string, grpcPort int, collection string) (*QdrantStore, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return nil, fmt.Errorf("invalid QDRANT_URL %q", rawURL)
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   u.Hostname(),
		Port:   grpcPort,
		APIKey: apiKey,
		UseTLS: u.Scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	return &QdrantStore{client: client, collection: collection}, nil
}

func (s *QdrantStore) EnsureCollection(ctx context.Context, vectorSize int) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", s.collection, err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(vectorSize),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", s.collection, err)
	}
	return nil
}

func (s *QdrantStore) Upsert(ctx context.Context, points []rag.Point) error {
	structs := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		structs = append(structs, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(p.ID),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{payloadTextKey: p.Text}),
		})
	}

	wait := true
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         structs,
	})
	return err
}

// Search drops hits whose payload has no text.
func (s *QdrantStore) Search(ctx context.Context, vector []float32, limit int) ([]rag.Hit, error) {
	if limit <= 0 {
		limit = 4
	}
	n := uint64(limit)

	res, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &n,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, err
	}

	hits := make([]rag.Hit, 0, len(res))
	for _, p := range res {
		if p == nil || p.Payload == nil {
			continue
		}
		v, ok := p.Payload[payloadTextKey]
		if !ok {
			continue
		}
		text := v.GetStringValue()
		if text == "" {
			continue
		}
		hits = append(hits, rag.Hit{Text: text, Score: p.Score})
	}
	return hits, nil
}

func (s *QdrantStore) Close() error {
	return s.client.Close()
}

var _ rag.VectorStore = (*QdrantStore)(nil)
