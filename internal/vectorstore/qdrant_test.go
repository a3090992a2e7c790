package vectorstore

import (
	"context"
	"errors"
	"testing"

	"github.com/josinaldojr/book-rag/internal/rag"
	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQdrant struct {
	exists   bool
	created  *qdrant.CreateCollection
	upserted *qdrant.UpsertPoints
	queried  *qdrant.QueryPoints
	results  []*qdrant.ScoredPoint
	err      error
}

func (f *fakeQdrant) CollectionExists(context.Context, string) (bool, error) {
	return f.exists, f.err
}

func (f *fakeQdrant) CreateCollection(_ context.Context, req *qdrant.CreateCollection) error {
	f.created = req
	return f.err
}

func (f *fakeQdrant) Upsert(_ context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error) {
	f.upserted = req
	return &qdrant.UpdateResult{}, f.err
}

func (f *fakeQdrant) Query(_ context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error) {
	f.queried = req
	return f.results, f.err
}

func (f *fakeQdrant) Close() error { return nil }

func TestQdrantStore_EnsureCollection(t *testing.T) {
	ctx := context.Background()

	f := &fakeQdrant{exists: true}
	s := &QdrantStore{client: f, collection: "book"}
	require.NoError(t, s.EnsureCollection(ctx, 768))
	assert.Nil(t, f.created)

	f = &fakeQdrant{}
	s = &QdrantStore{client: f, collection: "book"}
	require.NoError(t, s.EnsureCollection(ctx, 768))
	require.NotNil(t, f.created)
	assert.Equal(t, "book", f.created.CollectionName)
	params := f.created.VectorsConfig.GetParams()
	assert.Equal(t, uint64(768), params.GetSize())
	assert.Equal(t, qdrant.Distance_Cosine, params.GetDistance())
}

func TestQdrantStore_Upsert(t *testing.T) {
	f := &fakeQdrant{}
	s := &QdrantStore{client: f, collection: "book"}

	err := s.Upsert(context.Background(), []rag.Point{
		{ID: "5c56c793-69f3-4fbf-87e6-c4bf54c28c26", Vector: []float32{0.1, 0.2}, Text: "hello world"},
	})

	require.NoError(t, err)
	require.Len(t, f.upserted.Points, 1)
	p := f.upserted.Points[0]
	assert.Equal(t, "5c56c793-69f3-4fbf-87e6-c4bf54c28c26", p.GetId().GetUuid())
	assert.Equal(t, "hello world", p.GetPayload()["text"].GetStringValue())
	assert.True(t, f.upserted.GetWait())
}

func TestQdrantStore_SearchDropsHitsWithoutText(t *testing.T) {
	f := &fakeQdrant{results: []*qdrant.ScoredPoint{
		{Score: 0.9, Payload: qdrant.NewValueMap(map[string]any{"text": "first"})},
		{Score: 0.8},
		{Score: 0.7, Payload: qdrant.NewValueMap(map[string]any{"title": "no text"})},
		{Score: 0.6, Payload: qdrant.NewValueMap(map[string]any{"text": "second"})},
	}}
	s := &QdrantStore{client: f, collection: "book"}

	hits, err := s.Search(context.Background(), []float32{1, 0}, 10)

	require.NoError(t, err)
	assert.Equal(t, []rag.Hit{{Text: "first", Score: 0.9}, {Text: "second", Score: 0.6}}, hits)
	assert.Equal(t, uint64(10), f.queried.GetLimit())
	assert.Equal(t, "book", f.queried.GetCollectionName())
}

func TestQdrantStore_SearchError(t *testing.T) {
	s := &QdrantStore{client: &fakeQdrant{err: errors.New("unavailable")}, collection: "book"}
	_, err := s.Search(context.Background(), []float32{1}, 4)
	assert.Error(t, err)
}

func TestNewQdrantStore_InvalidURL(t *testing.T) {
	_, err := NewQdrantStore("not a url", "key", 6334, "book")
	assert.Error(t, err)
}
