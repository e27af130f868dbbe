package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/docqa/pkg/component/milvus"
)

type fakeClient struct {
	exists        bool
	createCalls   int
	createdSchema *milvus.CollectionSchema

	insertCalls int
	inserted    []*milvus.InsertData
	insertErr   error

	searchResults []milvus.SearchResult
	searchErr     error
	searchedTopK  int

	statsCount int64
	healthErr  error
}

func (f *fakeClient) HasCollection(ctx context.Context, name string) (bool, error) {
	return f.exists, nil
}

func (f *fakeClient) CreateCollection(ctx context.Context, schema *milvus.CollectionSchema) error {
	f.createCalls++
	f.createdSchema = schema
	f.exists = true
	return nil
}

func (f *fakeClient) Insert(ctx context.Context, collectionName string, data *milvus.InsertData) ([]int64, error) {
	f.insertCalls++
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.inserted = append(f.inserted, data)
	ids := make([]int64, len(data.Embeddings))
	return ids, nil
}

func (f *fakeClient) Search(ctx context.Context, collectionName string, vector []float32, topK int, outputFields []string) ([]milvus.SearchResult, error) {
	f.searchedTopK = topK
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchResults, nil
}

func (f *fakeClient) GetCollectionStats(ctx context.Context, collectionName string) (int64, error) {
	return f.statsCount, nil
}

func (f *fakeClient) Health(ctx context.Context) error { return f.healthErr }

func (f *fakeClient) Close(ctx context.Context) error { return nil }

type fakeEmbedder struct {
	embedErr error
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeEmbedder) Name() string { return "fake" }

func newTestStore(client *fakeClient) *MilvusStore {
	return NewMilvusStore(client, &fakeEmbedder{}, "", 3)
}

func certaintyResult(content, source string, index int64, score float32) milvus.SearchResult {
	return milvus.SearchResult{
		Score: score,
		Metadata: map[string]any{
			"content":     content,
			"source":      source,
			"chunk_index": index,
		},
	}
}

func TestEnsureCollectionCreatesOnce(t *testing.T) {
	client := &fakeClient{}
	s := newTestStore(client)

	require.NoError(t, s.EnsureCollection(context.Background()))
	require.NoError(t, s.EnsureCollection(context.Background()))

	// 重复调用不应重新创建集合
	assert.Equal(t, 1, client.createCalls)
	require.NotNil(t, client.createdSchema)
	assert.Equal(t, DefaultCollection, client.createdSchema.Name)

	names := make([]string, len(client.createdSchema.MetaFields))
	for i, f := range client.createdSchema.MetaFields {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"content", "source", "chunk_index"}, names)
}

func TestEnsureCollectionExisting(t *testing.T) {
	client := &fakeClient{exists: true}
	s := newTestStore(client)

	require.NoError(t, s.EnsureCollection(context.Background()))
	assert.Zero(t, client.createCalls)
}

func TestSearch(t *testing.T) {
	client := &fakeClient{
		searchResults: []milvus.SearchResult{
			certaintyResult("Igneous rock forms from cooled magma.", "geo101.pdf", 0, 0.95),
			certaintyResult("Sedimentary rock forms in layers.", "geo101.pdf", 1, 0.80),
		},
	}
	s := newTestStore(client)

	chunks, err := s.Search(context.Background(), "rock types", 5, 0.7)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, 5, client.searchedTopK)

	assert.Equal(t, "Igneous rock forms from cooled magma.", chunks[0].Content)
	assert.Equal(t, "geo101.pdf", chunks[0].Source)
	assert.Equal(t, int64(0), chunks[0].ChunkIndex)
	assert.InDelta(t, 0.95, chunks[0].CertaintyValue(), 0.0001)
}

func TestSearchFiltersByDistance(t *testing.T) {
	client := &fakeClient{
		searchResults: []milvus.SearchResult{
			certaintyResult("near", "a.txt", 0, 0.9),
			certaintyResult("far", "b.txt", 0, 0.1),
		},
	}
	s := newTestStore(client)

	// 距离 = 1 - 0.1 = 0.9 > 0.7，应被过滤
	chunks, err := s.Search(context.Background(), "q", 5, 0.7)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "near", chunks[0].Content)
}

func TestSearchNoMatches(t *testing.T) {
	s := newTestStore(&fakeClient{})

	chunks, err := s.Search(context.Background(), "q", 5, 0.7)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSearchEmbedError(t *testing.T) {
	client := &fakeClient{}
	s := NewMilvusStore(client, &fakeEmbedder{embedErr: errors.New("embed down")}, "", 3)

	_, err := s.Search(context.Background(), "q", 5, 0.7)
	assert.ErrorContains(t, err, "embed")
}

func TestBatchInsert(t *testing.T) {
	client := &fakeClient{}
	s := newTestStore(client)

	chunks := []*Chunk{
		{Content: "c0", Source: "doc.pdf", ChunkIndex: 0},
		{Content: "c1", Source: "doc.pdf", ChunkIndex: 1},
	}

	require.NoError(t, s.BatchInsert(context.Background(), chunks))
	require.Len(t, client.inserted, 1)

	data := client.inserted[0]
	assert.Len(t, data.Embeddings, 2)
	assert.Equal(t, []any{"c0", "c1"}, data.Metadata["content"])
	assert.Equal(t, []any{"doc.pdf", "doc.pdf"}, data.Metadata["source"])
	assert.Equal(t, []any{int64(0), int64(1)}, data.Metadata["chunk_index"])
}

func TestBatchInsertEmpty(t *testing.T) {
	client := &fakeClient{}
	s := newTestStore(client)

	require.NoError(t, s.BatchInsert(context.Background(), nil))
	assert.Zero(t, client.insertCalls)
}

func TestBatchInsertSurfacesError(t *testing.T) {
	client := &fakeClient{insertErr: errors.New("partial failure")}
	s := newTestStore(client)

	err := s.BatchInsert(context.Background(), []*Chunk{{Content: "c", Source: "s"}})
	assert.ErrorContains(t, err, "partial failure")
}

func TestCertaintyValueFallback(t *testing.T) {
	c := &ScoredChunk{}
	assert.Zero(t, c.CertaintyValue())
}
