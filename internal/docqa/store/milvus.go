package store

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus/client/v2/entity"

	"github.com/kart-io/docqa/pkg/component/milvus"
	"github.com/kart-io/docqa/pkg/llm"
)

// vectorClient 是 MilvusStore 需要的底层客户端能力。
// *milvus.Client 实现了该接口；测试中可以用假实现替换。
type vectorClient interface {
	HasCollection(ctx context.Context, name string) (bool, error)
	CreateCollection(ctx context.Context, schema *milvus.CollectionSchema) error
	Insert(ctx context.Context, collectionName string, data *milvus.InsertData) ([]int64, error)
	Search(ctx context.Context, collectionName string, vector []float32, topK int, outputFields []string) ([]milvus.SearchResult, error)
	GetCollectionStats(ctx context.Context, collectionName string) (int64, error)
	Health(ctx context.Context) error
	Close(ctx context.Context) error
}

var _ vectorClient = (*milvus.Client)(nil)

// MilvusStore 实现基于 Milvus 的向量存储网关。
// 向量化由注入的 EmbeddingProvider 在客户端完成。
type MilvusStore struct {
	client     vectorClient
	embedder   llm.EmbeddingProvider
	collection string
	dimension  int
}

// NewMilvusStore 创建 Milvus 存储实例。
func NewMilvusStore(client vectorClient, embedder llm.EmbeddingProvider, collection string, dimension int) *MilvusStore {
	if collection == "" {
		collection = DefaultCollection
	}
	return &MilvusStore{
		client:     client,
		embedder:   embedder,
		collection: collection,
		dimension:  dimension,
	}
}

// EnsureCollection 创建文档块集合。底层客户端先检查集合是否存在，
// 已存在时不做任何操作，也不会修改既有 schema。
func (s *MilvusStore) EnsureCollection(ctx context.Context) error {
	exists, err := s.client.HasCollection(ctx, s.collection)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	schema := &milvus.CollectionSchema{
		Name:        s.collection,
		Description: "Document chunks for question answering",
		Dimension:   s.dimension,
		MetaFields: []milvus.MetaField{
			{Name: "content", DataType: entity.FieldTypeVarChar, MaxLen: 65535},
			{Name: "source", DataType: entity.FieldTypeVarChar, MaxLen: 1024},
			{Name: "chunk_index", DataType: entity.FieldTypeInt64},
		},
	}
	return s.client.CreateCollection(ctx, schema)
}

// Health 探测 Milvus 是否可达。
func (s *MilvusStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

// Search 将 queryText 向量化后执行相似度搜索。
// Milvus 返回的余弦分数作为 certainty，距离取 1-score，
// 距离超过 maxDistance 的结果被过滤。
func (s *MilvusStore) Search(ctx context.Context, queryText string, limit int, maxDistance float64) ([]*ScoredChunk, error) {
	if limit <= 0 {
		return []*ScoredChunk{}, nil
	}

	vector, err := s.embedder.EmbedSingle(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	outputFields := []string{"content", "source", "chunk_index"}
	results, err := s.client.Search(ctx, s.collection, vector, limit, outputFields)
	if err != nil {
		return nil, fmt.Errorf("failed to search milvus: %w", err)
	}

	chunks := make([]*ScoredChunk, 0, len(results))
	for _, r := range results {
		certainty := float64(r.Score)
		if 1-certainty > maxDistance {
			continue
		}

		chunk := &ScoredChunk{Certainty: &certainty}
		if v, ok := r.Metadata["content"].(string); ok {
			chunk.Content = v
		}
		if v, ok := r.Metadata["source"].(string); ok {
			chunk.Source = v
		}
		if v, ok := r.Metadata["chunk_index"].(int64); ok {
			chunk.ChunkIndex = v
		}
		chunks = append(chunks, chunk)
	}

	return chunks, nil
}

// BatchInsert 将一组文档块向量化后作为单个批次写入 Milvus。
func (s *MilvusStore) BatchInsert(ctx context.Context, chunks []*Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	embeddings, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: got %d, want %d", len(embeddings), len(chunks))
	}

	metadata := map[string][]any{
		"content":     make([]any, len(chunks)),
		"source":      make([]any, len(chunks)),
		"chunk_index": make([]any, len(chunks)),
	}
	for i, c := range chunks {
		metadata["content"][i] = c.Content
		metadata["source"][i] = c.Source
		metadata["chunk_index"][i] = c.ChunkIndex
	}

	data := &milvus.InsertData{
		Embeddings: embeddings,
		Metadata:   metadata,
	}

	if _, err := s.client.Insert(ctx, s.collection, data); err != nil {
		return fmt.Errorf("failed to insert into milvus: %w", err)
	}
	return nil
}

// Stats 返回集合中的文档块数量。
func (s *MilvusStore) Stats(ctx context.Context) (int64, error) {
	return s.client.GetCollectionStats(ctx, s.collection)
}

// Close 关闭 Milvus 连接。
func (s *MilvusStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

// 确保 MilvusStore 实现了 VectorStore 接口。
var _ VectorStore = (*MilvusStore)(nil)
