package store

import (
	"context"
)

// DefaultCollection 文档块集合名称。
const DefaultCollection = "DocumentChunks"

// Chunk 表示一个持久化的文档块。
type Chunk struct {
	// Content 文档块文本内容。
	Content string
	// Source 所属源文档标识（文件路径）。
	Source string
	// ChunkIndex 在源文档内的序号，从 0 开始。
	ChunkIndex int64
}

// ScoredChunk 表示一条检索结果。
// Certainty 为可选字段：向量存储未返回相似度时为 nil。
type ScoredChunk struct {
	Chunk

	// Certainty 相似度分数，越高越相关。
	Certainty *float64
}

// CertaintyValue 返回相似度分数，缺失时返回 0。
func (c *ScoredChunk) CertaintyValue() float64 {
	if c.Certainty == nil {
		return 0
	}
	return *c.Certainty
}

// CollectionConfig 集合配置。
type CollectionConfig struct {
	// Name 集合名称。
	Name string
	// Description 集合描述。
	Description string
	// Dimension 向量维度。
	Dimension int
}

// VectorStore 定义向量存储网关接口。
type VectorStore interface {
	// EnsureCollection 创建文档块集合。幂等：集合已存在时不做任何操作。
	EnsureCollection(ctx context.Context) error

	// Health 探测向量存储是否可达。
	Health(ctx context.Context) error

	// Search 按语义相似度检索与 queryText 最接近的文档块，
	// 最多返回 limit 条，语义距离超过 maxDistance 的结果被过滤。
	// 结果按相似度从高到低排列。无匹配时返回空列表而非错误。
	Search(ctx context.Context, queryText string, limit int, maxDistance float64) ([]*ScoredChunk, error)

	// BatchInsert 将一组文档块作为单个批次写入。
	// 批次内的部分失败以错误形式返回，不会静默丢弃文档块。
	BatchInsert(ctx context.Context, chunks []*Chunk) error

	// Stats 返回集合中的文档块数量。
	Stats(ctx context.Context) (int64, error)

	// Close 关闭连接。
	Close(ctx context.Context) error
}
