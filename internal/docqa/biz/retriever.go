package biz

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kart-io/logger"

	"github.com/kart-io/docqa/internal/docqa/store"
)

const (
	// NoContextPlaceholder 无检索结果时注入提示词的占位上下文。
	NoContextPlaceholder = "No specific context found."

	// chunkSeparator 上下文中相邻文档块之间的分隔符。
	chunkSeparator = "\n\n---\n\n"
)

// RetrieverConfig 检索器配置。
type RetrieverConfig struct {
	// TopK 返回的结果数量。
	TopK int
	// MaxDistance 语义距离上限，超过该距离的结果被过滤。
	MaxDistance float64
	// ContextBudget 上下文字符数预算，超出部分被截断。
	ContextBudget int
}

// DefaultRetrieverConfig 返回默认检索器配置。
func DefaultRetrieverConfig() *RetrieverConfig {
	return &RetrieverConfig{
		TopK:          5,
		MaxDistance:   0.7,
		ContextBudget: 4000,
	}
}

// RetrievalResult 表示检索结果。
type RetrievalResult struct {
	// Chunks 检索到的文档块，按相似度从高到低排列。
	Chunks []*store.ScoredChunk
	// References 去重后的源文档列表，按首次出现顺序排列。
	References []string
	// Context 渲染并截断后的上下文文本。
	Context string
}

// Retriever 负责文档检索与上下文构建。
type Retriever struct {
	store  store.VectorStore
	config *RetrieverConfig
}

// NewRetriever 创建检索器实例。
func NewRetriever(vectorStore store.VectorStore, config *RetrieverConfig) *Retriever {
	if config == nil {
		config = DefaultRetrieverConfig()
	}
	return &Retriever{
		store:  vectorStore,
		config: config,
	}
}

// Retrieve 检索与问题最相关的文档块，构建去重引用列表和上下文。
func (r *Retriever) Retrieve(ctx context.Context, question string) (*RetrievalResult, error) {
	chunks, err := r.store.Search(ctx, question, r.config.TopK, r.config.MaxDistance)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	logger.Infow("retrieved chunks", "question", question, "count", len(chunks))

	if len(chunks) == 0 {
		return &RetrievalResult{
			Chunks:     []*store.ScoredChunk{},
			References: []string{},
			Context:    NoContextPlaceholder,
		}, nil
	}

	// 引用按源文档首次出现顺序去重
	references := make([]string, 0, len(chunks))
	seen := make(map[string]struct{}, len(chunks))
	for _, c := range chunks {
		if _, ok := seen[c.Source]; ok {
			continue
		}
		seen[c.Source] = struct{}{}
		references = append(references, c.Source)
	}

	rendered := make([]string, len(chunks))
	for i, c := range chunks {
		rendered[i] = fmt.Sprintf("Source: %s\nContent: %s", c.Source, c.Content)
	}
	context := strings.Join(rendered, chunkSeparator)

	// 截断是纯位置性的，不对齐任何边界
	if utf8.RuneCountInString(context) > r.config.ContextBudget {
		runes := []rune(context)
		context = string(runes[:r.config.ContextBudget]) + "..."
	}

	return &RetrievalResult{
		Chunks:     chunks,
		References: references,
		Context:    context,
	}, nil
}
