package biz

import (
	"context"

	"github.com/kart-io/logger"

	"github.com/kart-io/docqa/internal/docqa/metrics"
	"github.com/kart-io/docqa/internal/docqa/store"
)

// AnswerProcessingError 检索或提示词组装阶段出错时的兜底回答。
const AnswerProcessingError = "I encountered an error processing your question. Please try again."

// Answer 表示一次问答的结果。
type Answer struct {
	// Answer 回答文本。
	Answer string `json:"answer"`
	// References 去重后的源文档列表，按首次出现顺序排列。
	References []string `json:"references"`
}

// Service 组合检索器与生成器，对外提供问答能力。
// 无可变共享状态，可被并发调用。
type Service struct {
	retriever *Retriever
	generator *Generator
	store     store.VectorStore
}

// NewService 创建问答服务实例。
func NewService(retriever *Retriever, generator *Generator, vectorStore store.VectorStore) *Service {
	return &Service{
		retriever: retriever,
		generator: generator,
		store:     vectorStore,
	}
}

// Answer 回答一个问题。检索失败被转换为兜底回答，
// 完成服务错误被生成器降级为固定回答，因此永不返回错误。
func (s *Service) Answer(ctx context.Context, question string) *Answer {
	result, err := s.retriever.Retrieve(ctx, question)
	metrics.Get().RecordRetrieval(err)
	if err != nil {
		logger.Errorw("retrieval failed", "question", question, "error", err.Error())
		metrics.Get().RecordQuestion(true)
		return &Answer{
			Answer:     AnswerProcessingError,
			References: []string{},
		}
	}

	answer := s.generator.Synthesize(ctx, question, result.Context)
	metrics.Get().RecordQuestion(isDegraded(answer))

	return &Answer{
		Answer:     answer,
		References: result.References,
	}
}

// isDegraded 判断回答是否为降级兜底字符串。
func isDegraded(answer string) bool {
	switch answer {
	case AnswerNoContent, AnswerModelUnavailable, AnswerRateLimited, AnswerGenerationFailed, AnswerProcessingError:
		return true
	}
	return false
}

// Stats 返回向量存储中的文档块数量。
func (s *Service) Stats(ctx context.Context) (int64, error) {
	return s.store.Stats(ctx)
}

// Health 探测向量存储是否可达。
func (s *Service) Health(ctx context.Context) error {
	return s.store.Health(ctx)
}
