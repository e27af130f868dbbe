package biz

import (
	"context"
	"errors"
	"strings"

	"github.com/kart-io/logger"

	"github.com/kart-io/docqa/internal/docqa/metrics"
	"github.com/kart-io/docqa/pkg/llm"
)

// 完成服务降级后的用户可见回答。服务级错误永远不会传播给调用方。
const (
	// AnswerNoContent 模型返回空内容时的回答。
	AnswerNoContent = "No response received from the model."
	// AnswerModelUnavailable 模型不存在或不可用时的回答。
	AnswerModelUnavailable = "The requested model is unavailable. Please contact the administrator."
	// AnswerRateLimited 触发限流时的回答。
	AnswerRateLimited = "Rate limit exceeded. Please try again later."
	// AnswerGenerationFailed 其他完成服务错误时的回答。
	AnswerGenerationFailed = "Failed to get a response from the model. Please try again."
)

// DefaultSystemPrompt 默认系统提示词模板，{{context}} 会被检索上下文替换。
const DefaultSystemPrompt = `You are an expert geological assistant. Use the provided context to answer questions. If the context doesn't contain the answer, use your general knowledge to provide a response. If the question is completely unrelated, respond with "I don't have sufficient information to answer this question."

Context:
{{context}}

Guidelines:
1. Prioritize information from the context when available.
2. Use general knowledge for questions not covered by the context.
3. Be clear and informative in your response.`

// GeneratorConfig 生成器配置。
type GeneratorConfig struct {
	// SystemPrompt 系统提示词模板。
	SystemPrompt string
}

// DefaultGeneratorConfig 返回默认生成器配置。
func DefaultGeneratorConfig() *GeneratorConfig {
	return &GeneratorConfig{
		SystemPrompt: DefaultSystemPrompt,
	}
}

// Generator 负责根据检索上下文合成答案。
type Generator struct {
	chatProvider llm.ChatProvider
	config       *GeneratorConfig
}

// NewGenerator 创建生成器实例。
func NewGenerator(chatProvider llm.ChatProvider, config *GeneratorConfig) *Generator {
	if config == nil {
		config = DefaultGeneratorConfig()
	}
	return &Generator{
		chatProvider: chatProvider,
		config:       config,
	}
}

// Synthesize 以两消息提示词（系统消息嵌入上下文，用户消息为原始问题）
// 调用完成服务。完成服务的错误被映射为固定的用户可见回答，永不返回错误。
func (g *Generator) Synthesize(ctx context.Context, question, contextText string) string {
	systemPrompt := strings.ReplaceAll(g.config.SystemPrompt, "{{context}}", contextText)

	resp, err := g.chatProvider.Generate(ctx, question, systemPrompt)
	if err != nil {
		metrics.Get().RecordLLMCall(0, err)
		return g.degrade(err)
	}

	totalTokens := 0
	if resp.TokenUsage != nil {
		totalTokens = resp.TokenUsage.TotalTokens
	}
	metrics.Get().RecordLLMCall(totalTokens, nil)

	if resp.Content == "" {
		return AnswerNoContent
	}

	if resp.TokenUsage != nil {
		logger.Infow("answer generated",
			"length", len(resp.Content),
			"total_tokens", resp.TokenUsage.TotalTokens,
		)
	} else {
		logger.Infow("answer generated", "length", len(resp.Content))
	}

	return resp.Content
}

// degrade 将完成服务错误映射为固定回答。
func (g *Generator) degrade(err error) string {
	switch {
	case errors.Is(err, llm.ErrModelNotFound):
		logger.Errorw("chat model unavailable", "error", err.Error())
		return AnswerModelUnavailable
	case errors.Is(err, llm.ErrRateLimited):
		logger.Warnw("chat completion rate limited", "error", err.Error())
		return AnswerRateLimited
	case errors.Is(err, llm.ErrNoContent):
		logger.Warnw("chat completion returned no content")
		return AnswerNoContent
	default:
		logger.Errorw("chat completion failed", "error", err.Error())
		return AnswerGenerationFailed
	}
}
