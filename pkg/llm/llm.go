// Package llm 提供统一的 LLM 供应商抽象层。
// Embedding 和 Chat 可以使用不同供应商的模型。
package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// 补全服务的失败类别。供应商实现负责把 API 层错误归入这个封闭集合
// （通过 errors.Is 判断），调用方据此做降级处理，而不是嗅探错误字符串。
var (
	// ErrModelNotFound 请求的模型不存在或不可用。
	ErrModelNotFound = errors.New("llm: model not found")

	// ErrRateLimited 请求被限流。
	ErrRateLimited = errors.New("llm: rate limited")

	// ErrNoContent 服务返回了空响应。
	ErrNoContent = errors.New("llm: no content returned")
)

// EmbeddingProvider 定义 Embedding 供应商接口。
type EmbeddingProvider interface {
	// Embed 为多个文本生成向量嵌入。
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle 为单个文本生成向量嵌入。
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Name 返回供应商名称。
	Name() string
}

// ChatProvider 定义 Chat 供应商接口。
type ChatProvider interface {
	// Chat 进行多轮对话。
	Chat(ctx context.Context, messages []Message) (*GenerateResponse, error)

	// Generate 根据提示生成文本（单轮，可选系统提示）。
	Generate(ctx context.Context, prompt string, systemPrompt string) (*GenerateResponse, error)

	// Name 返回供应商名称。
	Name() string
}

// Message 表示对话中的一条消息。
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Role 定义消息角色。
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// GenerateResponse 表示一次生成调用的结果。
type GenerateResponse struct {
	// Content 生成的文本。
	Content string
	// TokenUsage token 使用情况，供应商未返回时为 nil。
	TokenUsage *TokenUsage
}

// TokenUsage 记录一次调用的 token 消耗。
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Provider 同时支持 Embedding 和 Chat 的完整供应商。
type Provider interface {
	EmbeddingProvider
	ChatProvider
}

// ProviderFactory 供应商工厂函数类型。
type ProviderFactory func(config map[string]any) (Provider, error)

var registry = &providerRegistry{
	providers: make(map[string]ProviderFactory),
}

type providerRegistry struct {
	mu        sync.RWMutex
	providers map[string]ProviderFactory
}

// RegisterProvider 注册供应商工厂，通常在供应商包的 init 中调用。
func RegisterProvider(name string, factory ProviderFactory) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.providers[name] = factory
}

// NewProvider 根据名称创建完整供应商实例。
func NewProvider(name string, config map[string]any) (Provider, error) {
	registry.mu.RLock()
	factory, ok := registry.providers[name]
	registry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}

	return factory(config)
}

// NewEmbeddingProvider 根据名称创建 Embedding 供应商实例。
func NewEmbeddingProvider(name string, config map[string]any) (EmbeddingProvider, error) {
	return NewProvider(name, config)
}

// NewChatProvider 根据名称创建 Chat 供应商实例。
func NewChatProvider(name string, config map[string]any) (ChatProvider, error) {
	return NewProvider(name, config)
}

// ListProviders 列出所有已注册的供应商名称。
func ListProviders() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	names := make([]string, 0, len(registry.providers))
	for name := range registry.providers {
		names = append(names, name)
	}
	return names
}
