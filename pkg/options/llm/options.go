// Package llm provides LLM provider configuration options.
package llm

import (
	"fmt"
	"time"

	"github.com/kart-io/docqa/pkg/options"
	"github.com/spf13/pflag"
)

var _ options.IOptions = (*ProviderOptions)(nil)

// ProviderOptions 定义 LLM 供应商配置。
type ProviderOptions struct {
	// Provider 供应商名称（openai 及其兼容 API）。
	Provider string `json:"provider" mapstructure:"provider"`

	// BaseURL API 基础地址。
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	// APIKey API 密钥。
	APIKey string `json:"api-key" mapstructure:"api-key"`

	// EmbedModel 向量化模型名称。
	EmbedModel string `json:"embed-model" mapstructure:"embed-model"`

	// ChatModel 对话模型名称。
	ChatModel string `json:"chat-model" mapstructure:"chat-model"`

	// Temperature 生成温度。
	Temperature float64 `json:"temperature" mapstructure:"temperature"`

	// MaxTokens 生成内容的最大 token 数。
	MaxTokens int `json:"max-tokens" mapstructure:"max-tokens"`

	// Timeout 请求超时时间。
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries 最大重试次数。
	MaxRetries int `json:"max-retries" mapstructure:"max-retries"`

	// Organization 组织 ID（可选）。
	Organization string `json:"organization" mapstructure:"organization"`
}

// NewProviderOptions 创建默认 LLM 供应商配置。
func NewProviderOptions() *ProviderOptions {
	return &ProviderOptions{
		Provider:    "openai",
		BaseURL:     "https://api.x.ai/v1",
		EmbedModel:  "text-embedding-3-small",
		ChatModel:   "grok-3-mini",
		Temperature: 0.7,
		MaxTokens:   1000,
		Timeout:     120 * time.Second,
		MaxRetries:  3,
	}
}

// ToConfigMap 转换为配置 map，用于供应商工厂。
func (o *ProviderOptions) ToConfigMap() map[string]any {
	return map[string]any{
		"base_url":     o.BaseURL,
		"api_key":      o.APIKey,
		"embed_model":  o.EmbedModel,
		"chat_model":   o.ChatModel,
		"temperature":  o.Temperature,
		"max_tokens":   o.MaxTokens,
		"timeout":      o.Timeout,
		"max_retries":  o.MaxRetries,
		"organization": o.Organization,
	}
}

// AddFlags adds flags for LLM provider options to the specified FlagSet.
func (o *ProviderOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Provider, options.Join(prefixes...)+"llm.provider", o.Provider, "LLM provider name.")
	fs.StringVar(&o.BaseURL, options.Join(prefixes...)+"llm.base-url", o.BaseURL, "LLM API base URL.")
	fs.StringVar(&o.APIKey, options.Join(prefixes...)+"llm.api-key", o.APIKey, "LLM API key.")
	fs.StringVar(&o.EmbedModel, options.Join(prefixes...)+"llm.embed-model", o.EmbedModel, "Embedding model name.")
	fs.StringVar(&o.ChatModel, options.Join(prefixes...)+"llm.chat-model", o.ChatModel, "Chat completion model name.")
	fs.Float64Var(&o.Temperature, options.Join(prefixes...)+"llm.temperature", o.Temperature, "Sampling temperature for chat completions.")
	fs.IntVar(&o.MaxTokens, options.Join(prefixes...)+"llm.max-tokens", o.MaxTokens, "Maximum tokens for chat completions.")
	fs.DurationVar(&o.Timeout, options.Join(prefixes...)+"llm.timeout", o.Timeout, "LLM request timeout.")
	fs.IntVar(&o.MaxRetries, options.Join(prefixes...)+"llm.max-retries", o.MaxRetries, "LLM maximum number of retries.")
	fs.StringVar(&o.Organization, options.Join(prefixes...)+"llm.organization", o.Organization, "LLM organization ID (optional).")
}

// Validate validates the LLM provider options.
func (o *ProviderOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Provider == "" {
		errs = append(errs, fmt.Errorf("provider is required"))
	}
	if o.BaseURL == "" {
		errs = append(errs, fmt.Errorf("base-url is required"))
	}
	if o.APIKey == "" {
		errs = append(errs, fmt.Errorf("api-key is required"))
	}
	if o.EmbedModel == "" {
		errs = append(errs, fmt.Errorf("embed-model is required"))
	}
	if o.ChatModel == "" {
		errs = append(errs, fmt.Errorf("chat-model is required"))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive"))
	}
	return errs
}

// Complete completes the LLM provider options with defaults.
func (o *ProviderOptions) Complete() error {
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	return nil
}
