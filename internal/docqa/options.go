// Package docqa provides the document QA API server application.
package docqa

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kart-io/docqa/internal/docqa/store"
	httpopts "github.com/kart-io/docqa/pkg/options/http"
	llmopts "github.com/kart-io/docqa/pkg/options/llm"
	logopts "github.com/kart-io/docqa/pkg/options/logger"
	milvusopts "github.com/kart-io/docqa/pkg/options/milvus"
)

// Options contains all API server options.
type Options struct {
	// HTTP contains HTTP server configuration.
	HTTP *httpopts.Options `json:"http" mapstructure:"http"`

	// Log contains logger configuration.
	Log *logopts.Options `json:"log" mapstructure:"log"`

	// Milvus contains Milvus database configuration.
	Milvus *milvusopts.Options `json:"milvus" mapstructure:"milvus"`

	// LLM contains embedding/chat provider configuration.
	LLM *llmopts.ProviderOptions `json:"llm" mapstructure:"llm"`

	// QA contains question answering configuration.
	QA *QAOptions `json:"qa" mapstructure:"qa"`
}

// QAOptions 问答链路配置。
type QAOptions struct {
	// Collection Milvus 集合名称。
	Collection string `json:"collection" mapstructure:"collection"`

	// EmbeddingDim 向量维度，须与嵌入模型输出一致。
	EmbeddingDim int `json:"embedding-dim" mapstructure:"embedding-dim"`

	// TopK 检索返回的结果数量。
	TopK int `json:"top-k" mapstructure:"top-k"`

	// MaxDistance 语义距离上限。
	MaxDistance float64 `json:"max-distance" mapstructure:"max-distance"`

	// ContextBudget 上下文字符数预算。
	ContextBudget int `json:"context-budget" mapstructure:"context-budget"`

	// SystemPrompt 系统提示词模板，空值使用内置模板。
	SystemPrompt string `json:"system-prompt" mapstructure:"system-prompt"`
}

// NewQAOptions 创建默认问答配置。
func NewQAOptions() *QAOptions {
	return &QAOptions{
		Collection:    store.DefaultCollection,
		EmbeddingDim:  1536,
		TopK:          5,
		MaxDistance:   0.7,
		ContextBudget: 4000,
	}
}

// AddFlags adds QA flags to the specified FlagSet.
func (o *QAOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Collection, "qa.collection", o.Collection, "Milvus collection name")
	fs.IntVar(&o.EmbeddingDim, "qa.embedding-dim", o.EmbeddingDim, "Embedding vector dimension")
	fs.IntVar(&o.TopK, "qa.top-k", o.TopK, "Number of chunks to retrieve per question")
	fs.Float64Var(&o.MaxDistance, "qa.max-distance", o.MaxDistance, "Maximum semantic distance for retrieved chunks")
	fs.IntVar(&o.ContextBudget, "qa.context-budget", o.ContextBudget, "Character budget for assembled context")
	fs.StringVar(&o.SystemPrompt, "qa.system-prompt", o.SystemPrompt, "System prompt template (empty uses the built-in template)")
}

// Validate validates the QA options.
func (o *QAOptions) Validate() error {
	if o.Collection == "" {
		return fmt.Errorf("qa.collection cannot be empty")
	}
	if o.EmbeddingDim <= 0 {
		return fmt.Errorf("qa.embedding-dim must be positive")
	}
	if o.TopK <= 0 {
		return fmt.Errorf("qa.top-k must be positive")
	}
	if o.MaxDistance <= 0 || o.MaxDistance > 2 {
		return fmt.Errorf("qa.max-distance must be in (0, 2]")
	}
	if o.ContextBudget <= 0 {
		return fmt.Errorf("qa.context-budget must be positive")
	}
	return nil
}

// NewOptions creates Options with default values.
func NewOptions() *Options {
	return &Options{
		HTTP:   httpopts.NewOptions(),
		Log:    logopts.NewOptions(),
		Milvus: milvusopts.NewOptions(),
		LLM:    llmopts.NewProviderOptions(),
		QA:     NewQAOptions(),
	}
}

// AddFlags adds all server flags to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	o.HTTP.AddFlags(fs)
	o.Log.AddFlags(fs)
	o.Milvus.AddFlags(fs)
	o.LLM.AddFlags(fs)
	o.QA.AddFlags(fs)
}

// Validate validates all server options.
func (o *Options) Validate() error {
	var errs []error
	errs = append(errs, o.HTTP.Validate())
	errs = append(errs, o.Log.Validate())
	errs = append(errs, o.Milvus.Validate()...)
	errs = append(errs, o.LLM.Validate()...)
	errs = append(errs, o.QA.Validate())
	return errors.Join(errs...)
}

// Complete completes the options with derived defaults.
func (o *Options) Complete() error {
	return o.LLM.Complete()
}
