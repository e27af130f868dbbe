// Package ingest provides the document ingestion CLI application.
package ingest

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kart-io/docqa/internal/docqa/store"
	llmopts "github.com/kart-io/docqa/pkg/options/llm"
	logopts "github.com/kart-io/docqa/pkg/options/logger"
	milvusopts "github.com/kart-io/docqa/pkg/options/milvus"
)

// Options contains all ingestion CLI options.
type Options struct {
	// Log contains logger configuration.
	Log *logopts.Options `json:"log" mapstructure:"log"`

	// Milvus contains Milvus database configuration.
	Milvus *milvusopts.Options `json:"milvus" mapstructure:"milvus"`

	// LLM contains embedding provider configuration.
	LLM *llmopts.ProviderOptions `json:"llm" mapstructure:"llm"`

	// Ingest contains ingestion pipeline configuration.
	Ingest *IngestOptions `json:"ingest" mapstructure:"ingest"`
}

// IngestOptions 摄取流水线配置。
type IngestOptions struct {
	// Collection Milvus 集合名称。
	Collection string `json:"collection" mapstructure:"collection"`

	// EmbeddingDim 向量维度，须与嵌入模型输出一致。
	EmbeddingDim int `json:"embedding-dim" mapstructure:"embedding-dim"`

	// ChunkSize 文本块大小（Unicode 字符数）。
	ChunkSize int `json:"chunk-size" mapstructure:"chunk-size"`

	// ChunkOverlap 块重叠大小。
	ChunkOverlap int `json:"chunk-overlap" mapstructure:"chunk-overlap"`

	// BatchSize 每个写入批次包含的文档块数量。
	BatchSize int `json:"batch-size" mapstructure:"batch-size"`
}

// NewIngestOptions 创建默认摄取配置。
func NewIngestOptions() *IngestOptions {
	return &IngestOptions{
		Collection:   store.DefaultCollection,
		EmbeddingDim: 1536,
		ChunkSize:    1000,
		ChunkOverlap: 200,
		BatchSize:    20,
	}
}

// AddFlags adds ingestion flags to the specified FlagSet.
func (o *IngestOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Collection, "ingest.collection", o.Collection, "Milvus collection name")
	fs.IntVar(&o.EmbeddingDim, "ingest.embedding-dim", o.EmbeddingDim, "Embedding vector dimension")
	fs.IntVar(&o.ChunkSize, "ingest.chunk-size", o.ChunkSize, "Chunk size in characters")
	fs.IntVar(&o.ChunkOverlap, "ingest.chunk-overlap", o.ChunkOverlap, "Overlap between consecutive chunks in characters")
	fs.IntVar(&o.BatchSize, "ingest.batch-size", o.BatchSize, "Number of chunks per insert batch")
}

// Validate validates the ingestion options.
func (o *IngestOptions) Validate() error {
	if o.Collection == "" {
		return fmt.Errorf("ingest.collection cannot be empty")
	}
	if o.EmbeddingDim <= 0 {
		return fmt.Errorf("ingest.embedding-dim must be positive")
	}
	if o.ChunkSize <= 0 {
		return fmt.Errorf("ingest.chunk-size must be positive")
	}
	if o.ChunkOverlap < 0 || o.ChunkOverlap >= o.ChunkSize {
		return fmt.Errorf("ingest.chunk-overlap must be in [0, chunk-size)")
	}
	if o.BatchSize <= 0 {
		return fmt.Errorf("ingest.batch-size must be positive")
	}
	return nil
}

// NewOptions creates Options with default values.
func NewOptions() *Options {
	return &Options{
		Log:    logopts.NewOptions(),
		Milvus: milvusopts.NewOptions(),
		LLM:    llmopts.NewProviderOptions(),
		Ingest: NewIngestOptions(),
	}
}

// AddFlags adds all ingestion CLI flags to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	o.Log.AddFlags(fs)
	o.Milvus.AddFlags(fs)
	o.LLM.AddFlags(fs)
	o.Ingest.AddFlags(fs)
}

// Validate validates all ingestion CLI options.
func (o *Options) Validate() error {
	var errs []error
	errs = append(errs, o.Log.Validate())
	errs = append(errs, o.Milvus.Validate()...)
	errs = append(errs, o.LLM.Validate()...)
	errs = append(errs, o.Ingest.Validate())
	return errors.Join(errs...)
}

// Complete completes the options with derived defaults.
func (o *Options) Complete() error {
	return o.LLM.Complete()
}
