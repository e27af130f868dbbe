package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/kart-io/logger"
	"github.com/spf13/cobra"

	"github.com/kart-io/docqa/internal/docqa/biz"
	"github.com/kart-io/docqa/internal/docqa/extract"
	"github.com/kart-io/docqa/internal/docqa/store"
	"github.com/kart-io/docqa/pkg/app"
	"github.com/kart-io/docqa/pkg/component/milvus"
	"github.com/kart-io/docqa/pkg/llm"

	// 注册 LLM 供应商
	_ "github.com/kart-io/docqa/pkg/llm/openai"
)

const (
	appName        = "docqa-ingest"
	appDescription = `Document Ingestion CLI

Extracts text from documents (PDF, plain text, Markdown, DOCX, ODT), splits it
into overlapping chunks and writes them with embeddings into the Milvus vector
store used by the document QA service.

Usage:
  docqa-ingest <file-or-directory>`
)

// NewApp creates a new ingestion CLI application instance.
func NewApp() *app.App {
	opts := NewOptions()

	return app.NewApp(
		app.WithName(appName),
		app.WithShortDescription("Ingest documents into the QA vector store"),
		app.WithDescription(appDescription),
		app.WithOptions(opts),
		app.WithArgs(cobra.ExactArgs(1)),
		app.WithRunFunc(func(args []string) error {
			return Run(opts, args[0])
		}),
	)
}

// Run 对 path 指向的文件或目录执行一次摄取。
// 预检失败返回错误（进程以非零退出）；单个文件的失败只计入汇总。
func Run(opts *Options, path string) error {
	opts.Log.AddInitialField("service.name", appName)
	if err := opts.Log.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx := context.Background()

	milvusClient, err := milvus.New(opts.Milvus)
	if err != nil {
		return fmt.Errorf("failed to initialize milvus: %w", err)
	}
	defer milvusClient.Close(ctx)

	embedder, err := llm.NewEmbeddingProvider(opts.LLM.Provider, opts.LLM.ToConfigMap())
	if err != nil {
		return fmt.Errorf("failed to initialize embedding provider: %w", err)
	}

	vectorStore := store.NewMilvusStore(milvusClient, embedder, opts.Ingest.Collection, opts.Ingest.EmbeddingDim)

	config := biz.DefaultPipelineConfig()
	config.ChunkSize = opts.Ingest.ChunkSize
	config.ChunkOverlap = opts.Ingest.ChunkOverlap
	config.BatchSize = opts.Ingest.BatchSize

	pipeline := biz.NewPipeline(vectorStore, extract.NewExtractor(), config)

	summary, err := pipeline.Run(ctx, path)
	if err != nil {
		return err
	}

	for _, file := range summary.Files {
		if file.Err != nil {
			logger.Warnw("File failed", "path", file.Path, "error", file.Err.Error())
		}
	}
	fmt.Printf("Ingestion finished: %d processed, %d failed, %d skipped, %d chunks in %s\n",
		summary.Processed, summary.Failed, summary.Skipped, summary.TotalChunks,
		summary.Elapsed.Round(time.Millisecond))
	return nil
}
