package docqa

import (
	"context"
	"fmt"

	"github.com/kart-io/logger"

	"github.com/kart-io/docqa/internal/docqa/biz"
	"github.com/kart-io/docqa/internal/docqa/handler"
	"github.com/kart-io/docqa/internal/docqa/router"
	"github.com/kart-io/docqa/internal/docqa/store"
	"github.com/kart-io/docqa/pkg/app"
	"github.com/kart-io/docqa/pkg/component/milvus"
	"github.com/kart-io/docqa/pkg/llm"

	// 注册 LLM 供应商
	_ "github.com/kart-io/docqa/pkg/llm/openai"
)

const (
	appName        = "docqa"
	appDescription = `Document QA API Server

Answers questions over an ingested document corpus using retrieval-augmented
generation: semantic search over a Milvus vector store, answer synthesis with
an OpenAI-compatible chat model.`
)

// NewApp creates a new application instance.
func NewApp() *app.App {
	opts := NewOptions()

	return app.NewApp(
		app.WithName(appName),
		app.WithShortDescription("Document QA API server"),
		app.WithDescription(appDescription),
		app.WithOptions(opts),
		app.WithRunFunc(func(_ []string) error {
			return Run(opts)
		}),
	)
}

// Run runs the API server with the given options.
func Run(opts *Options) error {
	// 1. 初始化日志
	opts.Log.AddInitialField("service.name", appName)
	opts.Log.AddInitialField("service.version", app.GetVersion())
	if err := opts.Log.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("Starting document QA service...")

	// 2. 初始化 Milvus 客户端
	milvusClient, err := milvus.New(opts.Milvus)
	if err != nil {
		return fmt.Errorf("failed to initialize milvus: %w", err)
	}
	defer milvusClient.Close(context.Background())
	logger.Info("Milvus client initialized")

	// 3. 初始化 LLM 供应商
	embedder, err := llm.NewEmbeddingProvider(opts.LLM.Provider, opts.LLM.ToConfigMap())
	if err != nil {
		return fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	chatProvider, err := llm.NewChatProvider(opts.LLM.Provider, opts.LLM.ToConfigMap())
	if err != nil {
		return fmt.Errorf("failed to initialize chat provider: %w", err)
	}
	logger.Infow("LLM providers initialized",
		"provider", opts.LLM.Provider,
		"embed_model", opts.LLM.EmbedModel,
		"chat_model", opts.LLM.ChatModel)

	// 4. 初始化向量存储网关
	vectorStore := store.NewMilvusStore(milvusClient, embedder, opts.QA.Collection, opts.QA.EmbeddingDim)
	if err := vectorStore.EnsureCollection(context.Background()); err != nil {
		return fmt.Errorf("failed to ensure collection: %w", err)
	}
	logger.Infow("Vector store ready", "collection", opts.QA.Collection)

	// 5. 初始化业务层
	retriever := biz.NewRetriever(vectorStore, &biz.RetrieverConfig{
		TopK:          opts.QA.TopK,
		MaxDistance:   opts.QA.MaxDistance,
		ContextBudget: opts.QA.ContextBudget,
	})
	generatorConfig := biz.DefaultGeneratorConfig()
	if opts.QA.SystemPrompt != "" {
		generatorConfig.SystemPrompt = opts.QA.SystemPrompt
	}
	generator := biz.NewGenerator(chatProvider, generatorConfig)
	service := biz.NewService(retriever, generator, vectorStore)
	logger.Info("QA service initialized")

	// 6. 初始化 Handler 与路由
	qaHandler := handler.NewQAHandler(service)
	engine := router.New(qaHandler, opts.HTTP.BearerToken)

	// 7. 启动服务器
	logger.Infow("Document QA service is ready", "addr", opts.HTTP.Addr)
	return runServer(engine, opts.HTTP)
}
