package biz

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/docqa/internal/docqa/extract"
	"github.com/kart-io/docqa/internal/docqa/metrics"
	"github.com/kart-io/docqa/internal/docqa/store"
	"github.com/kart-io/docqa/internal/pkg/textutil"
	"github.com/kart-io/docqa/pkg/retry"
)

// PipelineConfig 摄取流水线配置。
type PipelineConfig struct {
	// ChunkSize 文本块大小（Unicode 字符数）。
	ChunkSize int
	// ChunkOverlap 块重叠大小。
	ChunkOverlap int
	// BatchSize 每个写入批次包含的文档块数量。
	BatchSize int
	// Retry 批次写入的重试配置。
	Retry *retry.Config
}

// DefaultPipelineConfig 返回默认摄取流水线配置。
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		ChunkSize:    1000,
		ChunkOverlap: 200,
		BatchSize:    20,
		Retry: &retry.Config{
			MaxAttempts:  3,
			InitialDelay: time.Second,
			Multiplier:   2.0,
		},
	}
}

// FileResult 单个文件的摄取结果。
type FileResult struct {
	// Path 文件路径。
	Path string
	// Chunks 写入的文档块数量。
	Chunks int
	// Elapsed 处理耗时。
	Elapsed time.Duration
	// Err 处理失败时的错误，成功为 nil。
	Err error
}

// Summary 一次摄取运行的汇总。
type Summary struct {
	// Processed 成功处理的文件数。
	Processed int
	// Failed 处理失败的文件数。
	Failed int
	// Skipped 因扩展名不被识别而跳过的文件数。
	Skipped int
	// TotalChunks 写入的文档块总数。
	TotalChunks int
	// Elapsed 整个运行的耗时。
	Elapsed time.Duration
	// Files 每个文件的处理结果。
	Files []FileResult
}

// Pipeline 文档摄取流水线。文件之间严格串行处理，
// 单个文件内的批次也串行写入，以约束对向量存储的负载。
type Pipeline struct {
	store     store.VectorStore
	extractor *extract.Extractor
	config    *PipelineConfig
}

// NewPipeline 创建摄取流水线实例。
func NewPipeline(vectorStore store.VectorStore, extractor *extract.Extractor, config *PipelineConfig) *Pipeline {
	if config == nil {
		config = DefaultPipelineConfig()
	}
	return &Pipeline{
		store:     vectorStore,
		extractor: extractor,
		config:    config,
	}
}

// Run 摄取 path 指向的文件或目录。
// 预检失败（向量存储不可达或集合创建失败）是致命错误；
// 单个文件的失败被记录并计入汇总，不会中断整个运行。
func (p *Pipeline) Run(ctx context.Context, path string) (*Summary, error) {
	start := time.Now()

	// 预检：向量存储必须可达，集合必须就绪
	if err := p.store.Health(ctx); err != nil {
		return nil, fmt.Errorf("vector store unreachable: %w", err)
	}
	if err := p.store.EnsureCollection(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure collection: %w", err)
	}
	logger.Info("Collection ready")

	// 重复摄取同一文档会产生内容重叠的重复块，这里不做去重
	if count, statsErr := p.store.Stats(ctx); statsErr == nil && count > 0 {
		logger.Warnw("collection already contains chunks; re-ingesting the same documents will create duplicates",
			"existing_chunks", count,
		)
	}

	files, skipped, err := p.discover(path)
	if err != nil {
		return nil, err
	}
	logger.Infow("discovered documents", "files", len(files), "skipped", skipped)

	summary := &Summary{Skipped: skipped}
	for _, file := range files {
		result := p.ingestFile(ctx, file)
		summary.Files = append(summary.Files, result)
		if result.Err != nil {
			summary.Failed++
			metrics.Get().RecordIngestion(0, 0, result.Err)
			logger.Errorw("file ingestion failed", "file", file, "error", result.Err.Error())
			continue
		}
		summary.Processed++
		summary.TotalChunks += result.Chunks
		metrics.Get().RecordIngestion(1, result.Chunks, nil)
		logger.Infow("file ingested",
			"file", file,
			"chunks", result.Chunks,
			"elapsed", result.Elapsed.String(),
		)
	}

	summary.Elapsed = time.Since(start)
	logger.Infow("ingestion completed",
		"processed", summary.Processed,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"total_chunks", summary.TotalChunks,
		"elapsed", summary.Elapsed.String(),
	)

	return summary, nil
}

// discover 解析入口路径。目录模式收集所有扩展名被识别的文件，
// 其余文件记录一条日志后跳过。
func (p *Pipeline) discover(path string) (files []string, skipped int, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if !info.IsDir() {
		if !p.extractor.Supported(path) {
			return nil, 0, fmt.Errorf("unsupported document: %s", path)
		}
		return []string{path}, 0, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read directory %s: %w", path, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		full := filepath.Join(path, entry.Name())
		if !p.extractor.Supported(full) {
			logger.Infow("skipping unrecognized file", "file", full)
			skipped++
			continue
		}
		files = append(files, full)
	}
	sort.Strings(files)

	return files, skipped, nil
}

// ingestFile 处理单个文件：提取 → 分块 → 分批写入。
// 某个批次重试耗尽后该文件标记失败并放弃剩余批次；
// 已写入的批次不回滚，文件的部分摄取是可接受的结果。
func (p *Pipeline) ingestFile(ctx context.Context, path string) FileResult {
	start := time.Now()
	result := FileResult{Path: path}

	logger.Infof("Starting processing: %s", filepath.Base(path))

	text, err := p.extractor.Extract(path)
	if err != nil {
		result.Err = fmt.Errorf("extraction failed: %w", err)
		result.Elapsed = time.Since(start)
		return result
	}

	pieces := textutil.SplitChunks(text, p.config.ChunkSize, p.config.ChunkOverlap)
	logger.Infof("Created %d chunks", len(pieces))

	chunks := make([]*store.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = &store.Chunk{
			Content:    piece,
			Source:     path,
			ChunkIndex: int64(i),
		}
	}

	for i := 0; i < len(chunks); i += p.config.BatchSize {
		end := i + p.config.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[i:end]

		logger.Infof("Inserting batch %d...", i/p.config.BatchSize+1)
		err := retry.Do(ctx, p.config.Retry, func() error {
			return p.store.BatchInsert(ctx, batch)
		})
		if err != nil {
			result.Err = fmt.Errorf("batch insert failed after retries: %w", err)
			result.Chunks = i
			result.Elapsed = time.Since(start)
			return result
		}
	}

	result.Chunks = len(chunks)
	result.Elapsed = time.Since(start)
	return result
}
