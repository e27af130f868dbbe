package biz_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/docqa/internal/docqa/biz"
	"github.com/kart-io/docqa/internal/docqa/extract"
	"github.com/kart-io/docqa/pkg/retry"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func noSleepRetry(maxAttempts int, delays *[]time.Duration) *retry.Config {
	return &retry.Config{
		MaxAttempts:  maxAttempts,
		InitialDelay: time.Second,
		Multiplier:   2.0,
		Sleep: func(ctx context.Context, d time.Duration) error {
			if delays != nil {
				*delays = append(*delays, d)
			}
			return nil
		},
	}
}

func newTestPipeline(fs *fakeStore, config *biz.PipelineConfig) *biz.Pipeline {
	return biz.NewPipeline(fs, extract.NewExtractor(), config)
}

func TestPipelineRunDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "Igneous rock forms from cooled magma.")
	writeFile(t, dir, "b.md", "Sedimentary rock forms in layers.")
	writeFile(t, dir, "image.png", "not a document")

	fs := &fakeStore{}
	p := newTestPipeline(fs, nil)

	summary, err := p.Run(context.Background(), dir)
	require.NoError(t, err)

	// 两个文档被处理，非文档文件被跳过
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Positive(t, summary.TotalChunks)
	assert.Len(t, summary.Files, 2)
}

func TestPipelineRunSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "doc.txt", "Some document content.")

	fs := &fakeStore{}
	p := newTestPipeline(fs, nil)

	summary, err := p.Run(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.TotalChunks)
}

func TestPipelinePreflightFatal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "content")

	fs := &fakeStore{healthErr: errors.New("connection refused")}
	p := newTestPipeline(fs, nil)

	_, err := p.Run(context.Background(), dir)
	assert.ErrorContains(t, err, "vector store unreachable")
}

func TestPipelineEnsureCollectionFatal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "content")

	fs := &fakeStore{ensureErr: errors.New("schema error")}
	p := newTestPipeline(fs, nil)

	_, err := p.Run(context.Background(), dir)
	assert.ErrorContains(t, err, "failed to ensure collection")
}

func TestPipelineBatchPartitioning(t *testing.T) {
	dir := t.TempDir()
	// 无边界文本，100 字符块硬切，产生 7 个块
	writeFile(t, dir, "big.txt", strings.Repeat("y", 700))

	fs := &fakeStore{}
	p := newTestPipeline(fs, &biz.PipelineConfig{
		ChunkSize:    100,
		ChunkOverlap: 0,
		BatchSize:    3,
		Retry:        noSleepRetry(3, nil),
	})

	summary, err := p.Run(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 7, summary.TotalChunks)

	// 7 个块按批大小 3 分为 3 个批次
	require.Len(t, fs.batches, 3)
	assert.Len(t, fs.batches[0], 3)
	assert.Len(t, fs.batches[1], 3)
	assert.Len(t, fs.batches[2], 1)

	// 块序号连续且从 0 开始
	var indexes []int64
	for _, batch := range fs.batches {
		for _, c := range batch {
			indexes = append(indexes, c.ChunkIndex)
		}
	}
	assert.Equal(t, []int64{0, 1, 2, 3, 4, 5, 6}, indexes)
}

func TestPipelineRetryExhaustion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "content")

	var delays []time.Duration
	fs := &fakeStore{insertErr: errors.New("write timeout")}
	p := newTestPipeline(fs, &biz.PipelineConfig{
		ChunkSize:    1000,
		ChunkOverlap: 200,
		BatchSize:    20,
		Retry:        noSleepRetry(3, &delays),
	})

	summary, err := p.Run(context.Background(), dir)
	require.NoError(t, err)

	// 失败是文件级的，不会中断整个运行
	assert.Equal(t, 0, summary.Processed)
	assert.Equal(t, 1, summary.Failed)

	// 共 3 次尝试，指数退避
	assert.Equal(t, 3, fs.insertCalls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
}

func TestPipelineContinuesAfterFileFailure(t *testing.T) {
	dir := t.TempDir()
	// 损坏的 docx（非 zip），提取失败
	writeFile(t, dir, "broken.docx", "not a zip archive")
	writeFile(t, dir, "ok.txt", "valid content")

	fs := &fakeStore{}
	p := newTestPipeline(fs, &biz.PipelineConfig{
		ChunkSize:    1000,
		ChunkOverlap: 200,
		BatchSize:    20,
		Retry:        noSleepRetry(3, nil),
	})

	summary, err := p.Run(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Failed)
}

func TestPipelineUnsupportedSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "image.png", "binary")

	p := newTestPipeline(&fakeStore{}, nil)

	_, err := p.Run(context.Background(), path)
	assert.ErrorContains(t, err, "unsupported document")
}
