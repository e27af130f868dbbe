package biz_test

import (
	"context"
	"strings"

	"github.com/kart-io/docqa/internal/docqa/store"
	"github.com/kart-io/docqa/pkg/llm"
)

func scored(content, source string, index int64, certainty float64) *store.ScoredChunk {
	return &store.ScoredChunk{
		Chunk: store.Chunk{
			Content:    content,
			Source:     source,
			ChunkIndex: index,
		},
		Certainty: &certainty,
	}
}

type fakeStore struct {
	healthErr error
	ensureErr error

	searchChunks []*store.ScoredChunk
	searchErr    error

	insertErr   error
	insertCalls int
	batches     [][]*store.Chunk

	statsCount int64
	statsErr   error
}

func (f *fakeStore) EnsureCollection(ctx context.Context) error { return f.ensureErr }

func (f *fakeStore) Health(ctx context.Context) error { return f.healthErr }

func (f *fakeStore) Search(ctx context.Context, queryText string, limit int, maxDistance float64) ([]*store.ScoredChunk, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchChunks, nil
}

func (f *fakeStore) BatchInsert(ctx context.Context, chunks []*store.Chunk) error {
	f.insertCalls++
	if f.insertErr != nil {
		return f.insertErr
	}
	f.batches = append(f.batches, chunks)
	return nil
}

func (f *fakeStore) Stats(ctx context.Context) (int64, error) { return f.statsCount, f.statsErr }

func (f *fakeStore) Close(ctx context.Context) error { return nil }

type fakeChat struct {
	response string
	err      error

	lastPrompt       string
	lastSystemPrompt string
}

func (f *fakeChat) Chat(ctx context.Context, messages []llm.Message) (*llm.GenerateResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.GenerateResponse{Content: f.response}, nil
}

func (f *fakeChat) Generate(ctx context.Context, prompt string, systemPrompt string) (*llm.GenerateResponse, error) {
	f.lastPrompt = prompt
	f.lastSystemPrompt = systemPrompt
	if f.err != nil {
		return nil, f.err
	}
	return &llm.GenerateResponse{
		Content:    f.response,
		TokenUsage: &llm.TokenUsage{TotalTokens: 15},
	}, nil
}

func (f *fakeChat) Name() string { return "fake" }

func longText(n int) string {
	return strings.Repeat("x", n)
}
