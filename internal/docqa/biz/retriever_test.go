package biz_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/docqa/internal/docqa/biz"
	"github.com/kart-io/docqa/internal/docqa/store"
)

func TestRetrieve(t *testing.T) {
	fs := &fakeStore{
		searchChunks: []*store.ScoredChunk{
			scored("Igneous rock forms from cooled magma.", "geo101.pdf", 0, 0.95),
			scored("Sedimentary rock forms in layers.", "geo101.pdf", 1, 0.85),
		},
	}
	r := biz.NewRetriever(fs, nil)

	result, err := r.Retrieve(context.Background(), "What rock type forms from cooled magma?")
	require.NoError(t, err)

	assert.Len(t, result.Chunks, 2)
	assert.Equal(t, []string{"geo101.pdf"}, result.References)
	assert.Contains(t, result.Context, "Source: geo101.pdf\nContent: Igneous rock forms from cooled magma.")
	assert.Contains(t, result.Context, "\n\n---\n\n")
}

func TestRetrieveReferencesFirstSeenOrder(t *testing.T) {
	fs := &fakeStore{
		searchChunks: []*store.ScoredChunk{
			scored("a", "b.pdf", 0, 0.9),
			scored("b", "a.pdf", 0, 0.8),
			scored("c", "b.pdf", 1, 0.7),
			scored("d", "c.pdf", 0, 0.6),
			scored("e", "a.pdf", 1, 0.5),
		},
	}
	r := biz.NewRetriever(fs, nil)

	result, err := r.Retrieve(context.Background(), "q")
	require.NoError(t, err)

	// 每个源恰好出现一次，顺序为首次出现顺序
	assert.Equal(t, []string{"b.pdf", "a.pdf", "c.pdf"}, result.References)
}

func TestRetrieveNoMatches(t *testing.T) {
	r := biz.NewRetriever(&fakeStore{}, nil)

	result, err := r.Retrieve(context.Background(), "q")
	require.NoError(t, err)

	assert.Empty(t, result.Chunks)
	assert.Empty(t, result.References)
	assert.Equal(t, biz.NoContextPlaceholder, result.Context)
}

func TestRetrieveContextTruncation(t *testing.T) {
	fs := &fakeStore{
		searchChunks: []*store.ScoredChunk{
			scored(longText(3000), "a.txt", 0, 0.9),
			scored(longText(3000), "b.txt", 0, 0.8),
		},
	}
	r := biz.NewRetriever(fs, nil)

	result, err := r.Retrieve(context.Background(), "q")
	require.NoError(t, err)

	// 截断到预算后追加省略号
	assert.True(t, strings.HasSuffix(result.Context, "..."))
	assert.Len(t, []rune(result.Context), 4000+3)
}

func TestRetrieveContextWithinBudget(t *testing.T) {
	fs := &fakeStore{
		searchChunks: []*store.ScoredChunk{
			scored("short content", "a.txt", 0, 0.9),
		},
	}
	r := biz.NewRetriever(fs, nil)

	result, err := r.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	assert.False(t, strings.HasSuffix(result.Context, "..."))
}

func TestRetrieveSearchError(t *testing.T) {
	fs := &fakeStore{searchErr: errors.New("store down")}
	r := biz.NewRetriever(fs, nil)

	_, err := r.Retrieve(context.Background(), "q")
	assert.ErrorContains(t, err, "store down")
}
