package textutil_test

import (
	"strings"
	"testing"

	"github.com/kart-io/docqa/internal/pkg/textutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashString(t *testing.T) {
	// 相同输入应产生相同输出
	hash1 := textutil.HashString("test")
	hash2 := textutil.HashString("test")
	assert.Equal(t, hash1, hash2)

	// 不同输入应产生不同输出
	hash3 := textutil.HashString("different")
	assert.NotEqual(t, hash1, hash3)

	// 哈希应为32字符的十六进制字符串
	assert.Len(t, hash1, 32)
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{"短于限制", "hello", 10, "hello"},
		{"等于限制", "hello", 5, "hello"},
		{"超过限制", "hello world", 5, "hello"},
		{"中文字符", "你好世界", 2, "你好"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, textutil.TruncateString(tt.input, tt.maxLen))
		})
	}
}

func TestSplitChunksEmptyInput(t *testing.T) {
	assert.Nil(t, textutil.SplitChunks("", 1000, 200))
	assert.Nil(t, textutil.SplitChunks("   \n\t  ", 1000, 200))
	assert.Nil(t, textutil.SplitChunks("text", 0, 0))
}

func TestSplitChunksShortInput(t *testing.T) {
	chunks := textutil.SplitChunks("short text", 1000, 200)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short text", chunks[0])
}

func TestSplitChunksSize(t *testing.T) {
	text := strings.Repeat("a", 2500)
	chunks := textutil.SplitChunks(text, 1000, 200)

	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 1000)
	}
}

func TestSplitChunksPrefersParagraphBoundary(t *testing.T) {
	para1 := strings.Repeat("a", 700)
	para2 := strings.Repeat("b", 700)
	text := para1 + "\n\n" + para2

	chunks := textutil.SplitChunks(text, 1000, 200)
	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, para1+"\n\n", chunks[0])
}

func TestSplitChunksPrefersSentenceBoundary(t *testing.T) {
	sentence := strings.Repeat("word ", 150) + "end."
	text := sentence + " " + strings.Repeat("tail ", 200)

	chunks := textutil.SplitChunks(text, 1000, 200)
	require.GreaterOrEqual(t, len(chunks), 2)
	assert.True(t, strings.HasSuffix(chunks[0], "end."),
		"first chunk should end at the sentence boundary, got %q", chunks[0][len(chunks[0])-20:])
}

func TestSplitChunksWordBoundaryFallback(t *testing.T) {
	// 无段落和句子边界，应退回到空格处切割
	text := strings.Repeat("abcdefghi ", 300)
	chunks := textutil.SplitChunks(text, 1000, 200)

	require.GreaterOrEqual(t, len(chunks), 2)
	assert.True(t, strings.HasSuffix(chunks[0], " "))
}

func TestSplitChunksHardCut(t *testing.T) {
	// 完全没有边界时按字符硬切
	text := strings.Repeat("x", 2500)
	chunks := textutil.SplitChunks(text, 1000, 200)

	require.NotEmpty(t, chunks)
	assert.Len(t, []rune(chunks[0]), 1000)
}

func TestSplitChunksRoundTrip(t *testing.T) {
	overlap := 200

	tests := []struct {
		name string
		text string
	}{
		{"纯 ASCII 无边界", strings.Repeat("z", 3333)},
		{"带段落", strings.Repeat("The quick brown fox jumps over the lazy dog.\n\n", 80)},
		{"带句子", strings.Repeat("Igneous rock forms from cooled magma. ", 120)},
		{"中文文本", strings.Repeat("岩浆冷却后形成火成岩。", 300)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := textutil.SplitChunks(tt.text, 1000, overlap)
			require.NotEmpty(t, chunks)

			// 拼接所有块并去掉后续块开头的重叠部分，应精确还原原文
			var b strings.Builder
			b.WriteString(chunks[0])
			for _, c := range chunks[1:] {
				runes := []rune(c)
				require.Greater(t, len(runes), overlap)
				b.WriteString(string(runes[overlap:]))
			}
			assert.Equal(t, tt.text, b.String())
		})
	}
}

func TestSplitChunksOverlap(t *testing.T) {
	text := strings.Repeat("m", 2500)
	chunks := textutil.SplitChunks(text, 1000, 200)
	require.GreaterOrEqual(t, len(chunks), 2)

	// 相邻块之间共享 overlap 个字符
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		cur := []rune(chunks[i])
		assert.Equal(t, string(prev[len(prev)-200:]), string(cur[:200]))
	}
}
