package biz_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kart-io/docqa/internal/docqa/biz"
	"github.com/kart-io/docqa/pkg/llm"
)

func TestSynthesize(t *testing.T) {
	chat := &fakeChat{response: "Igneous rock forms from cooled magma."}
	g := biz.NewGenerator(chat, nil)

	answer := g.Synthesize(context.Background(), "What rock type forms from cooled magma?", "some context")

	assert.Equal(t, "Igneous rock forms from cooled magma.", answer)
	// 用户消息为原始问题，系统消息嵌入上下文
	assert.Equal(t, "What rock type forms from cooled magma?", chat.lastPrompt)
	assert.Contains(t, chat.lastSystemPrompt, "Context:\nsome context")
	assert.NotContains(t, chat.lastSystemPrompt, "{{context}}")
}

func TestSynthesizeDegradation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "模型不可用",
			err:  fmt.Errorf("chat request: %w", llm.ErrModelNotFound),
			want: biz.AnswerModelUnavailable,
		},
		{
			name: "限流",
			err:  fmt.Errorf("chat request: %w", llm.ErrRateLimited),
			want: biz.AnswerRateLimited,
		},
		{
			name: "空响应",
			err:  llm.ErrNoContent,
			want: biz.AnswerNoContent,
		},
		{
			name: "其他服务错误",
			err:  errors.New("connection reset"),
			want: biz.AnswerGenerationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := biz.NewGenerator(&fakeChat{err: tt.err}, nil)
			answer := g.Synthesize(context.Background(), "q", "ctx")
			assert.Equal(t, tt.want, answer)
		})
	}
}

func TestSynthesizeEmptyContent(t *testing.T) {
	g := biz.NewGenerator(&fakeChat{response: ""}, nil)
	answer := g.Synthesize(context.Background(), "q", "ctx")
	assert.Equal(t, biz.AnswerNoContent, answer)
}
