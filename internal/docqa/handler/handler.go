// Package handler provides HTTP handlers for the document QA service.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/docqa/internal/docqa/biz"
	"github.com/kart-io/docqa/internal/docqa/metrics"
)

// answerTimeout 单次问答请求的超时上限。
const answerTimeout = 60 * time.Second

// QuestionService 是 handler 对业务层的依赖面。
type QuestionService interface {
	Answer(ctx context.Context, question string) *biz.Answer
	Stats(ctx context.Context) (int64, error)
	Health(ctx context.Context) error
}

// QAHandler handles question answering HTTP requests.
type QAHandler struct {
	service QuestionService
}

// NewQAHandler creates a new QAHandler.
func NewQAHandler(service QuestionService) *QAHandler {
	return &QAHandler{service: service}
}

// SuccessResponse is a standard success response.
type SuccessResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// AskRequest represents a question request.
type AskRequest struct {
	Question string `json:"question" binding:"required"`
}

// Ask 回答一个问题。问题缺失返回 400；业务层永不返回错误，
// 内部失败以固定的降级回答体现，HTTP 状态始终为 200。
func (h *QAHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Message: "Question is required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), answerTimeout)
	defer cancel()

	answer := h.service.Answer(ctx, req.Question)
	c.JSON(http.StatusOK, answer)
}

// Healthz 报告向量存储可达性。
func (h *QAHandler) Healthz(c *gin.Context) {
	if err := h.service.Health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Code: 503, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "ok"})
}

// Stats 返回集合行数与服务指标快照。
func (h *QAHandler) Stats(c *gin.Context) {
	count, err := h.service.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Code:    0,
		Message: "success",
		Data: map[string]interface{}{
			"chunk_count": count,
			"service":     metrics.Get().Stats(),
		},
	})
}

// Metrics exposes service counters in Prometheus text format.
func (h *QAHandler) Metrics(c *gin.Context) {
	c.Data(http.StatusOK, "text/plain; version=0.0.4; charset=utf-8",
		[]byte(metrics.Get().Export("docqa")))
}
