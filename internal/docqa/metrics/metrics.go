// Package metrics 提供问答服务的业务指标收集。
package metrics

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics 问答服务业务指标。
type Metrics struct {
	// 问答指标
	questionsTotal    uint64 // 总问答次数
	questionsDegraded uint64 // 降级回答次数

	// 检索指标
	retrievalTotal  uint64 // 总检索次数
	retrievalErrors uint64 // 检索错误次数

	// LLM 调用指标
	llmCallsTotal  uint64 // LLM 总调用次数
	llmCallsErrors uint64 // LLM 调用错误次数
	llmTokensTotal uint64 // Token 总数

	// 摄取指标
	documentsIngested uint64 // 已摄取文档数
	chunksIngested    uint64 // 已摄取分块数
	ingestErrors      uint64 // 摄取错误次数

	startTime time.Time
}

// 全局指标实例。
var (
	global *Metrics
	once   sync.Once
)

// Get 获取全局指标实例。
func Get() *Metrics {
	once.Do(func() {
		global = &Metrics{startTime: time.Now()}
	})
	return global
}

// RecordQuestion 记录一次问答。degraded 表示回答是降级兜底字符串。
func (m *Metrics) RecordQuestion(degraded bool) {
	atomic.AddUint64(&m.questionsTotal, 1)
	if degraded {
		atomic.AddUint64(&m.questionsDegraded, 1)
	}
}

// RecordRetrieval 记录一次检索。
func (m *Metrics) RecordRetrieval(err error) {
	atomic.AddUint64(&m.retrievalTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.retrievalErrors, 1)
	}
}

// RecordLLMCall 记录一次 LLM 调用。
func (m *Metrics) RecordLLMCall(totalTokens int, err error) {
	atomic.AddUint64(&m.llmCallsTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.llmCallsErrors, 1)
		return
	}
	if totalTokens > 0 {
		atomic.AddUint64(&m.llmTokensTotal, uint64(totalTokens))
	}
}

// RecordIngestion 记录摄取结果。
func (m *Metrics) RecordIngestion(documents, chunks int, err error) {
	if err != nil {
		atomic.AddUint64(&m.ingestErrors, 1)
		return
	}
	atomic.AddUint64(&m.documentsIngested, uint64(documents))
	atomic.AddUint64(&m.chunksIngested, uint64(chunks))
}

// Export 导出 Prometheus 文本格式指标。
func (m *Metrics) Export(namespace string) string {
	var sb strings.Builder

	counter := func(name, help string, value uint64) {
		sb.WriteString(fmt.Sprintf("# HELP %s_%s %s\n", namespace, name, help))
		sb.WriteString(fmt.Sprintf("# TYPE %s_%s counter\n", namespace, name))
		sb.WriteString(fmt.Sprintf("%s_%s %d\n\n", namespace, name, value))
	}

	counter("questions_total", "Total number of questions answered.", atomic.LoadUint64(&m.questionsTotal))
	counter("questions_degraded_total", "Number of degraded fallback answers.", atomic.LoadUint64(&m.questionsDegraded))
	counter("retrieval_total", "Total number of retrievals.", atomic.LoadUint64(&m.retrievalTotal))
	counter("retrieval_errors_total", "Number of retrieval errors.", atomic.LoadUint64(&m.retrievalErrors))
	counter("llm_calls_total", "Total number of LLM calls.", atomic.LoadUint64(&m.llmCallsTotal))
	counter("llm_calls_errors_total", "Number of LLM call errors.", atomic.LoadUint64(&m.llmCallsErrors))
	counter("llm_tokens_total", "Total tokens consumed.", atomic.LoadUint64(&m.llmTokensTotal))
	counter("documents_ingested_total", "Total documents ingested.", atomic.LoadUint64(&m.documentsIngested))
	counter("chunks_ingested_total", "Total chunks ingested.", atomic.LoadUint64(&m.chunksIngested))
	counter("ingest_errors_total", "Number of ingestion errors.", atomic.LoadUint64(&m.ingestErrors))

	uptime := time.Since(m.startTime).Seconds()
	sb.WriteString(fmt.Sprintf("# HELP %s_uptime_seconds Service uptime in seconds.\n", namespace))
	sb.WriteString(fmt.Sprintf("# TYPE %s_uptime_seconds gauge\n", namespace))
	sb.WriteString(fmt.Sprintf("%s_uptime_seconds %.2f\n", namespace, uptime))

	return sb.String()
}

// Stats 返回当前统计信息（用于 API）。
func (m *Metrics) Stats() map[string]any {
	return map[string]any{
		"questions": map[string]any{
			"total":    atomic.LoadUint64(&m.questionsTotal),
			"degraded": atomic.LoadUint64(&m.questionsDegraded),
		},
		"retrieval": map[string]any{
			"total":  atomic.LoadUint64(&m.retrievalTotal),
			"errors": atomic.LoadUint64(&m.retrievalErrors),
		},
		"llm": map[string]any{
			"calls_total":  atomic.LoadUint64(&m.llmCallsTotal),
			"errors":       atomic.LoadUint64(&m.llmCallsErrors),
			"tokens_total": atomic.LoadUint64(&m.llmTokensTotal),
		},
		"ingestion": map[string]any{
			"documents": atomic.LoadUint64(&m.documentsIngested),
			"chunks":    atomic.LoadUint64(&m.chunksIngested),
			"errors":    atomic.LoadUint64(&m.ingestErrors),
		},
		"uptime_seconds": time.Since(m.startTime).Seconds(),
	}
}

// Reset 重置所有指标（仅用于测试）。
func (m *Metrics) Reset() {
	atomic.StoreUint64(&m.questionsTotal, 0)
	atomic.StoreUint64(&m.questionsDegraded, 0)
	atomic.StoreUint64(&m.retrievalTotal, 0)
	atomic.StoreUint64(&m.retrievalErrors, 0)
	atomic.StoreUint64(&m.llmCallsTotal, 0)
	atomic.StoreUint64(&m.llmCallsErrors, 0)
	atomic.StoreUint64(&m.llmTokensTotal, 0)
	atomic.StoreUint64(&m.documentsIngested, 0)
	atomic.StoreUint64(&m.chunksIngested, 0)
	atomic.StoreUint64(&m.ingestErrors, 0)
	m.startTime = time.Now()
}
