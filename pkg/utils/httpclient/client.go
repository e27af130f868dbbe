// Package httpclient provides a reusable HTTP client with retry logic and
// typed status errors for API failure classification.
package httpclient

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/kart-io/docqa/pkg/utils/json"
)

// StatusError 表示一次非 2xx 的 API 响应。
// 保留状态码和响应体中的错误码，供调用方按类别处理（而不是嗅探错误字符串）。
type StatusError struct {
	// StatusCode HTTP 状态码。
	StatusCode int
	// Code 响应体中的机器可读错误码（如 OpenAI 的 "model_not_found"），可能为空。
	Code string
	// Body 原始响应体（截断后），仅用于日志。
	Body string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("request failed with status %d (code %q)", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Body)
}

// apiErrorBody 兼容 OpenAI 风格的错误响应体。
type apiErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

const maxErrorBodyLen = 512

// Client is a wrapper around http.Client with additional functionality.
type Client struct {
	httpClient *http.Client
	maxRetries int
}

// NewClient creates a new HTTP client wrapper.
func NewClient(timeout time.Duration, maxRetries int) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: maxRetries,
	}
}

// DoRequest executes an HTTP request, retrying transport errors and 5xx
// responses. Bodies are buffered in memory so they can be replayed; LLM
// request bodies are small.
func (c *Client) DoRequest(req *http.Request) (*http.Response, error) {
	// 自动注入 W3C Trace Context 头
	c.injectTraceContext(req)

	var lastErr error

	var bodyGetter func() (io.ReadCloser, error)
	if req.Body != nil {
		bodyBytes, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		_ = req.Body.Close()
		bodyGetter = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(bodyBytes)), nil
		}
	}

	for i := 0; i <= c.maxRetries; i++ {
		if bodyGetter != nil {
			var err error
			req.Body, err = bodyGetter()
			if err != nil {
				return nil, err
			}
		}

		resp, err := c.httpClient.Do(req)
		if err == nil {
			if resp.StatusCode < 500 {
				return resp, nil
			}
			// 5xx 可重试，先关闭响应体
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("server error, status code %d", resp.StatusCode)
		} else {
			lastErr = err
		}

		if i < c.maxRetries {
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(time.Duration(i+1) * 500 * time.Millisecond):
			}
		}
	}
	return nil, lastErr
}

// DoJSON executes a JSON request, decodes the response, and ensures the body
// is closed. Non-2xx responses are returned as *StatusError.
func (c *Client) DoJSON(req *http.Request, v interface{}) error {
	resp, err := c.DoRequest(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return newStatusError(resp)
	}

	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// newStatusError 从响应中构造 StatusError，尽力解析 OpenAI 风格的错误码。
func newStatusError(resp *http.Response) *StatusError {
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))

	se := &StatusError{
		StatusCode: resp.StatusCode,
		Body:       string(bodyBytes),
	}

	var apiErr apiErrorBody
	if err := json.Unmarshal(bodyBytes, &apiErr); err == nil {
		se.Code = apiErr.Error.Code
	}
	return se
}

// injectTraceContext 将 W3C Trace Context 头注入到 HTTP 请求中，
// 从 context.Context 提取当前 Span 的追踪信息并传播到下游服务。
// 无传播器或无活跃 Span 时跳过注入（优雅降级）。
func (c *Client) injectTraceContext(req *http.Request) {
	if req == nil || req.Context() == nil {
		return
	}

	propagator := otel.GetTextMapPropagator()
	if propagator == nil {
		return
	}

	propagator.Inject(req.Context(), propagation.HeaderCarrier(req.Header))
}
