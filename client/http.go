package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Khanviph/tron1/types"
)

// httpClient HTTP客户端实现
type httpClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   Logger
	debug    bool
	retry    *RetryConfig
}

// NewHTTPClient 创建HTTP客户端
func NewHTTPClient(config *Config) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	retryConfig := config.Retry
	if retryConfig == nil {
		retryConfig = DefaultRetryConfig()
		if config.Logger != nil {
			logger := config.Logger
			retryConfig.OnRetry = func(attempt int, err error) {
				logger.Warn("Retrying request", "attempt", attempt, "error", err)
			}
		}
	}

	return &httpClient{
		endpoint: strings.TrimRight(config.Endpoint, "/"),
		apiKey:   config.APIKey,
		client:   &http.Client{Timeout: timeout},
		logger:   config.Logger,
		debug:    config.Debug,
		retry:    retryConfig,
	}, nil
}

// Request 调用节点 HTTP API
//
// 只读请求（GET 或 /wallet/getnodeinfo）按 RetryConfig 重试；
// 会产生交易的请求只发送一次。
func (c *httpClient) Request(ctx context.Context, path string, body interface{}, method string) (map[string]interface{}, error) {
	respBody, err := c.do(ctx, path, body, method)
	if err != nil {
		return nil, err
	}

	// UseNumber 保证 raw_data 中的整数原样回传给节点
	var result map[string]interface{}
	decoder := json.NewDecoder(bytes.NewReader(respBody))
	decoder.UseNumber()
	if err := decoder.Decode(&result); err != nil {
		return nil, fmt.Errorf("unmarshal response failed: %w", err)
	}
	if nodeErr, ok := types.ParseNodeError(result); ok {
		return nil, nodeErr
	}
	return result, nil
}

// AccountPermissionUpdate 创建未签名的权限更新交易
func (c *httpClient) AccountPermissionUpdate(ctx context.Context, req *types.AccountPermissionUpdateRequest) (*types.Transaction, error) {
	if req == nil {
		return nil, fmt.Errorf("request is nil")
	}
	result, err := c.Request(ctx, PathAccountPermissionUpdate, req, http.MethodPost)
	if err != nil {
		return nil, err
	}
	return DecodeTransaction(result)
}

// BroadcastTransaction 广播已签名交易
//
// 节点拒绝交易时返回 Result=false 而不是 error，Message 已解码为明文。
func (c *httpClient) BroadcastTransaction(ctx context.Context, tx *types.Transaction) (*types.BroadcastResult, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction is nil")
	}
	respBody, err := c.do(ctx, PathBroadcastTransaction, tx, http.MethodPost)
	if err != nil {
		return nil, err
	}

	var result types.BroadcastResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("unmarshal response failed: %w", err)
	}
	result.Message = types.DecodeNodeMessage(result.Message)
	return &result, nil
}

// GetNodeInfo 查询节点信息
func (c *httpClient) GetNodeInfo(ctx context.Context) (map[string]interface{}, error) {
	return c.Request(ctx, PathGetNodeInfo, nil, http.MethodGet)
}

// Endpoint 当前节点地址
func (c *httpClient) Endpoint() string {
	return c.endpoint
}

// Close 关闭连接（HTTP客户端无需特殊处理）
func (c *httpClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

func (c *httpClient) do(ctx context.Context, path string, body interface{}, method string) ([]byte, error) {
	method = strings.ToUpper(method)
	if method == "" {
		method = http.MethodPost
	}
	if method != http.MethodGet && method != http.MethodPost {
		return nil, NewNotSupportedError("HTTP method " + method)
	}

	var reqBody []byte
	if body != nil {
		var err error
		reqBody, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request failed: %w", err)
		}
	}

	url := c.endpoint + "/" + strings.TrimLeft(path, "/")
	if c.debug && c.logger != nil {
		c.logger.Debug("Node request", "method", method, "url", url, "body", string(reqBody))
	}

	send := func() (*http.Response, error) {
		// 每次重试都创建新的请求（Body 只能读取一次）
		var reader io.Reader
		if reqBody != nil {
			reader = bytes.NewReader(reqBody)
		}
		httpReq, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, fmt.Errorf("create request failed: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			httpReq.Header.Set("TRON-PRO-API-KEY", c.apiKey)
		}
		return c.client.Do(httpReq)
	}

	var resp *http.Response
	if c.retry != nil && isReadOnly(method, path) {
		err := withRetry(ctx, func() error {
			httpResp, reqErr := send()
			if reqErr != nil {
				return reqErr
			}
			if isRetryableHTTPError(httpResp.StatusCode) {
				httpResp.Body.Close()
				return fmt.Errorf("HTTP error: %d", httpResp.StatusCode)
			}
			resp = httpResp
			return nil
		}, c.retry)
		if err != nil {
			return nil, wrapTransportError(err)
		}
	} else {
		var err error
		resp, err = send()
		if err != nil {
			return nil, wrapTransportError(err)
		}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil && c.logger != nil {
			c.logger.Warn("Failed to close response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response failed: %w", err)
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("Node response", "status", resp.StatusCode, "body", string(respBody))
	}

	if resp.StatusCode != http.StatusOK {
		var payload map[string]interface{}
		if json.Unmarshal(respBody, &payload) == nil {
			if nodeErr, ok := types.ParseNodeError(payload); ok {
				return nil, nodeErr
			}
		}
		return nil, NewHTTPStatusError(resp.StatusCode, string(respBody))
	}
	if len(bytes.TrimSpace(respBody)) == 0 {
		return nil, NewInvalidResponseError("empty response body")
	}

	return respBody, nil
}

// DecodeTransaction 将节点返回的 JSON 对象转换为交易结构
func DecodeTransaction(result map[string]interface{}) (*types.Transaction, error) {
	if result == nil {
		return nil, NewInvalidResponseError("empty transaction response")
	}
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal transaction failed: %w", err)
	}
	var tx types.Transaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, fmt.Errorf("unmarshal transaction failed: %w", err)
	}
	return &tx, nil
}

func isReadOnly(method, path string) bool {
	return method == http.MethodGet || strings.TrimRight(path, "/") == PathGetNodeInfo
}

func wrapTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError()
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return NewNetworkError(err)
}
