package client

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"strings"
	"time"
)

// RetryConfig 重试配置（仅用于只读请求）
type RetryConfig struct {
	// MaxRetries 最大重试次数
	MaxRetries int
	// InitialDelay 初始延迟
	InitialDelay time.Duration
	// MaxDelay 最大延迟
	MaxDelay time.Duration
	// BackoffMultiplier 退避倍数
	BackoffMultiplier float64
	// Retryable 判断错误是否可重试的函数
	Retryable func(error) bool
	// OnRetry 重试前的回调函数
	OnRetry func(attempt int, err error)
}

// DefaultRetryConfig 返回默认重试配置
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        3,
		InitialDelay:      time.Second,
		MaxDelay:          10 * time.Second,
		BackoffMultiplier: 2.0,
		Retryable:         isRetryableError,
	}
}

var retryableMessages = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"network is unreachable",
	"timeout",
	"HTTP error: 5",
	"HTTP error: 429",
}

// isRetryableError 判断错误是否可重试
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	msg := err.Error()
	for _, s := range retryableMessages {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// isRetryableHTTPError 判断 HTTP 响应错误是否可重试（5xx 与 429）
func isRetryableHTTPError(statusCode int) bool {
	return statusCode == 429 || (statusCode >= 500 && statusCode < 600)
}

// calculateBackoffDelay 计算退避延迟
func calculateBackoffDelay(attempt int, config *RetryConfig) time.Duration {
	delay := float64(config.InitialDelay) * math.Pow(config.BackoffMultiplier, float64(attempt))
	if maxDelay := float64(config.MaxDelay); config.MaxDelay > 0 && delay > maxDelay {
		delay = maxDelay
	}
	return time.Duration(delay)
}

// withRetry 带重试的函数执行器
func withRetry(ctx context.Context, fn func() error, config *RetryConfig) error {
	if config == nil {
		return fn()
	}

	retryable := config.Retryable
	if retryable == nil {
		retryable = isRetryableError
	}

	var lastErr error
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt >= config.MaxRetries {
			break
		}
		if !retryable(err) {
			return err
		}

		if config.OnRetry != nil {
			config.OnRetry(attempt+1, err)
		}

		timer := time.NewTimer(calculateBackoffDelay(attempt, config))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("retry failed after %d attempts: %w", config.MaxRetries+1, lastErr)
}
