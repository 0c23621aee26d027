package client

import (
	"fmt"

	"github.com/Khanviph/tron1/types"
)

// Error 客户端错误
type Error struct {
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("client error [%d]: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("client error [%d]: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsNodeError 检查错误是否为节点业务错误
func IsNodeError(err error) (*types.NodeError, bool) {
	return types.IsNodeError(err)
}

// 错误码定义
const (
	ErrCodeNetwork         = 1000 // 网络错误
	ErrCodeTimeout         = 1001 // 超时错误
	ErrCodeInvalidResponse = 1002 // 无效响应
	ErrCodeHTTPStatus      = 1003 // HTTP 状态码错误
	ErrCodeNotSupported    = 1004 // 不支持的操作
)

// NewNetworkError 创建网络错误
func NewNetworkError(err error) *Error {
	return &Error{
		Code:    ErrCodeNetwork,
		Message: "network error",
		Err:     err,
	}
}

// NewTimeoutError 创建超时错误
func NewTimeoutError() *Error {
	return &Error{
		Code:    ErrCodeTimeout,
		Message: "request timeout",
	}
}

// NewInvalidResponseError 创建无效响应错误
func NewInvalidResponseError(message string) *Error {
	return &Error{
		Code:    ErrCodeInvalidResponse,
		Message: message,
	}
}

// NewHTTPStatusError 创建 HTTP 状态码错误
func NewHTTPStatusError(status int, body string) *Error {
	return &Error{
		Code:    ErrCodeHTTPStatus,
		Message: fmt.Sprintf("HTTP error: %d, body: %s", status, body),
	}
}

// NewNotSupportedError 创建不支持的操作错误
func NewNotSupportedError(operation string) *Error {
	return &Error{
		Code:    ErrCodeNotSupported,
		Message: fmt.Sprintf("operation not supported: %s", operation),
	}
}
