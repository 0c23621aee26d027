package types

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NodeError 节点返回的业务错误
//
// TRON 节点的失败响应有两种形态：
//   - {"Error": "class org.tron.core.exception.ContractValidateException : ..."}
//   - {"code": "CONTRACT_VALIDATE_ERROR", "message": "<hex 编码的文本>"}
type NodeError struct {
	Code      string
	Message   string
	TraceID   string
	Timestamp string
}

func (e *NodeError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return e.Message
}

// IsNodeError 检查错误是否为 NodeError
func IsNodeError(err error) (*NodeError, bool) {
	if nodeErr, ok := err.(*NodeError); ok {
		return nodeErr, true
	}
	return nil, false
}

// ParseNodeError 从节点响应中解析错误，响应不含错误时返回 false
func ParseNodeError(resp map[string]interface{}) (*NodeError, bool) {
	if resp == nil {
		return nil, false
	}

	if msg, ok := resp["Error"].(string); ok && msg != "" {
		return newNodeError("", msg), true
	}

	code, _ := resp["code"].(string)
	if code == "" || code == "SUCCESS" {
		return nil, false
	}
	msg, _ := resp["message"].(string)
	return newNodeError(code, DecodeNodeMessage(msg)), true
}

// DecodeNodeMessage 节点的 message 字段通常是 hex 编码的 UTF-8 文本，解码失败则原样返回
func DecodeNodeMessage(msg string) string {
	if msg == "" || len(msg)%2 != 0 {
		return msg
	}
	decoded, err := hex.DecodeString(strings.TrimPrefix(msg, "0x"))
	if err != nil {
		return msg
	}
	return string(decoded)
}

func newNodeError(code, msg string) *NodeError {
	return &NodeError{
		Code:      code,
		Message:   msg,
		TraceID:   uuid.New().String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
