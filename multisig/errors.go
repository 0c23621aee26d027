package multisig

import (
	"errors"
	"fmt"
)

// Kind 错误类别
type Kind int

const (
	KindUnknownFailure Kind = iota
	KindProviderNotDetected
	KindProviderLocked
	KindProviderNotConnected
	KindInvalidTargetAddress
	KindInvalidThreshold
	KindNoValidControllers
	KindInsufficientControllers
	KindSubmissionFailed
	KindSigningFailed
	KindBroadcastRejected
)

var kindNames = map[Kind]string{
	KindUnknownFailure:          "UnknownFailure",
	KindProviderNotDetected:     "ProviderNotDetected",
	KindProviderLocked:          "ProviderLocked",
	KindProviderNotConnected:    "ProviderNotConnected",
	KindInvalidTargetAddress:    "InvalidTargetAddress",
	KindInvalidThreshold:        "InvalidThreshold",
	KindNoValidControllers:      "NoValidControllers",
	KindInsufficientControllers: "InsufficientControllers",
	KindSubmissionFailed:        "SubmissionFailed",
	KindSigningFailed:           "SigningFailed",
	KindBroadcastRejected:       "BroadcastRejected",
}

// 面向用户的默认提示
var kindMessages = map[Kind]string{
	KindUnknownFailure:          GenericFailureMessage,
	KindProviderNotDetected:     "未检测到TronLink，请确保在TronLink中打开",
	KindProviderLocked:          "TronLink未解锁，请先登录钱包账户",
	KindProviderNotConnected:    "请确保在TronLink中打开此页面",
	KindInvalidTargetAddress:    "被控制地址格式不正确",
	KindInvalidThreshold:        "所需签名数必须大于0",
	KindNoValidControllers:      "请至少填写一个有效的控制地址",
	KindInsufficientControllers: "有效控制地址数量少于所需签名数",
	KindSubmissionFailed:        "创建权限更新交易失败",
	KindSigningFailed:           "签名失败",
	KindBroadcastRejected:       "交易被拒绝",
}

// GenericFailureMessage 无法得到更具体信息时的提示
const GenericFailureMessage = "设置失败，请重试"

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error 工作流错误
type Error struct {
	Kind        Kind
	UserMessage string
	Cause       error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.UserMessage, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.UserMessage)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is 按类别比较，使 errors.Is(err, ErrSigningFailed) 成立
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// 哨兵错误，仅用于 errors.Is 比较
var (
	ErrUnknownFailure          = &Error{Kind: KindUnknownFailure, UserMessage: kindMessages[KindUnknownFailure]}
	ErrProviderNotDetected     = &Error{Kind: KindProviderNotDetected, UserMessage: kindMessages[KindProviderNotDetected]}
	ErrProviderLocked          = &Error{Kind: KindProviderLocked, UserMessage: kindMessages[KindProviderLocked]}
	ErrProviderNotConnected    = &Error{Kind: KindProviderNotConnected, UserMessage: kindMessages[KindProviderNotConnected]}
	ErrInvalidTargetAddress    = &Error{Kind: KindInvalidTargetAddress, UserMessage: kindMessages[KindInvalidTargetAddress]}
	ErrInvalidThreshold        = &Error{Kind: KindInvalidThreshold, UserMessage: kindMessages[KindInvalidThreshold]}
	ErrNoValidControllers      = &Error{Kind: KindNoValidControllers, UserMessage: kindMessages[KindNoValidControllers]}
	ErrInsufficientControllers = &Error{Kind: KindInsufficientControllers, UserMessage: kindMessages[KindInsufficientControllers]}
	ErrSubmissionFailed        = &Error{Kind: KindSubmissionFailed, UserMessage: kindMessages[KindSubmissionFailed]}
	ErrSigningFailed           = &Error{Kind: KindSigningFailed, UserMessage: kindMessages[KindSigningFailed]}
	ErrBroadcastRejected       = &Error{Kind: KindBroadcastRejected, UserMessage: kindMessages[KindBroadcastRejected]}
)

func newError(kind Kind, cause error) *Error {
	return &Error{
		Kind:        kind,
		UserMessage: kindMessages[kind],
		Cause:       cause,
	}
}

// KindOf 返回错误类别，非 *Error 的错误归为 KindUnknownFailure
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknownFailure
}

// UserMessage 将任意错误转换为一条面向用户的提示
//
// 保留底层错误的原始文本；没有可用文本时返回通用提示。
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		msg := e.UserMessage
		if msg == "" {
			msg = GenericFailureMessage
		}
		if e.Cause != nil && e.Cause.Error() != "" {
			return msg + ": " + e.Cause.Error()
		}
		return msg
	}
	if text := err.Error(); text != "" {
		return text
	}
	return GenericFailureMessage
}
