// Package provider 定义钱包提供者能力接口及其实现。
//
// 提供者负责地址校验、hex 转换、交易签名与广播，私钥只存在于提供者内部。
package provider

import (
	"context"

	"github.com/Khanviph/tron1/types"
)

// AddressCodec 地址校验与转换能力
type AddressCodec interface {
	IsAddress(addr string) bool
	ToHex(addr string) (string, error)
}

// Provider 钱包提供者能力
type Provider interface {
	AddressCodec

	// Ready 提供者是否已就绪
	Ready() bool

	// DefaultAddress 当前默认账户（Base58），未解锁时为空
	DefaultAddress() string

	// Sign 请求签名，可能等待用户在外部确认
	Sign(ctx context.Context, tx *types.Transaction) (*types.Transaction, error)

	// SendRawTransaction 广播已签名交易
	SendRawTransaction(ctx context.Context, tx *types.Transaction) (*types.BroadcastResult, error)

	// Request 调用节点 API 并返回交易信封
	Request(ctx context.Context, path string, body interface{}, method string) (*types.Transaction, error)

	// GetNodeInfo 查询节点信息（仅用于诊断）
	GetNodeInfo(ctx context.Context) (map[string]interface{}, error)
}

// HostReporter 可选能力：报告当前连接的节点地址
type HostReporter interface {
	Host() string
}

// Locator 查找提供者，尚未注入时返回 nil
type Locator interface {
	Lookup() Provider
}

// LocatorFunc 函数形式的 Locator
type LocatorFunc func() Provider

// Lookup 实现 Locator
func (f LocatorFunc) Lookup() Provider {
	return f()
}

// Static 始终返回同一个提供者的 Locator
func Static(p Provider) Locator {
	return LocatorFunc(func() Provider { return p })
}
