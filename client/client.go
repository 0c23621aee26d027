package client

import (
	"context"

	"github.com/Khanviph/tron1/types"
)

// 节点 HTTP API 路径
const (
	PathAccountPermissionUpdate = "/wallet/accountpermissionupdate"
	PathBroadcastTransaction    = "/wallet/broadcasttransaction"
	PathGetNodeInfo             = "/wallet/getnodeinfo"
)

// Client TRON 节点客户端接口
type Client interface {
	// Request 调用任意节点 HTTP API，method 为 "get" 或 "post"（大小写不敏感）
	Request(ctx context.Context, path string, body interface{}, method string) (map[string]interface{}, error)

	// AccountPermissionUpdate 创建未签名的权限更新交易
	AccountPermissionUpdate(ctx context.Context, req *types.AccountPermissionUpdateRequest) (*types.Transaction, error)

	// BroadcastTransaction 广播已签名交易
	BroadcastTransaction(ctx context.Context, tx *types.Transaction) (*types.BroadcastResult, error)

	// GetNodeInfo 查询节点信息
	GetNodeInfo(ctx context.Context) (map[string]interface{}, error)

	// Endpoint 当前节点地址
	Endpoint() string

	// Close 关闭连接
	Close() error
}

// NewClient 创建新的客户端
func NewClient(config *Config) (Client, error) {
	return NewHTTPClient(config)
}
