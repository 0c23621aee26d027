package provider

import (
	"context"
	"errors"

	"github.com/Khanviph/tron1/client"
	"github.com/Khanviph/tron1/types"
	"github.com/Khanviph/tron1/utils"
	"github.com/Khanviph/tron1/wallet"
)

// ErrWalletLocked 本地提供者未加载钱包
var ErrWalletLocked = errors.New("wallet is locked")

// Local 本地提供者：节点 HTTP 客户端 + 本地钱包
//
// 用于浏览器以外的环境（命令行、测试）。wallet 为 nil 时视为账户未解锁。
type Local struct {
	client client.Client
	wallet wallet.Wallet
	logger client.Logger
}

// NewLocal 创建本地提供者
func NewLocal(c client.Client, w wallet.Wallet, logger client.Logger) *Local {
	return &Local{
		client: c,
		wallet: w,
		logger: logger,
	}
}

// Ready 节点客户端可用即视为就绪
func (p *Local) Ready() bool {
	return p.client != nil
}

// DefaultAddress 当前钱包地址
func (p *Local) DefaultAddress() string {
	if p.wallet == nil {
		return ""
	}
	return p.wallet.Address()
}

// Host 当前节点地址
func (p *Local) Host() string {
	if p.client == nil {
		return ""
	}
	return p.client.Endpoint()
}

// IsAddress 校验地址
func (p *Local) IsAddress(addr string) bool {
	return utils.IsAddress(addr)
}

// ToHex 转换为 hex 地址
func (p *Local) ToHex(addr string) (string, error) {
	return utils.ToHex(addr)
}

// Sign 使用本地钱包签名
func (p *Local) Sign(ctx context.Context, tx *types.Transaction) (*types.Transaction, error) {
	if p.wallet == nil {
		return nil, ErrWalletLocked
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.logger != nil {
		p.logger.Debug("Signing transaction", "txID", tx.TxID, "signer", p.wallet.Address())
	}
	return p.wallet.SignTransaction(tx)
}

// SendRawTransaction 广播交易
func (p *Local) SendRawTransaction(ctx context.Context, tx *types.Transaction) (*types.BroadcastResult, error) {
	return p.client.BroadcastTransaction(ctx, tx)
}

// Request 调用节点 API 并解析为交易
func (p *Local) Request(ctx context.Context, path string, body interface{}, method string) (*types.Transaction, error) {
	result, err := p.client.Request(ctx, path, body, method)
	if err != nil {
		return nil, err
	}
	return client.DecodeTransaction(result)
}

// GetNodeInfo 查询节点信息
func (p *Local) GetNodeInfo(ctx context.Context) (map[string]interface{}, error) {
	return p.client.GetNodeInfo(ctx)
}
