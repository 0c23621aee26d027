package multisig

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Khanviph/tron1/client"
	"github.com/Khanviph/tron1/provider"
	"github.com/Khanviph/tron1/types"
)

// ExpirationWindow 交易有效期（相对签名前的当前时间）
const ExpirationWindow = 60 * time.Second

// Pipeline 提交 → 写入时间 → 签名 → 广播
type Pipeline struct {
	provider provider.Provider
	clock    Clock
	logger   client.Logger
}

// NewPipeline 创建 Pipeline，clock 与 logger 可为 nil
func NewPipeline(p provider.Provider, clock Clock, logger client.Logger) *Pipeline {
	if clock == nil {
		clock = SystemClock()
	}
	return &Pipeline{
		provider: p,
		clock:    clock,
		logger:   orNop(logger),
	}
}

// Execute 执行一次权限更新，返回节点分配的交易 ID
//
// 签名阶段没有超时，由提供者决定何时返回。任一阶段失败即终止，不重试。
func (pl *Pipeline) Execute(ctx context.Context, req *types.AccountPermissionUpdateRequest) (string, error) {
	if pl.provider == nil {
		return "", newError(KindProviderNotConnected, nil)
	}

	tx, err := pl.provider.Request(ctx, client.PathAccountPermissionUpdate, req, "post")
	if err != nil {
		return "", newError(KindSubmissionFailed, err)
	}
	if tx == nil || tx.TxID == "" {
		return "", newError(KindSubmissionFailed, errors.New("node returned no transaction"))
	}
	txID := tx.TxID
	pl.logger.Info("Permission update transaction created", "txID", txID)

	stamp(tx, pl.clock.Now())

	signed, err := pl.provider.Sign(ctx, tx)
	if err != nil {
		return "", newError(KindSigningFailed, err)
	}
	if signed == nil {
		return "", newError(KindSigningFailed, errors.New("provider returned no signed transaction"))
	}
	pl.logger.Debug("Transaction signed", "txID", txID, "signatures", len(signed.Signature))

	result, err := pl.provider.SendRawTransaction(ctx, signed)
	if err != nil {
		return "", newError(KindBroadcastRejected, err)
	}
	if result == nil || !result.Result {
		return "", newError(KindBroadcastRejected, rejection(result))
	}

	pl.logger.Info("Permission update broadcast", "txID", txID)
	return txID, nil
}

// stamp 写入 expiration 与 timestamp（毫秒）
func stamp(tx *types.Transaction, now time.Time) {
	ms := now.UnixMilli()
	tx.Timestamp = ms
	tx.Expiration = ms + ExpirationWindow.Milliseconds()
}

func rejection(result *types.BroadcastResult) error {
	if result == nil {
		return nil
	}
	switch {
	case result.Code != "" && result.Message != "":
		return fmt.Errorf("%s: %s", result.Code, result.Message)
	case result.Message != "":
		return errors.New(result.Message)
	case result.Code != "":
		return errors.New(result.Code)
	}
	return nil
}
