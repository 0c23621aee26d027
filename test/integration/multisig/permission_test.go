package multisig

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Khanviph/tron1/client"
	"github.com/Khanviph/tron1/multisig"
	"github.com/Khanviph/tron1/provider"
	integration "github.com/Khanviph/tron1/test/integration"
)

// TestNode_AccountPermissionUpdateCreatesTransaction 只创建交易，不签名不广播
func TestNode_AccountPermissionUpdateCreatesTransaction(t *testing.T) {
	c := integration.SetupTestClient(t)
	owner := integration.FundedTestWallet(t)

	codec := provider.NewLocal(c, owner, nil)
	req, err := multisig.BuildPermissionUpdate(owner.Address(), integration.ControllerAddresses(t, 3), 2, codec)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	resp, err := c.Request(ctx, client.PathAccountPermissionUpdate, req, "POST")
	require.NoError(t, err, "创建权限更新交易失败")

	tx, err := client.DecodeTransaction(resp)
	require.NoError(t, err)
	assert.Len(t, tx.TxID, 64)
	assert.NotEmpty(t, tx.RawDataHex)
}

// TestNode_UnfundedAccountIsRejected 新账户未激活，节点应拒绝创建交易
func TestNode_UnfundedAccountIsRejected(t *testing.T) {
	c := integration.SetupTestClient(t)
	fresh := integration.CreateTestWallet(t)

	ctl := integration.NewTestController(t, c, fresh)
	require.NoError(t, ctl.Connect(context.Background()))

	ctl.SetTarget(fresh.Address())
	ctl.SetControllers(integration.ControllerAddresses(t, 2))
	ctl.SetThreshold(2)

	err := ctl.Submit(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, multisig.ErrSubmissionFailed), "got %v", err)
	assert.NotEmpty(t, ctl.State().ErrorMessage)
	assert.False(t, ctl.State().Busy)
}
