package integration

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Khanviph/tron1/client"
	"github.com/Khanviph/tron1/multisig"
	"github.com/Khanviph/tron1/provider"
	"github.com/Khanviph/tron1/wallet"
)

// NewTestController 用本地提供者创建工作流控制器
func NewTestController(t *testing.T, c client.Client, w wallet.Wallet) *multisig.Controller {
	t.Helper()
	local := provider.NewLocal(c, w, nil)
	return multisig.NewController(multisig.NewWaiter(provider.Static(local), multisig.WithMaxAttempts(0)))
}

// ControllerAddresses 创建 n 个随机控制地址
func ControllerAddresses(t *testing.T, n int) []string {
	t.Helper()
	addrs := make([]string, 0, n)
	for i := 0; i < n; i++ {
		addrs = append(addrs, CreateTestWallet(t).Address())
	}
	require.Len(t, addrs, n)
	return addrs
}
