package multisig

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Khanviph/tron1/types"
)

func TestBuildPermissionUpdate_EmptyTarget(t *testing.T) {
	p := newFakeProvider()

	req, err := BuildPermissionUpdate("", []string{"TValid1"}, 1, p)
	assert.Nil(t, req)
	assert.True(t, errors.Is(err, ErrInvalidTargetAddress))
	assert.Equal(t, "被控制地址格式不正确", UserMessage(err))
	assert.Zero(t, p.toHexCalls)
	assert.Empty(t, p.Calls())
}

func TestBuildPermissionUpdate_InvalidTarget(t *testing.T) {
	_, err := BuildPermissionUpdate("TBad!", []string{"TValid1"}, 1, newFakeProvider())
	assert.True(t, errors.Is(err, ErrInvalidTargetAddress))
}

func TestBuildPermissionUpdate_FiltersAndPreservesOrder(t *testing.T) {
	controllers := []string{"TValid1", "TInvalid!", "TValid2"}
	original := append([]string(nil), controllers...)

	req, err := BuildPermissionUpdate("TTarget", controllers, 2, newFakeProvider())
	require.NoError(t, err)
	assert.Equal(t, original, controllers, "input must not be mutated")

	assert.Equal(t, "41target", req.OwnerAddress)

	wantKeys := []types.PermissionKey{
		{Address: "41valid1", Weight: 1},
		{Address: "41valid2", Weight: 1},
	}
	assert.Equal(t, types.PermissionTypeOwner, req.Owner.Type)
	assert.Equal(t, "owner", req.Owner.PermissionName)
	assert.Equal(t, int64(2), req.Owner.Threshold)
	assert.Empty(t, req.Owner.Operations)
	assert.Equal(t, wantKeys, req.Owner.Keys)

	require.Len(t, req.Actives, 1)
	active := req.Actives[0]
	assert.Equal(t, types.PermissionTypeActive, active.Type)
	assert.Equal(t, "active", active.PermissionName)
	assert.Equal(t, int64(2), active.Threshold)
	assert.Equal(t, "7fff1fc0033e0300000000000000000000000000000000000000000000000000", active.Operations)
	assert.Equal(t, req.Owner.Keys, active.Keys)

	// owner 与 active 的 key 列表互不共享底层数组
	active.Keys[0].Weight = 9
	assert.Equal(t, int64(1), req.Owner.Keys[0].Weight)
}

func TestBuildPermissionUpdate_Insufficient(t *testing.T) {
	_, err := BuildPermissionUpdate("TTarget", []string{"TValid1"}, 2, newFakeProvider())
	assert.True(t, errors.Is(err, ErrInsufficientControllers))
	assert.Equal(t, "有效控制地址数量少于所需签名数", UserMessage(err))
}

func TestBuildPermissionUpdate_NoValidControllers(t *testing.T) {
	_, err := BuildPermissionUpdate("TTarget", []string{"", "bad"}, 1, newFakeProvider())
	assert.True(t, errors.Is(err, ErrNoValidControllers))
}

func TestBuildPermissionUpdate_MissingCodec(t *testing.T) {
	_, err := BuildPermissionUpdate("TTarget", []string{"TValid1"}, 1, nil)
	assert.True(t, errors.Is(err, ErrProviderNotConnected))
}

// 对任意 t 与有效地址数 n：成功当且仅当 n >= 1 且 1 <= t <= n
func TestBuildPermissionUpdate_ThresholdProperty(t *testing.T) {
	pool := []string{"TA", "TB", "TC", "TD", "TE"}
	for n := 0; n <= len(pool); n++ {
		controllers := append([]string{"nope"}, pool[:n]...)
		for threshold := -1; threshold <= len(pool)+1; threshold++ {
			t.Run(fmt.Sprintf("n=%d,t=%d", n, threshold), func(t *testing.T) {
				req, err := BuildPermissionUpdate("TTarget", controllers, threshold, newFakeProvider())
				if n >= 1 && threshold >= 1 && threshold <= n {
					require.NoError(t, err)
					assert.Len(t, req.Owner.Keys, n)
					return
				}
				require.Error(t, err)
				switch {
				case threshold < 1:
					assert.Equal(t, KindInvalidThreshold, KindOf(err))
				case n == 0:
					assert.Equal(t, KindNoValidControllers, KindOf(err))
				default:
					assert.Equal(t, KindInsufficientControllers, KindOf(err))
				}
			})
		}
	}
}

func TestValidControllers(t *testing.T) {
	got := ValidControllers([]string{"", "TOne", "T!", "TTwo", "x"}, newFakeProvider())
	assert.Equal(t, []string{"TOne", "TTwo"}, got)
}
