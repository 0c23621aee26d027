package multisig

import (
	"fmt"

	"github.com/Khanviph/tron1/provider"
	"github.com/Khanviph/tron1/types"
)

// BuildPermissionUpdate 校验输入并构造 /wallet/accountpermissionupdate 请求体
//
// owner 与 active 使用同一门限和同一组控制地址（权重均为 1），
// active 权限附带标准操作位图。地址校验与 hex 转换全部委托给 codec，
// controllers 不会被修改。
func BuildPermissionUpdate(target string, controllers []string, threshold int, codec provider.AddressCodec) (*types.AccountPermissionUpdateRequest, error) {
	if codec == nil {
		return nil, newError(KindProviderNotConnected, nil)
	}
	if target == "" || !codec.IsAddress(target) {
		return nil, newError(KindInvalidTargetAddress, nil)
	}
	if threshold < 1 {
		return nil, newError(KindInvalidThreshold, nil)
	}

	valid := ValidControllers(controllers, codec)
	if len(valid) == 0 {
		return nil, newError(KindNoValidControllers, nil)
	}
	if len(valid) < threshold {
		return nil, newError(KindInsufficientControllers, nil)
	}

	ownerHex, err := codec.ToHex(target)
	if err != nil {
		return nil, newError(KindInvalidTargetAddress, err)
	}

	ownerKeys := make([]types.PermissionKey, 0, len(valid))
	for _, addr := range valid {
		hexAddr, err := codec.ToHex(addr)
		if err != nil {
			return nil, newError(KindUnknownFailure, fmt.Errorf("convert controller %s: %w", addr, err))
		}
		ownerKeys = append(ownerKeys, types.PermissionKey{Address: hexAddr, Weight: types.DefaultKeyWeight})
	}
	activeKeys := append([]types.PermissionKey(nil), ownerKeys...)

	return &types.AccountPermissionUpdateRequest{
		OwnerAddress: ownerHex,
		Owner: types.Permission{
			Type:           types.PermissionTypeOwner,
			PermissionName: types.OwnerPermissionName,
			Threshold:      int64(threshold),
			Keys:           ownerKeys,
		},
		Actives: []types.Permission{{
			Type:           types.PermissionTypeActive,
			PermissionName: types.ActivePermissionName,
			Threshold:      int64(threshold),
			Operations:     types.DefaultActiveOperations,
			Keys:           activeKeys,
		}},
	}, nil
}

// ValidControllers 返回通过校验的控制地址，保持原有顺序
func ValidControllers(controllers []string, codec provider.AddressCodec) []string {
	valid := make([]string, 0, len(controllers))
	for _, addr := range controllers {
		if addr != "" && codec.IsAddress(addr) {
			valid = append(valid, addr)
		}
	}
	return valid
}
