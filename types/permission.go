package types

// PermissionType 权限类型（与节点 API 的数值保持一致）
type PermissionType int

const (
	PermissionTypeOwner  PermissionType = 0
	PermissionTypeActive PermissionType = 2
)

const (
	// OwnerPermissionName owner 权限名
	OwnerPermissionName = "owner"
	// ActivePermissionName active 权限名
	ActivePermissionName = "active"

	// DefaultActiveOperations active 权限的标准操作位图（不可修改）
	DefaultActiveOperations = "7fff1fc0033e0300000000000000000000000000000000000000000000000000"

	// DefaultKeyWeight 每个控制地址的权重
	DefaultKeyWeight = 1
)

// PermissionKey 权限中的一个签名地址
type PermissionKey struct {
	Address string `json:"address"` // hex 地址
	Weight  int64  `json:"weight"`
}

// Permission 单个权限定义（owner 或 active）
//
// owner 权限不携带 operations 字段，active 权限必须携带。
type Permission struct {
	Type           PermissionType  `json:"type"`
	PermissionName string          `json:"permission_name"`
	Threshold      int64           `json:"threshold"`
	Operations     string          `json:"operations,omitempty"`
	Keys           []PermissionKey `json:"keys"`
}

// AccountPermissionUpdateRequest /wallet/accountpermissionupdate 请求体
type AccountPermissionUpdateRequest struct {
	OwnerAddress string       `json:"owner_address"` // hex 地址
	Owner        Permission   `json:"owner"`
	Actives      []Permission `json:"actives"`
}
