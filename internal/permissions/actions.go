// Package permissions 权限管理面板的操作定义
package permissions

import (
	"github.com/ethereum/go-ethereum/common"
)

// Action 权限管理操作
type Action int

const (
	NoUpdate Action = iota
	SetManager
	RemoveManager
	Create
	View
)

// BurnEntity ACL 中表示管理者已被销毁的地址
var BurnEntity = common.HexToAddress("0x0000000000000000000000000000000000000001")

// ActionInfo 操作的标签与提示
type ActionInfo struct {
	Label   string `json:"label,omitempty"`
	Message string `json:"message,omitempty"`
}

var actionInfos = map[Action]ActionInfo{
	NoUpdate: {Label: "Select an action"},
	SetManager: {
		Label: "Change the manager",
		Message: "The new manager will be the only entity allowed to grant or revoke " +
			"the permission, and make further changes to the manager.",
	},
	RemoveManager: {
		Label: "Remove the manager",
		Message: "After having removed its manager, the permission can only be granted or " +
			"revoked if it is initialized again (requiring the \"Create permission\" action on the ACL app).",
	},
	Create: {
		Message: "As part of the initialization process for a permission, a manager must " +
			"also be set. Be careful with this setting: the manager is the only " +
			"entity afterwards who can grant or revoke this permission!",
	},
	View: {
		Message: "This permission's manager has been discarded to an unrecoverable address. " +
			"No further management actions can be taken on the permission, making it effectively frozen.",
	},
}

// 可选的更新操作，按展示顺序
var updateActions = []Action{NoUpdate, SetManager, RemoveManager}

func (a Action) String() string {
	switch a {
	case NoUpdate:
		return "NO_UPDATE_ACTION"
	case SetManager:
		return "SET_PERMISSION_MANAGER"
	case RemoveManager:
		return "REMOVE_PERMISSION_MANAGER"
	case Create:
		return "CREATE_PERMISSION"
	case View:
		return "VIEW_PERMISSION"
	}
	return "UNKNOWN"
}

// Info 操作的标签与提示，未知操作返回零值
func Info(a Action) ActionInfo {
	return actionInfos[a]
}

// IsUpdate 是否为可选的更新操作
func IsUpdate(a Action) bool {
	for _, u := range updateActions {
		if u == a {
			return true
		}
	}
	return false
}

// UpdateActions 更新操作列表 (下拉框顺序)
func UpdateActions() []Action {
	return append([]Action(nil), updateActions...)
}

// UpdateActionAt 下拉框索引对应的操作
func UpdateActionAt(index int) (Action, bool) {
	if index < 0 || index >= len(updateActions) {
		return NoUpdate, false
	}
	return updateActions[index], true
}

// CurrentAction 管理者为空时只能创建，管理者已销毁时只能查看，否则为用户选择的更新操作
func CurrentAction(manager common.Address, selected Action) Action {
	switch manager {
	case common.Address{}:
		return Create
	case BurnEntity:
		return View
	}
	return selected
}
