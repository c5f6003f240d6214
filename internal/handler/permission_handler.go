package handler

import (
	"signer-core/internal/handler/request"
	"signer-core/internal/handler/response"
	"signer-core/internal/permissions"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

type actionView struct {
	Action  string `json:"action"`
	Label   string `json:"label,omitempty"`
	Message string `json:"message,omitempty"`
}

func newActionView(a permissions.Action) actionView {
	info := permissions.Info(a)
	return actionView{Action: a.String(), Label: info.Label, Message: info.Message}
}

// PermissionAction 权限管理面板: 可选操作列表与当前生效的操作
func PermissionAction(c *gin.Context) {
	var req request.PermissionActionRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}

	selected, ok := permissions.UpdateActionAt(req.Selected)
	if !ok {
		selected = permissions.NoUpdate
	}

	updates := permissions.UpdateActions()
	options := make([]actionView, 0, len(updates))
	for _, a := range updates {
		options = append(options, newActionView(a))
	}

	response.Success(c, gin.H{
		"current": newActionView(permissions.CurrentAction(common.HexToAddress(req.Manager), selected)),
		"options": options,
	})
}
