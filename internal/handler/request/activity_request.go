package request

// ListActivitiesRequest 活动列表查询
type ListActivitiesRequest struct {
	Account string `form:"account" binding:"omitempty,eth_addr"`
	Limit   int    `form:"limit" binding:"omitempty,min=1,max=200"`
}

// UpdateActivityStatusRequest 更新交易状态
type UpdateActivityStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=CONFIRMED FAILED"`
}

// SubscribeRequest 订阅活动通知
type SubscribeRequest struct {
	Account string `json:"account" binding:"required,eth_addr"`
	Channel string `json:"channel" binding:"required,oneof=webhook email push"`
	Target  string `json:"target" binding:"required,max=255"`
}

// PermissionActionRequest 权限管理面板当前操作
type PermissionActionRequest struct {
	Manager  string `form:"manager" binding:"omitempty,eth_addr"`
	Selected int    `form:"selected" binding:"omitempty,min=0"`
}
