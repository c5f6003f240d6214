package request

// AddWorkerRequest 为应用实例注册 Worker
type AddWorkerRequest struct {
	Name         string `json:"name" binding:"required,max=255"`
	ProxyAddress string `json:"proxy_address" binding:"required,eth_addr"`
	AppID        string `json:"app_id"`
}

// RemoveWorkerRequest 移除 Worker
type RemoveWorkerRequest struct {
	ClearCache bool `form:"clear_cache"`
}
