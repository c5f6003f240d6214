package request

import (
	"signer-core/internal/signer"
)

// TransactionRequest 交易签名请求
type TransactionRequest struct {
	Path        []signer.PathNode          `json:"path"`
	Transaction *signer.TransactionPayload `json:"transaction"`
	// Error 查找转发路径时发生的错误
	Error string `json:"error"`
}

// MessageRequest 消息签名请求，app 地址须已在注册表中
type MessageRequest struct {
	AppAddress string `json:"app_address" binding:"required,eth_addr"`
	Message    string `json:"message" binding:"required"`
}

// TransitionEndRequest 面板开关动画结束
type TransitionEndRequest struct {
	Opened bool `json:"opened"`
}
