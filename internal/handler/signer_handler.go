package handler

import (
	"context"
	"errors"
	"time"

	"signer-core/internal/apps"
	"signer-core/internal/handler/request"
	"signer-core/internal/handler/response"
	"signer-core/internal/signer"
	"signer-core/pkg/errno"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// DefaultRequestTimeout 提交的签名请求等待结算的最长时间
const DefaultRequestTimeout = 5 * time.Minute

type SignerHandler struct {
	panel    *signer.Panel
	registry *apps.Registry
	timeout  time.Duration
}

func NewSignerHandler(panel *signer.Panel, registry *apps.Registry, timeout time.Duration) *SignerHandler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &SignerHandler{panel: panel, registry: registry, timeout: timeout}
}

// State 面板当前状态
func (h *SignerHandler) State(c *gin.Context) {
	response.Success(c, h.panel.State())
}

// SubmitTransaction 提交交易签名请求，阻塞直到用户签名/拒绝或超时。
// 被新请求替换的请求不会结算，调用方会收到超时错误。
func (h *SignerHandler) SubmitTransaction(c *gin.Context) {
	var req request.TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}

	bag, result := signer.NewTransactionBag(req.Path, req.Transaction)
	if req.Error != "" {
		bag.PathErr = errors.New(req.Error)
	}
	h.submit(c, bag, result)
}

// SubmitMessage 提交消息签名请求
func (h *SignerHandler) SubmitMessage(c *gin.Context) {
	var req request.MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}

	app, ok := h.registry.FindByAddress(common.HexToAddress(req.AppAddress))
	if !ok {
		response.Error(c, errno.ErrNotFound.WithMessage("App not found"))
		return
	}

	bag, result := signer.NewSignatureBag(app, req.Message)
	h.submit(c, bag, result)
}

func (h *SignerHandler) submit(c *gin.Context, bag signer.Bag, result <-chan signer.Result) {
	if err := h.panel.Receive(bag); err != nil {
		response.Error(c, err)
		return
	}

	timer := time.NewTimer(h.timeout)
	defer timer.Stop()

	select {
	case res := <-result:
		if res.Err != nil {
			response.Error(c, errno.ErrSignFailed.WithMessage(res.Err.Error()))
			return
		}
		response.Success(c, gin.H{"kind": bag.Kind().String(), "result": res.Value})
	case <-timer.C:
		response.Error(c, errno.ErrRequestTimeout)
	case <-c.Request.Context().Done():
	}
}

// Sign 用户确认签名。钱包调用不随 HTTP 请求取消，客户端断开不会拒绝请求。
func (h *SignerHandler) Sign(c *gin.Context) {
	if err := h.panel.Sign(context.WithoutCancel(c.Request.Context())); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, h.panel.State())
}

// Close 关闭面板
func (h *SignerHandler) Close(c *gin.Context) {
	h.panel.Close()
	response.Success(c, h.panel.State())
}

// TransitionEnd 面板动画结束
func (h *SignerHandler) TransitionEnd(c *gin.Context) {
	var req request.TransitionEndRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	h.panel.TransitionEnd(req.Opened)
	response.Success(c, h.panel.State())
}

// Enable 请求钱包授权账户
func (h *SignerHandler) Enable(c *gin.Context) {
	if err := h.panel.Enable(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
