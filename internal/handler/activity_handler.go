package handler

import (
	"errors"

	"signer-core/internal/activity"
	"signer-core/internal/handler/request"
	"signer-core/internal/handler/response"
	"signer-core/pkg/errno"

	"github.com/gin-gonic/gin"
)

const defaultActivityLimit = 50

type ActivityHandler struct {
	feed *activity.Feed
}

func NewActivityHandler(feed *activity.Feed) *ActivityHandler {
	return &ActivityHandler{feed: feed}
}

// List 最近的签名活动
func (h *ActivityHandler) List(c *gin.Context) {
	var req request.ListActivitiesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	if req.Limit == 0 {
		req.Limit = defaultActivityLimit
	}

	list, err := h.feed.List(c.Request.Context(), req.Account, req.Limit)
	if err != nil {
		response.Error(c, errno.ErrDatabase)
		return
	}
	response.Success(c, list)
}

// UpdateStatus 交易确认/失败后更新活动状态
func (h *ActivityHandler) UpdateStatus(c *gin.Context) {
	var req request.UpdateActivityStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}

	err := h.feed.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	switch {
	case errors.Is(err, activity.ErrNotFound):
		response.Error(c, errno.ErrNotFound)
	case err != nil:
		response.Error(c, errno.ErrDatabase)
	default:
		response.Success(c, gin.H{"id": c.Param("id"), "status": req.Status})
	}
}

// Subscribe 订阅账户的活动通知
func (h *ActivityHandler) Subscribe(c *gin.Context) {
	var req request.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}

	sub, err := h.feed.Subscribe(c.Request.Context(), req.Account, req.Channel, req.Target)
	if err != nil {
		response.Error(c, errno.ErrDatabase)
		return
	}
	response.Success(c, sub)
}

// Subscriptions 账户的通知订阅
func (h *ActivityHandler) Subscriptions(c *gin.Context) {
	subs, err := h.feed.Subscriptions(c.Request.Context(), c.Param("account"))
	if err != nil {
		response.Error(c, errno.ErrDatabase)
		return
	}
	response.Success(c, subs)
}
