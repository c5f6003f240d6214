package handler

import (
	"signer-core/internal/apps"
	"signer-core/internal/handler/request"
	"signer-core/internal/handler/response"
	"signer-core/internal/worker"
	"signer-core/pkg/errno"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

type WorkerHandler struct {
	pool     *worker.Pool
	registry *apps.Registry
	factory  worker.Factory
}

func NewWorkerHandler(pool *worker.Pool, registry *apps.Registry, factory worker.Factory) *WorkerHandler {
	return &WorkerHandler{pool: pool, registry: registry, factory: factory}
}

// List 已注册 Worker 的应用实例
func (h *WorkerHandler) List(c *gin.Context) {
	response.Success(c, gin.H{
		"count":   h.pool.Len(),
		"workers": h.pool.Apps(),
	})
}

// Add 为应用实例启动 Worker，已存在时直接覆盖 (旧 Worker 先拆除)
func (h *WorkerHandler) Add(c *gin.Context) {
	var req request.AddWorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}

	app := apps.Instance{
		Name:         req.Name,
		ProxyAddress: common.HexToAddress(req.ProxyAddress),
		AppID:        req.AppID,
	}
	if h.pool.HasWorker(app.ProxyAddress) {
		if err := h.pool.RemoveWorker(c.Request.Context(), app.ProxyAddress, worker.RemoveOpts{}); err != nil {
			response.Error(c, err)
			return
		}
	}

	conn, w := h.factory(app)
	h.pool.AddWorker(app, conn, w)
	h.registry.Put(app)
	response.Success(c, app)
}

// Remove 拆除 Worker，clear_cache=true 时同时清理连接缓存
func (h *WorkerHandler) Remove(c *gin.Context) {
	proxy := c.Param("proxy")
	if !common.IsHexAddress(proxy) {
		response.Error(c, errno.ErrBind.WithMessage("proxy 不是合法的以太坊地址"))
		return
	}
	var req request.RemoveWorkerRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}

	addr := common.HexToAddress(proxy)
	if !h.pool.HasWorker(addr) {
		response.Error(c, errno.ErrWorkerNotFound)
		return
	}
	if err := h.pool.RemoveWorker(c.Request.Context(), addr, worker.RemoveOpts{ClearCache: req.ClearCache}); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// UnsubscribeAll 停止所有 Worker (条目保留)
func (h *WorkerHandler) UnsubscribeAll(c *gin.Context) {
	h.pool.UnsubscribeAll()
	response.Success(c, gin.H{"count": h.pool.Len()})
}
