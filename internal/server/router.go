package server

import (
	"signer-core/internal/handler"
	"signer-core/pkg/monitor"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers 路由依赖的处理器
type Handlers struct {
	Wallet   *handler.WalletHandler
	Signer   *handler.SignerHandler
	Workers  *handler.WorkerHandler
	Activity *handler.ActivityHandler
}

// NewHTTPRouter 初始化并返回一个 Gin Engine
func NewHTTPRouter(h Handlers) *gin.Engine {
	// 0. 初始化监控指标
	monitor.Init()

	// 1. 创建 Engine (使用默认中间件: Logger, Recovery)
	r := gin.Default()

	// 2. 注册通用中间件
	r.Use(monitor.PrometheusMiddleware())

	// 3. 注册基础路由
	r.GET("/health", handler.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 4. 注册 API 路由组
	api := r.Group("/api/v1")
	{
		api.GET("/wallet", h.Wallet.Status)
		api.GET("/permissions/action", handler.PermissionAction)

		signerGroup := api.Group("/signer")
		{
			signerGroup.GET("/state", h.Signer.State)
			signerGroup.POST("/transaction", h.Signer.SubmitTransaction)
			signerGroup.POST("/message", h.Signer.SubmitMessage)
			signerGroup.POST("/sign", h.Signer.Sign)
			signerGroup.POST("/close", h.Signer.Close)
			signerGroup.POST("/transition-end", h.Signer.TransitionEnd)
			signerGroup.POST("/enable", h.Signer.Enable)
		}

		workers := api.Group("/workers")
		{
			workers.GET("", h.Workers.List)
			workers.POST("", h.Workers.Add)
			workers.DELETE("/:proxy", h.Workers.Remove)
			workers.POST("/unsubscribe-all", h.Workers.UnsubscribeAll)
		}

		activities := api.Group("/activities")
		{
			activities.GET("", h.Activity.List)
			activities.PATCH("/:id/status", h.Activity.UpdateStatus)
		}

		subs := api.Group("/subscriptions")
		{
			subs.POST("", h.Activity.Subscribe)
			subs.GET("/:account", h.Activity.Subscriptions)
		}
	}

	return r
}
