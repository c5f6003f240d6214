package worker

import (
	"signer-core/internal/worker/tasks"
	"signer-core/pkg/config"
	"signer-core/pkg/logger"

	"github.com/hibiken/asynq"
)

// Server 封装 Asynq Server，处理活动通知任务
type Server struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

// RedisOpt 由配置生成 asynq 的 Redis 连接参数
func RedisOpt(c config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
	}
}

func NewServer(opt asynq.RedisClientOpt, concurrency int, notify *tasks.NotifyHandler) *Server {
	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			"critical": 6,
			"default":  3,
			"low":      1,
		},
		Logger: logger.NewAsynqLogger(),
	})

	mux := asynq.NewServeMux()
	mux.Handle(tasks.TypeActivityNotify, notify)

	return &Server{server: srv, mux: mux}
}

// Start 非阻塞启动
func (s *Server) Start() error {
	logger.Info("Worker Server starting...")
	return s.server.Start(s.mux)
}

// Stop 停止拉取新任务并等待进行中的任务结束
func (s *Server) Stop() {
	s.server.Stop()
	s.server.Shutdown()
	logger.Info("Worker Server stopped")
}
