package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"signer-core/internal/apps"
	"signer-core/internal/service/mq"
	"signer-core/pkg/cache"

	"go.uber.org/zap"
)

// LatestEventKey 最近一次事件在连接缓存中的键
const LatestEventKey = "latest_event"

// AppEvent 应用合约事件
type AppEvent struct {
	Event        string         `json:"event"`
	BlockNumber  uint64         `json:"blockNumber"`
	TxHash       string         `json:"transactionHash"`
	ReturnValues map[string]any `json:"returnValues,omitempty"`
}

// EventTopic 应用实例的事件主题
func EventTopic(app apps.Instance) string {
	return "app:" + app.Key() + ":events"
}

// AppWorker 订阅应用实例的事件主题，把最新事件写入连接缓存
type AppWorker struct {
	app    apps.Instance
	conn   *CacheConnection
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
	log    *zap.Logger
}

// StartAppWorker 启动消费 goroutine
func StartAppWorker(ctx context.Context, app apps.Instance, consumer mq.Consumer, conn *CacheConnection, log *zap.Logger) *AppWorker {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(ctx)
	w := &AppWorker{
		app:    app,
		conn:   conn,
		cancel: cancel,
		done:   make(chan struct{}),
		log:    log.With(zap.String("app", app.Name)),
	}

	go func() {
		defer close(w.done)
		if err := consumer.Subscribe(ctx, EventTopic(app), w.handle(ctx)); err != nil {
			w.log.Warn("app worker subscription ended", zap.Error(err))
		}
	}()
	return w
}

func (w *AppWorker) handle(ctx context.Context) func(*mq.Message) error {
	return func(msg *mq.Message) error {
		var ev AppEvent
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			// 格式错误的消息直接丢弃
			w.log.Warn("malformed app event", zap.String("id", msg.ID), zap.Error(err))
			return nil
		}
		if err := w.conn.Store(ctx, LatestEventKey, ev); err != nil {
			return fmt.Errorf("store event: %w", err)
		}
		w.log.Debug("app event cached", zap.String("event", ev.Event), zap.Uint64("block", ev.BlockNumber))
		return nil
	}
}

// Terminate 停止消费，可重复调用
func (w *AppWorker) Terminate() {
	w.once.Do(w.cancel)
}

// Done 消费 goroutine 退出后关闭
func (w *AppWorker) Done() <-chan struct{} {
	return w.done
}

// Factory 为应用实例创建连接与 Worker
type Factory func(app apps.Instance) (Connection, Worker)

// NewAppWorkerFactory 以 ctx 为生命周期创建缓存连接并启动 AppWorker
func NewAppWorkerFactory(ctx context.Context, c cache.Cache, consumer mq.Consumer, ttl time.Duration, log *zap.Logger) Factory {
	return func(app apps.Instance) (Connection, Worker) {
		conn := NewCacheConnection(c, app, ttl)
		return conn, StartAppWorker(ctx, app, consumer, conn, log)
	}
}
