package worker

import (
	"context"
	"sync"

	"signer-core/internal/apps"
	"signer-core/pkg/monitor"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Worker 应用实例的后台工作者
type Worker interface {
	Terminate()
}

// Connection 应用实例的连接/缓存句柄
type Connection interface {
	Shutdown()
	ShutdownAndClearCache(ctx context.Context) error
}

// RemoveOpts 移除选项
type RemoveOpts struct {
	ClearCache bool
}

type entry struct {
	app    apps.Instance
	conn   Connection
	worker Worker
}

// Pool 每个应用实例 (按代理地址) 一组 worker + connection。
//
// RemoveWorker 先从表中删除再拆除，拆除期间并发调用看到的已是不存在；
// UnsubscribeAll 只拆除不删除，用于进程整体退出。
type Pool struct {
	mu      sync.Mutex
	entries map[string]entry
	log     *zap.Logger
}

func NewPool(log *zap.Logger) *Pool {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pool{
		entries: make(map[string]entry),
		log:     log,
	}
}

// AddWorker 新增或覆盖，不检查是否已存在 (由调用方保证不重复注册)
func (p *Pool) AddWorker(app apps.Instance, conn Connection, w Worker) {
	p.mu.Lock()
	p.entries[app.Key()] = entry{app: app, conn: conn, worker: w}
	n := len(p.entries)
	p.mu.Unlock()

	monitor.WorkersActive.Set(float64(n))
	p.log.Info("worker added", zap.String("app", app.Name), zap.String("proxy", app.Key()))
}

func (p *Pool) HasWorker(proxy common.Address) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.entries[apps.Key(proxy)]
	return ok
}

// RemoveWorker 移除并拆除；不存在时直接返回 nil
func (p *Pool) RemoveWorker(ctx context.Context, proxy common.Address, opts RemoveOpts) error {
	key := apps.Key(proxy)

	p.mu.Lock()
	e, ok := p.entries[key]
	if ok {
		delete(p.entries, key)
	}
	n := len(p.entries)
	p.mu.Unlock()

	if !ok {
		return nil
	}
	monitor.WorkersActive.Set(float64(n))

	e.worker.Terminate()
	if opts.ClearCache {
		monitor.WorkerTeardownsTotal.WithLabelValues("clear_cache").Inc()
		if err := e.conn.ShutdownAndClearCache(ctx); err != nil {
			p.log.Warn("clear cache on worker removal failed", zap.String("proxy", key), zap.Error(err))
			return err
		}
	} else {
		monitor.WorkerTeardownsTotal.WithLabelValues("plain").Inc()
		e.conn.Shutdown()
	}

	p.log.Info("worker removed", zap.String("app", e.app.Name), zap.String("proxy", key), zap.Bool("clearCache", opts.ClearCache))
	return nil
}

// UnsubscribeAll 拆除全部 worker 与连接 (普通 Shutdown)，表项保留
func (p *Pool) UnsubscribeAll() {
	p.mu.Lock()
	all := make([]entry, 0, len(p.entries))
	for _, e := range p.entries {
		all = append(all, e)
	}
	p.mu.Unlock()

	for _, e := range all {
		e.worker.Terminate()
		e.conn.Shutdown()
		monitor.WorkerTeardownsTotal.WithLabelValues("bulk").Inc()
	}
	p.log.Info("all workers unsubscribed", zap.Int("count", len(all)))
}

func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Apps 已注册 worker 的应用实例
func (p *Pool) Apps() []apps.Instance {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]apps.Instance, 0, len(p.entries))
	for _, e := range p.entries {
		out = append(out, e.app)
	}
	return out
}
