package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"signer-core/internal/apps"
	"signer-core/pkg/cache"
)

var ErrConnectionClosed = errors.New("connection closed")

// CacheConnection 应用实例的缓存连接，键统一带 app:<proxy>: 前缀
type CacheConnection struct {
	cache  cache.Cache
	prefix string
	ttl    time.Duration

	mu     sync.Mutex
	keys   map[string]struct{}
	closed bool
}

func NewCacheConnection(c cache.Cache, app apps.Instance, ttl time.Duration) *CacheConnection {
	return &CacheConnection{
		cache:  c,
		prefix: "app:" + app.Key() + ":",
		ttl:    ttl,
		keys:   make(map[string]struct{}),
	}
}

func (c *CacheConnection) Store(ctx context.Context, key string, value interface{}) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrConnectionClosed
	}
	c.keys[key] = struct{}{}
	c.mu.Unlock()

	return c.cache.Set(ctx, c.prefix+key, value, c.ttl)
}

// Load 关闭后仍可读取 (缓存未清理时)
func (c *CacheConnection) Load(ctx context.Context, key string, target interface{}) error {
	return c.cache.Get(ctx, c.prefix+key, target)
}

func (c *CacheConnection) Shutdown() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// ShutdownAndClearCache 关闭并删除本连接写过的全部缓存键
func (c *CacheConnection) ShutdownAndClearCache(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	keys := make([]string, 0, len(c.keys))
	for k := range c.keys {
		keys = append(keys, k)
	}
	c.keys = make(map[string]struct{})
	c.mu.Unlock()

	var errs []error
	for _, k := range keys {
		if err := c.cache.Delete(ctx, c.prefix+k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *CacheConnection) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
