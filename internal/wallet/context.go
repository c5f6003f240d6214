package wallet

import (
	"slices"
	"sync"
)

// Context 进程级的当前钱包状态，只能通过 Attach 的轮询器整体替换
type Context struct {
	mu      sync.RWMutex
	current Snapshot

	subMu  sync.Mutex
	subs   map[uint64]func(Snapshot)
	nextID uint64
}

// NewContext 以 base (通常是断开状态) 初始化
func NewContext(base Snapshot) *Context {
	return &Context{
		current: base,
		subs:    make(map[uint64]func(Snapshot)),
	}
}

// Current 当前快照
func (c *Context) Current() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Subscribe 注册状态替换回调，按注册顺序同步调用
func (c *Context) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

// Attach 让轮询器的变更写入本 Context
func (c *Context) Attach(p *Poller) (detach func()) {
	return p.Subscribe(c.set)
}

func (c *Context) set(s Snapshot) {
	c.mu.Lock()
	c.current = s
	c.mu.Unlock()

	c.subMu.Lock()
	ids := make([]uint64, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(Snapshot), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, c.subs[id])
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}
