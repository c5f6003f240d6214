// Package apps 已安装应用实例的登记表，按代理合约地址查找
package apps

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"signer-core/pkg/config"

	"github.com/ethereum/go-ethereum/common"
)

// Instance 应用实例
type Instance struct {
	Name         string         `json:"name"`
	ProxyAddress common.Address `json:"proxyAddress"`
	AppID        string         `json:"appId"`
}

// Key 以小写地址作为唯一键
func (i Instance) Key() string {
	return Key(i.ProxyAddress)
}

func Key(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}

// Registry 线程安全的应用实例登记表
type Registry struct {
	mu    sync.RWMutex
	items map[string]Instance
}

func NewRegistry(instances ...Instance) *Registry {
	r := &Registry{items: make(map[string]Instance, len(instances))}
	for _, i := range instances {
		r.items[i.Key()] = i
	}
	return r
}

// FromConfig 从配置的 apps 列表构建登记表
func FromConfig(entries []config.AppEntry) (*Registry, error) {
	instances := make([]Instance, 0, len(entries))
	for _, e := range entries {
		if !common.IsHexAddress(e.ProxyAddress) {
			return nil, fmt.Errorf("app %q: invalid proxy address %q", e.Name, e.ProxyAddress)
		}
		instances = append(instances, Instance{
			Name:         e.Name,
			ProxyAddress: common.HexToAddress(e.ProxyAddress),
			AppID:        e.AppID,
		})
	}
	return NewRegistry(instances...), nil
}

// Put 新增或覆盖
func (r *Registry) Put(i Instance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[i.Key()] = i
}

func (r *Registry) Remove(addr common.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, Key(addr))
}

// FindByAddress 按代理地址查找 (忽略大小写)
func (r *Registry) FindByAddress(addr common.Address) (Instance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.items[Key(addr)]
	return i, ok
}

// List 按名称排序返回全部实例
func (r *Registry) List() []Instance {
	r.mu.RLock()
	out := make([]Instance, 0, len(r.items))
	for _, i := range r.items {
		out = append(out, i)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b Instance) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Key(), b.Key())
	})
	return out
}
