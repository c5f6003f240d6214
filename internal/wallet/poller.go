package wallet

import (
	"context"
	"errors"
	"math/big"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"signer-core/pkg/monitor"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultPollInterval 钱包轮询间隔
const DefaultPollInterval = 2000 * time.Millisecond

type PollerOpt func(*Poller)

func WithInterval(d time.Duration) PollerOpt {
	return func(p *Poller) {
		p.interval = d
	}
}

func WithClock(c clockwork.Clock) PollerOpt {
	return func(p *Poller) {
		p.clock = c
	}
}

func WithLogger(l *zap.Logger) PollerOpt {
	return func(p *Poller) {
		p.log = l
	}
}

// WithSkipOverlap 为 true (默认) 时，上一轮尚未结束的 tick 直接跳过；
// 为 false 时在循环内同步执行，tick 由 ticker 自身合并。
func WithSkipOverlap(skip bool) PollerOpt {
	return func(p *Poller) {
		p.skipOverlap = skip
	}
}

// Poller 定时轮询钱包状态，只在快照变化时通知订阅者。
// 任何查询失败都会回退到断开状态的快照，轮询本身不会因此终止。
type Poller struct {
	provider    Provider
	info        ProviderInfo
	interval    time.Duration
	clock       clockwork.Clock
	log         *zap.Logger
	skipOverlap bool

	mu     sync.Mutex
	subs   map[uint64]func(Snapshot)
	nextID uint64

	// emitMu 串行化 比较-记录-通知，保证订阅者看到的顺序与记录顺序一致
	emitMu sync.Mutex
	last   Snapshot

	polling atomic.Bool
	cycles  sync.WaitGroup

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller(provider Provider, info ProviderInfo, opts ...PollerOpt) *Poller {
	p := &Poller{
		provider:    provider,
		info:        info,
		interval:    DefaultPollInterval,
		clock:       clockwork.NewRealClock(),
		log:         zap.NewNop(),
		skipOverlap: true,
		subs:        make(map[uint64]func(Snapshot)),
		last:        Base(info),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Info 提供方标识
func (p *Poller) Info() ProviderInfo {
	return p.info
}

// Subscribe 注册快照变更回调，返回取消函数。
// 回调按注册顺序在轮询 goroutine 中同步执行，回调内不能调用 Last。
func (p *Poller) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

// Last 最近一次通知出去的快照
func (p *Poller) Last() Snapshot {
	p.emitMu.Lock()
	defer p.emitMu.Unlock()
	return p.last
}

// Start 启动轮询循环: 立即执行一轮，之后每个 interval 执行一轮。重复调用无效果。
func (p *Poller) Start(ctx context.Context) {
	p.runMu.Lock()
	defer p.runMu.Unlock()
	if p.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(ctx, p.done)
}

// Stop 停止循环并等待进行中的一轮结束
func (p *Poller) Stop() {
	p.runMu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	p.cycles.Wait()
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			p.log.Debug("wallet poller stopped")
			return
		case <-ticker.Chan():
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	if !p.skipOverlap {
		p.Poll(ctx)
		return
	}

	if !p.polling.CompareAndSwap(false, true) {
		monitor.WalletPollSkipped.Inc()
		p.log.Debug("previous poll cycle still running, tick skipped")
		return
	}
	p.cycles.Add(1)
	go func() {
		defer p.cycles.Done()
		defer p.polling.Store(false)
		p.Poll(ctx)
	}()
}

// Poll 执行一轮查询，有变化时通知订阅者，返回本轮得到的快照
func (p *Poller) Poll(ctx context.Context) Snapshot {
	monitor.WalletPollCycles.Inc()

	candidate, err := p.fetch(ctx)
	if ctx.Err() != nil {
		// 轮询自身被取消 (Stop)，不是钱包断开，保留上一次快照
		p.log.Debug("wallet poll cancelled", zap.Error(ctx.Err()))
		return p.Last()
	}
	if err != nil {
		if !errors.Is(err, ErrNoAccount) {
			monitor.WalletPollFailures.Inc()
		}
		p.log.Debug("wallet poll fell back to base snapshot", zap.Error(err))
		candidate = Base(p.info)
	}

	p.emit(candidate)
	return candidate
}

func (p *Poller) fetch(ctx context.Context) (Snapshot, error) {
	// 1. 主账户
	account, err := p.provider.MainAccount(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	// 2. 并发查询余额、合约标记、chainId、网络类型，任一失败则整体失败
	var (
		balance     *big.Int
		isContract  bool
		chainID     int64
		networkType string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		balance, err = p.provider.Balance(gctx, account)
		return err
	})
	g.Go(func() (err error) {
		isContract, err = p.provider.IsContract(gctx, account)
		return err
	})
	g.Go(func() (err error) {
		chainID, err = p.provider.ChainID(gctx)
		return err
	})
	g.Go(func() (err error) {
		networkType, err = p.provider.NetworkType(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	if balance == nil {
		return Snapshot{}, errors.New("provider returned nil balance")
	}

	return Connected(p.info, account, balance, chainID, isContract, networkType), nil
}

func (p *Poller) emit(candidate Snapshot) {
	p.emitMu.Lock()
	defer p.emitMu.Unlock()

	if Equal(candidate, p.last) {
		return
	}
	p.last = candidate
	monitor.WalletSnapshotChanges.Inc()
	if candidate.IsConnected {
		monitor.WalletConnected.Set(1)
	} else {
		monitor.WalletConnected.Set(0)
	}
	p.log.Info("wallet snapshot changed",
		zap.String("account", candidate.AccountHex()),
		zap.Int64("chainId", candidate.ChainID),
		zap.String("network", candidate.NetworkType),
	)

	p.mu.Lock()
	ids := make([]uint64, 0, len(p.subs))
	for id := range p.subs {
		ids = append(ids, id)
	}
	fns := make([]func(Snapshot), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, p.subs[id])
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(candidate)
	}
}
