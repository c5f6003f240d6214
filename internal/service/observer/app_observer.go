// Package observer 扫描链上日志，把已注册应用实例的事件发布到各自的事件主题
package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sync"
	"time"

	"signer-core/internal/apps"
	"signer-core/internal/service/mq"
	"signer-core/internal/worker"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const (
	DefaultInterval  = 4 * time.Second
	DefaultBatchSize = 500
)

// LogSource 链上日志查询，*ethclient.Client 满足该接口
type LogSource interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// AppLister 当前需要监听的应用实例
type AppLister interface {
	List() []apps.Instance
}

type Opt func(*AppObserver)

func WithClock(c clockwork.Clock) Opt {
	return func(o *AppObserver) {
		o.clock = c
	}
}

func WithInterval(d time.Duration) Opt {
	return func(o *AppObserver) {
		if d > 0 {
			o.interval = d
		}
	}
}

func WithBatchSize(n uint64) Opt {
	return func(o *AppObserver) {
		if n > 0 {
			o.batch = n
		}
	}
}

// WithStartBlock 从指定高度开始扫描，默认从启动时的最新高度开始
func WithStartBlock(n uint64) Opt {
	return func(o *AppObserver) {
		o.next = n
		o.started = true
	}
}

func WithLogger(l *zap.Logger) Opt {
	return func(o *AppObserver) {
		o.log = l
	}
}

// AppObserver 按区块区间拉取应用合约日志并发布到 mq
type AppObserver struct {
	source   LogSource
	apps     AppLister
	producer mq.Producer
	clock    clockwork.Clock
	interval time.Duration
	batch    uint64
	log      *zap.Logger

	mu      sync.Mutex
	next    uint64
	started bool

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewAppObserver(source LogSource, lister AppLister, producer mq.Producer, opts ...Opt) *AppObserver {
	o := &AppObserver{
		source:   source,
		apps:     lister,
		producer: producer,
		clock:    clockwork.NewRealClock(),
		interval: DefaultInterval,
		batch:    DefaultBatchSize,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start 启动扫描 goroutine，重复调用无效果
func (o *AppObserver) Start(ctx context.Context) {
	o.runMu.Lock()
	defer o.runMu.Unlock()
	if o.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	o.cancel, o.done = cancel, done

	go func() {
		defer close(done)
		ticker := o.clock.NewTicker(o.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				if _, err := o.Scan(ctx); err != nil {
					o.log.Debug("scan failed", zap.Error(err))
				}
			}
		}
	}()
}

// Stop 停止扫描并等待 goroutine 退出
func (o *AppObserver) Stop() {
	o.runMu.Lock()
	cancel, done := o.cancel, o.done
	o.cancel, o.done = nil, nil
	o.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// NextBlock 下一次扫描的起始高度
func (o *AppObserver) NextBlock() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.next
}

// Scan 扫描一个区块区间，返回发布的事件数。
// 发布失败时高度推进到失败日志所在区块，之前的区块不会重发；
// 该区块内已发布的日志会在下一轮再次发布 (至少一次投递)。
func (o *AppObserver) Scan(ctx context.Context) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	latest, err := o.source.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("获取最新高度失败: %w", err)
	}
	if !o.started {
		o.next = latest
		o.started = true
	}
	if latest < o.next {
		return 0, nil
	}

	registered := o.apps.List()
	if len(registered) == 0 {
		o.next = latest + 1
		return 0, nil
	}
	byAddr := make(map[common.Address]apps.Instance, len(registered))
	addrs := make([]common.Address, 0, len(registered))
	for _, app := range registered {
		byAddr[app.ProxyAddress] = app
		addrs = append(addrs, app.ProxyAddress)
	}

	to := min(latest, o.next+o.batch-1)
	logs, err := o.source.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(o.next),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: addrs,
	})
	if err != nil {
		return 0, fmt.Errorf("拉取日志失败 [%d, %d]: %w", o.next, to, err)
	}

	published := 0
	for _, l := range logs {
		if l.Removed {
			continue
		}
		app, ok := byAddr[l.Address]
		if !ok {
			continue
		}
		body, err := json.Marshal(eventFromLog(l))
		if err != nil {
			o.advanceTo(l.BlockNumber)
			return published, err
		}
		if err := o.producer.Publish(ctx, worker.EventTopic(app), l.TxHash.Hex(), body); err != nil {
			o.advanceTo(l.BlockNumber)
			return published, fmt.Errorf("发布事件失败 (区块 %d): %w", l.BlockNumber, err)
		}
		published++
	}

	o.log.Debug("blocks scanned", zap.Uint64("from", o.next), zap.Uint64("to", to), zap.Int("events", published))
	o.next = to + 1
	return published, nil
}

// advanceTo 日志按区块升序返回，block 之前的区块已全部发布
func (o *AppObserver) advanceTo(block uint64) {
	if block > o.next {
		o.next = block
	}
}

// eventFromLog 没有 ABI 时以 topic0 作为事件标识
func eventFromLog(l types.Log) worker.AppEvent {
	ev := worker.AppEvent{
		BlockNumber: l.BlockNumber,
		TxHash:      l.TxHash.Hex(),
	}
	topics := make([]string, 0, len(l.Topics))
	for _, t := range l.Topics {
		topics = append(topics, t.Hex())
	}
	if len(topics) > 0 {
		ev.Event = topics[0]
	}
	ev.ReturnValues = map[string]any{
		"topics": topics,
		"data":   common.Bytes2Hex(l.Data),
	}
	return ev
}
