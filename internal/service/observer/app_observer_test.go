package observer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"signer-core/internal/apps"
	"signer-core/internal/service/mq"
	"signer-core/internal/worker"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	votingApp  = apps.Instance{Name: "Voting", ProxyAddress: common.HexToAddress("0x1973a9d3a3b7bd8c5bdd7d3ce1f0bc6d0a9b1271")}
	startVote  = common.HexToHash("0x4d72fe0577a3a3f7da968d7b892779dde102519c25527b29cf7054f245c791b9")
	unknownApp = common.HexToAddress("0x00000000000000000000000000000000000000ff")
)

type fakeSource struct {
	mu      sync.Mutex
	head    uint64
	logs    []types.Log
	queries []ethereum.FilterQuery
	err     error
}

func (s *fakeSource) BlockNumber(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.head, nil
}

func (s *fakeSource) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	if s.err != nil {
		return nil, s.err
	}
	var out []types.Log
	for _, l := range s.logs {
		if l.BlockNumber >= q.FromBlock.Uint64() && l.BlockNumber <= q.ToBlock.Uint64() {
			out = append(out, l)
		}
	}
	return out, nil
}

func subscribe(t *testing.T, broker *mq.MemoryBroker, topic string) <-chan worker.AppEvent {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	events := make(chan worker.AppEvent, 16)
	go func() {
		_ = broker.Subscribe(ctx, topic, func(msg *mq.Message) error {
			var ev worker.AppEvent
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				return err
			}
			events <- ev
			return nil
		})
	}()
	require.Eventually(t, func() bool { return broker.Subscribers(topic) == 1 }, time.Second, 5*time.Millisecond)
	return events
}

func TestScan_PublishesRegisteredAppEvents(t *testing.T) {
	source := &fakeSource{
		head: 12,
		logs: []types.Log{
			{Address: votingApp.ProxyAddress, Topics: []common.Hash{startVote}, BlockNumber: 11, TxHash: common.HexToHash("0x01")},
			{Address: unknownApp, Topics: []common.Hash{startVote}, BlockNumber: 11},
			{Address: votingApp.ProxyAddress, Topics: []common.Hash{startVote}, BlockNumber: 12, Removed: true},
		},
	}
	broker := mq.NewMemoryBroker()
	events := subscribe(t, broker, worker.EventTopic(votingApp))

	o := NewAppObserver(source, apps.NewRegistry(votingApp), broker, WithStartBlock(10))
	n, err := o.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, uint64(13), o.NextBlock())

	ev := <-events
	assert.Equal(t, startVote.Hex(), ev.Event)
	assert.Equal(t, uint64(11), ev.BlockNumber)
	assert.Equal(t, common.HexToHash("0x01").Hex(), ev.TxHash)

	require.Len(t, source.queries, 1)
	assert.Equal(t, []common.Address{votingApp.ProxyAddress}, source.queries[0].Addresses)
}

func TestScan_StartsAtHeadAndBatches(t *testing.T) {
	source := &fakeSource{head: 100}
	o := NewAppObserver(source, apps.NewRegistry(votingApp), mq.NewMemoryBroker(), WithBatchSize(10))

	_, err := o.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(101), o.NextBlock())

	source.head = 150
	_, err = o.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(111), o.NextBlock())
	assert.Equal(t, uint64(110), source.queries[1].ToBlock.Uint64())
}

func TestScan_FailureKeepsHeight(t *testing.T) {
	source := &fakeSource{head: 5, err: errors.New("rpc down")}
	o := NewAppObserver(source, apps.NewRegistry(votingApp), mq.NewMemoryBroker(), WithStartBlock(1))

	_, err := o.Scan(context.Background())
	assert.Error(t, err)
	assert.Equal(t, uint64(1), o.NextBlock())
}

func TestScan_NoAppsSkipsQuery(t *testing.T) {
	source := &fakeSource{head: 5}
	o := NewAppObserver(source, apps.NewRegistry(), mq.NewMemoryBroker(), WithStartBlock(1))

	_, err := o.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, source.queries)
	assert.Equal(t, uint64(6), o.NextBlock())
}

func TestStartStop(t *testing.T) {
	clock := clockwork.NewFakeClock()
	source := &fakeSource{head: 7}
	o := NewAppObserver(source, apps.NewRegistry(votingApp), mq.NewMemoryBroker(),
		WithClock(clock), WithInterval(time.Second), WithStartBlock(7))

	o.Start(context.Background())
	clock.BlockUntil(1)
	clock.Advance(time.Second)

	require.Eventually(t, func() bool { return o.NextBlock() == 8 }, time.Second, 5*time.Millisecond)
	o.Stop()
}

// failingProducer 第 failAt 次发布 (从 1 开始) 返回错误
type failingProducer struct {
	mu     sync.Mutex
	calls  int
	failAt int
	keys   []string
}

func (p *failingProducer) Publish(ctx context.Context, topic string, key string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.calls == p.failAt {
		return errors.New("broker unavailable")
	}
	p.keys = append(p.keys, key)
	return nil
}

func (p *failingProducer) Close() error { return nil }

func TestScan_PublishFailureAdvancesPastPublishedBlocks(t *testing.T) {
	source := &fakeSource{
		head: 5,
		logs: []types.Log{
			{Address: votingApp.ProxyAddress, BlockNumber: 3, TxHash: common.HexToHash("0x03")},
			{Address: votingApp.ProxyAddress, BlockNumber: 4, TxHash: common.HexToHash("0x04")},
			{Address: votingApp.ProxyAddress, BlockNumber: 4, TxHash: common.HexToHash("0x44")},
			{Address: votingApp.ProxyAddress, BlockNumber: 5, TxHash: common.HexToHash("0x05")},
		},
	}
	producer := &failingProducer{failAt: 3}
	o := NewAppObserver(source, apps.NewRegistry(votingApp), producer, WithStartBlock(1))

	n, err := o.Scan(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, uint64(4), o.NextBlock())

	n, err = o.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, uint64(6), o.NextBlock())
	assert.Equal(t, uint64(4), source.queries[1].FromBlock.Uint64())

	// 区块 3 只发布一次
	assert.Equal(t, []string{
		common.HexToHash("0x03").Hex(),
		common.HexToHash("0x04").Hex(),
		common.HexToHash("0x04").Hex(),
		common.HexToHash("0x44").Hex(),
		common.HexToHash("0x05").Hex(),
	}, producer.keys)
}

func TestStart_Idempotent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	source := &fakeSource{head: 7}
	o := NewAppObserver(source, apps.NewRegistry(votingApp), mq.NewMemoryBroker(),
		WithClock(clock), WithInterval(time.Second), WithStartBlock(7))

	o.Start(context.Background())
	o.Start(context.Background())
	clock.BlockUntil(1)
	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return o.NextBlock() == 8 }, time.Second, 5*time.Millisecond)

	o.Stop()

	// 停止后不再扫描
	source.mu.Lock()
	source.head = 20
	source.mu.Unlock()
	clock.Advance(time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, uint64(8), o.NextBlock())
}
