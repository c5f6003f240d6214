package activity

import (
	"context"
	"encoding/json"
	"math/big"
	"sync"
	"testing"
	"time"

	"signer-core/internal/apps"
	"signer-core/internal/model"
	"signer-core/internal/service/mq"
	"signer-core/internal/signer"
	"signer-core/internal/worker/tasks"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/hibiken/asynq"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	account = common.HexToAddress("0x00000000000000000000000000000000000000A1")
	voting  = common.HexToAddress("0x1973A9d3a3b7Bd8c5BDd7d3Ce1f0bC6d0a9B1271")
)

type recordingEnqueuer struct {
	mu    sync.Mutex
	tasks []*asynq.Task
}

func (e *recordingEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tasks = append(e.tasks, task)
	return &asynq.TaskInfo{ID: "t", Type: task.Type()}, nil
}

type recordingProducer struct {
	mu   sync.Mutex
	msgs []mq.Message
}

func (p *recordingProducer) Publish(ctx context.Context, topic, key string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, mq.Message{Topic: topic, Key: key, Payload: payload})
	return nil
}

func (p *recordingProducer) Close() error { return nil }

func TestFeed_RecordTransaction(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	prod := &recordingProducer{}
	enq := &recordingEnqueuer{}
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	feed := NewFeed(store, prod, enq, WithClock(clock))

	value := (*hexutil.Big)(big.NewInt(1500000000000000000))
	tx := signer.TransactionPayload{From: account, To: voting, Value: value, Description: "Create vote"}

	a, err := feed.RecordTransaction(ctx, account, tx, "Voting")
	require.NoError(t, err)
	assert.Equal(t, model.ActivityKindTransaction, a.Kind)
	assert.Equal(t, model.ActivityStatusPending, a.Status)
	assert.Equal(t, "1.5", a.Amount.String())
	assert.Equal(t, "0x00000000000000000000000000000000000000a1", a.Account)
	assert.Len(t, a.Fingerprint, 64)

	// 事件与通知任务
	require.Len(t, prod.msgs, 1)
	assert.Equal(t, DefaultTopic, prod.msgs[0].Topic)
	var ev Event
	require.NoError(t, json.Unmarshal(prod.msgs[0].Payload, &ev))
	assert.Equal(t, a.ID, ev.Activity.ID)

	require.Len(t, enq.tasks, 1)
	assert.Equal(t, tasks.TypeActivityNotify, enq.tasks[0].Type())

	// 同一秒内重复回调被去重
	_, err = feed.RecordTransaction(ctx, account, tx, "Voting")
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Len(t, prod.msgs, 1)

	clock.Advance(time.Second)
	_, err = feed.RecordTransaction(ctx, account, tx, "Voting")
	require.NoError(t, err)

	list, err := feed.List(ctx, account.Hex(), 10)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestFeed_RecordMessageWithoutBrokers(t *testing.T) {
	ctx := context.Background()
	feed := NewFeed(NewMemoryStore(), nil, nil)
	bag := &signer.SignatureBag{RequestingApp: apps.Instance{Name: "Voting", ProxyAddress: voting}, Message: "hello"}

	a, err := feed.RecordMessage(ctx, account, bag)
	require.NoError(t, err)
	assert.Equal(t, model.ActivityKindMessage, a.Kind)
	assert.Equal(t, model.ActivityStatusConfirmed, a.Status)
	assert.Equal(t, "Voting", a.AppName)
}

func TestFeed_PruneSettled(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	clock := clockwork.NewFakeClock()
	feed := NewFeed(store, nil, nil, WithClock(clock))
	tx := signer.TransactionPayload{From: account, To: voting}

	pending, err := feed.RecordTransaction(ctx, account, tx, "")
	require.NoError(t, err)
	clock.Advance(time.Second)
	done, err := feed.RecordTransaction(ctx, account, tx, "")
	require.NoError(t, err)
	require.NoError(t, feed.SetStatus(ctx, done.ID, model.ActivityStatusConfirmed))

	clock.Advance(8 * 24 * time.Hour)
	n, err := feed.Prune(ctx, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = store.Get(ctx, pending.ID)
	assert.NoError(t, err, "pending activities are kept")
	_, err = store.Get(ctx, done.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Subscriptions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.AddSubscription(ctx, &model.NotificationSubscription{Account: "0xA1", Channel: "webhook", Target: "https://a"}))
	require.NoError(t, store.AddSubscription(ctx, &model.NotificationSubscription{Account: "0xa1", Channel: "webhook", Target: "https://b"}))

	subs, err := store.Subscriptions(ctx, "0xa1")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "https://b", subs[0].Target)
}
