// Package activity 记录签名活动 (对应前端的通知列表)，并发布事件、投递通知任务
package activity

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"strconv"
	"strings"
	"time"

	"signer-core/internal/model"
	"signer-core/internal/service/mq"
	"signer-core/internal/signer"
	"signer-core/internal/worker/tasks"
	"signer-core/pkg/crypto_util"
	"signer-core/pkg/monitor"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultTopic 活动事件主题
const DefaultTopic = "signer_events_activity"

// Enqueuer 异步任务投递 (worker.Client)
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Event 发布到 mq 的活动事件
type Event struct {
	Type     string         `json:"type"`
	Activity model.Activity `json:"activity"`
}

type FeedOpt func(*Feed)

func WithClock(c clockwork.Clock) FeedOpt {
	return func(f *Feed) {
		f.clock = c
	}
}

func WithLogger(l *zap.Logger) FeedOpt {
	return func(f *Feed) {
		f.log = l
	}
}

func WithTopic(topic string) FeedOpt {
	return func(f *Feed) {
		f.topic = topic
	}
}

// Feed 活动记录。producer 与 enqueuer 可为 nil (单机模式)。
type Feed struct {
	store    Store
	producer mq.Producer
	enqueuer Enqueuer
	topic    string
	clock    clockwork.Clock
	log      *zap.Logger
}

func NewFeed(store Store, producer mq.Producer, enqueuer Enqueuer, opts ...FeedOpt) *Feed {
	f := &Feed{
		store:    store,
		producer: producer,
		enqueuer: enqueuer,
		topic:    DefaultTopic,
		clock:    clockwork.NewRealClock(),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// RecordTransaction 记录一笔已发送的交易
func (f *Feed) RecordTransaction(ctx context.Context, account common.Address, tx signer.TransactionPayload, appName string) (*model.Activity, error) {
	now := f.clock.Now().UTC()
	amount := decimal.Zero
	if tx.Value != nil {
		amount = decimal.NewFromBigInt((*big.Int)(tx.Value), -18)
	}

	a := &model.Activity{
		ID:          uuid.NewString(),
		Kind:        model.ActivityKindTransaction,
		Account:     lower(account),
		From:        lower(tx.From),
		To:          lower(tx.To),
		AppName:     appName,
		Description: tx.Description,
		Amount:      amount,
		Status:      model.ActivityStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	// 同一秒内的相同交易视为重复回调
	a.Fingerprint = crypto_util.Fingerprint(a.Kind, a.From, a.To, tx.Data.String(), amount.String(), tx.Description, strconv.FormatInt(now.Unix(), 10))
	return a, f.record(ctx, a)
}

// RecordMessage 记录一次消息签名，签名完成即为 CONFIRMED
func (f *Feed) RecordMessage(ctx context.Context, account common.Address, bag *signer.SignatureBag) (*model.Activity, error) {
	now := f.clock.Now().UTC()
	a := &model.Activity{
		ID:          uuid.NewString(),
		Kind:        model.ActivityKindMessage,
		Account:     lower(account),
		From:        lower(account),
		To:          lower(bag.RequestingApp.ProxyAddress),
		AppName:     bag.RequestingApp.Name,
		Description: bag.Message,
		Amount:      decimal.Zero,
		Status:      model.ActivityStatusConfirmed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	a.Fingerprint = crypto_util.Fingerprint(a.Kind, a.Account, a.To, bag.Message, strconv.FormatInt(now.Unix(), 10))
	return a, f.record(ctx, a)
}

func (f *Feed) record(ctx context.Context, a *model.Activity) error {
	// 1. 落库
	if err := f.store.Save(ctx, a); err != nil {
		if errors.Is(err, ErrDuplicate) {
			f.log.Debug("duplicate activity ignored", zap.String("fingerprint", a.Fingerprint))
		}
		return err
	}
	monitor.ActivitiesTotal.WithLabelValues(a.Kind).Inc()

	// 2. 发布事件 (失败不影响记录)
	if f.producer != nil {
		body, err := json.Marshal(Event{Type: "activity.created", Activity: *a})
		if err == nil {
			err = f.producer.Publish(ctx, f.topic, a.Account, body)
		}
		if err != nil {
			f.log.Warn("publish activity event failed", zap.String("id", a.ID), zap.Error(err))
		}
	}

	// 3. 投递通知任务
	if f.enqueuer != nil {
		task, err := tasks.NewActivityNotifyTask(tasks.ActivityNotifyPayload{
			ActivityID:  a.ID,
			Account:     a.Account,
			Kind:        a.Kind,
			Description: a.Description,
		})
		if err == nil {
			_, err = f.enqueuer.EnqueueContext(ctx, task)
		}
		if err != nil {
			f.log.Warn("enqueue activity notification failed", zap.String("id", a.ID), zap.Error(err))
		}
	}

	f.log.Info("activity recorded", zap.String("id", a.ID), zap.String("kind", a.Kind), zap.String("app", a.AppName))
	return nil
}

// List 账户的最近活动
func (f *Feed) List(ctx context.Context, account string, limit int) ([]model.Activity, error) {
	return f.store.List(ctx, strings.ToLower(account), limit)
}

// SetStatus 更新交易状态 (CONFIRMED / FAILED)
func (f *Feed) SetStatus(ctx context.Context, id string, status string) error {
	return f.store.UpdateStatus(ctx, id, status)
}

// Subscribe 订阅账户的活动通知，同一账户同一渠道只保留一条
func (f *Feed) Subscribe(ctx context.Context, account, channel, target string) (*model.NotificationSubscription, error) {
	sub := &model.NotificationSubscription{
		Account:   strings.ToLower(account),
		Channel:   channel,
		Target:    target,
		CreatedAt: f.clock.Now().UTC(),
	}
	if err := f.store.AddSubscription(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Subscriptions 账户的通知订阅
func (f *Feed) Subscriptions(ctx context.Context, account string) ([]model.NotificationSubscription, error) {
	return f.store.Subscriptions(ctx, strings.ToLower(account))
}

// Prune 删除 retention 之前已结束的记录
func (f *Feed) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	return f.store.PruneSettled(ctx, f.clock.Now().Add(-retention))
}

func lower(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}
