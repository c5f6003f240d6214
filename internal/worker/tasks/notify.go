package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"signer-core/internal/model"
	"signer-core/internal/service/mq"
	"signer-core/pkg/logger"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// 任务类型常量
const (
	TypeActivityNotify = "activity:notify"
)

// NotificationTopicPrefix 通知投递主题前缀，完整主题为 prefix + channel
const NotificationTopicPrefix = "signer_notifications_"

// ActivityNotifyPayload 通知任务参数
type ActivityNotifyPayload struct {
	ActivityID  string `json:"activity_id"`
	Account     string `json:"account"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
}

// ---------------------------------------------------------------------
// Producer
// ---------------------------------------------------------------------

// NewActivityNotifyTask 创建活动通知任务，最多重试 5 次
func NewActivityNotifyTask(p ActivityNotifyPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeActivityNotify, payload, asynq.MaxRetry(5), asynq.Timeout(time.Minute)), nil
}

// ---------------------------------------------------------------------
// Consumer
// ---------------------------------------------------------------------

// SubscriptionSource 通知订阅与投递状态
type SubscriptionSource interface {
	Subscriptions(ctx context.Context, account string) ([]model.NotificationSubscription, error)
	MarkNotified(ctx context.Context, activityID string) error
}

// Notification 投递给下游的通知消息
type Notification struct {
	ActivityID  string `json:"activity_id"`
	Kind        string `json:"kind"`
	Account     string `json:"account"`
	Target      string `json:"target"`
	Description string `json:"description"`
}

// NotifyHandler 把活动通知投递到每个订阅渠道的 mq 主题
type NotifyHandler struct {
	source   SubscriptionSource
	producer mq.Producer
}

func NewNotifyHandler(source SubscriptionSource, producer mq.Producer) *NotifyHandler {
	return &NotifyHandler{source: source, producer: producer}
}

// ProcessTask 实现 asynq.Handler
func (h *NotifyHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p ActivityNotifyPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		// JSON 解析失败，重试也没用
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	subs, err := h.source.Subscriptions(ctx, p.Account)
	if err != nil {
		return fmt.Errorf("list subscriptions: %w", err)
	}

	for _, s := range subs {
		body, err := json.Marshal(Notification{
			ActivityID:  p.ActivityID,
			Kind:        p.Kind,
			Account:     p.Account,
			Target:      s.Target,
			Description: p.Description,
		})
		if err != nil {
			return err
		}
		if err := h.producer.Publish(ctx, NotificationTopicPrefix+s.Channel, p.Account, body); err != nil {
			return fmt.Errorf("publish notification: %w", err)
		}
	}

	if err := h.source.MarkNotified(ctx, p.ActivityID); err != nil {
		return fmt.Errorf("mark notified: %w", err)
	}

	logger.Info("活动通知已投递",
		zap.String("activity_id", p.ActivityID),
		zap.Int("subscribers", len(subs)),
	)
	return nil
}
