package activity

import (
	"context"
	"errors"
	"time"

	"signer-core/internal/model"
)

var (
	ErrNotFound  = errors.New("activity not found")
	ErrDuplicate = errors.New("activity already recorded")
)

// Store 活动记录与通知订阅的存储
type Store interface {
	Save(ctx context.Context, a *model.Activity) error
	Get(ctx context.Context, id string) (*model.Activity, error)
	// List 按创建时间倒序，account 为空时列出全部
	List(ctx context.Context, account string, limit int) ([]model.Activity, error)
	UpdateStatus(ctx context.Context, id string, status string) error
	MarkNotified(ctx context.Context, id string) error
	// PruneSettled 删除 cutoff 之前且已结束 (非 PENDING) 的记录
	PruneSettled(ctx context.Context, cutoff time.Time) (int64, error)

	AddSubscription(ctx context.Context, s *model.NotificationSubscription) error
	Subscriptions(ctx context.Context, account string) ([]model.NotificationSubscription, error)
}
