package activity

import (
	"context"
	"errors"
	"strings"
	"time"

	"signer-core/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore 基于 PostgreSQL 的存储
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Save(ctx context.Context, a *model.Activity) error {
	// 指纹冲突时不插入，通过 RowsAffected 判断是否重复
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "fingerprint"}}, DoNothing: true}).
		Create(a)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDuplicate
	}
	return nil
}

func (s *GormStore) Get(ctx context.Context, id string) (*model.Activity, error) {
	var a model.Activity
	err := s.db.WithContext(ctx).First(&a, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *GormStore) List(ctx context.Context, account string, limit int) ([]model.Activity, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if account != "" {
		q = q.Where("account = ?", strings.ToLower(account))
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []model.Activity
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GormStore) UpdateStatus(ctx context.Context, id string, status string) error {
	return s.updateColumn(ctx, id, "status", status)
}

func (s *GormStore) MarkNotified(ctx context.Context, id string) error {
	return s.updateColumn(ctx, id, "notified", true)
}

func (s *GormStore) updateColumn(ctx context.Context, id string, column string, value interface{}) error {
	res := s.db.WithContext(ctx).Model(&model.Activity{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) PruneSettled(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("status <> ? AND created_at < ?", model.ActivityStatusPending, cutoff).
		Delete(&model.Activity{})
	return res.RowsAffected, res.Error
}

func (s *GormStore) AddSubscription(ctx context.Context, sub *model.NotificationSubscription) error {
	sub.Account = strings.ToLower(sub.Account)
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account"}, {Name: "channel"}},
			DoUpdates: clause.AssignmentColumns([]string{"target"}),
		}).
		Create(sub).Error
}

func (s *GormStore) Subscriptions(ctx context.Context, account string) ([]model.NotificationSubscription, error) {
	var out []model.NotificationSubscription
	err := s.db.WithContext(ctx).Where("account = ?", strings.ToLower(account)).Find(&out).Error
	return out, err
}
