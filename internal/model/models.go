package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 活动类型
const (
	ActivityKindTransaction = "transaction"
	ActivityKindMessage     = "message"
)

// 活动状态
const (
	ActivityStatusPending   = "PENDING"
	ActivityStatusConfirmed = "CONFIRMED"
	ActivityStatusFailed    = "FAILED"
)

// Activity 签名活动记录 (交易发送 / 消息签名)
type Activity struct {
	ID          string          `gorm:"type:uuid;primaryKey" json:"id"`
	Kind        string          `gorm:"type:varchar(16);not null;index" json:"kind"`
	Account     string          `gorm:"type:varchar(42);not null;index" json:"account"`
	From        string          `gorm:"type:varchar(42)" json:"from"`
	To          string          `gorm:"type:varchar(42)" json:"to"`
	AppName     string          `gorm:"type:varchar(255)" json:"app_name"`
	Description string          `gorm:"type:text" json:"description"`
	Amount      decimal.Decimal `gorm:"type:decimal(38,18);not null;default:0" json:"amount"` // ETH
	Fingerprint string          `gorm:"type:char(64);not null;uniqueIndex" json:"fingerprint"`
	Status      string          `gorm:"type:varchar(16);not null;default:'PENDING';index" json:"status"`
	Notified    bool            `gorm:"not null;default:false" json:"notified"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (Activity) TableName() string {
	return "activities"
}

// NotificationSubscription 账户的活动通知订阅
type NotificationSubscription struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Account   string    `gorm:"type:varchar(42);not null;uniqueIndex:idx_account_channel" json:"account"`
	Channel   string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_account_channel" json:"channel"` // mq topic 后缀，如 "webhook"
	Target    string    `gorm:"type:varchar(255);not null" json:"target"`
	CreatedAt time.Time `json:"created_at"`
}

func (NotificationSubscription) TableName() string {
	return "notification_subscriptions"
}
