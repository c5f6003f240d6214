package mq

import (
	"context"
	"errors"
)

var ErrClosed = errors.New("mq: closed")

// Message 通用消息
type Message struct {
	ID       string            // 消息ID (Redis Stream ID 或 Kafka partition/offset)
	Topic    string            // 主题 (如 "signer_events_activity")
	Key      string            // 分区键，同一 Key 的消息保持有序
	Payload  []byte            // 消息体 (JSON)
	Metadata map[string]string // 元数据
}

// Producer 生产者接口
type Producer interface {
	// Publish 发送消息，key 为空时随机分区
	Publish(ctx context.Context, topic string, key string, payload []byte) error
	Close() error
}

// Consumer 消费者接口
type Consumer interface {
	// Subscribe 订阅主题并阻塞消费，直到 ctx 取消。
	// handler 返回 error 时消息不确认 (不 ACK / 不提交 offset)。
	Subscribe(ctx context.Context, topic string, handler func(msg *Message) error) error

	Close() error
}
