package mq

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBroker_PublishSubscribe(t *testing.T) {
	b := NewMemoryBroker()
	ctx, cancel := context.WithCancel(context.Background())

	var (
		mu   sync.Mutex
		got  []string
		done = make(chan struct{})
	)
	go func() {
		defer close(done)
		_ = b.Subscribe(ctx, "topic", func(m *Message) error {
			mu.Lock()
			got = append(got, string(m.Payload))
			mu.Unlock()
			return nil
		})
	}()
	require.Eventually(t, func() bool { return b.Subscribers("topic") == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, b.Publish(ctx, "topic", "k", []byte("a")))
	require.NoError(t, b.Publish(ctx, "other", "k", []byte("x")))
	require.NoError(t, b.Publish(ctx, "topic", "k", []byte("b")))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, got)

	cancel()
	<-done
	assert.Equal(t, 0, b.Subscribers("topic"))

	require.NoError(t, b.Close())
	assert.ErrorIs(t, b.Publish(context.Background(), "topic", "", nil), ErrClosed)
}
