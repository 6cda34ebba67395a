package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestNotifier(t *testing.T) *RedisNotifier {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	n, err := NewRedisNotifier(context.Background(), client, zap.NewNop())
	require.NoError(t, err)
	return n.(*RedisNotifier)
}

func TestNotifyReachesSubscriber(t *testing.T) {
	n := newTestNotifier(t)

	ticks, cancel, err := n.SubscribeTreeChanged(context.Background(), "post-1")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, n.NotifyTreeChanged(context.Background(), "post-1"))

	select {
	case _, ok := <-ticks:
		assert.True(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("no tick received")
	}
}

func TestNotifyIsScopedPerPost(t *testing.T) {
	n := newTestNotifier(t)

	ticks, cancel, err := n.SubscribeTreeChanged(context.Background(), "post-1")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, n.NotifyTreeChanged(context.Background(), "post-2"))

	select {
	case <-ticks:
		t.Fatal("tick leaked across posts")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCancelClosesChannel(t *testing.T) {
	n := newTestNotifier(t)

	ticks, cancel, err := n.SubscribeTreeChanged(context.Background(), "post-1")
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-ticks:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestSubscribeFailsWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	n, err := NewRedisNotifier(context.Background(), client, zap.NewNop())
	require.NoError(t, err)

	mr.Close()

	ctx, cancelCtx := context.WithTimeout(context.Background(), time.Second)
	defer cancelCtx()
	_, _, err = n.SubscribeTreeChanged(ctx, "post-1")
	assert.Error(t, err)
}
