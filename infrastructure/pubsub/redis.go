// Package pubsub fans tree-change signals out across server instances
// over Redis pub/sub.
package pubsub

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kryoon/backend/application/ports"
	pkgerrors "github.com/kryoon/backend/pkg/errors"
)

const channelPrefix = "kryoon:tree:"

// RedisNotifier implements ports.ChangeNotifier on Redis pub/sub.
// Subscribers on any instance tick when any instance publishes.
type RedisNotifier struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisNotifier verifies the connection and returns a notifier
func NewRedisNotifier(ctx context.Context, client *redis.Client, logger *zap.Logger) (ports.ChangeNotifier, error) {
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, pkgerrors.NewExternalError("redis connection failed", err)
	}
	return &RedisNotifier{client: client, logger: logger}, nil
}

func channelFor(postID string) string {
	return channelPrefix + postID
}

// NotifyTreeChanged publishes a change tick for the post
func (n *RedisNotifier) NotifyTreeChanged(ctx context.Context, postID string) error {
	if err := n.client.Publish(ctx, channelFor(postID), "1").Err(); err != nil {
		return pkgerrors.NewExternalError("change publish failed", err)
	}
	return nil
}

// SubscribeTreeChanged subscribes to the post's change channel. The
// returned channel closes when the subscription ends, whether through the
// cancel func or a broker-side disconnect.
func (n *RedisNotifier) SubscribeTreeChanged(ctx context.Context, postID string) (<-chan struct{}, func(), error) {
	sub := n.client.Subscribe(ctx, channelFor(postID))

	// Force the subscription handshake so failures surface here rather
	// than as a silently dead channel.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, pkgerrors.NewExternalError("change subscription failed", err)
	}

	ticks := make(chan struct{}, 1)
	go func() {
		defer close(ticks)
		for range sub.Channel() {
			select {
			case ticks <- struct{}{}:
			default:
				// Receiver is mid-refresh; one pending tick is enough.
			}
		}
	}()

	cancel := func() {
		if err := sub.Close(); err != nil {
			n.logger.Warn("subscription close failed",
				zap.String("postId", postID),
				zap.Error(err))
		}
	}
	return ticks, cancel, nil
}
