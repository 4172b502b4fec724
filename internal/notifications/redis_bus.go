package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"creatorhub/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	chatPattern         = "chat:conv:*"
	notificationPattern = "notifications:user:*"
)

// RedisBus is an EventBus over Redis pub/sub, for deployments with more than
// one API instance. Delivery is at-most-once.
type RedisBus struct {
	rdb *redis.Client
}

func NewRedisBus(rdb *redis.Client) *RedisBus {
	return &RedisBus{rdb: rdb}
}

func (b *RedisBus) PublishChat(ctx context.Context, ev ChatEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal chat event: %w", err)
	}
	return b.rdb.Publish(ctx, ConversationChannel(ev.ConversationID), payload).Err()
}

func (b *RedisBus) SubscribeChat(ctx context.Context, h func(ChatEvent)) error {
	return b.subscribe(ctx, chatPattern, func(channel, payload string) {
		var ev ChatEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			observability.GlobalLogger.Warn("dropping malformed chat event", slog.String("channel", channel), slog.String("error", err.Error()))
			return
		}
		h(ev)
	})
}

func (b *RedisBus) PublishNotification(ctx context.Context, ev NotificationEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal notification event: %w", err)
	}
	return b.rdb.Publish(ctx, UserChannel(ev.UserID), payload).Err()
}

func (b *RedisBus) SubscribeNotifications(ctx context.Context, h func(NotificationEvent)) error {
	return b.subscribe(ctx, notificationPattern, func(channel, payload string) {
		var ev NotificationEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			observability.GlobalLogger.Warn("dropping malformed notification event", slog.String("channel", channel), slog.String("error", err.Error()))
			return
		}
		h(ev)
	})
}

// subscribe waits for the pattern subscription to be confirmed, then pumps
// messages to onMessage until ctx is done.
func (b *RedisBus) subscribe(ctx context.Context, pattern string, onMessage func(channel, payload string)) error {
	sub := b.rdb.PSubscribe(ctx, pattern)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("psubscribe %s: %w", pattern, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				safeCall(pattern, func() { onMessage(msg.Channel, msg.Payload) })
			}
		}
	}()
	return nil
}
