package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"creatorhub/internal/observability"
)

// EventBus carries realtime events from services to relays. There is one
// typed channel per event category.
type EventBus interface {
	PublishChat(ctx context.Context, ev ChatEvent) error
	// SubscribeChat delivers chat events to h until ctx is done.
	SubscribeChat(ctx context.Context, h func(ChatEvent)) error
	PublishNotification(ctx context.Context, ev NotificationEvent) error
	// SubscribeNotifications delivers notification events to h until ctx is done.
	SubscribeNotifications(ctx context.Context, h func(NotificationEvent)) error
}

type subscriber[T any] struct {
	ctx context.Context
	h   func(T)
}

// MemoryBus is an in-process EventBus. Publish runs subscribers synchronously,
// in subscription order, so events reach each subscriber in emission order.
type MemoryBus struct {
	mu            sync.RWMutex
	chat          []subscriber[ChatEvent]
	notifications []subscriber[NotificationEvent]
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{}
}

func (b *MemoryBus) PublishChat(_ context.Context, ev ChatEvent) error {
	b.mu.RLock()
	subs := append([]subscriber[ChatEvent](nil), b.chat...)
	b.mu.RUnlock()
	dispatch(subs, ev, "chat")
	return nil
}

func (b *MemoryBus) SubscribeChat(ctx context.Context, h func(ChatEvent)) error {
	b.mu.Lock()
	b.chat = append(pruned(b.chat), subscriber[ChatEvent]{ctx: ctx, h: h})
	b.mu.Unlock()
	return nil
}

func (b *MemoryBus) PublishNotification(_ context.Context, ev NotificationEvent) error {
	b.mu.RLock()
	subs := append([]subscriber[NotificationEvent](nil), b.notifications...)
	b.mu.RUnlock()
	dispatch(subs, ev, "notification")
	return nil
}

func (b *MemoryBus) SubscribeNotifications(ctx context.Context, h func(NotificationEvent)) error {
	b.mu.Lock()
	b.notifications = append(pruned(b.notifications), subscriber[NotificationEvent]{ctx: ctx, h: h})
	b.mu.Unlock()
	return nil
}

func pruned[T any](subs []subscriber[T]) []subscriber[T] {
	live := subs[:0]
	for _, s := range subs {
		if s.ctx.Err() == nil {
			live = append(live, s)
		}
	}
	return live
}

func dispatch[T any](subs []subscriber[T], ev T, kind string) {
	for _, s := range subs {
		if s.ctx.Err() != nil {
			continue
		}
		safeCall(kind, func() { s.h(ev) })
	}
}

// safeCall keeps one failing subscriber from taking down the publisher.
func safeCall(kind string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			observability.GlobalLogger.Error("panic in event subscriber",
				slog.String("kind", kind),
				slog.String("panic", fmt.Sprint(r)),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	fn()
}
