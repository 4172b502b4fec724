package notifications

import (
	"context"

	"creatorhub/internal/observability"

	"github.com/gofiber/websocket/v2"
)

// NotificationRelay pushes new notifications to every live connection of the recipient.
type NotificationRelay struct {
	registry *Registry
	bus      EventBus
	log      *observability.WSLogger
	cancel   context.CancelFunc
}

func NewNotificationRelay(bus EventBus) *NotificationRelay {
	return &NotificationRelay{
		registry: NewRegistry("notifications"),
		bus:      bus,
		log:      observability.NewWSLogger("notifications"),
	}
}

// Name returns a human-readable identifier for this hub.
func (r *NotificationRelay) Name() string { return "notification hub" }

// Registry exposes the relay's connections.
func (r *NotificationRelay) Registry() *Registry { return r.registry }

// StartWiring subscribes the relay to notification events.
func (r *NotificationRelay) StartWiring(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	return r.bus.SubscribeNotifications(ctx, r.Deliver)
}

// Deliver emits ev to the recipient's connections.
func (r *NotificationRelay) Deliver(ev NotificationEvent) {
	frame, err := EncodeFrame(EventNotification, ev.Notification)
	if err != nil {
		r.log.LogError(context.Background(), ev.UserID, UserRoom(ev.UserID), err, EventNotification)
		return
	}
	r.registry.Emit(UserRoom(ev.UserID), EventNotification, frame)
}

// Attach registers an authenticated connection. The channel is push-only;
// inbound frames are ignored.
func (r *NotificationRelay) Attach(conn *websocket.Conn, userID uint) (*Client, error) {
	c := NewClient("notifications", conn, userID, func(c *Client) { r.registry.Unregister(c) })
	if err := r.registry.Register(c); err != nil {
		return nil, err
	}
	r.log.LogConnect(c.Context(), userID, c.ID)
	return c, nil
}

// Shutdown closes every notification connection.
func (r *NotificationRelay) Shutdown(_ context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}
	r.registry.CloseAll()
	return nil
}
