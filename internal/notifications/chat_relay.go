package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"creatorhub/internal/observability"

	"github.com/gofiber/websocket/v2"
)

// Membership answers whether a user takes part in a conversation.
type Membership interface {
	IsParticipant(ctx context.Context, conversationID, userID uint) (bool, error)
}

// TypingSender publishes a typing indicator on behalf of a participant.
type TypingSender interface {
	SendTyping(ctx context.Context, userID, conversationID uint, isTyping bool) error
}

// ChatRelay delivers chat events to connections that joined the
// conversation's room. Delivery is best-effort, with no replay.
type ChatRelay struct {
	registry   *Registry
	bus        EventBus
	membership Membership
	typing     TypingSender
	log        *observability.WSLogger
	cancel     context.CancelFunc
}

func NewChatRelay(bus EventBus, membership Membership, typing TypingSender) *ChatRelay {
	return &ChatRelay{
		registry:   NewRegistry("chat"),
		bus:        bus,
		membership: membership,
		typing:     typing,
		log:        observability.NewWSLogger("chat"),
	}
}

// Name returns a human-readable identifier for this hub.
func (r *ChatRelay) Name() string { return "chat hub" }

// Registry exposes the relay's connections.
func (r *ChatRelay) Registry() *Registry { return r.registry }

// StartWiring subscribes the relay to chat events.
func (r *ChatRelay) StartWiring(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	return r.bus.SubscribeChat(ctx, r.Deliver)
}

// Deliver emits ev to the conversation room.
func (r *ChatRelay) Deliver(ev ChatEvent) {
	frame, err := EncodeFrame(ev.Type, ev.Data)
	if err != nil {
		r.log.LogError(context.Background(), 0, ConversationRoom(ev.ConversationID), err, ev.Type)
		return
	}
	r.registry.Emit(ConversationRoom(ev.ConversationID), ev.Type, frame)
}

// Attach registers an authenticated connection and wires its inbound commands.
func (r *ChatRelay) Attach(conn *websocket.Conn, userID uint) (*Client, error) {
	c := NewClient("chat", conn, userID, func(c *Client) { r.registry.Unregister(c) })
	c.IncomingHandler = r.HandleIncoming
	if err := r.registry.Register(c); err != nil {
		return nil, err
	}
	r.log.LogConnect(c.Context(), userID, c.ID)
	return c, nil
}

// HandleIncoming processes one client command.
func (r *ChatRelay) HandleIncoming(c *Client, raw []byte) {
	var cmd inbound
	if err := json.Unmarshal(raw, &cmd); err != nil {
		r.reply(c, EventError, map[string]string{"message": "malformed message"})
		return
	}
	conversationID := uint(cmd.ConversationID)
	if conversationID == 0 && cmd.Type != "" {
		r.reply(c, EventError, map[string]string{"message": "conversationId is required"})
		return
	}

	ctx := c.Context()
	room := ConversationRoom(conversationID)

	switch cmd.Type {
	case "joinConversation":
		if err := r.authorize(ctx, c, conversationID); err != nil {
			r.reply(c, EventError, map[string]any{"message": err.Error(), "conversationId": conversationID})
			return
		}
		if err := r.registry.Join(c, room); err != nil {
			r.log.LogError(ctx, c.UserID, room, err, cmd.Type)
			return
		}
		r.log.LogRoom(ctx, c.UserID, room, "join")
		r.reply(c, EventJoined, map[string]uint{"conversationId": conversationID})

	case "leaveConversation":
		r.registry.Leave(c, room)
		r.log.LogRoom(ctx, c.UserID, room, "leave")
		r.reply(c, EventLeft, map[string]uint{"conversationId": conversationID})

	case "typing":
		if !c.AllowTyping() {
			return
		}
		if r.typing == nil {
			return
		}
		if err := r.typing.SendTyping(ctx, c.UserID, conversationID, cmd.IsTyping); err != nil {
			r.reply(c, EventError, map[string]any{"message": "cannot send typing indicator", "conversationId": conversationID})
		}

	default:
		r.reply(c, EventError, map[string]string{"message": fmt.Sprintf("unknown message type %q", cmd.Type)})
	}
}

var errNotParticipant = errors.New("not a participant of this conversation")

func (r *ChatRelay) authorize(ctx context.Context, c *Client, conversationID uint) error {
	if r.membership == nil {
		return nil
	}
	ok, err := r.membership.IsParticipant(ctx, conversationID, c.UserID)
	if err != nil {
		r.log.LogError(ctx, c.UserID, ConversationRoom(conversationID), err, "authorize")
		return errors.New("cannot join conversation")
	}
	if !ok {
		return errNotParticipant
	}
	return nil
}

func (r *ChatRelay) reply(c *Client, event string, data any) {
	frame, err := EncodeFrame(event, data)
	if err != nil {
		return
	}
	if err := c.TrySend(frame); err != nil {
		observability.GlobalLogger.Debug("reply dropped", slog.String("event", event), slog.String("conn_id", c.ID))
	}
}

// Shutdown closes every chat connection.
func (r *ChatRelay) Shutdown(_ context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}
	r.registry.CloseAll()
	return nil
}
