package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"creatorhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMembership struct {
	IsParticipantFunc func(ctx context.Context, conversationID, userID uint) (bool, error)
}

func (s stubMembership) IsParticipant(ctx context.Context, conversationID, userID uint) (bool, error) {
	return s.IsParticipantFunc(ctx, conversationID, userID)
}

type stubTyping struct {
	calls []TypingData
	err   error
}

func (s *stubTyping) SendTyping(_ context.Context, userID, conversationID uint, isTyping bool) error {
	s.calls = append(s.calls, TypingData{ConversationID: conversationID, UserID: userID, IsTyping: isTyping})
	return s.err
}

func participants(ids ...uint) stubMembership {
	return stubMembership{IsParticipantFunc: func(_ context.Context, _ uint, userID uint) (bool, error) {
		for _, id := range ids {
			if id == userID {
				return true, nil
			}
		}
		return false, nil
	}}
}

func attach(t *testing.T, reg *Registry, userID uint, handler func(*Client, []byte)) *Client {
	t.Helper()
	c := NewClient(reg.Name(), nil, userID, func(c *Client) { reg.Unregister(c) })
	c.IncomingHandler = handler
	require.NoError(t, reg.Register(c))
	return c
}

func readFrame(t *testing.T, c *Client) Frame {
	t.Helper()
	select {
	case raw := <-c.Send:
		var f Frame
		require.NoError(t, json.Unmarshal(raw, &f))
		return f
	default:
		t.Fatal("expected a frame")
		return Frame{}
	}
}

func TestChatRelay_JoinRequiresParticipation(t *testing.T) {
	t.Parallel()
	relay := NewChatRelay(NewMemoryBus(), participants(1), nil)
	member := attach(t, relay.Registry(), 1, relay.HandleIncoming)
	outsider := attach(t, relay.Registry(), 2, relay.HandleIncoming)

	relay.HandleIncoming(member, []byte(`{"type":"joinConversation","conversationId":5}`))
	assert.Equal(t, EventJoined, readFrame(t, member).Event)
	assert.True(t, relay.Registry().InRoom(member, ConversationRoom(5)))

	relay.HandleIncoming(outsider, []byte(`{"type":"joinConversation","conversationId":5}`))
	assert.Equal(t, EventError, readFrame(t, outsider).Event)
	assert.False(t, relay.Registry().InRoom(outsider, ConversationRoom(5)))
}

func TestChatRelay_MembershipErrorRejectsJoin(t *testing.T) {
	t.Parallel()
	relay := NewChatRelay(NewMemoryBus(), stubMembership{IsParticipantFunc: func(context.Context, uint, uint) (bool, error) {
		return false, errors.New("db down")
	}}, nil)
	c := attach(t, relay.Registry(), 1, relay.HandleIncoming)

	relay.HandleIncoming(c, []byte(`{"type":"joinConversation","conversationId":5}`))
	assert.Equal(t, EventError, readFrame(t, c).Event)
	assert.False(t, relay.Registry().InRoom(c, ConversationRoom(5)))
}

func TestChatRelay_DeliversOnlyToRoom(t *testing.T) {
	t.Parallel()
	bus := NewMemoryBus()
	relay := NewChatRelay(bus, participants(1, 2), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, relay.StartWiring(ctx))

	joined := attach(t, relay.Registry(), 1, relay.HandleIncoming)
	idle := attach(t, relay.Registry(), 2, relay.HandleIncoming)
	relay.HandleIncoming(joined, []byte(`{"type":"joinConversation","conversationId":7}`))
	readFrame(t, joined)

	require.NoError(t, bus.PublishChat(context.Background(), ChatEvent{
		Type:           EventNewMessage,
		ConversationID: 7,
		Data:           map[string]any{"id": 1, "text": "hi"},
	}))

	f := readFrame(t, joined)
	assert.Equal(t, EventNewMessage, f.Event)
	assert.Equal(t, "hi", f.Data.(map[string]any)["text"])
	assert.Len(t, idle.Send, 0)
}

func TestChatRelay_LeaveStopsDelivery(t *testing.T) {
	t.Parallel()
	relay := NewChatRelay(NewMemoryBus(), participants(1), nil)
	c := attach(t, relay.Registry(), 1, relay.HandleIncoming)
	relay.HandleIncoming(c, []byte(`{"type":"joinConversation","conversationId":3}`))
	readFrame(t, c)
	relay.HandleIncoming(c, []byte(`{"type":"leaveConversation","conversationId":3}`))
	assert.Equal(t, EventLeft, readFrame(t, c).Event)

	relay.Deliver(ChatEvent{Type: EventNewMessage, ConversationID: 3})
	assert.Len(t, c.Send, 0)
}

func TestChatRelay_TypingIsForwardedAndThrottled(t *testing.T) {
	t.Parallel()
	typing := &stubTyping{}
	relay := NewChatRelay(NewMemoryBus(), participants(1), typing)
	c := attach(t, relay.Registry(), 1, relay.HandleIncoming)

	for i := 0; i < 10; i++ {
		relay.HandleIncoming(c, []byte(`{"type":"typing","conversationId":4,"isTyping":true}`))
	}
	require.NotEmpty(t, typing.calls)
	assert.Less(t, len(typing.calls), 10)
	assert.Equal(t, TypingData{ConversationID: 4, UserID: 1, IsTyping: true}, typing.calls[0])
}

func TestChatRelay_RejectsMalformedAndUnknown(t *testing.T) {
	t.Parallel()
	relay := NewChatRelay(NewMemoryBus(), participants(1), nil)
	c := attach(t, relay.Registry(), 1, relay.HandleIncoming)

	relay.HandleIncoming(c, []byte(`not json`))
	assert.Equal(t, EventError, readFrame(t, c).Event)

	relay.HandleIncoming(c, []byte(`{"type":"dance","conversationId":1}`))
	assert.Equal(t, EventError, readFrame(t, c).Event)

	relay.HandleIncoming(c, []byte(`{"type":"joinConversation"}`))
	assert.Equal(t, EventError, readFrame(t, c).Event)
}

func TestNotificationRelay_DeliversToEveryConnectionOfRecipient(t *testing.T) {
	t.Parallel()
	bus := NewMemoryBus()
	relay := NewNotificationRelay(bus)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, relay.StartWiring(ctx))

	phone := attach(t, relay.Registry(), 5, nil)
	laptop := attach(t, relay.Registry(), 5, nil)
	other := attach(t, relay.Registry(), 6, nil)

	require.NoError(t, bus.PublishNotification(context.Background(), NotificationEvent{
		UserID:       5,
		Notification: models.Notification{ID: 1, Type: models.NotificationFollow, UserID: 5},
	}))

	for _, c := range []*Client{phone, laptop} {
		f := readFrame(t, c)
		assert.Equal(t, EventNotification, f.Event)
		assert.Equal(t, "follow", f.Data.(map[string]any)["type"])
	}
	assert.Len(t, other.Send, 0)
}

func TestNotificationRelay_ShutdownClosesConnections(t *testing.T) {
	t.Parallel()
	relay := NewNotificationRelay(NewMemoryBus())
	c := attach(t, relay.Registry(), 5, nil)

	require.NoError(t, relay.Shutdown(context.Background()))
	assert.Equal(t, 0, relay.Registry().Len())
	_, open := <-c.Send
	assert.False(t, open)
}

func TestChatRelay_AcceptsStringConversationID(t *testing.T) {
	t.Parallel()
	typing := &stubTyping{}
	relay := NewChatRelay(NewMemoryBus(), participants(1), typing)
	member := attach(t, relay.Registry(), 1, relay.HandleIncoming)

	relay.HandleIncoming(member, []byte(`{"type":"joinConversation","conversationId":"5"}`))
	joined := readFrame(t, member)
	assert.Equal(t, EventJoined, joined.Event)
	assert.Equal(t, map[string]any{"conversationId": float64(5)}, joined.Data)
	assert.True(t, relay.Registry().InRoom(member, ConversationRoom(5)))

	relay.HandleIncoming(member, []byte(`{"type":"typing","conversationId":"5","isTyping":true}`))
	require.Len(t, typing.calls, 1)
	assert.Equal(t, uint(5), typing.calls[0].ConversationID)

	relay.HandleIncoming(member, []byte(`{"type":"leaveConversation","conversationId":"5"}`))
	assert.Equal(t, EventLeft, readFrame(t, member).Event)
	assert.False(t, relay.Registry().InRoom(member, ConversationRoom(5)))
}

func TestChatRelay_RejectsNonNumericConversationID(t *testing.T) {
	t.Parallel()
	relay := NewChatRelay(NewMemoryBus(), participants(1), nil)
	member := attach(t, relay.Registry(), 1, relay.HandleIncoming)

	for _, raw := range []string{
		`{"type":"joinConversation","conversationId":"abc"}`,
		`{"type":"joinConversation","conversationId":"-3"}`,
		`{"type":"joinConversation","conversationId":1.5}`,
	} {
		relay.HandleIncoming(member, []byte(raw))
		f := readFrame(t, member)
		assert.Equal(t, EventError, f.Event, raw)
		assert.Equal(t, map[string]any{"message": "malformed message"}, f.Data, raw)
	}
	assert.False(t, relay.Registry().InRoom(member, ConversationRoom(1)))
}
