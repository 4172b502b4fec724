package notifications

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(r *Registry, userID uint) *Client {
	return NewClient(r.Name(), nil, userID, func(c *Client) { r.Unregister(c) })
}

func TestRegistry_RegisterJoinsUserRoom(t *testing.T) {
	t.Parallel()
	r := NewRegistry("test")
	c := newTestClient(r, 7)

	require.NoError(t, r.Register(c))
	assert.True(t, r.InRoom(c, UserRoom(7)))
	assert.Equal(t, 1, r.UserCount(7))
	assert.Equal(t, []*Client{c}, r.UserClients(7))

	require.NoError(t, r.Register(c), "re-registering is a no-op")
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_RejectsAnonymous(t *testing.T) {
	t.Parallel()
	r := NewRegistry("test")
	assert.ErrorIs(t, r.Register(newTestClient(r, 0)), ErrAnonymous)
	assert.ErrorIs(t, r.Register(nil), ErrAnonymous)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_PerUserLimit(t *testing.T) {
	t.Parallel()
	r := NewRegistry("test")
	for i := 0; i < maxConnsPerUser; i++ {
		require.NoError(t, r.Register(newTestClient(r, 3)))
	}
	assert.ErrorIs(t, r.Register(newTestClient(r, 3)), ErrUserLimit)
	assert.NoError(t, r.Register(newTestClient(r, 4)))
}

func TestRegistry_UnregisterIsIdempotentAndLeavesRooms(t *testing.T) {
	t.Parallel()
	r := NewRegistry("test")
	c := newTestClient(r, 1)
	require.NoError(t, r.Register(c))
	require.NoError(t, r.Join(c, ConversationRoom(10)))

	assert.True(t, r.Unregister(c))
	assert.False(t, r.Unregister(c))
	assert.Empty(t, r.RoomClients(ConversationRoom(10)))
	assert.Empty(t, r.UserClients(1))
}

func TestRegistry_JoinRequiresRegistration(t *testing.T) {
	t.Parallel()
	r := NewRegistry("test")
	c := newTestClient(r, 1)
	assert.ErrorIs(t, r.Join(c, ConversationRoom(1)), ErrNotRegistered)
}

func TestRegistry_LeaveKeepsUserRoom(t *testing.T) {
	t.Parallel()
	r := NewRegistry("test")
	c := newTestClient(r, 2)
	require.NoError(t, r.Register(c))
	require.NoError(t, r.Join(c, ConversationRoom(5)))

	r.Leave(c, ConversationRoom(5))
	r.Leave(c, UserRoom(2))

	assert.False(t, r.InRoom(c, ConversationRoom(5)))
	assert.True(t, r.InRoom(c, UserRoom(2)))
}

func TestRegistry_EmitOnlyReachesRoom(t *testing.T) {
	t.Parallel()
	r := NewRegistry("test")
	in := newTestClient(r, 1)
	out := newTestClient(r, 2)
	require.NoError(t, r.Register(in))
	require.NoError(t, r.Register(out))
	require.NoError(t, r.Join(in, ConversationRoom(9)))

	assert.Equal(t, 1, r.Emit(ConversationRoom(9), EventNewMessage, []byte("x")))
	assert.Len(t, in.Send, 1)
	assert.Len(t, out.Send, 0)
}

func TestRegistry_CloseAllUnregistersAndClosesSend(t *testing.T) {
	t.Parallel()
	r := NewRegistry("test")
	c := newTestClient(r, 1)
	require.NoError(t, r.Register(c))

	r.CloseAll()
	assert.Equal(t, 0, r.Len())
	_, open := <-c.Send
	assert.False(t, open)
	assert.Error(t, c.TrySend([]byte("late")), "sending after close is dropped")
}

func TestClient_TrySendDropsWhenFull(t *testing.T) {
	t.Parallel()
	c := NewClient("test", nil, 1, nil)
	for i := 0; i < sendBufferSize; i++ {
		require.NoError(t, c.TrySend([]byte("x")))
	}
	assert.Error(t, c.TrySend([]byte("overflow")))
}

func TestClient_TypingThrottle(t *testing.T) {
	t.Parallel()
	c := NewClient("test", nil, 1, nil)
	allowed := 0
	for i := 0; i < 10; i++ {
		if c.AllowTyping() {
			allowed++
		}
	}
	assert.GreaterOrEqual(t, allowed, typingBurst)
	assert.Less(t, allowed, 10)
}
