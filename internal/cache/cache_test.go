package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewClient(mr.Addr())
	require.NoError(t, err)
	prev := client
	SetClient(c)
	t.Cleanup(func() {
		SetClient(prev)
		_ = c.Close()
	})
	return mr
}

func TestAside_LoadsOnceThenHits(t *testing.T) {
	mr := useMiniredis(t)
	ctx := context.Background()
	calls := 0
	load := func(context.Context) (int64, error) {
		calls++
		return 7, nil
	}

	v, err := Aside(ctx, UnreadNotificationsKey(1), time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)

	v, err = Aside(ctx, UnreadNotificationsKey(1), time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)
	assert.Equal(t, 1, calls)
	assert.True(t, mr.Exists("notifications:unread:1"))
}

func TestAside_InvalidateForcesReload(t *testing.T) {
	useMiniredis(t)
	ctx := context.Background()
	calls := 0
	load := func(context.Context) (int64, error) {
		calls++
		return int64(calls), nil
	}

	_, err := Aside(ctx, UnreadNotificationsKey(2), time.Minute, load)
	require.NoError(t, err)
	InvalidateUnreadNotifications(ctx, 2)

	v, err := Aside(ctx, UnreadNotificationsKey(2), time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
}

func TestAside_LoadErrorNotCached(t *testing.T) {
	mr := useMiniredis(t)
	_, err := Aside(context.Background(), "k", time.Minute, func(context.Context) (string, error) {
		return "", errors.New("db down")
	})
	assert.Error(t, err)
	assert.False(t, mr.Exists("k"))
}

func TestAside_NoClient(t *testing.T) {
	prev := client
	SetClient(nil)
	t.Cleanup(func() { SetClient(prev) })

	v, err := Aside(context.Background(), "k", time.Minute, func(context.Context) (string, error) {
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
}

func TestNewClient_ParsesURL(t *testing.T) {
	c, err := NewClient("redis://localhost:6380/2")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6380", c.Options().Addr)
	assert.Equal(t, 2, c.Options().DB)

	_, err = NewClient("redis://%%bad")
	assert.Error(t, err)
}
