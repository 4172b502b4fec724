package service

import (
	"context"
	"testing"

	"creatorhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionService(t *testing.T) {
	e := newEnv(t)
	fan := e.user(t, "fan")
	creator := e.user(t, "creator")
	svc := NewSubscriptionService(e.subs, e.users, e.notifier, testURLs)
	ctx := context.Background()

	requireCode(t, svc.Subscribe(ctx, fan.ID, fan.ID), models.CodeValidation)
	requireCode(t, svc.Subscribe(ctx, fan.ID, 9999), models.CodeNotFound)
	requireCode(t, svc.Unsubscribe(ctx, fan.ID, creator.ID), models.CodeNotFound)

	require.NoError(t, svc.Subscribe(ctx, fan.ID, creator.ID))
	requireCode(t, svc.Subscribe(ctx, fan.ID, creator.ID), models.CodeConflict)

	follows := e.notifier.ofType(models.NotificationFollow)
	require.Len(t, follows, 1)
	assert.Equal(t, creator.ID, follows[0].UserID)
	assert.Equal(t, "fan subscribed to you", follows[0].Message)

	list, err := svc.ListCreators(ctx, fan.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "creator", list[0].Creator.Username)

	require.NoError(t, svc.Unsubscribe(ctx, fan.ID, creator.ID))
	requireCode(t, svc.Unsubscribe(ctx, fan.ID, creator.ID), models.CodeNotFound)

	list, err = svc.ListCreators(ctx, fan.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	// resubscribing reactivates the existing row
	require.NoError(t, svc.Subscribe(ctx, fan.ID, creator.ID))
	var rows int64
	require.NoError(t, e.db.Model(&models.Subscription{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
	assert.Len(t, e.notifier.ofType(models.NotificationFollow), 2)
}
