package repository

import (
	"context"
	"testing"

	"creatorhub/internal/cache"
	"creatorhub/internal/models"
	"creatorhub/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useCache(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := cache.NewClient(mr.Addr())
	require.NoError(t, err)
	prev := cache.GetClient()
	cache.SetClient(c)
	t.Cleanup(func() {
		cache.SetClient(prev)
		_ = c.Close()
	})
	return mr
}

func TestNotificationRepository_UnreadCountCache(t *testing.T) {
	mr := useCache(t)
	db := testutil.NewTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()
	user := createUser(t, db, "reader")

	first := &models.Notification{Type: models.NotificationLike, Title: "Like", Message: "a", UserID: user.ID}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, &models.Notification{Type: models.NotificationFollow, Title: "Follow", Message: "b", UserID: user.ID}))

	n, err := repo.UnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.True(t, mr.Exists(cache.UnreadNotificationsKey(user.ID)))

	rows, err := repo.MarkAsRead(ctx, user.ID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
	assert.False(t, mr.Exists(cache.UnreadNotificationsKey(user.ID)), "writes invalidate")

	rows, err = repo.MarkAsRead(ctx, user.ID, first.ID)
	require.NoError(t, err)
	assert.Zero(t, rows, "already read")

	n, err = repo.UnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestNotificationRepository_ListAndDelete(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()
	owner := createUser(t, db, "owner1")
	other := createUser(t, db, "other1")

	var ids []uint
	for i := 0; i < 3; i++ {
		n := &models.Notification{Type: models.NotificationComment, Title: "c", Message: "m", UserID: owner.ID, Data: map[string]any{"contentId": float64(i)}}
		require.NoError(t, repo.Create(ctx, n))
		ids = append(ids, n.ID)
	}

	page, total, err := repo.List(ctx, owner.ID, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 2)
	assert.Equal(t, ids[2], page[0].ID, "newest first")
	assert.Equal(t, float64(2), page[0].Data["contentId"])

	rows, err := repo.Delete(ctx, other.ID, ids[0])
	require.NoError(t, err)
	assert.Zero(t, rows, "not the recipient")

	rows, err = repo.Delete(ctx, owner.ID, ids[0])
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	rows, err = repo.MarkAllAsRead(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rows)

	unread, err := repo.ListUnread(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestNotificationRepository_Preferences(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()
	user := createUser(t, db, "prefs")

	pref, err := repo.GetPreference(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultNotificationPreference(user.ID), pref)

	pref.Likes = false
	require.NoError(t, repo.SavePreference(ctx, &pref))

	pref.Follows = false
	require.NoError(t, repo.SavePreference(ctx, &pref))

	stored, err := repo.GetPreference(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, stored.Likes)
	assert.False(t, stored.Follows)
	assert.True(t, stored.Comments)
}

func TestDeviceRepository(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewDeviceRepository(db)
	ctx := context.Background()
	a := createUser(t, db, "phone1")
	b := createUser(t, db, "phone2")

	require.NoError(t, repo.Upsert(ctx, &models.DeviceToken{UserID: a.ID, Token: "tok-1", Platform: "ios"}))
	require.NoError(t, repo.Upsert(ctx, &models.DeviceToken{UserID: a.ID, Token: "tok-2", Platform: "android"}))
	require.NoError(t, repo.Upsert(ctx, &models.DeviceToken{UserID: b.ID, Token: "tok-2", Platform: "android"}))

	tokens, err := repo.TokensFor(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"tok-1"}, tokens)

	require.NoError(t, repo.DeleteTokens(ctx, []string{"tok-2"}))
	tokens, err = repo.TokensFor(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, tokens)

	rows, err := repo.Delete(ctx, b.ID, "tok-1")
	require.NoError(t, err)
	assert.Zero(t, rows)
}
