package service

import (
	"context"
	"testing"
	"time"

	"creatorhub/internal/feed"
	"creatorhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedService_CommunityContent(t *testing.T) {
	e := newEnv(t)
	viewer := e.user(t, "viewer")
	followed := e.user(t, "followed")
	stranger := e.user(t, "stranger")
	require.NoError(t, e.subs.Create(context.Background(), &models.Subscription{SubscriberID: viewer.ID, CreatorID: followed.ID, IsActive: true}))

	fresh := e.post(t, followed.ID, "fresh", func(c *models.Content) { c.Tags = []string{"go", "tips"} })
	old := e.post(t, stranger.ID, "old", func(c *models.Content) {
		c.CreatedAt = time.Now().Add(-30 * 24 * time.Hour)
		c.ViewCount = 500
	})
	e.post(t, followed.ID, "draft", asDraft)

	svc := e.feeds()
	ctx := context.Background()
	_, err := NewInteractionService(e.inter, e.content, e.users, e.notifier, testURLs).ToggleLike(ctx, viewer.ID, models.ContentTarget(fresh.ID))
	require.NoError(t, err)

	page, err := svc.CommunityContent(ctx, feed.Filter{Variant: feed.ForYou, Page: 1, Limit: 10}, viewer.ID)
	require.NoError(t, err)
	require.Len(t, page.Items, 2, "drafts never reach feeds")
	assert.Equal(t, fresh.ID, page.Items[0].ID)
	assert.True(t, page.Items[0].IsLiked)
	assert.True(t, page.Items[0].IsSubscribed)
	assert.Equal(t, "followed", page.Items[0].Creator.Username)
	assert.Equal(t, "http://cdn.test/uploads/content/media/fresh.jpg", page.Items[0].MediaURL)
	assert.False(t, page.Items[1].IsLiked)
	assert.Equal(t, Pagination{Total: 2, Page: 1, Limit: 10}, page.Pagination)

	page, err = svc.CommunityContent(ctx, feed.Filter{Variant: feed.Subscribed, Page: 1, Limit: 10}, viewer.ID)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, fresh.ID, page.Items[0].ID)

	page, err = svc.CommunityContent(ctx, feed.Filter{Variant: feed.Trending, Page: 1, Limit: 10}, viewer.ID)
	require.NoError(t, err)
	require.Len(t, page.Items, 1, "trending only covers the last week")
	assert.NotEqual(t, old.ID, page.Items[0].ID)

	page, err = svc.CommunityContent(ctx, feed.Filter{Variant: feed.Tag, Tag: "tips", Page: 1, Limit: 10}, viewer.ID)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, []string{"go", "tips"}, page.Items[0].Tags)

	_, err = svc.CommunityContent(ctx, feed.Filter{Variant: feed.Tag, Page: 1, Limit: 10}, viewer.ID)
	requireCode(t, err, models.CodeValidation)

	t.Run("Subscribed feed is empty without subscriptions", func(t *testing.T) {
		page, err := svc.CommunityContent(ctx, feed.Filter{Variant: feed.Subscribed, Page: 1, Limit: 10}, stranger.ID)
		require.NoError(t, err)
		assert.Empty(t, page.Items)
		assert.Zero(t, page.Pagination.Total)
	})
}

func TestFeedService_FeedVideos(t *testing.T) {
	e := newEnv(t)
	viewer := e.user(t, "viewer")
	verified := e.user(t, "verified")
	require.NoError(t, e.db.Model(verified).Update("is_verified", true).Error)
	plain := e.user(t, "plain")

	first := e.post(t, plain.ID, "first", asVideo)
	second := e.post(t, verified.ID, "second", asVideo)
	third := e.post(t, plain.ID, "third", asVideo)
	e.post(t, plain.ID, "photo")
	e.post(t, plain.ID, "unpublished", asVideo, asDraft)

	svc := e.feeds()
	ctx := context.Background()

	page, err := svc.FeedVideos(ctx, 0, viewer.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, []uint{third.ID, second.ID, first.ID}, itemIDs(page.Items))
	assert.True(t, page.Items[1].IsBlurred, "verified creator without subscription is blurred")
	assert.False(t, page.Items[0].IsBlurred)

	page, err = svc.FeedVideos(ctx, first.ID, viewer.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint{first.ID, third.ID, second.ID}, itemIDs(page.Items))
	assert.Equal(t, int64(2), page.Pagination.Total)

	page, err = svc.FeedVideos(ctx, first.ID, viewer.ID, 2, 2)
	require.NoError(t, err)
	assert.Empty(t, page.Items, "initial video is excluded from later pages")

	page, err = svc.FeedVideos(ctx, 9999, viewer.ID, 1, 10)
	require.NoError(t, err)
	assert.Len(t, page.Items, 3, "unknown initial id is ignored")

	require.NoError(t, e.subs.Create(ctx, &models.Subscription{SubscriberID: viewer.ID, CreatorID: verified.ID, IsActive: true}))
	page, err = svc.FeedVideos(ctx, 0, viewer.ID, 1, 10)
	require.NoError(t, err)
	assert.False(t, page.Items[1].IsBlurred)
	assert.True(t, page.Items[1].IsSubscribed)
}

func TestFeedService_DetailDraftsStats(t *testing.T) {
	e := newEnv(t)
	owner := e.user(t, "owner")
	other := e.user(t, "other")
	post := e.post(t, owner.ID, "live")
	draft := e.post(t, owner.ID, "wip", asVideo, asDraft)
	svc := e.feeds()
	ctx := context.Background()

	item, err := svc.ContentDetail(ctx, other.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, item.ViewCount)

	_, err = svc.ContentDetail(ctx, other.ID, draft.ID)
	requireCode(t, err, models.CodeNotFound)
	item, err = svc.ContentDetail(ctx, owner.ID, draft.ID)
	require.NoError(t, err)
	assert.False(t, item.IsPublished)

	_, err = svc.ContentDetail(ctx, owner.ID, 12345)
	requireCode(t, err, models.CodeNotFound)

	drafts, err := svc.Drafts(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, drafts.Videos, 1)
	assert.Empty(t, drafts.Images)
	require.NotNil(t, drafts.Videos[0].ThumbnailURL)
	assert.Equal(t, "http://cdn.test/uploads/content/thumbnail/wip.jpg", *drafts.Videos[0].ThumbnailURL)

	stats, err := svc.CreatorStats(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalContent)
	assert.Equal(t, int64(1), stats.TotalVideos)
	assert.Equal(t, int64(2), stats.TotalViews)
}

func TestFeedService_OrphanedCreator(t *testing.T) {
	e := newEnv(t)
	viewer := e.user(t, "viewer")
	svc := e.feeds()

	item := svc.item(&models.Content{ID: 1, Title: "orphan", MediaPath: "uploads/content/media/x.mp4", CreatorID: 99})
	assert.Equal(t, CreatorSummary{}, item.Creator)
	assert.Equal(t, []string{}, item.Tags)

	items, err := svc.decorate(context.Background(), []models.Content{{ID: 1, CreatorID: 99}}, viewer.ID, nil)
	require.NoError(t, err)
	assert.False(t, items[0].IsSubscribed)
}

func itemIDs(items []ContentItem) []uint {
	out := make([]uint, len(items))
	for i := range items {
		out[i] = items[i].ID
	}
	return out
}
