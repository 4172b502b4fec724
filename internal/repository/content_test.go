package repository

import (
	"context"
	"testing"
	"time"

	"creatorhub/internal/feed"
	"creatorhub/internal/models"
	"creatorhub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func titles(items []models.Content) []string {
	out := make([]string, len(items))
	for i, c := range items {
		out[i] = c.Title
	}
	return out
}

func TestContentRepository_QueryVariants(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewContentRepository(db)
	ctx := context.Background()
	now := time.Now()

	ana := createUser(t, db, "ana")
	ben := createUser(t, db, "ben")

	createContent(t, db, ana.ID, "old", published, createdAgo(30*24*time.Hour), tagged("travel"))
	createContent(t, db, ana.ID, "new", published, createdAgo(time.Hour), tagged("food", "travel"))
	createContent(t, db, ben.ID, "draft", createdAgo(time.Minute))
	clip := createContent(t, db, ben.ID, "clip", published, video, createdAgo(2*time.Hour))

	t.Run("for-you excludes drafts", func(t *testing.T) {
		spec, err := feed.Build(feed.Filter{Variant: feed.ForYou}, nil, now)
		require.NoError(t, err)
		items, total, err := repo.Query(ctx, spec)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Equal(t, []string{"new", "clip", "old"}, titles(items))
	})

	t.Run("subscribed with no creators is empty", func(t *testing.T) {
		spec, err := feed.Build(feed.Filter{Variant: feed.Subscribed}, nil, now)
		require.NoError(t, err)
		items, total, err := repo.Query(ctx, spec)
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, items)
	})

	t.Run("subscribed limits to creators", func(t *testing.T) {
		spec, err := feed.Build(feed.Filter{Variant: feed.Subscribed}, []uint{ben.ID}, now)
		require.NoError(t, err)
		items, _, err := repo.Query(ctx, spec)
		require.NoError(t, err)
		assert.Equal(t, []string{"clip"}, titles(items))
	})

	t.Run("trending keeps the last week", func(t *testing.T) {
		spec, err := feed.Build(feed.Filter{Variant: feed.Trending}, nil, now)
		require.NoError(t, err)
		_, total, err := repo.Query(ctx, spec)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})

	t.Run("tag matches whole elements", func(t *testing.T) {
		spec, err := feed.Build(feed.Filter{Variant: feed.Tag, Tag: "travel"}, nil, now)
		require.NoError(t, err)
		items, _, err := repo.Query(ctx, spec)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"new", "old"}, titles(items))

		spec, err = feed.Build(feed.Filter{Variant: feed.Tag, Tag: "trav"}, nil, now)
		require.NoError(t, err)
		_, total, err := repo.Query(ctx, spec)
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("videos exclude the initial id", func(t *testing.T) {
		initial, err := repo.GetPublishedVideo(ctx, clip.ID)
		require.NoError(t, err)

		items, total, err := repo.Query(ctx, feed.Videos(1, 10, initial.ID))
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, items)
	})

	t.Run("pagination", func(t *testing.T) {
		spec, err := feed.Build(feed.Filter{Variant: feed.ForYou, Page: 2, Limit: 2}, nil, now)
		require.NoError(t, err)
		items, total, err := repo.Query(ctx, spec)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Equal(t, []string{"old"}, titles(items))
		assert.False(t, spec.HasNextPage(total))
	})
}

func TestApplySpec_RejectsUnknownField(t *testing.T) {
	db := testutil.NewTestDB(t)
	_, err := ApplySpec(db.Model(&models.Content{}), feed.Spec{
		Predicates: []feed.Predicate{{Field: "password", Op: feed.OpEq, Value: "x"}},
	})
	assert.Error(t, err)
}

func TestContentRepository_OrphanedCreator(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewContentRepository(db)
	ctx := context.Background()

	c := &models.Content{Title: "lost", Type: models.ContentTypeImage, MediaPath: "m.jpg", CreatorID: 9999, IsPublished: true}
	require.NoError(t, db.Exec("PRAGMA foreign_keys = OFF").Error)
	require.NoError(t, db.Omit("Creator").Create(c).Error)
	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Creator)
}

func TestContentRepository_LifecycleAndStats(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewContentRepository(db)
	ctx := context.Background()
	owner := createUser(t, db, "owner")
	fan := createUser(t, db, "fanatic")

	item := &models.Content{Title: "tour", Type: models.ContentTypeVideo, MediaPath: "uploads/content/media/a.mp4", CreatorID: owner.ID}
	require.NoError(t, repo.Create(ctx, item))
	createContent(t, db, owner.ID, "pic", published)

	drafts, err := repo.ListDrafts(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"tour"}, titles(drafts))

	require.NoError(t, repo.SetThumbnail(ctx, item.ID, "uploads/content/thumbnail/a.jpg"))
	require.NoError(t, repo.Publish(ctx, item.ID))
	require.NoError(t, repo.IncrementViews(ctx, item.ID))
	require.NoError(t, repo.IncrementViews(ctx, item.ID))

	got, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPublished)
	assert.True(t, got.HasThumbnail())
	assert.Equal(t, 2, got.ViewCount)
	require.NotNil(t, got.Creator)
	assert.Equal(t, "owner", got.Creator.Username)

	likes := NewInteractionRepository(db)
	_, err = likes.AddLike(ctx, fan.ID, models.ContentTarget(item.ID))
	require.NoError(t, err)
	comment := &models.Comment{Text: "wow", UserID: fan.ID, ContentID: item.ID}
	require.NoError(t, likes.CreateComment(ctx, comment))
	_, err = likes.AddLike(ctx, owner.ID, models.CommentTarget(comment.ID))
	require.NoError(t, err)

	stats, err := repo.Stats(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalContent)
	assert.Equal(t, int64(1), stats.TotalVideos)
	assert.Equal(t, int64(1), stats.TotalImages)
	assert.Equal(t, int64(1), stats.TotalLikes)
	assert.Equal(t, int64(2), stats.TotalViews)
	assert.Equal(t, int64(1), stats.TotalComments)

	found, err := repo.Search(ctx, "TOU", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"tour"}, titles(found))

	require.NoError(t, repo.Delete(ctx, item.ID))
	var n int64
	require.NoError(t, db.Model(&models.Like{}).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, db.Model(&models.Comment{}).Count(&n).Error)
	assert.Zero(t, n)

	_, err = repo.GetByID(ctx, item.ID)
	assert.True(t, IsNotFound(err))
	assert.True(t, IsNotFound(repo.Delete(ctx, item.ID)))
	assert.True(t, IsNotFound(repo.Publish(ctx, item.ID)))
}

func TestContentRepository_TagFilterMatchesLiterally(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewContentRepository(db)
	ctx := context.Background()
	now := time.Now()

	ana := createUser(t, db, "ana")
	createContent(t, db, ana.ID, "beach", published, tagged("travel"))
	createContent(t, db, ana.ID, "typo", published, tagged("trxvel"))
	createContent(t, db, ana.ID, "promo", published, tagged("100%real"))

	query := func(tag string) []string {
		t.Helper()
		spec, err := feed.Build(feed.Filter{Variant: feed.Tag, Tag: tag}, nil, now)
		require.NoError(t, err)
		items, _, err := repo.Query(ctx, spec)
		require.NoError(t, err)
		return titles(items)
	}

	assert.Equal(t, []string{"beach"}, query("#travel"))
	assert.Equal(t, []string{"beach"}, query("Travel"))
	assert.Empty(t, query("tr_vel"), "underscore is not a wildcard")
	assert.Empty(t, query("%"), "percent is not a wildcard")
	assert.Equal(t, []string{"promo"}, query("100%real"))
}

func TestLikePatterns(t *testing.T) {
	assert.Equal(t, `100\%\_a\\b`, escapeLike(`100%_a\b`))
	assert.Equal(t, `%\_x%`, containsPattern(" _X "))
	assert.Equal(t, `al\%%`, prefixPattern("AL%"))
	assert.Equal(t, `%"tr\_vel"%`, jsonElementPattern("tr_vel"))
}
