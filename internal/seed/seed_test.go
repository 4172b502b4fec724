package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"creatorhub/internal/models"
	"creatorhub/internal/testutil"
	"creatorhub/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func smallScenario() Scenario {
	sc, _ := Preset("minimal")
	sc.RandomSeed = 42
	sc.FastHash = true
	sc.Users = 6
	sc.ContentPerUser = 2
	sc.DraftRatio = 0.25
	sc.LikesPerContent = 3
	sc.CommentsPerContent = 3
	sc.Conversations = 3
	return sc
}

func TestRun_CountsMatchRows(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	res, err := Run(ctx, db, smallScenario())
	require.NoError(t, err)

	count := func(model any) int {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		return int(n)
	}

	assert.Equal(t, 7, res.Users, "fixed accounts plus generated users")
	assert.Equal(t, res.Users, count(&models.User{}))
	assert.Equal(t, 14, res.Content)
	assert.Equal(t, res.Content, count(&models.Content{}))
	assert.Equal(t, res.Likes, count(&models.Like{}))
	assert.Equal(t, res.Comments, count(&models.Comment{}))
	assert.Equal(t, res.Subscriptions, count(&models.Subscription{}))
	assert.Equal(t, res.Conversations, count(&models.Conversation{}))
	assert.Equal(t, res.Messages, count(&models.Message{}))
	assert.Equal(t, res.Gigs, count(&models.Gig{}))
	assert.Equal(t, res.Searches, count(&models.SearchHistory{}))
	assert.Positive(t, res.Published)
}

func TestRun_DataSatisfiesDomainRules(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	sc := smallScenario()
	sc.VideoRatio = 1

	_, err := Run(ctx, db, sc)
	require.NoError(t, err)

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	for _, u := range users {
		assert.NoError(t, validation.ValidateUsername(u.Username), u.Username)
	}
	demo := users[0]
	assert.Equal(t, "demo", demo.Username)
	assert.True(t, demo.IsVerified)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(demo.Password), []byte(sc.Password)))

	var items []models.Content
	require.NoError(t, db.Find(&items).Error)
	for _, c := range items {
		assert.True(t, c.CanPublish(), "videos carry thumbnails")
		assert.NotEmpty(t, c.Tags)

		var likes int64
		require.NoError(t, db.Model(&models.Like{}).Where("content_id = ?", c.ID).Count(&likes).Error)
		assert.Equal(t, int(likes), c.LikeCount, "like counter for content %d", c.ID)
		if !c.IsPublished {
			assert.Zero(t, likes, "drafts are never liked")
		}
	}

	var selfLikes int64
	require.NoError(t, db.Model(&models.Like{}).
		Joins("JOIN contents ON contents.id = likes.content_id").
		Where("contents.creator_id = likes.user_id").
		Count(&selfLikes).Error)
	assert.Zero(t, selfLikes)

	var selfSubs int64
	require.NoError(t, db.Model(&models.Subscription{}).Where("subscriber_id = creator_id").Count(&selfSubs).Error)
	assert.Zero(t, selfSubs)
}

func TestRun_CleanReplacesExistingData(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	sc := smallScenario()

	first, err := Run(ctx, db, sc)
	require.NoError(t, err)
	second, err := Run(ctx, db, sc)
	require.NoError(t, err)

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Equal(t, int64(second.Users), users)
	assert.Equal(t, first.Users, second.Users)
}

func TestRun_WithoutCleanFailsOnFixedAccountCollision(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	sc := smallScenario()

	_, err := Run(ctx, db, sc)
	require.NoError(t, err)

	sc.Clean = false
	_, err = Run(ctx, db, sc)
	assert.Error(t, err)
}

func TestRun_RejectsInvalidScenario(t *testing.T) {
	sc := smallScenario()
	sc.Users = -1
	_, err := Run(context.Background(), testutil.NewTestDB(t), sc)
	assert.ErrorContains(t, err, "users must not be negative")
}

func TestLoadScenario_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: launch-demo
users: 12
video_ratio: 0.75
accounts:
  - username: studio
    email: Studio@Example.com
    verified: true
tags: [dance, vlog]
`), 0o600))

	sc, err := LoadScenario(path)
	require.NoError(t, err)

	def := DefaultScenario()
	assert.Equal(t, "launch-demo", sc.Name)
	assert.Equal(t, 12, sc.Users)
	assert.InDelta(t, 0.75, sc.VideoRatio, 1e-9)
	assert.Equal(t, []string{"dance", "vlog"}, sc.Tags)
	require.Len(t, sc.Accounts, 1)
	assert.True(t, sc.Accounts[0].Verified)
	assert.Equal(t, def.ContentPerUser, sc.ContentPerUser)
	assert.Equal(t, def.Skills, sc.Skills)
	assert.Equal(t, def.Password, sc.Password)
}

func TestLoadScenario_Errors(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read seed scenario")

	_, err = ParseScenario([]byte("users: [not, a, number]"))
	assert.ErrorContains(t, err, "parse seed scenario")

	_, err = ParseScenario([]byte("draft_ratio: 1.5\nconversations: -2"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "draft_ratio must be between 0 and 1")
	assert.Contains(t, err.Error(), "conversations must not be negative")

	_, err = ParseScenario([]byte("tags: []"))
	assert.ErrorContains(t, err, "tags are required")
}

func TestPreset(t *testing.T) {
	for _, name := range []string{"default", "minimal", "Populated"} {
		sc, err := Preset(name)
		require.NoError(t, err, name)
		assert.NoError(t, sc.Validate(), name)
	}
	_, err := Preset("mega")
	assert.Error(t, err)
}

func TestFactoryHandle(t *testing.T) {
	f := NewFactory(nil, 7, 0)
	seen := map[string]bool{}
	for i := 1; i <= 200; i++ {
		h := f.Handle(i)
		require.NoError(t, validation.ValidateUsername(h), h)
		assert.False(t, seen[h], "duplicate handle %s", h)
		seen[h] = true
	}
}

func TestPick(t *testing.T) {
	f := NewFactory(nil, 3, 0)
	pool := []string{"a", "b", "c", "d"}

	got := pick(f, pool, 3)
	assert.Len(t, got, 3)
	assert.Subset(t, pool, got)

	assert.Len(t, pick(f, pool, 10), len(pool))
	assert.Empty(t, pick(f, pool, 0))
}
