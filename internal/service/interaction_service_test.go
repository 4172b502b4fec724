package service

import (
	"context"
	"strings"
	"testing"

	"creatorhub/internal/models"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInteractionService(e *env) *InteractionService {
	return NewInteractionService(e.inter, e.content, e.users, e.notifier, testURLs)
}

func TestInteractionService_ToggleLike(t *testing.T) {
	e := newEnv(t)
	creator := e.user(t, "creator")
	fan := e.user(t, "fan")
	post := e.post(t, creator.ID, "sunset")
	svc := newInteractionService(e)
	ctx := context.Background()

	t.Run("Invalid target", func(t *testing.T) {
		_, err := svc.ToggleLike(ctx, fan.ID, models.LikeTarget{})
		requireCode(t, err, models.CodeValidation)

		id := post.ID
		_, err = svc.ToggleLike(ctx, fan.ID, models.LikeTarget{ContentID: &id, CommentID: &id})
		requireCode(t, err, models.CodeValidation)
	})

	t.Run("Missing target", func(t *testing.T) {
		_, err := svc.ToggleLike(ctx, fan.ID, models.ContentTarget(4040))
		requireCode(t, err, models.CodeNotFound)
		_, err = svc.ToggleLike(ctx, fan.ID, models.CommentTarget(4040))
		requireCode(t, err, models.CodeNotFound)
	})

	res, err := svc.ToggleLike(ctx, fan.ID, models.ContentTarget(post.ID))
	require.NoError(t, err)
	assert.Equal(t, LikeResult{Liked: true, LikeCount: 1}, *res)

	likes := e.notifier.ofType(models.NotificationLike)
	require.Len(t, likes, 1)
	assert.Equal(t, creator.ID, likes[0].UserID)
	assert.Equal(t, `fan liked your post "sunset"`, likes[0].Message)

	res, err = svc.ToggleLike(ctx, fan.ID, models.ContentTarget(post.ID))
	require.NoError(t, err)
	assert.Equal(t, LikeResult{Liked: false, LikeCount: 0}, *res)
	assert.Len(t, e.notifier.ofType(models.NotificationLike), 1, "unlike does not notify")

	t.Run("Own content is not notified", func(t *testing.T) {
		res, err := svc.ToggleLike(ctx, creator.ID, models.ContentTarget(post.ID))
		require.NoError(t, err)
		assert.True(t, res.Liked)
		assert.Len(t, e.notifier.ofType(models.NotificationLike), 1)
	})

	t.Run("Comment like", func(t *testing.T) {
		c := &models.Comment{Text: "nice", UserID: creator.ID, ContentID: post.ID}
		require.NoError(t, e.inter.CreateComment(ctx, c))

		res, err := svc.ToggleLike(ctx, fan.ID, models.CommentTarget(c.ID))
		require.NoError(t, err)
		assert.Equal(t, LikeResult{Liked: true, LikeCount: 1}, *res)
	})
}

func TestInteractionService_ToggleLike_Involution(t *testing.T) {
	e := newEnv(t)
	creator := e.user(t, "creator")
	fan := e.user(t, "fan")
	svc := newInteractionService(e)
	ctx := context.Background()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 25
	properties := gopter.NewProperties(parameters)

	properties.Property("n toggles leave the target liked iff n is odd", prop.ForAll(
		func(n int) bool {
			post := e.post(t, creator.ID, "clip")
			var last *LikeResult
			for i := 0; i < n; i++ {
				res, err := svc.ToggleLike(ctx, fan.ID, models.ContentTarget(post.ID))
				if err != nil {
					return false
				}
				last = res
			}
			want := n%2 == 1
			if last != nil && (last.Liked != want || last.LikeCount != n%2) {
				return false
			}
			stored, err := e.content.GetByID(ctx, post.ID)
			return err == nil && stored.LikeCount == n%2
		},
		gen.IntRange(0, 9),
	))

	properties.TestingRun(t)
}

func TestInteractionService_AddComment(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	carol := e.user(t, "carol")
	dave := e.user(t, "dave")
	post := e.post(t, bob.ID, "launch")
	other := e.post(t, bob.ID, "other")
	svc := newInteractionService(e)
	ctx := context.Background()

	t.Run("Validation", func(t *testing.T) {
		_, err := svc.AddComment(ctx, CommentInput{UserID: alice.ID, ContentID: post.ID, Text: "  "})
		requireCode(t, err, models.CodeValidation)

		_, err = svc.AddComment(ctx, CommentInput{UserID: alice.ID, ContentID: post.ID, Text: strings.Repeat("a", MaxCommentLength+1)})
		requireCode(t, err, models.CodeValidation)

		_, err = svc.AddComment(ctx, CommentInput{UserID: alice.ID, ContentID: 999, Text: "hi"})
		requireCode(t, err, models.CodeNotFound)

		missing := uint(999)
		_, err = svc.AddComment(ctx, CommentInput{UserID: alice.ID, ContentID: post.ID, Text: "hi", ParentID: &missing})
		requireCode(t, err, models.CodeNotFound)
	})

	parent, err := svc.AddComment(ctx, CommentInput{UserID: carol.ID, ContentID: post.ID, Text: "first!"})
	require.NoError(t, err)
	assert.Equal(t, "carol", parent.User.Username)

	t.Run("Parent on other content", func(t *testing.T) {
		_, err := svc.AddComment(ctx, CommentInput{UserID: alice.ID, ContentID: other.ID, Text: "x", ParentID: &parent.ID})
		requireCode(t, err, models.CodeValidation)
	})

	e.notifier.sent = nil
	reply, err := svc.AddComment(ctx, CommentInput{
		UserID:    alice.ID,
		ContentID: post.ID,
		Text:      "@carol @dave @alice @ghost agreed",
		ParentID:  &parent.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, &parent.ID, reply.ParentID)

	// carol is notified once as the parent author, alice never, ghost does not exist
	assert.Equal(t, []uint{carol.ID, bob.ID, dave.ID}, e.notifier.recipients())
	assert.Equal(t, "New Reply", e.notifier.sent[0].Title)
	assert.Equal(t, "New Comment", e.notifier.sent[1].Title)
	assert.Equal(t, models.NotificationMention, e.notifier.sent[2].Type)
	assert.Equal(t, parent.ID, e.notifier.sent[0].Data["parentCommentId"])
	for _, n := range e.notifier.sent {
		assert.Contains(t, n.Route, "?comment=")
	}

	stored, err := e.content.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.CommentsCount)
}

func TestInteractionService_ListAndDeleteComments(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	post := e.post(t, bob.ID, "launch")
	svc := newInteractionService(e)
	ctx := context.Background()

	top, err := svc.AddComment(ctx, CommentInput{UserID: alice.ID, ContentID: post.ID, Text: "top"})
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, CommentInput{UserID: bob.ID, ContentID: post.ID, Text: "reply", ParentID: &top.ID})
	require.NoError(t, err)
	_, err = svc.ToggleLike(ctx, bob.ID, models.CommentTarget(top.ID))
	require.NoError(t, err)

	list, err := svc.ListComments(ctx, post.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "top", list[0].Text)
	assert.True(t, list[0].IsLiked)
	assert.Equal(t, 1, list[0].ReplyCount)
	assert.Equal(t, 1, list[0].LikeCount)

	replies, err := svc.ListReplies(ctx, top.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.False(t, replies[0].IsLiked)

	_, err = svc.ListComments(ctx, 777, bob.ID)
	requireCode(t, err, models.CodeNotFound)

	err = svc.DeleteComment(ctx, bob.ID, top.ID)
	requireCode(t, err, models.CodeUnauthorized)

	require.NoError(t, svc.DeleteComment(ctx, alice.ID, top.ID))
	list, err = svc.ListComments(ctx, post.ID, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	stored, err := e.content.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.CommentsCount)

	err = svc.DeleteComment(ctx, alice.ID, top.ID)
	requireCode(t, err, models.CodeNotFound)
}
