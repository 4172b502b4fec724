package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"creatorhub/internal/feed"
	"creatorhub/internal/middleware"
	"creatorhub/internal/models"
	"creatorhub/internal/observability"
	"creatorhub/internal/repository"
	"creatorhub/internal/validation"
)

// MaxCommentLength bounds a comment in characters.
const MaxCommentLength = 1000

// LikeResult is the state of a target after a toggle.
type LikeResult struct {
	Liked     bool `json:"is_liked"`
	LikeCount int  `json:"like_count"`
}

// CommentInput is the input for adding a comment.
type CommentInput struct {
	UserID    uint
	ContentID uint
	Text      string
	ParentID  *uint
}

// CommentView is a comment decorated for one viewer.
type CommentView struct {
	ID         uint                `json:"id"`
	Text       string              `json:"text"`
	ContentID  uint                `json:"content_id"`
	ParentID   *uint               `json:"parent_id"`
	LikeCount  int                 `json:"like_count"`
	ReplyCount int                 `json:"reply_count"`
	IsLiked    bool                `json:"is_liked"`
	User       *models.UserSummary `json:"user"`
	CreatedAt  time.Time           `json:"created_at"`
}

// InteractionService handles likes and comments.
type InteractionService struct {
	repo     repository.InteractionRepository
	content  repository.ContentRepository
	users    repository.UserRepository
	notifier Notifier
	urls     feed.URLBuilder
}

// NewInteractionService returns a new InteractionService.
func NewInteractionService(
	repo repository.InteractionRepository,
	content repository.ContentRepository,
	users repository.UserRepository,
	notifier Notifier,
	urls feed.URLBuilder,
) *InteractionService {
	return &InteractionService{repo: repo, content: content, users: users, notifier: notifier, urls: urls}
}

func targetLabel(t models.LikeTarget) string {
	if t.ContentID != nil {
		return "content"
	}
	return "comment"
}

// ToggleLike flips the user's like on target. The unique (user, target) index
// settles races: an insert that finds an existing like is retried once as an unlike.
func (s *InteractionService) ToggleLike(ctx context.Context, userID uint, target models.LikeTarget) (*LikeResult, error) {
	if !target.Valid() {
		return nil, models.NewValidationError("Like target must be exactly one of content or comment")
	}

	var content *models.Content
	if target.ContentID != nil {
		c, err := s.content.GetByID(ctx, *target.ContentID)
		if err != nil {
			return nil, storeError(err, "Content", *target.ContentID)
		}
		content = c
	} else if _, err := s.repo.GetComment(ctx, *target.CommentID); err != nil {
		return nil, storeError(err, "Comment", *target.CommentID)
	}

	liked, err := s.toggle(ctx, userID, target)
	if err != nil {
		return nil, err
	}

	count, err := s.repo.LikeCount(ctx, target)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	if liked && content != nil && content.CreatorID != userID {
		s.notifyLike(ctx, userID, content)
	}
	return &LikeResult{Liked: liked, LikeCount: count}, nil
}

func (s *InteractionService) toggle(ctx context.Context, userID uint, target models.LikeTarget) (bool, error) {
	label := targetLabel(target)

	removed, err := s.repo.RemoveLike(ctx, userID, target)
	if err != nil {
		return false, models.NewInternalError(err)
	}
	if removed {
		observability.LikeToggles.WithLabelValues(label, "unliked").Inc()
		return false, nil
	}

	inserted, err := s.repo.AddLike(ctx, userID, target)
	if err != nil {
		return false, models.NewInternalError(err)
	}
	if inserted {
		observability.LikeToggles.WithLabelValues(label, "liked").Inc()
		return true, nil
	}

	// a concurrent request liked first
	observability.LikeToggles.WithLabelValues(label, "conflict").Inc()
	if _, err := s.repo.RemoveLike(ctx, userID, target); err != nil {
		return false, models.NewInternalError(err)
	}
	return false, nil
}

func (s *InteractionService) actorName(ctx context.Context, userID uint) string {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "Someone"
	}
	return u.Username
}

func (s *InteractionService) notifyLike(ctx context.Context, userID uint, content *models.Content) {
	name := s.actorName(ctx, userID)
	s.notifier.Notify(ctx, NotificationInput{
		UserID:  content.CreatorID,
		Type:    models.NotificationLike,
		Title:   "New Like",
		Message: fmt.Sprintf("%s liked your post %q", name, content.Title),
		Data: map[string]any{
			"contentId":    content.ID,
			"contentType":  string(content.Type),
			"userId":       userID,
			"username":     name,
			"contentTitle": content.Title,
		},
		Route: fmt.Sprintf("/community/content/%d", content.ID),
	})
}

// AddComment stores a comment or reply and notifies the parent author, the
// content creator and mentioned users, each at most once and never the author.
func (s *InteractionService) AddComment(ctx context.Context, in CommentInput) (*CommentView, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, models.NewValidationError("Comment text is required")
	}
	if utf8.RuneCountInString(text) > MaxCommentLength {
		return nil, models.NewValidationError(fmt.Sprintf("Comment must be at most %d characters", MaxCommentLength))
	}

	content, err := s.content.GetByID(ctx, in.ContentID)
	if err != nil {
		return nil, storeError(err, "Content", in.ContentID)
	}

	var parent *models.Comment
	if in.ParentID != nil {
		parent, err = s.repo.GetComment(ctx, *in.ParentID)
		if err != nil {
			return nil, storeError(err, "Comment", *in.ParentID)
		}
		if parent.ContentID != content.ID {
			return nil, models.NewValidationError("Parent comment belongs to different content")
		}
	}

	comment := &models.Comment{Text: text, UserID: in.UserID, ContentID: content.ID, ParentID: in.ParentID}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, models.NewInternalError(err)
	}

	author, err := s.users.GetByID(ctx, in.UserID)
	if err == nil {
		comment.User = author
	}
	s.fanOutComment(ctx, comment, content, parent)

	view := s.commentView(comment, false)
	return &view, nil
}

func (s *InteractionService) fanOutComment(ctx context.Context, comment *models.Comment, content *models.Content, parent *models.Comment) {
	name := "Someone"
	if comment.User != nil {
		name = comment.User.Username
	}
	route := fmt.Sprintf("/community/content/%d?comment=%d", content.ID, comment.ID)
	data := func() map[string]any {
		return map[string]any{
			"contentId":    content.ID,
			"commentId":    comment.ID,
			"userId":       comment.UserID,
			"username":     name,
			"contentTitle": content.Title,
			"commentText":  comment.Text,
		}
	}

	notified := map[uint]bool{comment.UserID: true}

	if parent != nil && !notified[parent.UserID] {
		notified[parent.UserID] = true
		d := data()
		d["parentCommentId"] = parent.ID
		s.notifier.Notify(ctx, NotificationInput{
			UserID:  parent.UserID,
			Type:    models.NotificationComment,
			Title:   "New Reply",
			Message: fmt.Sprintf("%s replied to your comment", name),
			Data:    d,
			Route:   route,
		})
	}

	if !notified[content.CreatorID] {
		notified[content.CreatorID] = true
		s.notifier.Notify(ctx, NotificationInput{
			UserID:  content.CreatorID,
			Type:    models.NotificationComment,
			Title:   "New Comment",
			Message: fmt.Sprintf("%s commented on your post %q", name, content.Title),
			Data:    data(),
			Route:   route,
		})
	}

	mentions := validation.ExtractMentions(comment.Text)
	if len(mentions) == 0 {
		return
	}
	found, err := s.users.FindByUsernames(ctx, mentions)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "mention lookup failed", slog.String("error", err.Error()))
		return
	}
	byName := make(map[string]models.User, len(found))
	for _, u := range found {
		byName[strings.ToLower(u.Username)] = u
	}
	for _, m := range mentions {
		u, ok := byName[strings.ToLower(m)]
		if !ok || notified[u.ID] {
			continue
		}
		notified[u.ID] = true
		s.notifier.Notify(ctx, NotificationInput{
			UserID:  u.ID,
			Type:    models.NotificationMention,
			Title:   "New Mention",
			Message: fmt.Sprintf("%s mentioned you in a comment", name),
			Data:    data(),
			Route:   route,
		})
	}
}

// ListComments returns top-level comments on content, newest first.
func (s *InteractionService) ListComments(ctx context.Context, contentID, viewerID uint) ([]CommentView, error) {
	if _, err := s.content.GetByID(ctx, contentID); err != nil {
		return nil, storeError(err, "Content", contentID)
	}
	comments, err := s.repo.ListComments(ctx, contentID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return s.commentViews(ctx, comments, viewerID)
}

// ListReplies returns direct replies to a comment, oldest first.
func (s *InteractionService) ListReplies(ctx context.Context, commentID, viewerID uint) ([]CommentView, error) {
	if _, err := s.repo.GetComment(ctx, commentID); err != nil {
		return nil, storeError(err, "Comment", commentID)
	}
	replies, err := s.repo.ListReplies(ctx, commentID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return s.commentViews(ctx, replies, viewerID)
}

// DeleteComment removes the caller's comment together with its replies.
func (s *InteractionService) DeleteComment(ctx context.Context, userID, commentID uint) error {
	comment, err := s.repo.GetComment(ctx, commentID)
	if err != nil {
		return storeError(err, "Comment", commentID)
	}
	if comment.UserID != userID {
		return models.NewUnauthorizedError("You can only delete your own comments")
	}
	if err := s.repo.DeleteComment(ctx, comment); err != nil {
		return storeError(err, "Comment", commentID)
	}
	return nil
}

func (s *InteractionService) commentViews(ctx context.Context, comments []models.Comment, viewerID uint) ([]CommentView, error) {
	keys := make([]string, len(comments))
	for i := range comments {
		keys[i] = models.CommentTarget(comments[i].ID).Key()
	}
	liked, err := s.repo.LikedTargets(ctx, viewerID, keys)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	views := make([]CommentView, len(comments))
	for i := range comments {
		views[i] = s.commentView(&comments[i], liked[keys[i]])
	}
	return views, nil
}

func (s *InteractionService) commentView(c *models.Comment, liked bool) CommentView {
	return CommentView{
		ID:         c.ID,
		Text:       c.Text,
		ContentID:  c.ContentID,
		ParentID:   c.ParentID,
		LikeCount:  c.LikeCount,
		ReplyCount: c.ReplyCount,
		IsLiked:    liked,
		User:       userSummary(c.User, s.urls),
		CreatedAt:  c.CreatedAt,
	}
}
