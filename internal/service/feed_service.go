package service

import (
	"context"
	"time"

	"creatorhub/internal/feed"
	"creatorhub/internal/models"
	"creatorhub/internal/repository"
)

// CreatorSummary is the creator embedded in feed items. A missing creator
// leaves every field at its zero value.
type CreatorSummary struct {
	ID              uint    `json:"id"`
	Username        string  `json:"username"`
	ProfileImageURL *string `json:"profile_image_url"`
	IsVerified      bool    `json:"is_verified"`
}

// ContentItem is a content row decorated for one viewer.
type ContentItem struct {
	ID            uint               `json:"id"`
	Title         string             `json:"title"`
	Description   string             `json:"description"`
	Type          models.ContentType `json:"type"`
	MediaURL      string             `json:"media_url"`
	ThumbnailURL  *string            `json:"thumbnail_url"`
	Tags          []string           `json:"tags"`
	IsPublished   bool               `json:"is_published"`
	ViewCount     int                `json:"view_count"`
	LikeCount     int                `json:"like_count"`
	CommentsCount int                `json:"comments_count"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	Creator       CreatorSummary     `json:"creator"`
	IsLiked       bool               `json:"is_liked"`
	IsSubscribed  bool               `json:"is_subscribed"`
	IsBlurred     bool               `json:"is_blurred"`
}

// FeedPage is one page of decorated content.
type FeedPage struct {
	Items      []ContentItem `json:"items"`
	Pagination Pagination    `json:"pagination"`
}

// Drafts splits a creator's unpublished content by type.
type Drafts struct {
	Videos []ContentItem `json:"videos"`
	Images []ContentItem `json:"images"`
}

// FeedService composes feeds from query specifications.
type FeedService struct {
	content     repository.ContentRepository
	subs        repository.SubscriptionRepository
	interaction repository.InteractionRepository
	urls        feed.URLBuilder
	now         func() time.Time
}

// NewFeedService returns a new FeedService.
func NewFeedService(
	content repository.ContentRepository,
	subs repository.SubscriptionRepository,
	interaction repository.InteractionRepository,
	urls feed.URLBuilder,
) *FeedService {
	return &FeedService{content: content, subs: subs, interaction: interaction, urls: urls, now: time.Now}
}

// CommunityContent returns a page of the requested feed variant.
func (s *FeedService) CommunityContent(ctx context.Context, filter feed.Filter, viewerID uint) (*FeedPage, error) {
	subscribed, err := s.subs.ActiveCreatorIDs(ctx, viewerID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	spec, err := feed.Build(filter, subscribed, s.now())
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	rows, total, err := s.content.Query(ctx, spec)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	items, err := s.decorate(ctx, rows, viewerID, subscribed)
	if err != nil {
		return nil, err
	}
	return &FeedPage{Items: items, Pagination: newPagination(total, spec.Page, spec.Limit)}, nil
}

// FeedVideos returns published videos newest first. A published video named
// by initialID leads the first page and is excluded from every page.
func (s *FeedService) FeedVideos(ctx context.Context, initialID, viewerID uint, page, limit int) (*FeedPage, error) {
	var initial *models.Content
	if initialID != 0 {
		v, err := s.content.GetPublishedVideo(ctx, initialID)
		switch {
		case err == nil:
			initial = v
		case !repository.IsNotFound(err):
			return nil, models.NewInternalError(err)
		}
	}

	var exclude uint
	if initial != nil {
		exclude = initial.ID
	}
	spec := feed.Videos(page, limit, exclude)

	rows, total, err := s.content.Query(ctx, spec)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if initial != nil && spec.Page == 1 {
		rows = append([]models.Content{*initial}, rows...)
	}

	subscribed, err := s.subs.ActiveCreatorIDs(ctx, viewerID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	items, err := s.decorate(ctx, rows, viewerID, subscribed)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].IsBlurred = items[i].Creator.IsVerified && !items[i].IsSubscribed
	}
	return &FeedPage{Items: items, Pagination: newPagination(total, spec.Page, spec.Limit)}, nil
}

// Drafts returns the user's unpublished content.
func (s *FeedService) Drafts(ctx context.Context, userID uint) (*Drafts, error) {
	rows, err := s.content.ListDrafts(ctx, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	out := &Drafts{Videos: []ContentItem{}, Images: []ContentItem{}}
	for i := range rows {
		item := s.item(&rows[i])
		if rows[i].Type == models.ContentTypeVideo {
			out.Videos = append(out.Videos, item)
		} else {
			out.Images = append(out.Images, item)
		}
	}
	return out, nil
}

// ContentDetail counts a view and returns the item. Drafts are visible to their creator only.
func (s *FeedService) ContentDetail(ctx context.Context, viewerID, id uint) (*ContentItem, error) {
	c, err := s.content.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Content", id)
	}
	if !c.IsPublished && c.CreatorID != viewerID {
		return nil, models.NewNotFoundError("Content", id)
	}
	if err := s.content.IncrementViews(ctx, id); err != nil {
		return nil, models.NewInternalError(err)
	}
	c.ViewCount++

	subscribed, err := s.subs.ActiveCreatorIDs(ctx, viewerID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	items, err := s.decorate(ctx, []models.Content{*c}, viewerID, subscribed)
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

// CreatorStats returns the user's content totals.
func (s *FeedService) CreatorStats(ctx context.Context, userID uint) (*repository.CreatorStats, error) {
	stats, err := s.content.Stats(ctx, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return stats, nil
}

func (s *FeedService) decorate(ctx context.Context, rows []models.Content, viewerID uint, subscribed []uint) ([]ContentItem, error) {
	keys := make([]string, len(rows))
	for i := range rows {
		keys[i] = models.ContentTarget(rows[i].ID).Key()
	}
	liked, err := s.interaction.LikedTargets(ctx, viewerID, keys)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	subSet := make(map[uint]bool, len(subscribed))
	for _, id := range subscribed {
		subSet[id] = true
	}

	items := make([]ContentItem, len(rows))
	for i := range rows {
		items[i] = s.item(&rows[i])
		items[i].IsLiked = liked[keys[i]]
		items[i].IsSubscribed = subSet[rows[i].CreatorID]
	}
	return items, nil
}

func (s *FeedService) item(c *models.Content) ContentItem {
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	item := ContentItem{
		ID:            c.ID,
		Title:         c.Title,
		Description:   c.Description,
		Type:          c.Type,
		MediaURL:      s.urls.Media(c.MediaPath),
		ThumbnailURL:  s.urls.Thumbnail(c.ThumbnailPath),
		Tags:          tags,
		IsPublished:   c.IsPublished,
		ViewCount:     c.ViewCount,
		LikeCount:     c.LikeCount,
		CommentsCount: c.CommentsCount,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
	if c.Creator != nil {
		item.Creator = CreatorSummary{
			ID:              c.Creator.ID,
			Username:        c.Creator.Username,
			ProfileImageURL: s.urls.Profile(c.Creator.ProfileImagePath),
			IsVerified:      c.Creator.IsVerified,
		}
	}
	return item
}
