package service

import (
	"context"
	"strings"

	"creatorhub/internal/feed"
	"creatorhub/internal/media"
	"creatorhub/internal/models"
	"creatorhub/internal/repository"
	"creatorhub/internal/storage"
	"creatorhub/internal/validation"
)

// CreateContentInput carries a new upload and its metadata.
type CreateContentInput struct {
	CreatorID   uint
	Title       string             `json:"title" validate:"notblank,max=200"`
	Description string             `json:"description" validate:"max=5000"`
	Type        models.ContentType `json:"type" validate:"required,oneof=video image"`
	Tags        []string           `json:"tags" validate:"max=20,dive,max=50"`
	Media       media.File
	Thumbnail   *media.File
}

// ContentService manages the lifecycle of a creator's content.
type ContentService struct {
	repo  repository.ContentRepository
	store storage.Store
	feed  *FeedService
	urls  feed.URLBuilder
}

// NewContentService returns a new ContentService. Items are rendered through feeds.
func NewContentService(repo repository.ContentRepository, store storage.Store, feeds *FeedService) *ContentService {
	return &ContentService{repo: repo, store: store, feed: feeds, urls: feeds.urls}
}

// Create stores the upload and saves the item as a draft. Videos may be
// created without a thumbnail but cannot be published until one is set.
func (s *ContentService) Create(ctx context.Context, in CreateContentInput) (*ContentItem, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Type = models.ContentType(strings.ToLower(string(in.Type)))
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	kind, limit := media.KindImage, media.MaxImageBytes
	if in.Type == models.ContentTypeVideo {
		kind, limit = media.KindVideo, media.MaxVideoBytes
	}
	checked, err := media.Check(in.Media, kind, limit)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	var thumbChecked media.Checked
	if in.Thumbnail != nil {
		thumbChecked, err = media.Check(*in.Thumbnail, media.KindImage, media.MaxThumbnailBytes)
		if err != nil {
			return nil, models.NewValidationError("thumbnail: " + err.Error())
		}
	}

	mediaPath, err := s.store.Save(ctx, storage.DirMedia, checked.Ext, checked.ContentType, in.Media.Data)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	saved := []string{mediaPath}

	c := &models.Content{
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		Type:        in.Type,
		MediaPath:   mediaPath,
		Tags:        normalizeTags(in.Tags),
		CreatorID:   in.CreatorID,
	}
	if in.Thumbnail != nil {
		thumbPath, err := s.store.Save(ctx, storage.DirThumbnail, thumbChecked.Ext, thumbChecked.ContentType, in.Thumbnail.Data)
		if err != nil {
			s.cleanup(ctx, saved)
			return nil, models.NewInternalError(err)
		}
		saved = append(saved, thumbPath)
		c.ThumbnailPath = &thumbPath
	}

	if err := s.repo.Create(ctx, c); err != nil {
		s.cleanup(ctx, saved)
		return nil, models.NewInternalError(err)
	}
	item := s.feed.item(c)
	return &item, nil
}

// Publish makes a draft visible in feeds.
func (s *ContentService) Publish(ctx context.Context, userID, id uint) (*ContentItem, error) {
	c, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !c.CanPublish() {
		return nil, models.NewValidationError("Videos require a thumbnail before publishing")
	}
	if !c.IsPublished {
		if err := s.repo.Publish(ctx, id); err != nil {
			return nil, storeError(err, "Content", id)
		}
		c.IsPublished = true
	}
	item := s.feed.item(c)
	return &item, nil
}

// SetThumbnail replaces the item's thumbnail.
func (s *ContentService) SetThumbnail(ctx context.Context, userID, id uint, f media.File) (*ContentItem, error) {
	c, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	checked, err := media.Check(f, media.KindImage, media.MaxThumbnailBytes)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	path, err := s.store.Save(ctx, storage.DirThumbnail, checked.Ext, checked.ContentType, f.Data)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := s.repo.SetThumbnail(ctx, id, path); err != nil {
		removeStored(ctx, s.store, path)
		return nil, storeError(err, "Content", id)
	}
	if c.HasThumbnail() {
		removeStored(ctx, s.store, *c.ThumbnailPath)
	}
	c.ThumbnailPath = &path
	item := s.feed.item(c)
	return &item, nil
}

// Delete removes the item with its comments and likes, then its stored files.
func (s *ContentService) Delete(ctx context.Context, userID, id uint) error {
	c, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "Content", id)
	}
	files := []string{c.MediaPath}
	if c.HasThumbnail() {
		files = append(files, *c.ThumbnailPath)
	}
	s.cleanup(ctx, files)
	return nil
}

func (s *ContentService) owned(ctx context.Context, userID, id uint) (*models.Content, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Content", id)
	}
	if c.CreatorID != userID {
		return nil, models.NewUnauthorizedError("You can only modify your own content")
	}
	return c, nil
}

func (s *ContentService) cleanup(ctx context.Context, paths []string) {
	for _, p := range paths {
		removeStored(ctx, s.store, p)
	}
}

// normalizeTags trims, lowercases and de-duplicates tags, keeping first occurrence order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = feed.NormalizeTag(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
