package repository

import (
	"context"
	"fmt"

	"creatorhub/internal/feed"
	"creatorhub/internal/models"
	"creatorhub/internal/observability"

	"gorm.io/gorm"
)

// CreatorStats aggregates a creator's content totals.
type CreatorStats struct {
	TotalContent  int64 `json:"total_content"`
	TotalVideos   int64 `json:"total_videos"`
	TotalImages   int64 `json:"total_images"`
	TotalLikes    int64 `json:"total_likes"`
	TotalViews    int64 `json:"total_views"`
	TotalComments int64 `json:"total_comments"`
}

// ContentRepository defines persistence operations for content items.
type ContentRepository interface {
	Create(ctx context.Context, content *models.Content) error
	GetByID(ctx context.Context, id uint) (*models.Content, error)
	GetPublishedVideo(ctx context.Context, id uint) (*models.Content, error)
	Query(ctx context.Context, spec feed.Spec) ([]models.Content, int64, error)
	ListDrafts(ctx context.Context, creatorID uint) ([]models.Content, error)
	Publish(ctx context.Context, id uint) error
	SetThumbnail(ctx context.Context, id uint, path string) error
	IncrementViews(ctx context.Context, id uint) error
	Stats(ctx context.Context, creatorID uint) (*CreatorStats, error)
	CountByCreator(ctx context.Context, creatorID uint) (int64, error)
	Search(ctx context.Context, query string, offset, limit int) ([]models.Content, error)
	Delete(ctx context.Context, id uint) error
}

type contentRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewContentRepository returns a ContentRepository backed by db.
func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepository{db: db, log: observability.NewRepoLogger("contents")}
}

func (r *contentRepository) Create(ctx context.Context, content *models.Content) error {
	defer observability.TrackQuery("insert", "contents")()
	if err := r.db.WithContext(ctx).Omit("Creator").Create(content).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return fmt.Errorf("create content: %w", err)
	}
	r.log.LogCreate(ctx, map[string]any{"content_id": content.ID, "creator_id": content.CreatorID})
	return nil
}

func (r *contentRepository) GetByID(ctx context.Context, id uint) (*models.Content, error) {
	defer observability.TrackQuery("select", "contents")()
	var content models.Content
	if err := r.db.WithContext(ctx).Preload("Creator").First(&content, id).Error; err != nil {
		return nil, fmt.Errorf("get content %d: %w", id, err)
	}
	return &content, nil
}

func (r *contentRepository) GetPublishedVideo(ctx context.Context, id uint) (*models.Content, error) {
	defer observability.TrackQuery("select", "contents")()
	var content models.Content
	err := r.db.WithContext(ctx).Preload("Creator").
		Where("id = ? AND type = ? AND is_published = ?", id, models.ContentTypeVideo, true).
		First(&content).Error
	if err != nil {
		return nil, fmt.Errorf("get published video %d: %w", id, err)
	}
	return &content, nil
}

func (r *contentRepository) Query(ctx context.Context, spec feed.Spec) ([]models.Content, int64, error) {
	defer observability.TrackQuery("select", "contents")()

	scoped, err := ApplySpec(r.db.WithContext(ctx).Model(&models.Content{}), spec)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := scoped.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count contents: %w", err)
	}

	var items []models.Content
	if err := scoped.Preload("Creator").Offset(spec.Offset()).Limit(spec.Limit).Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("query contents: %w", err)
	}
	return items, total, nil
}

func (r *contentRepository) ListDrafts(ctx context.Context, creatorID uint) ([]models.Content, error) {
	defer observability.TrackQuery("select", "contents")()
	var items []models.Content
	err := r.db.WithContext(ctx).
		Where("creator_id = ? AND is_published = ?", creatorID, false).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	return items, nil
}

func (r *contentRepository) Publish(ctx context.Context, id uint) error {
	return r.update(ctx, id, map[string]any{"is_published": true})
}

func (r *contentRepository) SetThumbnail(ctx context.Context, id uint, path string) error {
	return r.update(ctx, id, map[string]any{"thumbnail_path": path})
}

func (r *contentRepository) update(ctx context.Context, id uint, fields map[string]any) error {
	defer observability.TrackQuery("update", "contents")()
	res := r.db.WithContext(ctx).Model(&models.Content{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "update")
		return fmt.Errorf("update content %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update content %d: %w", id, gorm.ErrRecordNotFound)
	}
	r.log.LogUpdate(ctx, map[string]any{"content_id": id})
	return nil
}

func (r *contentRepository) IncrementViews(ctx context.Context, id uint) error {
	defer observability.TrackQuery("update", "contents")()
	err := r.db.WithContext(ctx).Model(&models.Content{}).Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
	if err != nil {
		return fmt.Errorf("increment views %d: %w", id, err)
	}
	return nil
}

func (r *contentRepository) Stats(ctx context.Context, creatorID uint) (*CreatorStats, error) {
	defer observability.TrackQuery("select", "contents")()
	var stats CreatorStats
	err := r.db.WithContext(ctx).Model(&models.Content{}).
		Select(`COUNT(*) AS total_content,
			COALESCE(SUM(CASE WHEN type = ? THEN 1 ELSE 0 END), 0) AS total_videos,
			COALESCE(SUM(CASE WHEN type = ? THEN 1 ELSE 0 END), 0) AS total_images,
			COALESCE(SUM(like_count), 0) AS total_likes,
			COALESCE(SUM(view_count), 0) AS total_views,
			COALESCE(SUM(comments_count), 0) AS total_comments`,
			models.ContentTypeVideo, models.ContentTypeImage).
		Where("creator_id = ?", creatorID).
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("creator stats %d: %w", creatorID, err)
	}
	return &stats, nil
}

func (r *contentRepository) CountByCreator(ctx context.Context, creatorID uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Content{}).Where("creator_id = ?", creatorID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count content: %w", err)
	}
	return n, nil
}

func (r *contentRepository) Search(ctx context.Context, query string, offset, limit int) ([]models.Content, error) {
	defer observability.TrackQuery("select", "contents")()
	pattern := containsPattern(query)
	var items []models.Content
	err := r.db.WithContext(ctx).Preload("Creator").
		Where("is_published = ?", true).
		Where("LOWER(title) LIKE ?"+likeEscape+" OR LOWER(description) LIKE ?"+likeEscape, pattern, pattern).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("search contents: %w", err)
	}
	return items, nil
}

// Delete removes the content with its comments and every like on either, in one transaction.
func (r *contentRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "contents")()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		commentIDs := tx.Model(&models.Comment{}).Select("id").Where("content_id = ?", id)
		if err := tx.Where("content_id = ? OR comment_id IN (?)", id, commentIDs).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("content_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Content{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if !IsNotFound(err) {
			r.log.LogError(ctx, err, "delete")
		}
		return fmt.Errorf("delete content %d: %w", id, err)
	}
	r.log.LogDelete(ctx, map[string]any{"content_id": id})
	return nil
}
