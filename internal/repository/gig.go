package repository

import (
	"context"
	"fmt"
	"strings"

	"creatorhub/internal/models"
	"creatorhub/internal/observability"

	"gorm.io/gorm"
)

// GigFilter narrows gig listings. Zero values are ignored.
type GigFilter struct {
	CreatorID uint
	MinPrice  float64
	MaxPrice  float64
	Skill     string
	Status    models.GigStatus
}

// GigRepository defines persistence for gig listings.
type GigRepository interface {
	Create(ctx context.Context, gig *models.Gig) error
	GetByID(ctx context.Context, id uint) (*models.Gig, error)
	List(ctx context.Context, filter GigFilter, offset, limit int) ([]models.Gig, int64, error)
	Update(ctx context.Context, id uint, fields map[string]any) error
	IncrementViews(ctx context.Context, id uint) error
	CountByCreator(ctx context.Context, creatorID uint) (int64, error)
	Search(ctx context.Context, query string, offset, limit int) ([]models.Gig, error)
	Delete(ctx context.Context, id uint) error
}

type gigRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewGigRepository returns a GigRepository backed by db.
func NewGigRepository(db *gorm.DB) GigRepository {
	return &gigRepository{db: db, log: observability.NewRepoLogger("gigs")}
}

func (r *gigRepository) Create(ctx context.Context, gig *models.Gig) error {
	defer observability.TrackQuery("insert", "gigs")()
	if err := r.db.WithContext(ctx).Omit("Creator").Create(gig).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return fmt.Errorf("create gig: %w", err)
	}
	r.log.LogCreate(ctx, map[string]any{"gig_id": gig.ID, "creator_id": gig.CreatorID})
	return nil
}

func (r *gigRepository) GetByID(ctx context.Context, id uint) (*models.Gig, error) {
	var gig models.Gig
	if err := r.db.WithContext(ctx).Preload("Creator").First(&gig, id).Error; err != nil {
		return nil, fmt.Errorf("get gig %d: %w", id, err)
	}
	return &gig, nil
}

func (r *gigRepository) List(ctx context.Context, filter GigFilter, offset, limit int) ([]models.Gig, int64, error) {
	defer observability.TrackQuery("select", "gigs")()
	q := r.db.WithContext(ctx).Model(&models.Gig{})
	if filter.CreatorID != 0 {
		q = q.Where("creator_id = ?", filter.CreatorID)
	}
	if filter.MinPrice > 0 {
		q = q.Where("price >= ?", filter.MinPrice)
	}
	if filter.MaxPrice > 0 {
		q = q.Where("price <= ?", filter.MaxPrice)
	}
	if filter.Skill != "" {
		q = q.Where("LOWER(skills) LIKE ?"+likeEscape, jsonElementPattern(strings.ToLower(filter.Skill)))
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	} else {
		q = q.Where("status <> ?", models.GigDeleted)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count gigs: %w", err)
	}

	var gigs []models.Gig
	if err := q.Preload("Creator").Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&gigs).Error; err != nil {
		return nil, 0, fmt.Errorf("list gigs: %w", err)
	}
	return gigs, total, nil
}

func (r *gigRepository) Update(ctx context.Context, id uint, fields map[string]any) error {
	defer observability.TrackQuery("update", "gigs")()
	res := r.db.WithContext(ctx).Model(&models.Gig{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "update")
		return fmt.Errorf("update gig %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update gig %d: %w", id, gorm.ErrRecordNotFound)
	}
	r.log.LogUpdate(ctx, map[string]any{"gig_id": id})
	return nil
}

func (r *gigRepository) IncrementViews(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Model(&models.Gig{}).Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
	if err != nil {
		return fmt.Errorf("increment gig views %d: %w", id, err)
	}
	return nil
}

func (r *gigRepository) CountByCreator(ctx context.Context, creatorID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Gig{}).
		Where("creator_id = ? AND status <> ?", creatorID, models.GigDeleted).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count gigs: %w", err)
	}
	return n, nil
}

func (r *gigRepository) Search(ctx context.Context, query string, offset, limit int) ([]models.Gig, error) {
	defer observability.TrackQuery("select", "gigs")()
	pattern := containsPattern(query)
	var gigs []models.Gig
	err := r.db.WithContext(ctx).Preload("Creator").
		Where("status <> ?", models.GigDeleted).
		Where("LOWER(title) LIKE ?"+likeEscape+" OR LOWER(description) LIKE ?"+likeEscape, pattern, pattern).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&gigs).Error
	if err != nil {
		return nil, fmt.Errorf("search gigs: %w", err)
	}
	return gigs, nil
}

func (r *gigRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "gigs")()
	res := r.db.WithContext(ctx).Delete(&models.Gig{}, id)
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "delete")
		return fmt.Errorf("delete gig %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete gig %d: %w", id, gorm.ErrRecordNotFound)
	}
	r.log.LogDelete(ctx, map[string]any{"gig_id": id})
	return nil
}
