package repository

import (
	"context"
	"fmt"

	"creatorhub/internal/models"

	"gorm.io/gorm"
)

// QueryCount is a search query with how often it was issued.
type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// SearchRepository stores and aggregates search history.
type SearchRepository interface {
	Record(ctx context.Context, userID uint, query string) error
	Recent(ctx context.Context, userID uint, limit int) ([]models.SearchHistory, error)
	Trending(ctx context.Context, limit int) ([]QueryCount, error)
	Suggestions(ctx context.Context, prefix string, limit int) ([]string, error)
}

type searchRepository struct {
	db *gorm.DB
}

// NewSearchRepository returns a SearchRepository backed by db.
func NewSearchRepository(db *gorm.DB) SearchRepository {
	return &searchRepository{db: db}
}

func (r *searchRepository) Record(ctx context.Context, userID uint, query string) error {
	entry := models.SearchHistory{UserID: userID, Query: query}
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("record search: %w", err)
	}
	return nil
}

func (r *searchRepository) Recent(ctx context.Context, userID uint, limit int) ([]models.SearchHistory, error) {
	var entries []models.SearchHistory
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("recent searches: %w", err)
	}
	return entries, nil
}

func (r *searchRepository) Trending(ctx context.Context, limit int) ([]QueryCount, error) {
	var rows []QueryCount
	err := r.db.WithContext(ctx).Model(&models.SearchHistory{}).
		Select("query, COUNT(*) AS count").
		Group("query").
		Order("count DESC, query ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("trending searches: %w", err)
	}
	return rows, nil
}

func (r *searchRepository) Suggestions(ctx context.Context, prefix string, limit int) ([]string, error) {
	var out []string
	err := r.db.WithContext(ctx).Model(&models.SearchHistory{}).
		Distinct("query").
		Where("LOWER(query) LIKE ?"+likeEscape, prefixPattern(prefix)).
		Order("query ASC").
		Limit(limit).
		Pluck("query", &out).Error
	if err != nil {
		return nil, fmt.Errorf("search suggestions: %w", err)
	}
	return out, nil
}
