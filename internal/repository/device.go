package repository

import (
	"context"
	"fmt"

	"creatorhub/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeviceRepository stores push tokens per user.
type DeviceRepository interface {
	// Upsert registers the token for the user; a token moves to the latest user that registers it.
	Upsert(ctx context.Context, device *models.DeviceToken) error
	Delete(ctx context.Context, userID uint, token string) (int64, error)
	DeleteTokens(ctx context.Context, tokens []string) error
	TokensFor(ctx context.Context, userID uint) ([]string, error)
}

type deviceRepository struct {
	db *gorm.DB
}

// NewDeviceRepository returns a DeviceRepository backed by db.
func NewDeviceRepository(db *gorm.DB) DeviceRepository {
	return &deviceRepository{db: db}
}

func (r *deviceRepository) Upsert(ctx context.Context, device *models.DeviceToken) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "platform", "updated_at"}),
	}).Create(device).Error
	if err != nil {
		return fmt.Errorf("register device: %w", err)
	}
	return nil
}

func (r *deviceRepository) Delete(ctx context.Context, userID uint, token string) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ? AND token = ?", userID, token).Delete(&models.DeviceToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("unregister device: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *deviceRepository) DeleteTokens(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Where("token IN ?", tokens).Delete(&models.DeviceToken{}).Error; err != nil {
		return fmt.Errorf("prune device tokens: %w", err)
	}
	return nil
}

func (r *deviceRepository) TokensFor(ctx context.Context, userID uint) ([]string, error) {
	var tokens []string
	err := r.db.WithContext(ctx).Model(&models.DeviceToken{}).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Pluck("token", &tokens).Error
	if err != nil {
		return nil, fmt.Errorf("device tokens: %w", err)
	}
	return tokens, nil
}
