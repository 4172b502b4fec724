package repository

import (
	"context"
	"fmt"

	"creatorhub/internal/models"
	"creatorhub/internal/observability"

	"gorm.io/gorm"
)

// SubscriptionRepository defines persistence for subscriber/creator links.
type SubscriptionRepository interface {
	Get(ctx context.Context, subscriberID, creatorID uint) (*models.Subscription, error)
	Create(ctx context.Context, sub *models.Subscription) error
	SetActive(ctx context.Context, id uint, active bool) error
	IsSubscribed(ctx context.Context, subscriberID, creatorID uint) (bool, error)
	ActiveCreatorIDs(ctx context.Context, subscriberID uint) ([]uint, error)
	ListActive(ctx context.Context, subscriberID uint) ([]models.Subscription, error)
}

type subscriptionRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewSubscriptionRepository returns a SubscriptionRepository backed by db.
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db, log: observability.NewRepoLogger("subscriptions")}
}

func (r *subscriptionRepository) Get(ctx context.Context, subscriberID, creatorID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		Where("subscriber_id = ? AND creator_id = ?", subscriberID, creatorID).
		First(&sub).Error
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return &sub, nil
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *models.Subscription) error {
	defer observability.TrackQuery("insert", "subscriptions")()
	if err := r.db.WithContext(ctx).Omit("Creator").Create(sub).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return fmt.Errorf("create subscription: %w", err)
	}
	r.log.LogCreate(ctx, map[string]any{"subscriber_id": sub.SubscriberID, "creator_id": sub.CreatorID})
	return nil
}

func (r *subscriptionRepository) SetActive(ctx context.Context, id uint, active bool) error {
	defer observability.TrackQuery("update", "subscriptions")()
	err := r.db.WithContext(ctx).Model(&models.Subscription{}).Where("id = ?", id).
		Update("is_active", active).Error
	if err != nil {
		r.log.LogError(ctx, err, "update")
		return fmt.Errorf("set subscription %d active=%t: %w", id, active, err)
	}
	r.log.LogUpdate(ctx, map[string]any{"subscription_id": id, "is_active": active})
	return nil
}

func (r *subscriptionRepository) IsSubscribed(ctx context.Context, subscriberID, creatorID uint) (bool, error) {
	if subscriberID == 0 {
		return false, nil
	}
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("subscriber_id = ? AND creator_id = ? AND is_active = ?", subscriberID, creatorID, true).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("is subscribed: %w", err)
	}
	return n > 0, nil
}

func (r *subscriptionRepository) ActiveCreatorIDs(ctx context.Context, subscriberID uint) ([]uint, error) {
	ids := []uint{}
	if subscriberID == 0 {
		return ids, nil
	}
	err := r.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("subscriber_id = ? AND is_active = ?", subscriberID, true).
		Pluck("creator_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("active creator ids: %w", err)
	}
	return ids, nil
}

func (r *subscriptionRepository) ListActive(ctx context.Context, subscriberID uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.WithContext(ctx).Preload("Creator").
		Where("subscriber_id = ? AND is_active = ?", subscriberID, true).
		Order("created_at DESC").
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return subs, nil
}
