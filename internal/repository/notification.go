package repository

import (
	"context"
	"fmt"

	"creatorhub/internal/cache"
	"creatorhub/internal/models"
	"creatorhub/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NotificationRepository defines persistence for notifications and their preferences.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	List(ctx context.Context, userID uint, offset, limit int) ([]models.Notification, int64, error)
	ListUnread(ctx context.Context, userID uint) ([]models.Notification, error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
	MarkAsRead(ctx context.Context, userID, id uint) (int64, error)
	MarkAllAsRead(ctx context.Context, userID uint) (int64, error)
	Delete(ctx context.Context, userID, id uint) (int64, error)
	GetPreference(ctx context.Context, userID uint) (models.NotificationPreference, error)
	SavePreference(ctx context.Context, pref *models.NotificationPreference) error
}

type notificationRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewNotificationRepository returns a NotificationRepository backed by db.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db, log: observability.NewRepoLogger("notifications")}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	defer observability.TrackQuery("insert", "notifications")()
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return fmt.Errorf("create notification: %w", err)
	}
	cache.InvalidateUnreadNotifications(ctx, n.UserID)
	r.log.LogCreate(ctx, map[string]any{"notification_id": n.ID, "user_id": n.UserID, "type": n.Type})
	return nil
}

func (r *notificationRepository) List(ctx context.Context, userID uint, offset, limit int) ([]models.Notification, int64, error) {
	defer observability.TrackQuery("select", "notifications")()
	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Notification{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	var items []models.Notification
	err := db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	return items, total, nil
}

func (r *notificationRepository) ListUnread(ctx context.Context, userID uint) ([]models.Notification, error) {
	defer observability.TrackQuery("select", "notifications")()
	var items []models.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_read = ?", userID, false).
		Order("created_at DESC, id DESC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list unread notifications: %w", err)
	}
	return items, nil
}

// UnreadCount is served from the cache when possible; writes invalidate it.
func (r *notificationRepository) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return cache.Aside(ctx, cache.UnreadNotificationsKey(userID), cache.UnreadNotificationsTTL, func(ctx context.Context) (int64, error) {
		defer observability.TrackQuery("count", "notifications")()
		var n int64
		err := r.db.WithContext(ctx).Model(&models.Notification{}).
			Where("user_id = ? AND is_read = ?", userID, false).
			Count(&n).Error
		if err != nil {
			return 0, fmt.Errorf("count unread notifications: %w", err)
		}
		return n, nil
	})
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, userID, id uint) (int64, error) {
	defer observability.TrackQuery("update", "notifications")()
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ? AND is_read = ?", id, userID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, fmt.Errorf("mark notification %d read: %w", id, res.Error)
	}
	cache.InvalidateUnreadNotifications(ctx, userID)
	return res.RowsAffected, nil
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID uint) (int64, error) {
	defer observability.TrackQuery("update", "notifications")()
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", res.Error)
	}
	cache.InvalidateUnreadNotifications(ctx, userID)
	return res.RowsAffected, nil
}

func (r *notificationRepository) Delete(ctx context.Context, userID, id uint) (int64, error) {
	defer observability.TrackQuery("delete", "notifications")()
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Notification{})
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "delete")
		return 0, fmt.Errorf("delete notification %d: %w", id, res.Error)
	}
	if res.RowsAffected > 0 {
		cache.InvalidateUnreadNotifications(ctx, userID)
		r.log.LogDelete(ctx, map[string]any{"notification_id": id, "user_id": userID})
	}
	return res.RowsAffected, nil
}

// GetPreference returns the stored preferences, or all-enabled defaults when none exist.
func (r *notificationRepository) GetPreference(ctx context.Context, userID uint) (models.NotificationPreference, error) {
	var pref models.NotificationPreference
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&pref).Error
	if IsNotFound(err) {
		return models.DefaultNotificationPreference(userID), nil
	}
	if err != nil {
		return pref, fmt.Errorf("get notification preference: %w", err)
	}
	return pref, nil
}

func (r *notificationRepository) SavePreference(ctx context.Context, pref *models.NotificationPreference) error {
	defer observability.TrackQuery("upsert", "notification_preferences")()
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"likes", "comments", "mentions", "messages", "follows", "updated_at"}),
	}).Create(pref).Error
	if err != nil {
		r.log.LogError(ctx, err, "save preference")
		return fmt.Errorf("save notification preference: %w", err)
	}
	return nil
}
