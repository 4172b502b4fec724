package models

import "time"

// NotificationType enumerates the kinds of notifications.
type NotificationType string

const (
	NotificationLike    NotificationType = "like"
	NotificationComment NotificationType = "comment"
	NotificationMessage NotificationType = "message"
	NotificationFollow  NotificationType = "follow"
	NotificationMention NotificationType = "mention"
)

// Valid reports whether t is a known notification type.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationLike, NotificationComment, NotificationMessage, NotificationFollow, NotificationMention:
		return true
	}
	return false
}

// Notification is a persisted inbox entry for one recipient.
type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	Type      NotificationType `gorm:"size:16;not null" json:"type"`
	Title     string           `gorm:"not null" json:"title"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	Data      map[string]any   `gorm:"type:text;serializer:json" json:"data,omitempty"`
	Route     string           `json:"route,omitempty"`
	IsRead    bool             `gorm:"default:false;index:idx_notifications_user_read,priority:2" json:"is_read"`
	UserID    uint             `gorm:"not null;index:idx_notifications_user_read,priority:1" json:"user_id"`
	CreatedAt time.Time        `gorm:"index" json:"created_at"`
}

// NotificationPreference controls which notification types are pushed to devices.
// Missing rows mean every type is enabled.
type NotificationPreference struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"-"`
	Likes     bool      `gorm:"not null" json:"likes"`
	Comments  bool      `gorm:"not null" json:"comments"`
	Mentions  bool      `gorm:"not null" json:"mentions"`
	Messages  bool      `gorm:"not null" json:"messages"`
	Follows   bool      `gorm:"not null" json:"follows"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultNotificationPreference returns the all-enabled preference set.
func DefaultNotificationPreference(userID uint) NotificationPreference {
	return NotificationPreference{
		UserID:   userID,
		Likes:    true,
		Comments: true,
		Mentions: true,
		Messages: true,
		Follows:  true,
	}
}

// Allows reports whether notifications of type t are enabled.
func (p NotificationPreference) Allows(t NotificationType) bool {
	switch t {
	case NotificationLike:
		return p.Likes
	case NotificationComment:
		return p.Comments
	case NotificationMention:
		return p.Mentions
	case NotificationMessage:
		return p.Messages
	case NotificationFollow:
		return p.Follows
	}
	return false
}

// DeviceToken is a push registration for a user's device.
type DeviceToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Token     string    `gorm:"uniqueIndex;not null" json:"token"`
	Platform  string    `gorm:"size:16" json:"platform"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
