package models

import (
	"fmt"
	"time"
)

// Like records a user's like on exactly one of a content item or a comment.
// TargetKey makes (user, target) unique at the store level.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_like_user_target,priority:1" json:"user_id"`
	TargetKey string    `gorm:"size:64;not null;uniqueIndex:idx_like_user_target,priority:2" json:"-"`
	ContentID *uint     `gorm:"index" json:"content_id,omitempty"`
	CommentID *uint     `gorm:"index" json:"comment_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeTarget names the item a like applies to. Exactly one field must be set.
type LikeTarget struct {
	ContentID *uint
	CommentID *uint
}

// Valid reports whether exactly one target is set.
func (t LikeTarget) Valid() bool {
	return (t.ContentID == nil) != (t.CommentID == nil)
}

// Key returns the unique target key, e.g. "content:5".
func (t LikeTarget) Key() string {
	if t.ContentID != nil {
		return fmt.Sprintf("content:%d", *t.ContentID)
	}
	if t.CommentID != nil {
		return fmt.Sprintf("comment:%d", *t.CommentID)
	}
	return ""
}

// ContentTarget is shorthand for a content like target.
func ContentTarget(id uint) LikeTarget { return LikeTarget{ContentID: &id} }

// CommentTarget is shorthand for a comment like target.
func CommentTarget(id uint) LikeTarget { return LikeTarget{CommentID: &id} }

// Comment is a remark on content; ParentID makes it a reply.
type Comment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	User       *User     `gorm:"foreignKey:UserID" json:"-"`
	ContentID  uint      `gorm:"not null;index" json:"content_id"`
	ParentID   *uint     `gorm:"index" json:"parent_id,omitempty"`
	LikeCount  int       `gorm:"default:0" json:"like_count"`
	ReplyCount int       `gorm:"->;-:migration" json:"reply_count"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Subscription ties a subscriber to a creator. Unsubscribing flips IsActive.
type Subscription struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubscriberID uint      `gorm:"not null;uniqueIndex:idx_subscription_pair,priority:1" json:"subscriber_id"`
	CreatorID    uint      `gorm:"not null;uniqueIndex:idx_subscription_pair,priority:2;index" json:"creator_id"`
	Creator      *User     `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
