package models

import "time"

// ContentType distinguishes media kinds.
type ContentType string

const (
	ContentTypeVideo ContentType = "video"
	ContentTypeImage ContentType = "image"
)

// Valid reports whether t is a known content type.
func (t ContentType) Valid() bool {
	return t == ContentTypeVideo || t == ContentTypeImage
}

// Content is a published or draft media item owned by a creator.
// MediaPath and ThumbnailPath are storage-relative; public URLs are derived at read time.
type Content struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	Title         string      `gorm:"size:200;not null" json:"title"`
	Description   string      `gorm:"type:text" json:"description"`
	Type          ContentType `gorm:"size:16;not null;index" json:"type"`
	MediaPath     string      `gorm:"not null" json:"-"`
	ThumbnailPath *string     `json:"-"`
	Tags          []string    `gorm:"type:text;serializer:json" json:"tags"`
	IsPublished   bool        `gorm:"default:false;index" json:"is_published"`
	ViewCount     int         `gorm:"default:0" json:"view_count"`
	LikeCount     int         `gorm:"default:0" json:"like_count"`
	CommentsCount int         `gorm:"default:0" json:"comments_count"`
	CreatorID     uint        `gorm:"not null;index" json:"creator_id"`
	Creator       *User       `gorm:"foreignKey:CreatorID" json:"-"`
	CreatedAt     time.Time   `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// HasThumbnail reports whether a thumbnail has been stored.
func (c *Content) HasThumbnail() bool {
	return c.ThumbnailPath != nil && *c.ThumbnailPath != ""
}

// CanPublish reports whether the item satisfies the publish rules.
func (c *Content) CanPublish() bool {
	return c.Type != ContentTypeVideo || c.HasThumbnail()
}
