package models

import "time"

// GigStatus is the lifecycle state of a gig listing.
type GigStatus string

const (
	GigActive    GigStatus = "active"
	GigPaused    GigStatus = "paused"
	GigCompleted GigStatus = "completed"
	GigDeleted   GigStatus = "deleted"
)

// Valid reports whether s is a known status.
func (s GigStatus) Valid() bool {
	switch s {
	case GigActive, GigPaused, GigCompleted, GigDeleted:
		return true
	}
	return false
}

// Gig is a service listing offered by a creator.
type Gig struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"size:100;not null" json:"title"`
	Description  string    `gorm:"type:text;not null" json:"description"`
	Price        float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	Skills       []string  `gorm:"type:text;serializer:json" json:"skills"`
	Status       GigStatus `gorm:"size:16;not null;default:active;index" json:"status"`
	CreatorID    uint      `gorm:"not null;index" json:"creator_id"`
	Creator      *User     `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	ViewCount    int       `gorm:"default:0" json:"view_count"`
	ContactCount int       `gorm:"default:0" json:"contact_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SearchHistory records a query issued by a user.
type SearchHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Query     string    `gorm:"size:200;not null;index" json:"query"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
