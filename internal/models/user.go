// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Account types.
const (
	AccountTypeFree     = "free"
	AccountTypeVerified = "verified"
)

// User represents a registered account. Creators are users who publish content.
type User struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Username         string    `gorm:"uniqueIndex;size:30;not null" json:"username"`
	Email            string    `gorm:"uniqueIndex;not null" json:"email"`
	Password         string    `gorm:"not null" json:"-"`
	Bio              string    `gorm:"type:text" json:"bio"`
	Location         string    `json:"location"`
	Website          string    `json:"website"`
	ProfileImagePath string    `json:"-"`
	ProfileImageURL  string    `gorm:"-" json:"profile_image_url,omitempty"`
	IsVerified       bool      `gorm:"default:false" json:"is_verified"`
	AccountType      string    `gorm:"size:16;default:free" json:"account_type"`
	IsActive         bool      `gorm:"default:true" json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// UserSummary is the public projection of a user embedded in other payloads.
type UserSummary struct {
	ID              uint   `json:"id"`
	Username        string `json:"username"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
	IsVerified      bool   `json:"is_verified"`
}
