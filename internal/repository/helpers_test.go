package repository

import (
	"fmt"
	"testing"
	"time"

	"creatorhub/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Password: "hash",
		IsActive: true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

type contentOpt func(*models.Content)

func published(c *models.Content) { c.IsPublished = true }

func video(c *models.Content) {
	c.Type = models.ContentTypeVideo
	thumb := "uploads/content/thumbnail/t.jpg"
	c.ThumbnailPath = &thumb
}

func tagged(tags ...string) contentOpt {
	return func(c *models.Content) { c.Tags = tags }
}

func createdAgo(d time.Duration) contentOpt {
	return func(c *models.Content) { c.CreatedAt = time.Now().Add(-d) }
}

func createContent(t *testing.T, db *gorm.DB, creatorID uint, title string, opts ...contentOpt) *models.Content {
	t.Helper()
	c := &models.Content{
		Title:     title,
		Type:      models.ContentTypeImage,
		MediaPath: "uploads/content/media/" + title + ".jpg",
		CreatorID: creatorID,
		Tags:      []string{},
	}
	for _, opt := range opts {
		opt(c)
	}
	require.NoError(t, db.Omit("Creator").Create(c).Error)
	return c
}
