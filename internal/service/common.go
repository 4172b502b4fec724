package service

import (
	"errors"

	"creatorhub/internal/feed"
	"creatorhub/internal/models"
	"creatorhub/internal/repository"
)

// Pagination describes a page of a larger result set.
type Pagination struct {
	Total       int64 `json:"total"`
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	HasNextPage bool  `json:"has_next_page"`
}

func newPagination(total int64, page, limit int) Pagination {
	return Pagination{
		Total:       total,
		Page:        page,
		Limit:       limit,
		HasNextPage: total > int64((page-1)*limit+limit),
	}
}

// storeError maps a repository error to an AppError, turning missing rows into NotFound.
func storeError(err error, resource string, id any) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if repository.IsNotFound(err) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

func userSummary(u *models.User, urls feed.URLBuilder) *models.UserSummary {
	if u == nil {
		return nil
	}
	s := &models.UserSummary{
		ID:         u.ID,
		Username:   u.Username,
		IsVerified: u.IsVerified,
	}
	if p := urls.Profile(u.ProfileImagePath); p != nil {
		s.ProfileImageURL = *p
	}
	return s
}
