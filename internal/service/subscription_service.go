package service

import (
	"context"
	"fmt"
	"time"

	"creatorhub/internal/feed"
	"creatorhub/internal/models"
	"creatorhub/internal/repository"
)

// SubscriptionView is an active subscription with its creator.
type SubscriptionView struct {
	ID           uint                `json:"id"`
	Creator      *models.UserSummary `json:"creator"`
	SubscribedAt time.Time           `json:"subscribed_at"`
}

// SubscriptionService manages subscriber/creator links.
type SubscriptionService struct {
	repo     repository.SubscriptionRepository
	users    repository.UserRepository
	notifier Notifier
	urls     feed.URLBuilder
}

// NewSubscriptionService returns a new SubscriptionService.
func NewSubscriptionService(repo repository.SubscriptionRepository, users repository.UserRepository, notifier Notifier, urls feed.URLBuilder) *SubscriptionService {
	return &SubscriptionService{repo: repo, users: users, notifier: notifier, urls: urls}
}

// Subscribe activates a subscription, reusing an inactive row when one exists.
func (s *SubscriptionService) Subscribe(ctx context.Context, subscriberID, creatorID uint) error {
	if subscriberID == creatorID {
		return models.NewValidationError("Cannot subscribe to yourself")
	}
	if _, err := s.users.GetByID(ctx, creatorID); err != nil {
		return storeError(err, "User", creatorID)
	}

	existing, err := s.repo.Get(ctx, subscriberID, creatorID)
	switch {
	case err == nil && existing.IsActive:
		return models.NewConflictError("Already subscribed to this creator")
	case err == nil:
		if err := s.repo.SetActive(ctx, existing.ID, true); err != nil {
			return models.NewInternalError(err)
		}
	case repository.IsNotFound(err):
		sub := &models.Subscription{SubscriberID: subscriberID, CreatorID: creatorID, IsActive: true}
		if err := s.repo.Create(ctx, sub); err != nil {
			if repository.IsDuplicate(err) {
				return models.NewConflictError("Already subscribed to this creator")
			}
			return models.NewInternalError(err)
		}
	default:
		return models.NewInternalError(err)
	}

	s.notifyFollow(ctx, subscriberID, creatorID)
	return nil
}

func (s *SubscriptionService) notifyFollow(ctx context.Context, subscriberID, creatorID uint) {
	name := "Someone"
	if u, err := s.users.GetByID(ctx, subscriberID); err == nil {
		name = u.Username
	}
	s.notifier.Notify(ctx, NotificationInput{
		UserID:  creatorID,
		Type:    models.NotificationFollow,
		Title:   "New Subscriber",
		Message: fmt.Sprintf("%s subscribed to you", name),
		Data:    map[string]any{"userId": subscriberID, "username": name},
		Route:   fmt.Sprintf("/profile/%d", subscriberID),
	})
}

// Unsubscribe deactivates an active subscription.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, subscriberID, creatorID uint) error {
	existing, err := s.repo.Get(ctx, subscriberID, creatorID)
	if err != nil {
		if repository.IsNotFound(err) {
			return models.NewNotFoundError("Subscription", creatorID)
		}
		return models.NewInternalError(err)
	}
	if !existing.IsActive {
		return models.NewNotFoundError("Subscription", creatorID)
	}
	if err := s.repo.SetActive(ctx, existing.ID, false); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ListCreators returns the creators the user actively subscribes to.
func (s *SubscriptionService) ListCreators(ctx context.Context, subscriberID uint) ([]SubscriptionView, error) {
	subs, err := s.repo.ListActive(ctx, subscriberID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	out := make([]SubscriptionView, 0, len(subs))
	for i := range subs {
		out = append(out, SubscriptionView{
			ID:           subs[i].ID,
			Creator:      userSummary(subs[i].Creator, s.urls),
			SubscribedAt: subs[i].UpdatedAt,
		})
	}
	return out, nil
}
