package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"creatorhub/internal/cache"
	"creatorhub/internal/feed"
	"creatorhub/internal/media"
	"creatorhub/internal/middleware"
	"creatorhub/internal/models"
	"creatorhub/internal/payments"
	"creatorhub/internal/repository"
	"creatorhub/internal/storage"
	"creatorhub/internal/validation"
)

// UpdateProfileInput holds a partial profile update. Nil fields are left unchanged.
type UpdateProfileInput struct {
	Bio      *string `json:"bio" validate:"omitempty,max=160"`
	Location *string `json:"location" validate:"omitempty,max=100"`
	Website  *string `json:"website" validate:"omitempty,max=100,url"`
}

// VerificationIntent is returned to the client to complete payment.
type VerificationIntent struct {
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
}

// SettingsService manages a user's own profile and verification.
type SettingsService struct {
	users    repository.UserRepository
	store    storage.Store
	payments payments.Provider
	urls     feed.URLBuilder
}

// NewSettingsService returns a new SettingsService.
func NewSettingsService(users repository.UserRepository, store storage.Store, provider payments.Provider, urls feed.URLBuilder) *SettingsService {
	if provider == nil {
		provider = payments.Unconfigured{}
	}
	return &SettingsService{users: users, store: store, payments: provider, urls: urls}
}

func (s *SettingsService) UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (*models.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if in.Bio != nil {
		fields["bio"] = strings.TrimSpace(*in.Bio)
	}
	if in.Location != nil {
		fields["location"] = strings.TrimSpace(*in.Location)
	}
	if in.Website != nil {
		fields["website"] = strings.TrimSpace(*in.Website)
	}
	if len(fields) > 0 {
		if err := s.users.UpdateFields(ctx, userID, fields); err != nil {
			return nil, storeError(err, "User", userID)
		}
		cache.InvalidateUserProfile(ctx, userID)
	}
	return s.reload(ctx, userID)
}

// UpdateProfileImage stores a resized WebP copy of the upload and removes the previous image.
func (s *SettingsService) UpdateProfileImage(ctx context.Context, userID uint, f media.File) (*models.User, error) {
	if _, err := media.Check(f, media.KindImage, media.MaxProfileBytes); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, storeError(err, "User", userID)
	}

	encoded, err := media.ProfileImage(f.Data)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	path, err := s.store.Save(ctx, storage.DirProfile, "webp", "image/webp", encoded)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := s.users.UpdateFields(ctx, userID, map[string]any{"profile_image_path": path}); err != nil {
		removeStored(ctx, s.store, path)
		return nil, storeError(err, "User", userID)
	}
	cache.InvalidateUserProfile(ctx, userID)

	if user.ProfileImagePath != "" {
		removeStored(ctx, s.store, user.ProfileImagePath)
	}
	return s.reload(ctx, userID)
}

// InitiateVerification opens a payment for the verified badge.
func (s *SettingsService) InitiateVerification(ctx context.Context, userID uint) (*VerificationIntent, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, storeError(err, "User", userID)
	}
	if user.IsVerified {
		return nil, models.NewConflictError("User is already verified")
	}
	intent, err := s.payments.CreateVerificationIntent(ctx, userID)
	if err != nil {
		return nil, paymentError(err)
	}
	return &VerificationIntent{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		Amount:          intent.Amount,
		Currency:        intent.Currency,
	}, nil
}

// ConfirmVerification marks the user verified once their payment intent has succeeded.
func (s *SettingsService) ConfirmVerification(ctx context.Context, userID uint, paymentIntentID string) (*models.User, error) {
	paymentIntentID = strings.TrimSpace(paymentIntentID)
	if paymentIntentID == "" {
		return nil, models.NewValidationError("payment_intent_id is required")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, storeError(err, "User", userID)
	}
	if user.IsVerified {
		s.decorate(user)
		return user, nil
	}

	intent, err := s.payments.GetIntent(ctx, paymentIntentID)
	if err != nil {
		return nil, paymentError(err)
	}
	if intent.UserID != 0 && intent.UserID != userID {
		return nil, models.NewForbiddenError("Payment belongs to another account")
	}
	if !intent.Succeeded {
		return nil, models.NewValidationError("Payment has not completed")
	}

	if err := s.users.UpdateFields(ctx, userID, map[string]any{
		"is_verified":  true,
		"account_type": models.AccountTypeVerified,
	}); err != nil {
		return nil, storeError(err, "User", userID)
	}
	cache.InvalidateUserProfile(ctx, userID)
	return s.reload(ctx, userID)
}

func (s *SettingsService) reload(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, storeError(err, "User", userID)
	}
	s.decorate(user)
	return user, nil
}

func (s *SettingsService) decorate(u *models.User) {
	if p := s.urls.Profile(u.ProfileImagePath); p != nil {
		u.ProfileImageURL = *p
	}
}

func paymentError(err error) error {
	if errors.Is(err, payments.ErrNotConfigured) {
		return models.NewValidationError("Verification payments are not available")
	}
	return models.NewInternalError(err)
}

// removeStored deletes a stored file, logging failures.
func removeStored(ctx context.Context, store storage.Store, path string) {
	if err := store.Delete(ctx, path); err != nil {
		middleware.Logger.WarnContext(ctx, "stored file cleanup failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}
}
