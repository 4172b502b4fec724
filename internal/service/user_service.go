package service

import (
	"context"
	"strings"
	"time"

	"creatorhub/internal/cache"
	"creatorhub/internal/feed"
	"creatorhub/internal/models"
	"creatorhub/internal/repository"
	"creatorhub/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// RegisterInput carries signup fields.
type RegisterInput struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
}

// Profile is the public view of a user.
type Profile struct {
	ID              uint      `json:"id"`
	Username        string    `json:"username"`
	Bio             string    `json:"bio"`
	Location        string    `json:"location"`
	Website         string    `json:"website"`
	ProfileImageURL *string   `json:"profile_image_url"`
	IsVerified      bool      `json:"is_verified"`
	AccountType     string    `json:"account_type"`
	CreatedAt       time.Time `json:"created_at"`
}

// UserStats counts what a user has published.
type UserStats struct {
	PostsCount int64 `json:"posts_count"`
	GigsCount  int64 `json:"gigs_count"`
}

// UserService handles accounts and profiles.
type UserService struct {
	userRepo    repository.UserRepository
	contentRepo repository.ContentRepository
	gigRepo     repository.GigRepository
	urls        feed.URLBuilder
	hashCost    int
}

// NewUserService returns a new UserService.
func NewUserService(
	userRepo repository.UserRepository,
	contentRepo repository.ContentRepository,
	gigRepo repository.GigRepository,
	urls feed.URLBuilder,
) *UserService {
	return &UserService{userRepo: userRepo, contentRepo: contentRepo, gigRepo: gigRepo, urls: urls, hashCost: bcrypt.DefaultCost}
}

// Register creates an account after validating the handle, email and password.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if _, err := s.userRepo.GetByUsername(ctx, in.Username); err == nil {
		return nil, models.NewConflictError("Username already taken")
	} else if !repository.IsNotFound(err) {
		return nil, models.NewInternalError(err)
	}
	if _, err := s.userRepo.GetByEmail(ctx, in.Email); err == nil {
		return nil, models.NewConflictError("Email already registered")
	} else if !repository.IsNotFound(err) {
		return nil, models.NewInternalError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user := &models.User{
		Username:    in.Username,
		Email:       in.Email,
		Password:    string(hash),
		AccountType: models.AccountTypeFree,
		IsActive:    true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// lost a race with a concurrent signup
		if repository.IsDuplicate(err) {
			return nil, models.NewConflictError("Username or email already exists")
		}
		return nil, models.NewInternalError(err)
	}
	s.decorate(user)
	return user, nil
}

// Authenticate checks credentials. Unknown emails and wrong passwords are indistinguishable.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewUnauthorizedError("Invalid credentials")
		}
		return nil, models.NewInternalError(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if !user.IsActive {
		return nil, models.NewForbiddenError("Account is disabled")
	}
	s.decorate(user)
	return user, nil
}

// Me returns the caller's own account.
func (s *UserService) Me(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, storeError(err, "User", userID)
	}
	s.decorate(user)
	return user, nil
}

// GetProfile returns a user's public profile, served from cache when warm.
func (s *UserService) GetProfile(ctx context.Context, id uint) (*Profile, error) {
	p, err := cache.Aside(ctx, cache.UserProfileKey(id), cache.UserProfileTTL, func(ctx context.Context) (*Profile, error) {
		u, err := s.userRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return &Profile{
			ID:              u.ID,
			Username:        u.Username,
			Bio:             u.Bio,
			Location:        u.Location,
			Website:         u.Website,
			ProfileImageURL: s.urls.Profile(u.ProfileImagePath),
			IsVerified:      u.IsVerified,
			AccountType:     u.AccountType,
			CreatedAt:       u.CreatedAt,
		}, nil
	})
	if err != nil {
		return nil, storeError(err, "User", id)
	}
	return p, nil
}

// Stats counts the user's content and live gigs.
func (s *UserService) Stats(ctx context.Context, id uint) (*UserStats, error) {
	if _, err := s.userRepo.GetByID(ctx, id); err != nil {
		return nil, storeError(err, "User", id)
	}
	posts, err := s.contentRepo.CountByCreator(ctx, id)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	gigs, err := s.gigRepo.CountByCreator(ctx, id)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &UserStats{PostsCount: posts, GigsCount: gigs}, nil
}

// MentionSuggestions lists active users whose handle starts with prefix.
func (s *UserService) MentionSuggestions(ctx context.Context, prefix string, excludeID uint, limit int) ([]models.UserSummary, error) {
	prefix = strings.TrimPrefix(strings.TrimSpace(prefix), "@")
	if limit <= 0 || limit > 20 {
		limit = 5
	}
	out := []models.UserSummary{}
	if prefix == "" {
		return out, nil
	}
	users, err := s.userRepo.MentionSuggestions(ctx, prefix, excludeID, limit)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for i := range users {
		out = append(out, *userSummary(&users[i], s.urls))
	}
	return out, nil
}

func (s *UserService) decorate(u *models.User) {
	if p := s.urls.Profile(u.ProfileImagePath); p != nil {
		u.ProfileImageURL = *p
	}
}
