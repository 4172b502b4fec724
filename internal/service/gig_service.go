package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"creatorhub/internal/feed"
	"creatorhub/internal/models"
	"creatorhub/internal/repository"
	"creatorhub/internal/validation"
)

// GigInput carries the fields of a new gig.
type GigInput struct {
	Title       string           `json:"title" validate:"notblank,max=100"`
	Description string           `json:"description" validate:"notblank,max=1000"`
	Price       float64          `json:"price" validate:"gte=1"`
	Skills      []string         `json:"skills" validate:"max=20,dive,notblank,max=50"`
	Status      models.GigStatus `json:"status" validate:"omitempty,oneof=active paused completed"`
}

// GigUpdateInput holds a partial gig update.
type GigUpdateInput struct {
	Title       *string           `json:"title" validate:"omitempty,notblank,max=100"`
	Description *string           `json:"description" validate:"omitempty,notblank,max=1000"`
	Price       *float64          `json:"price" validate:"omitempty,gte=1"`
	Skills      []string          `json:"skills" validate:"omitempty,max=20,dive,notblank,max=50"`
	Status      *models.GigStatus `json:"status" validate:"omitempty,oneof=active paused completed deleted"`
}

// GigFilterInput narrows a gig listing.
type GigFilterInput struct {
	MinPrice float64
	MaxPrice float64
	Skill    string
	Status   models.GigStatus
	Page     int
	Limit    int
}

// GigView is a gig with its creator summary.
type GigView struct {
	ID           uint                `json:"id"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	Price        float64             `json:"price"`
	Skills       []string            `json:"skills"`
	Status       models.GigStatus    `json:"status"`
	ViewCount    int                 `json:"view_count"`
	ContactCount int                 `json:"contact_count"`
	Creator      *models.UserSummary `json:"creator"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// GigPage is one page of gigs.
type GigPage struct {
	Gigs       []GigView  `json:"gigs"`
	Pagination Pagination `json:"pagination"`
}

// GigService manages service listings.
type GigService struct {
	repo repository.GigRepository
	urls feed.URLBuilder
}

// NewGigService returns a new GigService.
func NewGigService(repo repository.GigRepository, urls feed.URLBuilder) *GigService {
	return &GigService{repo: repo, urls: urls}
}

func (s *GigService) Create(ctx context.Context, creatorID uint, in GigInput) (*GigView, error) {
	if in.Status == "" {
		in.Status = models.GigActive
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	gig := &models.Gig{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Skills:      normalizeSkills(in.Skills),
		Status:      in.Status,
		CreatorID:   creatorID,
	}
	if err := s.repo.Create(ctx, gig); err != nil {
		return nil, models.NewInternalError(err)
	}
	return s.Get(ctx, gig.ID, 0)
}

// List returns gigs matching the filter. Deleted gigs only appear when asked for by status.
func (s *GigService) List(ctx context.Context, f GigFilterInput) (*GigPage, error) {
	return s.list(ctx, repository.GigFilter{
		MinPrice: f.MinPrice,
		MaxPrice: f.MaxPrice,
		Skill:    strings.TrimSpace(f.Skill),
		Status:   f.Status,
	}, f.Page, f.Limit)
}

// ListByUser returns the user's own gigs.
func (s *GigService) ListByUser(ctx context.Context, userID uint, status models.GigStatus, page, limit int) (*GigPage, error) {
	return s.list(ctx, repository.GigFilter{CreatorID: userID, Status: status}, page, limit)
}

func (s *GigService) list(ctx context.Context, filter repository.GigFilter, page, limit int) (*GigPage, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, models.NewValidationError("status must be one of: active paused completed deleted")
	}
	if filter.MinPrice < 0 || filter.MaxPrice < 0 {
		return nil, models.NewValidationError("price filters must not be negative")
	}
	page, limit = feed.NormalizePage(page, limit)
	gigs, total, err := s.repo.List(ctx, filter, (page-1)*limit, limit)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	out := &GigPage{Gigs: make([]GigView, 0, len(gigs)), Pagination: newPagination(total, page, limit)}
	for i := range gigs {
		out.Gigs = append(out.Gigs, s.view(&gigs[i]))
	}
	return out, nil
}

// Get returns a gig, counting a view unless viewerID is zero or the creator.
func (s *GigService) Get(ctx context.Context, id, viewerID uint) (*GigView, error) {
	gig, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Gig", id)
	}
	if viewerID != 0 && viewerID != gig.CreatorID {
		if err := s.repo.IncrementViews(ctx, id); err != nil {
			return nil, models.NewInternalError(err)
		}
		gig.ViewCount++
	}
	v := s.view(gig)
	return &v, nil
}

func (s *GigService) Update(ctx context.Context, userID, id uint, in GigUpdateInput) (*GigView, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := s.owned(ctx, userID, id); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if in.Title != nil {
		fields["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		fields["description"] = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		fields["price"] = *in.Price
	}
	if in.Skills != nil {
		// map updates bypass the json serializer
		encoded, err := json.Marshal(normalizeSkills(in.Skills))
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		fields["skills"] = string(encoded)
	}
	if in.Status != nil {
		fields["status"] = *in.Status
	}
	if len(fields) > 0 {
		if err := s.repo.Update(ctx, id, fields); err != nil {
			return nil, storeError(err, "Gig", id)
		}
	}
	return s.Get(ctx, id, 0)
}

func (s *GigService) Delete(ctx context.Context, userID, id uint) error {
	if err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "Gig", id)
	}
	return nil
}

func (s *GigService) owned(ctx context.Context, userID, id uint) error {
	gig, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return storeError(err, "Gig", id)
	}
	if gig.CreatorID != userID {
		return models.NewUnauthorizedError("You can only modify your own gigs")
	}
	return nil
}

func (s *GigService) view(g *models.Gig) GigView {
	skills := g.Skills
	if skills == nil {
		skills = []string{}
	}
	return GigView{
		ID:           g.ID,
		Title:        g.Title,
		Description:  g.Description,
		Price:        g.Price,
		Skills:       skills,
		Status:       g.Status,
		ViewCount:    g.ViewCount,
		ContactCount: g.ContactCount,
		Creator:      userSummary(g.Creator, s.urls),
		CreatedAt:    g.CreatedAt,
		UpdatedAt:    g.UpdatedAt,
	}
}

func normalizeSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]bool, len(skills))
	for _, sk := range skills {
		sk = strings.TrimSpace(sk)
		key := strings.ToLower(sk)
		if sk == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, sk)
	}
	return out
}
