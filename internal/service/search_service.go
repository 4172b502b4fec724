package service

import (
	"context"
	"log/slog"
	"strings"

	"creatorhub/internal/feed"
	"creatorhub/internal/middleware"
	"creatorhub/internal/models"
	"creatorhub/internal/repository"
)

// Search scopes.
const (
	SearchAll   = "all"
	SearchUsers = "users"
	SearchPosts = "posts"
	SearchGigs  = "gigs"
)

const (
	recentSearchLimit   = 10
	trendingSearchLimit = 10
	suggestionLimit     = 5
	maxQueryLength      = 200
)

// SearchResults groups matches by kind. Kinds outside the requested scope stay empty.
type SearchResults struct {
	Users []models.UserSummary `json:"users"`
	Posts []ContentItem        `json:"posts"`
	Gigs  []GigView            `json:"gigs"`
}

// SearchService runs cross-entity search and keeps query history.
type SearchService struct {
	history repository.SearchRepository
	users   repository.UserRepository
	content repository.ContentRepository
	gigs    repository.GigRepository
	feed    *FeedService
	gigView *GigService
}

// NewSearchService returns a new SearchService.
func NewSearchService(
	history repository.SearchRepository,
	users repository.UserRepository,
	content repository.ContentRepository,
	gigs repository.GigRepository,
	feeds *FeedService,
) *SearchService {
	return &SearchService{
		history: history,
		users:   users,
		content: content,
		gigs:    gigs,
		feed:    feeds,
		gigView: NewGigService(gigs, feeds.urls),
	}
}

// Search records the query and matches it case-insensitively within scope.
func (s *SearchService) Search(ctx context.Context, userID uint, query, scope string, page, limit int) (*SearchResults, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.NewValidationError("query is required")
	}
	if len(query) > maxQueryLength {
		return nil, models.NewValidationError("query is too long")
	}
	scope = strings.ToLower(strings.TrimSpace(scope))
	if scope == "" {
		scope = SearchAll
	}
	switch scope {
	case SearchAll, SearchUsers, SearchPosts, SearchGigs:
	default:
		return nil, models.NewValidationError("type must be one of: all users posts gigs")
	}
	page, limit = feed.NormalizePage(page, limit)
	offset := (page - 1) * limit

	if err := s.history.Record(ctx, userID, query); err != nil {
		middleware.Logger.WarnContext(ctx, "search history write failed", slog.String("error", err.Error()))
	}

	out := &SearchResults{Users: []models.UserSummary{}, Posts: []ContentItem{}, Gigs: []GigView{}}
	if scope == SearchAll || scope == SearchUsers {
		users, err := s.users.Search(ctx, query, offset, limit)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		for i := range users {
			out.Users = append(out.Users, *userSummary(&users[i], s.feed.urls))
		}
	}
	if scope == SearchAll || scope == SearchPosts {
		posts, err := s.content.Search(ctx, query, offset, limit)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		for i := range posts {
			out.Posts = append(out.Posts, s.feed.item(&posts[i]))
		}
	}
	if scope == SearchAll || scope == SearchGigs {
		gigs, err := s.gigs.Search(ctx, query, offset, limit)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		for i := range gigs {
			out.Gigs = append(out.Gigs, s.gigView.view(&gigs[i]))
		}
	}
	return out, nil
}

// Recent returns the user's latest queries, newest first.
func (s *SearchService) Recent(ctx context.Context, userID uint) ([]models.SearchHistory, error) {
	entries, err := s.history.Recent(ctx, userID, recentSearchLimit)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if entries == nil {
		entries = []models.SearchHistory{}
	}
	return entries, nil
}

// Trending returns the most issued queries.
func (s *SearchService) Trending(ctx context.Context) ([]repository.QueryCount, error) {
	rows, err := s.history.Trending(ctx, trendingSearchLimit)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if rows == nil {
		rows = []repository.QueryCount{}
	}
	return rows, nil
}

// Suggestions returns past queries starting with prefix.
func (s *SearchService) Suggestions(ctx context.Context, prefix string) ([]string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return []string{}, nil
	}
	out, err := s.history.Suggestions(ctx, prefix, suggestionLimit)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}
