package server

import (
	"creatorhub/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Search handles GET /api/search?q=&type=
// @Summary Search users, posts and gigs
// @Description The query is recorded in the caller's search history.
// @Tags search
// @Produce json
// @Security BearerAuth
// @Param q query string true "Query"
// @Param type query string false "all, users, posts or gigs"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} service.SearchResults
// @Failure 400 {object} models.ErrorResponse
// @Router /search [get]
func (s *Server) Search(c *fiber.Ctx) error {
	page := parsePagination(c, 10)

	results, err := s.searchService.Search(c.UserContext(), currentUserID(c), c.Query("q"), c.Query("type"), page.Page, page.Limit)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(results)
}

// GetRecentSearches handles GET /api/search/recent
// @Summary The caller's most recent searches
// @Tags search
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.SearchHistory
// @Router /search/recent [get]
func (s *Server) GetRecentSearches(c *fiber.Ctx) error {
	recent, err := s.searchService.Recent(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(recent)
}

// GetTrendingSearches handles GET /api/search/trending
// @Summary Most frequent recent queries across users
// @Tags search
// @Produce json
// @Security BearerAuth
// @Success 200 {array} repository.QueryCount
// @Router /search/trending [get]
func (s *Server) GetTrendingSearches(c *fiber.Ctx) error {
	trending, err := s.searchService.Trending(c.UserContext())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(trending)
}

// GetSearchSuggestions handles GET /api/search/suggestions?q=
// @Summary Past queries starting with a prefix
// @Tags search
// @Produce json
// @Security BearerAuth
// @Param q query string true "Prefix"
// @Success 200 {array} string
// @Router /search/suggestions [get]
func (s *Server) GetSearchSuggestions(c *fiber.Ctx) error {
	suggestions, err := s.searchService.Suggestions(c.UserContext(), c.Query("q"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(suggestions)
}
