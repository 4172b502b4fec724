package server

import (
	"creatorhub/internal/models"
	"creatorhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateGig handles POST /api/gigs
// @Summary Create a gig listing
// @Tags gigs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.GigInput true "Gig"
// @Success 201 {object} service.GigView
// @Failure 400 {object} models.ErrorResponse
// @Router /gigs [post]
func (s *Server) CreateGig(c *fiber.Ctx) error {
	var req service.GigInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	gig, err := s.gigService.Create(c.UserContext(), currentUserID(c), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(gig)
}

// GetGigs handles GET /api/gigs
// @Summary Browse gigs
// @Tags gigs
// @Produce json
// @Security BearerAuth
// @Param min_price query number false "Minimum price"
// @Param max_price query number false "Maximum price"
// @Param skill query string false "Required skill"
// @Param status query string false "Status (default active)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} service.GigPage
// @Failure 400 {object} models.ErrorResponse
// @Router /gigs [get]
func (s *Server) GetGigs(c *fiber.Ctx) error {
	page := parsePagination(c, 10)

	result, err := s.gigService.List(c.UserContext(), service.GigFilterInput{
		MinPrice: c.QueryFloat("min_price", 0),
		MaxPrice: c.QueryFloat("max_price", 0),
		Skill:    c.Query("skill"),
		Status:   models.GigStatus(c.Query("status")),
		Page:     page.Page,
		Limit:    page.Limit,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(result)
}

// GetMyGigs handles GET /api/gigs/mine
// @Summary List the current user's gigs
// @Tags gigs
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Success 200 {object} service.GigPage
// @Router /gigs/mine [get]
func (s *Server) GetMyGigs(c *fiber.Ctx) error {
	page := parsePagination(c, 10)

	result, err := s.gigService.ListByUser(c.UserContext(), currentUserID(c), models.GigStatus(c.Query("status")), page.Page, page.Limit)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(result)
}

// GetGig handles GET /api/gigs/:id
// @Summary Get a gig
// @Description Counts a view unless the viewer is the creator.
// @Tags gigs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Gig ID"
// @Success 200 {object} service.GigView
// @Failure 404 {object} models.ErrorResponse
// @Router /gigs/{id} [get]
func (s *Server) GetGig(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	gig, err := s.gigService.Get(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(gig)
}

// UpdateGig handles PUT /api/gigs/:id
// @Summary Update a gig
// @Tags gigs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Gig ID"
// @Param request body service.GigUpdateInput true "Fields to change"
// @Success 200 {object} service.GigView
// @Failure 401 {object} models.ErrorResponse
// @Router /gigs/{id} [put]
func (s *Server) UpdateGig(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req service.GigUpdateInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	gig, err := s.gigService.Update(c.UserContext(), currentUserID(c), id, req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(gig)
}

// DeleteGig handles DELETE /api/gigs/:id
// @Summary Delete a gig
// @Tags gigs
// @Security BearerAuth
// @Param id path int true "Gig ID"
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Router /gigs/{id} [delete]
func (s *Server) DeleteGig(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.gigService.Delete(c.UserContext(), currentUserID(c), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
