package server

import (
	"creatorhub/internal/models"
	"creatorhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me
// @Summary Get current user profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userService.Me(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(user)
}

// GetUserProfile handles GET /api/users/:id
// @Summary Get a public profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} service.Profile
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	profile, err := s.userService.GetProfile(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(profile)
}

// GetUserStats handles GET /api/users/:id/stats
// @Summary Count a user's posts and gigs
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} service.UserStats
// @Router /users/{id}/stats [get]
func (s *Server) GetUserStats(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	stats, err := s.userService.Stats(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(stats)
}

// GetMentionSuggestions handles GET /api/users/mentions?q=
// @Summary Suggest users for an @mention
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param q query string true "Username prefix"
// @Param limit query int false "Max results"
// @Success 200 {array} models.UserSummary
// @Router /users/mentions [get]
func (s *Server) GetMentionSuggestions(c *fiber.Ctx) error {
	users, err := s.userService.MentionSuggestions(c.UserContext(), c.Query("q"), currentUserID(c), c.QueryInt("limit", 5))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(users)
}

// UpdateMyProfile handles PUT /api/settings/profile
// @Summary Update profile fields
// @Tags settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.UpdateProfileInput true "Profile fields"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /settings/profile [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req service.UpdateProfileInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.settingsService.UpdateProfile(c.UserContext(), currentUserID(c), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(user)
}

// UploadProfileImage handles POST /api/settings/profile-image
// @Summary Replace the profile image
// @Description Accepts a multipart "image" field; stored as WebP.
// @Tags settings
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Image"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /settings/profile-image [post]
func (s *Server) UploadProfileImage(c *fiber.Ctx) error {
	file, err := formFile(c, "image")
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if file == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("image is required"))
	}

	user, err := s.settingsService.UpdateProfileImage(c.UserContext(), currentUserID(c), *file)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(user)
}

// InitiateVerification handles POST /api/settings/verification
// @Summary Start a verification payment
// @Tags settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.VerificationIntent
// @Failure 409 {object} models.ErrorResponse
// @Router /settings/verification [post]
func (s *Server) InitiateVerification(c *fiber.Ctx) error {
	intent, err := s.settingsService.InitiateVerification(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(intent)
}

// ConfirmVerification handles POST /api/settings/verification/confirm
// @Summary Confirm a verification payment
// @Tags settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{payment_intent_id=string} true "Payment intent"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /settings/verification/confirm [post]
func (s *Server) ConfirmVerification(c *fiber.Ctx) error {
	var req struct {
		PaymentIntentID string `json:"payment_intent_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.settingsService.ConfirmVerification(c.UserContext(), currentUserID(c), req.PaymentIntentID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(user)
}
