package server

import (
	"net/url"

	"creatorhub/internal/models"
	"creatorhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetNotifications handles GET /api/notifications
// @Summary List notifications, newest first
// @Description With unread=true returns every unread notification without paging.
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param unread query bool false "Only unread"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} service.NotificationPage
// @Router /notifications [get]
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	userID := currentUserID(c)

	if c.QueryBool("unread") {
		items, err := s.notificationService.ListUnread(c.UserContext(), userID)
		if err != nil {
			return models.RespondWithAppError(c, err)
		}
		return c.JSON(items)
	}

	page := parsePagination(c, 20)
	result, err := s.notificationService.List(c.UserContext(), userID, page.Page, page.Limit)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(result)
}

// GetUnreadCount handles GET /api/notifications/count
// @Summary Count unread notifications
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{count=int}
// @Router /notifications/count [get]
func (s *Server) GetUnreadCount(c *fiber.Ctx) error {
	n, err := s.notificationService.UnreadCount(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"count": n})
}

// MarkNotificationRead handles POST /api/notifications/:id/read
// @Summary Mark one notification read
// @Tags notifications
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 204
// @Router /notifications/{id}/read [post]
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.notificationService.MarkAsRead(c.UserContext(), currentUserID(c), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MarkAllNotificationsRead handles POST /api/notifications/read-all
// @Summary Mark every notification read
// @Tags notifications
// @Security BearerAuth
// @Success 204
// @Router /notifications/read-all [post]
func (s *Server) MarkAllNotificationsRead(c *fiber.Ctx) error {
	if err := s.notificationService.MarkAllAsRead(c.UserContext(), currentUserID(c)); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteNotification handles DELETE /api/notifications/:id
// @Summary Delete a notification
// @Tags notifications
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /notifications/{id} [delete]
func (s *Server) DeleteNotification(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.notificationService.Delete(c.UserContext(), currentUserID(c), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetNotificationSettings handles GET /api/notifications/settings
// @Summary Get notification preferences
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.NotificationPreference
// @Router /notifications/settings [get]
func (s *Server) GetNotificationSettings(c *fiber.Ctx) error {
	pref, err := s.notificationService.GetSettings(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(pref)
}

// UpdateNotificationSettings handles PUT /api/notifications/settings
// @Summary Update notification preferences
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.NotificationSettingsInput true "Preferences"
// @Success 200 {object} models.NotificationPreference
// @Router /notifications/settings [put]
func (s *Server) UpdateNotificationSettings(c *fiber.Ctx) error {
	var req service.NotificationSettingsInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	pref, err := s.notificationService.UpdateSettings(c.UserContext(), currentUserID(c), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(pref)
}

// RegisterDevice handles POST /api/notifications/devices
// @Summary Register a push device token
// @Tags notifications
// @Accept json
// @Security BearerAuth
// @Param request body object{token=string,platform=string} true "Device"
// @Success 204
// @Failure 400 {object} models.ErrorResponse
// @Router /notifications/devices [post]
func (s *Server) RegisterDevice(c *fiber.Ctx) error {
	var req struct {
		Token    string `json:"token"`
		Platform string `json:"platform"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.notificationService.RegisterDevice(c.UserContext(), currentUserID(c), req.Token, req.Platform); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UnregisterDevice handles DELETE /api/notifications/devices/:token
// @Summary Remove a push device token
// @Tags notifications
// @Security BearerAuth
// @Param token path string true "Device token"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /notifications/devices/{token} [delete]
func (s *Server) UnregisterDevice(c *fiber.Ctx) error {
	token, err := url.PathUnescape(c.Params("token"))
	if err != nil || token == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid device token"))
	}

	if err := s.notificationService.UnregisterDevice(c.UserContext(), currentUserID(c), token); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
