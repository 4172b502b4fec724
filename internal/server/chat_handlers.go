package server

import (
	"creatorhub/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CreateConversation handles POST /api/conversations
// @Summary Start or reopen a direct conversation
// @Description Returns the existing conversation for the pair when there is one.
// @Tags chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{participant_id=int} true "Other participant"
// @Success 200 {object} service.ConversationView
// @Success 201 {object} service.ConversationView
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /conversations [post]
func (s *Server) CreateConversation(c *fiber.Ctx) error {
	var req struct {
		ParticipantID uint `json:"participant_id" validate:"required"`
	}
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithAppError(c, err)
	}

	conv, created, err := s.chatService.StartConversation(c.UserContext(), currentUserID(c), req.ParticipantID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(conv)
}

// GetConversations handles GET /api/conversations
// @Summary List the current user's conversations, most recent activity first
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Success 200 {array} service.ConversationView
// @Router /conversations [get]
func (s *Server) GetConversations(c *fiber.Ctx) error {
	convs, err := s.chatService.ListConversations(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(convs)
}

// GetMessages handles GET /api/conversations/:id/messages
// @Summary Get a conversation's messages, oldest first
// @Description Marks messages from other participants as read.
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param id path int true "Conversation ID"
// @Success 200 {array} models.Message
// @Failure 401 {object} models.ErrorResponse
// @Router /conversations/{id}/messages [get]
func (s *Server) GetMessages(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	messages, err := s.chatService.GetMessages(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(messages)
}

// SendMessage handles POST /api/conversations/:id/messages
// @Summary Send a message
// @Tags chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Conversation ID"
// @Param request body object{text=string} true "Message"
// @Success 201 {object} models.Message
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /conversations/{id}/messages [post]
func (s *Server) SendMessage(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	msg, err := s.chatService.SendMessage(c.UserContext(), currentUserID(c), id, req.Text)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}
