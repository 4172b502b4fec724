package server

import (
	"creatorhub/internal/models"
	"creatorhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// LikeContent handles POST /api/content/:id/like
// @Summary Toggle a like on content
// @Tags interactions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Content ID"
// @Success 200 {object} service.LikeResult
// @Failure 404 {object} models.ErrorResponse
// @Router /content/{id}/like [post]
func (s *Server) LikeContent(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	return s.toggleLike(c, models.ContentTarget(id))
}

// LikeComment handles POST /api/comments/:id/like
// @Summary Toggle a like on a comment
// @Tags interactions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Success 200 {object} service.LikeResult
// @Router /comments/{id}/like [post]
func (s *Server) LikeComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	return s.toggleLike(c, models.CommentTarget(id))
}

func (s *Server) toggleLike(c *fiber.Ctx, target models.LikeTarget) error {
	result, err := s.interactionService.ToggleLike(c.UserContext(), currentUserID(c), target)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(result)
}

// GetComments handles GET /api/content/:id/comments
// @Summary List top-level comments, newest first
// @Tags interactions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Content ID"
// @Success 200 {array} service.CommentView
// @Router /content/{id}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	comments, err := s.interactionService.ListComments(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(comments)
}

// CreateComment handles POST /api/content/:id/comments
// @Summary Comment on content or reply to a comment
// @Tags interactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Content ID"
// @Param request body object{text=string,parent_id=int} true "Comment"
// @Success 201 {object} service.CommentView
// @Failure 400 {object} models.ErrorResponse
// @Router /content/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Text     string `json:"text"`
		ParentID *uint  `json:"parent_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.interactionService.AddComment(c.UserContext(), service.CommentInput{
		UserID:    currentUserID(c),
		ContentID: id,
		Text:      req.Text,
		ParentID:  req.ParentID,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// GetReplies handles GET /api/comments/:id/replies
// @Summary List replies to a comment, oldest first
// @Tags interactions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Success 200 {array} service.CommentView
// @Router /comments/{id}/replies [get]
func (s *Server) GetReplies(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	replies, err := s.interactionService.ListReplies(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(replies)
}

// DeleteComment handles DELETE /api/comments/:id
// @Summary Delete a comment and its replies
// @Tags interactions
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Router /comments/{id} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.interactionService.DeleteComment(c.UserContext(), currentUserID(c), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Subscribe handles POST /api/creators/:id/subscribe
// @Summary Subscribe to a creator
// @Tags subscriptions
// @Security BearerAuth
// @Param id path int true "Creator ID"
// @Success 201
// @Failure 409 {object} models.ErrorResponse
// @Router /creators/{id}/subscribe [post]
func (s *Server) Subscribe(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.subscriptionService.Subscribe(c.UserContext(), currentUserID(c), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"is_subscribed": true})
}

// Unsubscribe handles DELETE /api/creators/:id/subscribe
// @Summary Unsubscribe from a creator
// @Tags subscriptions
// @Security BearerAuth
// @Param id path int true "Creator ID"
// @Success 200
// @Failure 404 {object} models.ErrorResponse
// @Router /creators/{id}/subscribe [delete]
func (s *Server) Unsubscribe(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.subscriptionService.Unsubscribe(c.UserContext(), currentUserID(c), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"is_subscribed": false})
}

// GetSubscriptions handles GET /api/subscriptions
// @Summary List creators the current user subscribes to
// @Tags subscriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} service.SubscriptionView
// @Router /subscriptions [get]
func (s *Server) GetSubscriptions(c *fiber.Ctx) error {
	subs, err := s.subscriptionService.ListCreators(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(subs)
}
