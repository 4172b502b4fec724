package server

import (
	"creatorhub/internal/feed"
	"creatorhub/internal/media"
	"creatorhub/internal/models"
	"creatorhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateContent handles POST /api/content
// @Summary Upload new content
// @Description Multipart form with title, description, type (video|image), tags (comma separated),
// @Description a "media" file and an optional "thumbnail" image. New content starts as a draft.
// @Tags content
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title"
// @Param description formData string false "Description"
// @Param type formData string true "video or image"
// @Param tags formData string false "Comma separated tags"
// @Param media formData file true "Media file"
// @Param thumbnail formData file false "Thumbnail image"
// @Success 201 {object} service.ContentItem
// @Failure 400 {object} models.ErrorResponse
// @Router /content [post]
func (s *Server) CreateContent(c *fiber.Ctx) error {
	upload, err := formFile(c, "media")
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	thumbnail, err := formFile(c, "thumbnail")
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	in := service.CreateContentInput{
		CreatorID:   currentUserID(c),
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Type:        models.ContentType(c.FormValue("type")),
		Tags:        splitList(c.FormValue("tags")),
		Thumbnail:   thumbnail,
	}
	if upload != nil {
		in.Media = *upload
	}

	item, err := s.contentService.Create(c.UserContext(), in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// GetCommunityContent handles GET /api/content/community
// @Summary Browse a community feed
// @Tags content
// @Produce json
// @Security BearerAuth
// @Param feed query string false "for-you, subscribed, trending or tag"
// @Param tag query string false "Tag for the tag feed"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} service.FeedPage
// @Failure 400 {object} models.ErrorResponse
// @Router /content/community [get]
func (s *Server) GetCommunityContent(c *fiber.Ctx) error {
	variant, err := feed.ParseVariant(c.Query("feed"))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}
	page := parsePagination(c, feed.DefaultLimit)

	result, err := s.feedService.CommunityContent(c.UserContext(), feed.Filter{
		Variant: variant,
		Tag:     c.Query("tag"),
		Page:    page.Page,
		Limit:   page.Limit,
	}, currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(result)
}

// GetFeedVideos handles GET /api/content/videos
// @Summary Vertical video feed
// @Description Published videos, newest first. initial_id pins a video to the top of page 1.
// @Tags content
// @Produce json
// @Security BearerAuth
// @Param initial_id query int false "Video to show first"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} service.FeedPage
// @Router /content/videos [get]
func (s *Server) GetFeedVideos(c *fiber.Ctx) error {
	initialID, err := parseQueryID(c, "initial_id")
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	page := parsePagination(c, feed.DefaultLimit)

	result, err := s.feedService.FeedVideos(c.UserContext(), initialID, currentUserID(c), page.Page, page.Limit)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(result)
}

// GetDrafts handles GET /api/content/drafts
// @Summary List the current user's drafts
// @Tags content
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.Drafts
// @Router /content/drafts [get]
func (s *Server) GetDrafts(c *fiber.Ctx) error {
	drafts, err := s.feedService.Drafts(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(drafts)
}

// GetCreatorStats handles GET /api/content/stats
// @Summary Aggregate stats over the current user's content
// @Tags content
// @Produce json
// @Security BearerAuth
// @Success 200 {object} repository.CreatorStats
// @Router /content/stats [get]
func (s *Server) GetCreatorStats(c *fiber.Ctx) error {
	stats, err := s.feedService.CreatorStats(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(stats)
}

// GetContent handles GET /api/content/:id
// @Summary Get one content item
// @Description Counts a view. Drafts are only visible to their creator.
// @Tags content
// @Produce json
// @Security BearerAuth
// @Param id path int true "Content ID"
// @Success 200 {object} service.ContentItem
// @Failure 404 {object} models.ErrorResponse
// @Router /content/{id} [get]
func (s *Server) GetContent(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	item, err := s.feedService.ContentDetail(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(item)
}

// PublishContent handles POST /api/content/:id/publish
// @Summary Publish a draft
// @Tags content
// @Produce json
// @Security BearerAuth
// @Param id path int true "Content ID"
// @Success 200 {object} service.ContentItem
// @Failure 400 {object} models.ErrorResponse
// @Router /content/{id}/publish [post]
func (s *Server) PublishContent(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	item, err := s.contentService.Publish(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(item)
}

// UploadThumbnail handles POST /api/content/:id/thumbnail
// @Summary Set or replace a thumbnail
// @Tags content
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param id path int true "Content ID"
// @Param thumbnail formData file true "Thumbnail image"
// @Success 200 {object} service.ContentItem
// @Router /content/{id}/thumbnail [post]
func (s *Server) UploadThumbnail(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	file, err := formFile(c, "thumbnail")
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if file == nil {
		file = &media.File{}
	}

	item, err := s.contentService.SetThumbnail(c.UserContext(), currentUserID(c), id, *file)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(item)
}

// DeleteContent handles DELETE /api/content/:id
// @Summary Delete content and its files
// @Tags content
// @Security BearerAuth
// @Param id path int true "Content ID"
// @Success 204
// @Router /content/{id} [delete]
func (s *Server) DeleteContent(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.contentService.Delete(c.UserContext(), currentUserID(c), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
