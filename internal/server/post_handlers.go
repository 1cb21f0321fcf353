package server

import (
	"kforum/internal/featureflags"
	"kforum/internal/models"
	"kforum/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req struct {
		Title         string   `json:"title"`
		Content       string   `json:"content"`
		Category      string   `json:"category"`
		Tags          []string `json:"tags"`
		IsAnonymous   bool     `json:"is_anonymous"`
		AttachmentIDs []uint   `json:"attachment_ids"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.IsAnonymous && !s.featureFlags.Enabled(featureflags.FlagAnonymousPosts, userID) {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Anonymous posting is currently disabled"))
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID:        userID,
		Title:         req.Title,
		Content:       req.Content,
		Category:      req.Category,
		Tags:          req.Tags,
		IsAnonymous:   req.IsAnonymous,
		AttachmentIDs: req.AttachmentIDs,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post.ForViewer(userID))
}

// GetPosts handles GET /api/posts
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	viewerID := currentUserID(c)

	posts, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{
		Category:      c.Query("category"),
		Query:         c.Query("q"),
		Tag:           c.Query("tag"),
		Sort:          c.Query("sort"),
		Limit:         page.Limit,
		Offset:        page.Offset,
		CurrentUserID: viewerID,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	masked := make([]*models.Post, len(posts))
	for i, p := range posts {
		masked[i] = p.ForViewer(viewerID)
	}
	return c.JSON(masked)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	viewerID := currentUserID(c)

	post, err := s.postService.GetPost(c.UserContext(), id, viewerID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(post.ForViewer(viewerID))
}

// GetUserPosts handles GET /api/users/:id/posts
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 20)
	viewerID := currentUserID(c)

	posts, err := s.postService.GetUserPosts(c.UserContext(), targetID, page.Limit, page.Offset, viewerID)
	if err != nil {
		return respondServiceError(c, err)
	}

	masked := make([]*models.Post, 0, len(posts))
	for _, p := range posts {
		// On a profile page, anonymous posts are visible only to their author.
		if p.IsAnonymous && p.UserID != viewerID {
			continue
		}
		masked = append(masked, p.ForViewer(viewerID))
	}
	return c.JSON(masked)
}

// VotePost handles POST /api/posts/:id/vote
func (s *Server) VotePost(c *fiber.Ctx) error {
	userID := currentUserID(c)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Direction string `json:"direction"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.Vote(c.UserContext(), userID, postID, req.Direction)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(post.ForViewer(userID))
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	userID := currentUserID(c)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.UserContext(), service.DeletePostInput{
		UserID: userID,
		PostID: postID,
	}); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ReportPost handles POST /api/posts/:id/report
func (s *Server) ReportPost(c *fiber.Ctx) error {
	userID := currentUserID(c)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil || req.Reason == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("A report reason is required"))
	}

	if err := s.moderationService.ReportPost(c.UserContext(), postID, userID, req.Reason); err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Report received. Thanks for helping keep the forum healthy.",
	})
}
