package server

import (
	"kforum/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetAdminStats handles GET /api/admin/stats
func (s *Server) GetAdminStats(c *fiber.Ctx) error {
	stats, err := s.moderationService.Stats(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(stats)
}

// GetReportedPosts handles GET /api/admin/reported-posts
func (s *Server) GetReportedPosts(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	posts, err := s.moderationService.ReportedPosts(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	// Reviewers see the real author even on anonymous posts.
	return c.JSON(posts)
}

// ModeratePost handles POST /api/admin/posts/:id/moderate
func (s *Server) ModeratePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Action string `json:"action"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.moderationService.ModeratePost(c.UserContext(), postID, req.Action); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post " + req.Action + "d"})
}

// SetUserRole handles PUT /api/admin/users/:id/role. Only full admins can
// change roles; moderators may review content but not manage staff.
func (s *Server) SetUserRole(c *fiber.Ctx) error {
	actorID := currentUserID(c)
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	actor, err := s.userService.GetUserByID(c.UserContext(), actorID)
	if err != nil {
		return respondServiceError(c, err)
	}
	if actor.Role != models.RoleAdmin {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Only admins can change roles"))
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.SetRole(c.UserContext(), targetID, req.Role)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}
