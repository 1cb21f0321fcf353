package server

import "github.com/gofiber/fiber/v2"

// GetFeatureFlags returns evaluated feature flag state for the current user.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID := currentUserID(c)

	if s.featureFlags == nil {
		return c.JSON(fiber.Map{"flags": map[string]bool{}})
	}
	return c.JSON(fiber.Map{"flags": s.featureFlags.Snapshot(userID)})
}
