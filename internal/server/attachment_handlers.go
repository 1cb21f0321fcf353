package server

import (
	"io"
	"strings"

	"kforum/internal/featureflags"
	"kforum/internal/models"
	"kforum/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UploadAttachment handles POST /api/attachments
func (s *Server) UploadAttachment(c *fiber.Ctx) error {
	userID := currentUserID(c)

	if !s.featureFlags.Enabled(featureflags.FlagAttachments, userID) {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Attachments are currently disabled"))
	}

	file, err := c.FormFile("image")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No file uploaded"))
	}

	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unable to read uploaded file"))
	}

	attachment, err := s.attachService.Upload(c.UserContext(), service.UploadAttachmentInput{
		UserID:      userID,
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(attachment)
}

// ServeAttachment handles GET /media/a/:file where :file is "<hash>.webp".
func (s *Server) ServeAttachment(c *fiber.Ctx) error {
	file := strings.TrimSpace(c.Params("file"))
	hash := strings.TrimSuffix(file, ".webp")
	if hash == file {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid attachment path"))
	}

	path, err := s.attachService.ResolveForServing(hash)
	if err != nil {
		return respondServiceError(c, err)
	}

	c.Set("Content-Type", "image/webp")
	c.Set("Cache-Control", "public, max-age=31536000, immutable")
	return c.SendFile(path)
}
