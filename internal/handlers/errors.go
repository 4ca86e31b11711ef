package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/ats-resume-analyzer/internal/repositories"
	"alfredoptarigan/ats-resume-analyzer/internal/services"
)

// respondError writes the JSON error body shared by every endpoint.
func respondError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
		"code":  status,
	})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrMissingInput),
		errors.Is(err, services.ErrInvalidRequest),
		errors.Is(err, services.ErrUnsupportedFileType):
		return fiber.StatusBadRequest
	case errors.Is(err, repositories.ErrDocumentNotFound),
		errors.Is(err, repositories.ErrAnalysisNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrAnalysisNotReady):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrExtractionFailed):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// respondServiceError maps a service error to its status. Internal errors get a generic message.
func respondServiceError(c *fiber.Ctx, err error, internalMessage string) error {
	status := statusForError(err)
	if status == fiber.StatusInternalServerError {
		return respondError(c, status, internalMessage)
	}
	return respondError(c, status, err.Error())
}
