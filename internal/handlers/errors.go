package handlers

import (
	"errors"

	"deckforge/internal/repositories"
	"deckforge/internal/services"

	"github.com/gofiber/fiber/v2"
)

// statusFromError maps service and repository errors to HTTP status codes.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrUsernameTaken), errors.Is(err, services.ErrEmailTaken):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInactiveUser),
		errors.Is(err, services.ErrInvalidToken):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrSyncInProgress):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrSelfDeletion),
		errors.Is(err, errBadDeckID),
		errors.Is(err, errBadUserID):
		return fiber.StatusBadRequest
	case errors.Is(err, errNotDeckOwner):
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes a JSON error response with the status derived from err.
func respondError(c *fiber.Ctx, message string, err error) error {
	return c.Status(statusFromError(err)).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}
