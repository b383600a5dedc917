package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/calebfds/postline/internal/service"
)

func GetUserID(c *fiber.Ctx) string {
	userID, _ := c.Locals("user_id").(string)
	return userID
}

// statusForError maps scheduler sentinels onto HTTP statuses. Unrecognized
// errors are infrastructure failures and come back as 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrPostNotFound), errors.Is(err, service.ErrAccountNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrNotOwner):
		return fiber.StatusForbidden
	case errors.Is(err, service.ErrInvalidState):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrAccountInvalid),
		errors.Is(err, service.ErrPlatformMismatch),
		errors.Is(err, service.ErrInvalidInput):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

func errorJSON(c *fiber.Ctx, err error) error {
	return c.Status(statusForError(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}
