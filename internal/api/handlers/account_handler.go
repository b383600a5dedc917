package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/calebfds/postline/internal/repository"
)

type AccountHandler struct {
	sa repository.SocialAccountRepository
}

func NewAccountHandler(sa repository.SocialAccountRepository) *AccountHandler {
	return &AccountHandler{sa: sa}
}

func (h *AccountHandler) ListAccounts(c *fiber.Ctx) error {
	userID := GetUserID(c)

	accounts, err := h.sa.ListByUserID(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to list social accounts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(accounts)
}

func (h *AccountHandler) DeactivateAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)

	err := h.sa.Deactivate(c.Context(), c.Params("id"), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Social account not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to deactivate social account",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
