package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/calebfds/postline/internal/models"
	"github.com/calebfds/postline/internal/repository"
	"github.com/calebfds/postline/internal/service"
	"github.com/calebfds/postline/internal/transfer"
)

type PostHandler struct {
	s  service.SchedulerService
	pa repository.PublishAttemptRepository
}

func NewPostHandler(s service.SchedulerService, pa repository.PublishAttemptRepository) *PostHandler {
	return &PostHandler{s: s, pa: pa}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var pc transfer.PostCreation
	if err := c.BodyParser(&pc); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	post, err := h.s.Schedule(c.Context(), userID, &pc)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	userID := GetUserID(c)
	status := models.PostStatus(c.Query("status"))

	posts, err := h.s.List(c.Context(), userID, status)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	post, err := h.s.Get(c.Context(), c.Params("id"), userID)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) CancelPost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	post, err := h.s.Cancel(c.Context(), c.Params("id"), userID)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) ReschedulePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var pr transfer.PostReschedule
	if err := c.BodyParser(&pr); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	post, err := h.s.Reschedule(c.Context(), c.Params("id"), userID, pr.ScheduledFor)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) DeletePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	if err := h.s.Delete(c.Context(), c.Params("id"), userID); err != nil {
		return errorJSON(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ListAttempts returns the delivery history for one of the caller's posts.
func (h *PostHandler) ListAttempts(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.Params("id")

	// Ownership check rides on Get.
	if _, err := h.s.Get(c.Context(), postID, userID); err != nil {
		return errorJSON(c, err)
	}

	attempts, err := h.pa.ListByPostID(c.Context(), postID)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(attempts)
}
