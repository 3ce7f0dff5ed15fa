package handlers

import (
	"github.com/campusfind/campusfind-backend/internal/identity"
	"github.com/campusfind/campusfind-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	userID, err := identity.UserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	unreadOnly := c.Query("unread_only") == "true"
	notifications, err := h.notificationService.List(userID, unreadOnly, c.QueryInt("limit", 50))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"notifications": notifications})
}

// UnreadCount backs the client's periodic badge poll.
func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	userID, err := identity.UserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	count, err := h.notificationService.UnreadCount(userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"unread_count": count})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := identity.UserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	notificationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid notification id")
	}

	notification, err := h.notificationService.MarkRead(notificationID, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(notification)
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	userID, err := identity.UserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	count, err := h.notificationService.MarkAllRead(userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"marked_read": count})
}

func (h *NotificationHandler) Delete(c *fiber.Ctx) error {
	userID, err := identity.UserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	notificationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid notification id")
	}

	if err := h.notificationService.Delete(notificationID, userID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Notification deleted"})
}
