package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/review-feed/internal/auth"
	"github.com/spec-kit/review-feed/internal/service"
	apperrors "github.com/spec-kit/review-feed/pkg/util"
)

// NotificationsHandler serves the viewer's notification list.
type NotificationsHandler struct {
	notifications *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notificationService *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{notifications: notificationService}
}

// List GET /notifications.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return apperrors.NewValidationError("limit must be a positive integer", nil)
		}
		limit = parsed
	}

	items, err := h.notifications.List(c.Context(), principal.User.ID, limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": items})
}
