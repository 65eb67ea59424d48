package handlers

import (
	"log/slog"

	"feira/internal/backend"
	"feira/internal/middleware"
	"feira/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// NotificationHandler handles HTTP requests for notifications and push tokens.
type NotificationHandler struct {
	service  *backend.NotificationService
	validate *validator.Validate
	logger   *slog.Logger
}

func NewNotificationHandler(service *backend.NotificationService, v *validator.Validate, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{service: service, validate: v, logger: logger}
}

// RegisterRoutes registers the notification routes behind auth.
func (h *NotificationHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	g := router.Group("/notifications", auth)
	g.Get("/", h.HandleList)
	g.Post("/mark-all-read", h.HandleMarkAllRead)
	g.Post("/register-token", h.HandleRegisterToken)
	g.Post("/:id/mark-read", h.HandleMarkRead)
	g.Delete("/:id", h.HandleDelete)
}

func (h *NotificationHandler) HandleList(c *fiber.Ctx) error {
	list, err := h.service.List(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve notifications")
	}
	return c.JSON(list)
}

func (h *NotificationHandler) HandleMarkRead(c *fiber.Ctx) error {
	if err := h.service.MarkRead(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
		return respondError(c, h.logger, err, "Could not update notification")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *NotificationHandler) HandleMarkAllRead(c *fiber.Ctx) error {
	if err := h.service.MarkAllRead(c.UserContext(), middleware.UserID(c)); err != nil {
		return respondError(c, h.logger, err, "Could not update notifications")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *NotificationHandler) HandleRegisterToken(c *fiber.Ctx) error {
	var token models.DeviceToken
	if err := c.BodyParser(&token); err != nil {
		return badBody(c, err)
	}
	if err := validate(h.validate, token); err != nil {
		return respondError(c, h.logger, err, "Could not register token")
	}
	if err := h.service.RegisterToken(c.UserContext(), middleware.UserID(c), token); err != nil {
		return respondError(c, h.logger, err, "Could not register token")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleDelete removes a notification; order notifications only once the
// order was delivered.
func (h *NotificationHandler) HandleDelete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
		return respondError(c, h.logger, err, "Could not delete notification")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
