package handlers

import (
	"log/slog"

	"feira/internal/backend"
	"feira/internal/middleware"
	"feira/internal/models"

	"github.com/gofiber/fiber/v2"
)

// DeliveryHandler serves the courier endpoints.
type DeliveryHandler struct {
	service *backend.OrderService
	logger  *slog.Logger
}

func NewDeliveryHandler(service *backend.OrderService, logger *slog.Logger) *DeliveryHandler {
	return &DeliveryHandler{service: service, logger: logger}
}

// RegisterRoutes registers the courier routes behind auth. Fixed paths come
// before /:id.
func (h *DeliveryHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	g := router.Group("/delivery-orders", auth, middleware.RequireRole(models.RoleCourier))
	g.Get("/available", h.HandleAvailable)
	g.Get("/me/accepted", h.HandleAccepted)
	g.Get("/me/history", h.HandleHistory)
	g.Get("/me/earnings", h.HandleEarnings)
	g.Get("/:id", h.HandleGetByID)
	g.Post("/:id/accept", h.HandleAccept)
	g.Patch("/:id/status", h.HandleStatus)
}

func (h *DeliveryHandler) HandleAvailable(c *fiber.Ctx) error {
	orders, err := h.service.AvailableOrders(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve orders")
	}
	return c.JSON(orders)
}

func (h *DeliveryHandler) HandleAccepted(c *fiber.Ctx) error {
	orders, err := h.service.AcceptedOrders(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve orders")
	}
	return c.JSON(orders)
}

func (h *DeliveryHandler) HandleGetByID(c *fiber.Ctx) error {
	order, err := h.service.CourierOrder(c.UserContext(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve order")
	}
	return c.JSON(order)
}

// HandleAccept assigns the order to the caller. A courier that lost the race
// gets 409.
func (h *DeliveryHandler) HandleAccept(c *fiber.Ctx) error {
	order, err := h.service.Accept(c.UserContext(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "Could not accept order")
	}
	return c.JSON(order)
}

func (h *DeliveryHandler) HandleStatus(c *fiber.Ctx) error {
	status, err := parseStatus(c)
	if err != nil || status == "" {
		return err
	}
	order, err := h.service.CourierUpdateStatus(c.UserContext(), middleware.UserID(c), c.Params("id"), status)
	if err != nil {
		return respondError(c, h.logger, err, "Could not update order status")
	}
	return c.JSON(order)
}

func (h *DeliveryHandler) HandleHistory(c *fiber.Ctx) error {
	page, err := h.service.History(c.UserContext(), middleware.UserID(c), c.QueryInt("page", 1), c.QueryInt("limit", models.DefaultPageLimit))
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve history")
	}
	return c.JSON(page)
}

func (h *DeliveryHandler) HandleEarnings(c *fiber.Ctx) error {
	period, err := models.ParseEarningsPeriod(c.Query("period"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Período inválido",
			"error":   err.Error(),
		})
	}
	earnings, err := h.service.Earnings(c.UserContext(), middleware.UserID(c), period)
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve earnings")
	}
	return c.JSON(earnings)
}
