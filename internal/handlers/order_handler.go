package handlers

import (
	"log/slog"

	"feira/internal/backend"
	"feira/internal/middleware"
	"feira/internal/models"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler serves the buyer and producer views of orders.
type OrderHandler struct {
	service *backend.OrderService
	logger  *slog.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *backend.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{service: service, logger: logger}
}

// RegisterRoutes registers the order routes behind auth.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	buyer := router.Group("/orders", auth, middleware.RequireRole(models.RoleBuyer))
	buyer.Get("/me", h.HandleBuyerOrders)
	buyer.Get("/:id", h.HandleBuyerOrder)

	producer := router.Group("/producers/me/orders", auth, middleware.RequireRole(models.RoleProducer))
	producer.Get("/", h.HandleProducerOrders)
	producer.Get("/:id", h.HandleProducerOrder)
	producer.Put("/:id/status", h.HandleProducerStatus)
}

// StatusRequest is the body of a status change. The status is accepted in
// any case.
type StatusRequest struct {
	Status string `json:"status"`
}

func parseStatus(c *fiber.Ctx) (models.OrderStatus, error) {
	var req StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return "", badBody(c, err)
	}
	if req.Status == "" {
		return "", c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Status is required for order status update.",
		})
	}
	return models.NormalizeStatus(req.Status), nil
}

func (h *OrderHandler) HandleBuyerOrders(c *fiber.Ctx) error {
	orders, err := h.service.BuyerOrders(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve orders")
	}
	return c.JSON(orders)
}

func (h *OrderHandler) HandleBuyerOrder(c *fiber.Ctx) error {
	order, err := h.service.BuyerOrder(c.UserContext(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve order")
	}
	return c.JSON(order)
}

func (h *OrderHandler) HandleProducerOrders(c *fiber.Ctx) error {
	orders, err := h.service.ProducerOrders(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve orders")
	}
	return c.JSON(orders)
}

func (h *OrderHandler) HandleProducerOrder(c *fiber.Ctx) error {
	order, err := h.service.ProducerOrder(c.UserContext(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve order")
	}
	return c.JSON(order)
}

// HandleProducerStatus updates the status of one of the producer's orders.
func (h *OrderHandler) HandleProducerStatus(c *fiber.Ctx) error {
	status, err := parseStatus(c)
	if err != nil || status == "" {
		return err
	}
	order, err := h.service.ProducerUpdateStatus(c.UserContext(), middleware.UserID(c), c.Params("id"), status)
	if err != nil {
		return respondError(c, h.logger, err, "Could not update order status")
	}
	return c.JSON(order)
}
