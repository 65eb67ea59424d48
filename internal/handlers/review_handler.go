package handlers

import (
	"log/slog"

	"feira/internal/backend"
	"feira/internal/middleware"
	"feira/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ReviewHandler handles HTTP requests for product reviews.
type ReviewHandler struct {
	service  *backend.ReviewService
	validate *validator.Validate
	logger   *slog.Logger
}

func NewReviewHandler(service *backend.ReviewService, v *validator.Validate, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{service: service, validate: v, logger: logger}
}

// RegisterRoutes registers the review routes behind auth. Only buyers write
// reviews; any role can read a product's reviews.
func (h *ReviewHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	g := router.Group("/reviews", auth)
	g.Post("/", middleware.RequireRole(models.RoleBuyer), h.HandleCreate)
	g.Get("/me", h.HandleMine)
	g.Get("/products/:id", h.HandleByProduct)
	g.Delete("/:id", middleware.RequireRole(models.RoleBuyer), h.HandleDelete)
}

func (h *ReviewHandler) HandleCreate(c *fiber.Ctx) error {
	var input models.ReviewInput
	if err := c.BodyParser(&input); err != nil {
		return badBody(c, err)
	}
	if err := validate(h.validate, input); err != nil {
		return respondError(c, h.logger, err, "Could not create review")
	}
	review, err := h.service.Create(c.UserContext(), middleware.UserID(c), input)
	if err != nil {
		return respondError(c, h.logger, err, "Could not create review")
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}

func (h *ReviewHandler) HandleMine(c *fiber.Ctx) error {
	reviews, err := h.service.ByUser(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve reviews")
	}
	return c.JSON(reviews)
}

func (h *ReviewHandler) HandleByProduct(c *fiber.Ctx) error {
	reviews, err := h.service.ByProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve reviews")
	}
	return c.JSON(reviews)
}

func (h *ReviewHandler) HandleDelete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
		return respondError(c, h.logger, err, "Could not delete review")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
