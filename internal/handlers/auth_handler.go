package handlers

import (
	"log/slog"

	"feira/internal/backend"
	"feira/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *backend.AuthService
	validate    *validator.Validate
	logger      *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *backend.AuthService, v *validator.Validate, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, validate: v, logger: logger}
}

// RegisterRoutes registers the authentication routes. Couriers sign in on a
// separate endpoint.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
	router.Post("/delivery/auth/login", h.HandleCourierLogin)
}

// RegisterRequest is the sign-up form.
type RegisterRequest struct {
	models.Account
	Password string `json:"password" validate:"required,min=6"`
}

// HandleRegister handles new account registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	if role, err := models.ParseRole(string(req.Role)); err == nil {
		req.Role = role
	}
	if err := validate(h.validate, req); err != nil {
		return respondError(c, h.logger, err, "Could not register account")
	}

	account := req.Account
	if err := h.authService.Register(c.UserContext(), &account, req.Password); err != nil {
		return respondError(c, h.logger, err, "Could not register account")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Account registered successfully",
		"user":    account,
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"`
}

// HandleLogin signs in a buyer or producer. Role defaults to buyer.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	role := models.RoleBuyer
	if req.Role != "" {
		parsed, err := models.ParseRole(req.Role)
		if err != nil || parsed == models.RoleCourier {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Perfil inválido para este login",
			})
		}
		role = parsed
	}
	return h.login(c, req, role)
}

// HandleCourierLogin signs in a courier.
func (h *AuthHandler) HandleCourierLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	return h.login(c, req, models.RoleCourier)
}

func (h *AuthHandler) login(c *fiber.Ctx, req LoginRequest, role models.Role) error {
	if err := validate(h.validate, req); err != nil {
		return respondError(c, h.logger, err, "Authentication failed")
	}
	token, account, err := h.authService.Login(c.UserContext(), role, req.Email, req.Password)
	if err != nil {
		h.logger.Info("login failed", "email", req.Email, "role", role, "error", err)
		return respondError(c, h.logger, err, "Authentication failed")
	}
	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
		"user":    account,
	})
}
