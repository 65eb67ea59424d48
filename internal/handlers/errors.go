package handlers

import (
	"errors"
	"fmt"
	"log/slog"

	"feira/internal/apperr"
	"feira/internal/backend"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// respondError maps a service error to a status code and JSON body. The
// "message" field is meant for end users.
func respondError(c *fiber.Ctx, logger *slog.Logger, err error, fallback string) error {
	var (
		nf  *apperr.NotFoundError
		val *apperr.ValidationError
		be  *backend.Error
	)
	switch {
	case errors.As(err, &nf):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": apperr.MsgNotFound,
			"error":   nf.Error(),
		})
	case errors.As(err, &val):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  val.Fields,
		})
	case errors.Is(err, backend.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "E-mail ou senha inválidos",
		})
	case errors.As(err, &be):
		status := fiber.StatusConflict
		if errors.Is(be, backend.ErrForbidden) {
			status = fiber.StatusForbidden
		}
		return c.Status(status).JSON(fiber.Map{
			"message": be.Message,
			"error":   be.Kind.Error(),
		})
	}

	logger.Error(fallback, "method", c.Method(), "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": fallback,
		"error":   err.Error(),
	})
}

func badBody(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}

// validate runs struct validation and renders failures the same way for
// every handler.
func validate(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, e := range verrs {
		fields[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return &apperr.ValidationError{Fields: fields}
}
