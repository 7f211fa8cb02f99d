package handlers

import (
	"errors"

	"edhaus/internal/repositories"
	"edhaus/internal/services"
	"edhaus/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Names of the error taxonomy as they appear in the "error" field of a response.
const (
	ErrorEmptyCart         = "EmptyCart"
	ErrorInsufficientStock = "InsufficientStock"
	ErrorIllegalTransition = "IllegalTransition"
	ErrorInvalidStatus     = "InvalidStatus"
	ErrorInvalidQuantity   = "InvalidQuantity"
	ErrorValidation        = "ValidationFailed"
	ErrorUnauthorized      = "Unauthorized"
	ErrorForbidden         = "Forbidden"
	ErrorNotFound          = "NotFound"
	ErrorConflict          = "Conflict"
	ErrorInternal          = "Internal"
)

type errorMapping struct {
	target error
	status int
	name   string
}

var errorMappings = []errorMapping{
	{services.ErrEmptyCart, fiber.StatusBadRequest, ErrorEmptyCart},
	{services.ErrIllegalTransition, fiber.StatusBadRequest, ErrorIllegalTransition},
	{services.ErrInvalidStatus, fiber.StatusBadRequest, ErrorInvalidStatus},
	{services.ErrInvalidQuantity, fiber.StatusBadRequest, ErrorInvalidQuantity},
	{services.ErrValidation, fiber.StatusBadRequest, ErrorValidation},
	{services.ErrUnauthorized, fiber.StatusUnauthorized, ErrorUnauthorized},
	{services.ErrForbidden, fiber.StatusForbidden, ErrorForbidden},
	{services.ErrNotFound, fiber.StatusNotFound, ErrorNotFound},
	{services.ErrConflict, fiber.StatusConflict, ErrorConflict},
	{repositories.ErrDuplicate, fiber.StatusConflict, ErrorConflict},
}

// respondError writes the response for an error returned by a service.
// Errors outside the taxonomy are logged and answered with a bare 500.
func respondError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	var stockErr *services.InsufficientStockError
	if errors.As(err, &stockErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message":    err.Error(),
			"error":      ErrorInsufficientStock,
			"product_id": stockErr.ProductID,
		})
	}
	if errors.Is(err, services.ErrInsufficientStock) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": err.Error(),
			"error":   ErrorInsufficientStock,
		})
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return c.Status(m.status).JSON(fiber.Map{
				"message": err.Error(),
				"error":   m.name,
			})
		}
	}

	logger.Error("request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "internal error",
		"error":   ErrorInternal,
	})
}

func invalidBody(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}

// validationFailed answers a struct validation error. Anything else is treated
// as an unparsable body.
func validationFailed(c *fiber.Ctx, err error) error {
	messages := validation.Messages(err)
	if messages == nil {
		return invalidBody(c, err)
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"error":   ErrorValidation,
		"errors":  messages,
	})
}
