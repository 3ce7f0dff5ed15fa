package handlers

import (
	"errors"
	"log/slog"

	"github.com/campusfind/campusfind-backend/internal/apperr"
	"github.com/campusfind/campusfind-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
)

// respondError maps the service error taxonomy onto HTTP status codes:
// validation 400, auth 401/403, not found 404, state conflict 409, gateway 502.
func respondError(c *fiber.Ctx, err error) error {
	var validationErr *apperr.ValidationError
	if errors.As(err, &validationErr) {
		return fail(c, fiber.StatusBadRequest, validationErr.Error())
	}

	var authErr *apperr.AuthError
	if errors.As(err, &authErr) {
		status := fiber.StatusUnauthorized
		if authErr.Forbidden {
			status = fiber.StatusForbidden
		}
		return fail(c, status, authErr.Error())
	}

	var notFoundErr *apperr.NotFoundError
	if errors.As(err, &notFoundErr) {
		return fail(c, fiber.StatusNotFound, notFoundErr.Error())
	}

	var stateErr *apperr.StateError
	if errors.As(err, &stateErr) {
		return fail(c, fiber.StatusConflict, stateErr.Error())
	}

	var gatewayErr *apperr.GatewayError
	if errors.As(err, &gatewayErr) {
		slog.Error("payment gateway failure", "op", gatewayErr.Op, "error", gatewayErr.Err)
		return fail(c, fiber.StatusBadGateway, "Payment gateway unavailable, please try again")
	}

	slog.Error("unhandled service error", "method", c.Method(), "path", c.Path(), "error", err.Error())
	return fail(c, fiber.StatusInternalServerError, "Internal server error")
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: message})
}
