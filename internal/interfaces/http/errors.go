package http

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/billing-reconciliation/internal/application/dto"
	"github.com/jhoicas/billing-reconciliation/internal/domain"
)

var unauthorizedErr = fmt.Errorf("token sin empresa: %w", domain.ErrUnauthorized)

// respondError traduce errores de dominio a la respuesta HTTP.
func respondError(c *fiber.Ctx, err error) error {
	var capErr *domain.CapExceededError
	if errors.As(err, &capErr) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Code:    "CAP_EXCEEDED",
			Message: capErr.Error(),
			Details: dto.CapExceededDetails{
				ProposedTotal:   capErr.ProposedTotal,
				RemainingAmount: capErr.RemainingAmount,
				ExistingTotal:   capErr.ExistingTotal,
				Shortfall:       capErr.Shortfall(),
			},
		})
	}

	status, code := fiber.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		status, code = fiber.StatusBadRequest, "INVALID_AMOUNT"
	case errors.Is(err, domain.ErrInvalidInput):
		status, code = fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrCreditNotAllowed):
		status, code = fiber.StatusUnprocessableEntity, "CREDIT_NOT_ALLOWED"
	case errors.Is(err, domain.ErrNotFound):
		status, code = fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrForbidden):
		status, code = fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrUnauthorized):
		status, code = fiber.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrConfirmationInProgress):
		status, code = fiber.StatusConflict, "CONFIRMATION_IN_PROGRESS"
	case errors.Is(err, domain.ErrDuplicate):
		status, code = fiber.StatusConflict, "DUPLICATE"
	case errors.Is(err, domain.ErrConflict):
		status, code = fiber.StatusConflict, "CONFLICT"
	}
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		msg = "error interno"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}
