package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")
	ErrDuplicate    = errors.New("recurso duplicado")

	// Conciliación de cartera.
	ErrInvalidAmount          = errors.New("monto inválido: debe ser mayor que cero")
	ErrCapExceeded            = errors.New("la nota crédito supera el saldo reclamable de la factura")
	ErrCreditNotAllowed       = errors.New("el documento no admite notas crédito")
	ErrGatewayFailure         = errors.New("la pasarela de pagos reportó un fallo")
	ErrConfirmationInProgress = errors.New("ya hay una confirmación de pago en curso para el documento")
)

// CapExceededError rechazo tipado de una nota crédito que violaría el tope de la factura.
// Lleva los montos necesarios para que el llamador muestre el faltante exacto.
type CapExceededError struct {
	InvoiceID       string
	ProposedTotal   decimal.Decimal // total de la nota propuesta (con impuestos)
	RemainingAmount decimal.Decimal // saldo aún reclamable de la factura
	ExistingTotal   decimal.Decimal // suma de notas crédito aprobadas
}

func (e *CapExceededError) Error() string {
	return fmt.Sprintf("nota crédito de %s para la factura %s supera el saldo reclamable %s (notas aprobadas: %s)",
		e.ProposedTotal.StringFixed(2), e.InvoiceID, e.RemainingAmount.StringFixed(2), e.ExistingTotal.StringFixed(2))
}

// Unwrap permite errors.Is(err, ErrCapExceeded).
func (e *CapExceededError) Unwrap() error { return ErrCapExceeded }

// Shortfall monto en que la propuesta excede el saldo reclamable.
func (e *CapExceededError) Shortfall() decimal.Decimal {
	return e.ProposedTotal.Sub(e.RemainingAmount)
}

// GatewayFailureError fallo terminal reportado por la pasarela.
type GatewayFailureError struct {
	Reference string
	Reason    string
}

func (e *GatewayFailureError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("pago %s rechazado por la pasarela", e.Reference)
	}
	return fmt.Sprintf("pago %s rechazado por la pasarela: %s", e.Reference, e.Reason)
}

func (e *GatewayFailureError) Unwrap() error { return ErrGatewayFailure }
