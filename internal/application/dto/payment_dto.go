package dto

import "github.com/shopspring/decimal"

// GatewayEventRequest callback de la pasarela de pagos:
// POST /api/payments/confirmations.
type GatewayEventRequest struct {
	DocumentID string `json:"document_id" validate:"required"`
	Reference  string `json:"reference" validate:"required,max=128"`
	Status     string `json:"status" validate:"required,oneof=success failure"`
	Reason     string `json:"reason,omitempty" validate:"max=255"`

	// PaidBefore pagado del documento antes de este pago; opcional.
	PaidBefore *decimal.Decimal `json:"paid_before,omitempty"`
}

// ConfirmationResponse estado de una confirmación de pago.
// GIVEN_UP es informativo: el pago probablemente se procesó; refrescar más tarde.
type ConfirmationResponse struct {
	DocumentID          string           `json:"document_id"`
	Reference           string           `json:"reference"`
	State               string           `json:"state"` // POLLING|CONFIRMED|GIVEN_UP|FAILED|CANCELLED
	ConfirmationPending bool             `json:"confirmation_pending"`
	Attempts            int              `json:"attempts"`
	OutstandingAmount   *decimal.Decimal `json:"outstanding_amount,omitempty"`
	Status              string           `json:"status,omitempty"` // estado derivado del último snapshot
	Message             string           `json:"message,omitempty"`
}
