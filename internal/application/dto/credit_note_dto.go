package dto

import "github.com/shopspring/decimal"

// CreditNoteRequest body para POST /api/invoices/:id/credit-notes[/preview].
// Las tarifas no se reciben: se copian de la factura.
type CreditNoteRequest struct {
	BaseAmount decimal.Decimal `json:"base_amount"`
	Reason     string          `json:"reason,omitempty" validate:"max=255"`
}

// CreditNoteResponse nota crédito (propuesta o persistida).
type CreditNoteResponse struct {
	ID            string            `json:"id,omitempty"`
	InvoiceID     string            `json:"invoice_id"`
	BaseAmount    decimal.Decimal   `json:"base_amount"`
	TaxAmount     decimal.Decimal   `json:"tax_amount"`
	TotalAmount   decimal.Decimal   `json:"total_amount"`
	TaxComponents []TaxComponentDTO `json:"tax_components"`
	Status        string            `json:"status"`
	Reason        string            `json:"reason,omitempty"`
	CreatedAt     string            `json:"created_at,omitempty"`
}

// CreditNotePreviewResponse resultado de validar una nota sin persistirla.
type CreditNotePreviewResponse struct {
	CreditNote      CreditNoteResponse `json:"credit_note"`
	RemainingAmount decimal.Decimal    `json:"remaining_amount"` // saldo reclamable antes de la nota
	ExistingTotal   decimal.Decimal    `json:"existing_total"`
	MaxBaseAmount   decimal.Decimal    `json:"max_base_amount"` // base más alta que aún cabe con los impuestos de la factura
}

// CapExceededDetails cuerpo de detalle para el error CAP_EXCEEDED.
type CapExceededDetails struct {
	ProposedTotal   decimal.Decimal `json:"proposed_total"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	ExistingTotal   decimal.Decimal `json:"existing_total"`
	Shortfall       decimal.Decimal `json:"shortfall"`
}
