package dto

import "github.com/shopspring/decimal"

// TaxComponentDTO impuesto con tarifa porcentual.
type TaxComponentDTO struct {
	Name string          `json:"name"`
	Rate decimal.Decimal `json:"rate"`
}

// LedgerQuery parámetros de GET /api/ledger.
type LedgerQuery struct {
	Kind     string `query:"kind" validate:"omitempty,oneof=invoice debit_note INVOICE DEBIT_NOTE"`
	ClientID string `query:"client_id"`
	Window   string `query:"window"`
	AsOf     string `query:"as_of" validate:"omitempty,datetime=2006-01-02"`
	PageRequest
}

// ReconciliationResponse saldo y estado derivados de un documento.
type ReconciliationResponse struct {
	ID                string            `json:"id"`
	Kind              string            `json:"kind"`
	ClientID          string            `json:"client_id"`
	Number            string            `json:"number,omitempty"`
	DueDate           string            `json:"due_date"`
	TotalAmount       decimal.Decimal   `json:"total_amount"`
	PaidAmount        decimal.Decimal   `json:"paid_amount"`
	CreditNoteAmount  decimal.Decimal   `json:"credit_note_amount"`
	OutstandingAmount decimal.Decimal   `json:"outstanding_amount"`
	Status            string            `json:"status"` // PAID|PARTIALLY_PAID|UNPAID (derivado)
	Overdue           bool              `json:"overdue"`
	TaxComponents     []TaxComponentDTO `json:"tax_components"`
}

// LedgerListResponse listado filtrado por ventana de vencimiento.
type LedgerListResponse struct {
	Window string                   `json:"window"`
	AsOf   string                   `json:"as_of"`
	Items  []ReconciliationResponse `json:"items"`
	Page   PageResponse             `json:"page"`
}

// LedgerSummaryResponse totales de cartera.
type LedgerSummaryResponse struct {
	Window           string          `json:"window"`
	AsOf             string          `json:"as_of"`
	Documents        int             `json:"documents"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	PaidAmount       decimal.Decimal `json:"paid_amount"`
	CreditNoteAmount decimal.Decimal `json:"credit_note_amount"`
	Outstanding      decimal.Decimal `json:"outstanding_amount"`
	ByStatus         map[string]int  `json:"by_status"`
}

// AgingBucket totales de una ventana de vencimiento.
type AgingBucket struct {
	Window      string          `json:"window"`
	Documents   int             `json:"documents"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Outstanding decimal.Decimal `json:"outstanding_amount"`
}

// LedgerAgingResponse cartera repartida por ventanas (pueden solaparse).
type LedgerAgingResponse struct {
	AsOf    string        `json:"as_of"`
	Buckets []AgingBucket `json:"buckets"`
}

// RecordPaymentRequest body para POST /api/ledger/:id/payments.
type RecordPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference" validate:"required,max=128"`
	Method    string          `json:"method,omitempty" validate:"max=32"`
}

// PaymentResponse pago registrado.
type PaymentResponse struct {
	ID         string          `json:"id"`
	DocumentID string          `json:"document_id"`
	Amount     decimal.Decimal `json:"amount"`
	Reference  string          `json:"reference"`
	Method     string          `json:"method,omitempty"`
	ReceivedAt string          `json:"received_at"`
}

// RecordPaymentResponse pago y saldo resultante.
type RecordPaymentResponse struct {
	Payment        PaymentResponse        `json:"payment"`
	Reconciliation ReconciliationResponse `json:"reconciliation"`
}
