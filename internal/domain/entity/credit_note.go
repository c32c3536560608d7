package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreditNoteStatus estado de aprobación de una nota crédito.
type CreditNoteStatus string

const (
	CreditNoteStatusPending  CreditNoteStatus = "PENDING"
	CreditNoteStatusApproved CreditNoteStatus = "APPROVED"
	CreditNoteStatusVoided   CreditNoteStatus = "VOIDED"
)

// IsValid indica si el estado es conocido.
func (s CreditNoteStatus) IsValid() bool {
	switch s {
	case CreditNoteStatusPending, CreditNoteStatusApproved, CreditNoteStatusVoided:
		return true
	}
	return false
}

// CreditNote nota crédito contra exactamente una factura.
// TaxComponents se copia de la factura al crearla y no se vuelve a consultar.
type CreditNote struct {
	ID            string
	InvoiceID     string
	BaseAmount    decimal.Decimal
	TaxComponents TaxSchedule
	TotalAmount   decimal.Decimal // base + Σ(base × rate_i)
	Status        CreditNoteStatus
	Reason        string
	CreatedAt     time.Time
}

// NewCreditNote arma la nota con las tarifas de la factura acreditada.
func NewCreditNote(id string, invoice *LedgerDocument, base decimal.Decimal, reason string) *CreditNote {
	taxes := invoice.TaxComponents.Clone()
	return &CreditNote{
		ID:            id,
		InvoiceID:     invoice.ID,
		BaseAmount:    base,
		TaxComponents: taxes,
		TotalAmount:   taxes.TotalFor(base),
		Status:        CreditNoteStatusPending,
		Reason:        reason,
		CreatedAt:     time.Now(),
	}
}

// TaxAmount impuestos incluidos en la nota.
func (cn *CreditNote) TaxAmount() decimal.Decimal {
	return cn.TotalAmount.Sub(cn.BaseAmount)
}

// SumApproved suma los totales de las notas aprobadas de la factura indicada.
// Las notas de otras facturas o no aprobadas se ignoran.
func SumApproved(invoiceID string, notes []*CreditNote) decimal.Decimal {
	total := decimal.Zero
	for _, n := range notes {
		if n == nil || n.InvoiceID != invoiceID || n.Status != CreditNoteStatusApproved {
			continue
		}
		total = total.Add(n.TotalAmount)
	}
	return total
}
