package entity

import (
	"time"

	"github.com/jhoicas/billing-reconciliation/internal/domain"
	"github.com/shopspring/decimal"
)

// DocumentKind tipo de documento de cartera.
type DocumentKind string

const (
	KindInvoice   DocumentKind = "INVOICE"
	KindDebitNote DocumentKind = "DEBIT_NOTE"
)

// IsValid indica si el tipo es conocido.
func (k DocumentKind) IsValid() bool {
	return k == KindInvoice || k == KindDebitNote
}

// LedgerDocument factura o nota débito (estructuralmente idénticas).
//
// El saldo pendiente y el estado nunca se almacenan: se derivan de
// TotalAmount, PaidAmount y CreditNoteAmount. StoredStatus es sólo un
// artefacto de auditoría del backend y no se consulta para conciliar.
type LedgerDocument struct {
	ID               string
	Kind             DocumentKind
	CompanyID        string
	ClientID         string
	Number           string
	TotalAmount      decimal.Decimal
	PaidAmount       decimal.Decimal
	CreditNoteAmount decimal.Decimal // sólo facturas
	DueDate          time.Time
	TaxComponents    TaxSchedule
	StoredStatus     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewInvoice construye una factura recién emitida (pagado = 0).
func NewInvoice(id, companyID, clientID string, total decimal.Decimal, dueDate time.Time, taxes TaxSchedule) (*LedgerDocument, error) {
	return newDocument(KindInvoice, id, companyID, clientID, total, dueDate, taxes)
}

// NewDebitNote construye una nota débito recién emitida.
func NewDebitNote(id, companyID, clientID string, total decimal.Decimal, dueDate time.Time, taxes TaxSchedule) (*LedgerDocument, error) {
	return newDocument(KindDebitNote, id, companyID, clientID, total, dueDate, taxes)
}

func newDocument(kind DocumentKind, id, companyID, clientID string, total decimal.Decimal, dueDate time.Time, taxes TaxSchedule) (*LedgerDocument, error) {
	if id == "" || total.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	for _, t := range taxes {
		if t.Name == "" || t.Rate.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
	}
	now := time.Now()
	return &LedgerDocument{
		ID:               id,
		Kind:             kind,
		CompanyID:        companyID,
		ClientID:         clientID,
		TotalAmount:      total,
		PaidAmount:       decimal.Zero,
		CreditNoteAmount: decimal.Zero,
		DueDate:          dueDate,
		TaxComponents:    taxes.Clone(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// OutstandingAmount max(0, total - pagado - notas crédito).
func (d *LedgerDocument) OutstandingAmount() decimal.Decimal {
	out := d.TotalAmount.Sub(d.PaidAmount).Sub(d.CreditNoteAmount)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// DerivedStatus estado calculado; única fuente de verdad.
func (d *LedgerDocument) DerivedStatus() DerivedStatus {
	return DeriveStatus(d.PaidAmount, d.OutstandingAmount())
}

// ApplyPayment suma un pago confirmado. PaidAmount sólo crece.
func (d *LedgerDocument) ApplyPayment(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.ErrInvalidAmount
	}
	d.PaidAmount = d.PaidAmount.Add(amount)
	d.UpdatedAt = time.Now()
	return nil
}

// ApplyCreditNote suma una nota crédito aprobada validando el tope contra
// el conjunto completo de notas aprobadas existentes de la factura.
func (d *LedgerDocument) ApplyCreditNote(cn *CreditNote, existing []*CreditNote) error {
	if d.Kind != KindInvoice || cn == nil || cn.InvoiceID != d.ID {
		return domain.ErrCreditNotAllowed
	}
	if !cn.TotalAmount.IsPositive() {
		return domain.ErrInvalidAmount
	}
	if err := CheckCreditNoteCap(d, cn.TotalAmount, existing); err != nil {
		return err
	}
	d.CreditNoteAmount = d.CreditNoteAmount.Add(cn.TotalAmount)
	d.UpdatedAt = time.Now()
	return nil
}

// CheckCreditNoteCap valida Σ(aprobadas) + propuesta ≤ total de la factura.
func CheckCreditNoteCap(invoice *LedgerDocument, proposedTotal decimal.Decimal, existing []*CreditNote) error {
	existingTotal := SumApproved(invoice.ID, existing)
	if existingTotal.Add(proposedTotal).GreaterThan(invoice.TotalAmount) {
		return &domain.CapExceededError{
			InvoiceID:       invoice.ID,
			ProposedTotal:   proposedTotal,
			RemainingAmount: RemainingClaimable(invoice.TotalAmount, existingTotal),
			ExistingTotal:   existingTotal,
		}
	}
	return nil
}

// RemainingClaimable max(0, total - notas aprobadas).
func RemainingClaimable(total, existingTotal decimal.Decimal) decimal.Decimal {
	rem := total.Sub(existingTotal)
	if rem.IsNegative() {
		return decimal.Zero
	}
	return rem
}
