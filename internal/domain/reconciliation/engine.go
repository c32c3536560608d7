// Package reconciliation deriva saldos y estados de cobro a partir del
// modelo de cartera y aplica el tope de notas crédito. Todas las funciones
// son puras: operan sobre el snapshot que entrega el llamador.
package reconciliation

import (
	"github.com/jhoicas/billing-reconciliation/internal/domain"
	"github.com/jhoicas/billing-reconciliation/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Result saldo y estado derivados de un documento.
type Result struct {
	DocumentID        string
	Kind              entity.DocumentKind
	TotalAmount       decimal.Decimal
	PaidAmount        decimal.Decimal
	CreditNoteAmount  decimal.Decimal
	OutstandingAmount decimal.Decimal
	Status            entity.DerivedStatus
}

// Reconcile calcula (pendiente, estado). Llamarla dos veces sobre el mismo
// snapshot produce el mismo resultado.
func Reconcile(doc *entity.LedgerDocument) Result {
	outstanding := doc.OutstandingAmount()
	return Result{
		DocumentID:        doc.ID,
		Kind:              doc.Kind,
		TotalAmount:       doc.TotalAmount,
		PaidAmount:        doc.PaidAmount,
		CreditNoteAmount:  doc.CreditNoteAmount,
		OutstandingAmount: outstanding,
		Status:            entity.DeriveStatus(doc.PaidAmount, outstanding),
	}
}

// RemainingClaimable devuelve el saldo aún acreditable de la factura y la
// suma de notas aprobadas existentes.
func RemainingClaimable(invoice *entity.LedgerDocument, existing []*entity.CreditNote) (remaining, existingTotal decimal.Decimal) {
	existingTotal = entity.SumApproved(invoice.ID, existing)
	return entity.RemainingClaimable(invoice.TotalAmount, existingTotal), existingTotal
}

// ProposeCreditNote arma una nota crédito sobre la factura y valida el tope.
//
// Las tarifas siempre son las guardadas en la factura, nunca unas enviadas
// por el llamador, para que factura y notas no diverjan en impuestos.
// existing debe ser el conjunto completo de notas aprobadas de la factura.
// La nota devuelta queda en PENDING y sin ID: persistirla es tarea del llamador.
func ProposeCreditNote(invoice *entity.LedgerDocument, base decimal.Decimal, existing []*entity.CreditNote) (*entity.CreditNote, error) {
	if invoice == nil || invoice.Kind != entity.KindInvoice {
		return nil, domain.ErrCreditNotAllowed
	}
	if !base.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	cn := entity.NewCreditNote("", invoice, base, "")
	if err := entity.CheckCreditNoteCap(invoice, cn.TotalAmount, existing); err != nil {
		return nil, err
	}
	return cn, nil
}

// MaxCreditBase base máxima (antes de impuestos) que aún cabe en la factura.
func MaxCreditBase(invoice *entity.LedgerDocument, existing []*entity.CreditNote) decimal.Decimal {
	remaining, _ := RemainingClaimable(invoice, existing)
	factor := decimal.NewFromInt(1).Add(invoice.TaxComponents.EffectiveRate().Div(decimal.NewFromInt(100)))
	return remaining.Div(factor).RoundFloor(2)
}

// Predicate decide si un snapshot ya refleja el pago.
type Predicate func(doc *entity.LedgerDocument) bool

// PaymentReflected criterio por defecto: pendiente == 0 o pagado > 0.
func PaymentReflected(doc *entity.LedgerDocument) bool {
	return doc.OutstandingAmount().IsZero() || doc.PaidAmount.IsPositive()
}

// PaidAbove criterio estricto para llamadores que conocen el monto pagado
// antes del pago: confirma cuando el pagado supera baseline o ya no hay saldo.
func PaidAbove(baseline decimal.Decimal) Predicate {
	return func(doc *entity.LedgerDocument) bool {
		return doc.OutstandingAmount().IsZero() || doc.PaidAmount.GreaterThan(baseline)
	}
}
