package billing

import (
	"time"

	"github.com/samber/lo"

	"github.com/jhoicas/billing-reconciliation/internal/application/dto"
	"github.com/jhoicas/billing-reconciliation/internal/domain/duewindow"
	"github.com/jhoicas/billing-reconciliation/internal/domain/entity"
	"github.com/jhoicas/billing-reconciliation/internal/domain/reconciliation"
)

const dateLayout = "2006-01-02"

func taxesToDTO(s entity.TaxSchedule) []dto.TaxComponentDTO {
	return lo.Map(s, func(t entity.TaxComponent, _ int) dto.TaxComponentDTO {
		return dto.TaxComponentDTO{Name: t.Name, Rate: t.Rate}
	})
}

// ToReconciliationResponse arma la respuesta con saldo y estado derivados a asOf.
func ToReconciliationResponse(doc *entity.LedgerDocument, asOf time.Time) dto.ReconciliationResponse {
	r := reconciliation.Reconcile(doc)
	return dto.ReconciliationResponse{
		ID:                doc.ID,
		Kind:              string(doc.Kind),
		ClientID:          doc.ClientID,
		Number:            doc.Number,
		DueDate:           doc.DueDate.Format(dateLayout),
		TotalAmount:       r.TotalAmount,
		PaidAmount:        r.PaidAmount,
		CreditNoteAmount:  r.CreditNoteAmount,
		OutstandingAmount: r.OutstandingAmount,
		Status:            r.Status.String(),
		Overdue:           duewindow.Classify(doc, asOf, duewindow.Overdue()),
		TaxComponents:     taxesToDTO(doc.TaxComponents),
	}
}

// ToCreditNoteResponse nota crédito a DTO.
func ToCreditNoteResponse(cn *entity.CreditNote) dto.CreditNoteResponse {
	out := dto.CreditNoteResponse{
		ID:            cn.ID,
		InvoiceID:     cn.InvoiceID,
		BaseAmount:    cn.BaseAmount,
		TaxAmount:     cn.TaxAmount(),
		TotalAmount:   cn.TotalAmount,
		TaxComponents: taxesToDTO(cn.TaxComponents),
		Status:        string(cn.Status),
		Reason:        cn.Reason,
	}
	if cn.ID != "" {
		out.CreatedAt = cn.CreatedAt.Format(time.RFC3339)
	}
	return out
}

// ToPaymentResponse pago a DTO.
func ToPaymentResponse(p *entity.Payment) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:         p.ID,
		DocumentID: p.DocumentID,
		Amount:     p.Amount,
		Reference:  p.Reference,
		Method:     p.Method,
		ReceivedAt: p.ReceivedAt.Format(time.RFC3339),
	}
}

// ParseAsOf interpreta YYYY-MM-DD; vacío es hoy.
func ParseAsOf(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return now, nil
	}
	return time.Parse(dateLayout, s)
}
