package reconciliation

import (
	"github.com/jhoicas/billing-reconciliation/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Summary totales de cartera para un conjunto de documentos.
type Summary struct {
	Documents        int
	TotalAmount      decimal.Decimal
	PaidAmount       decimal.Decimal
	CreditNoteAmount decimal.Decimal
	Outstanding      decimal.Decimal
	ByStatus         map[entity.DerivedStatus]int
}

// Summarize agrega los montos derivados; no confía en ningún estado almacenado.
func Summarize(docs []*entity.LedgerDocument) Summary {
	s := Summary{
		TotalAmount:      decimal.Zero,
		PaidAmount:       decimal.Zero,
		CreditNoteAmount: decimal.Zero,
		Outstanding:      decimal.Zero,
		ByStatus: map[entity.DerivedStatus]int{
			entity.StatusPaid:          0,
			entity.StatusPartiallyPaid: 0,
			entity.StatusUnpaid:        0,
		},
	}
	for _, d := range docs {
		r := Reconcile(d)
		s.Documents++
		s.TotalAmount = s.TotalAmount.Add(r.TotalAmount)
		s.PaidAmount = s.PaidAmount.Add(r.PaidAmount)
		s.CreditNoteAmount = s.CreditNoteAmount.Add(r.CreditNoteAmount)
		s.Outstanding = s.Outstanding.Add(r.OutstandingAmount)
		s.ByStatus[r.Status]++
	}
	return s
}
