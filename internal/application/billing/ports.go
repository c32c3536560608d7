package billing

import (
	"context"

	"github.com/jhoicas/billing-reconciliation/internal/domain/repository"
)

// LedgerTxRunner ejecuta una función dentro de una transacción con los repos
// de cartera ligados a ella. Si fn retorna error se hace rollback.
type LedgerTxRunner interface {
	RunLedger(ctx context.Context, fn func(
		ledgerRepo repository.LedgerRepository,
		creditNoteRepo repository.CreditNoteRepository,
		paymentRepo repository.PaymentRepository,
	) error) error
}
