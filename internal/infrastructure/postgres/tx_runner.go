package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/billing-reconciliation/internal/application/billing"
	"github.com/jhoicas/billing-reconciliation/internal/domain/repository"
)

var _ billing.LedgerTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunLedger inicia una transacción, ejecuta fn con repos de cartera atados a
// la tx y hace Commit o Rollback.
func (r *TxRunner) RunLedger(ctx context.Context, fn func(
	ledgerRepo repository.LedgerRepository,
	creditNoteRepo repository.CreditNoteRepository,
	paymentRepo repository.PaymentRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewLedgerRepository(tx), NewCreditNoteRepository(tx), NewPaymentRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
