package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/billing-reconciliation/internal/domain"
	"github.com/jhoicas/billing-reconciliation/internal/domain/entity"
	"github.com/jhoicas/billing-reconciliation/internal/domain/repository"
)

var _ repository.CreditNoteRepository = (*CreditNoteRepo)(nil)

const creditNoteColumns = `id, invoice_id, base_amount, tax_components, total_amount, status, reason, created_at`

// CreditNoteRepo implementación de CreditNoteRepository sobre PostgreSQL.
type CreditNoteRepo struct {
	q Querier
}

// NewCreditNoteRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCreditNoteRepository(q Querier) *CreditNoteRepo {
	return &CreditNoteRepo{q: q}
}

// Create inserta la nota crédito.
func (r *CreditNoteRepo) Create(ctx context.Context, cn *entity.CreditNote) error {
	taxes, err := encodeTaxes(cn.TaxComponents)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO credit_notes (` + creditNoteColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = r.q.Exec(ctx, query,
		cn.ID, cn.InvoiceID, cn.BaseAmount, taxes, cn.TotalAmount, string(cn.Status), cn.Reason, cn.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert credit note: %w", err)
	}
	return nil
}

// ListApprovedByInvoice notas aprobadas de la factura.
func (r *CreditNoteRepo) ListApprovedByInvoice(ctx context.Context, invoiceID string) ([]*entity.CreditNote, error) {
	return r.list(ctx, `SELECT `+creditNoteColumns+` FROM credit_notes
		WHERE invoice_id = $1 AND status = $2 ORDER BY created_at`,
		invoiceID, string(entity.CreditNoteStatusApproved))
}

// ListByInvoice todas las notas de la factura.
func (r *CreditNoteRepo) ListByInvoice(ctx context.Context, invoiceID string) ([]*entity.CreditNote, error) {
	return r.list(ctx, `SELECT `+creditNoteColumns+` FROM credit_notes
		WHERE invoice_id = $1 ORDER BY created_at`, invoiceID)
}

func (r *CreditNoteRepo) list(ctx context.Context, query string, args ...any) ([]*entity.CreditNote, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list credit notes: %w", err)
	}
	defer rows.Close()
	var list []*entity.CreditNote
	for rows.Next() {
		var (
			cn     entity.CreditNote
			status string
			taxes  []byte
		)
		if err := rows.Scan(&cn.ID, &cn.InvoiceID, &cn.BaseAmount, &taxes, &cn.TotalAmount, &status, &cn.Reason, &cn.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan credit note: %w", err)
		}
		cn.Status = entity.CreditNoteStatus(status)
		if cn.TaxComponents, err = decodeTaxes(taxes); err != nil {
			return nil, err
		}
		list = append(list, &cn)
	}
	return list, rows.Err()
}
