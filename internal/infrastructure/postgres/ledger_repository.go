package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/billing-reconciliation/internal/domain"
	"github.com/jhoicas/billing-reconciliation/internal/domain/entity"
	"github.com/jhoicas/billing-reconciliation/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

const ledgerColumns = `id, kind, company_id, client_id, number, total_amount, paid_amount,
	credit_note_amount, due_date, tax_components, status, created_at, updated_at`

// LedgerRepo implementación de LedgerRepository sobre PostgreSQL (usable con pool o tx).
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

// GetSnapshot lee el documento sin bloquear.
func (r *LedgerRepo) GetSnapshot(ctx context.Context, id string) (*entity.LedgerDocument, error) {
	return r.get(ctx, `SELECT `+ledgerColumns+` FROM ledger_documents WHERE id = $1`, id)
}

// GetForUpdate lee el documento y bloquea la fila (SELECT FOR UPDATE).
func (r *LedgerRepo) GetForUpdate(ctx context.Context, id string) (*entity.LedgerDocument, error) {
	return r.get(ctx, `SELECT `+ledgerColumns+` FROM ledger_documents WHERE id = $1 FOR UPDATE`, id)
}

func (r *LedgerRepo) get(ctx context.Context, query, id string) (*entity.LedgerDocument, error) {
	doc, err := scanDocument(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ledger document: %w", err)
	}
	return doc, nil
}

// List lista documentos de la empresa ordenados por vencimiento.
func (r *LedgerRepo) List(ctx context.Context, f repository.LedgerFilter) ([]*entity.LedgerDocument, error) {
	var (
		where = []string{"company_id = $1"}
		args  = []any{f.CompanyID}
	)
	if f.ClientID != "" {
		args = append(args, f.ClientID)
		where = append(where, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if f.Kind != "" {
		args = append(args, string(f.Kind))
		where = append(where, fmt.Sprintf("kind = $%d", len(args)))
	}
	query := `SELECT ` + ledgerColumns + ` FROM ledger_documents WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY due_date, id`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ledger documents: %w", err)
	}
	defer rows.Close()
	var list []*entity.LedgerDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger document: %w", err)
		}
		list = append(list, doc)
	}
	return list, rows.Err()
}

// UpdateBalances persiste paid_amount y credit_note_amount. La columna status
// guarda el estado derivado sólo como registro de auditoría.
func (r *LedgerRepo) UpdateBalances(ctx context.Context, doc *entity.LedgerDocument) error {
	query := `
		UPDATE ledger_documents
		SET paid_amount = $2, credit_note_amount = $3, status = $4, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, doc.ID, doc.PaidAmount, doc.CreditNoteAmount, doc.DerivedStatus().String())
	if err != nil {
		return fmt.Errorf("update ledger balances: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanDocument(row pgx.Row) (*entity.LedgerDocument, error) {
	var (
		d     entity.LedgerDocument
		kind  string
		taxes []byte
	)
	err := row.Scan(
		&d.ID, &kind, &d.CompanyID, &d.ClientID, &d.Number, &d.TotalAmount, &d.PaidAmount,
		&d.CreditNoteAmount, &d.DueDate, &taxes, &d.StoredStatus, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.Kind = entity.DocumentKind(kind)
	if d.TaxComponents, err = decodeTaxes(taxes); err != nil {
		return nil, err
	}
	return &d, nil
}
