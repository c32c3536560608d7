package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/billing-reconciliation/internal/domain"
	"github.com/jhoicas/billing-reconciliation/internal/domain/entity"
	"github.com/jhoicas/billing-reconciliation/internal/domain/repository"
)

var _ repository.PaymentRepository = (*PaymentRepo)(nil)

const paymentColumns = `id, document_id, amount, reference, method, received_at`

// PaymentRepo implementación de PaymentRepository sobre PostgreSQL.
type PaymentRepo struct {
	q Querier
}

// NewPaymentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPaymentRepository(q Querier) *PaymentRepo {
	return &PaymentRepo{q: q}
}

// Create inserta el pago. La referencia es única (ErrDuplicate).
func (r *PaymentRepo) Create(ctx context.Context, p *entity.Payment) error {
	query := `INSERT INTO payments (` + paymentColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query, p.ID, p.DocumentID, p.Amount, p.Reference, p.Method, p.ReceivedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// GetByReference busca por referencia de pasarela (nil, nil si no existe).
func (r *PaymentRepo) GetByReference(ctx context.Context, reference string) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE reference = $1`
	var p entity.Payment
	err := r.q.QueryRow(ctx, query, reference).Scan(&p.ID, &p.DocumentID, &p.Amount, &p.Reference, &p.Method, &p.ReceivedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return &p, nil
}

// ListByDocument pagos del documento en orden de recepción.
func (r *PaymentRepo) ListByDocument(ctx context.Context, documentID string) ([]*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE document_id = $1 ORDER BY received_at`
	rows, err := r.q.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()
	var list []*entity.Payment
	for rows.Next() {
		var p entity.Payment
		if err := rows.Scan(&p.ID, &p.DocumentID, &p.Amount, &p.Reference, &p.Method, &p.ReceivedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}
