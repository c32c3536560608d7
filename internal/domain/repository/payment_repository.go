package repository

import (
	"context"

	"github.com/jhoicas/billing-reconciliation/internal/domain/entity"
)

// PaymentRepository puerto de persistencia de pagos confirmados.
type PaymentRepository interface {
	Create(ctx context.Context, p *entity.Payment) error
	GetByReference(ctx context.Context, reference string) (*entity.Payment, error)
	ListByDocument(ctx context.Context, documentID string) ([]*entity.Payment, error)
}
