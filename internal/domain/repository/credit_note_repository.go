package repository

import (
	"context"

	"github.com/jhoicas/billing-reconciliation/internal/domain/entity"
)

// CreditNoteRepository puerto de persistencia de notas crédito.
type CreditNoteRepository interface {
	Create(ctx context.Context, cn *entity.CreditNote) error
	// ListApprovedByInvoice conjunto completo de notas aprobadas (para el tope).
	ListApprovedByInvoice(ctx context.Context, invoiceID string) ([]*entity.CreditNote, error)
	ListByInvoice(ctx context.Context, invoiceID string) ([]*entity.CreditNote, error)
}
