package repository

import (
	"context"

	"github.com/jhoicas/billing-reconciliation/internal/domain/entity"
)

// LedgerFilter criterios de listado de documentos de cartera.
type LedgerFilter struct {
	CompanyID string
	ClientID  string              // opcional
	Kind      entity.DocumentKind // opcional
	Limit     int
	Offset    int
}

// LedgerRepository puerto de lectura/escritura del snapshot de facturas y notas débito.
type LedgerRepository interface {
	// GetSnapshot devuelve el estado actual del documento (nil, nil si no existe).
	// Es de sólo lectura e idempotente: se usa para el polling de confirmación.
	GetSnapshot(ctx context.Context, id string) (*entity.LedgerDocument, error)
	// GetForUpdate igual que GetSnapshot pero bloquea la fila dentro de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.LedgerDocument, error)
	List(ctx context.Context, filter LedgerFilter) ([]*entity.LedgerDocument, error)
	// UpdateBalances persiste paid_amount, credit_note_amount y el estado de auditoría.
	UpdateBalances(ctx context.Context, doc *entity.LedgerDocument) error
}
