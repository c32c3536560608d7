package billing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/billing-reconciliation/internal/application/dto"
	"github.com/jhoicas/billing-reconciliation/internal/domain"
	"github.com/jhoicas/billing-reconciliation/internal/domain/entity"
	"github.com/jhoicas/billing-reconciliation/internal/domain/reconciliation"
	"github.com/jhoicas/billing-reconciliation/internal/domain/repository"
	"github.com/jhoicas/billing-reconciliation/pkg/logger"
)

// CreditNoteUseCase emisión de notas crédito con tope por factura.
type CreditNoteUseCase struct {
	txRunner       LedgerTxRunner
	ledgerRepo     repository.LedgerRepository
	creditNoteRepo repository.CreditNoteRepository
	log            *logger.Logger
}

// NewCreditNoteUseCase construye el caso de uso.
func NewCreditNoteUseCase(
	txRunner LedgerTxRunner,
	ledgerRepo repository.LedgerRepository,
	creditNoteRepo repository.CreditNoteRepository,
	log *logger.Logger,
) *CreditNoteUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &CreditNoteUseCase{
		txRunner:       txRunner,
		ledgerRepo:     ledgerRepo,
		creditNoteRepo: creditNoteRepo,
		log:            log.Component("credit_notes"),
	}
}

// Preview valida la nota contra el tope sin persistir nada.
func (uc *CreditNoteUseCase) Preview(ctx context.Context, companyID, invoiceID string, in dto.CreditNoteRequest) (*dto.CreditNotePreviewResponse, error) {
	invoice, err := uc.ledgerRepo.GetSnapshot(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice, err = checkTenant(invoice, companyID); err != nil {
		return nil, err
	}
	existing, err := uc.creditNoteRepo.ListApprovedByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	cn, err := reconciliation.ProposeCreditNote(invoice, in.BaseAmount, existing)
	if err != nil {
		return nil, err
	}
	cn.Reason = in.Reason
	remaining, existingTotal := reconciliation.RemainingClaimable(invoice, existing)
	return &dto.CreditNotePreviewResponse{
		CreditNote:      ToCreditNoteResponse(cn),
		RemainingAmount: remaining,
		ExistingTotal:   existingTotal,
		MaxBaseAmount:   reconciliation.MaxCreditBase(invoice, existing),
	}, nil
}

// Create emite la nota en una transacción: bloquea la factura, carga las notas
// aprobadas, valida el tope y sólo entonces persiste nota y saldo.
func (uc *CreditNoteUseCase) Create(ctx context.Context, companyID, invoiceID string, in dto.CreditNoteRequest) (*dto.CreditNoteResponse, error) {
	if !in.BaseAmount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	var created *entity.CreditNote
	err := uc.txRunner.RunLedger(ctx, func(
		ledgerRepo repository.LedgerRepository,
		creditNoteRepo repository.CreditNoteRepository,
		_ repository.PaymentRepository,
	) error {
		invoice, err := ledgerRepo.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if invoice, err = checkTenant(invoice, companyID); err != nil {
			return err
		}
		existing, err := creditNoteRepo.ListApprovedByInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}
		cn, err := reconciliation.ProposeCreditNote(invoice, in.BaseAmount, existing)
		if err != nil {
			return err
		}
		cn.ID = uuid.New().String()
		cn.Reason = in.Reason
		cn.Status = entity.CreditNoteStatusApproved
		cn.CreatedAt = time.Now()
		if err := invoice.ApplyCreditNote(cn, existing); err != nil {
			return err
		}
		if err := creditNoteRepo.Create(ctx, cn); err != nil {
			return err
		}
		if err := ledgerRepo.UpdateBalances(ctx, invoice); err != nil {
			return err
		}
		created = cn
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("invoice_id", invoiceID).
		Str("credit_note_id", created.ID).
		Str("total", created.TotalAmount.StringFixed(2)).
		Msg("nota crédito emitida")
	out := ToCreditNoteResponse(created)
	return &out, nil
}

// ListByInvoice notas crédito de la factura (todos los estados).
func (uc *CreditNoteUseCase) ListByInvoice(ctx context.Context, companyID, invoiceID string) ([]dto.CreditNoteResponse, error) {
	invoice, err := uc.ledgerRepo.GetSnapshot(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if _, err := checkTenant(invoice, companyID); err != nil {
		return nil, err
	}
	notes, err := uc.creditNoteRepo.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CreditNoteResponse, 0, len(notes))
	for _, cn := range notes {
		out = append(out, ToCreditNoteResponse(cn))
	}
	return out, nil
}
