package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/billing-reconciliation/internal/application/dto"
	"github.com/jhoicas/billing-reconciliation/internal/domain"
	"github.com/jhoicas/billing-reconciliation/internal/domain/entity"
	"github.com/jhoicas/billing-reconciliation/internal/domain/repository"
	"github.com/jhoicas/billing-reconciliation/pkg/logger"
)

// PaymentUseCase registro de pagos confirmados contra facturas y notas débito.
type PaymentUseCase struct {
	txRunner LedgerTxRunner
	log      *logger.Logger
}

// NewPaymentUseCase construye el caso de uso.
func NewPaymentUseCase(txRunner LedgerTxRunner, log *logger.Logger) *PaymentUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &PaymentUseCase{txRunner: txRunner, log: log.Component("payments")}
}

// RecordPayment valida el monto localmente y en una transacción suma el pago al
// documento. Un monto no positivo se rechaza sin tocar la base de datos.
func (uc *PaymentUseCase) RecordPayment(ctx context.Context, companyID, documentID string, in dto.RecordPaymentRequest) (*dto.RecordPaymentResponse, error) {
	if !in.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	reference := strings.TrimSpace(in.Reference)
	if reference == "" {
		return nil, fmt.Errorf("referencia vacía: %w", domain.ErrInvalidInput)
	}
	var (
		doc     *entity.LedgerDocument
		payment *entity.Payment
	)
	err := uc.txRunner.RunLedger(ctx, func(
		ledgerRepo repository.LedgerRepository,
		_ repository.CreditNoteRepository,
		paymentRepo repository.PaymentRepository,
	) error {
		d, err := ledgerRepo.GetForUpdate(ctx, documentID)
		if err != nil {
			return err
		}
		if d, err = checkTenant(d, companyID); err != nil {
			return err
		}
		prev, err := paymentRepo.GetByReference(ctx, reference)
		if err != nil {
			return err
		}
		if prev != nil {
			return fmt.Errorf("referencia %s: %w", reference, domain.ErrDuplicate)
		}
		if err := d.ApplyPayment(in.Amount); err != nil {
			return err
		}
		p := &entity.Payment{
			ID:         uuid.New().String(),
			DocumentID: d.ID,
			Amount:     in.Amount,
			Reference:  reference,
			Method:     in.Method,
			ReceivedAt: time.Now(),
		}
		if err := paymentRepo.Create(ctx, p); err != nil {
			return err
		}
		if err := ledgerRepo.UpdateBalances(ctx, d); err != nil {
			return err
		}
		doc, payment = d, p
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("document_id", documentID).
		Str("reference", reference).
		Str("amount", in.Amount.StringFixed(2)).
		Msg("pago registrado")
	return &dto.RecordPaymentResponse{
		Payment:        ToPaymentResponse(payment),
		Reconciliation: ToReconciliationResponse(doc, time.Now()),
	}, nil
}
