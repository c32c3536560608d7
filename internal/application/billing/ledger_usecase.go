package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/jhoicas/billing-reconciliation/internal/application/dto"
	"github.com/jhoicas/billing-reconciliation/internal/domain"
	"github.com/jhoicas/billing-reconciliation/internal/domain/duewindow"
	"github.com/jhoicas/billing-reconciliation/internal/domain/entity"
	"github.com/jhoicas/billing-reconciliation/internal/domain/reconciliation"
	"github.com/jhoicas/billing-reconciliation/internal/domain/repository"
)

// summaryPageSize tamaño de lote al recorrer la cartera completa para el resumen.
const summaryPageSize = 500

// LedgerUseCase consultas de cartera: saldo, listados por ventana y resumen.
type LedgerUseCase struct {
	ledgerRepo  repository.LedgerRepository
	paymentRepo repository.PaymentRepository
	now         func() time.Time
}

// NewLedgerUseCase construye el caso de uso.
func NewLedgerUseCase(ledgerRepo repository.LedgerRepository, paymentRepo repository.PaymentRepository) *LedgerUseCase {
	return &LedgerUseCase{ledgerRepo: ledgerRepo, paymentRepo: paymentRepo, now: time.Now}
}

// WithNow reemplaza el reloj (fecha de corte por defecto).
func (uc *LedgerUseCase) WithNow(now func() time.Time) *LedgerUseCase {
	uc.now = now
	return uc
}

// GetReconciliation devuelve saldo pendiente y estado derivado del documento.
func (uc *LedgerUseCase) GetReconciliation(ctx context.Context, companyID, documentID string) (*dto.ReconciliationResponse, error) {
	doc, err := uc.load(ctx, companyID, documentID)
	if err != nil {
		return nil, err
	}
	out := ToReconciliationResponse(doc, uc.now())
	return &out, nil
}

// List lista documentos de la empresa que caen en la ventana a la fecha de corte.
func (uc *LedgerUseCase) List(ctx context.Context, companyID string, in dto.LedgerQuery) (*dto.LedgerListResponse, error) {
	w, asOf, err := uc.windowAndDate(in.Window, in.AsOf)
	if err != nil {
		return nil, err
	}
	kind, err := parseKind(in.Kind)
	if err != nil {
		return nil, err
	}
	in.DefaultPage()
	docs, err := uc.ledgerRepo.List(ctx, repository.LedgerFilter{
		CompanyID: companyID,
		ClientID:  in.ClientID,
		Kind:      kind,
		Limit:     in.Limit,
		Offset:    in.Offset,
	})
	if err != nil {
		return nil, err
	}
	selected := duewindow.Filter(docs, asOf, w)
	items := make([]dto.ReconciliationResponse, 0, len(selected))
	for _, d := range selected {
		items = append(items, ToReconciliationResponse(d, asOf))
	}
	return &dto.LedgerListResponse{
		Window: w.String(),
		AsOf:   asOf.Format(dateLayout),
		Items:  items,
		Page:   dto.PageResponse{Limit: in.Limit, Offset: in.Offset, Scanned: len(docs), Count: len(items)},
	}, nil
}

// Summary totales de la cartera de la empresa dentro de la ventana.
func (uc *LedgerUseCase) Summary(ctx context.Context, companyID, window, asOfStr string) (*dto.LedgerSummaryResponse, error) {
	w, asOf, err := uc.windowAndDate(window, asOfStr)
	if err != nil {
		return nil, err
	}
	docs, err := uc.loadAll(ctx, companyID)
	if err != nil {
		return nil, err
	}
	s := reconciliation.Summarize(duewindow.Filter(docs, asOf, w))
	byStatus := make(map[string]int, len(s.ByStatus))
	for st, n := range s.ByStatus {
		byStatus[st.String()] = n
	}
	return &dto.LedgerSummaryResponse{
		Window:           w.String(),
		AsOf:             asOf.Format(dateLayout),
		Documents:        s.Documents,
		TotalAmount:      s.TotalAmount,
		PaidAmount:       s.PaidAmount,
		CreditNoteAmount: s.CreditNoteAmount,
		Outstanding:      s.Outstanding,
		ByStatus:         byStatus,
	}, nil
}

// Aging reparte la cartera en las ventanas pedidas (separadas por coma) a la
// fecha de corte. Las ventanas se solapan: next:N incluye los vencidos.
func (uc *LedgerUseCase) Aging(ctx context.Context, companyID, windows, asOfStr string) (*dto.LedgerAgingResponse, error) {
	asOf, err := ParseAsOf(asOfStr, uc.now())
	if err != nil {
		return nil, fmt.Errorf("as_of %q: %w", asOfStr, domain.ErrInvalidInput)
	}
	if strings.TrimSpace(windows) == "" {
		windows = "overdue,next:7,next:30,all"
	}
	var ws []duewindow.Window
	for _, raw := range strings.Split(windows, ",") {
		w, err := duewindow.Parse(strings.TrimSpace(raw))
		if err != nil {
			return nil, err
		}
		ws = append(ws, w)
	}
	ws = lo.UniqBy(ws, duewindow.Window.String)

	docs, err := uc.loadAll(ctx, companyID)
	if err != nil {
		return nil, err
	}
	buckets := duewindow.Partition(docs, asOf, ws...)
	out := &dto.LedgerAgingResponse{AsOf: asOf.Format(dateLayout), Buckets: make([]dto.AgingBucket, 0, len(ws))}
	for _, w := range ws {
		s := reconciliation.Summarize(buckets[w.String()])
		out.Buckets = append(out.Buckets, dto.AgingBucket{
			Window:      w.String(),
			Documents:   s.Documents,
			TotalAmount: s.TotalAmount,
			Outstanding: s.Outstanding,
		})
	}
	return out, nil
}

// loadAll recorre la cartera completa de la empresa en lotes.
func (uc *LedgerUseCase) loadAll(ctx context.Context, companyID string) ([]*entity.LedgerDocument, error) {
	var all []*entity.LedgerDocument
	for offset := 0; ; offset += summaryPageSize {
		page, err := uc.ledgerRepo.List(ctx, repository.LedgerFilter{
			CompanyID: companyID,
			Limit:     summaryPageSize,
			Offset:    offset,
		})
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < summaryPageSize {
			return all, nil
		}
	}
}

// ListPayments pagos registrados contra el documento.
func (uc *LedgerUseCase) ListPayments(ctx context.Context, companyID, documentID string) ([]dto.PaymentResponse, error) {
	if _, err := uc.load(ctx, companyID, documentID); err != nil {
		return nil, err
	}
	payments, err := uc.paymentRepo.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, ToPaymentResponse(p))
	}
	return out, nil
}

func (uc *LedgerUseCase) load(ctx context.Context, companyID, documentID string) (*entity.LedgerDocument, error) {
	doc, err := uc.ledgerRepo.GetSnapshot(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return checkTenant(doc, companyID)
}

func (uc *LedgerUseCase) windowAndDate(window, asOfStr string) (duewindow.Window, time.Time, error) {
	w, err := duewindow.Parse(window)
	if err != nil {
		return duewindow.Window{}, time.Time{}, err
	}
	asOf, err := ParseAsOf(asOfStr, uc.now())
	if err != nil {
		return duewindow.Window{}, time.Time{}, fmt.Errorf("as_of %q: %w", asOfStr, domain.ErrInvalidInput)
	}
	return w, asOf, nil
}

// checkTenant nil -> ErrNotFound; otra empresa -> ErrForbidden.
func checkTenant(doc *entity.LedgerDocument, companyID string) (*entity.LedgerDocument, error) {
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	if companyID != "" && doc.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return doc, nil
}

func parseKind(s string) (entity.DocumentKind, error) {
	if s == "" {
		return "", nil
	}
	k := entity.DocumentKind(strings.ToUpper(s))
	if !k.IsValid() {
		return "", fmt.Errorf("kind %q: %w", s, domain.ErrInvalidInput)
	}
	return k, nil
}
