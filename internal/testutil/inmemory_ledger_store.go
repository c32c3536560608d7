package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/jhoicas/billing-reconciliation/internal/application/billing"
	"github.com/jhoicas/billing-reconciliation/internal/domain"
	"github.com/jhoicas/billing-reconciliation/internal/domain/entity"
	"github.com/jhoicas/billing-reconciliation/internal/domain/repository"
)

var (
	_ repository.LedgerRepository     = (*ledgerView)(nil)
	_ repository.CreditNoteRepository = (*creditNoteView)(nil)
	_ repository.PaymentRepository    = (*paymentView)(nil)
	_ billing.LedgerTxRunner          = (*InMemoryStore)(nil)
)

// InMemoryStore cartera en memoria que implementa los puertos de repositorio
// y el TxRunner. RunLedger serializa las transacciones y revierte el estado
// si el callback falla.
type InMemoryStore struct {
	txMu sync.Mutex

	mu          sync.RWMutex
	docs        map[string]*entity.LedgerDocument
	creditNotes map[string]*entity.CreditNote
	payments    map[string]*entity.Payment
	queryErr    error
	snapshots   int
}

// NewInMemoryStore construye el store con documentos iniciales.
func NewInMemoryStore(docs ...*entity.LedgerDocument) *InMemoryStore {
	s := &InMemoryStore{
		docs:        make(map[string]*entity.LedgerDocument),
		creditNotes: make(map[string]*entity.CreditNote),
		payments:    make(map[string]*entity.Payment),
	}
	for _, d := range docs {
		s.docs[d.ID] = cloneDoc(d)
	}
	return s
}

// Ledger vista LedgerRepository.
func (s *InMemoryStore) Ledger() repository.LedgerRepository { return &ledgerView{s} }

// CreditNotes vista CreditNoteRepository.
func (s *InMemoryStore) CreditNotes() repository.CreditNoteRepository { return &creditNoteView{s} }

// Payments vista PaymentRepository.
func (s *InMemoryStore) Payments() repository.PaymentRepository { return &paymentView{s} }

// SeedCreditNote agrega una nota existente.
func (s *InMemoryStore) SeedCreditNote(cn *entity.CreditNote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *cn
	s.creditNotes[cn.ID] = &c
}

// SetQueryError hace fallar las lecturas de snapshot (nil lo desactiva).
func (s *InMemoryStore) SetQueryError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queryErr = err
}

// SnapshotReads número de lecturas de snapshot atendidas.
func (s *InMemoryStore) SnapshotReads() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshots
}

// Mutate modifica un documento como lo haría el backend de facturación.
func (s *InMemoryStore) Mutate(id string, fn func(d *entity.LedgerDocument)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.docs[id]; ok {
		fn(d)
	}
}

// RunLedger implementa billing.LedgerTxRunner.
func (s *InMemoryStore) RunLedger(ctx context.Context, fn func(
	ledgerRepo repository.LedgerRepository,
	creditNoteRepo repository.CreditNoteRepository,
	paymentRepo repository.PaymentRepository,
) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	backup := s.backup()
	if err := fn(s.Ledger(), s.CreditNotes(), s.Payments()); err != nil {
		s.restore(backup)
		return err
	}
	return nil
}

type storeBackup struct {
	docs        map[string]*entity.LedgerDocument
	creditNotes map[string]*entity.CreditNote
	payments    map[string]*entity.Payment
}

func (s *InMemoryStore) backup() storeBackup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b := storeBackup{
		docs:        make(map[string]*entity.LedgerDocument, len(s.docs)),
		creditNotes: make(map[string]*entity.CreditNote, len(s.creditNotes)),
		payments:    make(map[string]*entity.Payment, len(s.payments)),
	}
	for k, v := range s.docs {
		b.docs[k] = cloneDoc(v)
	}
	for k, v := range s.creditNotes {
		c := *v
		b.creditNotes[k] = &c
	}
	for k, v := range s.payments {
		p := *v
		b.payments[k] = &p
	}
	return b
}

func (s *InMemoryStore) restore(b storeBackup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs, s.creditNotes, s.payments = b.docs, b.creditNotes, b.payments
}

func cloneDoc(d *entity.LedgerDocument) *entity.LedgerDocument {
	c := *d
	c.TaxComponents = d.TaxComponents.Clone()
	return &c
}

// ── LedgerRepository ─────────────────────────────────────────────────────────

type ledgerView struct{ s *InMemoryStore }

func (v *ledgerView) GetSnapshot(ctx context.Context, id string) (*entity.LedgerDocument, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	v.s.snapshots++
	if v.s.queryErr != nil {
		return nil, v.s.queryErr
	}
	d, ok := v.s.docs[id]
	if !ok {
		return nil, nil
	}
	return cloneDoc(d), nil
}

func (v *ledgerView) GetForUpdate(ctx context.Context, id string) (*entity.LedgerDocument, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	d, ok := v.s.docs[id]
	if !ok {
		return nil, nil
	}
	return cloneDoc(d), nil
}

func (v *ledgerView) List(ctx context.Context, f repository.LedgerFilter) ([]*entity.LedgerDocument, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	var out []*entity.LedgerDocument
	for _, d := range v.s.docs {
		if f.CompanyID != "" && d.CompanyID != f.CompanyID {
			continue
		}
		if f.ClientID != "" && d.ClientID != f.ClientID {
			continue
		}
		if f.Kind != "" && d.Kind != f.Kind {
			continue
		}
		out = append(out, cloneDoc(d))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (v *ledgerView) UpdateBalances(ctx context.Context, doc *entity.LedgerDocument) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	d, ok := v.s.docs[doc.ID]
	if !ok {
		return domain.ErrNotFound
	}
	d.PaidAmount = doc.PaidAmount
	d.CreditNoteAmount = doc.CreditNoteAmount
	d.StoredStatus = doc.DerivedStatus().String()
	d.UpdatedAt = doc.UpdatedAt
	return nil
}

// ── CreditNoteRepository ─────────────────────────────────────────────────────

type creditNoteView struct{ s *InMemoryStore }

func (v *creditNoteView) Create(ctx context.Context, cn *entity.CreditNote) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, dup := v.s.creditNotes[cn.ID]; dup {
		return domain.ErrDuplicate
	}
	c := *cn
	c.TaxComponents = cn.TaxComponents.Clone()
	v.s.creditNotes[cn.ID] = &c
	return nil
}

func (v *creditNoteView) ListApprovedByInvoice(ctx context.Context, invoiceID string) ([]*entity.CreditNote, error) {
	all, _ := v.ListByInvoice(ctx, invoiceID)
	out := all[:0]
	for _, cn := range all {
		if cn.Status == entity.CreditNoteStatusApproved {
			out = append(out, cn)
		}
	}
	return out, nil
}

func (v *creditNoteView) ListByInvoice(ctx context.Context, invoiceID string) ([]*entity.CreditNote, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	var out []*entity.CreditNote
	for _, cn := range v.s.creditNotes {
		if cn.InvoiceID == invoiceID {
			c := *cn
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ── PaymentRepository ────────────────────────────────────────────────────────

type paymentView struct{ s *InMemoryStore }

func (v *paymentView) Create(ctx context.Context, p *entity.Payment) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, existing := range v.s.payments {
		if existing.Reference == p.Reference {
			return domain.ErrDuplicate
		}
	}
	c := *p
	v.s.payments[p.ID] = &c
	return nil
}

func (v *paymentView) GetByReference(ctx context.Context, reference string) (*entity.Payment, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	for _, p := range v.s.payments {
		if p.Reference == reference {
			c := *p
			return &c, nil
		}
	}
	return nil, nil
}

func (v *paymentView) ListByDocument(ctx context.Context, documentID string) ([]*entity.Payment, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	var out []*entity.Payment
	for _, p := range v.s.payments {
		if p.DocumentID == documentID {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceivedAt.Before(out[j].ReceivedAt) })
	return out, nil
}
