package billing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/billing-reconciliation/internal/application/billing"
	"github.com/jhoicas/billing-reconciliation/internal/application/dto"
	"github.com/jhoicas/billing-reconciliation/internal/domain"
	"github.com/jhoicas/billing-reconciliation/internal/domain/entity"
	"github.com/jhoicas/billing-reconciliation/internal/domain/repository"
	"github.com/jhoicas/billing-reconciliation/internal/testutil"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const company = "co-1"

var asOf = time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func gst18() entity.TaxSchedule {
	return entity.TaxSchedule{{Name: "CGST", Rate: d("9")}, {Name: "SGST", Rate: d("9")}}
}

func doc(t *testing.T, kind entity.DocumentKind, id, total string, due time.Time) *entity.LedgerDocument {
	t.Helper()
	var (
		out *entity.LedgerDocument
		err error
	)
	if kind == entity.KindDebitNote {
		out, err = entity.NewDebitNote(id, company, "cl-1", d(total), due, gst18())
	} else {
		out, err = entity.NewInvoice(id, company, "cl-1", d(total), due, gst18())
	}
	require.NoError(t, err)
	return out
}

func days(n int) time.Time { return asOf.AddDate(0, 0, n) }

// countingRunner cuenta las transacciones abiertas.
type countingRunner struct {
	*testutil.InMemoryStore
	calls int
}

func (r *countingRunner) RunLedger(ctx context.Context, fn func(
	repository.LedgerRepository, repository.CreditNoteRepository, repository.PaymentRepository,
) error) error {
	r.calls++
	return r.InMemoryStore.RunLedger(ctx, fn)
}

// ──────────────────────────────────────────────────────────────────────────────
// LedgerUseCase
// ──────────────────────────────────────────────────────────────────────────────

func newLedgerUC(store *testutil.InMemoryStore) *billing.LedgerUseCase {
	return billing.NewLedgerUseCase(store.Ledger(), store.Payments()).
		WithNow(func() time.Time { return asOf })
}

func TestLedger_GetReconciliation(t *testing.T) {
	inv := doc(t, entity.KindInvoice, "inv-1", "1000", days(-1))
	inv.PaidAmount = d("400")
	store := testutil.NewInMemoryStore(inv)
	uc := newLedgerUC(store)

	out, err := uc.GetReconciliation(context.Background(), company, "inv-1")
	require.NoError(t, err)
	assert.True(t, d("600").Equal(out.OutstandingAmount))
	assert.Equal(t, "PARTIALLY_PAID", out.Status)
	assert.True(t, out.Overdue)
	assert.Len(t, out.TaxComponents, 2)
}

func TestLedger_GetReconciliation_NoEncontradoYOtraEmpresa(t *testing.T) {
	store := testutil.NewInMemoryStore(doc(t, entity.KindInvoice, "inv-1", "1000", days(3)))
	uc := newLedgerUC(store)

	_, err := uc.GetReconciliation(context.Background(), company, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.GetReconciliation(context.Background(), "co-2", "inv-1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// Ventana de 10 días: incluye el que vence en 9 días y el vencido con saldo,
// excluye el de 11 días.
func TestLedger_List_VentanaProximosDias(t *testing.T) {
	store := testutil.NewInMemoryStore(
		doc(t, entity.KindInvoice, "inv-9", "100", days(9)),
		doc(t, entity.KindInvoice, "inv-11", "100", days(11)),
		doc(t, entity.KindDebitNote, "dn-past", "50", days(-5)),
	)
	uc := newLedgerUC(store)

	out, err := uc.List(context.Background(), company, dto.LedgerQuery{Window: "next:10"})
	require.NoError(t, err)
	ids := make([]string, 0, len(out.Items))
	for _, it := range out.Items {
		ids = append(ids, it.ID)
	}
	assert.ElementsMatch(t, []string{"inv-9", "dn-past"}, ids)
	assert.Equal(t, "2026-10-15", out.AsOf)
	assert.Equal(t, 20, out.Page.Limit)
	// la página leyó 3 filas y la ventana dejó 2; no es un total de cartera
	assert.Equal(t, 3, out.Page.Scanned)
	assert.Equal(t, 2, out.Page.Count)
}

func TestLedger_List_FiltroTipoYFechaDeCorte(t *testing.T) {
	store := testutil.NewInMemoryStore(
		doc(t, entity.KindInvoice, "inv-1", "100", days(2)),
		doc(t, entity.KindDebitNote, "dn-1", "50", days(2)),
	)
	uc := newLedgerUC(store)

	out, err := uc.List(context.Background(), company, dto.LedgerQuery{
		Kind:   "debit_note",
		Window: "overdue",
		AsOf:   days(5).Format("2006-01-02"),
	})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "dn-1", out.Items[0].ID)
	assert.True(t, out.Items[0].Overdue)
}

func TestLedger_List_ParametrosInvalidos(t *testing.T) {
	uc := newLedgerUC(testutil.NewInMemoryStore())
	for _, q := range []dto.LedgerQuery{
		{Window: "next:-1"},
		{Window: "someday"},
		{AsOf: "15/10/2026"},
		{Kind: "receipt"},
	} {
		_, err := uc.List(context.Background(), company, q)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "%+v", q)
	}
}

func TestLedger_Summary(t *testing.T) {
	paid := doc(t, entity.KindInvoice, "inv-paid", "100", days(-3))
	paid.PaidAmount = d("100")
	partial := doc(t, entity.KindInvoice, "inv-partial", "200", days(-1))
	partial.PaidAmount = d("50")
	store := testutil.NewInMemoryStore(paid, partial, doc(t, entity.KindDebitNote, "dn-1", "30", days(4)))
	uc := newLedgerUC(store)

	out, err := uc.Summary(context.Background(), company, "", "")
	require.NoError(t, err)
	assert.Equal(t, 3, out.Documents)
	assert.True(t, d("330").Equal(out.TotalAmount))
	assert.True(t, d("180").Equal(out.Outstanding))
	assert.Equal(t, 1, out.ByStatus["PAID"])
	assert.Equal(t, 1, out.ByStatus["PARTIALLY_PAID"])
	assert.Equal(t, 1, out.ByStatus["UNPAID"])

	overdue, err := uc.Summary(context.Background(), company, "overdue", "")
	require.NoError(t, err)
	assert.Equal(t, 1, overdue.Documents, "el pagado no cuenta como vencido")
}

// Las ventanas se solapan: next:7 incluye el vencido con saldo.
func TestLedger_Aging(t *testing.T) {
	paid := doc(t, entity.KindInvoice, "inv-paid", "100", days(-3))
	paid.PaidAmount = d("100")
	partial := doc(t, entity.KindInvoice, "inv-partial", "200", days(-1))
	partial.PaidAmount = d("50")
	store := testutil.NewInMemoryStore(paid, partial,
		doc(t, entity.KindDebitNote, "dn-1", "30", days(4)),
		doc(t, entity.KindInvoice, "inv-far", "500", days(40)),
	)
	uc := newLedgerUC(store)

	out, err := uc.Aging(context.Background(), company, "overdue, next:7,overdue", "")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-15", out.AsOf)
	require.Len(t, out.Buckets, 2, "ventanas repetidas se ignoran")

	assert.Equal(t, "overdue", out.Buckets[0].Window)
	assert.Equal(t, 1, out.Buckets[0].Documents)
	assert.True(t, d("150").Equal(out.Buckets[0].Outstanding))

	assert.Equal(t, "next:7", out.Buckets[1].Window)
	assert.Equal(t, 3, out.Buckets[1].Documents)
	assert.True(t, d("180").Equal(out.Buckets[1].Outstanding))

	def, err := uc.Aging(context.Background(), company, "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"overdue", "next:7", "next:30", "all"},
		lo.Map(def.Buckets, func(b dto.AgingBucket, _ int) string { return b.Window }))

	_, err = uc.Aging(context.Background(), company, "overdue,someday", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// CreditNoteUseCase
// ──────────────────────────────────────────────────────────────────────────────

func newCreditNoteUC(store *testutil.InMemoryStore) *billing.CreditNoteUseCase {
	return billing.NewCreditNoteUseCase(store, store.Ledger(), store.CreditNotes(), nil)
}

// Factura de 1000 con 300 ya acreditados: 600 de base (708) excede el tope.
func seededInvoice(t *testing.T) *testutil.InMemoryStore {
	inv := doc(t, entity.KindInvoice, "inv-1", "1000", days(10))
	inv.CreditNoteAmount = d("300")
	store := testutil.NewInMemoryStore(inv)
	store.SeedCreditNote(&entity.CreditNote{
		ID: "cn-0", InvoiceID: "inv-1", BaseAmount: d("254.24"), TotalAmount: d("300"),
		Status: entity.CreditNoteStatusApproved, CreatedAt: asOf.Add(-time.Hour),
	})
	return store
}

func TestCreditNote_Preview(t *testing.T) {
	store := seededInvoice(t)
	uc := newCreditNoteUC(store)

	out, err := uc.Preview(context.Background(), company, "inv-1", dto.CreditNoteRequest{BaseAmount: d("500")})
	require.NoError(t, err)
	assert.True(t, d("590").Equal(out.CreditNote.TotalAmount))
	assert.True(t, d("700").Equal(out.RemainingAmount))
	assert.True(t, d("300").Equal(out.ExistingTotal))
	// 700 / 1.18 = 593.2203... truncado a centavos
	assert.True(t, d("593.22").Equal(out.MaxBaseAmount), out.MaxBaseAmount.String())
	assert.Equal(t, "PENDING", out.CreditNote.Status)

	notes, _ := store.CreditNotes().ListByInvoice(context.Background(), "inv-1")
	assert.Len(t, notes, 1, "preview no persiste")
}

func TestCreditNote_Create_RechazaSobreTopeSinPersistir(t *testing.T) {
	store := seededInvoice(t)
	uc := newCreditNoteUC(store)

	_, err := uc.Create(context.Background(), company, "inv-1", dto.CreditNoteRequest{BaseAmount: d("600")})
	require.Error(t, err)
	var capErr *domain.CapExceededError
	require.True(t, errors.As(err, &capErr))
	assert.True(t, d("708").Equal(capErr.ProposedTotal))
	assert.True(t, d("700").Equal(capErr.RemainingAmount))

	notes, _ := store.CreditNotes().ListByInvoice(context.Background(), "inv-1")
	assert.Len(t, notes, 1)
	inv, _ := store.Ledger().GetSnapshot(context.Background(), "inv-1")
	assert.True(t, d("300").Equal(inv.CreditNoteAmount))
}

func TestCreditNote_Create_AceptaYActualizaSaldo(t *testing.T) {
	store := seededInvoice(t)
	uc := newCreditNoteUC(store)

	out, err := uc.Create(context.Background(), company, "inv-1", dto.CreditNoteRequest{BaseAmount: d("500"), Reason: "devolución"})
	require.NoError(t, err)
	assert.NotEmpty(t, out.ID)
	assert.Equal(t, "APPROVED", out.Status)
	assert.True(t, d("590").Equal(out.TotalAmount))

	inv, _ := store.Ledger().GetSnapshot(context.Background(), "inv-1")
	assert.True(t, d("890").Equal(inv.CreditNoteAmount))
	assert.True(t, d("110").Equal(inv.OutstandingAmount()))

	// Con 890 acreditados sólo caben 110 más.
	_, err = uc.Create(context.Background(), company, "inv-1", dto.CreditNoteRequest{BaseAmount: d("100")})
	assert.ErrorIs(t, err, domain.ErrCapExceeded)

	list, err := uc.ListByInvoice(context.Background(), company, "inv-1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestCreditNote_Create_Errores(t *testing.T) {
	store := testutil.NewInMemoryStore(doc(t, entity.KindDebitNote, "dn-1", "100", days(1)))
	uc := newCreditNoteUC(store)

	_, err := uc.Create(context.Background(), company, "dn-1", dto.CreditNoteRequest{BaseAmount: d("10")})
	assert.ErrorIs(t, err, domain.ErrCreditNotAllowed)

	_, err = uc.Create(context.Background(), company, "dn-1", dto.CreditNoteRequest{BaseAmount: d("0")})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = uc.Create(context.Background(), company, "missing", dto.CreditNoteRequest{BaseAmount: d("10")})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.Create(context.Background(), "co-2", "dn-1", dto.CreditNoteRequest{BaseAmount: d("10")})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// ──────────────────────────────────────────────────────────────────────────────
// PaymentUseCase
// ──────────────────────────────────────────────────────────────────────────────

func TestPayment_RecordPayment(t *testing.T) {
	store := testutil.NewInMemoryStore(doc(t, entity.KindInvoice, "inv-1", "1000", days(5)))
	uc := billing.NewPaymentUseCase(store, nil)

	out, err := uc.RecordPayment(context.Background(), company, "inv-1", dto.RecordPaymentRequest{Amount: d("400"), Reference: "gw-1"})
	require.NoError(t, err)
	assert.Equal(t, "PARTIALLY_PAID", out.Reconciliation.Status)
	assert.True(t, d("600").Equal(out.Reconciliation.OutstandingAmount))
	assert.Equal(t, "gw-1", out.Payment.Reference)

	out, err = uc.RecordPayment(context.Background(), company, "inv-1", dto.RecordPaymentRequest{Amount: d("600"), Reference: "gw-2"})
	require.NoError(t, err)
	assert.Equal(t, "PAID", out.Reconciliation.Status)

	payments, _ := store.Payments().ListByDocument(context.Background(), "inv-1")
	assert.Len(t, payments, 2)
}

// Un monto no positivo se rechaza antes de abrir la transacción.
func TestPayment_RecordPayment_MontoInvalidoNoTocaRepositorio(t *testing.T) {
	runner := &countingRunner{InMemoryStore: testutil.NewInMemoryStore(doc(t, entity.KindInvoice, "inv-1", "1000", days(5)))}
	uc := billing.NewPaymentUseCase(runner, nil)

	for _, amt := range []string{"0", "-5"} {
		_, err := uc.RecordPayment(context.Background(), company, "inv-1", dto.RecordPaymentRequest{Amount: d(amt), Reference: "gw-1"})
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	}
	assert.Zero(t, runner.calls)
}

func TestPayment_RecordPayment_ReferenciaDuplicadaRevierte(t *testing.T) {
	store := testutil.NewInMemoryStore(doc(t, entity.KindInvoice, "inv-1", "1000", days(5)))
	uc := billing.NewPaymentUseCase(store, nil)

	_, err := uc.RecordPayment(context.Background(), company, "inv-1", dto.RecordPaymentRequest{Amount: d("100"), Reference: "gw-1"})
	require.NoError(t, err)
	_, err = uc.RecordPayment(context.Background(), company, "inv-1", dto.RecordPaymentRequest{Amount: d("100"), Reference: "gw-1"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	inv, _ := store.Ledger().GetSnapshot(context.Background(), "inv-1")
	assert.True(t, d("100").Equal(inv.PaidAmount))
}
