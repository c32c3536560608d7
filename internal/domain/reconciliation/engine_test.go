package reconciliation_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/billing-reconciliation/internal/domain"
	"github.com/jhoicas/billing-reconciliation/internal/domain/entity"
	"github.com/jhoicas/billing-reconciliation/internal/domain/reconciliation"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func gst18() entity.TaxSchedule {
	return entity.TaxSchedule{
		{Name: "CGST", Rate: d("9")},
		{Name: "SGST", Rate: d("9")},
	}
}

func invoice(t *testing.T, total, paid, credited string) *entity.LedgerDocument {
	t.Helper()
	inv, err := entity.NewInvoice("inv-1", "co-1", "cl-1", d(total), time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), gst18())
	require.NoError(t, err)
	inv.PaidAmount = d(paid)
	inv.CreditNoteAmount = d(credited)
	return inv
}

func approved(invoiceID, total string) *entity.CreditNote {
	return &entity.CreditNote{ID: "cn-" + total, InvoiceID: invoiceID, TotalAmount: d(total), Status: entity.CreditNoteStatusApproved}
}

// ──────────────────────────────────────────────────────────────────────────────
// Reconcile
// ──────────────────────────────────────────────────────────────────────────────

func TestReconcile_SaldoYEstado(t *testing.T) {
	cases := []struct {
		name        string
		total       string
		paid        string
		credited    string
		outstanding string
		status      entity.DerivedStatus
	}{
		{"sin pagos", "1000", "0", "0", "1000", entity.StatusUnpaid},
		{"pago parcial", "1000", "400", "0", "600", entity.StatusPartiallyPaid},
		{"pago total", "1000", "1000", "0", "0", entity.StatusPaid},
		{"pago más nota crédito", "1000", "500", "500", "0", entity.StatusPaid},
		{"sobrepago nunca da saldo negativo", "1000", "900", "300", "0", entity.StatusPaid},
		{"sólo nota crédito parcial", "1000", "0", "200", "800", entity.StatusUnpaid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := reconciliation.Reconcile(invoice(t, tc.total, tc.paid, tc.credited))
			assert.True(t, d(tc.outstanding).Equal(r.OutstandingAmount), "pendiente esperado %s, obtenido %s", tc.outstanding, r.OutstandingAmount)
			assert.Equal(t, tc.status, r.Status)
			assert.False(t, r.OutstandingAmount.IsNegative())
		})
	}
}

// Reconcile es pura: dos llamadas sobre el mismo snapshot coinciden.
func TestReconcile_Idempotente(t *testing.T) {
	inv := invoice(t, "1000", "250", "100")
	first := reconciliation.Reconcile(inv)
	second := reconciliation.Reconcile(inv)
	assert.Equal(t, first, second)
	assert.True(t, d("250").Equal(inv.PaidAmount), "Reconcile no debe mutar el documento")
}

// ──────────────────────────────────────────────────────────────────────────────
// ProposeCreditNote: tope de notas crédito
// ──────────────────────────────────────────────────────────────────────────────

// 300 aprobadas + 600×1.18 = 1008 > 1000 → rechazo con montos accionables.
func TestProposeCreditNote_RechazaSobreTope(t *testing.T) {
	inv := invoice(t, "1000", "0", "300")
	existing := []*entity.CreditNote{approved(inv.ID, "300")}

	cn, err := reconciliation.ProposeCreditNote(inv, d("600"), existing)
	require.Error(t, err)
	assert.Nil(t, cn)
	assert.True(t, errors.Is(err, domain.ErrCapExceeded))

	var capErr *domain.CapExceededError
	require.True(t, errors.As(err, &capErr))
	assert.True(t, d("708").Equal(capErr.ProposedTotal))
	assert.True(t, d("700").Equal(capErr.RemainingAmount))
	assert.True(t, d("300").Equal(capErr.ExistingTotal))
	assert.True(t, d("8").Equal(capErr.Shortfall()))
}

// 300 aprobadas + 500×1.18 = 890 ≤ 1000 → aceptada.
func TestProposeCreditNote_AceptaDentroDelTope(t *testing.T) {
	inv := invoice(t, "1000", "0", "300")
	existing := []*entity.CreditNote{approved(inv.ID, "300")}

	cn, err := reconciliation.ProposeCreditNote(inv, d("500"), existing)
	require.NoError(t, err)
	assert.True(t, d("590").Equal(cn.TotalAmount))
	assert.True(t, d("90").Equal(cn.TaxAmount()))
	assert.Equal(t, inv.ID, cn.InvoiceID)
	assert.Equal(t, entity.CreditNoteStatusPending, cn.Status)
}

// Justo en el límite: Σ == total se acepta.
func TestProposeCreditNote_LimiteExactoAceptado(t *testing.T) {
	inv := invoice(t, "1180", "0", "0")
	cn, err := reconciliation.ProposeCreditNote(inv, d("1000"), nil)
	require.NoError(t, err)
	assert.True(t, d("1180").Equal(cn.TotalAmount))
}

// Las tarifas se copian de la factura; cambiar la factura después no altera la nota.
func TestProposeCreditNote_TarifasCopiadasDeLaFactura(t *testing.T) {
	inv := invoice(t, "1000", "0", "0")
	cn, err := reconciliation.ProposeCreditNote(inv, d("100"), nil)
	require.NoError(t, err)
	require.Len(t, cn.TaxComponents, 2)

	inv.TaxComponents[0].Rate = d("50")
	assert.True(t, d("9").Equal(cn.TaxComponents[0].Rate), "la nota debe conservar su copia de tarifas")
}

// Notas no aprobadas o de otra factura no cuentan para el tope.
func TestProposeCreditNote_IgnoraNotasNoAprobadasYAjenas(t *testing.T) {
	inv := invoice(t, "1000", "0", "0")
	existing := []*entity.CreditNote{
		{InvoiceID: inv.ID, TotalAmount: d("900"), Status: entity.CreditNoteStatusPending},
		{InvoiceID: inv.ID, TotalAmount: d("900"), Status: entity.CreditNoteStatusVoided},
		approved("otra-factura", "900"),
	}
	_, err := reconciliation.ProposeCreditNote(inv, d("500"), existing)
	assert.NoError(t, err)

	remaining, existingTotal := reconciliation.RemainingClaimable(inv, existing)
	assert.True(t, d("1000").Equal(remaining))
	assert.True(t, existingTotal.IsZero())
}

func TestProposeCreditNote_MontoNoPositivo(t *testing.T) {
	inv := invoice(t, "1000", "0", "0")
	for _, base := range []string{"0", "-10"} {
		_, err := reconciliation.ProposeCreditNote(inv, d(base), nil)
		assert.ErrorIs(t, err, domain.ErrInvalidAmount, "base %s", base)
	}
}

func TestProposeCreditNote_NotaDebitoNoAdmite(t *testing.T) {
	dn, err := entity.NewDebitNote("dn-1", "co-1", "cl-1", d("500"), time.Now(), gst18())
	require.NoError(t, err)
	_, err = reconciliation.ProposeCreditNote(dn, d("10"), nil)
	assert.ErrorIs(t, err, domain.ErrCreditNotAllowed)
}

func TestMaxCreditBase(t *testing.T) {
	inv := invoice(t, "1000", "0", "300")
	existing := []*entity.CreditNote{approved(inv.ID, "300")}
	// 700 / 1.18 = 593.22 (redondeo hacia abajo)
	maxBase := reconciliation.MaxCreditBase(inv, existing)
	assert.True(t, d("593.22").Equal(maxBase), "obtenido %s", maxBase)

	_, err := reconciliation.ProposeCreditNote(inv, maxBase, existing)
	assert.NoError(t, err, "la base máxima siempre debe caber en el tope")
}

// ──────────────────────────────────────────────────────────────────────────────
// Predicados de confirmación y resumen
// ──────────────────────────────────────────────────────────────────────────────

func TestPaymentReflected(t *testing.T) {
	assert.False(t, reconciliation.PaymentReflected(invoice(t, "1000", "0", "0")))
	assert.True(t, reconciliation.PaymentReflected(invoice(t, "1000", "10", "0")))
	assert.True(t, reconciliation.PaymentReflected(invoice(t, "1000", "0", "1000")))
}

func TestPaidAbove(t *testing.T) {
	pred := reconciliation.PaidAbove(d("400"))
	assert.False(t, pred(invoice(t, "1000", "400", "0")))
	assert.True(t, pred(invoice(t, "1000", "450", "0")))
	assert.True(t, pred(invoice(t, "1000", "400", "600")))
}

func TestSummarize(t *testing.T) {
	docs := []*entity.LedgerDocument{
		invoice(t, "1000", "0", "0"),
		invoice(t, "1000", "400", "0"),
		invoice(t, "500", "500", "0"),
	}
	s := reconciliation.Summarize(docs)
	assert.Equal(t, 3, s.Documents)
	assert.True(t, d("2500").Equal(s.TotalAmount))
	assert.True(t, d("900").Equal(s.PaidAmount))
	assert.True(t, d("1600").Equal(s.Outstanding))
	assert.Equal(t, 1, s.ByStatus[entity.StatusUnpaid])
	assert.Equal(t, 1, s.ByStatus[entity.StatusPartiallyPaid])
	assert.Equal(t, 1, s.ByStatus[entity.StatusPaid])
}
