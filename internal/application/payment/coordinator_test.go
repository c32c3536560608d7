package payment_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/billing-reconciliation/internal/application/payment"
	"github.com/jhoicas/billing-reconciliation/internal/domain"
	"github.com/jhoicas/billing-reconciliation/internal/domain/entity"
	"github.com/jhoicas/billing-reconciliation/internal/testutil"
	"github.com/jhoicas/billing-reconciliation/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const base = 2000 * time.Millisecond

func snapshot(paid string) *entity.LedgerDocument {
	return &entity.LedgerDocument{
		ID:          "inv-1",
		Kind:        entity.KindInvoice,
		TotalAmount: decimal.NewFromInt(1000),
		PaidAmount:  decimal.RequireFromString(paid),
	}
}

// scriptedFetcher devuelve un snapshot por intento (el último se repite).
type scriptedFetcher struct {
	calls   atomic.Int32
	answers []*entity.LedgerDocument
	errs    []error
}

func (f *scriptedFetcher) GetSnapshot(ctx context.Context, id string) (*entity.LedgerDocument, error) {
	n := int(f.calls.Add(1)) - 1
	if n < len(f.errs) && f.errs[n] != nil {
		return nil, f.errs[n]
	}
	if n >= len(f.answers) {
		n = len(f.answers) - 1
	}
	return f.answers[n], nil
}

func newCoordinator(f payment.SnapshotFetcher, clock payment.Clock) *payment.Coordinator {
	return payment.NewCoordinator(f, payment.Config{MaxAttempts: 3, BaseDelay: base}, logger.Nop(), payment.WithClock(clock))
}

// ──────────────────────────────────────────────────────────────────────────────
// Run
// ──────────────────────────────────────────────────────────────────────────────

// Intentos 1–2 con saldo, intento 3 sin saldo → CONFIRMED tras 3 consultas,
// con espera acumulada 1×base + 2×base + 3×base.
func TestRun_ConfirmaEnTercerIntento(t *testing.T) {
	f := &scriptedFetcher{answers: []*entity.LedgerDocument{snapshot("0"), snapshot("0"), {
		ID: "inv-1", Kind: entity.KindInvoice, TotalAmount: decimal.NewFromInt(1000), CreditNoteAmount: decimal.NewFromInt(1000),
	}}}
	clock := testutil.NewFakeClock(true)

	out := newCoordinator(f, clock).Run(context.Background(), "inv-1", payment.GatewaySuccess("pay_123"))

	assert.Equal(t, payment.StateConfirmed, out.State)
	assert.Equal(t, 3, out.Attempts)
	assert.EqualValues(t, 3, f.calls.Load())
	assert.Equal(t, []time.Duration{base, 2 * base, 3 * base}, clock.Delays())
	assert.Equal(t, 6*base, out.TotalDelay)
	require.NotNil(t, out.Reconciliation)
	assert.True(t, out.Reconciliation.OutstandingAmount.IsZero())
	assert.NoError(t, out.Err)
}

// Los tres intentos con saldo → GIVEN_UP sin error.
func TestRun_AgotaIntentosSinError(t *testing.T) {
	f := &scriptedFetcher{answers: []*entity.LedgerDocument{snapshot("0")}}
	clock := testutil.NewFakeClock(true)

	out := newCoordinator(f, clock).Run(context.Background(), "inv-1", payment.GatewaySuccess("pay_123"))

	assert.Equal(t, payment.StateGivenUp, out.State)
	assert.True(t, out.State.ConfirmationPending())
	assert.Equal(t, 3, out.Attempts)
	assert.NoError(t, out.Err, "agotar intentos no es un fallo del pago")
	assert.Equal(t, 6*base, out.TotalDelay)
}

// pagado > 0 confirma aunque quede saldo (criterio por defecto).
func TestRun_PagoParcialConfirma(t *testing.T) {
	f := &scriptedFetcher{answers: []*entity.LedgerDocument{snapshot("100")}}
	out := newCoordinator(f, testutil.NewFakeClock(true)).Run(context.Background(), "inv-1", payment.GatewaySuccess("pay_1"))
	assert.Equal(t, payment.StateConfirmed, out.State)
	assert.Equal(t, 1, out.Attempts)
}

func TestRun_FalloDePasarelaSinPolling(t *testing.T) {
	f := &scriptedFetcher{answers: []*entity.LedgerDocument{snapshot("0")}}
	clock := testutil.NewFakeClock(true)

	out := newCoordinator(f, clock).Run(context.Background(), "inv-1", payment.GatewayFailure("pay_9", "tarjeta rechazada"))

	assert.Equal(t, payment.StateFailed, out.State)
	assert.True(t, errors.Is(out.Err, domain.ErrGatewayFailure))
	var gwErr *domain.GatewayFailureError
	require.True(t, errors.As(out.Err, &gwErr))
	assert.Equal(t, "tarjeta rechazada", gwErr.Reason)
	assert.Zero(t, f.calls.Load())
	assert.Empty(t, clock.Delays())
}

// Un error de consulta cuenta como intento no confirmado y se reintenta.
func TestRun_ErrorDeConsultaSeReintenta(t *testing.T) {
	boom := errors.New("timeout backend")
	f := &scriptedFetcher{
		errs:    []error{boom, nil},
		answers: []*entity.LedgerDocument{nil, snapshot("1000")},
	}
	out := newCoordinator(f, testutil.NewFakeClock(true)).Run(context.Background(), "inv-1", payment.GatewaySuccess("pay_1"))

	assert.Equal(t, payment.StateConfirmed, out.State)
	assert.Equal(t, 2, out.Attempts)
	assert.ErrorIs(t, out.LastQueryErr, boom)
}

func TestRun_DocumentoInexistenteTerminaEnGivenUp(t *testing.T) {
	f := payment.SnapshotFetcherFunc(func(ctx context.Context, id string) (*entity.LedgerDocument, error) {
		return nil, nil
	})
	out := newCoordinator(f, testutil.NewFakeClock(true)).Run(context.Background(), "missing", payment.GatewaySuccess("pay_1"))
	assert.Equal(t, payment.StateGivenUp, out.State)
	assert.ErrorIs(t, out.LastQueryErr, domain.ErrNotFound)
}

func TestRun_ConfigInyectable(t *testing.T) {
	f := &scriptedFetcher{answers: []*entity.LedgerDocument{snapshot("100")}}
	clock := testutil.NewFakeClock(true)
	var calls int
	coord := payment.NewCoordinator(f, payment.Config{
		MaxAttempts: 5,
		Delay:       func(attempt int) time.Duration { return time.Duration(attempt*attempt) * time.Second },
		Confirmed: func(doc *entity.LedgerDocument) bool {
			calls++
			return calls == 4
		},
	}, logger.Nop(), payment.WithClock(clock))

	out := coord.Run(context.Background(), "inv-1", payment.GatewaySuccess("pay_1"))
	assert.Equal(t, payment.StateConfirmed, out.State)
	assert.Equal(t, []time.Duration{time.Second, 4 * time.Second, 9 * time.Second, 16 * time.Second}, clock.Delays())
}

// Con el pagado previo conocido, un snapshot que ya traía pagos anteriores
// no confirma: hace falta que el pagado lo supere.
func TestRun_PagadoPrevioExigeIncremento(t *testing.T) {
	f := &scriptedFetcher{answers: []*entity.LedgerDocument{snapshot("100"), snapshot("100"), snapshot("250")}}
	clock := testutil.NewFakeClock(true)
	before := decimal.NewFromInt(100)
	gw := payment.GatewaySuccess("pay_1")
	gw.PaidBefore = &before

	out := newCoordinator(f, clock).Run(context.Background(), "inv-1", gw)

	assert.Equal(t, payment.StateConfirmed, out.State)
	assert.Equal(t, 3, out.Attempts)

	// sin pagado previo el primer snapshot ya confirma
	f2 := &scriptedFetcher{answers: []*entity.LedgerDocument{snapshot("100")}}
	out = newCoordinator(f2, testutil.NewFakeClock(true)).Run(context.Background(), "inv-1", payment.GatewaySuccess("pay_2"))
	assert.Equal(t, payment.StateConfirmed, out.State)
	assert.Equal(t, 1, out.Attempts)
}

func TestDefaultConfig(t *testing.T) {
	coord := payment.NewCoordinator(&scriptedFetcher{}, payment.Config{}, nil)
	cfg := coord.Config()
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.BaseDelay)
	assert.Equal(t, 6*time.Second, cfg.Delay(3))
	assert.Equal(t, payment.DefaultConfig().MaxAttempts, cfg.MaxAttempts)
}

// ──────────────────────────────────────────────────────────────────────────────
// Confirm / Handle: cancelación
// ──────────────────────────────────────────────────────────────────────────────

// Cancelar entre el intento 1 y el 2 impide que la consulta 2 se emita
// y detiene el temporizador pendiente.
func TestConfirm_CancelarEntreIntentos(t *testing.T) {
	f := &scriptedFetcher{answers: []*entity.LedgerDocument{snapshot("0")}}
	clock := testutil.NewFakeClock(false)

	var (
		mu       sync.Mutex
		outcomes []payment.Outcome
	)
	h := newCoordinator(f, clock).Confirm(context.Background(), "inv-1", payment.GatewaySuccess("pay_1"), func(o payment.Outcome) {
		mu.Lock()
		outcomes = append(outcomes, o)
		mu.Unlock()
	})

	first := waitTimer(t, clock)
	assert.Equal(t, base, first.Duration)
	first.Fire()

	second := waitTimer(t, clock) // el intento 1 ya consultó y se programó el 2
	assert.Equal(t, 2*base, second.Duration)
	assert.EqualValues(t, 1, f.calls.Load())

	h.Cancel()
	out := h.Wait()

	assert.Equal(t, payment.StateCancelled, out.State)
	assert.Equal(t, payment.StateCancelled, h.State())
	assert.True(t, second.Stopped(), "el temporizador pendiente debe detenerse")
	second.Fire()
	assert.EqualValues(t, 1, f.calls.Load(), "la consulta del intento 2 nunca debe emitirse")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, outcomes, 1, "el resultado se entrega exactamente una vez")
	assert.Equal(t, payment.StateCancelled, outcomes[0].State)
}

// cancelAtTimerClock cancela el contexto al crear el temporizador N y lo
// devuelve ya disparado: ctx.Done y timer.C quedan listos a la vez.
type cancelAtTimerClock struct {
	at     int
	n      int
	cancel context.CancelFunc
}

type readyTimer struct{ ch chan time.Time }

func (t readyTimer) C() <-chan time.Time { return t.ch }
func (t readyTimer) Stop() bool { return false }

func (c *cancelAtTimerClock) NewTimer(time.Duration) payment.Timer {
	c.n++
	if c.n == c.at {
		c.cancel()
	}
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return readyTimer{ch: ch}
}

// Si la cancelación y el vencimiento del temporizador coinciden, gana la
// cancelación y la consulta siguiente no se emite.
func TestRun_CancelacionSimultaneaAlTemporizador(t *testing.T) {
	for i := 0; i < 200; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		f := &scriptedFetcher{answers: []*entity.LedgerDocument{snapshot("0")}}
		clock := &cancelAtTimerClock{at: 2, cancel: cancel}

		out := newCoordinator(f, clock).Run(ctx, "inv-1", payment.GatewaySuccess("pay_1"))

		require.Equal(t, payment.StateCancelled, out.State)
		require.EqualValues(t, 1, f.calls.Load(), "iteración %d: consulta emitida tras cancelar", i)
		require.Equal(t, 1, out.Attempts)
		cancel()
	}
}

// El resultado de una consulta en vuelo se descarta al cancelar.
func TestConfirm_CancelarDescartaConsultaEnVuelo(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	f := payment.SnapshotFetcherFunc(func(ctx context.Context, id string) (*entity.LedgerDocument, error) {
		close(started)
		<-release
		return snapshot("1000"), nil
	})

	h := newCoordinator(f, testutil.NewFakeClock(true)).Confirm(context.Background(), "inv-1", payment.GatewaySuccess("pay_1"), nil)
	<-started
	h.Cancel()
	close(release)

	out := h.Wait()
	assert.Equal(t, payment.StateCancelled, out.State)
	assert.Nil(t, out.Reconciliation)
}

func TestConfirm_CancelarDespuesDeTerminarNoCambiaResultado(t *testing.T) {
	f := &scriptedFetcher{answers: []*entity.LedgerDocument{snapshot("1000")}}
	h := newCoordinator(f, testutil.NewFakeClock(true)).Confirm(context.Background(), "inv-1", payment.GatewaySuccess("pay_1"), nil)
	out := h.Wait()
	require.Equal(t, payment.StateConfirmed, out.State)

	h.Cancel()
	assert.Equal(t, payment.StateConfirmed, h.State())
	assert.Equal(t, payment.StateConfirmed, h.Wait().State)
}

func TestConfirm_ContextoPadreCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	clock := testutil.NewFakeClock(false)
	h := newCoordinator(&scriptedFetcher{answers: []*entity.LedgerDocument{snapshot("0")}}, clock).
		Confirm(ctx, "inv-1", payment.GatewaySuccess("pay_1"), nil)

	timer := waitTimer(t, clock)
	assert.Equal(t, payment.StatePolling, h.State())
	cancel()

	assert.Equal(t, payment.StateCancelled, h.Wait().State)
	assert.True(t, timer.Stopped())
}

// Coordinaciones de documentos distintos no comparten estado.
func TestConfirm_TareasIndependientes(t *testing.T) {
	store := testutil.NewInMemoryStore(snapshot("0"), &entity.LedgerDocument{
		ID: "inv-2", Kind: entity.KindInvoice, TotalAmount: decimal.NewFromInt(50), PaidAmount: decimal.NewFromInt(50),
	})
	coord := newCoordinator(store.Ledger(), testutil.NewFakeClock(true))

	h1 := coord.Confirm(context.Background(), "inv-1", payment.GatewaySuccess("a"), nil)
	h2 := coord.Confirm(context.Background(), "inv-2", payment.GatewaySuccess("b"), nil)

	assert.Equal(t, payment.StateGivenUp, h1.Wait().State)
	assert.Equal(t, payment.StateConfirmed, h2.Wait().State)
}

func waitTimer(t *testing.T, clock *testutil.FakeClock) *testutil.FakeTimer {
	t.Helper()
	select {
	case tm := <-clock.Created():
		return tm
	case <-time.After(2 * time.Second):
		t.Fatal("el coordinador no programó el siguiente intento")
		return nil
	}
}
