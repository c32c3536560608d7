// Package payment coordina la confirmación de pagos reportados por la
// pasarela contra el snapshot eventualmente consistente del backend.
package payment

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/billing-reconciliation/internal/domain"
	"github.com/jhoicas/billing-reconciliation/internal/domain/entity"
	"github.com/jhoicas/billing-reconciliation/internal/domain/reconciliation"
	"github.com/jhoicas/billing-reconciliation/pkg/logger"
)

// Valores por defecto del polling de confirmación.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 2000 * time.Millisecond
)

// State estado de una confirmación: IDLE → POLLING → {CONFIRMED, GIVEN_UP};
// FAILED y CANCELLED también son terminales.
type State string

const (
	StateIdle      State = "IDLE"
	StatePolling   State = "POLLING"
	StateConfirmed State = "CONFIRMED"
	StateGivenUp   State = "GIVEN_UP" // confirmación pendiente, no es un fallo del pago
	StateFailed    State = "FAILED"
	StateCancelled State = "CANCELLED"
)

// IsTerminal indica si el estado ya no cambia.
func (s State) IsTerminal() bool {
	switch s {
	case StateConfirmed, StateGivenUp, StateFailed, StateCancelled:
		return true
	}
	return false
}

// ConfirmationPending el pago probablemente se procesó pero el backend aún
// no lo refleja; el usuario debe refrescar más tarde.
func (s State) ConfirmationPending() bool { return s == StateGivenUp }

// GatewayResult resultado entregado por la pasarela (exactamente uno por pago).
type GatewayResult struct {
	Success   bool
	Reference string
	Reason    string // sólo en fallo
	// PaidBefore monto pagado del documento antes de este pago, si el
	// llamador lo conoce. Con él se confirma sólo cuando el pagado lo supera.
	PaidBefore *decimal.Decimal
}

// GatewaySuccess resultado exitoso con la referencia de la pasarela.
func GatewaySuccess(reference string) GatewayResult {
	return GatewayResult{Success: true, Reference: reference}
}

// GatewayFailure resultado fallido con el motivo reportado.
func GatewayFailure(reference, reason string) GatewayResult {
	return GatewayResult{Reference: reference, Reason: reason}
}

// SnapshotFetcher consulta de sólo lectura del snapshot actual del documento.
// Debe ser idempotente: se reintenta libremente.
type SnapshotFetcher interface {
	GetSnapshot(ctx context.Context, id string) (*entity.LedgerDocument, error)
}

// SnapshotFetcherFunc adapta una función a SnapshotFetcher.
type SnapshotFetcherFunc func(ctx context.Context, id string) (*entity.LedgerDocument, error)

func (f SnapshotFetcherFunc) GetSnapshot(ctx context.Context, id string) (*entity.LedgerDocument, error) {
	return f(ctx, id)
}

// Config parámetros inyectables del coordinador.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// Delay espera antes del intento k (1-indexado). Por defecto k × BaseDelay.
	Delay func(attempt int) time.Duration
	// Confirmed decide si el snapshot ya refleja el pago.
	// Por defecto reconciliation.PaymentReflected.
	Confirmed reconciliation.Predicate
}

// DefaultConfig 3 intentos con esperas de 2 s, 4 s y 6 s.
func DefaultConfig() Config {
	return Config{MaxAttempts: DefaultMaxAttempts, BaseDelay: DefaultBaseDelay}
}

// LinearDelay espera k × base antes del intento k.
func LinearDelay(base time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * base
	}
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultBaseDelay
	}
	if c.Delay == nil {
		c.Delay = LinearDelay(c.BaseDelay)
	}
	if c.Confirmed == nil {
		c.Confirmed = reconciliation.PaymentReflected
	}
	return c
}

// Outcome resultado final de una confirmación.
type Outcome struct {
	DocumentID     string
	Reference      string
	State          State
	Attempts       int                    // consultas emitidas
	TotalDelay     time.Duration          // suma de esperas cumplidas
	Reconciliation *reconciliation.Result // último snapshot conciliado (nil si no hubo)
	Err            error                  // sólo en FAILED (envuelve domain.ErrGatewayFailure)
	LastQueryErr   error                  // último error de consulta, informativo
}

// Coordinator ejecuta el polling acotado de confirmación. No guarda estado
// mutable compartido: cada confirmación es una tarea independiente.
type Coordinator struct {
	fetcher SnapshotFetcher
	cfg     Config
	clock   Clock
	log     *logger.Logger
}

// Option personaliza el coordinador.
type Option func(*Coordinator)

// WithClock reemplaza el reloj (tests).
func WithClock(c Clock) Option {
	return func(co *Coordinator) { co.clock = c }
}

// NewCoordinator construye el coordinador. Los campos vacíos de cfg toman los valores por defecto.
func NewCoordinator(fetcher SnapshotFetcher, cfg Config, log *logger.Logger, opts ...Option) *Coordinator {
	if log == nil {
		log = logger.Nop()
	}
	c := &Coordinator{
		fetcher: fetcher,
		cfg:     cfg.withDefaults(),
		clock:   realClock{},
		log:     log.Component("payment-confirmation"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config devuelve la configuración efectiva.
func (c *Coordinator) Config() Config { return c.cfg }

// Run ejecuta la confirmación de forma bloqueante hasta un estado terminal.
// Cancelar ctx detiene el temporizador pendiente y descarta el resultado de
// una consulta en vuelo.
func (c *Coordinator) Run(ctx context.Context, documentID string, gw GatewayResult) Outcome {
	return c.run(ctx, documentID, gw, nil)
}

func (c *Coordinator) run(ctx context.Context, documentID string, gw GatewayResult, onPolling func()) Outcome {
	out := Outcome{DocumentID: documentID, Reference: gw.Reference, State: StateIdle}

	if !gw.Success {
		out.State = StateFailed
		out.Err = &domain.GatewayFailureError{Reference: gw.Reference, Reason: gw.Reason}
		c.log.Warn().Str("document_id", documentID).Str("reference", gw.Reference).
			Str("reason", gw.Reason).Msg("pasarela reportó fallo, sin polling")
		return out
	}

	confirmed := c.cfg.Confirmed
	if gw.PaidBefore != nil {
		confirmed = reconciliation.PaidAbove(*gw.PaidBefore)
	}

	out.State = StatePolling
	if onPolling != nil {
		onPolling()
	}

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		delay := c.cfg.Delay(attempt)
		timer := c.clock.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return c.cancelled(out)
		case <-timer.C():
			// ambos canales listos: select elige al azar, la cancelación manda
			if ctx.Err() != nil {
				return c.cancelled(out)
			}
		}
		out.TotalDelay += delay
		out.Attempts = attempt

		doc, err := c.fetcher.GetSnapshot(ctx, documentID)
		if ctx.Err() != nil {
			return c.cancelled(out)
		}
		switch {
		case err != nil:
			out.LastQueryErr = err
			c.log.Warn().Err(err).Str("document_id", documentID).Int("attempt", attempt).Msg("consulta de snapshot falló")
			continue
		case doc == nil:
			out.LastQueryErr = domain.ErrNotFound
			c.log.Warn().Str("document_id", documentID).Int("attempt", attempt).Msg("documento no encontrado")
			continue
		}

		r := reconciliation.Reconcile(doc)
		out.Reconciliation = &r
		c.log.Debug().Str("document_id", documentID).Int("attempt", attempt).
			Str("outstanding", r.OutstandingAmount.String()).Str("status", r.Status.String()).Msg("snapshot consultado")

		if confirmed(doc) {
			out.State = StateConfirmed
			c.log.Info().Str("document_id", documentID).Str("reference", gw.Reference).Int("attempts", attempt).Msg("pago confirmado")
			return out
		}
	}

	out.State = StateGivenUp
	c.log.Info().Str("document_id", documentID).Str("reference", gw.Reference).Int("attempts", out.Attempts).
		Msg("confirmación pendiente: el backend aún no refleja el pago")
	return out
}

func (c *Coordinator) cancelled(out Outcome) Outcome {
	out.State = StateCancelled
	c.log.Debug().Str("document_id", out.DocumentID).Int("attempts", out.Attempts).Msg("confirmación cancelada")
	return out
}

// Handle controla una confirmación en curso.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	state     State
	cancelled bool
	finished  bool
	outcome   Outcome
}

// Cancel detiene la confirmación. Si aún no terminó, el resultado entregado
// será CANCELLED aunque haya una consulta en vuelo.
func (h *Handle) Cancel() {
	h.mu.Lock()
	if !h.finished {
		h.cancelled = true
	}
	h.mu.Unlock()
	h.cancel()
}

// Done se cierra cuando el resultado ya fue entregado.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait bloquea hasta el resultado final.
func (h *Handle) Wait() Outcome {
	<-h.done
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.outcome
}

// State estado actual de la confirmación.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.finished {
		return h.outcome.State
	}
	if h.cancelled {
		return StateCancelled
	}
	return h.state
}

func (h *Handle) setState(s State) {
	h.mu.Lock()
	h.state = s
	h.mu.Unlock()
}

// Prepare arma la confirmación y devuelve su Handle junto con la función que
// la ejecuta; el llamador decide en qué goroutine correrla.
// onOutcome se invoca exactamente una vez, antes de cerrar Done().
func (c *Coordinator) Prepare(ctx context.Context, documentID string, gw GatewayResult, onOutcome func(Outcome)) (*Handle, func()) {
	runCtx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{}), state: StateIdle}

	run := func() {
		defer cancel()
		out := c.run(runCtx, documentID, gw, func() { h.setState(StatePolling) })

		h.mu.Lock()
		if h.cancelled {
			out.State = StateCancelled
			out.Reconciliation = nil
		}
		h.finished = true
		h.outcome = out
		h.mu.Unlock()

		if onOutcome != nil {
			onOutcome(out)
		}
		close(h.done)
	}
	return h, run
}

// Confirm inicia la confirmación en su propia goroutine y devuelve el Handle
// para cancelarla (por ejemplo, si la vista que la consume se destruye).
func (c *Coordinator) Confirm(ctx context.Context, documentID string, gw GatewayResult, onOutcome func(Outcome)) *Handle {
	h, run := c.Prepare(ctx, documentID, gw, onOutcome)
	go run()
	return h
}
