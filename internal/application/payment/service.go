package payment

import (
	"context"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sourcegraph/conc"

	"github.com/jhoicas/billing-reconciliation/internal/domain"
	"github.com/jhoicas/billing-reconciliation/pkg/logger"
)

// DefaultOutcomeTTL tiempo que un resultado queda consultable por referencia.
const DefaultOutcomeTTL = 30 * time.Minute

// ConfirmationService recibe los callbacks de la pasarela y mantiene las
// confirmaciones en curso: a lo sumo una por documento, resultados por
// referencia de pago con expiración.
type ConfirmationService struct {
	coord    *Coordinator
	outcomes *gocache.Cache
	log      *logger.Logger

	baseCtx context.Context
	stop    context.CancelFunc
	wg      conc.WaitGroup

	mu     sync.Mutex
	active map[string]*activeConfirmation // por documentID
}

type activeConfirmation struct {
	reference string
	handle    *Handle
}

// NewConfirmationService construye el servicio. ttl <= 0 usa DefaultOutcomeTTL.
func NewConfirmationService(coord *Coordinator, ttl time.Duration, log *logger.Logger) *ConfirmationService {
	if ttl <= 0 {
		ttl = DefaultOutcomeTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	ctx, stop := context.WithCancel(context.Background())
	return &ConfirmationService{
		coord:    coord,
		outcomes: gocache.New(ttl, 2*ttl),
		log:      log.Component("confirmation-service"),
		baseCtx:  ctx,
		stop:     stop,
		active:   make(map[string]*activeConfirmation),
	}
}

// HandleGateway procesa el resultado de la pasarela para documentID.
//
// Fallo → FAILED inmediato, sin polling. Éxito → inicia el polling y devuelve
// el estado POLLING. Un callback repetido con la misma referencia devuelve el
// resultado ya registrado. Si el documento ya tiene una confirmación en curso
// con otra referencia retorna domain.ErrConfirmationInProgress.
func (s *ConfirmationService) HandleGateway(documentID string, gw GatewayResult) (Outcome, error) {
	documentID = strings.TrimSpace(documentID)
	gw.Reference = strings.TrimSpace(gw.Reference)
	if documentID == "" || gw.Reference == "" {
		return Outcome{}, domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.lookup(gw.Reference); ok {
		if prev.DocumentID != documentID {
			return Outcome{}, domain.ErrConflict
		}
		return prev, nil
	}

	if !gw.Success {
		out := s.coord.Run(s.baseCtx, documentID, gw)
		s.outcomes.Set(gw.Reference, out, gocache.DefaultExpiration)
		return out, nil
	}

	if _, busy := s.active[documentID]; busy {
		return Outcome{}, domain.ErrConfirmationInProgress
	}

	pending := Outcome{DocumentID: documentID, Reference: gw.Reference, State: StatePolling}
	s.outcomes.Set(gw.Reference, pending, gocache.DefaultExpiration)

	h, run := s.coord.Prepare(s.baseCtx, documentID, gw, s.finish)
	s.active[documentID] = &activeConfirmation{reference: gw.Reference, handle: h}
	s.wg.Go(run)

	s.log.Info().Str("document_id", documentID).Str("reference", gw.Reference).Msg("confirmación de pago iniciada")
	return pending, nil
}

func (s *ConfirmationService) finish(out Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes.Set(out.Reference, out, gocache.DefaultExpiration)
	if a, ok := s.active[out.DocumentID]; ok && a.reference == out.Reference {
		delete(s.active, out.DocumentID)
	}
}

func (s *ConfirmationService) lookup(reference string) (Outcome, bool) {
	v, ok := s.outcomes.Get(reference)
	if !ok {
		return Outcome{}, false
	}
	out, ok := v.(Outcome)
	return out, ok
}

// Get devuelve el resultado (o el estado en curso) de la referencia.
func (s *ConfirmationService) Get(reference string) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, ok := s.lookup(reference)
	if !ok {
		return Outcome{}, domain.ErrNotFound
	}
	return out, nil
}

// Cancel cancela la confirmación en curso de la referencia y espera su
// resultado CANCELLED. Si ya terminó devuelve el resultado final.
func (s *ConfirmationService) Cancel(reference string) (Outcome, error) {
	s.mu.Lock()
	var h *Handle
	for _, a := range s.active {
		if a.reference == reference {
			h = a.handle
			break
		}
	}
	s.mu.Unlock()

	if h == nil {
		return s.Get(reference)
	}
	h.Cancel()
	return h.Wait(), nil
}

// Active número de confirmaciones en curso.
func (s *ConfirmationService) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// Shutdown cancela todas las confirmaciones y espera a que terminen o a que
// venza ctx.
func (s *ConfirmationService) Shutdown(ctx context.Context) error {
	s.stop()
	done := make(chan struct{})
	go func() {
		if r := s.wg.WaitAndRecover(); r != nil {
			s.log.Error().Str("panic", r.String()).Msg("confirmación terminó con panic")
		}
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
