package payment

import "time"

// Timer temporizador detenible; permite cancelar una espera pendiente sin fugas.
type Timer interface {
	C() <-chan time.Time
	Stop() bool
}

// Clock fábrica de temporizadores. En producción envuelve time.NewTimer;
// los tests inyectan un reloj controlado.
type Clock interface {
	NewTimer(d time.Duration) Timer
}

type realClock struct{}

func (realClock) NewTimer(d time.Duration) Timer { return realTimer{t: time.NewTimer(d)} }

type realTimer struct{ t *time.Timer }

func (r realTimer) C() <-chan time.Time { return r.t.C }
func (r realTimer) Stop() bool          { return r.t.Stop() }
