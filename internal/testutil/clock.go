package testutil

import (
	"sync"
	"time"

	"github.com/jhoicas/billing-reconciliation/internal/application/payment"
)

// FakeClock reloj controlado para el coordinador de confirmaciones.
// Con autoFire cada temporizador dispara apenas se crea; sin él, el test
// decide cuándo disparar con FakeTimer.Fire.
type FakeClock struct {
	autoFire bool
	created  chan *FakeTimer

	mu     sync.Mutex
	timers []*FakeTimer
}

// NewFakeClock construye el reloj.
func NewFakeClock(autoFire bool) *FakeClock {
	return &FakeClock{autoFire: autoFire, created: make(chan *FakeTimer, 64)}
}

// NewTimer implementa payment.Clock.
func (c *FakeClock) NewTimer(d time.Duration) payment.Timer {
	t := &FakeTimer{Duration: d, ch: make(chan time.Time, 1)}
	if c.autoFire {
		t.Fire()
	}
	c.mu.Lock()
	c.timers = append(c.timers, t)
	c.mu.Unlock()
	select {
	case c.created <- t:
	default:
	}
	return t
}

// Created notifica cada temporizador creado.
func (c *FakeClock) Created() <-chan *FakeTimer { return c.created }

// Delays esperas solicitadas, en orden.
func (c *FakeClock) Delays() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.timers))
	for i, t := range c.timers {
		out[i] = t.Duration
	}
	return out
}

// FakeTimer temporizador manual.
type FakeTimer struct {
	Duration time.Duration
	ch       chan time.Time

	mu      sync.Mutex
	fired   bool
	stopped bool
}

func (t *FakeTimer) C() <-chan time.Time { return t.ch }

// Stop implementa payment.Timer.
func (t *FakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	active := !t.fired && !t.stopped
	t.stopped = true
	return active
}

// Fire dispara el temporizador si sigue activo.
func (t *FakeTimer) Fire() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fired || t.stopped {
		return
	}
	t.fired = true
	t.ch <- time.Time{}
}

// Stopped indica si se llamó Stop.
func (t *FakeTimer) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}
