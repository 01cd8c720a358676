package session

import (
	"context"
	"sync"
	"time"

	"pathlight-web/pkg/tokenstore"
)

// Monitor re-runs the guard on a fixed interval and on demand, and fires
// onExpired the first time the session stops being authenticated.
type Monitor struct {
	guard     *Guard
	store     tokenstore.Store
	interval  time.Duration
	onExpired func(Decision)

	mu      sync.Mutex
	last    State
	trigger chan struct{}
}

// NewMonitor creates a monitor; interval <= 0 disables the ticker so only
// Revalidate drives checks.
func NewMonitor(guard *Guard, store tokenstore.Store, interval time.Duration, onExpired func(Decision)) *Monitor {
	return &Monitor{
		guard:     guard,
		store:     store,
		interval:  interval,
		onExpired: onExpired,
		last:      StateChecking,
		trigger:   make(chan struct{}, 1),
	}
}

// Revalidate requests an immediate check, e.g. when a tab becomes visible
func (m *Monitor) Revalidate() {
	select {
	case m.trigger <- struct{}{}:
	default:
	}
}

// State returns the outcome of the latest check
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Run checks once immediately, then on every tick or Revalidate until ctx ends
func (m *Monitor) Run(ctx context.Context) {
	m.check()

	var tick <-chan time.Time
	if m.interval > 0 {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			m.check()
		case <-m.trigger:
			m.check()
		}
	}
}

func (m *Monitor) check() {
	d := m.guard.Check(m.store)

	m.mu.Lock()
	prev := m.last
	m.last = d.State
	m.mu.Unlock()

	if d.State == StateUnauthenticated && prev != StateUnauthenticated && m.onExpired != nil {
		m.onExpired(d)
	}
}
