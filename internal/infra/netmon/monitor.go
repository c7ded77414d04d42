// Package netmon tracks backend reachability so callers can fail fast
// instead of retrying while definitely offline.
package netmon

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Prober checks whether the backend is currently reachable.
type Prober interface {
	Probe(ctx context.Context) error
}

// Listener is notified on every connectivity event.
type Listener func(online bool)

type subscription struct {
	id int
	fn Listener
}

// Monitor holds the process-wide online/offline flag. It is constructed
// explicitly and injected; lifecycle is create, Run, dispose via ctx.
// The monitor never replays work deferred while offline; callers that
// chose to fail fast resume on their own.
type Monitor struct {
	prober        Prober
	probeInterval time.Duration
	probeTimeout  time.Duration

	mu        sync.Mutex
	online    bool
	listeners []subscription
	nextID    int
}

// NewMonitor creates a monitor and initializes the flag with one probe.
func NewMonitor(ctx context.Context, prober Prober, probeInterval time.Duration) *Monitor {
	m := &Monitor{
		prober:        prober,
		probeInterval: probeInterval,
		probeTimeout:  5 * time.Second,
	}

	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()
	m.online = prober.Probe(probeCtx) == nil

	return m
}

// IsOnline reports the last observed connectivity state.
func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOnline records a connectivity event and fans out to listeners in
// registration order. Listeners are invoked on every event, not only on
// transitions.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	m.online = online
	snapshot := make([]subscription, len(m.listeners))
	copy(snapshot, m.listeners)
	m.mu.Unlock()

	for _, s := range snapshot {
		// Re-check membership so a listener removed between the snapshot and
		// this point is not invoked.
		if m.subscribed(s.id) {
			s.fn(online)
		}
	}
}

func (m *Monitor) subscribed(id int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.listeners {
		if s.id == id {
			return true
		}
	}
	return false
}

// Subscribe registers a listener and returns its unsubscribe function.
// A listener is never invoked after its unsubscribe function returns.
func (m *Monitor) Subscribe(l Listener) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners = append(m.listeners, subscription{id: id, fn: l})
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, s := range m.listeners {
			if s.id == id {
				m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

// Run re-probes the backend on an interval until ctx is done, feeding
// transitions into SetOnline. Only state changes produce events.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.probeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
			err := m.prober.Probe(probeCtx)
			cancel()

			online := err == nil
			if online != m.IsOnline() {
				slog.Info("Connectivity changed", "online", online)
				m.SetOnline(online)
			}
		}
	}
}
