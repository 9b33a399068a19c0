// Package connectivity tracks whether the remote data service is
// reachable and fans out transitions to subscribers. The outbox drains
// automatically on an offline→online transition.
package connectivity

import (
	"log/slog"
	"sync"
)

// Source is the read side of the connectivity signal
type Source interface {
	// Online reports the current "connected and reachable" state
	Online() bool

	// Subscribe returns a channel receiving state transitions (true =
	// came online) and a cancel func releasing the subscription.
	// Transitions only; the current state is not replayed.
	Subscribe() (<-chan bool, func())
}

// Monitor is the canonical Source implementation. The platform layer (or
// the Probe) writes state via SetOnline; subscribers receive transitions.
type Monitor struct {
	mu     sync.Mutex
	online bool
	subs   map[int]chan bool
	nextID int
	logger *slog.Logger
}

// Ensure Monitor implements Source
var _ Source = (*Monitor)(nil)

// NewMonitor creates a Monitor with the given initial state
func NewMonitor(online bool, logger *slog.Logger) *Monitor {
	return &Monitor{
		online: online,
		subs:   make(map[int]chan bool),
		logger: logger.With(slog.String("component", "connectivity")),
	}
}

// Online reports the current state
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOnline records a state change and notifies subscribers on
// transition. Setting the same state twice is a no-op.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	subs := make([]chan bool, 0, len(m.subs))
	for _, ch := range m.subs {
		subs = append(subs, ch)
	}
	m.mu.Unlock()

	m.logger.Info("connectivity changed", slog.Bool("online", online))

	for _, ch := range subs {
		// Non-blocking: a slow subscriber misses the transition rather
		// than stalling the writer; it can re-query Online.
		select {
		case ch <- online:
		default:
			m.logger.Warn("connectivity transition dropped - subscriber buffer full")
		}
	}
}

// Subscribe registers a transition listener
func (m *Monitor) Subscribe() (<-chan bool, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	ch := make(chan bool, 4)
	m.subs[id] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}
