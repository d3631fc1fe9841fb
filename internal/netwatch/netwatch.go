// Package netwatch exposes the runtime's connectivity signal as a boolean
// observable. It does no polling; the embedding application reports
// transitions and subscribers are notified synchronously.
package netwatch

import "sync"

// Monitor holds the current online/offline state and its subscribers.
type Monitor struct {
	mu          sync.Mutex
	online      bool
	subscribers []func(online bool)
}

// New starts in the given state.
func New(online bool) *Monitor {
	return &Monitor{online: online}
}

// Online reports the current state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Subscribe registers a callback invoked synchronously on every transition.
func (m *Monitor) Subscribe(fn func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

// SetOnline records a state change and, when it is a real transition,
// notifies subscribers in registration order.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	subs := make([]func(bool), len(m.subscribers))
	copy(subs, m.subscribers)
	m.mu.Unlock()

	for _, fn := range subs {
		fn(online)
	}
}
