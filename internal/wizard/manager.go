package wizard

import (
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/punnathat/richmenu-studio-go/internal/errors"
)

// Manager is the in-memory session store. Sessions are page-session scoped
// and never persisted; an idle session is swept after its TTL.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	ttl    time.Duration
	stopCh chan struct{}

	onCount func(count int)
}

// NewManager creates a session store and starts its sweep goroutine.
// Call Stop to shut the goroutine down.
func NewManager(ttl, sweepEvery time.Duration) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		stopCh:   make(chan struct{}),
	}

	go m.sweepLoop(sweepEvery)

	return m
}

// OnCount sets a callback invoked with the active session count after every
// create and sweep.
func (m *Manager) OnCount(fn func(count int)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onCount = fn
}

// Create makes a new session seeded with the default layout.
func (m *Manager) Create() *Session {
	s := newSession(uuid.NewString(), time.Now())

	m.mu.Lock()
	m.sessions[s.id] = s
	count := len(m.sessions)
	fn := m.onCount
	m.mu.Unlock()

	if fn != nil {
		fn(count)
	}
	return s
}

// Get returns a session by ID and refreshes its idle timer.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	s.touch(time.Now())
	return s, nil
}

// Delete removes a session.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	if s, ok := m.sessions[id]; ok {
		s.ReplaceAsset(nil)
		delete(m.sessions, id)
	}
	m.mu.Unlock()
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.sweep(time.Now())
		}
	}
}

func (m *Manager) sweep(now time.Time) {
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.expired(now, m.ttl) {
			s.ReplaceAsset(nil)
			delete(m.sessions, id)
		}
	}
	count := len(m.sessions)
	fn := m.onCount
	m.mu.Unlock()

	if fn != nil {
		fn(count)
	}
}

// Stop terminates the sweep goroutine. Safe to call multiple times.
func (m *Manager) Stop() {
	select {
	case <-m.stopCh:
	default:
		close(m.stopCh)
	}
}
