package state

import (
	"log/slog"
	"sync"
)

// Manager serializes access to a Session and persists it after updates.
// An empty dir keeps the session in memory only.
type Manager struct {
	dir     string
	mu      sync.Mutex
	session *Session
}

// Open loads the session stored in dir.
func Open(dir string) (*Manager, error) {
	session := NewSession()
	if dir != "" {
		loaded, err := Load(dir)
		if err != nil {
			return nil, err
		}
		session = loaded
	}
	return &Manager{dir: dir, session: session}, nil
}

// NewManager wraps an existing session without persisting it.
func NewManager(session *Session) *Manager {
	if session == nil {
		session = NewSession()
	}
	return &Manager{session: session}
}

func (m *Manager) Dir() string {
	return m.dir
}

// View runs fn with the session locked for reading.
func (m *Manager) View(fn func(*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.session)
}

// Update runs fn with the session locked and saves it when fn reports a change.
func (m *Manager) Update(fn func(*Session) bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !fn(m.session) || m.dir == "" {
		return nil
	}
	return m.session.Save(m.dir)
}

// RecordUsed remembers languages as recently used. Persist failures are logged.
func (m *Manager) RecordUsed(languages ...string) {
	err := m.Update(func(s *Session) bool {
		return s.RecordUsed(languages...)
	})
	if err != nil {
		slog.Warn("failed to save session", slog.String("error", err.Error()))
	}
}

// UsedLanguages returns a copy of the used language list.
func (m *Manager) UsedLanguages() []string {
	var out []string
	m.View(func(s *Session) {
		out = append([]string(nil), s.UsedLanguages...)
	})
	return out
}
