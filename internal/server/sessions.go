// internal/server/sessions.go
package server

import (
	"sync"

	"github.com/google/uuid"

	"print-advisor/internal/assessment/wizard"
	"print-advisor/internal/common/metrics"
)

// MachineFactory builds the wizard machine for a new session. The resume key
// scopes persisted progress: a client presenting the same key later gets a
// machine reading the same snapshot. Injected so tests can wire fakes under
// the HTTP surface.
type MachineFactory func(sessionID, resumeKey string) *wizard.Machine

// SessionManager owns the live wizard machines, one per session id.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*wizard.Machine
	factory  MachineFactory
}

func NewSessionManager(factory MachineFactory) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*wizard.Machine),
		factory:  factory,
	}
}

// Create allocates a fresh session and its machine. An empty resume key falls
// back to the session id, so no older progress can attach to it; the effective
// key is returned for the client to keep.
func (sm *SessionManager) Create(resumeKey string) (string, string, *wizard.Machine) {
	id := uuid.NewString()
	if resumeKey == "" {
		resumeKey = id
	}
	machine := sm.factory(id, resumeKey)

	sm.mu.Lock()
	sm.sessions[id] = machine
	sm.mu.Unlock()

	metrics.ActiveSessions.Inc()
	return id, resumeKey, machine
}

func (sm *SessionManager) Get(id string) (*wizard.Machine, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	m, ok := sm.sessions[id]
	return m, ok
}

func (sm *SessionManager) Remove(id string) {
	sm.mu.Lock()
	_, existed := sm.sessions[id]
	delete(sm.sessions, id)
	sm.mu.Unlock()

	if existed {
		metrics.ActiveSessions.Dec()
	}
}

// Count reports the number of live sessions.
func (sm *SessionManager) Count() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.sessions)
}
