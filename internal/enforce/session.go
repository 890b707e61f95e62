package enforce

import (
	"sync"

	"github.com/resolute-ai/rampart/internal/detect"
)

// SessionState is the controller's position in the friction state machine.
type SessionState int

const (
	StateIdle SessionState = iota
	StateAwaitingFrictionResponse
)

// Session holds the mutable per-session controller state. PendingTopic is
// meaningful only in StateAwaitingFrictionResponse.
//
// Sessions are mutated in place by the controller. Callers must guarantee at
// most one in-flight Process call per session id; the read-then-transition
// sequence is not atomic against concurrent calls on the same session.
type Session struct {
	State        SessionState
	PendingTopic detect.Topic
}

// SessionStore keeps per-session state with caller-controlled lifecycle:
// sessions are created on first use and live until explicitly evicted.
// The map itself is safe for concurrent use across different sessions.
type SessionStore struct {
	sessions sync.Map // map[string]*Session
}

// NewSessionStore returns an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

// Get returns the session for id, creating an Idle one on first use.
func (s *SessionStore) Get(id string) *Session {
	if v, ok := s.sessions.Load(id); ok {
		return v.(*Session)
	}
	v, _ := s.sessions.LoadOrStore(id, &Session{State: StateIdle})
	return v.(*Session)
}

// Evict removes the session for id. Safe to call for unknown ids.
func (s *SessionStore) Evict(id string) {
	s.sessions.Delete(id)
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	n := 0
	s.sessions.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
