package chat

import (
	"sync"

	"github.com/dgnsrekt/netchat_agent/internal/types"
)

// SessionStore keeps conversation history in memory per session id. History
// lives only for the server process; nothing is persisted.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string][]types.ChatMessage
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string][]types.ChatMessage)}
}

// History returns a copy of the session's messages; unknown sessions yield
// an empty history.
func (s *SessionStore) History(id string) []types.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.sessions[id]
	out := make([]types.ChatMessage, len(msgs))
	copy(out, msgs)
	return out
}

// Put replaces the session's messages.
func (s *SessionStore) Put(id string, msgs []types.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = msgs
}

// Count returns the number of live sessions.
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
