// Package tokenstore keeps the session token and the "remember me" choice.
//
// Consumers depend on Store only; the backing persistence (browser cookies,
// a local bbolt file, process memory) is picked by whoever constructs it.
package tokenstore

import "sync"

// Store persists one token plus the remember flag it was written with
type Store interface {
	// SetToken writes the token. remember=false scopes it to the current
	// browsing session; remember=true persists it across restarts.
	SetToken(token string, remember bool) error
	// GetToken returns the stored token. It does not check expiry.
	GetToken() (string, bool)
	// RemoveToken clears the token and the remember flag. Safe to repeat.
	RemoveToken() error
	// IsRemembered returns the last recorded remember choice, false by default.
	IsRemembered() bool
}

// MemoryStore is a process-local Store
type MemoryStore struct {
	mu         sync.RWMutex
	token      string
	remembered bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) SetToken(token string, remember bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.remembered = remember
	return nil
}

func (s *MemoryStore) GetToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

func (s *MemoryStore) RemoveToken() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.remembered = false
	return nil
}

func (s *MemoryStore) IsRemembered() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remembered
}
