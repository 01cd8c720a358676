package tokenstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.etcd.io/bbolt"
)

var (
	sessionBucket = []byte("session")
	tokenKey      = []byte("token")
	rememberKey   = []byte("remember")
)

// BoltStore keeps remembered tokens in a bbolt file. Tokens written with
// remember=false live only in memory and die with the process.
type BoltStore struct {
	db *bbolt.DB

	mu       sync.RWMutex
	volatile string
}

var _ Store = (*BoltStore)(nil)

// OpenBoltStore opens (or creates) the store file at path
func OpenBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating token store dir: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening token store: %w", err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing token store: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Close closes the underlying bbolt file
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) SetToken(token string, remember bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(sessionBucket)
		if !remember {
			// a session-scoped sign-in replaces any remembered token
			if err := b.Delete(tokenKey); err != nil {
				return err
			}
			return b.Put(rememberKey, []byte(boolValue(false)))
		}
		if err := b.Put(tokenKey, []byte(token)); err != nil {
			return err
		}
		return b.Put(rememberKey, []byte(boolValue(true)))
	})
	if err != nil {
		return fmt.Errorf("writing token: %w", err)
	}

	if remember {
		s.volatile = ""
	} else {
		s.volatile = token
	}
	return nil
}

func (s *BoltStore) GetToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.volatile != "" {
		return s.volatile, true
	}

	var token string
	_ = s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(sessionBucket).Get(tokenKey); v != nil {
			token = string(v)
		}
		return nil
	})
	return token, token != ""
}

func (s *BoltStore) RemoveToken() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.volatile = ""
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(sessionBucket)
		if err := b.Delete(tokenKey); err != nil {
			return err
		}
		return b.Delete(rememberKey)
	})
	if err != nil {
		return fmt.Errorf("removing token: %w", err)
	}
	return nil
}

func (s *BoltStore) IsRemembered() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	remembered := false
	_ = s.db.View(func(tx *bbolt.Tx) error {
		remembered = string(tx.Bucket(sessionBucket).Get(rememberKey)) == "1"
		return nil
	})
	return remembered
}
