// Package localstore persists small JSON snapshots under named keys, the
// client-side stand-in for browser local storage. Each key maps to one file
// in the store directory.
package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrKeyNotFound is returned when no snapshot exists for a key.
var ErrKeyNotFound = errors.New("key not found")

// Store is a directory of per-key JSON snapshot files.
type Store struct {
	mu  sync.Mutex
	dir string
}

// New creates the snapshot directory if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("empty store directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save serializes v under the given key, replacing any previous snapshot.
func (s *Store) Save(key string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return os.Rename(tmp, path)
}

// Load deserializes the snapshot stored under key into v.
func (s *Store) Load(key string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrKeyNotFound
		}
		return fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// Delete removes the snapshot stored under key, if any.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// sessionKey is the fixed key holding the signed-in user's credential,
// separate from any other snapshot in the directory.
const sessionKey = "auth-session"

// SessionStore persists the bearer credential under a fixed key so a
// restarted client resumes its session.
type SessionStore struct {
	store *Store
}

// NewSessionStore wraps a snapshot store for session persistence.
func NewSessionStore(store *Store) *SessionStore {
	return &SessionStore{store: store}
}

type sessionRecord struct {
	Token string `json:"token"`
}

// SaveToken replaces the persisted credential.
func (s *SessionStore) SaveToken(token string) error {
	return s.store.Save(sessionKey, sessionRecord{Token: token})
}

// LoadToken returns the persisted credential, or empty when none was saved.
func (s *SessionStore) LoadToken() (string, error) {
	var rec sessionRecord
	if err := s.store.Load(sessionKey, &rec); err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return "", nil
		}
		return "", err
	}
	return rec.Token, nil
}

// DeleteToken removes the persisted credential.
func (s *SessionStore) DeleteToken() error {
	return s.store.Delete(sessionKey)
}
