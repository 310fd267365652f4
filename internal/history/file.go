package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore persists the whole user_id -> UserRecord mapping in a single
// JSON document, rewritten wholesale on every Replace. A process-wide lock
// serializes load-modify-save so replaces for different users cannot
// corrupt each other; writes go to a temp file first and are renamed into
// place, so a crash mid-write never damages the previous state.
type FileStore struct {
	path  string
	mu    sync.Mutex
	users map[string]*UserRecord
}

func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history dir: %w", err)
	}
	s := &FileStore{path: path, users: make(map[string]*UserRecord)}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) Get(userID string) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[userID]
	if !ok {
		return nil
	}
	out := make([]Turn, len(rec.Messages))
	copy(out, rec.Messages)
	return out
}

func (s *FileStore) Replace(userID string, turns []Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	rec, ok := s.users[userID]
	if !ok {
		rec = &UserRecord{UserID: userID, CreatedAt: now}
		s.users[userID] = rec
	}
	msgs := make([]Turn, len(turns))
	copy(msgs, turns)
	prev, prevUpdated := rec.Messages, rec.UpdatedAt
	rec.Messages = msgs
	rec.UpdatedAt = now
	if err := s.saveLocked(); err != nil {
		// Keep the in-memory mirror consistent with what is on disk.
		rec.Messages = prev
		rec.UpdatedAt = prevUpdated
		if !ok {
			delete(s.users, userID)
		}
		return err
	}
	return nil
}

func (s *FileStore) Clear(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return nil
	}
	delete(s.users, userID)
	return s.saveLocked()
}

func (s *FileStore) Label() string { return "Local JSON" }

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read history file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	var users map[string]*UserRecord
	if err := json.Unmarshal(data, &users); err != nil {
		// Malformed file: start fresh rather than refuse to boot.
		return nil
	}
	if users != nil {
		s.users = users
	}
	return nil
}

func (s *FileStore) saveLocked() error {
	data, err := json.MarshalIndent(s.users, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace history file: %w", err)
	}
	return nil
}
