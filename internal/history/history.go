package history

import (
	"sync"
	"time"
)

// Roles recognized by the conversation pipeline. The store keeps whatever
// role it is given; filtering happens when the context window is built.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is a single message in a conversation, tagged with its role.
// Turns are immutable once created: history only ever grows by appending
// or disappears entirely via Clear.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTurn creates a Turn stamped with the current UTC time.
func NewTurn(role, content string) Turn {
	return Turn{Role: role, Content: content, Timestamp: time.Now().UTC()}
}

// UserRecord wraps one user's full history together with bookkeeping
// timestamps. UpdatedAt is refreshed on every Replace.
type UserRecord struct {
	UserID    string    `json:"user_id"`
	Messages  []Turn    `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists per-user conversation history.
// Get never fails: an unseen user simply has an empty history.
// Replace overwrites the whole stored sequence and must be durable before it
// returns. Clear is idempotent. Implementations must be safe for concurrent
// use; Replace calls for different users must not corrupt each other.
type Store interface {
	Get(userID string) []Turn
	Replace(userID string, turns []Turn) error
	Clear(userID string) error
	Label() string
}

// MemoryStore keeps all records in a map. It is the default for tests and
// for deployments that do not care about restarts.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*UserRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]*UserRecord)}
}

func (s *MemoryStore) Get(userID string) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.users[userID]
	if !ok {
		return nil
	}
	out := make([]Turn, len(rec.Messages))
	copy(out, rec.Messages)
	return out
}

func (s *MemoryStore) Replace(userID string, turns []Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	rec, ok := s.users[userID]
	if !ok {
		rec = &UserRecord{UserID: userID, CreatedAt: now}
		s.users[userID] = rec
	}
	rec.Messages = make([]Turn, len(turns))
	copy(rec.Messages, turns)
	rec.UpdatedAt = now
	return nil
}

func (s *MemoryStore) Clear(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
	return nil
}

func (s *MemoryStore) Label() string { return "In-Memory" }
