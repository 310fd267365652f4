package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var usersBucket = []byte("users")

// BoltStore keeps one UserRecord per key in a bbolt bucket. Every Replace
// runs inside a write transaction, so durability and atomicity come from
// the database itself rather than from whole-file rewrites.
type BoltStore struct {
	db *bolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, e := tx.CreateBucketIfNotExists(usersBucket)
		return e
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init users bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Get(userID string) []Turn {
	var out []Turn
	_ = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(usersBucket)
		if b == nil {
			return nil
		}
		v := b.Get([]byte(userID))
		if len(v) == 0 {
			return nil
		}
		var rec UserRecord
		if err := json.Unmarshal(v, &rec); err != nil {
			// Malformed record reads as empty history.
			return nil
		}
		out = rec.Messages
		return nil
	})
	return out
}

func (s *BoltStore) Replace(userID string, turns []Turn) error {
	now := time.Now().UTC()
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(usersBucket)
		rec := UserRecord{UserID: userID, CreatedAt: now}
		if v := b.Get([]byte(userID)); len(v) > 0 {
			var prev UserRecord
			if err := json.Unmarshal(v, &prev); err == nil && !prev.CreatedAt.IsZero() {
				rec.CreatedAt = prev.CreatedAt
			}
		}
		rec.Messages = turns
		rec.UpdatedAt = now
		enc, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
		if err := b.Put([]byte(userID), enc); err != nil {
			return fmt.Errorf("put record: %w", err)
		}
		return nil
	})
}

func (s *BoltStore) Clear(userID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(usersBucket).Delete([]byte(userID))
	})
}

func (s *BoltStore) Label() string { return "BoltDB" }

func (s *BoltStore) Close() error { return s.db.Close() }
