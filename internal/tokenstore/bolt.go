package tokenstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	// DefaultBucket holds one record per slot.
	DefaultBucket = "tokens"

	openTimeout = time.Second
)

// BoltStore keeps encrypted token sets in a bbolt database.
// The database is opened per operation so the file lock is only held
// while a record is read or written.
type BoltStore struct {
	path   string
	bucket []byte
	sealer *sealer
}

// OpenBolt prepares a BoltStore at path using the key stored at keyPath.
// The key is created on first use.
func OpenBolt(path, keyPath string) (*BoltStore, error) {
	key, err := LoadOrCreateKey(keyPath)
	if err != nil {
		return nil, err
	}
	return NewBoltStore(path, key)
}

// NewBoltStore prepares a BoltStore at path sealed with key.
func NewBoltStore(path string, key []byte) (*BoltStore, error) {
	s, err := newSealer(key)
	if err != nil {
		return nil, err
	}
	return &BoltStore{
		path:   path,
		bucket: []byte(DefaultBucket),
		sealer: s,
	}, nil
}

// Path returns the database file path.
func (s *BoltStore) Path() string {
	return s.path
}

func (s *BoltStore) withDB(fn func(db *bolt.DB) error) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}
	db, err := bolt.Open(s.path, 0600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

// Load implements Store.
func (s *BoltStore) Load(ctx context.Context, slot string) (*TokenSet, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil, ErrNotFound
	}

	var sealed []byte
	err := s.withDB(func(db *bolt.DB) error {
		return db.View(func(tx *bolt.Tx) error {
			b := tx.Bucket(s.bucket)
			if b == nil {
				return nil
			}
			if v := b.Get([]byte(slot)); v != nil {
				sealed = append([]byte(nil), v...)
			}
			return nil
		})
	})
	if err != nil {
		return nil, &StoreError{Op: "load", Slot: slot, Err: err}
	}
	if sealed == nil {
		return nil, ErrNotFound
	}

	plain, err := s.sealer.open(slot, sealed)
	if err != nil {
		return nil, &StoreError{Op: "load", Slot: slot, Err: err}
	}
	var ts TokenSet
	if err := json.Unmarshal(plain, &ts); err != nil {
		return nil, &StoreError{Op: "load", Slot: slot, Err: err}
	}
	return &ts, nil
}

// Save implements Store.
func (s *BoltStore) Save(ctx context.Context, slot string, ts *TokenSet) error {
	plain, err := json.Marshal(ts)
	if err != nil {
		return &StoreError{Op: "save", Slot: slot, Err: err}
	}
	sealed, err := s.sealer.seal(slot, plain)
	if err != nil {
		return &StoreError{Op: "save", Slot: slot, Err: err}
	}

	err = s.withDB(func(db *bolt.DB) error {
		return db.Update(func(tx *bolt.Tx) error {
			b, err := tx.CreateBucketIfNotExists(s.bucket)
			if err != nil {
				return err
			}
			return b.Put([]byte(slot), sealed)
		})
	})
	if err != nil {
		return &StoreError{Op: "save", Slot: slot, Err: err}
	}
	return nil
}

// Delete implements Store.
func (s *BoltStore) Delete(ctx context.Context, slot string) error {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil
	}
	err := s.withDB(func(db *bolt.DB) error {
		return db.Update(func(tx *bolt.Tx) error {
			b := tx.Bucket(s.bucket)
			if b == nil {
				return nil
			}
			return b.Delete([]byte(slot))
		})
	})
	if err != nil {
		return &StoreError{Op: "delete", Slot: slot, Err: err}
	}
	return nil
}
