// Package revoke keeps revoked bearer tokens in a Badger key-value store so
// revocations survive restarts and can be shared by every instance pointed at
// the same path. Entries carry a TTL matching the token's remaining lifetime,
// so the store never grows past the set of still-valid tokens.
package revoke

import (
	"crypto/sha256"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
)

type Store struct {
	db *badger.DB
}

// Open opens the store at path. An empty path opens an in-memory store,
// useful for tests.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func key(token string) []byte {
	// Tokens are credentials; store only a digest.
	sum := sha256.Sum256([]byte(token))
	return sum[:]
}

// Revoke marks the token revoked for ttl. Non-positive ttl means the token is
// already past its expiry and there is nothing to record.
func (s *Store) Revoke(token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(key(token), nil).WithTTL(ttl)
		return txn.SetEntry(e)
	})
}

// IsRevoked reports whether the token has been revoked and not yet expired.
func (s *Store) IsRevoked(token string) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key(token))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
