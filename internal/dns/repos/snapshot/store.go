// Package snapshot persists answer cache entries to a bbolt file so a
// restarted server comes back warm.
package snapshot

import (
	"fmt"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/haukened/fwd-dns/internal/dns/domain"
)

var bucketAnswers = []byte("answers")

// Store is a bbolt-backed snapshot of the answer cache.
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) a snapshot database at path and ensures the
// answers bucket exists.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: open snapshot %s: %w", domain.ErrIO, path, err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketAnswers)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: init snapshot %s: %w", domain.ErrIO, path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Save replaces the stored snapshot with entries in a single transaction.
func (s *Store) Save(entries []domain.CachedAnswer) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketAnswers) != nil {
			if err := tx.DeleteBucket(bucketAnswers); err != nil {
				return err
			}
		}
		b, err := tx.CreateBucket(bucketAnswers)
		if err != nil {
			return err
		}
		for _, e := range entries {
			v, err := encodeEntry(e)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(e.Key), v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Load returns every stored entry that is still valid at now. Undecodable
// values are skipped; the count of skipped values is returned alongside.
func (s *Store) Load(now time.Time) ([]domain.CachedAnswer, int, error) {
	var (
		entries []domain.CachedAnswer
		skipped int
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketAnswers)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			e, err := decodeEntry(string(k), v)
			if err != nil {
				skipped++
				return nil
			}
			if e.IsExpired(now) {
				return nil
			}
			entries = append(entries, e)
			return nil
		})
	})
	if err != nil {
		return nil, skipped, fmt.Errorf("%w: read snapshot: %w", domain.ErrIO, err)
	}
	return entries, skipped, nil
}

// Len returns the number of stored entries, expired or not.
func (s *Store) Len() int {
	n := 0
	_ = s.db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(bucketAnswers); b != nil {
			n = b.Stats().KeyN
		}
		return nil
	})
	return n
}
