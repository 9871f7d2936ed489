package boltdb

import (
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/gophgram/internal/client/storage"
)

// BoltDB bucket names
var bucketAuth = []byte("auth")

// Storage represents BoltDB storage implementation for client
type Storage struct {
	db *bbolt.DB
}

// New creates a new BoltDB storage instance
// dbPath is the path to the BoltDB database file
func New(ctx context.Context, dbPath string) (*Storage, error) {
	// Второй CLI процесс не должен висеть на файловой блокировке бесконечно
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	s := &Storage{db: db}

	if err := s.initBuckets(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// initBuckets создает необходимые buckets если они не существуют
func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketAuth); err != nil {
			return fmt.Errorf("failed to create auth bucket: %w", err)
		}
		return nil
	})
}

func (s *Storage) view(fn func(tx *bbolt.Tx) error) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	return s.db.View(fn)
}

func (s *Storage) update(fn func(tx *bbolt.Tx) error) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	return s.db.Update(fn)
}
