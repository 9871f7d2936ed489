package boltdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/gophgram/internal/client/storage"
)

var _ storage.AuthStorage = (*Storage)(nil)

// В bucket хранится одна сессия под фиксированным ключом
var sessionKey = []byte("current")

func sessionBucket(tx *bbolt.Tx) (*bbolt.Bucket, error) {
	b := tx.Bucket(bucketAuth)
	if b == nil {
		return nil, errors.New("auth bucket not found")
	}
	return b, nil
}

// readSession декодирует сессию; data валидна только внутри транзакции
func readSession(b *bbolt.Bucket) (*storage.AuthData, error) {
	data := b.Get(sessionKey)
	if data == nil {
		return nil, storage.ErrAuthNotFound
	}
	var auth storage.AuthData
	if err := json.Unmarshal(data, &auth); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &auth, nil
}

// SaveAuth replaces the stored session. A session without token is rejected
func (s *Storage) SaveAuth(_ context.Context, auth *storage.AuthData) error {
	if auth == nil || auth.Token == "" {
		return errors.New("session token is empty")
	}

	data, err := json.Marshal(auth)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	return s.update(func(tx *bbolt.Tx) error {
		b, err := sessionBucket(tx)
		if err != nil {
			return err
		}
		if err := b.Put(sessionKey, data); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		return nil
	})
}

// GetAuth returns the stored session without checking it
func (s *Storage) GetAuth(_ context.Context) (*storage.AuthData, error) {
	var auth *storage.AuthData
	err := s.view(func(tx *bbolt.Tx) error {
		b, err := sessionBucket(tx)
		if err != nil {
			return err
		}
		auth, err = readSession(b)
		return err
	})
	if err != nil {
		return nil, err
	}
	return auth, nil
}

// LoadSession проверяет срок и сервер сессии. Негодная сессия удаляется
// в той же транзакции, ErrSessionStale возвращается уже после commit.
func (s *Storage) LoadSession(_ context.Context, serverURL string, now time.Time) (*storage.AuthData, error) {
	var (
		auth  *storage.AuthData
		stale bool
	)
	err := s.update(func(tx *bbolt.Tx) error {
		b, err := sessionBucket(tx)
		if err != nil {
			return err
		}
		saved, err := readSession(b)
		if err != nil {
			return err
		}
		if saved.Expired(now) || !saved.IssuedBy(serverURL) {
			stale = true
			if err := b.Delete(sessionKey); err != nil {
				return fmt.Errorf("failed to drop stale session: %w", err)
			}
			return nil
		}
		auth = saved
		return nil
	})
	switch {
	case err != nil:
		return nil, err
	case stale:
		return nil, storage.ErrSessionStale
	}
	return auth, nil
}

// DeleteAuth removes the stored session (logout)
func (s *Storage) DeleteAuth(_ context.Context) error {
	return s.update(func(tx *bbolt.Tx) error {
		b, err := sessionBucket(tx)
		if err != nil {
			return err
		}
		if b.Get(sessionKey) == nil {
			return storage.ErrAuthNotFound
		}
		if err := b.Delete(sessionKey); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		return nil
	})
}
