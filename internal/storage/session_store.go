package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"github.com/cinematch/backend/internal/chat"
	"github.com/cinematch/backend/internal/metrics"
)

const sessionKeyPrefix = "session:"

// BadgerSessionStore persists chat sessions in BadgerDB.
// Every save refreshes the session's time to live.
type BadgerSessionStore struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenBadger opens a Badger database in dir, or an in-memory one when inMemory is set
func OpenBadger(dir string, inMemory bool) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return db, nil
}

func NewBadgerSessionStore(db *badger.DB, ttl time.Duration) *BadgerSessionStore {
	return &BadgerSessionStore{db: db, ttl: ttl}
}

func (b *BadgerSessionStore) Get(ctx context.Context, id string) (*chat.Session, error) {
	var s chat.Session

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &s)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, chat.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session %s: %w", id, err)
	}
	return &s, nil
}

func (b *BadgerSessionStore) Save(ctx context.Context, s *chat.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	return b.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(sessionKey(s.ID), data)
		if b.ttl > 0 {
			entry = entry.WithTTL(b.ttl)
		}
		return txn.SetEntry(entry)
	})
}

func (b *BadgerSessionStore) Delete(ctx context.Context, id string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		key := sessionKey(id)
		if _, err := txn.Get(key); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return chat.ErrSessionNotFound
	}
	return err
}

// Count returns the number of live sessions
func (b *BadgerSessionStore) Count(ctx context.Context) (int, error) {
	count := 0
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(sessionKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// SyncActiveSessions sets the active sessions gauge to the live session count.
// Sessions dropped by the TTL are not counted.
func (b *BadgerSessionStore) SyncActiveSessions(ctx context.Context) error {
	n, err := b.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count sessions: %w", err)
	}
	metrics.SetActiveSessions(n)
	return nil
}

// WatchActiveSessions resyncs the gauge every interval until ctx is done
func (b *BadgerSessionStore) WatchActiveSessions(ctx context.Context, interval time.Duration, logger *logrus.Entry) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := b.SyncActiveSessions(ctx); err != nil {
				logger.WithError(err).Warn("Active session sync failed")
			}
		}
	}
}

func sessionKey(id string) []byte {
	return []byte(sessionKeyPrefix + id)
}
