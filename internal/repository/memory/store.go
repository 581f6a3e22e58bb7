// Package memory is an in-process storage engine. Each collection is kept as
// one serialized blob under a fixed key and every mutation rewrites the whole
// blob, matching the local-storage layout the service replaces.
package memory

import (
	"context"
	"encoding/json"
	"sync"
)

// Storage keys
const (
	KeyKnownUsers = "known_users"
	KeyRequests   = "requests"
	KeyUsers      = "users"
)

// Store holds serialized collections by key.
type Store struct {
	mu    sync.RWMutex
	blobs map[string][]byte
	wrMu  sync.Mutex // serializes read-modify-write cycles
	txMu  sync.Mutex
}

func NewStore() *Store {
	return &Store{blobs: map[string][]byte{}}
}

// Raw returns a copy of the blob stored under key.
func (s *Store) Raw(key string) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b := s.blobs[key]
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func load[T any](s *Store, key string) ([]T, error) {
	s.mu.RLock()
	b := s.blobs[key]
	s.mu.RUnlock()

	var items []T
	if len(b) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func save[T any](s *Store, key string, items []T) error {
	b, err := json.Marshal(items)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.blobs[key] = b
	s.mu.Unlock()
	return nil
}

// mutate performs one read-modify-write cycle on the collection under key.
func mutate[T any](s *Store, key string, fn func(items []T) ([]T, error)) error {
	s.wrMu.Lock()
	defer s.wrMu.Unlock()

	items, err := load[T](s, key)
	if err != nil {
		return err
	}
	items, err = fn(items)
	if err != nil {
		return err
	}
	return save(s, key, items)
}

type txMarker struct{}

// TransactionManager serializes units of work on one Store. It gives
// in-process isolation only; there is no rollback of partial writes.
type TransactionManager struct {
	store *Store
}

func NewTransactionManager(store *Store) *TransactionManager {
	return &TransactionManager{store: store}
}

func (t *TransactionManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if ctx.Value(txMarker{}) != nil {
		return fn(ctx)
	}
	t.store.txMu.Lock()
	defer t.store.txMu.Unlock()
	return fn(context.WithValue(ctx, txMarker{}, true))
}
