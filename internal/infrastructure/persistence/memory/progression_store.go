// Package memory implements the progression Store on an in-process map.
// It is the reference Store: tests and local development runs use it in
// place of Redis. Concurrent updates for one (scope, userId) key are applied
// in submission order through a per-key mutex, so no update is lost; distinct
// keys proceed in parallel.
package memory

import (
	"context"
	"sync"

	"github.com/nebula-bot/nebula-hub/internal/domain/progression"
	"github.com/nebula-bot/nebula-hub/internal/domain/shared"
)

// ProgressionStore is an in-memory implementation of progression.Store.
type ProgressionStore struct {
	mu      sync.RWMutex
	records map[string]progression.Record

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewProgressionStore creates an empty in-memory store.
func NewProgressionStore() *ProgressionStore {
	return &ProgressionStore{
		records: make(map[string]progression.Record),
		locks:   make(map[string]*sync.Mutex),
	}
}

// Get loads the record for a scope and user.
func (s *ProgressionStore) Get(ctx context.Context, scope progression.Scope, user shared.UserID) (progression.Record, error) {
	if err := ctx.Err(); err != nil {
		return progression.Record{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[scope.Key(user)]
	if !ok {
		return progression.Record{}, shared.ErrRecordNotFound
	}
	return rec, nil
}

// Save unconditionally persists a record.
func (s *ProgressionStore) Save(ctx context.Context, rec progression.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[rec.Scope.Key(rec.UserID)] = rec
	return nil
}

// Update atomically applies fn to the current record (or the lazily-created
// default) and persists the result. Updates for the same key are serialized.
func (s *ProgressionStore) Update(
	ctx context.Context,
	scope progression.Scope,
	user shared.UserID,
	fn progression.UpdateFunc,
) (progression.Record, error) {
	if err := ctx.Err(); err != nil {
		return progression.Record{}, err
	}

	key := scope.Key(user)

	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	current, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		current = progression.NewRecord(scope, user)
	}

	next, err := fn(current)
	if err != nil {
		return progression.Record{}, err
	}

	s.mu.Lock()
	s.records[key] = next
	s.mu.Unlock()

	return next, nil
}

// Len returns the number of persisted records.
func (s *ProgressionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// keyLock returns the mutex guarding one key, creating it on first use.
func (s *ProgressionStore) keyLock(key string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}
