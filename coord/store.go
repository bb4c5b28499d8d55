package coord

import (
	"sync"

	"github.com/tesseract-protocol/tesseract/core/types"
)

// Store is the pluggable persistence backend for the transaction
// ledger. The ledger is append-only: records are inserted once and
// afterwards only transitioned, never removed.
type Store interface {
	// Put inserts a new record. Inserting an existing id returns
	// ErrDuplicateID.
	Put(rec *types.TransactionRecord) error

	// Get returns a copy of the record with the given id.
	Get(id types.Hash) (*types.TransactionRecord, bool)

	// Update rewrites an existing record. A missing id returns
	// ErrNotFound.
	Update(rec *types.TransactionRecord) error

	// Has reports whether a record with id exists.
	Has(id types.Hash) bool

	// Count returns the number of stored records.
	Count() int

	// ForEach visits every record. Iteration stops on the first error,
	// which is returned.
	ForEach(fn func(*types.TransactionRecord) error) error

	// Close releases backend resources.
	Close() error
}

// MemoryStore keeps records in a process-local map. It is the default
// backend.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[types.Hash]*types.TransactionRecord
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[types.Hash]*types.TransactionRecord),
	}
}

// Put inserts a new record.
func (s *MemoryStore) Put(rec *types.TransactionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ID]; exists {
		return ErrDuplicateID
	}
	s.records[rec.ID] = rec.Copy()
	return nil
}

// Get returns a copy of the record with the given id.
func (s *MemoryStore) Get(id types.Hash) (*types.TransactionRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, false
	}
	return rec.Copy(), true
}

// Update rewrites an existing record.
func (s *MemoryStore) Update(rec *types.TransactionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ID]; !exists {
		return ErrNotFound
	}
	s.records[rec.ID] = rec.Copy()
	return nil
}

// Has reports whether a record with id exists.
func (s *MemoryStore) Has(id types.Hash) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[id]
	return ok
}

// Count returns the number of stored records.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// ForEach visits every record in unspecified order.
func (s *MemoryStore) ForEach(fn func(*types.TransactionRecord) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records {
		if err := fn(rec.Copy()); err != nil {
			return err
		}
	}
	return nil
}

// Close is a no-op for the in-memory backend.
func (s *MemoryStore) Close() error { return nil }
