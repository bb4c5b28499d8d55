package coord

import (
	"sync"

	"github.com/tesseract-protocol/tesseract/core/types"
)

// Ledger is the append-only store of transaction records. Records are
// appended exactly once and afterwards only transitioned; terminal
// records are retained for audit.
type Ledger struct {
	mu    sync.RWMutex
	store Store
	count uint64
}

// NewLedger wraps a Store. The count of previously persisted records is
// recovered from the backend.
func NewLedger(store Store) *Ledger {
	return &Ledger{
		store: store,
		count: uint64(store.Count()),
	}
}

// Append inserts a fresh record. The id must be unused for the lifetime
// of the ledger.
func (l *Ledger) Append(rec *types.TransactionRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.Put(rec); err != nil {
		return err
	}
	l.count++
	return nil
}

// Get returns a copy of the record with the given id.
func (l *Ledger) Get(id types.Hash) (*types.TransactionRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store.Get(id)
}

// Has reports whether an id has been used.
func (l *Ledger) Has(id types.Hash) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store.Has(id)
}

// Update rewrites an existing record after a state transition.
func (l *Ledger) Update(rec *types.TransactionRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Update(rec)
}

// Count returns the number of records ever appended.
func (l *Ledger) Count() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.count
}

// ForEach visits every record.
func (l *Ledger) ForEach(fn func(*types.TransactionRecord) error) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store.ForEach(fn)
}

// State returns the lifecycle tag for id, StateEmpty when no record
// exists.
func (l *Ledger) State(id types.Hash) types.TxState {
	rec, ok := l.Get(id)
	if !ok {
		return types.StateEmpty
	}
	return rec.State
}
