package coord

import (
	"time"

	"github.com/boltdb/bolt"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/tesseract-protocol/tesseract/core/types"
)

var recordsBucket = []byte("records")

// BoltStore persists the ledger in a bolt database, one RLP-encoded
// record per key. Records survive process restarts; the engine rebuilds
// its swap-group and counter state from the store on startup.
type BoltStore struct {
	db *bolt.DB
}

// boltRecord is the RLP wire form of a TransactionRecord, kept separate
// so the domain struct can change without breaking stored data.
type boltRecord struct {
	ID              types.Hash
	OriginRollup    types.Address
	TargetRollup    types.Address
	Payload         []byte
	DependencyID    types.Hash
	RequestedTime   uint64
	State           uint8
	Expiry          uint64
	CommitmentHash  types.Hash
	RevealDeadline  uint64
	Revealed        bool
	Creator         types.Address
	RefundRecipient types.Address
	SwapGroupID     types.Hash
	CreationHeight  uint64
	FailureReason   string
}

func toBoltRecord(rec *types.TransactionRecord) *boltRecord {
	return &boltRecord{
		ID:              rec.ID,
		OriginRollup:    rec.OriginRollup,
		TargetRollup:    rec.TargetRollup,
		Payload:         rec.Payload,
		DependencyID:    rec.DependencyID,
		RequestedTime:   rec.RequestedTime,
		State:           uint8(rec.State),
		Expiry:          rec.Expiry,
		CommitmentHash:  rec.CommitmentHash,
		RevealDeadline:  rec.RevealDeadline,
		Revealed:        rec.Revealed,
		Creator:         rec.Creator,
		RefundRecipient: rec.RefundRecipient,
		SwapGroupID:     rec.SwapGroupID,
		CreationHeight:  rec.CreationHeight,
		FailureReason:   rec.FailureReason,
	}
}

func (br *boltRecord) toRecord() *types.TransactionRecord {
	return &types.TransactionRecord{
		ID:              br.ID,
		OriginRollup:    br.OriginRollup,
		TargetRollup:    br.TargetRollup,
		Payload:         br.Payload,
		DependencyID:    br.DependencyID,
		RequestedTime:   br.RequestedTime,
		State:           types.TxState(br.State),
		Expiry:          br.Expiry,
		CommitmentHash:  br.CommitmentHash,
		RevealDeadline:  br.RevealDeadline,
		Revealed:        br.Revealed,
		Creator:         br.Creator,
		RefundRecipient: br.RefundRecipient,
		SwapGroupID:     br.SwapGroupID,
		CreationHeight:  br.CreationHeight,
		FailureReason:   br.FailureReason,
	}
}

// OpenBoltStore opens (creating if necessary) the bolt database at
// path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(recordsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

// Put inserts a new record.
func (s *BoltStore) Put(rec *types.TransactionRecord) error {
	enc, err := rlp.EncodeToBytes(toBoltRecord(rec))
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(recordsBucket)
		if b.Get(rec.ID.Bytes()) != nil {
			return ErrDuplicateID
		}
		return b.Put(rec.ID.Bytes(), enc)
	})
}

// Get returns the record with the given id.
func (s *BoltStore) Get(id types.Hash) (*types.TransactionRecord, bool) {
	var rec *types.TransactionRecord
	s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(recordsBucket).Get(id.Bytes())
		if raw == nil {
			return nil
		}
		var br boltRecord
		if err := rlp.DecodeBytes(raw, &br); err != nil {
			return err
		}
		rec = br.toRecord()
		return nil
	})
	return rec, rec != nil
}

// Update rewrites an existing record.
func (s *BoltStore) Update(rec *types.TransactionRecord) error {
	enc, err := rlp.EncodeToBytes(toBoltRecord(rec))
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(recordsBucket)
		if b.Get(rec.ID.Bytes()) == nil {
			return ErrNotFound
		}
		return b.Put(rec.ID.Bytes(), enc)
	})
}

// Has reports whether a record with id exists.
func (s *BoltStore) Has(id types.Hash) bool {
	found := false
	s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(recordsBucket).Get(id.Bytes()) != nil
		return nil
	})
	return found
}

// Count returns the number of stored records.
func (s *BoltStore) Count() int {
	count := 0
	s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(recordsBucket).Stats().KeyN
		return nil
	})
	return count
}

// ForEach visits every record in key order.
func (s *BoltStore) ForEach(fn func(*types.TransactionRecord) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(recordsBucket).ForEach(func(_, raw []byte) error {
			var br boltRecord
			if err := rlp.DecodeBytes(raw, &br); err != nil {
				return err
			}
			return fn(br.toRecord())
		})
	})
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
