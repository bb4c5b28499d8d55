package types

import "fmt"

// TxState tracks the lifecycle of a buffered cross-rollup transaction.
// Transitions are strictly forward: BUFFERED -> READY -> EXECUTED on the
// success path, BUFFERED -> {FAILED, EXPIRED} -> REFUNDED on the failure
// path. A record is never deleted, only transitioned to a terminal tag.
type TxState uint8

const (
	StateEmpty TxState = iota
	StateBuffered
	StateReady
	StateExecuted
	StateFailed
	StateExpired
	StateRefunded
)

// String returns the state name.
func (s TxState) String() string {
	switch s {
	case StateEmpty:
		return "EMPTY"
	case StateBuffered:
		return "BUFFERED"
	case StateReady:
		return "READY"
	case StateExecuted:
		return "EXECUTED"
	case StateFailed:
		return "FAILED"
	case StateExpired:
		return "EXPIRED"
	case StateRefunded:
		return "REFUNDED"
	default:
		return fmt.Sprintf("STATE(%d)", uint8(s))
	}
}

// Terminal reports whether no further transition can leave the state.
// FAILED and EXPIRED are terminal for coordination purposes but still
// admit the one-time refund claim to REFUNDED.
func (s TxState) Terminal() bool {
	switch s {
	case StateExecuted, StateRefunded:
		return true
	}
	return false
}

// Refundable reports whether the designated refund recipient may claim
// a refund for a record in this state.
func (s TxState) Refundable() bool {
	return s == StateFailed || s == StateExpired
}

// TransactionRecord is a buffered cross-rollup transaction intent.
//
// ID, Expiry, CreationHeight and the origin/target pair are immutable
// once the record is stored. Payload is set at creation on the direct
// path and filled exactly once by a successful reveal on the commit
// path.
type TransactionRecord struct {
	// ID is the caller-chosen 256-bit identifier, unique for the
	// lifetime of the ledger.
	ID Hash

	// OriginRollup and TargetRollup identify the participating
	// execution domains. They must differ and be non-zero.
	OriginRollup Address
	TargetRollup Address

	// Payload is the opaque transaction intent, at most the configured
	// payload bound. Empty until revealed for committed records.
	Payload []byte

	// DependencyID optionally references another record that must reach
	// READY or EXECUTED first. The zero hash means no dependency.
	DependencyID Hash

	// RequestedTime is the logical execution time (unix seconds).
	RequestedTime uint64

	// State is the current lifecycle tag.
	State TxState

	// Expiry is RequestedTime plus the coordination window, fixed at
	// creation.
	Expiry uint64

	// CommitmentHash binds a delayed payload disclosure. Zero for
	// records created on the direct path.
	CommitmentHash Hash

	// RevealDeadline is the height bound for revealing a committed
	// payload. Only meaningful when CommitmentHash is non-zero.
	RevealDeadline uint64

	// Revealed records that the committed payload has been disclosed.
	Revealed bool

	// Creator is the submitter that buffered the record.
	Creator Address

	// RefundRecipient may claim the refund once the record is FAILED or
	// EXPIRED. Defaults to the creator.
	RefundRecipient Address

	// SwapGroupID optionally ties the record into a bounded atomic
	// group. The zero hash means ungrouped.
	SwapGroupID Hash

	// CreationHeight is the chain height observed when the record was
	// buffered. Resolution is not eligible until a minimum number of
	// heights have passed.
	CreationHeight uint64

	// FailureReason holds the reason supplied with an explicit failure
	// mark or recorded on expiry.
	FailureReason string
}

// Committed reports whether the record was created via the commit path.
func (r *TransactionRecord) Committed() bool {
	return !r.CommitmentHash.IsZero()
}

// Copy returns a deep copy of the record.
func (r *TransactionRecord) Copy() *TransactionRecord {
	cpy := *r
	if r.Payload != nil {
		cpy.Payload = make([]byte, len(r.Payload))
		copy(cpy.Payload, r.Payload)
	}
	return &cpy
}

// MaxSwapGroupSize bounds the number of legs in an atomic swap group.
const MaxSwapGroupSize = 4

// SwapGroup is a bounded set of co-dependent records. All members must
// reach READY for the group to complete; if any member expires the
// whole group is failed.
type SwapGroup struct {
	// ID identifies the group.
	ID Hash

	// Members holds the ids of the grouped records in join order.
	Members []Hash

	// ReadyCount is the number of members currently READY.
	ReadyCount int
}

// Full reports whether the group has reached its capacity bound.
func (g *SwapGroup) Full() bool {
	return len(g.Members) >= MaxSwapGroupSize
}

// AllReady reports whether every member of the group is READY.
func (g *SwapGroup) AllReady() bool {
	return len(g.Members) > 0 && g.ReadyCount == len(g.Members)
}

// Contains reports whether id is a member of the group.
func (g *SwapGroup) Contains(id Hash) bool {
	for _, m := range g.Members {
		if m == id {
			return true
		}
	}
	return false
}

// Copy returns a deep copy of the group.
func (g *SwapGroup) Copy() *SwapGroup {
	cpy := *g
	cpy.Members = make([]Hash, len(g.Members))
	copy(cpy.Members, g.Members)
	return &cpy
}
