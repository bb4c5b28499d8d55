// Package coord implements the cross-rollup transaction coordination
// engine: an append-only ledger of transaction intents driven through a
// buffer / resolve / execute lifecycle, with commit-reveal disclosure,
// a flash-loan resolution delay, bounded atomic swap groups, per-period
// rate limiting and a global circuit breaker.
package coord

import (
	"sync"

	"github.com/tesseract-protocol/tesseract/core/types"
	"github.com/tesseract-protocol/tesseract/event"
	"github.com/tesseract-protocol/tesseract/log"
	"github.com/tesseract-protocol/tesseract/metrics"
)

// BufferedData is the payload of a TypeBuffered event.
type BufferedData struct {
	ID            types.Hash
	OriginRollup  types.Address
	TargetRollup  types.Address
	RequestedTime uint64
	Committed     bool
}

// FailedData is the payload of a TypeFailed event.
type FailedData struct {
	ID     types.Hash
	Reason string
}

// GroupData is the payload of group lifecycle events.
type GroupData struct {
	GroupID types.Hash
	Size    int
	Ready   int
}

// RoleData is the payload of role grant and revoke events.
type RoleData struct {
	Role    types.Hash
	Account types.Address
}

// Engine coordinates buffered cross-rollup transactions. All mutating
// operations are serialized under a single mutex; reads go through the
// components' own locks. An Engine is safe for concurrent use.
type Engine struct {
	mu      sync.Mutex
	cfg     Config
	clock   Clock
	roles   *RoleRegistry
	ledger  *Ledger
	limiter *RateLimiter
	breaker *CircuitBreaker
	groups  *SwapGroupTracker
	locks   *lockTable
	bus     *event.Bus
	log     *log.Logger
	paused  bool
}

// NewEngine creates an engine owned by owner on top of store. A nil
// store gets an in-memory one, a nil clock the system clock. Swap group
// membership and ready counts are rebuilt from persisted records so a
// restart over a bolt-backed store resumes where it left off.
func NewEngine(owner types.Address, cfg Config, store Store, clock Clock) (*Engine, error) {
	if owner.IsZero() {
		return nil, ErrZeroAddress
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if store == nil {
		store = NewMemoryStore()
	}
	if clock == nil {
		clock = NewSystemClock()
	}

	e := &Engine{
		cfg:     cfg,
		clock:   clock,
		roles:   NewRoleRegistry(owner),
		ledger:  NewLedger(store),
		limiter: NewRateLimiter(cfg.GlobalRateLimit, cfg.SubmitterRateLimit),
		breaker: NewCircuitBreaker(cfg.BreakerThreshold, cfg.BreakerCooldown, clock.Now()),
		groups:  NewSwapGroupTracker(),
		locks:   newLockTable(),
		bus:     event.NewBus(cfg.EventBuffer),
		log:     log.Default().Module("coord"),
	}
	if err := e.rebuildGroups(); err != nil {
		return nil, err
	}
	metrics.LedgerRecords.Set(int64(e.ledger.Count()))
	e.log.Info("engine started", "owner", owner, "records", e.ledger.Count())
	return e, nil
}

// rebuildGroups replays persisted records into the swap group tracker.
// Members already READY or EXECUTED count toward group completion.
func (e *Engine) rebuildGroups() error {
	return e.ledger.ForEach(func(rec *types.TransactionRecord) error {
		if rec.SwapGroupID.IsZero() {
			return nil
		}
		if _, err := e.groups.Join(rec.SwapGroupID, rec.ID); err != nil {
			return err
		}
		if rec.State == types.StateReady || rec.State == types.StateExecuted {
			e.groups.MarkReady(rec.SwapGroupID)
		}
		return nil
	})
}

// Events returns the engine's event bus.
func (e *Engine) Events() *event.Bus { return e.bus }

// Close shuts the event bus and the backing store.
func (e *Engine) Close() error {
	e.bus.Close()
	return e.ledger.store.Close()
}

// ---- reads ----

// GetRecord returns a copy of the record with the given id.
func (e *Engine) GetRecord(id types.Hash) (*types.TransactionRecord, bool) {
	return e.ledger.Get(id)
}

// GetState returns the lifecycle tag for id, StateEmpty when no record
// exists.
func (e *Engine) GetState(id types.Hash) types.TxState {
	return e.ledger.State(id)
}

// IsReady reports whether id is currently READY.
func (e *Engine) IsReady(id types.Hash) bool {
	return e.ledger.State(id) == types.StateReady
}

// TransactionCount returns the number of records ever buffered.
func (e *Engine) TransactionCount() uint64 { return e.ledger.Count() }

// SwapGroupCount returns the number of swap groups ever created.
func (e *Engine) SwapGroupCount() int { return e.groups.Count() }

// GroupStatus returns (size, readyCount, allReady) for a swap group.
func (e *Engine) GroupStatus(groupID types.Hash) (size, ready int, allReady bool) {
	return e.groups.Status(groupID)
}

// HasRole reports whether account holds role.
func (e *Engine) HasRole(role types.Hash, account types.Address) bool {
	return e.roles.HasRole(role, account)
}

// Owner returns the current owner.
func (e *Engine) Owner() types.Address { return e.roles.Owner() }

// Paused reports whether the engine is paused.
func (e *Engine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// BreakerTripped reports whether the circuit breaker is open.
func (e *Engine) BreakerTripped() bool { return e.breaker.Tripped() }

// FailureCount returns the breaker's accumulated failure count.
func (e *Engine) FailureCount() int { return e.breaker.FailureCount() }

// ---- administration ----

// GrantRole gives role to grantee. Owner only.
func (e *Engine) GrantRole(caller types.Address, role types.Hash, grantee types.Address) error {
	if err := e.roles.Grant(caller, role, grantee); err != nil {
		return err
	}
	e.log.Info("role granted", "role", role, "account", grantee)
	e.bus.Publish(event.TypeRoleGranted, RoleData{Role: role, Account: grantee})
	return nil
}

// RevokeRole removes role from grantee. Owner only.
func (e *Engine) RevokeRole(caller types.Address, role types.Hash, grantee types.Address) error {
	if err := e.roles.Revoke(caller, role, grantee); err != nil {
		return err
	}
	e.log.Info("role revoked", "role", role, "account", grantee)
	e.bus.Publish(event.TypeRoleRevoked, RoleData{Role: role, Account: grantee})
	return nil
}

// TransferOwnership reassigns the owner outright. Owner only; the zero
// address is rejected.
func (e *Engine) TransferOwnership(caller, newOwner types.Address) error {
	if err := e.roles.TransferOwnership(caller, newOwner); err != nil {
		return err
	}
	e.log.Info("ownership transferred", "owner", newOwner)
	return nil
}

// SetEmergencyAdmin designates an address that may pause, but not
// unpause, the engine. Owner only.
func (e *Engine) SetEmergencyAdmin(caller, admin types.Address) error {
	return e.roles.SetEmergencyAdmin(caller, admin)
}

// Pause halts all lifecycle mutation. The owner and the emergency admin
// may pause.
func (e *Engine) Pause(caller types.Address) error {
	if !e.roles.CanPause(caller) {
		return ErrUnauthorized
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.paused {
		return nil
	}
	e.paused = true
	e.log.Warn("engine paused", "by", caller)
	e.bus.Publish(event.TypePaused, caller)
	return nil
}

// Unpause resumes lifecycle mutation. Owner only; the emergency admin
// cannot unpause.
func (e *Engine) Unpause(caller types.Address) error {
	if !e.roles.IsOwner(caller) {
		return ErrUnauthorized
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.paused {
		return ErrNotPaused
	}
	e.paused = false
	e.log.Info("engine unpaused")
	e.bus.Publish(event.TypeUnpaused, caller)
	return nil
}

// ResetBreaker closes the circuit breaker and zeroes its failure
// count. Requires the admin capability and an elapsed cooldown.
func (e *Engine) ResetBreaker(caller types.Address) error {
	if err := e.roles.Authorize(RoleAdmin, caller); err != nil {
		return err
	}
	if err := e.breaker.Reset(e.clock.Now()); err != nil {
		return err
	}
	metrics.BreakerFailures.Set(0)
	e.log.Info("circuit breaker reset", "by", caller)
	e.bus.Publish(event.TypeBreakerReset, caller)
	return nil
}

// SetCoordinationWindow adjusts the resolution deadline window.
// Admin capability; bounds enforced.
func (e *Engine) SetCoordinationWindow(caller types.Address, seconds uint64) error {
	if err := e.roles.Authorize(RoleAdmin, caller); err != nil {
		return err
	}
	if seconds < MinCoordinationWindow || seconds > MaxCoordinationWindow {
		return ErrConfigBounds
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.CoordinationWindow = seconds
	return nil
}

// SetMaxPayloadSize adjusts the payload byte bound. Admin capability;
// bounds enforced.
func (e *Engine) SetMaxPayloadSize(caller types.Address, size int) error {
	if err := e.roles.Authorize(RoleAdmin, caller); err != nil {
		return err
	}
	if size < MinPayloadBound || size > MaxPayloadBound {
		return ErrConfigBounds
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.MaxPayloadSize = size
	return nil
}

// SetMinResolutionDelay adjusts the flash-loan guard. Admin capability.
func (e *Engine) SetMinResolutionDelay(caller types.Address, heights uint64) error {
	if err := e.roles.Authorize(RoleAdmin, caller); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.MinResolutionDelay = heights
	return nil
}

// SetRateLimits replaces both admission caps. Admin capability.
func (e *Engine) SetRateLimits(caller types.Address, globalCap, submitterCap int) error {
	if err := e.roles.Authorize(RoleAdmin, caller); err != nil {
		return err
	}
	if globalCap <= 0 || submitterCap <= 0 {
		return ErrConfigBounds
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.GlobalRateLimit = globalCap
	e.cfg.SubmitterRateLimit = submitterCap
	e.limiter.SetLimits(globalCap, submitterCap)
	return nil
}

// SetBreakerThreshold adjusts the breaker trip threshold. Admin
// capability; an open breaker stays open.
func (e *Engine) SetBreakerThreshold(caller types.Address, threshold int) error {
	if err := e.roles.Authorize(RoleAdmin, caller); err != nil {
		return err
	}
	if threshold < MinBreakerThreshold {
		return ErrConfigBounds
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.BreakerThreshold = threshold
	e.breaker.SetThreshold(threshold)
	return nil
}

// period keys the rate limiter by the observed chain height.
func (e *Engine) period() uint64 { return e.clock.Height() }

// recordFailure feeds the circuit breaker and emits the failure signal.
// Caller holds e.mu.
func (e *Engine) recordFailure(id types.Hash, reason string) {
	metrics.TxFailed.Inc()
	e.bus.Publish(event.TypeFailed, FailedData{ID: id, Reason: reason})
	if e.breaker.RecordFailure() {
		metrics.BreakerTrips.Inc()
		e.log.Warn("circuit breaker tripped", "failures", e.breaker.FailureCount())
		e.bus.Publish(event.TypeBreakerTripped, e.breaker.FailureCount())
	}
	metrics.BreakerFailures.Set(int64(e.breaker.FailureCount()))
}
