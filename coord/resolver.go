package coord

import (
	"sync"

	"github.com/tesseract-protocol/tesseract/core/types"
	"github.com/tesseract-protocol/tesseract/event"
	"github.com/tesseract-protocol/tesseract/metrics"
)

// lockTable tracks per-record resolution guards. The guard is taken
// before the engine mutex so a second resolver racing on the same id
// observes ErrResolveInProgress instead of queueing.
type lockTable struct {
	mu   sync.Mutex
	held map[types.Hash]struct{}
}

func newLockTable() *lockTable {
	return &lockTable{held: make(map[types.Hash]struct{})}
}

// acquire takes the guard for id, reporting false when already held.
func (lt *lockTable) acquire(id types.Hash) bool {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	if _, busy := lt.held[id]; busy {
		return false
	}
	lt.held[id] = struct{}{}
	return true
}

// release drops the guard for id.
func (lt *lockTable) release(id types.Hash) {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	delete(lt.held, id)
}

// Resolve attempts to advance a BUFFERED record to READY. The checks
// run in a fixed order: resolution guard, record state, flash-loan
// delay, reveal completeness, expiry, then dependency and requested
// time. An expired record is transitioned to EXPIRED here; the other
// failures feed the circuit breaker and leave the record BUFFERED for
// retry.
func (e *Engine) Resolve(caller types.Address, id types.Hash) error {
	if err := e.roles.Authorize(RoleResolve, caller); err != nil {
		return err
	}
	if !e.locks.acquire(id) {
		return ErrResolveInProgress
	}
	defer e.locks.release(id)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.paused {
		return ErrPaused
	}
	if err := e.breaker.Check(); err != nil {
		return err
	}
	timer := metrics.NewTimer(metrics.ResolveTime)
	defer timer.Stop()

	rec, ok := e.ledger.Get(id)
	if !ok {
		return ErrNotFound
	}
	if rec.State != types.StateBuffered {
		return ErrNotBuffered
	}
	if e.clock.Height() < rec.CreationHeight+e.cfg.MinResolutionDelay {
		e.recordFailure(id, "minimum resolution delay not met")
		return ErrResolveTooSoon
	}
	if rec.Committed() && !rec.Revealed {
		e.recordFailure(id, "committed payload not revealed")
		return ErrNotRevealed
	}

	now := e.clock.Now()
	if now > rec.Expiry {
		return e.expire(rec, "coordination window elapsed")
	}
	if !rec.DependencyID.IsZero() {
		dep := e.ledger.State(rec.DependencyID)
		if dep != types.StateReady && dep != types.StateExecuted {
			e.recordFailure(id, "dependency not READY or EXECUTED")
			return ErrDependencyState
		}
	}
	if now < rec.RequestedTime {
		e.recordFailure(id, "requested time not reached")
		return ErrTimeNotReached
	}

	rec.State = types.StateReady
	if err := e.ledger.Update(rec); err != nil {
		return err
	}
	metrics.TxResolved.Inc()
	e.log.Info("transaction ready", "id", id)
	e.bus.Publish(event.TypeReady, id)

	if !rec.SwapGroupID.IsZero() && e.groups.MarkReady(rec.SwapGroupID) {
		size, ready, _ := e.groups.Status(rec.SwapGroupID)
		metrics.GroupsCompleted.Inc()
		e.log.Info("swap group completed", "group", rec.SwapGroupID, "size", size)
		e.bus.Publish(event.TypeGroupCompleted, GroupData{
			GroupID: rec.SwapGroupID,
			Size:    size,
			Ready:   ready,
		})
	}
	return nil
}

// expire transitions rec to EXPIRED and records the failure. Caller
// holds e.mu; rec is BUFFERED or READY.
func (e *Engine) expire(rec *types.TransactionRecord, reason string) error {
	if rec.State == types.StateReady && !rec.SwapGroupID.IsZero() {
		e.groups.MarkUnready(rec.SwapGroupID)
	}
	rec.State = types.StateExpired
	rec.FailureReason = reason
	if err := e.ledger.Update(rec); err != nil {
		return err
	}
	metrics.TxExpired.Inc()
	e.log.Warn("transaction expired", "id", rec.ID, "reason", reason)
	e.bus.Publish(event.TypeExpired, rec.ID)
	e.recordFailure(rec.ID, reason)
	return ErrExpired
}

// MarkExecuted records that external settlement consumed a READY
// record. EXECUTED is terminal.
func (e *Engine) MarkExecuted(caller types.Address, id types.Hash) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.roles.Authorize(RoleResolve, caller); err != nil {
		return err
	}
	if e.paused {
		return ErrPaused
	}
	rec, ok := e.ledger.Get(id)
	if !ok {
		return ErrNotFound
	}
	if rec.State != types.StateReady {
		return ErrNotReady
	}

	rec.State = types.StateExecuted
	if err := e.ledger.Update(rec); err != nil {
		return err
	}
	metrics.TxExecuted.Inc()
	e.log.Info("transaction executed", "id", id)
	e.bus.Publish(event.TypeExecuted, id)
	return nil
}

// MarkFailed transitions a BUFFERED record to FAILED with an explicit
// reason, feeding the circuit breaker. The refund recipient may then
// claim through ClaimRefund.
func (e *Engine) MarkFailed(caller types.Address, id types.Hash, reason string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.roles.Authorize(RoleResolve, caller); err != nil {
		return err
	}
	if e.paused {
		return ErrPaused
	}
	rec, ok := e.ledger.Get(id)
	if !ok {
		return ErrNotFound
	}
	if rec.State != types.StateBuffered {
		return ErrNotBuffered
	}

	rec.State = types.StateFailed
	rec.FailureReason = reason
	if err := e.ledger.Update(rec); err != nil {
		return err
	}
	e.log.Warn("transaction failed", "id", id, "reason", reason)
	e.recordFailure(id, reason)
	return nil
}

// ExpireGroup collectively fails a swap group once any member is past
// its expiry. Every member still BUFFERED or READY transitions to
// EXPIRED; members already terminal are left alone. Group atomicity is
// one-way: completion needs all members, failure needs one.
func (e *Engine) ExpireGroup(caller types.Address, groupID types.Hash) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.roles.Authorize(RoleResolve, caller); err != nil {
		return err
	}
	if e.paused {
		return ErrPaused
	}
	group, ok := e.groups.Get(groupID)
	if !ok {
		return ErrNotFound
	}

	now := e.clock.Now()
	anyExpired := false
	for _, member := range group.Members {
		rec, ok := e.ledger.Get(member)
		if ok && now > rec.Expiry {
			anyExpired = true
			break
		}
	}
	if !anyExpired {
		return ErrGroupNotExpired
	}

	for _, member := range group.Members {
		rec, ok := e.ledger.Get(member)
		if !ok {
			continue
		}
		if rec.State != types.StateBuffered && rec.State != types.StateReady {
			continue
		}
		if err := e.expire(rec, "swap group expired"); err != nil && err != ErrExpired {
			return err
		}
	}
	metrics.GroupsExpired.Inc()
	e.log.Warn("swap group expired", "group", groupID, "size", len(group.Members))
	return nil
}
