package coord

import (
	"github.com/tesseract-protocol/tesseract/core/types"
	"github.com/tesseract-protocol/tesseract/event"
	"github.com/tesseract-protocol/tesseract/metrics"
)

// admit runs the shared admission checks for both buffer paths, in
// order: capability, pause, breaker, rate limit, id freshness, rollup
// pair. The caller validates its payload or commitment next, then the
// requested time via checkRequestedTime. Caller holds e.mu.
func (e *Engine) admit(caller types.Address, id types.Hash, origin, target types.Address) error {
	if err := e.roles.Authorize(RoleBuffer, caller); err != nil {
		return err
	}
	if e.paused {
		return ErrPaused
	}
	if err := e.breaker.Check(); err != nil {
		return err
	}
	if err := e.limiter.Allow(e.period(), caller); err != nil {
		metrics.RateLimited.Inc()
		e.log.Debug("buffer rate limited", "submitter", caller)
		return err
	}
	if id.IsZero() {
		return ErrZeroID
	}
	if e.ledger.Has(id) {
		return ErrDuplicateID
	}
	if origin.IsZero() || target.IsZero() {
		return ErrZeroRollup
	}
	if origin == target {
		return ErrSameRollup
	}
	return nil
}

// checkRequestedTime enforces the admission time bounds: not in the
// past, at most the future window ahead.
func (e *Engine) checkRequestedTime(requestedTime uint64) error {
	now := e.clock.Now()
	if requestedTime < now {
		return ErrTimeInPast
	}
	if requestedTime > now+e.cfg.MaxFutureWindow {
		return ErrTimeTooFar
	}
	return nil
}

// append stores the record, charges the rate limiter and emits the
// buffered signal. Caller holds e.mu and has fully validated rec.
func (e *Engine) append(rec *types.TransactionRecord) error {
	if err := e.ledger.Append(rec); err != nil {
		return err
	}
	e.limiter.Record(e.period(), rec.Creator)
	metrics.TxBuffered.Inc()
	metrics.LedgerRecords.Set(int64(e.ledger.Count()))
	e.log.Info("transaction buffered",
		"id", rec.ID,
		"origin", rec.OriginRollup,
		"target", rec.TargetRollup,
		"requested", rec.RequestedTime,
		"committed", rec.Committed())
	e.bus.Publish(event.TypeBuffered, BufferedData{
		ID:            rec.ID,
		OriginRollup:  rec.OriginRollup,
		TargetRollup:  rec.TargetRollup,
		RequestedTime: rec.RequestedTime,
		Committed:     rec.Committed(),
	})
	return nil
}

// Buffer admits a transaction intent with its payload in the clear.
// The record enters BUFFERED with an expiry of requestedTime plus the
// coordination window. dependencyID may be the zero hash.
func (e *Engine) Buffer(caller types.Address, id types.Hash, origin, target types.Address, payload []byte, dependencyID types.Hash, requestedTime uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.admit(caller, id, origin, target); err != nil {
		return err
	}
	if len(payload) == 0 {
		return ErrEmptyPayload
	}
	if len(payload) > e.cfg.MaxPayloadSize {
		return ErrPayloadTooLarge
	}
	if err := e.checkRequestedTime(requestedTime); err != nil {
		return err
	}

	rec := &types.TransactionRecord{
		ID:              id,
		OriginRollup:    origin,
		TargetRollup:    target,
		Payload:         payload,
		DependencyID:    dependencyID,
		RequestedTime:   requestedTime,
		State:           types.StateBuffered,
		Expiry:          requestedTime + e.cfg.CoordinationWindow,
		Creator:         caller,
		RefundRecipient: caller,
		CreationHeight:  e.clock.Height(),
	}
	return e.append(rec)
}

// BufferCommitted admits a transaction intent bound to a payload
// commitment instead of the payload itself. The payload must be
// disclosed through Reveal before the record can resolve. groupID, if
// non-zero, atomically ties the record into a swap group at creation;
// refundRecipient, if non-zero, overrides the default refund claimant.
func (e *Engine) BufferCommitted(caller types.Address, id types.Hash, origin, target types.Address, commitment types.Hash, dependencyID, groupID types.Hash, refundRecipient types.Address, requestedTime uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.admit(caller, id, origin, target); err != nil {
		return err
	}
	if commitment.IsZero() {
		return ErrZeroCommitment
	}
	if err := e.checkRequestedTime(requestedTime); err != nil {
		return err
	}
	// Capacity is checked before the record is stored so a full group
	// leaves no partial state behind.
	if !groupID.IsZero() && e.groups.Size(groupID) >= types.MaxSwapGroupSize {
		return ErrGroupFull
	}
	if refundRecipient.IsZero() {
		refundRecipient = caller
	}

	height := e.clock.Height()
	rec := &types.TransactionRecord{
		ID:              id,
		OriginRollup:    origin,
		TargetRollup:    target,
		DependencyID:    dependencyID,
		RequestedTime:   requestedTime,
		State:           types.StateBuffered,
		Expiry:          requestedTime + e.cfg.CoordinationWindow,
		CommitmentHash:  commitment,
		RevealDeadline:  height + e.cfg.RevealWindow,
		Creator:         caller,
		RefundRecipient: refundRecipient,
		SwapGroupID:     groupID,
		CreationHeight:  height,
	}
	if err := e.append(rec); err != nil {
		return err
	}
	if !groupID.IsZero() {
		e.joinGroup(groupID, id)
	}
	return nil
}

// AddToGroup ties an ungrouped BUFFERED record into a swap group.
// Membership is one-time: a grouped record can never leave or switch
// groups.
func (e *Engine) AddToGroup(caller types.Address, id, groupID types.Hash) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.roles.Authorize(RoleBuffer, caller); err != nil {
		return err
	}
	if e.paused {
		return ErrPaused
	}
	if groupID.IsZero() {
		return ErrZeroGroupID
	}
	rec, ok := e.ledger.Get(id)
	if !ok {
		return ErrNotFound
	}
	if rec.State != types.StateBuffered {
		return ErrNotBuffered
	}
	if !rec.SwapGroupID.IsZero() {
		return ErrAlreadyGrouped
	}
	if e.groups.Size(groupID) >= types.MaxSwapGroupSize {
		return ErrGroupFull
	}

	rec.SwapGroupID = groupID
	if err := e.ledger.Update(rec); err != nil {
		return err
	}
	e.joinGroup(groupID, id)
	return nil
}

// joinGroup registers id in groupID, emitting the creation signal on
// first join. Caller holds e.mu and has checked capacity.
func (e *Engine) joinGroup(groupID, id types.Hash) {
	created, _ := e.groups.Join(groupID, id)
	if created {
		metrics.GroupsCreated.Inc()
		e.log.Info("swap group created", "group", groupID)
		e.bus.Publish(event.TypeGroupCreated, GroupData{GroupID: groupID, Size: 1})
	}
}

// ClaimRefund transitions a FAILED or EXPIRED record to REFUNDED. Only
// the record's refund recipient may claim, and only once.
func (e *Engine) ClaimRefund(caller types.Address, id types.Hash) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, ok := e.ledger.Get(id)
	if !ok {
		return ErrNotFound
	}
	if caller != rec.RefundRecipient {
		return ErrUnauthorized
	}
	if !rec.State.Refundable() {
		return ErrNotRefundable
	}

	rec.State = types.StateRefunded
	if err := e.ledger.Update(rec); err != nil {
		return err
	}
	metrics.TxRefunded.Inc()
	e.log.Info("refund claimed", "id", id, "recipient", caller)
	e.bus.Publish(event.TypeRefunded, id)
	return nil
}
