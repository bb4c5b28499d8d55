package coord

import (
	"errors"
	"fmt"
)

// Error categories. Every rejection returned by the engine wraps exactly
// one of these, so callers can classify failures with errors.Is without
// matching message text. DependencyUnmet is the only soft category:
// the caller is expected to retry the same call later.
var (
	ErrValidation      = errors.New("coord: invalid input")
	ErrUnauthorized    = errors.New("coord: missing capability")
	ErrState           = errors.New("coord: operation invalid in current state")
	ErrTiming          = errors.New("coord: timing constraint violated")
	ErrDependencyUnmet = errors.New("coord: dependency not satisfied")
	ErrRateLimited     = errors.New("coord: rate limit exceeded")
	ErrBreakerTripped  = errors.New("coord: circuit breaker tripped")
	ErrPaused          = errors.New("coord: engine is paused")
	ErrNotFound        = errors.New("coord: record not found")
)

// Specific rejections.
var (
	ErrZeroID            = fmt.Errorf("%w: transaction id is zero", ErrValidation)
	ErrZeroGroupID       = fmt.Errorf("%w: swap group id is zero", ErrValidation)
	ErrDuplicateID       = fmt.Errorf("%w: transaction id already used", ErrValidation)
	ErrZeroRollup        = fmt.Errorf("%w: rollup identifier is zero", ErrValidation)
	ErrSameRollup        = fmt.Errorf("%w: origin and target rollups must differ", ErrValidation)
	ErrEmptyPayload      = fmt.Errorf("%w: payload is empty", ErrValidation)
	ErrPayloadTooLarge   = fmt.Errorf("%w: payload exceeds size bound", ErrValidation)
	ErrZeroCommitment    = fmt.Errorf("%w: commitment hash is zero", ErrValidation)
	ErrTimeInPast        = fmt.Errorf("%w: requested time is in the past", ErrValidation)
	ErrTimeTooFar        = fmt.Errorf("%w: requested time exceeds the 24h horizon", ErrValidation)
	ErrZeroAddress       = fmt.Errorf("%w: address is zero", ErrValidation)
	ErrConfigBounds      = fmt.Errorf("%w: parameter outside permitted bounds", ErrValidation)
	ErrNotBuffered       = fmt.Errorf("%w: record is not BUFFERED", ErrState)
	ErrNotReady          = fmt.Errorf("%w: record is not READY", ErrState)
	ErrNotRefundable     = fmt.Errorf("%w: record is not refundable", ErrState)
	ErrResolveInProgress = fmt.Errorf("%w: resolution already in progress", ErrState)
	ErrNotCommitted      = fmt.Errorf("%w: record carries no commitment", ErrState)
	ErrAlreadyRevealed   = fmt.Errorf("%w: payload already revealed", ErrState)
	ErrNotRevealed       = fmt.Errorf("%w: committed payload not yet revealed", ErrState)
	ErrNotPaused         = fmt.Errorf("%w: engine is not paused", ErrState)
	ErrAlreadyGrouped    = fmt.Errorf("%w: record already belongs to a swap group", ErrState)
	ErrGroupFull         = fmt.Errorf("%w: swap group is full", ErrState)
	ErrGroupNotExpired   = fmt.Errorf("%w: no group member past expiry", ErrTiming)
	ErrExpired           = fmt.Errorf("%w: record expired", ErrTiming)
	ErrResolveTooSoon    = fmt.Errorf("%w: minimum resolution delay not met", ErrTiming)
	ErrRevealTooSoon     = fmt.Errorf("%w: reveal not open until after the creation height", ErrTiming)
	ErrRevealWindow      = fmt.Errorf("%w: reveal window closed", ErrTiming)
	ErrTimeNotReached    = fmt.Errorf("%w: requested time not reached", ErrDependencyUnmet)
	ErrDependencyState   = fmt.Errorf("%w: dependency not READY or EXECUTED", ErrDependencyUnmet)
	ErrCommitMismatch    = fmt.Errorf("%w: commitment mismatch", ErrValidation)
	ErrCooldownActive    = fmt.Errorf("%w: breaker cooldown not elapsed", ErrTiming)
)
