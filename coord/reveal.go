package coord

import (
	"github.com/tesseract-protocol/tesseract/core/types"
	"github.com/tesseract-protocol/tesseract/crypto"
	"github.com/tesseract-protocol/tesseract/event"
	"github.com/tesseract-protocol/tesseract/metrics"
)

// Reveal discloses the payload behind a commitment made through
// BufferCommitted. The disclosure must land within the reveal window
// and hash, together with the secret, to the stored commitment. A
// record reveals at most once; until it does, resolution rejects it.
func (e *Engine) Reveal(caller types.Address, id types.Hash, payload, secret []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.roles.Authorize(RoleBuffer, caller); err != nil {
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
	if !rec.Committed() {
		return ErrNotCommitted
	}
	if rec.Revealed {
		return ErrAlreadyRevealed
	}
	// The window is exclusive at the creation height: a reveal landing
	// in the same block as the buffering would undo the commitment's
	// front-running protection.
	if e.clock.Height() <= rec.CreationHeight {
		return ErrRevealTooSoon
	}
	if e.clock.Height() > rec.RevealDeadline {
		return ErrRevealWindow
	}
	if len(payload) == 0 {
		return ErrEmptyPayload
	}
	if len(payload) > e.cfg.MaxPayloadSize {
		return ErrPayloadTooLarge
	}
	if crypto.CommitmentHash(payload, secret) != rec.CommitmentHash {
		return ErrCommitMismatch
	}

	rec.Payload = payload
	rec.Revealed = true
	if err := e.ledger.Update(rec); err != nil {
		return err
	}
	metrics.TxRevealed.Inc()
	e.log.Info("payload revealed", "id", id, "bytes", len(payload))
	e.bus.Publish(event.TypeRevealed, id)
	return nil
}
