package coord

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/tesseract-protocol/tesseract/core/types"
	"github.com/tesseract-protocol/tesseract/event"
)

const (
	testNow    = uint64(1_700_000_000)
	testHeight = uint64(100)
)

func newTestEngine(t *testing.T) (*Engine, *ManualClock) {
	t.Helper()
	clk := NewManualClock(testNow, testHeight)
	cfg := DefaultConfig()
	cfg.BreakerThreshold = MinBreakerThreshold
	e, err := NewEngine(ownerAddr, cfg, nil, clk)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e, clk
}

func txid(b byte) types.Hash { return types.Hash{b} }

// buffer admits a direct-path record as the owner with requested time
// testNow, failing the test on rejection.
func buffer(t *testing.T, e *Engine, id byte) {
	t.Helper()
	if err := e.Buffer(ownerAddr, txid(id), types.Address{0x0a}, types.Address{0x0b},
		[]byte("payload"), types.Hash{}, testNow); err != nil {
		t.Fatalf("buffer %#x: %v", id, err)
	}
}

func TestNewEngineValidation(t *testing.T) {
	if _, err := NewEngine(types.Address{}, DefaultConfig(), nil, nil); !errors.Is(err, ErrZeroAddress) {
		t.Fatalf("zero owner: got %v, want ErrZeroAddress", err)
	}

	cfg := DefaultConfig()
	cfg.CoordinationWindow = 1
	if _, err := NewEngine(ownerAddr, cfg, nil, nil); !errors.Is(err, ErrConfigBounds) {
		t.Fatalf("window below bound: got %v, want ErrConfigBounds", err)
	}
}

func TestBufferAdmission(t *testing.T) {
	e, _ := newTestEngine(t)

	buffer(t, e, 0x01)
	rec, ok := e.GetRecord(txid(0x01))
	if !ok {
		t.Fatal("record missing after buffer")
	}
	if rec.State != types.StateBuffered {
		t.Fatalf("state = %v, want BUFFERED", rec.State)
	}
	if rec.Expiry != testNow+60 {
		t.Fatalf("expiry = %d, want requested time + coordination window", rec.Expiry)
	}
	if rec.RefundRecipient != ownerAddr {
		t.Fatal("refund recipient does not default to the creator")
	}
	if rec.CreationHeight != testHeight {
		t.Fatalf("creation height = %d, want %d", rec.CreationHeight, testHeight)
	}
	if e.TransactionCount() != 1 {
		t.Fatalf("transaction count = %d, want 1", e.TransactionCount())
	}
}

func TestBufferRejections(t *testing.T) {
	e, _ := newTestEngine(t)
	buffer(t, e, 0x01)

	origin, target := types.Address{0x0a}, types.Address{0x0b}
	payload := []byte("payload")

	cases := []struct {
		name string
		err  error
		call func() error
	}{
		{"unauthorized", ErrUnauthorized, func() error {
			return e.Buffer(otherAddr, txid(0x10), origin, target, payload, types.Hash{}, testNow)
		}},
		{"zero id", ErrZeroID, func() error {
			return e.Buffer(ownerAddr, types.Hash{}, origin, target, payload, types.Hash{}, testNow)
		}},
		{"duplicate id", ErrDuplicateID, func() error {
			return e.Buffer(ownerAddr, txid(0x01), origin, target, payload, types.Hash{}, testNow)
		}},
		{"zero rollup", ErrZeroRollup, func() error {
			return e.Buffer(ownerAddr, txid(0x10), types.Address{}, target, payload, types.Hash{}, testNow)
		}},
		{"same rollup", ErrSameRollup, func() error {
			return e.Buffer(ownerAddr, txid(0x10), origin, origin, payload, types.Hash{}, testNow)
		}},
		{"empty payload", ErrEmptyPayload, func() error {
			return e.Buffer(ownerAddr, txid(0x10), origin, target, nil, types.Hash{}, testNow)
		}},
		{"oversize payload", ErrPayloadTooLarge, func() error {
			return e.Buffer(ownerAddr, txid(0x10), origin, target, make([]byte, 2049), types.Hash{}, testNow)
		}},
		{"time in past", ErrTimeInPast, func() error {
			return e.Buffer(ownerAddr, txid(0x10), origin, target, payload, types.Hash{}, testNow-1)
		}},
		{"time too far", ErrTimeTooFar, func() error {
			return e.Buffer(ownerAddr, txid(0x10), origin, target, payload, types.Hash{}, testNow+24*3600+1)
		}},
	}
	for _, tc := range cases {
		if err := tc.call(); !errors.Is(err, tc.err) {
			t.Errorf("%s: got %v, want %v", tc.name, err, tc.err)
		}
	}

	// Rejections leave no trace.
	if e.TransactionCount() != 1 {
		t.Fatalf("transaction count = %d after rejections, want 1", e.TransactionCount())
	}
}

func TestBufferValidationPrecedesTimeBounds(t *testing.T) {
	e, _ := newTestEngine(t)
	origin, target := types.Address{0x0a}, types.Address{0x0b}

	// A call failing both its content check and the time bounds reports
	// the content rejection.
	err := e.Buffer(ownerAddr, txid(0x01), origin, target, nil, types.Hash{}, testNow-1)
	if !errors.Is(err, ErrEmptyPayload) {
		t.Fatalf("empty payload with past time: got %v, want ErrEmptyPayload", err)
	}
	err = e.Buffer(ownerAddr, txid(0x01), origin, target, make([]byte, 2049), types.Hash{}, testNow-1)
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("oversize payload with past time: got %v, want ErrPayloadTooLarge", err)
	}
	err = e.BufferCommitted(ownerAddr, txid(0x01), origin, target,
		types.Hash{}, types.Hash{}, types.Hash{}, types.Address{}, testNow-1)
	if !errors.Is(err, ErrZeroCommitment) {
		t.Fatalf("zero commitment with past time: got %v, want ErrZeroCommitment", err)
	}
}

func TestBufferEvent(t *testing.T) {
	e, _ := newTestEngine(t)
	sub := e.Events().Subscribe(event.TypeBuffered)
	defer sub.Unsubscribe()

	buffer(t, e, 0x01)

	select {
	case ev := <-sub.Chan():
		data := ev.Data.(BufferedData)
		if data.ID != txid(0x01) || data.Committed {
			t.Fatalf("unexpected event data: %+v", data)
		}
	default:
		t.Fatal("no buffered event published")
	}
}

func TestRoleGateViaEngine(t *testing.T) {
	e, _ := newTestEngine(t)

	if err := e.GrantRole(ownerAddr, RoleBuffer, bufferAddr); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := e.Buffer(bufferAddr, txid(0x01), types.Address{0x0a}, types.Address{0x0b},
		[]byte("p"), types.Hash{}, testNow); err != nil {
		t.Fatalf("buffer with granted role: %v", err)
	}

	if err := e.RevokeRole(ownerAddr, RoleBuffer, bufferAddr); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	err := e.Buffer(bufferAddr, txid(0x02), types.Address{0x0a}, types.Address{0x0b},
		[]byte("p"), types.Hash{}, testNow)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("buffer after revoke: got %v, want ErrUnauthorized", err)
	}
}

func TestPauseUnpause(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.SetEmergencyAdmin(ownerAddr, otherAddr); err != nil {
		t.Fatalf("set emergency admin: %v", err)
	}

	if err := e.Pause(bufferAddr); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("pause by arbitrary account: got %v, want ErrUnauthorized", err)
	}
	if err := e.Pause(otherAddr); err != nil {
		t.Fatalf("pause by emergency admin: %v", err)
	}
	if !e.Paused() {
		t.Fatal("engine not paused")
	}

	err := e.Buffer(ownerAddr, txid(0x01), types.Address{0x0a}, types.Address{0x0b},
		[]byte("p"), types.Hash{}, testNow)
	if !errors.Is(err, ErrPaused) {
		t.Fatalf("buffer while paused: got %v, want ErrPaused", err)
	}

	// The emergency admin cannot unpause.
	if err := e.Unpause(otherAddr); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("unpause by emergency admin: got %v, want ErrUnauthorized", err)
	}
	if err := e.Unpause(ownerAddr); err != nil {
		t.Fatalf("unpause by owner: %v", err)
	}
	if err := e.Unpause(ownerAddr); !errors.Is(err, ErrNotPaused) {
		t.Fatalf("double unpause: got %v, want ErrNotPaused", err)
	}

	buffer(t, e, 0x01)
}

func TestSubmitterRateLimit(t *testing.T) {
	e, clk := newTestEngine(t)

	// The per-submitter cap defaults to 10 per period.
	for i := byte(1); i <= 10; i++ {
		buffer(t, e, i)
	}
	err := e.Buffer(ownerAddr, txid(0x20), types.Address{0x0a}, types.Address{0x0b},
		[]byte("p"), types.Hash{}, testNow)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("buffer past cap: got %v, want ErrRateLimited", err)
	}

	// A new height opens a new period.
	clk.AdvanceHeight(1)
	buffer(t, e, 0x20)
}

func TestBreakerHaltsEngine(t *testing.T) {
	e, clk := newTestEngine(t)
	buffer(t, e, 0x01)

	// Each premature resolve feeds the breaker; the threshold is the
	// configured minimum of 10.
	for i := 0; i < MinBreakerThreshold; i++ {
		if err := e.Resolve(ownerAddr, txid(0x01)); !errors.Is(err, ErrResolveTooSoon) {
			t.Fatalf("resolve %d: got %v, want ErrResolveTooSoon", i, err)
		}
	}
	if !e.BreakerTripped() {
		t.Fatal("breaker not tripped at threshold")
	}
	if got := e.FailureCount(); got != MinBreakerThreshold {
		t.Fatalf("failure count = %d, want %d", got, MinBreakerThreshold)
	}

	err := e.Buffer(ownerAddr, txid(0x02), types.Address{0x0a}, types.Address{0x0b},
		[]byte("p"), types.Hash{}, testNow)
	if !errors.Is(err, ErrBreakerTripped) {
		t.Fatalf("buffer with open breaker: got %v, want ErrBreakerTripped", err)
	}
	if err := e.Resolve(ownerAddr, txid(0x01)); !errors.Is(err, ErrBreakerTripped) {
		t.Fatalf("resolve with open breaker: got %v, want ErrBreakerTripped", err)
	}

	// Reset needs the admin capability and an elapsed cooldown.
	if err := e.ResetBreaker(otherAddr); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("reset by non-admin: got %v, want ErrUnauthorized", err)
	}
	if err := e.ResetBreaker(ownerAddr); !errors.Is(err, ErrCooldownActive) {
		t.Fatalf("reset inside cooldown: got %v, want ErrCooldownActive", err)
	}
	clk.AdvanceTime(3600)
	if err := e.ResetBreaker(ownerAddr); err != nil {
		t.Fatalf("reset after cooldown: %v", err)
	}
	if e.BreakerTripped() || e.FailureCount() != 0 {
		t.Fatal("breaker state survived reset")
	}
}

func TestAdminSetters(t *testing.T) {
	e, _ := newTestEngine(t)

	cases := []struct {
		name string
		err  error
		call func() error
	}{
		{"window authz", ErrUnauthorized, func() error { return e.SetCoordinationWindow(otherAddr, 30) }},
		{"window low", ErrConfigBounds, func() error { return e.SetCoordinationWindow(ownerAddr, 4) }},
		{"window high", ErrConfigBounds, func() error { return e.SetCoordinationWindow(ownerAddr, 301) }},
		{"window ok", nil, func() error { return e.SetCoordinationWindow(ownerAddr, 120) }},
		{"payload low", ErrConfigBounds, func() error { return e.SetMaxPayloadSize(ownerAddr, 16) }},
		{"payload ok", nil, func() error { return e.SetMaxPayloadSize(ownerAddr, 512) }},
		{"threshold low", ErrConfigBounds, func() error { return e.SetBreakerThreshold(ownerAddr, 5) }},
		{"threshold ok", nil, func() error { return e.SetBreakerThreshold(ownerAddr, 20) }},
		{"rate zero", ErrConfigBounds, func() error { return e.SetRateLimits(ownerAddr, 0, 5) }},
		{"rate ok", nil, func() error { return e.SetRateLimits(ownerAddr, 50, 5) }},
		{"delay ok", nil, func() error { return e.SetMinResolutionDelay(ownerAddr, 4) }},
	}
	for _, tc := range cases {
		err := tc.call()
		if tc.err == nil && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
		if tc.err != nil && !errors.Is(err, tc.err) {
			t.Errorf("%s: got %v, want %v", tc.name, err, tc.err)
		}
	}

	// The widened window applies to subsequent records.
	buffer(t, e, 0x01)
	rec, _ := e.GetRecord(txid(0x01))
	if rec.Expiry != testNow+120 {
		t.Fatalf("expiry = %d, want requested time + 120", rec.Expiry)
	}
}

func TestOwnershipTransferViaEngine(t *testing.T) {
	e, _ := newTestEngine(t)

	if err := e.TransferOwnership(ownerAddr, otherAddr); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if e.Owner() != otherAddr {
		t.Fatal("owner not updated")
	}
	if err := e.SetCoordinationWindow(ownerAddr, 30); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("previous owner still privileged: %v", err)
	}
	if err := e.SetCoordinationWindow(otherAddr, 30); err != nil {
		t.Fatalf("new owner rejected: %v", err)
	}
}

func TestEngineRebuildFromBolt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	clk := NewManualClock(testNow, testHeight)
	cfg := DefaultConfig()

	store, err := OpenBoltStore(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	e, err := NewEngine(ownerAddr, cfg, store, clk)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	group := types.Hash{0xaa}
	buffer(t, e, 0x01)
	buffer(t, e, 0x02)
	if err := e.AddToGroup(ownerAddr, txid(0x01), group); err != nil {
		t.Fatalf("add to group: %v", err)
	}
	if err := e.AddToGroup(ownerAddr, txid(0x02), group); err != nil {
		t.Fatalf("add to group: %v", err)
	}
	clk.AdvanceHeight(2)
	if err := e.Resolve(ownerAddr, txid(0x01)); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	store2, err := OpenBoltStore(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	e2, err := NewEngine(ownerAddr, cfg, store2, clk)
	if err != nil {
		t.Fatalf("rebuild engine: %v", err)
	}
	defer e2.Close()

	if e2.TransactionCount() != 2 {
		t.Fatalf("transaction count = %d, want 2", e2.TransactionCount())
	}
	if got := e2.GetState(txid(0x01)); got != types.StateReady {
		t.Fatalf("state = %v, want READY", got)
	}
	size, ready, all := e2.GroupStatus(group)
	if size != 2 || ready != 1 || all {
		t.Fatalf("group status = (%d, %d, %v), want (2, 1, false)", size, ready, all)
	}

	// The rebuilt group keeps its capacity and completion tracking.
	if err := e2.Resolve(ownerAddr, txid(0x02)); err != nil {
		t.Fatalf("resolve second member: %v", err)
	}
	if _, _, all := e2.GroupStatus(group); !all {
		t.Fatal("group not complete after rebuild and final resolve")
	}
}
