package coord

import "sync"

// CircuitBreaker accumulates a single global failure count. Once the
// count reaches the threshold the breaker trips and every buffer and
// resolve call is rejected until an admin resets it after the cooldown.
// Failures are not attributed to a cause or actor; a burst of
// legitimate failures halts the whole engine until intervention.
type CircuitBreaker struct {
	mu            sync.Mutex
	failureCount  int
	threshold     int
	tripped       bool
	cooldown      uint64
	lastResetTime uint64
}

// NewCircuitBreaker creates a breaker with the given threshold and
// cooldown (seconds). now seeds the reset timestamp so the first reset
// also honors the cooldown.
func NewCircuitBreaker(threshold int, cooldown, now uint64) *CircuitBreaker {
	return &CircuitBreaker{
		threshold:     threshold,
		cooldown:      cooldown,
		lastResetTime: now,
	}
}

// RecordFailure increments the failure count and returns true when this
// failure tripped the breaker.
func (cb *CircuitBreaker) RecordFailure() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++
	if !cb.tripped && cb.failureCount >= cb.threshold {
		cb.tripped = true
		return true
	}
	return false
}

// Tripped reports whether the breaker is open.
func (cb *CircuitBreaker) Tripped() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.tripped
}

// FailureCount returns the accumulated failure count.
func (cb *CircuitBreaker) FailureCount() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failureCount
}

// Check returns ErrBreakerTripped when the breaker is open.
func (cb *CircuitBreaker) Check() error {
	if cb.Tripped() {
		return ErrBreakerTripped
	}
	return nil
}

// Reset closes the breaker and zeroes the failure count. It is
// permitted only once the cooldown has elapsed since the previous
// reset.
func (cb *CircuitBreaker) Reset(now uint64) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if now < cb.lastResetTime+cb.cooldown {
		return ErrCooldownActive
	}
	cb.failureCount = 0
	cb.tripped = false
	cb.lastResetTime = now
	return nil
}

// SetThreshold replaces the trip threshold. An already-open breaker
// stays open; a raised threshold does not untrip it.
func (cb *CircuitBreaker) SetThreshold(threshold int) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.threshold = threshold
}
