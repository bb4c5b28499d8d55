package coord

import (
	"sync"

	"github.com/tesseract-protocol/tesseract/core/types"
)

// RateLimiter gates admission into the ledger with two counters keyed
// by the current period: a global cap and a per-submitter cap. Counters
// are implicitly scoped to the period; buckets older than the previous
// period are evicted so memory stays bounded in a long-running process.
type RateLimiter struct {
	mu           sync.Mutex
	globalCap    int
	submitterCap int
	global       map[uint64]int
	bySubmitter  map[uint64]map[types.Address]int
}

// NewRateLimiter creates a limiter with the given caps.
func NewRateLimiter(globalCap, submitterCap int) *RateLimiter {
	return &RateLimiter{
		globalCap:    globalCap,
		submitterCap: submitterCap,
		global:       make(map[uint64]int),
		bySubmitter:  make(map[uint64]map[types.Address]int),
	}
}

// Allow reports whether one more admission by submitter fits within the
// caps for period. It does not consume capacity; call Record once the
// buffer call has otherwise succeeded.
func (rl *RateLimiter) Allow(period uint64, submitter types.Address) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.global[period] >= rl.globalCap {
		return ErrRateLimited
	}
	if rl.bySubmitter[period][submitter] >= rl.submitterCap {
		return ErrRateLimited
	}
	return nil
}

// Record consumes one unit of capacity for period and submitter, and
// evicts buckets older than the previous period.
func (rl *RateLimiter) Record(period uint64, submitter types.Address) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.global[period]++
	perSub := rl.bySubmitter[period]
	if perSub == nil {
		perSub = make(map[types.Address]int)
		rl.bySubmitter[period] = perSub
	}
	perSub[submitter]++

	rl.evict(period)
}

// SetLimits replaces both caps. Existing counts are kept: lowering a
// cap below a period's current count simply rejects further admissions
// this period.
func (rl *RateLimiter) SetLimits(globalCap, submitterCap int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.globalCap = globalCap
	rl.submitterCap = submitterCap
}

// GlobalCount returns the admissions recorded for period.
func (rl *RateLimiter) GlobalCount(period uint64) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.global[period]
}

// SubmitterCount returns the admissions recorded for submitter in
// period.
func (rl *RateLimiter) SubmitterCount(period uint64, submitter types.Address) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.bySubmitter[period][submitter]
}

// evict drops buckets older than period-1. Caller holds rl.mu.
func (rl *RateLimiter) evict(period uint64) {
	for p := range rl.global {
		if p+1 < period {
			delete(rl.global, p)
		}
	}
	for p := range rl.bySubmitter {
		if p+1 < period {
			delete(rl.bySubmitter, p)
		}
	}
}
