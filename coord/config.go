package coord

// Bounds for the runtime-adjustable parameters. The setters reject
// values outside these ranges.
const (
	MinCoordinationWindow = 5
	MaxCoordinationWindow = 300
	MinPayloadBound       = 32
	MaxPayloadBound       = 2048
	MinBreakerThreshold   = 10
)

// Config controls the coordination engine. All durations are unix
// seconds; all delays and windows expressed in heights count observed
// chain heights.
type Config struct {
	// CoordinationWindow is the number of seconds after a record's
	// requested time within which resolution must succeed.
	CoordinationWindow uint64

	// MaxFutureWindow bounds how far in the future a requested time may
	// lie.
	MaxFutureWindow uint64

	// MaxPayloadSize bounds the payload byte length.
	MaxPayloadSize int

	// MinResolutionDelay is the number of heights that must separate a
	// record's creation from its resolution eligibility.
	MinResolutionDelay uint64

	// RevealWindow is the number of heights after creation within which
	// a committed payload may be revealed.
	RevealWindow uint64

	// GlobalRateLimit caps accepted buffer calls per period across all
	// submitters.
	GlobalRateLimit int

	// SubmitterRateLimit caps accepted buffer calls per period for a
	// single submitter.
	SubmitterRateLimit int

	// BreakerThreshold is the failure count at which the circuit
	// breaker trips.
	BreakerThreshold int

	// BreakerCooldown is the number of seconds that must elapse since
	// the last reset before the breaker may be reset again.
	BreakerCooldown uint64

	// EventBuffer is the channel buffer size for event subscriptions.
	EventBuffer int
}

// DefaultConfig returns the engine defaults, matching the constants of
// the on-chain buffer contract.
func DefaultConfig() Config {
	return Config{
		CoordinationWindow: 60,
		MaxFutureWindow:    24 * 60 * 60,
		MaxPayloadSize:     2048,
		MinResolutionDelay: 2,
		RevealWindow:       64,
		GlobalRateLimit:    100,
		SubmitterRateLimit: 10,
		BreakerThreshold:   50,
		BreakerCooldown:    3600,
		EventBuffer:        64,
	}
}

func (c Config) validate() error {
	if c.CoordinationWindow < MinCoordinationWindow || c.CoordinationWindow > MaxCoordinationWindow {
		return ErrConfigBounds
	}
	if c.MaxPayloadSize < MinPayloadBound || c.MaxPayloadSize > MaxPayloadBound {
		return ErrConfigBounds
	}
	if c.BreakerThreshold < MinBreakerThreshold {
		return ErrConfigBounds
	}
	if c.MaxFutureWindow == 0 || c.RevealWindow == 0 {
		return ErrConfigBounds
	}
	if c.GlobalRateLimit <= 0 || c.SubmitterRateLimit <= 0 {
		return ErrConfigBounds
	}
	return nil
}
