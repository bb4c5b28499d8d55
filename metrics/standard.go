package metrics

// Pre-defined metrics for the coordination engine. All metrics live in
// DefaultRegistry so they are globally accessible without passing a
// registry around.

var (
	// ---- Ledger metrics ----

	// TxBuffered counts records admitted into the ledger.
	TxBuffered = DefaultRegistry.Counter("ledger.buffered")
	// TxRevealed counts successful commit-reveal disclosures.
	TxRevealed = DefaultRegistry.Counter("ledger.revealed")
	// TxRefunded counts refund claims on failed or expired records.
	TxRefunded = DefaultRegistry.Counter("ledger.refunded")
	// LedgerRecords tracks the total number of records ever stored.
	LedgerRecords = DefaultRegistry.Gauge("ledger.records")

	// ---- Resolver metrics ----

	// TxResolved counts records that reached READY.
	TxResolved = DefaultRegistry.Counter("resolver.resolved")
	// TxExecuted counts records marked EXECUTED.
	TxExecuted = DefaultRegistry.Counter("resolver.executed")
	// TxFailed counts resolution failures of any kind.
	TxFailed = DefaultRegistry.Counter("resolver.failed")
	// TxExpired counts records discovered past expiry.
	TxExpired = DefaultRegistry.Counter("resolver.expired")
	// ResolveTime records resolve call duration in milliseconds.
	ResolveTime = DefaultRegistry.Histogram("resolver.resolve_ms")

	// ---- Admission metrics ----

	// RateLimited counts buffer calls rejected by the rate limiter.
	RateLimited = DefaultRegistry.Counter("admission.rate_limited")
	// BreakerTrips counts circuit breaker trip events.
	BreakerTrips = DefaultRegistry.Counter("admission.breaker_trips")
	// BreakerFailures tracks the current breaker failure count.
	BreakerFailures = DefaultRegistry.Gauge("admission.breaker_failures")

	// ---- Swap group metrics ----

	// GroupsCreated counts swap groups created.
	GroupsCreated = DefaultRegistry.Counter("swapgroup.created")
	// GroupsCompleted counts swap groups whose members all reached READY.
	GroupsCompleted = DefaultRegistry.Counter("swapgroup.completed")
	// GroupsExpired counts swap groups collectively failed by expiry.
	GroupsExpired = DefaultRegistry.Counter("swapgroup.expired")
)
