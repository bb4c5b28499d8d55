package metrics

import (
	"sync"
	"testing"
)

func TestRegistryGetOrCreate(t *testing.T) {
	r := NewRegistry()
	c1 := r.Counter("reg.counter")
	c2 := r.Counter("reg.counter")
	if c1 != c2 {
		t.Fatal("Counter should return the same instance for the same name")
	}
	g1 := r.Gauge("reg.gauge")
	g2 := r.Gauge("reg.gauge")
	if g1 != g2 {
		t.Fatal("Gauge should return the same instance for the same name")
	}
	h1 := r.Histogram("reg.hist")
	h2 := r.Histogram("reg.hist")
	if h1 != h2 {
		t.Fatal("Histogram should return the same instance for the same name")
	}
}

func TestRegistrySnapshot(t *testing.T) {
	r := NewRegistry()
	r.Counter("snap.counter").Add(3)
	r.Gauge("snap.gauge").Set(7)
	r.Histogram("snap.hist").Observe(5)

	snap := r.Snapshot()
	if snap["snap.counter"].(int64) != 3 {
		t.Errorf("counter snapshot: got %v", snap["snap.counter"])
	}
	if snap["snap.gauge"].(int64) != 7 {
		t.Errorf("gauge snapshot: got %v", snap["snap.gauge"])
	}
	hist, ok := snap["snap.hist"].(map[string]interface{})
	if !ok {
		t.Fatalf("histogram snapshot type: %T", snap["snap.hist"])
	}
	if hist["count"].(int64) != 1 {
		t.Errorf("histogram count: got %v", hist["count"])
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Counter("conc.shared").Inc()
		}()
	}
	wg.Wait()
	if r.Counter("conc.shared").Value() != 100 {
		t.Fatalf("concurrent get-or-create lost updates: got %d", r.Counter("conc.shared").Value())
	}
}

func TestDefaultRegistryStandardMetrics(t *testing.T) {
	// The pre-defined metrics are registered in DefaultRegistry under
	// their declared names.
	if DefaultRegistry.Counter("ledger.buffered") != TxBuffered {
		t.Error("TxBuffered not registered in DefaultRegistry")
	}
	if DefaultRegistry.Gauge("admission.breaker_failures") != BreakerFailures {
		t.Error("BreakerFailures not registered in DefaultRegistry")
	}
}
