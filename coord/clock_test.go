package coord

import "testing"

func TestSystemClockObserveHeight(t *testing.T) {
	c := NewSystemClock()
	if h := c.Height(); h != 0 {
		t.Fatalf("initial height = %d, want 0", h)
	}

	c.ObserveHeight(10)
	if h := c.Height(); h != 10 {
		t.Fatalf("height = %d, want 10", h)
	}

	// Stale observations are ignored.
	c.ObserveHeight(5)
	if h := c.Height(); h != 10 {
		t.Fatalf("height moved backwards to %d", h)
	}

	c.ObserveHeight(11)
	if h := c.Height(); h != 11 {
		t.Fatalf("height = %d, want 11", h)
	}
}

func TestManualClock(t *testing.T) {
	c := NewManualClock(1000, 50)
	if c.Now() != 1000 || c.Height() != 50 {
		t.Fatalf("got (%d, %d), want (1000, 50)", c.Now(), c.Height())
	}

	c.AdvanceTime(30)
	c.AdvanceHeight(2)
	if c.Now() != 1030 || c.Height() != 52 {
		t.Fatalf("got (%d, %d), want (1030, 52)", c.Now(), c.Height())
	}

	c.SetNow(2000)
	c.SetHeight(100)
	if c.Now() != 2000 || c.Height() != 100 {
		t.Fatalf("got (%d, %d), want (2000, 100)", c.Now(), c.Height())
	}
}
