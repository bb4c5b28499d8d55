package event

import "testing"

func TestSubscribeReceivesMatchingEvent(t *testing.T) {
	bus := NewBus(4)
	defer bus.Close()

	sub := bus.Subscribe(TypeReady)
	bus.Publish(TypeReady, "tx-1")

	select {
	case ev := <-sub.Chan():
		if ev.Type != TypeReady {
			t.Errorf("event type: got %s, want %s", ev.Type, TypeReady)
		}
		if ev.Data.(string) != "tx-1" {
			t.Errorf("event data: got %v", ev.Data)
		}
	default:
		t.Fatal("no event delivered")
	}
}

func TestSubscribeIgnoresOtherTypes(t *testing.T) {
	bus := NewBus(4)
	defer bus.Close()

	sub := bus.Subscribe(TypeReady)
	bus.Publish(TypeFailed, "tx-1")

	select {
	case ev := <-sub.Chan():
		t.Fatalf("unexpected event: %v", ev)
	default:
	}
}

func TestSubscribeMultiple(t *testing.T) {
	bus := NewBus(4)
	defer bus.Close()

	sub := bus.SubscribeMultiple(TypeReady, TypeGroupCompleted)
	bus.Publish(TypeReady, nil)
	bus.Publish(TypeGroupCompleted, nil)
	bus.Publish(TypeBuffered, nil)

	got := 0
	for {
		select {
		case <-sub.Chan():
			got++
		default:
			if got != 2 {
				t.Errorf("delivered events: got %d, want 2", got)
			}
			return
		}
	}
}

func TestPublishDropsWhenFull(t *testing.T) {
	bus := NewBus(1)
	defer bus.Close()

	sub := bus.Subscribe(TypeBuffered)
	bus.Publish(TypeBuffered, 1)
	bus.Publish(TypeBuffered, 2) // dropped, channel full

	<-sub.Chan()
	select {
	case ev := <-sub.Chan():
		t.Fatalf("dropped event was delivered: %v", ev)
	default:
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus(1)
	defer bus.Close()

	sub := bus.Subscribe(TypeReady)
	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent

	if _, ok := <-sub.Chan(); ok {
		t.Error("channel not closed after unsubscribe")
	}
	if n := bus.SubscriberCount(TypeReady); n != 0 {
		t.Errorf("subscriber count after unsubscribe: got %d", n)
	}
}

func TestCloseBus(t *testing.T) {
	bus := NewBus(1)
	sub := bus.Subscribe(TypeReady)
	bus.Close()
	bus.Close() // idempotent

	if _, ok := <-sub.Chan(); ok {
		t.Error("channel not closed after bus close")
	}

	// Subscriptions made after close are immediately closed.
	late := bus.Subscribe(TypeReady)
	if _, ok := <-late.Chan(); ok {
		t.Error("post-close subscription channel not closed")
	}
}
