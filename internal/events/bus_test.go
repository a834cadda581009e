package events_test

import (
	"testing"
	"time"

	"github.com/micro-nova/powctl-go/internal/events"
	"github.com/micro-nova/powctl-go/internal/models"
)

func TestBusSubscribePublish(t *testing.T) {
	bus := events.NewBus()

	ch := bus.Subscribe("test1")

	bus.Publish(models.Notification{Code: "0x39000001", Status: "charging"})

	select {
	case got := <-ch:
		if got.Status != "charging" {
			t.Errorf("got status %q, want %q", got.Status, "charging")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timed out waiting for event")
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := events.NewBus()
	ch := bus.Subscribe("test-unsub")

	bus.Unsubscribe("test-unsub")

	// Channel should be closed
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected channel to be closed after unsubscribe")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestBusDropsEventsWhenFull(t *testing.T) {
	bus := events.NewBus()
	ch := bus.Subscribe("slow-reader")

	// Publish many events without reading; should not block
	done := make(chan struct{})
	go func() {
		for i := 0; i < 20; i++ {
			bus.Publish(models.Notification{Status: "charging"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Publish blocked for too long (should drop events)")
	}

	if n := len(ch); n != 8 {
		t.Errorf("buffered %d notifications, want 8", n)
	}
	if n := bus.Dropped("slow-reader"); n != 12 {
		t.Errorf("Dropped = %d, want 12", n)
	}
	bus.Unsubscribe("slow-reader")
	if n := bus.Dropped("slow-reader"); n != 0 {
		t.Errorf("Dropped after unsubscribe = %d, want 0", n)
	}
}

func TestBusResubscribeClosesOldChannel(t *testing.T) {
	bus := events.NewBus()
	old := bus.Subscribe("sse")
	cur := bus.Subscribe("sse")

	if _, ok := <-old; ok {
		t.Error("old channel still open after resubscribe")
	}
	if n := bus.SubscriberCount(); n != 1 {
		t.Errorf("SubscriberCount = %d, want 1", n)
	}
	bus.Publish(models.Notification{Status: "not_charging"})
	if got := <-cur; got.Status != "not_charging" {
		t.Errorf("got status %q", got.Status)
	}
}

func TestBusSubscriberCount(t *testing.T) {
	bus := events.NewBus()
	if n := bus.SubscriberCount(); n != 0 {
		t.Errorf("expected 0 subscribers, got %d", n)
	}
	bus.Subscribe("s1")
	bus.Subscribe("s2")
	if n := bus.SubscriberCount(); n != 2 {
		t.Errorf("expected 2 subscribers, got %d", n)
	}
	bus.Unsubscribe("s1")
	if n := bus.SubscriberCount(); n != 1 {
		t.Errorf("expected 1 subscriber, got %d", n)
	}
}
