package relay

import (
	"testing"
	"time"
)

func TestBrokerPublishSubscribe(t *testing.T) {
	b := NewBroker()
	id, ch := b.Subscribe()
	defer b.Unsubscribe(id)

	b.Publish("call_completed", map[string]string{"url": "https://api.test/a"})

	select {
	case evt := <-ch:
		if evt.Kind != "call_completed" {
			t.Fatalf("event kind = %q; want call_completed", evt.Kind)
		}
		if evt.Data != `{"url":"https://api.test/a"}` {
			t.Fatalf("event data = %q", evt.Data)
		}
	case <-time.After(time.Second):
		t.Fatalf("no event delivered")
	}
}

func TestBrokerUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroker()
	id, ch := b.Subscribe()

	b.Unsubscribe(id)

	if _, ok := <-ch; ok {
		t.Fatalf("channel still open after unsubscribe")
	}
	if got := b.SubscriberCount(); got != 0 {
		t.Fatalf("SubscriberCount() = %d; want 0", got)
	}
}

func TestBrokerSlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewBroker()
	id, _ := b.Subscribe()
	defer b.Unsubscribe(id)

	// Overfill the buffer; Publish must never block capture.
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBufSize*2; i++ {
			b.Publish("call_completed", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Publish blocked on a slow subscriber")
	}
}
