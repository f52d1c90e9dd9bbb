package events

import (
	"context"
	"testing"
	"time"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	t.Parallel()

	d := NewInMemoryDispatcher()
	var got []Event
	d.Subscribe(EventTicketStatusChanged, func(_ context.Context, e Event) error {
		got = append(got, e)
		return nil
	})

	event := Event{ID: "e1", Type: EventTicketStatusChanged, TicketID: "t1"}
	if err := d.Publish(context.Background(), event); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := d.Publish(context.Background(), Event{ID: "e2", Type: EventTicketCreated}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("handler calls: got %d, want 1", len(got))
	}
	if got[0].ID != "e1" {
		t.Errorf("event id: got %s, want e1", got[0].ID)
	}
}

func TestStreamSubscribeAndCancel(t *testing.T) {
	t.Parallel()

	s := NewStream()
	ch, cancel := s.Subscribe(4)

	s.Publish(Event{ID: "e1", Type: EventTicketCreated})

	select {
	case e := <-ch:
		if e.ID != "e1" {
			t.Errorf("event id: got %s, want e1", e.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}

	cancel()
	if s.Len() != 0 {
		t.Errorf("subscriber count after cancel: got %d, want 0", s.Len())
	}

	// channel is closed after cancel
	if _, ok := <-ch; ok {
		t.Error("channel still open after cancel")
	}
}

func TestStreamSlowSubscriberDoesNotBlock(t *testing.T) {
	t.Parallel()

	s := NewStream()
	_, cancel := s.Subscribe(1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			s.Publish(Event{ID: "e", Type: EventTicketCreated})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on full subscriber buffer")
	}
}

func TestStreamCloseTerminatesSubscribers(t *testing.T) {
	t.Parallel()

	s := NewStream()
	ch, _ := s.Subscribe(1)
	s.Close()

	if _, ok := <-ch; ok {
		t.Error("channel open after stream close")
	}
	if s.Len() != 0 {
		t.Errorf("subscriber count after close: got %d, want 0", s.Len())
	}
}
