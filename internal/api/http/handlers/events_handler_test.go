package handlers

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/helpdesk-kit/lifecycle-service/internal/events"
)

type brokenWriter struct{}

func (brokenWriter) Write(_ []byte) (int, error) { return 0, io.ErrClosedPipe }

func TestWriteEventStreamFormatsFrames(t *testing.T) {
	t.Parallel()

	ch := make(chan events.Event, 2)
	ch <- events.Event{ID: "e1", Type: events.EventTicketCreated, TicketID: "t1"}
	ch <- events.Event{ID: "e2", Type: events.EventTicketStatusChanged, TicketID: "t1"}
	close(ch)

	var buf bytes.Buffer
	writeEventStream(bufio.NewWriter(&buf), ch, time.Hour)

	out := buf.String()
	for _, want := range []string{
		"event: " + string(events.EventTicketCreated) + "\n",
		"event: " + string(events.EventTicketStatusChanged) + "\n",
		`"id":"e1"`,
		`"id":"e2"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteEventStreamStopsOnDeadConnectionWithoutEvents(t *testing.T) {
	t.Parallel()

	stream := events.NewStream()
	ch, cancel := stream.Subscribe(1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		writeEventStream(bufio.NewWriter(brokenWriter{}), ch, 5*time.Millisecond)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream writer kept running after heartbeat write failed")
	}
}

func TestWriteEventStreamEmitsHeartbeat(t *testing.T) {
	t.Parallel()

	ch := make(chan events.Event)
	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		writeEventStream(bufio.NewWriter(&buf), ch, 5*time.Millisecond)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	close(ch)
	<-done

	if !strings.Contains(buf.String(), ": ping\n\n") {
		t.Errorf("output missing heartbeat comment:\n%q", buf.String())
	}
}
