package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/helpdesk-kit/lifecycle-service/internal/events"
)

const streamHeartbeat = 15 * time.Second

// EventsHandler streams live ticket events to staff clients over SSE.
type EventsHandler struct {
	stream *events.Stream
}

// NewEventsHandler constructs handler.
func NewEventsHandler(stream *events.Stream) *EventsHandler {
	return &EventsHandler{stream: stream}
}

// Stream handles GET /staff/events. The subscription is cancelled when
// the client disconnects.
func (h *EventsHandler) Stream(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	ch, cancel := h.stream.Subscribe(32)

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		writeEventStream(w, ch, streamHeartbeat)
	}))
	return nil
}

// writeEventStream pumps events to the client until the write side fails
// or the channel closes. Heartbeat comments flush on an interval so a
// dead connection surfaces even when no events flow.
func writeEventStream(w *bufio.Writer, ch <-chan events.Event, heartbeat time.Duration) {
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	}
}
