package observability

import (
	"testing"
	"time"
)

func TestMetricsSnapshotCopiesCounters(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.RecordRequest("/tickets", "GET", 200, time.Millisecond)
	m.RecordRequest("/tickets", "GET", 200, time.Millisecond)
	m.RecordRequest("/tickets", "POST", 201, time.Millisecond)
	m.RecordError("/tickets", "POST", "VALIDATION_FAILED")

	requests, errs := m.Snapshot()
	if got := requests["/tickets|GET|200"]; got != 2 {
		t.Errorf("GET counter: got %d, want 2", got)
	}
	if got := requests["/tickets|POST|201"]; got != 1 {
		t.Errorf("POST counter: got %d, want 1", got)
	}
	if got := errs["/tickets|POST|VALIDATION_FAILED"]; got != 1 {
		t.Errorf("error counter: got %d, want 1", got)
	}

	// mutating a snapshot must not touch live counters
	requests["/tickets|GET|200"] = 99
	again, _ := m.Snapshot()
	if got := again["/tickets|GET|200"]; got != 2 {
		t.Errorf("counter after snapshot mutation: got %d, want 2", got)
	}
}

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.RecordRequest("/x", "GET", 200, 0)
	m.RecordError("/x", "GET", "INTERNAL_ERROR")
}
