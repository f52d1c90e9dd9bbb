package domain

import "testing"

func TestDerivePriorityMatrix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		impact  Severity
		urgency Severity
		want    TicketPriority
	}{
		{SeverityCritical, SeverityLow, TicketPriorityCritical},
		{SeverityLow, SeverityCritical, TicketPriorityCritical},
		{SeverityCritical, SeverityCritical, TicketPriorityCritical},
		{SeverityHigh, SeverityMedium, TicketPriorityHigh},
		{SeverityMedium, SeverityHigh, TicketPriorityHigh},
		{SeverityHigh, SeverityHigh, TicketPriorityHigh},
		{SeverityHigh, SeverityLow, TicketPriorityNormal},
		{SeverityLow, SeverityHigh, TicketPriorityNormal},
		{SeverityMedium, SeverityMedium, TicketPriorityNormal},
		{SeverityMedium, SeverityLow, TicketPriorityNormal},
		{SeverityLow, SeverityMedium, TicketPriorityNormal},
		{SeverityLow, SeverityLow, TicketPriorityLow},
	}

	for _, tc := range tests {
		got := DerivePriority(tc.impact, tc.urgency)
		if got != tc.want {
			t.Errorf("DerivePriority(%s, %s): got %s, want %s", tc.impact, tc.urgency, got, tc.want)
		}
	}
}

func TestDerivePriorityIsDeterministic(t *testing.T) {
	t.Parallel()

	severities := []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	for _, impact := range severities {
		for _, urgency := range severities {
			first := DerivePriority(impact, urgency)
			for i := 0; i < 3; i++ {
				if again := DerivePriority(impact, urgency); again != first {
					t.Fatalf("DerivePriority(%s, %s) not stable: %s then %s", impact, urgency, first, again)
				}
			}
			if SLAHoursFor(first) != SLAHoursFor(first) {
				t.Fatalf("SLAHoursFor(%s) not stable", first)
			}
		}
	}
}

func TestDerivePriorityUnknownGradesAsMedium(t *testing.T) {
	t.Parallel()

	if got := DerivePriority("", ""); got != TicketPriorityNormal {
		t.Errorf("DerivePriority(unknown, unknown): got %s, want %s", got, TicketPriorityNormal)
	}
	if got := DerivePriority("", SeverityCritical); got != TicketPriorityCritical {
		t.Errorf("DerivePriority(unknown, critical): got %s, want %s", got, TicketPriorityCritical)
	}
}

func TestSLAHoursFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		priority TicketPriority
		want     int
	}{
		{TicketPriorityCritical, 4},
		{TicketPriorityHigh, 8},
		{TicketPriorityNormal, 24},
		{TicketPriorityLow, 72},
		{TicketPriority("UNKNOWN"), 24},
	}
	for _, tc := range tests {
		if got := SLAHoursFor(tc.priority); got != tc.want {
			t.Errorf("SLAHoursFor(%s): got %d, want %d", tc.priority, got, tc.want)
		}
	}
}

func TestValidCategory(t *testing.T) {
	t.Parallel()

	if !ValidCategory(TicketTypeIncident, "Network") {
		t.Error("Network should be a valid incident category")
	}
	if ValidCategory(TicketTypeRequest, "Network") {
		t.Error("Network should not be a valid request category")
	}
	if ValidCategory(TicketTypeIncident, "") {
		t.Error("empty category should be invalid")
	}
}

func TestValidStatus(t *testing.T) {
	t.Parallel()

	valid := []TicketStatus{
		TicketStatusOpen, TicketStatusInProgress, TicketStatusWaiting,
		TicketStatusResolved, TicketStatusClosed,
	}
	for _, s := range valid {
		if !ValidStatus(s) {
			t.Errorf("ValidStatus(%s): got false, want true", s)
		}
	}
	if ValidStatus("CANCELLED") {
		t.Error("ValidStatus(CANCELLED): got true, want false")
	}
}
