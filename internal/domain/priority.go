package domain

var severityRank = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

var slaTargetHours = map[TicketPriority]int{
	TicketPriorityCritical: 4,
	TicketPriorityHigh:     8,
	TicketPriorityNormal:   24,
	TicketPriorityLow:      72,
}

func rank(s Severity) int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	// unknown values grade as Medium
	return 2
}

// DerivePriority computes ticket priority from the impact/urgency pair.
// Pure and deterministic: the same pair always yields the same priority.
func DerivePriority(impact, urgency Severity) TicketPriority {
	a := rank(impact)
	b := rank(urgency)

	switch {
	case a >= 4 || b >= 4:
		return TicketPriorityCritical
	case (a >= 3 && b >= 2) || (b >= 3 && a >= 2):
		return TicketPriorityHigh
	case a >= 2 || b >= 2:
		return TicketPriorityNormal
	default:
		return TicketPriorityLow
	}
}

// SLAHoursFor returns the response-time budget for a priority.
func SLAHoursFor(p TicketPriority) int {
	if hours, ok := slaTargetHours[p]; ok {
		return hours
	}
	return 24
}

// CategoriesFor lists the allowed categories per ticket type.
var ticketCategories = map[TicketType][]string{
	TicketTypeRequest: {
		"Hardware provisioning",
		"Access rights",
		"Software installation",
		"Equipment loan",
		"Change / evolution",
		"Other",
	},
	TicketTypeIncident: {
		"Application",
		"Software",
		"Hardware",
		"Network",
		"Security",
		"Other",
	},
}

// ValidCategory reports whether category belongs to the type's list.
func ValidCategory(t TicketType, category string) bool {
	for _, c := range ticketCategories[t] {
		if c == category {
			return true
		}
	}
	return false
}

// CategoriesFor returns a copy of the allowed category list for a type.
func CategoriesFor(t TicketType) []string {
	src := ticketCategories[t]
	out := make([]string, len(src))
	copy(out, src)
	return out
}
