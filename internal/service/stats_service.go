package service

import (
	"context"
	"time"

	"github.com/helpdesk-kit/lifecycle-service/internal/domain"
	"github.com/helpdesk-kit/lifecycle-service/internal/repository"
	apperrors "github.com/helpdesk-kit/lifecycle-service/pkg/util/errorutil"
)

// StatsOverview aggregates ticket totals for the staff dashboard.
type StatsOverview struct {
	ByStatus    map[domain.TicketStatus]int64   `json:"by_status"`
	ByPriority  map[domain.TicketPriority]int64 `json:"by_priority"`
	SLABreached int64                           `json:"sla_breached"`
	Total       int64                           `json:"total"`
	GeneratedAt time.Time                       `json:"generated_at"`
}

// StatsService computes dashboard aggregates.
type StatsService struct {
	tickets   repository.TicketRepository
	scanLimit int
}

// NewStatsService constructs the service.
func NewStatsService(tickets repository.TicketRepository, scanLimit int) *StatsService {
	if scanLimit <= 0 {
		scanLimit = 200
	}
	return &StatsService{tickets: tickets, scanLimit: scanLimit}
}

// Overview returns ticket counts grouped by status and priority plus the
// number of open tickets past their SLA deadline.
func (s *StatsService) Overview(ctx context.Context, actor *domain.Actor) (*StatsOverview, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}

	byStatus, err := s.tickets.CountByStatus(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	byPriority, err := s.tickets.CountByPriority(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	breached, err := s.tickets.ListSLABreached(ctx, time.Now(), s.scanLimit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	overview := &StatsOverview{
		ByStatus:    make(map[domain.TicketStatus]int64, len(byStatus)),
		ByPriority:  make(map[domain.TicketPriority]int64, len(byPriority)),
		SLABreached: int64(len(breached)),
		GeneratedAt: time.Now(),
	}
	for _, sc := range byStatus {
		overview.ByStatus[sc.Status] = sc.Count
		overview.Total += sc.Count
	}
	for _, pc := range byPriority {
		overview.ByPriority[pc.Priority] = pc.Count
	}
	return overview, nil
}
