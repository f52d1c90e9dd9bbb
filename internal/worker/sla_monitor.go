package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/helpdesk-kit/lifecycle-service/internal/config"
	"github.com/helpdesk-kit/lifecycle-service/internal/events"
	"github.com/helpdesk-kit/lifecycle-service/internal/repository"
)

// SLAMonitor periodically scans active tickets past their SLA deadline
// and publishes ticket_sla_breached events. Alerts repeat on every scan
// until the ticket leaves its active state; consumers de-duplicate.
type SLAMonitor struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	interval   time.Duration
	scanLimit  int
	logger     *zap.Logger
}

// NewSLAMonitor constructs the monitor.
func NewSLAMonitor(tickets repository.TicketRepository, dispatcher events.Dispatcher, cfg config.SLAConfig, logger *zap.Logger) *SLAMonitor {
	interval := time.Duration(cfg.CheckIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	scanLimit := cfg.ScanLimit
	if scanLimit <= 0 {
		scanLimit = 200
	}
	return &SLAMonitor{
		tickets:    tickets,
		dispatcher: dispatcher,
		interval:   interval,
		scanLimit:  scanLimit,
		logger:     logger,
	}
}

// Run blocks until ctx is cancelled.
func (m *SLAMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Info("sla monitor started", zap.Duration("interval", m.interval))
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("sla monitor stopped")
			return
		case <-ticker.C:
			m.scan(ctx)
		}
	}
}

func (m *SLAMonitor) scan(ctx context.Context) {
	now := time.Now()
	breached, err := m.tickets.ListSLABreached(ctx, now, m.scanLimit)
	if err != nil {
		m.logger.Warn("sla scan failed", zap.Error(err))
		return
	}
	if len(breached) == 0 {
		return
	}

	m.logger.Info("sla breaches detected", zap.Int("count", len(breached)))
	for i := range breached {
		ticket := &breached[i]
		_ = m.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventTicketSLABreached,
			TicketID:  ticket.ID,
			Actor:     events.Actor{Name: "System"},
			Timestamp: now,
			Payload: events.TicketSLABreachedPayload{
				Priority: ticket.Priority,
				Deadline: ticket.SLADeadline(),
			},
		})
	}
}
