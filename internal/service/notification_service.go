package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/helpdesk-kit/lifecycle-service/internal/config"
	"github.com/helpdesk-kit/lifecycle-service/internal/events"
)

// NotificationService reacts to ticket events. Delivery is best effort:
// a failed notification is logged and dropped, never retried, and never
// fails the operation that triggered it.
type NotificationService struct {
	cfg    config.NotificationConfig
	client *http.Client
	logger *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(cfg config.NotificationConfig, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		cfg:    cfg,
		client: &http.Client{},
		logger: logger,
	}
}

// Register subscribes the notification handlers on the dispatcher.
func (s *NotificationService) Register(dispatcher events.Dispatcher) {
	for _, eventType := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketStatusChanged,
		events.EventTicketAssigned,
		events.EventTicketCommentAdded,
		events.EventTicketSLABreached,
	} {
		dispatcher.Subscribe(eventType, s.handle)
	}
}

func (s *NotificationService) handle(ctx context.Context, event events.Event) error {
	s.logger.Info("ticket notification",
		zap.String("event", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.String("actor", event.Actor.Name))

	if s.cfg.WebhookURL == "" {
		return nil
	}
	return s.postWebhook(ctx, event)
}

func (s *NotificationService) postWebhook(ctx context.Context, event events.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("notification webhook failed", zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		s.logger.Warn("notification webhook rejected", zap.Int("status", resp.StatusCode))
	}
	return nil
}
