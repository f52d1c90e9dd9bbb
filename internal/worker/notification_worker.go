package worker

import (
	"github.com/helpdesk-kit/lifecycle-service/internal/events"
	"github.com/helpdesk-kit/lifecycle-service/internal/service"
)

// StartNotificationWorker subscribes the notification handlers on the
// event dispatcher.
func StartNotificationWorker(notificationService *service.NotificationService, dispatcher events.Dispatcher) {
	if notificationService == nil || dispatcher == nil {
		return
	}
	notificationService.Register(dispatcher)
}
