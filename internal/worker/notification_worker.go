package worker

import (
	"github.com/spec-kit/ticket-sync/internal/notify"
)

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *notify.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
