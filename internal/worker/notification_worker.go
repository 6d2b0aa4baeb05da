package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-desk/internal/service"
)

// StartNotificationWorker subscribes reporter notifications to ticket
// events. Handlers run synchronously on the publishing goroutine.
func StartNotificationWorker(notifications *service.NotificationService, logger *zap.Logger) {
	if notifications == nil {
		return
	}
	notifications.RegisterHandlers()
	if logger != nil {
		logger.Info("notification handlers registered")
	}
}
