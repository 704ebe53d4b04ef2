// Файл: internal/services/notification_service.go
package services

import (
	"go.uber.org/zap"

	"order-dispatch/internal/session"
)

// logNotificationService пишет уведомления в лог и передаёт их дальше.
// Используется вокруг WebSocket-уведомлений, чтобы ошибки загрузки остались в журнале,
// даже если у сессии нет подключённого браузера.
type logNotificationService struct {
	next   session.Notifier
	logger *zap.Logger
}

// NewLogNotificationService - конструктор; next может быть nil.
func NewLogNotificationService(next session.Notifier, logger *zap.Logger) session.Notifier {
	return &logNotificationService{next: next, logger: logger}
}

func (s *logNotificationService) Notify(sessionID, message string) {
	s.logger.Warn("Уведомление оператору",
		zap.String("session_id", sessionID),
		zap.String("message", message),
	)
	if s.next != nil {
		s.next.Notify(sessionID, message)
	}
}
