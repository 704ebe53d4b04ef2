package services

import (
	"go.uber.org/zap"

	"order-dispatch/internal/alert"
	"order-dispatch/internal/session"
	"order-dispatch/pkg/constants"
	"order-dispatch/pkg/websocket"
)

// Интерфейс, чтобы можно было легко подменять в тестах
type WebSocketNotificationServiceInterface interface {
	session.Notifier
	session.SnapshotSink
	AlertSignal(sessionID string) alert.Signal
}

type hubSender interface {
	SendToSession(sessionID string, payload interface{}, messageType string) error
}

type WebSocketNotificationService struct {
	hub    hubSender
	logger *zap.Logger
}

func NewWebSocketNotificationService(hub *websocket.Hub, logger *zap.Logger) WebSocketNotificationServiceInterface {
	return newWebSocketNotificationService(hub, logger)
}

func newWebSocketNotificationService(hub hubSender, logger *zap.Logger) *WebSocketNotificationService {
	return &WebSocketNotificationService{
		hub:    hub,
		logger: logger,
	}
}

// Notify показывает оператору всплывающее сообщение.
func (s *WebSocketNotificationService) Notify(sessionID, message string) {
	s.send(sessionID, websocket.ToastPayload{Level: "error", Message: message}, constants.MessageTypeToast)
}

func (s *WebSocketNotificationService) PublishSnapshot(sessionID string, snap session.Snapshot) {
	s.send(sessionID, snap, constants.MessageTypeSnapshot)
}

// AlertSignal возвращает звуковой сигнал, привязанный к комнате сессии.
// Звук проигрывает браузер по сообщениям start/stop.
func (s *WebSocketNotificationService) AlertSignal(sessionID string) alert.Signal {
	return &alertSignal{service: s, sessionID: sessionID}
}

func (s *WebSocketNotificationService) send(sessionID string, payload interface{}, messageType string) {
	if err := s.hub.SendToSession(sessionID, payload, messageType); err != nil {
		s.logger.Warn("Не удалось отправить WebSocket-сообщение",
			zap.String("session_id", sessionID),
			zap.String("type", messageType),
			zap.Error(err),
		)
	}
}

type alertSignal struct {
	service   *WebSocketNotificationService
	sessionID string
}

func (a *alertSignal) Start() {
	a.service.send(a.sessionID, websocket.AlertPayload{Action: "start"}, constants.MessageTypeAlert)
}

func (a *alertSignal) Stop() {
	a.service.send(a.sessionID, websocket.AlertPayload{Action: "stop"}, constants.MessageTypeAlert)
}
