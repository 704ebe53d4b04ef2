package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Hub раскладывает клиентов по комнатам сессий и рассылает им сообщения.
type Hub struct {
	clients  map[*Client]bool
	rooms    map[string][]*Client
	Register chan *Client

	mu     sync.RWMutex
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:  make(map[*Client]bool),
		rooms:    make(map[string][]*Client),
		Register: make(chan *Client),
		logger:   logger,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.Register:
			h.Join(client)
		}
	}
}

// Join добавляет клиента в комнату сразу, без очереди Register.
func (h *Hub) Join(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	h.rooms[client.SessionID] = append(h.rooms[client.SessionID], client)
	h.mu.Unlock()
	h.logger.Info("Клиент зарегистрирован", zap.String("session", client.SessionID))
}

func (h *Hub) encode(payload interface{}, messageType string) ([]byte, error) {
	envelope := Envelope{
		Type:      messageType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
	messageBytes, err := json.Marshal(envelope)
	if err != nil {
		h.logger.Error("Ошибка сериализации сообщения для WebSocket", zap.Error(err))
		return nil, err
	}
	return messageBytes, nil
}

// SendToClient отправляет сообщение одному экрану, например сразу после подключения.
// Клиент, уже покинувший хаб, пропускается.
func (h *Hub) SendToClient(client *Client, payload interface{}, messageType string) error {
	messageBytes, err := h.encode(payload, messageType)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[client] {
		return nil
	}
	select {
	case client.Send <- messageBytes:
	default:
		h.logger.Warn("Очередь клиента переполнена, отключаем", zap.String("session", client.SessionID))
		h.removeLocked(client)
	}
	return nil
}

// SendToSession отправляет сообщение всем экранам сессии. Переполненные клиенты отключаются.
func (h *Hub) SendToSession(sessionID string, payload interface{}, messageType string) error {
	messageBytes, err := h.encode(payload, messageType)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, client := range append([]*Client(nil), h.rooms[sessionID]...) {
		select {
		case client.Send <- messageBytes:
		default:
			h.logger.Warn("Очередь клиента переполнена, отключаем", zap.String("session", sessionID))
			h.removeLocked(client)
		}
	}
	return nil
}

// Unregister убирает клиента; повторный вызов безопасен.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

// CloseSession отключает все экраны сессии.
func (h *Hub) CloseSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, client := range append([]*Client(nil), h.rooms[sessionID]...) {
		h.removeLocked(client)
	}
}

func (h *Hub) Connected(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[sessionID])
}

func (h *Hub) removeLocked(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Send)

	room := h.rooms[client.SessionID]
	for i, c := range room {
		if c == client {
			h.rooms[client.SessionID] = append(room[:i], room[i+1:]...)
			break
		}
	}
	if len(h.rooms[client.SessionID]) == 0 {
		delete(h.rooms, client.SessionID)
	}
	h.logger.Info("Клиент отсоединен", zap.String("session", client.SessionID))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		h.removeLocked(client)
	}
}
