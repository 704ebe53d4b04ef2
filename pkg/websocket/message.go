package websocket

import "time"

// Envelope - "конверт" для всех сообщений; по Type фронтенд понимает, что делать.
type Envelope struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// AlertPayload - команда звуковому оповещению дашборда.
type AlertPayload struct {
	Action string `json:"action"` // start | stop
}

// ToastPayload - всплывающее сообщение.
type ToastPayload struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}
