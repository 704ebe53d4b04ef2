package controllers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"order-dispatch/internal/session"
	"order-dispatch/pkg/constants"
	"order-dispatch/pkg/utils"
	appwebsocket "order-dispatch/pkg/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketController struct {
	hub     *appwebsocket.Hub
	manager session.ManagerInterface
	logger  *zap.Logger
}

func NewWebSocketController(hub *appwebsocket.Hub, manager session.ManagerInterface, logger *zap.Logger) *WebSocketController {
	return &WebSocketController{
		hub:     hub,
		manager: manager,
		logger:  logger,
	}
}

// ServeWs подключает экран к комнате сессии и сразу шлёт ему текущий снимок.
func (c *WebSocketController) ServeWs(ctx echo.Context) error {
	s, err := c.manager.Get(ctx.Param("id"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	conn, err := upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		c.logger.Error("WebSocket: не удалось улучшить соединение", zap.Error(err))
		return err
	}

	client := appwebsocket.NewClient(c.hub, conn, s.ID)
	c.hub.Join(client)

	go client.WritePump()
	go client.ReadPump()

	// Снимок и текущее оповещение получает только новый экран, остальные в комнате их уже видели.
	if err := c.hub.SendToClient(client, s.Snapshot(), constants.MessageTypeSnapshot); err != nil {
		c.logger.Warn("WebSocket: не удалось отправить начальный снимок", zap.Error(err))
	}
	s.ReplayAlert(clientAlert{hub: c.hub, client: client, logger: c.logger})

	c.logger.Info("WebSocket: клиент успешно подключен", zap.String("session_id", s.ID))
	return nil
}

// clientAlert - сигнал оповещения, адресованный одному экрану.
type clientAlert struct {
	hub    *appwebsocket.Hub
	client *appwebsocket.Client
	logger *zap.Logger
}

func (a clientAlert) Start() { a.send("start") }
func (a clientAlert) Stop()  { a.send("stop") }

func (a clientAlert) send(action string) {
	if err := a.hub.SendToClient(a.client, appwebsocket.AlertPayload{Action: action}, constants.MessageTypeAlert); err != nil {
		a.logger.Warn("WebSocket: не удалось отправить оповещение", zap.String("action", action), zap.Error(err))
	}
}
