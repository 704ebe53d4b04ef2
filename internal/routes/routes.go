package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"order-dispatch/internal/controllers"
	"order-dispatch/internal/services"
	"order-dispatch/internal/session"
	"order-dispatch/pkg/config"
	"order-dispatch/pkg/websocket"
)

type Loggers struct {
	Main    *zap.Logger
	Order   *zap.Logger
	Session *zap.Logger
}

// Services - собранные в main зависимости, которые нужны маршрутам.
type Services struct {
	Orders   services.OrderServiceInterface
	Sessions session.ManagerInterface
	Hub      *websocket.Hub
	Dedup    *controllers.RequestDeduplicator
}

func InitRouter(e *echo.Echo, svc Services, loggers *Loggers, cfg *config.Config) {
	loggers.Main.Info("InitRouter: Начало создания маршрутов")

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")

	orderCtrl := controllers.NewOrderController(svc.Orders, loggers.Order)
	sessionCtrl := controllers.NewSessionController(svc.Sessions, svc.Hub, svc.Dedup, cfg.Dispatch.RefreshThrottle, loggers.Session)
	wsCtrl := controllers.NewWebSocketController(svc.Hub, svc.Sessions, loggers.Session)

	runOrderRouter(api, orderCtrl)
	runSessionRouter(api, sessionCtrl)
	e.GET("/ws/sessions/:id", wsCtrl.ServeWs)

	loggers.Main.Info("InitRouter: Создание маршрутов завершено")
}
