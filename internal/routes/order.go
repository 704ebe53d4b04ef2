package routes

import (
	"github.com/labstack/echo/v4"

	"order-dispatch/internal/controllers"
)

func runOrderRouter(api *echo.Group, orderCtrl *controllers.OrderController) {
	api.POST("/orders", orderCtrl.CreateOrder)
	api.GET("/orders/:id", orderCtrl.FindOrder)
	api.PATCH("/orders/:id/status", orderCtrl.UpdateStatus)
	api.POST("/orders/:id/accept", orderCtrl.AcceptDelivery)
}
