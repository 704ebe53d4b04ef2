package routes

import (
	"github.com/labstack/echo/v4"

	"order-dispatch/internal/controllers"
)

func runSessionRouter(api *echo.Group, sessionCtrl *controllers.SessionController) {
	sessions := api.Group("/sessions")
	{
		sessions.POST("", sessionCtrl.OpenSession)
		sessions.GET("", sessionCtrl.ListSessions)
		sessions.GET("/:id", sessionCtrl.GetSession)
		sessions.POST("/:id/refresh", sessionCtrl.RefreshSession)
		sessions.POST("/:id/pause", sessionCtrl.PauseSession)
		sessions.POST("/:id/resume", sessionCtrl.ResumeSession)
		sessions.GET("/:id/export", sessionCtrl.ExportSession)
		sessions.DELETE("/:id", sessionCtrl.CloseSession)
	}
}
