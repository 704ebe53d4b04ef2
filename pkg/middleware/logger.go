// pkg/middleware/logger.go

package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// InjectLogger - мидлвэр для добавления логгера в контекст запроса.
func InjectLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("logger", logger)
			return next(c)
		}
	}
}

// RequestLogger пишет одну строку на запрос. Опрос дашбордов идёт на уровне Debug,
// чтобы не засорять журнал.
func RequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("path", c.Path()),
				zap.Int("status", c.Response().Status),
				zap.Duration("latency", time.Since(start)),
			}
			if id := c.Param("id"); id != "" {
				fields = append(fields, zap.String("id", id))
			}

			switch {
			case c.Response().Status >= 500:
				logger.Error("HTTP-запрос завершился ошибкой", fields...)
			case req.Method == "GET":
				logger.Debug("HTTP-запрос", fields...)
			default:
				logger.Info("HTTP-запрос", fields...)
			}
			return nil
		}
	}
}
