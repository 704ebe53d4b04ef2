// Файл: main.go

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"order-dispatch/internal/alert"
	"order-dispatch/internal/controllers"
	"order-dispatch/internal/listeners"
	"order-dispatch/internal/realtime"
	"order-dispatch/internal/repositories"
	"order-dispatch/internal/routes"
	"order-dispatch/internal/services"
	"order-dispatch/internal/session"
	"order-dispatch/pkg/config"
	"order-dispatch/pkg/customvalidator"
	"order-dispatch/pkg/database/postgresql"
	apperrors "order-dispatch/pkg/errors"
	"order-dispatch/pkg/eventbus"
	applogger "order-dispatch/pkg/logger"
	appmiddleware "order-dispatch/pkg/middleware"
	"order-dispatch/pkg/utils"
	"order-dispatch/pkg/websocket"
)

func main() {
	// 1. Конфиг и логгер
	cfg := config.New()
	logger := applogger.NewLogger(cfg.Logger)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Echo и middleware
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		DisableStackAll: true,
		StackSize:       1 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("!!! ОБНАРУЖЕНА ПАНИКА (PANIC) !!!",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
				zap.String("stack", string(stack)),
			)
			if !c.Response().Committed {
				httpErr := apperrors.NewHttpError(http.StatusInternalServerError, "Внутренняя ошибка сервера", err)
				utils.ErrorResponse(c, httpErr, logger)
			}
			return err
		},
	}))
	e.Use(appmiddleware.RequestLogger(logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		ExposeHeaders: []string{"Content-Disposition"},
	}))

	v := validator.New()
	if err := customvalidator.RegisterCustomValidations(v); err != nil {
		logger.Fatal("Ошибка регистрации кастомных правил валидации", zap.Error(err))
	}
	e.Validator = utils.NewValidator(v)

	// 3. База данных
	dbConn := postgresql.ConnectDB(cfg.Postgres.DSN)
	defer dbConn.Close()

	if cfg.Postgres.MigrationsEnabled {
		if err := postgresql.Migrate(ctx, dbConn); err != nil {
			logger.Fatal("Ошибка применения миграций", zap.Error(err))
		}
	}

	// 4. Realtime: шина внутри процесса и, при необходимости, брокер между инстансами
	bus := eventbus.New(logger.Named("eventbus"))
	publisher, relay, closeRealtime, err := setupRealtime(cfg, bus, logger.Named("realtime"))
	if err != nil {
		logger.Fatal("Не удалось настроить realtime-канал", zap.String("driver", cfg.Realtime.Driver), zap.Error(err))
	}
	defer closeRealtime()

	activity := listeners.NewOrderActivityListener(2*time.Second, logger.Named("activity"))
	defer activity.Register(bus)()

	// 5. Репозитории, сервисы, сессии
	hub := websocket.NewHub(logger.Named("websocket"))
	txManager := repositories.NewTxManager(dbConn)
	orderRepo := repositories.NewOrderRepository(dbConn, cfg.Dispatch.OrdersLookback, logger.Named("orders"))
	orderService := services.NewOrderService(txManager, orderRepo, publisher, logger.Named("orders"))
	wsNotifications := services.NewWebSocketNotificationService(hub, logger.Named("websocket"))

	manager := session.NewManager(session.Dependencies{
		Fetcher:  orderRepo,
		Feed:     realtime.NewBusFeed(bus),
		Notifier: services.NewLogNotificationService(wsNotifications, logger.Named("notify")),
		Sink:     wsNotifications,
		Signals: func(sessionID string) alert.Signal {
			return wsNotifications.AlertSignal(sessionID)
		},
		Location: cfg.Dispatch.Location,
		Logger:   logger.Named("session"),
	})
	dedup := controllers.NewRequestDeduplicator()

	routes.InitRouter(e, routes.Services{
		Orders:   orderService,
		Sessions: manager,
		Hub:      hub,
		Dedup:    dedup,
	}, &routes.Loggers{
		Main:    logger,
		Order:   logger.Named("orders"),
		Session: logger.Named("session"),
	}, cfg)

	// 6. Запуск
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		dedup.Cleanup(gctx, time.Minute)
		return nil
	})
	if relay != nil {
		g.Go(func() error {
			// Без ретранслятора дашборды продолжают работать на одном опросе.
			if err := relay.Run(gctx); err != nil {
				logger.Error("Realtime-ретранслятор остановлен", zap.Error(err))
			}
			return nil
		})
	}
	g.Go(func() error {
		logger.Info("🚀 Сервер запущен", zap.String("port", cfg.Server.Port), zap.String("realtime", cfg.Realtime.Driver))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Остановка сервера")
		manager.CloseAll()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Сервер остановлен с ошибкой", zap.Error(err))
		return
	}
	logger.Info("Сервер остановлен")
}

// setupRealtime выбирает транспорт событий по REALTIME_DRIVER. Для memory ретранслятор не нужен:
// публикация сразу попадает в шину.
func setupRealtime(cfg *config.Config, bus *eventbus.Bus, logger *zap.Logger) (realtime.Publisher, realtime.Relay, func(), error) {
	noop := func() {}

	switch cfg.Realtime.Driver {
	case "", "memory":
		return realtime.NewBusPublisher(bus), nil, noop, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       0,
		})
		if _, err := client.Ping(context.Background()).Result(); err != nil {
			return nil, nil, noop, fmt.Errorf("не удалось подключиться к Redis %s: %w", cfg.Redis.Address, err)
		}
		publisher := realtime.NewRedisPublisher(client, cfg.Realtime.Topic)
		relay := realtime.NewRedisRelay(client, cfg.Realtime.Topic, bus, logger)
		return publisher, relay, func() { client.Close() }, nil

	case "rabbitmq":
		conn, err := amqp.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			return nil, nil, noop, fmt.Errorf("не удалось подключиться к RabbitMQ: %w", err)
		}
		publisher, err := realtime.NewAMQPPublisher(conn, cfg.Realtime.Topic)
		if err != nil {
			conn.Close()
			return nil, nil, noop, err
		}
		relay := realtime.NewAMQPRelay(conn, cfg.Realtime.Topic, bus, logger)
		return publisher, relay, func() {
			publisher.Close()
			conn.Close()
		}, nil

	case "kafka":
		// Каждый инстанс читает весь топик, поэтому группа уникальна для хоста.
		host, _ := os.Hostname()
		groupID := cfg.Kafka.GroupID + "-" + host
		publisher := realtime.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Realtime.Topic)
		relay := realtime.NewKafkaRelay(cfg.Kafka.Brokers, groupID, cfg.Realtime.Topic, bus, logger)
		return publisher, relay, func() { publisher.Close() }, nil
	}

	return nil, nil, noop, fmt.Errorf("неизвестный REALTIME_DRIVER %q", cfg.Realtime.Driver)
}
