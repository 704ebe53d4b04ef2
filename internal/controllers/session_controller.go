package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"order-dispatch/internal/dto"
	"order-dispatch/internal/session"
	"order-dispatch/pkg/constants"
	apperrors "order-dispatch/pkg/errors"
	"order-dispatch/pkg/utils"
)

// roomCloser отключает экраны закрытой сессии.
type roomCloser interface {
	CloseSession(sessionID string)
}

type SessionController struct {
	manager  session.ManagerInterface
	rooms    roomCloser
	dedup    *RequestDeduplicator
	throttle time.Duration
	logger   *zap.Logger
}

func NewSessionController(manager session.ManagerInterface, rooms roomCloser, dedup *RequestDeduplicator, throttle time.Duration, logger *zap.Logger) *SessionController {
	return &SessionController{
		manager:  manager,
		rooms:    rooms,
		dedup:    dedup,
		throttle: throttle,
		logger:   logger,
	}
}

func (c *SessionController) OpenSession(ctx echo.Context) error {
	var req dto.OpenSessionDTO
	if err := ctx.Bind(&req); err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат запроса", err), c.logger)
	}
	if err := ctx.Validate(&req); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	s, err := c.manager.Open(ctx.Request().Context(), constants.Role(req.Role), req.CourierID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res := dto.SessionOpenedDTO{
		ID:        s.ID,
		Role:      s.Role(),
		CourierID: req.CourierID,
		WSPath:    "/ws/sessions/" + s.ID,
	}
	return utils.SuccessResponse(ctx, res, "Сессия открыта", http.StatusCreated)
}

func (c *SessionController) ListSessions(ctx echo.Context) error {
	sessions := c.manager.List()
	res := make([]dto.SessionOpenedDTO, 0, len(sessions))
	for _, s := range sessions {
		snap := s.Snapshot()
		res = append(res, dto.SessionOpenedDTO{
			ID:        s.ID,
			Role:      snap.Role,
			CourierID: snap.CourierID,
			WSPath:    "/ws/sessions/" + s.ID,
		})
	}
	return utils.SuccessResponse(ctx, res, "Список сессий получен", http.StatusOK)
}

func (c *SessionController) GetSession(ctx echo.Context) error {
	s, err := c.manager.Get(ctx.Param("id"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, s.Snapshot(), "Состояние сессии получено", http.StatusOK)
}

// RefreshSession - ручное обновление, не чаще одного раза за throttle на сессию.
func (c *SessionController) RefreshSession(ctx echo.Context) error {
	s, err := c.manager.Get(ctx.Param("id"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if !c.dedup.TryAcquire("refresh_"+s.ID, c.throttle) {
		c.logger.Debug("Повторное обновление отброшено", zap.String("session_id", s.ID))
		return utils.SuccessResponse(ctx, s.Snapshot(), "Обновление уже выполнялось", http.StatusOK)
	}

	if err := s.ForceRefresh(); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, s.Snapshot(), "Сессия обновлена", http.StatusOK)
}

func (c *SessionController) PauseSession(ctx echo.Context) error {
	s, err := c.manager.Get(ctx.Param("id"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	s.Pause()
	return utils.SuccessResponse(ctx, s.Snapshot(), "Опрос приостановлен", http.StatusOK)
}

func (c *SessionController) ResumeSession(ctx echo.Context) error {
	s, err := c.manager.Get(ctx.Param("id"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := s.Resume(); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, s.Snapshot(), "Опрос возобновлён", http.StatusOK)
}

func (c *SessionController) CloseSession(ctx echo.Context) error {
	id := ctx.Param("id")
	if err := c.manager.Close(id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if c.rooms != nil {
		c.rooms.CloseSession(id)
	}
	return utils.SuccessResponse(ctx, nil, "Сессия закрыта", http.StatusOK)
}

// ExportSession отдаёт текущий список сессии в XLSX.
func (c *SessionController) ExportSession(ctx echo.Context) error {
	s, err := c.manager.Get(ctx.Param("id"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	snap := s.Snapshot()
	f, err := buildOrdersWorkbook(snap)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	defer f.Close()

	fileName := fmt.Sprintf("orders_%s_%s.xlsx", snap.Role, time.Now().Format("2006-01-02_1504"))
	ctx.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Response().Header().Set("Content-Disposition", "attachment; filename="+fileName)
	ctx.Response().WriteHeader(http.StatusOK)
	return f.Write(ctx.Response().Writer)
}
