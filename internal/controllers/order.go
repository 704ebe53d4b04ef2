package controllers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"order-dispatch/internal/dto"
	"order-dispatch/internal/services"
	apperrors "order-dispatch/pkg/errors"
	"order-dispatch/pkg/utils"
)

const orderRequestTimeout = 10 * time.Second

type OrderController struct {
	orderService services.OrderServiceInterface
	logger       *zap.Logger
}

func NewOrderController(orderService services.OrderServiceInterface, logger *zap.Logger) *OrderController {
	return &OrderController{orderService: orderService, logger: logger}
}

func (c *OrderController) FindOrder(ctx echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(ctx, orderRequestTimeout)
	defer cancel()

	order, err := c.orderService.FindOrder(reqCtx, ctx.Param("id"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, order, "Заказ найден", http.StatusOK)
}

func (c *OrderController) CreateOrder(ctx echo.Context) error {
	var req dto.CreateOrderDTO
	if err := ctx.Bind(&req); err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат запроса", err), c.logger)
	}
	if err := ctx.Validate(&req); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	reqCtx, cancel := utils.ContextWithTimeout(ctx, orderRequestTimeout)
	defer cancel()

	order, err := c.orderService.CreateOrder(reqCtx, req)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, order, "Заказ успешно создан", http.StatusCreated)
}

func (c *OrderController) UpdateStatus(ctx echo.Context) error {
	var req dto.UpdateStatusDTO
	if err := ctx.Bind(&req); err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат запроса", err), c.logger)
	}
	if err := ctx.Validate(&req); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	reqCtx, cancel := utils.ContextWithTimeout(ctx, orderRequestTimeout)
	defer cancel()

	order, err := c.orderService.UpdateStatus(reqCtx, ctx.Param("id"), req)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, order, "Статус заказа обновлён", http.StatusOK)
}

func (c *OrderController) AcceptDelivery(ctx echo.Context) error {
	var req dto.AcceptDeliveryDTO
	if err := ctx.Bind(&req); err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат запроса", err), c.logger)
	}
	if err := ctx.Validate(&req); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	reqCtx, cancel := utils.ContextWithTimeout(ctx, orderRequestTimeout)
	defer cancel()

	order, err := c.orderService.AcceptDelivery(reqCtx, ctx.Param("id"), req.CourierID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, order, "Заказ принят в доставку", http.StatusOK)
}
