package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"order-dispatch/internal/dto"
	"order-dispatch/internal/entities"
	"order-dispatch/internal/events"
	"order-dispatch/internal/realtime"
	"order-dispatch/internal/repositories"
	"order-dispatch/pkg/constants"
	apperrors "order-dispatch/pkg/errors"
)

type OrderServiceInterface interface {
	FindOrder(ctx context.Context, id string) (*entities.Order, error)
	CreateOrder(ctx context.Context, orderData dto.CreateOrderDTO) (*entities.Order, error)
	UpdateStatus(ctx context.Context, id string, data dto.UpdateStatusDTO) (*entities.Order, error)
	AcceptDelivery(ctx context.Context, id string, courierID string) (*entities.Order, error)
}

type OrderService struct {
	txManager repositories.TxManagerInterface
	orderRepo repositories.OrderRepositoryInterface
	publisher realtime.Publisher
	logger    *zap.Logger
}

func NewOrderService(
	txManager repositories.TxManagerInterface,
	orderRepo repositories.OrderRepositoryInterface,
	publisher realtime.Publisher,
	logger *zap.Logger,
) OrderServiceInterface {
	return &OrderService{
		txManager: txManager,
		orderRepo: orderRepo,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *OrderService) FindOrder(ctx context.Context, id string) (*entities.Order, error) {
	return s.orderRepo.FindOrder(ctx, nil, id, false)
}

// CreateOrder сохраняет заказ с позициями. Под-статус "new" получает только та станция,
// чьи товары есть в заказе.
func (s *OrderService) CreateOrder(ctx context.Context, orderData dto.CreateOrderDTO) (*entities.Order, error) {
	var created *entities.Order

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		ids := make([]string, 0, len(orderData.Items))
		for _, item := range orderData.Items {
			ids = append(ids, item.ProductID)
		}
		products, err := s.orderRepo.FindProducts(ctx, tx, ids)
		if err != nil {
			return err
		}

		order, err := buildOrder(orderData, products)
		if err != nil {
			return err
		}

		created, err = s.orderRepo.CreateOrder(ctx, tx, order)
		return err
	})
	if err != nil {
		s.logger.Error("Ошибка при создании заказа", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Заказ создан",
		zap.String("order_id", created.ID),
		zap.String("number", created.Number),
		zap.String("type", string(created.Type)),
	)
	s.publish(ctx, events.Inserted(*created))
	return created, nil
}

func buildOrder(data dto.CreateOrderDTO, products map[string]entities.Product) (entities.Order, error) {
	order := entities.Order{
		Type:   constants.OrderType(data.Type),
		Status: constants.StatusNew,
		Total:  decimal.Zero,
		Notes:  null.StringFromPtr(data.Notes),
	}
	if data.Client != nil {
		order.Client = &entities.Client{
			Name:    data.Client.Name,
			Phone:   null.StringFromPtr(data.Client.Phone),
			Address: null.StringFromPtr(data.Client.Address),
		}
	}

	for _, itemData := range data.Items {
		product, ok := products[itemData.ProductID]
		if !ok {
			return order, apperrors.NewHttpError(http.StatusNotFound, "Товар не найден: "+itemData.ProductID, apperrors.ErrNotFound)
		}
		price := product.Price
		if itemData.UnitPrice != nil {
			p, err := decimal.NewFromString(*itemData.UnitPrice)
			if err != nil {
				return order, fmt.Errorf("%w: цена %q", apperrors.ErrBadRequest, *itemData.UnitPrice)
			}
			price = p
		}

		order.Items = append(order.Items, entities.LineItem{
			Quantity:  itemData.Quantity,
			UnitPrice: price,
			Extras:    null.StringFromPtr(itemData.Extras),
			Product:   product,
		})
		order.Total = order.Total.Add(price.Mul(decimal.NewFromInt(int64(itemData.Quantity))))
	}

	if order.HasCommerce(constants.CommerceA) {
		order.StatusA = null.StringFrom(constants.SubStatusNew)
	}
	if order.HasCommerce(constants.CommerceB) {
		order.StatusB = null.StringFrom(constants.SubStatusNew)
	}
	return order, nil
}

// UpdateStatus меняет одно поле статуса. Глобальный статус смешанного заказа
// сам по себе не пересчитывается: его выставляет вызывающая сторона.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, data dto.UpdateStatusDTO) (*entities.Order, error) {
	if err := checkStatusValue(data.Field, data.Value); err != nil {
		return nil, err
	}

	var before, after *entities.Order
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		before, err = s.orderRepo.FindOrder(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if err := checkStationPresent(*before, data.Field); err != nil {
			return err
		}
		if err := s.orderRepo.UpdateStatus(ctx, tx, id, data.Field, data.Value); err != nil {
			return err
		}
		after, err = s.orderRepo.FindOrder(ctx, tx, id, false)
		return err
	})
	if err != nil {
		s.logger.Error("Ошибка при обновлении статуса заказа",
			zap.String("order_id", id),
			zap.String("field", data.Field),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("Статус заказа обновлён",
		zap.String("order_id", id),
		zap.String("field", data.Field),
		zap.String("value", data.Value),
	)
	s.publish(ctx, events.Updated(*before, *after))
	return after, nil
}

func checkStatusValue(field, value string) error {
	switch field {
	case "status":
		if constants.IsGlobalStatus(value) {
			return nil
		}
	case constants.CommerceA.StatusColumn(), constants.CommerceB.StatusColumn():
		if constants.IsSubStatus(value) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s=%q", apperrors.ErrInvalidStatus, field, value)
}

func checkStationPresent(order entities.Order, field string) error {
	for _, c := range []constants.Commerce{constants.CommerceA, constants.CommerceB} {
		if field == c.StatusColumn() && !order.HasCommerce(c) {
			return fmt.Errorf("%w: в заказе нет товаров станции %s", apperrors.ErrInvalidStatus, c)
		}
	}
	return nil
}

// AcceptDelivery закрепляет готовый заказ на доставку за курьером.
func (s *OrderService) AcceptDelivery(ctx context.Context, id string, courierID string) (*entities.Order, error) {
	var before, after *entities.Order
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		before, err = s.orderRepo.FindOrder(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if before.Type != constants.OrderTypeDelivery {
			return apperrors.NewHttpError(http.StatusBadRequest, "Заказ не на доставку", apperrors.ErrBadRequest)
		}
		if before.IsAssigned() {
			return apperrors.ErrOrderAlreadyTaken
		}
		if !before.IsReadyForPickup() {
			return apperrors.ErrOrderNotReady
		}
		if err := s.orderRepo.AssignCourier(ctx, tx, id, courierID); err != nil {
			return err
		}
		after, err = s.orderRepo.FindOrder(ctx, tx, id, false)
		return err
	})
	if err != nil {
		s.logger.Warn("Не удалось принять заказ на доставку",
			zap.String("order_id", id),
			zap.String("courier_id", courierID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("Заказ принят курьером", zap.String("order_id", id), zap.String("courier_id", courierID))
	s.publish(ctx, events.Updated(*before, *after))
	return after, nil
}

// publish вызывается после коммита; сбой доставки события не откатывает запись,
// дашборды подхватят изменение на следующем опросе.
func (s *OrderService) publish(ctx context.Context, ev events.ChangeEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("Не удалось опубликовать изменение заказа",
			zap.String("type", string(ev.Kind)),
			zap.Error(err),
		)
	}
}
