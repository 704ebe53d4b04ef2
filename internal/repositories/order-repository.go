package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"order-dispatch/internal/entities"
	"order-dispatch/pkg/constants"
	apperrors "order-dispatch/pkg/errors"
)

type OrderRepositoryInterface interface {
	FetchOrders(ctx context.Context, role constants.Role, filter sq.Sqlizer) ([]entities.Order, error)
	FindOrder(ctx context.Context, querier Querier, id string, forUpdate bool) (*entities.Order, error)
	FindProducts(ctx context.Context, querier Querier, ids []string) (map[string]entities.Product, error)
	CreateOrder(ctx context.Context, tx pgx.Tx, order entities.Order) (*entities.Order, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id string, column string, value string) error
	AssignCourier(ctx context.Context, tx pgx.Tx, id string, courierID string) error
}

// Колонки статусов, которые разрешено менять напрямую.
var statusColumns = map[string]bool{
	"status":   true,
	"status_a": true,
	"status_b": true,
}

var orderColumns = []string{
	"o.id::text", "o.number", "o.type", "o.status", "o.status_a", "o.status_b",
	"o.total", "o.notes", "o.courier_id", "o.created_at", "o.updated_at",
	"c.id::text", "c.name", "c.phone", "c.address",
}

type OrderRepository struct {
	storage  *pgxpool.Pool
	logger   *zap.Logger
	lookback time.Duration
	now      func() time.Time
}

func NewOrderRepository(storage *pgxpool.Pool, lookback time.Duration, logger *zap.Logger) OrderRepositoryInterface {
	return &OrderRepository{
		storage:  storage,
		logger:   logger,
		lookback: lookback,
		now:      time.Now,
	}
}

func psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// FetchOrders возвращает заказы за окно lookback, подходящие под фильтр роли, вместе с позициями.
func (r *OrderRepository) FetchOrders(ctx context.Context, role constants.Role, filter sq.Sqlizer) ([]entities.Order, error) {
	builder := psql().Select(orderColumns...).
		From("orders o").
		LeftJoin("clients c ON c.id = o.client_id").
		Where(sq.GtOrEq{"o.created_at": r.now().Add(-r.lookback)}).
		OrderBy("o.created_at ASC")
	if filter != nil {
		builder = builder.Where(filter)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("сборка запроса заказов: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения заказов: %w", err)
	}
	defer rows.Close()

	orders := make([]entities.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachItems(ctx, r.storage, orders); err != nil {
		return nil, err
	}

	r.logger.Debug("Заказы загружены", zap.String("role", role.String()), zap.Int("count", len(orders)))
	return orders, nil
}

func (r *OrderRepository) FindOrder(ctx context.Context, querier Querier, id string, forUpdate bool) (*entities.Order, error) {
	if querier == nil {
		querier = r.storage
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.ErrNotFound
	}

	builder := psql().Select(orderColumns...).
		From("orders o").
		LeftJoin("clients c ON c.id = o.client_id").
		Where(sq.Eq{"o.id": id})
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE OF o")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	order, err := scanOrder(querier.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	orders := []entities.Order{*order}
	if err := r.attachItems(ctx, querier, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *OrderRepository) FindProducts(ctx context.Context, querier Querier, ids []string) (map[string]entities.Product, error) {
	if querier == nil {
		querier = r.storage
	}
	query, args, err := psql().
		Select("p.id::text", "p.name", "p.category", "p.commerce", "p.is_extra", "p.price").
		From("products p").
		Where(sq.Eq{"p.id::text": ids}).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения товаров: %w", err)
	}
	defer rows.Close()

	products := make(map[string]entities.Product, len(ids))
	for rows.Next() {
		var p entities.Product
		var commerce string
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &commerce, &p.IsExtra, &p.Price); err != nil {
			return nil, err
		}
		p.Commerce = constants.Commerce(commerce)
		products[p.ID] = p
	}
	return products, rows.Err()
}

// CreateOrder вставляет заказ и его позиции; номер и отметки времени назначает БД.
func (r *OrderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order entities.Order) (*entities.Order, error) {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}

	var clientID null.String
	if order.Client != nil {
		if order.Client.ID == "" {
			order.Client.ID = uuid.NewString()
			_, err := tx.Exec(ctx,
				`INSERT INTO clients (id, name, phone, address) VALUES ($1, $2, $3, $4)`,
				order.Client.ID, order.Client.Name, order.Client.Phone, order.Client.Address)
			if err != nil {
				return nil, fmt.Errorf("ошибка создания клиента: %w", err)
			}
		}
		clientID = null.StringFrom(order.Client.ID)
	}

	err := tx.QueryRow(ctx, `
		INSERT INTO orders (id, type, status, status_a, status_b, total, notes, courier_id, client_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING number, created_at, updated_at`,
		order.ID, string(order.Type), order.Status, order.StatusA, order.StatusB,
		order.Total, order.Notes, order.CourierID, clientID,
	).Scan(&order.Number, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания заказа: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, position, quantity, unit_price, extras)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			item.ID, order.ID, item.Product.ID, i, item.Quantity, item.UnitPrice, item.Extras,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка добавления позиции заказа: %w", err)
		}
	}

	return &order, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id string, column string, value string) error {
	if !statusColumns[column] {
		return fmt.Errorf("%w: колонка %q", apperrors.ErrInvalidStatus, column)
	}

	query, args, err := psql().Update("orders").
		Set(column, value).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// AssignCourier закрепляет заказ за курьером, только если он свободен и уже готов к выдаче.
func (r *OrderRepository) AssignCourier(ctx context.Context, tx pgx.Tx, id string, courierID string) error {
	query, args, err := psql().Update("orders").
		Set("courier_id", courierID).
		Set("status", constants.StatusOutForDelivery).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id, "courier_id": nil}).
		Where(sq.Or{
			sq.Eq{"status": constants.StatusReady},
			sq.Eq{"status_a": constants.SubStatusReady},
			sq.Eq{"status_b": constants.SubStatusReady},
		}).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка назначения курьера: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Ничего не обновили: разбираемся, почему.
	var assigned bool
	err = tx.QueryRow(ctx, `SELECT courier_id IS NOT NULL FROM orders WHERE id = $1`, id).Scan(&assigned)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("ошибка проверки заказа: %w", err)
	}
	if assigned {
		return apperrors.ErrOrderAlreadyTaken
	}
	return apperrors.ErrOrderNotReady
}

func (r *OrderRepository) attachItems(ctx context.Context, querier Querier, orders []entities.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
		orders[i].Items = make([]entities.LineItem, 0)
	}

	query, args, err := psql().
		Select(
			"oi.id::text", "oi.order_id::text", "oi.quantity", "oi.unit_price", "oi.extras",
			"p.id::text", "p.name", "p.category", "p.commerce", "p.is_extra", "p.price",
		).
		From("order_items oi").
		Join("products p ON p.id = oi.product_id").
		Where(sq.Eq{"oi.order_id::text": ids}).
		OrderBy("oi.order_id", "oi.position").
		ToSql()
	if err != nil {
		return err
	}

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка получения позиций заказов: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item entities.LineItem
		var orderID, commerce string
		err := rows.Scan(
			&item.ID, &orderID, &item.Quantity, &item.UnitPrice, &item.Extras,
			&item.Product.ID, &item.Product.Name, &item.Product.Category, &commerce, &item.Product.IsExtra, &item.Product.Price,
		)
		if err != nil {
			return err
		}
		item.Product.Commerce = constants.Commerce(commerce)
		if i, ok := index[orderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	return rows.Err()
}

func scanOrder(row pgx.Row) (*entities.Order, error) {
	var (
		o         entities.Order
		orderType string
		total     decimal.Decimal
		clientID  null.String
		name      null.String
		phone     null.String
		address   null.String
	)
	err := row.Scan(
		&o.ID, &o.Number, &orderType, &o.Status, &o.StatusA, &o.StatusB,
		&total, &o.Notes, &o.CourierID, &o.CreatedAt, &o.UpdatedAt,
		&clientID, &name, &phone, &address,
	)
	if err != nil {
		return nil, err
	}
	o.Type = constants.OrderType(orderType)
	o.Total = total
	if clientID.Valid {
		o.Client = &entities.Client{ID: clientID.String, Name: name.String, Phone: phone, Address: address}
	}
	return &o, nil
}
