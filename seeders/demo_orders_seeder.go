package seeders

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"order-dispatch/internal/dto"
	"order-dispatch/internal/realtime"
	"order-dispatch/internal/repositories"
	"order-dispatch/internal/services"
	"order-dispatch/pkg/config"
)

// seedDemoOrders создаёт по заказу каждого вида через обычный сервис заказов,
// поэтому события изменения уходят в настроенный realtime-канал.
func seedDemoOrders(ctx context.Context, db *pgxpool.Pool, cfg *config.Config, publisher realtime.Publisher) error {
	log.Println("  - Создание демонстрационных заказов...")

	ids := make(map[string]string)
	rows, err := db.Query(ctx, `SELECT id::text, name FROM products`)
	if err != nil {
		return err
	}
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			rows.Close()
			return err
		}
		ids[name] = id
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	repo := repositories.NewOrderRepository(db, cfg.Dispatch.OrdersLookback, zap.NewNop())
	svc := services.NewOrderService(repositories.NewTxManager(db), repo, publisher, zap.NewNop())

	phone := "+33612345678"
	address := "12 rue de la Paix, Paris"
	orders := []dto.CreateOrderDTO{
		{Type: "dine_in", Items: []dto.CreateOrderItemDTO{{ProductID: ids["Margherita"], Quantity: 2}}},
		{Type: "takeaway", Items: []dto.CreateOrderItemDTO{
			{ProductID: ids["Tacos"], Quantity: 1},
			{ProductID: ids["Frites"], Quantity: 1},
		}},
		{
			Type:   "delivery",
			Client: &dto.CreateClientDTO{Name: "Mme Durand", Phone: &phone, Address: &address},
			Items: []dto.CreateOrderItemDTO{
				{ProductID: ids["Regina"], Quantity: 1},
				{ProductID: ids["Club poulet"], Quantity: 1},
			},
		},
	}

	for _, o := range orders {
		created, err := svc.CreateOrder(ctx, o)
		if err != nil {
			return err
		}
		log.Printf("    - Заказ %s (%s) создан", created.Number, created.Type)
	}
	return nil
}
