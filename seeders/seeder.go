package seeders

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"order-dispatch/internal/realtime"
	"order-dispatch/pkg/config"
)

// SeedCatalog наполняет каталог товаров обеих станций.
func SeedCatalog(db *pgxpool.Pool) {
	ctx := context.Background()
	log.Println("▶️  Запуск наполнения каталога...")

	if err := seedProducts(ctx, db); err != nil {
		log.Fatalf("❌ Ошибка наполнения Товаров (Products): %v", err)
	}
	log.Println("✅ Наполнение каталога завершено!")
}

// SeedDemoOrders создаёт несколько заказов для проверки дашбордов. Требует каталога.
func SeedDemoOrders(db *pgxpool.Pool, cfg *config.Config, publisher realtime.Publisher) {
	ctx := context.Background()
	log.Println("▶️  Запуск создания демонстрационных заказов...")

	if err := seedDemoOrders(ctx, db, cfg, publisher); err != nil {
		log.Fatalf("❌ Ошибка создания демонстрационных заказов: %v", err)
	}
	log.Println("✅ Демонстрационные заказы созданы!")
}
