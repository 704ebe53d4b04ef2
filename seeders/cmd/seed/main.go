package main

import (
	"flag"
	"log"

	"github.com/go-redis/redis/v8"

	"order-dispatch/internal/realtime"
	"order-dispatch/pkg/config"
	"order-dispatch/pkg/database/postgresql"
	"order-dispatch/seeders"
)

func main() {
	log.Println("======================================================")
	log.Println("       🌱 СИСТЕМА СИДЕРОВ (Наполнение БД)           ")
	log.Println("======================================================")

	// --- Определяем флаги ---
	runCatalog := flag.Bool("catalog", false, "Запустить наполнение каталога товаров")
	runDemo := flag.Bool("demo", false, "Создать демонстрационные заказы")
	runAll := flag.Bool("all", false, "Запустить все сидеры (эквивалентно -catalog -demo)")

	flag.Parse()

	// Если ни один флаг не указан - показываем справку
	if !*runCatalog && !*runDemo && !*runAll {
		log.Println("❌ Не выбран ни один сидер для запуска.")
		log.Println("")
		log.Println("Доступные флаги:")
		flag.PrintDefaults()
		log.Println("")
		log.Println("Примеры использования:")
		log.Println("  go run ./seeders/cmd/seed/main.go -catalog")
		log.Println("  go run ./seeders/cmd/seed/main.go -all")
		log.Println("======================================================")
		return
	}

	cfg := config.New()
	log.Println("📦 Используется DSN:", cfg.Postgres.DSN)
	dbPool := postgresql.ConnectDB(cfg.Postgres.DSN)
	defer dbPool.Close()

	log.Println("======================================================")

	if *runAll || *runCatalog {
		seeders.SeedCatalog(dbPool)
		log.Println("======================================================")
	}

	if *runAll || *runDemo {
		// В режиме redis работающий сервер узнает о новых заказах сразу; иначе на ближайшем опросе.
		var publisher realtime.Publisher
		if cfg.Realtime.Driver == "redis" {
			client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password})
			defer client.Close()
			publisher = realtime.NewRedisPublisher(client, cfg.Realtime.Topic)
		}
		seeders.SeedDemoOrders(dbPool, cfg, publisher)
		log.Println("======================================================")
	}

	log.Println("✅ Все указанные операции сидирования успешно завершены.")
	log.Println("======================================================")
}
