package seeders

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// КЛЮЧИК: true - обновить категорию/цену, если товар уже существует.
const updateIfExists_Products = true

func seedProducts(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - Наполнение таблицы 'products'...")

	var query string
	if updateIfExists_Products {
		query = `INSERT INTO products (name, category, commerce, is_extra, price) VALUES ($1, $2, $3, $4, $5)
				 ON CONFLICT (name, commerce) DO UPDATE SET category = EXCLUDED.category, is_extra = EXCLUDED.is_extra, price = EXCLUDED.price;`
		log.Println("    - Стратегия: Обновление существующих товаров (UPSERT)")
	} else {
		query = `INSERT INTO products (name, category, commerce, is_extra, price) VALUES ($1, $2, $3, $4, $5)
				 ON CONFLICT (name, commerce) DO NOTHING;`
		log.Println("    - Стратегия: Пропуск существующих товаров (IGNORE)")
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, p := range productsData {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, query, p.Name, p.Category, string(p.Commerce), p.IsExtra, price); err != nil {
			log.Printf("Ошибка при вставке/обновлении товара '%s': %v", p.Name, err)
			return err
		}
	}

	return tx.Commit(ctx)
}
