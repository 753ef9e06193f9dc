// Package pgtest поднимает пул к тестовой базе для интеграционных тестов.
// Тесты запускаются только если задан TEST_DATABASE_URL, иначе пропускаются.
package pgtest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/ecoquest/internal/db/postgres"
)

// Open подключается к TEST_DATABASE_URL, накатывает миграции
// и очищает все таблицы. Пул закрывается по t.Cleanup.
func Open(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL не задан, интеграционный тест пропущен")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, postgres.PoolOptions{DSN: dsn, MaxConns: 10})
	if err != nil {
		t.Fatalf("pgtest: подключение: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := postgres.Migrate(ctx, pool); err != nil {
		t.Fatalf("pgtest: миграции: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE users, ledger_entries, question_stats, user_trash,
		         daily_trash, daily_trash_users, themes, products, chapters, levels,
		         purchases, purchase_products, purchase_vouchers, user_levels,
		         voucher_types, vouchers
		CASCADE
	`)
	if err != nil {
		t.Fatalf("pgtest: очистка: %v", err)
	}
	return pool
}
