// Package postgres — слой хранения: пул pgxpool, встроенные миграции,
// транзакции с блокировкой пользователя и перевод ошибок pg в common.Error.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// PoolOptions — параметры пула соединений.
type PoolOptions struct {
	DSN      string
	MaxConns int32
	MinConns int32
}

// NewPool открывает пул по DSN и проверяет соединение.
// Нулевые MaxConns/MinConns оставляют значения pgxpool по умолчанию.
//
//	pool, err := postgres.NewPool(ctx, postgres.PoolOptions{DSN: cfg.DatabaseDSN(), MaxConns: 25})
func NewPool(ctx context.Context, opts PoolOptions) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("некорректный DSN: %w", err)
	}

	if opts.MaxConns > 0 {
		poolConfig.MaxConns = opts.MaxConns // Максимум соединений
	}
	if opts.MinConns > 0 {
		poolConfig.MinConns = opts.MinConns // Минимум (держать открытыми)
	}
	poolConfig.MaxConnLifetime = 1 * time.Hour    // Время жизни одного соединения
	poolConfig.MaxConnIdleTime = 30 * time.Minute // Время простоя до закрытия
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping PostgreSQL: %w", err)
	}

	log.WithFields(log.Fields{
		"max_conns": poolConfig.MaxConns,
		"min_conns": poolConfig.MinConns,
	}).Info("PostgreSQL подключён")
	return pool, nil
}
