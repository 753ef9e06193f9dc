package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/ecoquest/internal/common"
)

// DBTX — общее подмножество *pgxpool.Pool и pgx.Tx.
// Репозитории принимают DBTX, чтобы один и тот же запрос
// можно было выполнить и отдельно, и внутри чужой транзакции.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ DBTX = (*pgxpool.Pool)(nil)
	_ DBTX = (pgx.Tx)(nil)
)

// InTx выполняет fn в транзакции.
// Ошибка fn откатывает транзакцию, иначе она фиксируется.
func InTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return WrapError(err, "ошибка начала транзакции")
	}
	// Откат после Commit — no-op
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return WrapError(err, "ошибка фиксации транзакции")
	}
	return nil
}

// LockUser берёт блокировку строки пользователя до конца транзакции.
// Все изменения одного пользователя (кошелёк, покупки, прогресс, переработка)
// начинаются с неё, поэтому они выполняются строго по очереди.
func LockUser(ctx context.Context, tx DBTX, userID uuid.UUID) error {
	var id uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&id)
	if err != nil {
		if isNoRows(err) {
			return common.ErrUserNotFound
		}
		return WrapError(err, "ошибка блокировки пользователя")
	}
	return nil
}
