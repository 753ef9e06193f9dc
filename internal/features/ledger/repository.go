// Package ledger — repository.go выполняет операции с users.money и ledger_entries.
// Методы принимают postgres.DBTX: вызывающий решает, в какой транзакции они идут.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"serotonyl.ru/ecoquest/internal/common"
	"serotonyl.ru/ecoquest/internal/db/postgres"
)

// Repository предоставляет методы для работы с балансом и историей.
type Repository struct{}

// NewRepository создаёт новый репозиторий кошелька.
func NewRepository() *Repository {
	return &Repository{}
}

// Balance возвращает текущий баланс пользователя.
func (r *Repository) Balance(ctx context.Context, q postgres.DBTX, userID uuid.UUID) (int64, error) {
	var money int64
	err := q.QueryRow(ctx, `SELECT money FROM users WHERE id = $1`, userID).Scan(&money)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, common.ErrUserNotFound
		}
		return 0, postgres.WrapError(err, "ошибка получения баланса")
	}
	return money, nil
}

// Credit начисляет amount и пишет запись в историю.
//
// Параметры:
//   - q: пул или транзакция
//   - userID: кому начислить
//   - amount: сколько (положительное число)
//   - kind: тип движения (level_full_clear, daily_check_in, ...)
//   - description: описание для истории
//
// Возвращает новый баланс.
func (r *Repository) Credit(ctx context.Context, q postgres.DBTX, userID uuid.UUID, amount int64, kind, description string) (int64, error) {
	var balance int64
	err := q.QueryRow(ctx, `
		UPDATE users
		SET money = money + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING money
	`, userID, amount).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, common.ErrUserNotFound
		}
		return 0, postgres.WrapError(err, "ошибка начисления")
	}

	if err := r.insertEntry(ctx, q, userID, amount, kind, description, balance); err != nil {
		return 0, err
	}
	return balance, nil
}

// Debit списывает amount, если на счёте достаточно средств.
// Условие money >= amount проверяется в самом UPDATE, поэтому баланс
// не уходит в минус даже без внешней блокировки.
func (r *Repository) Debit(ctx context.Context, q postgres.DBTX, userID uuid.UUID, amount int64, kind, description string) (int64, error) {
	var balance int64
	err := q.QueryRow(ctx, `
		UPDATE users
		SET money = money - $2, updated_at = NOW()
		WHERE id = $1 AND money >= $2
		RETURNING money
	`, userID, amount).Scan(&balance)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return 0, postgres.WrapError(err, "ошибка списания")
		}
		// Строка не обновилась: либо пользователя нет, либо не хватает денег
		if _, berr := r.Balance(ctx, q, userID); berr != nil {
			return 0, berr
		}
		return 0, common.ErrInsufficientBalance
	}

	if err := r.insertEntry(ctx, q, userID, -amount, kind, description, balance); err != nil {
		return 0, err
	}
	return balance, nil
}

func (r *Repository) insertEntry(ctx context.Context, q postgres.DBTX, userID uuid.UUID, amount int64, kind, description string, balanceAfter int64) error {
	_, err := q.Exec(ctx, `
		INSERT INTO ledger_entries (user_id, amount, kind, description, balance_after)
		VALUES ($1, $2, $3, $4, $5)
	`, userID, amount, kind, description, balanceAfter)
	if err != nil {
		return postgres.WrapError(err, "ошибка записи в историю")
	}
	return nil
}

// History возвращает последние limit движений пользователя, новые первыми.
func (r *Repository) History(ctx context.Context, q postgres.DBTX, userID uuid.UUID, limit int) ([]Entry, error) {
	rows, err := q.Query(ctx, `
		SELECT id, user_id, amount, kind, description, balance_after, created_at
		FROM ledger_entries
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, postgres.WrapError(err, "ошибка получения истории")
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &e.Kind, &e.Description, &e.BalanceAfter, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи истории: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.WrapError(err, "ошибка чтения истории")
	}
	return entries, nil
}

// DeleteHistory удаляет всю историю пользователя.
func (r *Repository) DeleteHistory(ctx context.Context, q postgres.DBTX, userID uuid.UUID) error {
	if _, err := q.Exec(ctx, `DELETE FROM ledger_entries WHERE user_id = $1`, userID); err != nil {
		return postgres.WrapError(err, "ошибка удаления истории")
	}
	return nil
}
