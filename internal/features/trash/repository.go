// Package trash — repository.go работает с таблицами user_trash, daily_trash, daily_trash_users.
package trash

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"serotonyl.ru/ecoquest/internal/db/postgres"
)

type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

// Init создаёт нулевые счётчики по всем материалам.
func (r *Repository) Init(ctx context.Context, q postgres.DBTX, userID uuid.UUID) error {
	for _, m := range Materials {
		if _, err := q.Exec(ctx, `
			INSERT INTO user_trash (user_id, material, count)
			VALUES ($1, $2, 0)
			ON CONFLICT (user_id, material) DO NOTHING
		`, userID, string(m)); err != nil {
			return postgres.WrapError(err, "ошибка создания счётчиков переработки")
		}
	}
	return nil
}

// Increment увеличивает счётчик материала и возвращает новое значение.
func (r *Repository) Increment(ctx context.Context, q postgres.DBTX, userID uuid.UUID, m Material, count int) (int, error) {
	var n int
	err := q.QueryRow(ctx, `
		INSERT INTO user_trash (user_id, material, count)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, material) DO UPDATE
		SET count = user_trash.count + EXCLUDED.count
		RETURNING count
	`, userID, string(m), count).Scan(&n)
	if err != nil {
		return 0, postgres.WrapError(err, "ошибка увеличения счётчика")
	}
	return n, nil
}

// Stats возвращает счётчики пользователя.
func (r *Repository) Stats(ctx context.Context, q postgres.DBTX, userID uuid.UUID) (Stats, error) {
	rows, err := q.Query(ctx, `SELECT material, count FROM user_trash WHERE user_id = $1`, userID)
	if err != nil {
		return nil, postgres.WrapError(err, "ошибка получения счётчиков")
	}
	defer rows.Close()

	stats := Stats{}
	for rows.Next() {
		var (
			m string
			n int
		)
		if err := rows.Scan(&m, &n); err != nil {
			return nil, fmt.Errorf("ошибка сканирования счётчика: %w", err)
		}
		stats[Material(m)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.WrapError(err, "ошибка чтения счётчиков")
	}
	return stats.Filled(), nil
}

// Delete удаляет счётчики пользователя.
func (r *Repository) Delete(ctx context.Context, q postgres.DBTX, userID uuid.UUID) error {
	if _, err := q.Exec(ctx, `DELETE FROM user_trash WHERE user_id = $1`, userID); err != nil {
		return postgres.WrapError(err, "ошибка удаления счётчиков")
	}
	return nil
}

// EnsureDay создаёт строку дневной сводки, если её ещё нет.
func (r *Repository) EnsureDay(ctx context.Context, q postgres.DBTX, date time.Time) error {
	_, err := q.Exec(ctx, `INSERT INTO daily_trash (date) VALUES ($1) ON CONFLICT (date) DO NOTHING`, date)
	if err != nil {
		return postgres.WrapError(err, "ошибка создания дневной сводки")
	}
	return nil
}

// AddDaily добавляет count материала m в сводку за date
// и отмечает пользователя активным в этот день.
func (r *Repository) AddDaily(ctx context.Context, q postgres.DBTX, date time.Time, userID uuid.UUID, m Material, count int) error {
	if err := r.EnsureDay(ctx, q, date); err != nil {
		return err
	}

	// Имя колонки = материал; список закрыт, но всё равно экранируем
	col := pgx.Identifier{string(m)}.Sanitize()
	query := fmt.Sprintf(`
		UPDATE daily_trash
		SET %s = %s + $2, total = total + $2, updated_at = NOW()
		WHERE date = $1
	`, col, col)
	if _, err := q.Exec(ctx, query, date, count); err != nil {
		return postgres.WrapError(err, "ошибка обновления дневной сводки")
	}

	tag, err := q.Exec(ctx, `
		INSERT INTO daily_trash_users (date, user_id) VALUES ($1, $2)
		ON CONFLICT (date, user_id) DO NOTHING
	`, date, userID)
	if err != nil {
		return postgres.WrapError(err, "ошибка отметки активного пользователя")
	}
	if tag.RowsAffected() == 1 {
		if _, err := q.Exec(ctx, `UPDATE daily_trash SET active_users = active_users + 1 WHERE date = $1`, date); err != nil {
			return postgres.WrapError(err, "ошибка обновления активных пользователей")
		}
	}
	return nil
}

// IncrementRegistered увеличивает new_registered за date.
func (r *Repository) IncrementRegistered(ctx context.Context, q postgres.DBTX, date time.Time) error {
	if err := r.EnsureDay(ctx, q, date); err != nil {
		return err
	}
	_, err := q.Exec(ctx, `
		UPDATE daily_trash SET new_registered = new_registered + 1, updated_at = NOW()
		WHERE date = $1
	`, date)
	if err != nil {
		return postgres.WrapError(err, "ошибка обновления регистраций")
	}
	return nil
}

// ListDaily возвращает все дневные сводки по возрастанию даты.
func (r *Repository) ListDaily(ctx context.Context, q postgres.DBTX) ([]DailyTrash, error) {
	rows, err := q.Query(ctx, `
		SELECT date, plastic, paper, cans, bottles, containers, total, active_users, new_registered
		FROM daily_trash
		ORDER BY date
	`)
	if err != nil {
		return nil, postgres.WrapError(err, "ошибка получения дневных сводок")
	}
	defer rows.Close()

	var days []DailyTrash
	for rows.Next() {
		var (
			d                                         DailyTrash
			plastic, paper, cans, bottles, containers int
		)
		if err := rows.Scan(&d.Date, &plastic, &paper, &cans, &bottles, &containers,
			&d.Total, &d.ActiveUsers, &d.NewRegistered); err != nil {
			return nil, fmt.Errorf("ошибка сканирования сводки: %w", err)
		}
		d.DateStr = d.Date.Format("2006-01-02")
		d.Counts = Stats{
			Plastic: plastic, Paper: paper, Cans: cans, Bottles: bottles, Containers: containers,
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.WrapError(err, "ошибка чтения сводок")
	}
	return days, nil
}
