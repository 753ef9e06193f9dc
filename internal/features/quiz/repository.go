package quiz

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"serotonyl.ru/ecoquest/internal/db/postgres"
	"serotonyl.ru/ecoquest/internal/features/trash"
)

// Repository работает с таблицей question_stats.
type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

// Init создаёт нулевые строки по всем материалам. Повторный вызов ничего не меняет.
func (r *Repository) Init(ctx context.Context, q postgres.DBTX, userID uuid.UUID) error {
	for _, m := range trash.Materials {
		if _, err := q.Exec(ctx, `
			INSERT INTO question_stats (user_id, material) VALUES ($1, $2)
			ON CONFLICT (user_id, material) DO NOTHING
		`, userID, string(m)); err != nil {
			return postgres.WrapError(err, "ошибка создания статистики вопросов")
		}
	}
	return nil
}

// Increment добавляет ответ и возвращает новые счётчики материала.
func (r *Repository) Increment(ctx context.Context, q postgres.DBTX, userID uuid.UUID, m trash.Material, correct bool) (Stat, error) {
	inc := 0
	if correct {
		inc = 1
	}
	var st Stat
	err := q.QueryRow(ctx, `
		INSERT INTO question_stats (user_id, material, total, correct)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (user_id, material) DO UPDATE
		SET total = question_stats.total + 1, correct = question_stats.correct + EXCLUDED.correct
		RETURNING total, correct
	`, userID, string(m), inc).Scan(&st.Total, &st.Correct)
	if err != nil {
		return Stat{}, postgres.WrapError(err, "ошибка записи ответа")
	}
	return st, nil
}

// Get возвращает статистику, материалы без строк — нули.
func (r *Repository) Get(ctx context.Context, q postgres.DBTX, userID uuid.UUID) (Stats, error) {
	rows, err := q.Query(ctx, `SELECT material, total, correct FROM question_stats WHERE user_id = $1`, userID)
	if err != nil {
		return nil, postgres.WrapError(err, "ошибка получения статистики вопросов")
	}
	defer rows.Close()

	stats := emptyStats()
	for rows.Next() {
		var (
			m  string
			st Stat
		)
		if err := rows.Scan(&m, &st.Total, &st.Correct); err != nil {
			return nil, fmt.Errorf("ошибка сканирования статистики: %w", err)
		}
		stats[trash.Material(m)] = st
	}
	return stats, postgres.WrapError(rows.Err(), "ошибка чтения статистики вопросов")
}

func (r *Repository) Delete(ctx context.Context, q postgres.DBTX, userID uuid.UUID) error {
	if _, err := q.Exec(ctx, `DELETE FROM question_stats WHERE user_id = $1`, userID); err != nil {
		return postgres.WrapError(err, "ошибка удаления статистики вопросов")
	}
	return nil
}
