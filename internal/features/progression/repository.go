// Package progression — repository.go работает с таблицей user_levels.
// Карты прогресса хранятся в JSONB, ключи хранятся строками.
package progression

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"serotonyl.ru/ecoquest/internal/common"
	"serotonyl.ru/ecoquest/internal/db/postgres"
)

var errProgressNotFound = common.NotFound("使用者關卡進度未初始化")

type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

// Init сохраняет начальный документ.
func (r *Repository) Init(ctx context.Context, q postgres.DBTX, ul *UserLevel) error {
	err := q.QueryRow(ctx, `
		INSERT INTO user_levels (user_id, highest_level, chapter_progress, level_progress, completed_chapter)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING updated_at
	`, ul.UserID, ul.HighestLevel, ul.Chapters, ul.Levels, ul.Completed).Scan(&ul.UpdatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err, "user_levels_pkey") {
			return common.Conflict("使用者關卡進度已存在")
		}
		return postgres.WrapError(err, "ошибка создания прогресса")
	}
	return nil
}

// Get читает документ. Нет документа — NotFound.
func (r *Repository) Get(ctx context.Context, q postgres.DBTX, userID uuid.UUID) (*UserLevel, error) {
	ul := &UserLevel{UserID: userID}
	err := q.QueryRow(ctx, `
		SELECT highest_level, chapter_progress, level_progress, completed_chapter, updated_at
		FROM user_levels WHERE user_id = $1
	`, userID).Scan(&ul.HighestLevel, &ul.Chapters, &ul.Levels, &ul.Completed, &ul.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errProgressNotFound
		}
		return nil, postgres.WrapError(err, "ошибка получения прогресса")
	}
	if ul.Chapters == nil {
		ul.Chapters = map[int]ChapterState{}
	}
	if ul.Levels == nil {
		ul.Levels = map[int]LevelState{}
	}
	if ul.Completed == nil {
		ul.Completed = map[int]CompletedChapter{}
	}
	return ul, nil
}

// Save перезаписывает документ целиком.
// Вызывается под блокировкой пользователя, поэтому гонки записи нет.
func (r *Repository) Save(ctx context.Context, q postgres.DBTX, ul *UserLevel) error {
	err := q.QueryRow(ctx, `
		UPDATE user_levels
		SET highest_level = $2, chapter_progress = $3, level_progress = $4,
		    completed_chapter = $5, updated_at = NOW()
		WHERE user_id = $1
		RETURNING updated_at
	`, ul.UserID, ul.HighestLevel, ul.Chapters, ul.Levels, ul.Completed).Scan(&ul.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errProgressNotFound
		}
		return postgres.WrapError(err, "ошибка сохранения прогресса")
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, q postgres.DBTX, userID uuid.UUID) error {
	if _, err := q.Exec(ctx, `DELETE FROM user_levels WHERE user_id = $1`, userID); err != nil {
		return postgres.WrapError(err, "ошибка удаления прогресса")
	}
	return nil
}
