// Package users — repository.go работает с таблицей users.
package users

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"serotonyl.ru/ecoquest/internal/common"
	"serotonyl.ru/ecoquest/internal/db/postgres"
)

type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

const userColumns = `id, username, email, email_verified, password_hash, role, money, last_check_in, created_at, updated_at`

// Create вставляет пользователя. Занятые имя или email дают
// ErrUsernameTaken / ErrEmailTaken.
func (r *Repository) Create(ctx context.Context, q postgres.DBTX, u *User) error {
	err := q.QueryRow(ctx, `
		INSERT INTO users (id, username, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING money, created_at, updated_at
	`, u.ID, u.Username, u.Email, u.PasswordHash, u.Role).Scan(&u.Money, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		switch {
		case postgres.IsUniqueViolation(err, "users_username_key"):
			return common.ErrUsernameTaken
		case postgres.IsUniqueViolation(err, "users_email_key"):
			return common.ErrEmailTaken
		}
		return postgres.WrapError(err, "ошибка создания пользователя")
	}
	return nil
}

// GetByID: если не найден — common.ErrUserNotFound.
func (r *Repository) GetByID(ctx context.Context, q postgres.DBTX, id uuid.UUID) (*User, error) {
	var u User
	err := q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id).Scan(
		&u.ID, &u.Username, &u.Email, &u.EmailVerified, &u.PasswordHash,
		&u.Role, &u.Money, &u.LastCheckIn, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, postgres.WrapError(err, "ошибка получения пользователя")
	}
	return &u, nil
}

// UsernameExists и EmailExists — быстрые проверки до хеширования пароля.
func (r *Repository) UsernameExists(ctx context.Context, q postgres.DBTX, username string) (bool, error) {
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists); err != nil {
		return false, postgres.WrapError(err, "ошибка проверки имени")
	}
	return exists, nil
}

func (r *Repository) EmailExists(ctx context.Context, q postgres.DBTX, email string) (bool, error) {
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists); err != nil {
		return false, postgres.WrapError(err, "ошибка проверки email")
	}
	return exists, nil
}

// LastCheckIn возвращает время последнего чек-ина (nil — ни разу).
func (r *Repository) LastCheckIn(ctx context.Context, q postgres.DBTX, id uuid.UUID) (*time.Time, error) {
	var last *time.Time
	err := q.QueryRow(ctx, `SELECT last_check_in FROM users WHERE id = $1`, id).Scan(&last)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, postgres.WrapError(err, "ошибка получения чек-ина")
	}
	return last, nil
}

func (r *Repository) SetLastCheckIn(ctx context.Context, q postgres.DBTX, id uuid.UUID, at time.Time) error {
	_, err := q.Exec(ctx, `UPDATE users SET last_check_in = $2, updated_at = NOW() WHERE id = $1`, id, at)
	if err != nil {
		return postgres.WrapError(err, "ошибка записи чек-ина")
	}
	return nil
}

// Delete удаляет пользователя. Нет пользователя — ErrUserNotFound.
func (r *Repository) Delete(ctx context.Context, q postgres.DBTX, id uuid.UUID) error {
	tag, err := q.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return postgres.WrapError(err, "ошибка удаления пользователя")
	}
	if tag.RowsAffected() == 0 {
		return common.ErrUserNotFound
	}
	return nil
}
