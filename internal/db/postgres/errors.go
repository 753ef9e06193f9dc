package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"serotonyl.ru/ecoquest/internal/common"
)

// Коды ошибок PostgreSQL, которые мы различаем.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeQueryCanceled       = "57014"
	codeLockNotAvailable    = "55P03"
	codeDeadlockDetected    = "40P01"
	codeSerialization       = "40001"
)

// WrapError переводит ошибку драйвера в таксономию common.
// msg — контекст для логов ("ошибка получения пользователя").
//
//   - нет строк → NotFound
//   - unique violation → Conflict
//   - check / foreign key violation → InvalidArgument
//   - таймауты, отмена, дедлоки, обрыв соединения → Unavailable
//   - остальное → Internal
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	// Уже классифицированную ошибку не трогаем
	var ce *common.Error
	if errors.As(err, &ce) {
		return err
	}

	if isNoRows(err) {
		return common.Wrap(common.KindNotFound, "資料不存在", fmt.Errorf("%s: %w", msg, err))
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return common.Wrap(common.KindConflict, "資料已存在", fmt.Errorf("%s: %w", msg, err))
		case codeCheckViolation, codeForeignKeyViolation:
			return common.Wrap(common.KindInvalidArgument, "資料不符合限制條件", fmt.Errorf("%s: %w", msg, err))
		case codeQueryCanceled, codeLockNotAvailable, codeDeadlockDetected, codeSerialization:
			return common.Wrap(common.KindUnavailable, common.MsgUnavailable, fmt.Errorf("%s: %w", msg, err))
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || pgconn.Timeout(err) {
		return common.Wrap(common.KindUnavailable, common.MsgUnavailable, fmt.Errorf("%s: %w", msg, err))
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return common.Wrap(common.KindUnavailable, common.MsgUnavailable, fmt.Errorf("%s: %w", msg, err))
	}

	return common.Wrap(common.KindInternal, common.MsgInternal, fmt.Errorf("%s: %w", msg, err))
}

// IsUniqueViolation сообщает, нарушен ли уникальный индекс constraint
// (пустой constraint — любой уникальный индекс).
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != codeUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
