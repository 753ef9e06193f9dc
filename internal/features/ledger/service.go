// Package ledger — service.go содержит бизнес-логику кошелька:
// валидация сумм, начисления и списания в транзакциях вызывающего, история.
package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/ecoquest/internal/common"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// Service управляет валютой пользователей.
type Service struct {
	db   *pgxpool.Pool
	repo *Repository
}

// NewService создаёт новый сервис кошелька.
func NewService(db *pgxpool.Pool, repo *Repository) *Service {
	return &Service{db: db, repo: repo}
}

// CreditTx начисляет внутри транзакции вызывающего.
// Используется наградами прогресса и чек-ином: деньги и состояние,
// за которое они платятся, фиксируются вместе.
func (s *Service) CreditTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64, kind, description string) (int64, error) {
	if amount <= 0 {
		return 0, common.ErrInvalidAmount
	}
	return s.repo.Credit(ctx, tx, userID, amount, kind, description)
}

// DebitTx списывает внутри транзакции вызывающего (оплата покупок).
// Строка пользователя уже должна быть заблокирована.
func (s *Service) DebitTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64, kind, description string) (int64, error) {
	if amount <= 0 {
		return 0, common.ErrInvalidAmount
	}
	return s.repo.Debit(ctx, tx, userID, amount, kind, description)
}

// Balance возвращает текущий баланс.
func (s *Service) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.Balance(ctx, s.db, userID)
}

// History возвращает последние движения. limit вне (0, 100] заменяется на 20.
func (s *Service) History(ctx context.Context, userID uuid.UUID, limit int) ([]Entry, error) {
	if limit <= 0 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}
	return s.repo.History(ctx, s.db, userID, limit)
}

// DeleteHistory удаляет историю пользователя (при удалении аккаунта).
func (s *Service) DeleteHistory(ctx context.Context, userID uuid.UUID) error {
	return s.repo.DeleteHistory(ctx, s.db, userID)
}
