package quiz

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/ecoquest/internal/db/postgres"
	"serotonyl.ru/ecoquest/internal/features/trash"
)

// Service учитывает ответы на вопросы.
type Service struct {
	db   *pgxpool.Pool
	repo *Repository
}

func NewService(db *pgxpool.Pool, repo *Repository) *Service {
	return &Service{db: db, repo: repo}
}

// InitTx создаёт нулевую статистику внутри транзакции регистрации.
func (s *Service) InitTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	return s.repo.Init(ctx, tx, userID)
}

// RecordAnswer учитывает один ответ: total+1, при верном ещё correct+1.
func (s *Service) RecordAnswer(ctx context.Context, userID uuid.UUID, material string, correct bool) (Stat, error) {
	m, err := trash.ParseMaterial(material)
	if err != nil {
		return Stat{}, err
	}

	var st Stat
	err = postgres.InTx(ctx, s.db, func(tx pgx.Tx) error {
		if err := postgres.LockUser(ctx, tx, userID); err != nil {
			return err
		}
		st, err = s.repo.Increment(ctx, tx, userID, m, correct)
		return err
	})
	if err != nil {
		return Stat{}, err
	}

	log.WithFields(log.Fields{
		"user_id":  userID,
		"material": m,
		"correct":  correct,
	}).Debug("Ответ на вопрос учтён")
	return st, nil
}

// Stats возвращает статистику пользователя по всем материалам.
func (s *Service) Stats(ctx context.Context, userID uuid.UUID) (Stats, error) {
	return s.repo.Get(ctx, s.db, userID)
}

// DeleteUserData удаляет статистику пользователя.
func (s *Service) DeleteUserData(ctx context.Context, userID uuid.UUID) error {
	return s.repo.Delete(ctx, s.db, userID)
}
