// Package trash — service.go содержит бизнес-логику учёта переработки.
package trash

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/ecoquest/internal/common"
	"serotonyl.ru/ecoquest/internal/db/postgres"
)

// Service управляет счётчиками переработки и дневной сводкой.
type Service struct {
	db           *pgxpool.Pool
	repo         *Repository
	dailyEnabled bool // FEATURE_DAILY_TRASH_ENABLED
}

// NewService создаёт сервис переработки.
func NewService(db *pgxpool.Pool, repo *Repository, dailyEnabled bool) *Service {
	return &Service{db: db, repo: repo, dailyEnabled: dailyEnabled}
}

// ValidateContribution проверяет материал и количество.
func ValidateContribution(material string, count int) (Material, error) {
	m, err := ParseMaterial(material)
	if err != nil {
		return "", err
	}
	if count <= 0 {
		return "", common.ErrInvalidCount
	}
	return m, nil
}

// InitTx создаёт нулевые счётчики внутри транзакции регистрации.
func (s *Service) InitTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	return s.repo.Init(ctx, tx, userID)
}

// AddTrash увеличивает счётчик material на count и возвращает все счётчики.
// Дневная сводка обновляется после фиксации, её ошибка только логируется.
func (s *Service) AddTrash(ctx context.Context, userID uuid.UUID, material string, count int) (Stats, error) {
	m, err := ValidateContribution(material, count)
	if err != nil {
		return nil, err
	}

	var stats Stats
	err = postgres.InTx(ctx, s.db, func(tx pgx.Tx) error {
		if err := postgres.LockUser(ctx, tx, userID); err != nil {
			return err
		}
		if _, err := s.repo.Increment(ctx, tx, userID, m, count); err != nil {
			return err
		}
		var err error
		stats, err = s.repo.Stats(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id":  userID,
		"material": m,
		"count":    count,
	}).Info("Переработка учтена")

	if s.dailyEnabled {
		if err := s.repo.AddDaily(ctx, s.db, common.Today(), userID, m, count); err != nil {
			log.WithError(err).WithField("user_id", userID).Warn("Не удалось обновить дневную сводку")
		}
	}
	return stats, nil
}

// Stats возвращает счётчики пользователя.
func (s *Service) Stats(ctx context.Context, userID uuid.UUID) (Stats, error) {
	return s.repo.Stats(ctx, s.db, userID)
}

// StatsTx — то же внутри транзакции (проверка требований покупки).
func (s *Service) StatsTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (Stats, error) {
	return s.repo.Stats(ctx, tx, userID)
}

// TotalTx — сумма счётчиков внутри транзакции (условие открытия главы).
func (s *Service) TotalTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int, error) {
	stats, err := s.repo.Stats(ctx, tx, userID)
	if err != nil {
		return 0, err
	}
	return stats.Total(), nil
}

// DeleteUserData удаляет счётчики пользователя.
func (s *Service) DeleteUserData(ctx context.Context, userID uuid.UUID) error {
	return s.repo.Delete(ctx, s.db, userID)
}

// EnsureToday создаёт сводку за сегодня. Вызывается cron-задачей в полночь.
func (s *Service) EnsureToday(ctx context.Context) error {
	if !s.dailyEnabled {
		return nil
	}
	today := common.Today()
	if err := s.repo.EnsureDay(ctx, s.db, today); err != nil {
		return err
	}
	log.WithField("date", common.FormatDate(today)).Info("Дневная сводка переработки готова")
	return nil
}

// RecordRegistration учитывает нового пользователя в сегодняшней сводке.
func (s *Service) RecordRegistration(ctx context.Context) error {
	if !s.dailyEnabled {
		return nil
	}
	return s.repo.IncrementRegistered(ctx, s.db, common.Today())
}

// DailySummary возвращает все дни и итоги.
func (s *Service) DailySummary(ctx context.Context) (*Summary, error) {
	days, err := s.repo.ListDaily(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return summarize(days), nil
}
