// Package progression — service.go выполняет правила прогресса в транзакции:
// блокировка пользователя, чтение документа, правило, запись, награда.
package progression

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/ecoquest/internal/db/postgres"
	"serotonyl.ru/ecoquest/internal/features/catalog"
	"serotonyl.ru/ecoquest/internal/features/ledger"
)

// Rewards — размеры наград и бюджет переигровок.
type Rewards struct {
	LevelFullClear int64 // REWARD_LEVEL_FULL_CLEAR
	ReplayMax      int64 // REWARD_REPLAY_MAX
	ReplayBudget   int   // REPLAY_BUDGET
}

type chapterSource interface {
	ChapterBySequence(ctx context.Context, seq int) (*catalog.Chapter, error)
}

type trashCounter interface {
	TotalTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int, error)
}

type crediter interface {
	CreditTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64, kind, description string) (int64, error)
}

// Service управляет прогрессом пользователей.
type Service struct {
	db       *pgxpool.Pool
	repo     *Repository
	chapters chapterSource
	trash    trashCounter
	wallet   crediter
	rewards  Rewards
}

// NewService создаёт сервис прогресса.
//
// Параметры:
//   - chapters: каталог глав
//   - trash: счётчики переработки (условие открытия главы)
//   - wallet: начисление наград
//   - rewards: размеры наград из конфигурации
func NewService(db *pgxpool.Pool, repo *Repository, chapters chapterSource, trash trashCounter, wallet crediter, rewards Rewards) *Service {
	return &Service{
		db:       db,
		repo:     repo,
		chapters: chapters,
		trash:    trash,
		wallet:   wallet,
		rewards:  rewards,
	}
}

// InitTx создаёт начальный прогресс в транзакции регистрации.
func (s *Service) InitTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	return s.repo.Init(ctx, tx, NewUserLevel(userID))
}

// Get возвращает документ прогресса.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*UserLevel, error) {
	return s.repo.Get(ctx, s.db, userID)
}

// DeleteUserData удаляет прогресс пользователя.
func (s *Service) DeleteUserData(ctx context.Context, userID uuid.UUID) error {
	return s.repo.Delete(ctx, s.db, userID)
}

// mutate выполняет fn над документом пользователя под блокировкой
// и сохраняет результат, если fn вернул save=true.
func (s *Service) mutate(ctx context.Context, userID uuid.UUID, fn func(tx pgx.Tx, ul *UserLevel) (save bool, err error)) (*UserLevel, error) {
	var ul *UserLevel
	err := postgres.InTx(ctx, s.db, func(tx pgx.Tx) error {
		if err := postgres.LockUser(ctx, tx, userID); err != nil {
			return err
		}
		var err error
		if ul, err = s.repo.Get(ctx, tx, userID); err != nil {
			return err
		}
		save, err := fn(tx, ul)
		if err != nil {
			return err
		}
		if !save {
			return nil
		}
		return s.repo.Save(ctx, tx, ul)
	})
	if err != nil {
		return nil, err
	}
	return ul, nil
}

// UnlockChapter открывает главу seq.
func (s *Service) UnlockChapter(ctx context.Context, userID uuid.UUID, seq int) (*catalog.Chapter, error) {
	ch, err := s.chapters.ChapterBySequence(ctx, seq)
	if err != nil {
		return nil, err
	}

	_, err = s.mutate(ctx, userID, func(tx pgx.Tx, ul *UserLevel) (bool, error) {
		total, err := s.trash.TotalTx(ctx, tx, userID)
		if err != nil {
			return false, err
		}
		return true, ul.Unlock(ch, total)
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"user_id": userID, "chapter": seq}).Info("Глава открыта")
	return ch, nil
}

// CompleteChapter отмечает главу seq завершённой.
func (s *Service) CompleteChapter(ctx context.Context, userID uuid.UUID, seq int) (*catalog.Chapter, error) {
	ch, err := s.chapters.ChapterBySequence(ctx, seq)
	if err != nil {
		return nil, err
	}

	_, err = s.mutate(ctx, userID, func(_ pgx.Tx, ul *UserLevel) (bool, error) {
		return true, ul.Complete(ch, s.rewards.ReplayBudget)
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"user_id": userID, "chapter": seq}).Info("Глава завершена")
	return ch, nil
}

// UpdateLevelProgress записывает результат уровня и начисляет бонус
// за три звезды в той же транзакции.
func (s *Service) UpdateLevelProgress(ctx context.Context, userID uuid.UUID, seq, score, stars int) (*LevelResult, error) {
	var res LevelResult
	_, err := s.mutate(ctx, userID, func(tx pgx.Tx, ul *UserLevel) (bool, error) {
		var err error
		if res, err = ul.RecordLevel(seq, score, stars, s.rewards.LevelFullClear); err != nil {
			return false, err
		}
		if !res.Updated {
			return false, nil
		}
		if res.Reward > 0 {
			if _, err := s.wallet.CreditTx(ctx, tx, userID, res.Reward, ledger.KindLevelFullClear, "關卡三星獎勵"); err != nil {
				return false, err
			}
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	if res.Updated {
		log.WithFields(log.Fields{
			"user_id": userID,
			"level":   seq,
			"score":   score,
			"stars":   stars,
			"reward":  res.Reward,
		}).Info("Результат уровня записан")
	}
	return &res, nil
}

// ReplayCompletedChapter засчитывает переигровку завершённой главы
// и начисляет reward в той же транзакции.
func (s *Service) ReplayCompletedChapter(ctx context.Context, userID uuid.UUID, seq, score int, reward int64) (*ReplayResult, error) {
	if _, err := s.chapters.ChapterBySequence(ctx, seq); err != nil {
		return nil, err
	}

	var res ReplayResult
	_, err := s.mutate(ctx, userID, func(tx pgx.Tx, ul *UserLevel) (bool, error) {
		var err error
		if res, err = ul.Replay(seq, score, reward, s.rewards.ReplayMax); err != nil {
			return false, err
		}
		if res.Reward > 0 {
			if _, err := s.wallet.CreditTx(ctx, tx, userID, res.Reward, ledger.KindChapterReplay, "章節重玩獎勵"); err != nil {
				return false, err
			}
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id":   userID,
		"chapter":   seq,
		"remaining": res.Remaining,
		"reward":    res.Reward,
	}).Info("Переигровка главы засчитана")
	return &res, nil
}
