// Package users — service.go: чтение пользователя, ручные операции
// с валютой и ежедневный чек-ин.
package users

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/ecoquest/internal/common"
	"serotonyl.ru/ecoquest/internal/db/postgres"
	"serotonyl.ru/ecoquest/internal/features/ledger"
)

// walletTx — движения валюты внутри транзакции вызывающего.
type walletTx interface {
	CreditTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64, kind, description string) (int64, error)
	DebitTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64, kind, description string) (int64, error)
}

// Service управляет пользователями.
type Service struct {
	db            *pgxpool.Pool
	repo          *Repository
	wallet        walletTx
	checkInReward int64 // REWARD_DAILY_CHECK_IN
}

func NewService(db *pgxpool.Pool, repo *Repository, wallet walletTx, checkInReward int64) *Service {
	return &Service{db: db, repo: repo, wallet: wallet, checkInReward: checkInReward}
}

// CreateTx создаёт пользователя в транзакции регистрации.
func (s *Service) CreateTx(ctx context.Context, tx pgx.Tx, u *User) error {
	return s.repo.Create(ctx, tx, u)
}

// Exists проверяет, заняты ли имя и email.
func (s *Service) Exists(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error) {
	if usernameTaken, err = s.repo.UsernameExists(ctx, s.db, username); err != nil {
		return false, false, err
	}
	if emailTaken, err = s.repo.EmailExists(ctx, s.db, email); err != nil {
		return false, false, err
	}
	return usernameTaken, emailTaken, nil
}

// Get возвращает пользователя.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, s.db, id)
}

// Delete удаляет учётную запись.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, s.db, id)
}

// AddMoney начисляет amount и возвращает пользователя с новым балансом.
func (s *Service) AddMoney(ctx context.Context, userID uuid.UUID, amount int64) (*User, error) {
	return s.moveMoney(ctx, userID, amount, s.wallet.CreditTx, ledger.KindManualAdd, "手動加值")
}

// SubtractMoney списывает amount. Если средств меньше amount — ErrInsufficientBalance,
// баланс не меняется.
func (s *Service) SubtractMoney(ctx context.Context, userID uuid.UUID, amount int64) (*User, error) {
	return s.moveMoney(ctx, userID, amount, s.wallet.DebitTx, ledger.KindManualSubtract, "手動扣款")
}

type moneyOp func(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64, kind, description string) (int64, error)

// moveMoney проводит движение и читает пользователя в той же транзакции
// под блокировкой его строки.
func (s *Service) moveMoney(ctx context.Context, userID uuid.UUID, amount int64, op moneyOp, kind, description string) (*User, error) {
	if amount <= 0 {
		return nil, common.ErrInvalidAmount
	}

	var u *User
	err := postgres.InTx(ctx, s.db, func(tx pgx.Tx) error {
		if err := postgres.LockUser(ctx, tx, userID); err != nil {
			return err
		}
		if _, err := op(ctx, tx, userID, amount, kind, description); err != nil {
			return err
		}
		var err error
		u, err = s.repo.GetByID(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"kind":    kind,
		"amount":  amount,
		"balance": u.Money,
	}).Info("Баланс изменён вручную")
	return u, nil
}

// CheckIn отмечает пользователя сегодня и начисляет награду.
// Второй чек-ин в тот же календарный день — ErrAlreadyCheckedIn.
func (s *Service) CheckIn(ctx context.Context, userID uuid.UUID) (*CheckInStatus, error) {
	now := common.Now()
	var balance int64

	err := postgres.InTx(ctx, s.db, func(tx pgx.Tx) error {
		if err := postgres.LockUser(ctx, tx, userID); err != nil {
			return err
		}
		last, err := s.repo.LastCheckIn(ctx, tx, userID)
		if err != nil {
			return err
		}
		if last != nil && common.SameDay(*last, now) {
			return common.ErrAlreadyCheckedIn
		}
		if err := s.repo.SetLastCheckIn(ctx, tx, userID, now); err != nil {
			return err
		}
		if s.checkInReward <= 0 {
			return nil
		}
		balance, err = s.wallet.CreditTx(ctx, tx, userID, s.checkInReward, ledger.KindDailyCheckIn, "每日簽到獎勵")
		return err
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"reward":  s.checkInReward,
	}).Info("Чек-ин выполнен")

	return &CheckInStatus{CheckedIn: true, LastCheckIn: &now, Reward: s.checkInReward, Money: balance}, nil
}

// CheckInStatus сообщает, отмечался ли пользователь сегодня.
func (s *Service) CheckInStatus(ctx context.Context, userID uuid.UUID) (*CheckInStatus, error) {
	last, err := s.repo.LastCheckIn(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	return &CheckInStatus{
		CheckedIn:   last != nil && common.SameDay(*last, common.Now()),
		LastCheckIn: last,
		Reward:      s.checkInReward,
	}, nil
}
