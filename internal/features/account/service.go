// Package account связывает функции пользователя между собой:
// регистрация создаёт все документы игрока одной транзакцией,
// удаление админом чистит их по очереди и сообщает о сбоях.
package account

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/ecoquest/internal/common"
	"serotonyl.ru/ecoquest/internal/db/postgres"
	"serotonyl.ru/ecoquest/internal/features/quiz"
	"serotonyl.ru/ecoquest/internal/features/trash"
	"serotonyl.ru/ecoquest/internal/features/users"
)

const minPasswordLength = 6

var validate = validator.New()

// RegisterInput — данные регистрации.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     string // пусто — обычный пользователь
}

// Profile — пользователь вместе со статистикой переработки и вопросов.
type Profile struct {
	*users.User
	Trash     trash.Stats `json:"trash_stats"`
	Questions quiz.Stats  `json:"question_stats"`
}

// DeleteReport — итог удаления пользователя.
// Failed перечисляет данные, которые не удалось очистить.
type DeleteReport struct {
	UserID uuid.UUID `json:"user_id"`
	Failed []string  `json:"failed"`
}

// userStore — учётные записи.
type userStore interface {
	Exists(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error)
	CreateTx(ctx context.Context, tx pgx.Tx, u *users.User) error
	Get(ctx context.Context, id uuid.UUID) (*users.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// initializer создаёт документ игрока в транзакции регистрации.
type initializer interface {
	InitTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error
}

// userDocument — документ игрока, который создаётся при регистрации
// и удаляется вместе с пользователем.
type userDocument interface {
	initializer
	DeleteUserData(ctx context.Context, userID uuid.UUID) error
}

type trashTracker interface {
	userDocument
	Stats(ctx context.Context, userID uuid.UUID) (trash.Stats, error)
	RecordRegistration(ctx context.Context) error
}

type quizTracker interface {
	userDocument
	Stats(ctx context.Context, userID uuid.UUID) (quiz.Stats, error)
}

type historyCleaner interface {
	DeleteHistory(ctx context.Context, userID uuid.UUID) error
}

// Service — регистрация, профиль и удаление пользователей.
type Service struct {
	db          *pgxpool.Pool
	users       userStore
	wallet      historyCleaner
	trash       trashTracker
	quiz        quizTracker
	purchases   userDocument
	progression userDocument
}

func NewService(
	db *pgxpool.Pool,
	users userStore,
	wallet historyCleaner,
	trash trashTracker,
	quiz quizTracker,
	purchases userDocument,
	progression userDocument,
) *Service {
	return &Service{
		db:          db,
		users:       users,
		wallet:      wallet,
		trash:       trash,
		quiz:        quiz,
		purchases:   purchases,
		progression: progression,
	}
}

// ValidateRegistration нормализует и проверяет данные регистрации.
func ValidateRegistration(in RegisterInput) (RegisterInput, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if l := len([]rune(in.Username)); l < 2 || l > 64 {
		return in, common.InvalidArgument("使用者名稱長度必須介於 2 與 64 之間")
	}
	if err := validate.Var(in.Email, "required,email,max=255"); err != nil {
		return in, common.InvalidArgument("電子郵件格式錯誤")
	}
	if len(in.Password) < minPasswordLength {
		return in, common.InvalidArgument(fmt.Sprintf("密碼長度至少 %d 個字元", minPasswordLength))
	}
	if in.Role == "" {
		in.Role = common.RoleUser
	}
	if !common.ValidRole(in.Role) {
		return in, common.InvalidArgument("無效的使用者角色")
	}
	return in, nil
}

// Register создаёт пользователя и все его документы в одной транзакции:
// счётчики переработки, статистику вопросов, покупки, прогресс.
// Если любой шаг падает, откатывается всё, включая самого пользователя.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*users.User, error) {
	in, err := ValidateRegistration(in)
	if err != nil {
		return nil, err
	}

	// Быстрый отказ до дорогого хеширования. Гонку закрывают уникальные индексы.
	usernameTaken, emailTaken, err := s.users.Exists(ctx, in.Username, in.Email)
	if err != nil {
		return nil, err
	}
	if usernameTaken {
		return nil, common.ErrUsernameTaken
	}
	if emailTaken {
		return nil, common.ErrEmailTaken
	}

	hash, err := users.HashPassword(in.Password)
	if err != nil {
		return nil, common.Wrap(common.KindInternal, common.MsgInternal, err)
	}

	u := &users.User{
		ID:           uuid.New(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
	}

	documents := []initializer{s.trash, s.quiz, s.purchases, s.progression}
	err = postgres.InTx(ctx, s.db, func(tx pgx.Tx) error {
		if err := s.users.CreateTx(ctx, tx, u); err != nil {
			return err
		}
		for _, d := range documents {
			if err := d.InitTx(ctx, tx, u.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id":  u.ID,
		"username": u.Username,
		"role":     u.Role,
	}).Info("Пользователь зарегистрирован")

	if err := s.trash.RecordRegistration(ctx); err != nil {
		log.WithError(err).WithField("user_id", u.ID).Warn("Не удалось учесть регистрацию в дневной сводке")
	}
	return u, nil
}

// Profile возвращает пользователя со статистикой.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats, err := s.trash.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}
	questions, err := s.quiz.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: u, Trash: stats.Filled(), Questions: questions}, nil
}

// DeleteUser удаляет данные пользователя по очереди, не останавливаясь
// на сбоях, и затем саму учётную запись. Успех определяется только
// удалением учётной записи; несработавшие шаги попадают в отчёт.
func (s *Service) DeleteUser(ctx context.Context, userID uuid.UUID) (*DeleteReport, error) {
	steps := []struct {
		name string
		run  func(context.Context, uuid.UUID) error
	}{
		{"purchase", s.purchases.DeleteUserData},
		{"user_level", s.progression.DeleteUserData},
		{"trash", s.trash.DeleteUserData},
		{"question_stats", s.quiz.DeleteUserData},
		{"ledger", s.wallet.DeleteHistory},
	}

	report := &DeleteReport{UserID: userID, Failed: []string{}}
	for _, step := range steps {
		if err := step.run(ctx, userID); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"user_id": userID,
				"step":    step.name,
			}).Warn("Не удалось удалить данные пользователя")
			report.Failed = append(report.Failed, step.name)
		}
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return report, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"failed":  report.Failed,
	}).Info("Пользователь удалён")
	return report, nil
}
