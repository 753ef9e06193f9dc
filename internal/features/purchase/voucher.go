// Package purchase — voucher.go: обмен валюты на ваучеры.
package purchase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/ecoquest/internal/common"
	"serotonyl.ru/ecoquest/internal/db/postgres"
	"serotonyl.ru/ecoquest/internal/features/ledger"
)

const (
	// MaxVoucherCount — сколько ваучеров можно взять за один обмен.
	MaxVoucherCount = 100
	// VoucherLifetime — срок действия выпущенного ваучера.
	VoucherLifetime = 90 * 24 * time.Hour

	VoucherActive = "active"
)

// VoucherType — вид ваучера с ценой и остатком.
type VoucherType struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	Quantity    int       `json:"quantity"`
	CreatedAt   time.Time `json:"created_at"`
}

// VoucherTypeInput — данные для создания вида ваучера.
type VoucherTypeInput struct {
	Name        string `json:"name" binding:"required,max=128"`
	Description string `json:"description"`
	Price       int64  `json:"price" binding:"gte=0"`
	Quantity    int    `json:"quantity" binding:"gte=0"`
}

// Voucher — выпущенный ваучер пользователя.
type Voucher struct {
	ID        uuid.UUID `json:"id"`
	TypeID    uuid.UUID `json:"voucher_type_id"`
	TypeName  string    `json:"name"`
	Code      string    `json:"code"`
	Status    string    `json:"status"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Redemption — итог обмена.
type Redemption struct {
	TypeID   uuid.UUID `json:"voucher_type_id"`
	Name     string    `json:"name"`
	Count    int       `json:"count"`
	Cost     int64     `json:"cost"`
	Balance  int64     `json:"balance"`
	Vouchers []Voucher `json:"vouchers"`
}

// VoucherTypeDeletion — что унесло удаление вида ваучера.
type VoucherTypeDeletion struct {
	DeletedVouchers int `json:"deleted_vouchers"`
	AffectedUsers   int `json:"affected_users"`
}

// ValidateVoucherType проверяет вид ваучера до записи в БД.
func ValidateVoucherType(in VoucherTypeInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return common.InvalidArgument("票券名稱不可為空")
	}
	if in.Price < 0 {
		return common.InvalidArgument("票券價格不可為負數")
	}
	if in.Quantity < 0 {
		return common.InvalidArgument("票券數量不可為負數")
	}
	return nil
}

// voucherWallet — списание за ваучеры и чтение баланса.
type voucherWallet interface {
	debiter
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)
}

// VoucherService выпускает ваучеры за валюту.
type VoucherService struct {
	db     *pgxpool.Pool
	repo   *VoucherRepository
	record *Repository
	wallet voucherWallet
	now    func() time.Time
}

func NewVoucherService(db *pgxpool.Pool, repo *VoucherRepository, record *Repository, wallet voucherWallet) *VoucherService {
	return &VoucherService{db: db, repo: repo, record: record, wallet: wallet, now: time.Now}
}

// CreateVoucherType добавляет вид ваучера.
func (s *VoucherService) CreateVoucherType(ctx context.Context, in VoucherTypeInput) (*VoucherType, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := ValidateVoucherType(in); err != nil {
		return nil, err
	}
	vt := &VoucherType{
		ID:          uuid.New(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Quantity:    in.Quantity,
	}
	if err := s.repo.CreateType(ctx, s.db, vt); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"voucher_type_id": vt.ID, "name": vt.Name}).Info("Вид ваучера создан")
	return vt, nil
}

func (s *VoucherService) ListVoucherTypes(ctx context.Context) ([]VoucherType, error) {
	return s.repo.ListTypes(ctx, s.db)
}

// DeleteVoucherType удаляет вид ваучера и все его выпущенные ваучеры.
func (s *VoucherService) DeleteVoucherType(ctx context.Context, id uuid.UUID) (*VoucherTypeDeletion, error) {
	var res *VoucherTypeDeletion
	err := postgres.InTx(ctx, s.db, func(tx pgx.Tx) error {
		var err error
		res, err = s.repo.DeleteType(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"voucher_type_id":  id,
		"deleted_vouchers": res.DeletedVouchers,
		"affected_users":   res.AffectedUsers,
	}).Info("Вид ваучера удалён")
	return res, nil
}

// RedeemVoucher меняет price*count валюты на count ваучеров вида typeID.
//
// Под блокировкой пользователя и строки вида ваучера проверяются остаток
// и баланс, списывается валюта, уменьшается остаток, выпускаются ваучеры.
// Любая ошибка откатывает всё.
func (s *VoucherService) RedeemVoucher(ctx context.Context, userID, typeID uuid.UUID, count int) (*Redemption, error) {
	if count < 1 || count > MaxVoucherCount {
		return nil, common.ErrInvalidVoucherCount
	}

	res := &Redemption{TypeID: typeID, Count: count, Vouchers: make([]Voucher, 0, count)}
	err := postgres.InTx(ctx, s.db, func(tx pgx.Tx) error {
		if err := postgres.LockUser(ctx, tx, userID); err != nil {
			return err
		}
		if err := s.record.Exists(ctx, tx, userID); err != nil {
			return err
		}

		vt, err := s.repo.LockType(ctx, tx, typeID)
		if err != nil {
			return err
		}
		if vt.Quantity < count {
			return common.ErrVoucherOutOfStock
		}
		res.Name = vt.Name
		res.Cost = vt.Price * int64(count)

		if res.Cost > 0 {
			balance, err := s.wallet.DebitTx(ctx, tx, userID, res.Cost, ledger.KindVoucherRedeem,
				fmt.Sprintf("兌換票券: %s x %d", vt.Name, count))
			if err != nil {
				return err
			}
			res.Balance = balance
		}

		if err := s.repo.TakeStock(ctx, tx, typeID, count); err != nil {
			return err
		}
		now := s.now().UTC()
		for i := 0; i < count; i++ {
			v, err := s.repo.Issue(ctx, tx, userID, vt, now)
			if err != nil {
				return err
			}
			res.Vouchers = append(res.Vouchers, *v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if res.Cost == 0 {
		if res.Balance, err = s.wallet.Balance(ctx, userID); err != nil {
			return nil, err
		}
	}

	log.WithFields(log.Fields{
		"user_id":         userID,
		"voucher_type_id": typeID,
		"count":           count,
		"cost":            res.Cost,
	}).Info("Ваучеры выданы")
	return res, nil
}

// UserVouchers возвращает ваучеры пользователя.
func (s *VoucherService) UserVouchers(ctx context.Context, userID uuid.UUID) ([]Voucher, error) {
	return s.repo.ListByUser(ctx, s.db, userID)
}
