package purchase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"serotonyl.ru/ecoquest/internal/common"
	"serotonyl.ru/ecoquest/internal/db/postgres"
)

// voucherCodeSpan — количество 16-значных кодов.
var voucherCodeSpan = big.NewInt(9_000_000_000_000_000)

const voucherCodeMin = 1_000_000_000_000_000

// VoucherRepository работает с таблицами voucher_types, vouchers и purchase_vouchers.
type VoucherRepository struct{}

func NewVoucherRepository() *VoucherRepository {
	return &VoucherRepository{}
}

// CreateType добавляет вид ваучера. Занятое имя — ErrVoucherTypeExists.
func (r *VoucherRepository) CreateType(ctx context.Context, q postgres.DBTX, vt *VoucherType) error {
	err := q.QueryRow(ctx, `
		INSERT INTO voucher_types (id, name, description, price, quantity)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, vt.ID, vt.Name, vt.Description, vt.Price, vt.Quantity).Scan(&vt.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err, "voucher_types_name_key") {
			return common.ErrVoucherTypeExists
		}
		return postgres.WrapError(err, "ошибка создания вида ваучера")
	}
	return nil
}

// ListTypes возвращает все виды ваучеров по имени.
func (r *VoucherRepository) ListTypes(ctx context.Context, q postgres.DBTX) ([]VoucherType, error) {
	rows, err := q.Query(ctx, `
		SELECT id, name, description, price, quantity, created_at
		FROM voucher_types
		ORDER BY name
	`)
	if err != nil {
		return nil, postgres.WrapError(err, "ошибка получения видов ваучеров")
	}
	defer rows.Close()

	types := []VoucherType{}
	for rows.Next() {
		var vt VoucherType
		if err := rows.Scan(&vt.ID, &vt.Name, &vt.Description, &vt.Price, &vt.Quantity, &vt.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования вида ваучера: %w", err)
		}
		types = append(types, vt)
	}
	return types, postgres.WrapError(rows.Err(), "ошибка чтения видов ваучеров")
}

// LockType читает вид ваучера под FOR UPDATE, чтобы остаток менялся по очереди.
func (r *VoucherRepository) LockType(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*VoucherType, error) {
	var vt VoucherType
	err := tx.QueryRow(ctx, `
		SELECT id, name, description, price, quantity, created_at
		FROM voucher_types WHERE id = $1
		FOR UPDATE
	`, id).Scan(&vt.ID, &vt.Name, &vt.Description, &vt.Price, &vt.Quantity, &vt.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrVoucherTypeNotFound
		}
		return nil, postgres.WrapError(err, "ошибка блокировки вида ваучера")
	}
	return &vt, nil
}

// TakeStock уменьшает остаток вида на count.
func (r *VoucherRepository) TakeStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, count int) error {
	if _, err := tx.Exec(ctx, `UPDATE voucher_types SET quantity = quantity - $2 WHERE id = $1`, id, count); err != nil {
		return postgres.WrapError(err, "ошибка списания остатка ваучеров")
	}
	return nil
}

// Issue выпускает ваучер с уникальным 16-значным кодом и кладёт его в покупки пользователя.
func (r *VoucherRepository) Issue(ctx context.Context, tx pgx.Tx, userID uuid.UUID, vt *VoucherType, now time.Time) (*Voucher, error) {
	v := &Voucher{
		ID:        uuid.New(),
		TypeID:    vt.ID,
		TypeName:  vt.Name,
		Status:    VoucherActive,
		IssuedAt:  now,
		ExpiresAt: now.Add(VoucherLifetime),
	}

	// ON CONFLICT не обрывает транзакцию, поэтому при совпадении кода просто пробуем снова
	for attempt := 0; ; attempt++ {
		if attempt == 5 {
			return nil, common.Wrap(common.KindInternal, common.MsgInternal, errors.New("не удалось подобрать уникальный код ваучера"))
		}
		code, err := newVoucherCode()
		if err != nil {
			return nil, common.Wrap(common.KindInternal, common.MsgInternal, err)
		}
		tag, err := tx.Exec(ctx, `
			INSERT INTO vouchers (id, voucher_type_id, code, status, issued_at, expires_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (code) DO NOTHING
		`, v.ID, v.TypeID, code, v.Status, v.IssuedAt, v.ExpiresAt)
		if err != nil {
			return nil, postgres.WrapError(err, "ошибка выпуска ваучера")
		}
		if tag.RowsAffected() == 1 {
			v.Code = code
			break
		}
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO purchase_vouchers (user_id, voucher_id) VALUES ($1, $2)
	`, userID, v.ID); err != nil {
		return nil, postgres.WrapError(err, "ошибка записи ваучера пользователю")
	}
	return v, nil
}

// ListByUser возвращает ваучеры пользователя, новые последними.
func (r *VoucherRepository) ListByUser(ctx context.Context, q postgres.DBTX, userID uuid.UUID) ([]Voucher, error) {
	rows, err := q.Query(ctx, `
		SELECT v.id, v.voucher_type_id, t.name, v.code, v.status, v.issued_at, v.expires_at
		FROM purchase_vouchers pv
		JOIN vouchers v ON v.id = pv.voucher_id
		JOIN voucher_types t ON t.id = v.voucher_type_id
		WHERE pv.user_id = $1
		ORDER BY v.issued_at, v.id
	`, userID)
	if err != nil {
		return nil, postgres.WrapError(err, "ошибка получения ваучеров пользователя")
	}
	defer rows.Close()

	list := []Voucher{}
	for rows.Next() {
		var v Voucher
		if err := rows.Scan(&v.ID, &v.TypeID, &v.TypeName, &v.Code, &v.Status, &v.IssuedAt, &v.ExpiresAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования ваучера: %w", err)
		}
		list = append(list, v)
	}
	return list, postgres.WrapError(rows.Err(), "ошибка чтения ваучеров пользователя")
}

// DeleteType удаляет вид ваучера вместе с выпущенными ваучерами
// и возвращает, сколько ваучеров и владельцев это затронуло.
func (r *VoucherRepository) DeleteType(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*VoucherTypeDeletion, error) {
	res := &VoucherTypeDeletion{}
	err := tx.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT pv.user_id)
		FROM vouchers v
		LEFT JOIN purchase_vouchers pv ON pv.voucher_id = v.id
		WHERE v.voucher_type_id = $1
	`, id).Scan(&res.DeletedVouchers, &res.AffectedUsers)
	if err != nil {
		return nil, postgres.WrapError(err, "ошибка подсчёта ваучеров")
	}

	tag, err := tx.Exec(ctx, `DELETE FROM voucher_types WHERE id = $1`, id)
	if err != nil {
		return nil, postgres.WrapError(err, "ошибка удаления вида ваучера")
	}
	if tag.RowsAffected() == 0 {
		return nil, common.ErrVoucherTypeNotFound
	}
	return res, nil
}

func newVoucherCode() (string, error) {
	n, err := rand.Int(rand.Reader, voucherCodeSpan)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+voucherCodeMin), nil
}
