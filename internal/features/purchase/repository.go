// Package purchase — repository.go работает с таблицами purchases,
// purchase_products и purchase_vouchers.
package purchase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"serotonyl.ru/ecoquest/internal/common"
	"serotonyl.ru/ecoquest/internal/db/postgres"
)

var errRecordNotFound = common.NotFound("購買紀錄不存在")

type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

// Init создаёт пустой документ покупок.
func (r *Repository) Init(ctx context.Context, q postgres.DBTX, userID uuid.UUID) error {
	_, err := q.Exec(ctx, `INSERT INTO purchases (user_id) VALUES ($1)`, userID)
	if err != nil {
		if postgres.IsUniqueViolation(err, "purchases_pkey") {
			return common.Conflict("購買紀錄已存在")
		}
		return postgres.WrapError(err, "ошибка создания документа покупок")
	}
	return nil
}

// Exists проверяет, что документ покупок есть. Нет — NotFound.
func (r *Repository) Exists(ctx context.Context, q postgres.DBTX, userID uuid.UUID) error {
	var ok bool
	err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM purchases WHERE user_id = $1)`, userID).Scan(&ok)
	if err != nil {
		return postgres.WrapError(err, "ошибка проверки документа покупок")
	}
	if !ok {
		return errRecordNotFound
	}
	return nil
}

// Owns сообщает, есть ли документ покупок и куплен ли уже товар.
func (r *Repository) Owns(ctx context.Context, q postgres.DBTX, userID, productID uuid.UUID) (hasRecord, owned bool, err error) {
	err = q.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM purchases WHERE user_id = $1),
		       EXISTS(SELECT 1 FROM purchase_products WHERE user_id = $1 AND product_id = $2)
	`, userID, productID).Scan(&hasRecord, &owned)
	if err != nil {
		return false, false, postgres.WrapError(err, "ошибка проверки покупки")
	}
	return hasRecord, owned, nil
}

// AddProduct добавляет товар во множество покупок.
// false — товар уже был во множестве, строка не вставлена.
func (r *Repository) AddProduct(ctx context.Context, q postgres.DBTX, userID, productID uuid.UUID, method Method) (bool, error) {
	tag, err := q.Exec(ctx, `
		INSERT INTO purchase_products (user_id, product_id, method)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id) DO NOTHING
	`, userID, productID, string(method))
	if err != nil {
		return false, postgres.WrapError(err, "ошибка записи покупки")
	}
	return tag.RowsAffected() == 1, nil
}

// Get возвращает документ покупок. Нет документа — NotFound.
func (r *Repository) Get(ctx context.Context, q postgres.DBTX, userID uuid.UUID) (*Record, error) {
	rec := &Record{Product: []uuid.UUID{}, Voucher: []uuid.UUID{}}

	err := q.QueryRow(ctx, `
		SELECT
			COALESCE((SELECT array_agg(product_id ORDER BY purchased_at, product_id)
			          FROM purchase_products WHERE user_id = p.user_id), '{}'),
			COALESCE((SELECT array_agg(voucher_id ORDER BY created_at, voucher_id)
			          FROM purchase_vouchers WHERE user_id = p.user_id), '{}')
		FROM purchases p WHERE p.user_id = $1
	`, userID).Scan(&rec.Product, &rec.Voucher)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errRecordNotFound
		}
		return nil, postgres.WrapError(err, "ошибка получения покупок")
	}
	return rec, nil
}

// Delete удаляет документ покупок. Товары и ваучеры уходят каскадом.
func (r *Repository) Delete(ctx context.Context, q postgres.DBTX, userID uuid.UUID) error {
	// выпущенные пользователю ваучеры уходят вместе с ним
	if _, err := q.Exec(ctx, `
		DELETE FROM vouchers WHERE id IN (SELECT voucher_id FROM purchase_vouchers WHERE user_id = $1)
	`, userID); err != nil {
		return postgres.WrapError(err, fmt.Sprintf("ошибка удаления ваучеров пользователя %s", userID))
	}
	if _, err := q.Exec(ctx, `DELETE FROM purchases WHERE user_id = $1`, userID); err != nil {
		return postgres.WrapError(err, fmt.Sprintf("ошибка удаления покупок пользователя %s", userID))
	}
	return nil
}
