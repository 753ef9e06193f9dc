package purchase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"serotonyl.ru/ecoquest/internal/common"
	"serotonyl.ru/ecoquest/internal/features/catalog"
	"serotonyl.ru/ecoquest/internal/features/ledger"
	"serotonyl.ru/ecoquest/internal/features/trash"
)

// PaymentStrategy — один способ оплаты.
// Pay выполняется в транзакции покупки, строка пользователя уже заблокирована.
// Ошибка Pay откатывает всю покупку.
type PaymentStrategy interface {
	Method() Method
	Pay(ctx context.Context, tx pgx.Tx, userID uuid.UUID, product *catalog.Product) error
}

// debiter — списание валюты внутри чужой транзакции.
type debiter interface {
	DebitTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64, kind, description string) (int64, error)
}

// statsReader — счётчики переработки внутри чужой транзакции.
type statsReader interface {
	StatsTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (trash.Stats, error)
}

// MoneyPayment списывает цену товара с баланса.
type MoneyPayment struct {
	wallet debiter
}

func NewMoneyPayment(wallet debiter) *MoneyPayment {
	return &MoneyPayment{wallet: wallet}
}

func (p *MoneyPayment) Method() Method { return MethodMoney }

// Pay — бесплатный товар ничего не списывает.
func (p *MoneyPayment) Pay(ctx context.Context, tx pgx.Tx, userID uuid.UUID, product *catalog.Product) error {
	if product.Price <= 0 {
		return nil
	}
	_, err := p.wallet.DebitTx(ctx, tx, userID, product.Price, ledger.KindPurchase, "購買商品: "+product.Name)
	return err
}

// RecyclePayment проверяет, что пользователь сдал достаточно вторсырья.
// Счётчики не списываются, требование проверяется как порог.
type RecyclePayment struct {
	stats statsReader
}

func NewRecyclePayment(stats statsReader) *RecyclePayment {
	return &RecyclePayment{stats: stats}
}

func (p *RecyclePayment) Method() Method { return MethodRecycle }

func (p *RecyclePayment) Pay(ctx context.Context, tx pgx.Tx, userID uuid.UUID, product *catalog.Product) error {
	if len(product.RecycleRequirement) == 0 {
		return common.ErrRecycleRequirementMissing
	}
	have, err := p.stats.StatsTx(ctx, tx, userID)
	if err != nil {
		return err
	}
	return CheckRecycleRequirement(product.RecycleRequirement, have)
}

// CheckRecycleRequirement сверяет требование со счётчиками в порядке trash.Materials
// и сообщает о первом материале, которого не хватает.
func CheckRecycleRequirement(req catalog.Requirement, have trash.Stats) error {
	for _, m := range trash.Materials {
		need, ok := req[m]
		if !ok {
			continue
		}
		if have[m] < need {
			return common.RequirementNotMet(fmt.Sprintf("%s 回收數量不足 (需要: %d, 現有: %d)", m, need, have[m]))
		}
	}
	return nil
}
