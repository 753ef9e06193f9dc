// Package purchase записывает владение товарами каталога.
// Товар покупается один раз, оплата — валютой или сданным вторсырьём.
// models.go описывает способы оплаты и документ покупок.
package purchase

import (
	"github.com/google/uuid"

	"serotonyl.ru/ecoquest/internal/common"
)

// Method — способ оплаты. Список закрыт.
type Method string

const (
	MethodMoney   Method = "money"
	MethodRecycle Method = "recycle"
)

// ParseMethod проверяет тег способа оплаты.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodMoney, MethodRecycle:
		return Method(s), nil
	}
	return "", common.ErrUnknownPaymentMethod
}

// Record — покупки пользователя: ID товаров и ваучеров.
type Record struct {
	Product []uuid.UUID `json:"product"`
	Voucher []uuid.UUID `json:"voucher"`
}

// Result — итог успешной покупки.
type Result struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Method    Method    `json:"payment_type"`
}
