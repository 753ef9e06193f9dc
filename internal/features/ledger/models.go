// Package ledger управляет игровой валютой пользователя (money).
// Баланс хранится в users.money, каждое движение пишется в ledger_entries.
// models.go описывает записи истории и их типы.
package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Entry — одно движение валюты.
// Amount со знаком: >0 начисление, <0 списание.
type Entry struct {
	ID           int64     `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	Amount       int64     `json:"amount"`
	Kind         string    `json:"kind"`
	Description  string    `json:"description"`
	BalanceAfter int64     `json:"balance_after"` // Баланс сразу после операции
	CreatedAt    time.Time `json:"created_at"`
}

// Типы движений
const (
	KindManualAdd      = "manual_add"       // Начисление через /users/money/add
	KindManualSubtract = "manual_subtract"  // Списание через /users/money/subtract
	KindLevelFullClear = "level_full_clear" // Бонус за 3 звезды на уровне
	KindChapterReplay  = "chapter_replay"   // Награда за переигровку главы
	KindDailyCheckIn   = "daily_check_in"   // Ежедневный чек-ин
	KindPurchase       = "purchase"         // Покупка товара за валюту
	KindVoucherRedeem  = "voucher_redeem"   // Обмен валюты на ваучеры
)

