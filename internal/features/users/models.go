// Package users хранит учётные записи игроков и ежедневный чек-ин.
// models.go описывает пользователя.
package users

import (
	"time"

	"github.com/google/uuid"
)

// User — учётная запись. Хеш пароля наружу не отдаётся.
type User struct {
	ID            uuid.UUID  `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	EmailVerified bool       `json:"email_verified"`
	PasswordHash  string     `json:"-"`
	Role          string     `json:"role"`
	Money         int64      `json:"money"`
	LastCheckIn   *time.Time `json:"last_check_in,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// CheckInStatus — состояние чек-ина на сегодня.
type CheckInStatus struct {
	CheckedIn   bool       `json:"checked_in"`
	LastCheckIn *time.Time `json:"last_check_in,omitempty"`
	Reward      int64      `json:"reward"`
	Money       int64      `json:"money,omitempty"`
}
