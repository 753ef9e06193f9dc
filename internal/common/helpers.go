// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: таксономия ошибок и работа с временем приложения.
package common

import (
	"sync"
	"time"
)

var (
	locMu sync.RWMutex
	loc   = time.UTC
)

// SetLocation задаёт часовой пояс приложения (APP_TIMEZONE).
// Вызывается один раз при старте.
func SetLocation(l *time.Location) {
	if l == nil {
		return
	}
	locMu.Lock()
	loc = l
	locMu.Unlock()
}

// Location возвращает часовой пояс приложения.
func Location() *time.Location {
	locMu.RLock()
	defer locMu.RUnlock()
	return loc
}

// Now возвращает текущее время в часовом поясе приложения.
func Now() time.Time {
	return time.Now().In(Location())
}

// DateOf возвращает только дату (без времени) для t в часовом поясе приложения.
func DateOf(t time.Time) time.Time {
	t = t.In(Location())
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Today возвращает сегодняшнюю дату в часовом поясе приложения.
func Today() time.Time {
	return DateOf(time.Now())
}

// SameDay сообщает, попадают ли a и b в один календарный день приложения.
func SameDay(a, b time.Time) bool {
	return DateOf(a).Equal(DateOf(b))
}

// FormatDate форматирует дату как 2006-01-02.
func FormatDate(t time.Time) string {
	return t.In(Location()).Format("2006-01-02")
}
