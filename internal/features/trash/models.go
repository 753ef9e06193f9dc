// Package trash ведёт учёт сданного на переработку: счётчики пользователя
// по материалам и дневную сводку по всем пользователям.
// models.go описывает материалы и структуры сводок.
package trash

import (
	"time"

	"serotonyl.ru/ecoquest/internal/common"
)

// Material — категория вторсырья. Список закрыт.
type Material string

const (
	Plastic    Material = "plastic"
	Paper      Material = "paper"
	Cans       Material = "cans"
	Bottles    Material = "bottles"
	Containers Material = "containers"
)

// Materials — все материалы в фиксированном порядке.
// В этом порядке проверяются требования товаров и строятся ответы.
var Materials = []Material{Plastic, Paper, Cans, Bottles, Containers}

// ParseMaterial проверяет, что s — известный материал.
func ParseMaterial(s string) (Material, error) {
	for _, m := range Materials {
		if string(m) == s {
			return m, nil
		}
	}
	return "", common.ErrUnknownMaterial
}

// Stats — счётчики пользователя по материалам.
type Stats map[Material]int

// Total — сумма по всем материалам.
func (s Stats) Total() int {
	total := 0
	for _, n := range s {
		total += n
	}
	return total
}

// Filled возвращает копию, где у каждого материала есть ключ (0, если не сдавал).
func (s Stats) Filled() Stats {
	out := make(Stats, len(Materials))
	for _, m := range Materials {
		out[m] = s[m]
	}
	return out
}

// DailyTrash — сводка за один день.
type DailyTrash struct {
	Date          time.Time `json:"-"`
	DateStr       string    `json:"date"`
	Counts        Stats     `json:"counts"`
	Total         int       `json:"total"`
	ActiveUsers   int       `json:"active_users"`
	NewRegistered int       `json:"new_registered"`
}

// Summary — сводка за всё время.
type Summary struct {
	Days               []DailyTrash `json:"days"`
	Totals             Stats        `json:"totals"`
	Total              int          `json:"total"`
	TotalNewRegistered int          `json:"total_new_registered"`
	DateRange          *DateRange   `json:"date_range"`
}

// DateRange — первый и последний день в сводке.
type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// summarize сворачивает дни (по возрастанию даты) в общую сводку.
func summarize(days []DailyTrash) *Summary {
	s := &Summary{Days: days, Totals: Stats{}.Filled()}
	if days == nil {
		s.Days = []DailyTrash{}
	}
	for _, d := range days {
		for m, n := range d.Counts {
			s.Totals[m] += n
		}
		s.Total += d.Total
		s.TotalNewRegistered += d.NewRegistered
	}
	if len(days) > 0 {
		s.DateRange = &DateRange{From: days[0].DateStr, To: days[len(days)-1].DateStr}
	}
	return s
}
