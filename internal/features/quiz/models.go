// Package quiz ведёт статистику ответов на вопросы сортировки
// по каждому материалу: сколько всего ответов и сколько верных.
package quiz

import "serotonyl.ru/ecoquest/internal/features/trash"

// Stat — счётчики по одному материалу.
type Stat struct {
	Total   int `json:"total"`
	Correct int `json:"correct"`
}

// Stats — статистика пользователя по материалам.
type Stats map[trash.Material]Stat

// emptyStats — нули по всем материалам.
func emptyStats() Stats {
	stats := make(Stats, len(trash.Materials))
	for _, m := range trash.Materials {
		stats[m] = Stat{}
	}
	return stats
}
