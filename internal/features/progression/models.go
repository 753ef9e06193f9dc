// Package progression ведёт прогресс пользователя по главам и уровням:
// открытие и завершение глав, лучшие результаты уровней, переигровки
// завершённых глав и награды за них.
// models.go описывает документ прогресса.
package progression

import (
	"time"

	"github.com/google/uuid"
)

// ChapterState — состояние главы у пользователя.
type ChapterState struct {
	Unlocked  bool `json:"unlocked"`
	Completed bool `json:"completed"`
}

// LevelState — лучший результат уровня.
type LevelState struct {
	Score int `json:"score"`
	Stars int `json:"stars"`
	// Бонус за три звезды уже выплачен
	FullClearRewarded bool `json:"full_clear_rewarded,omitempty"`
}

// CompletedChapter — переигровки завершённой главы.
type CompletedChapter struct {
	Remaining    int `json:"remaining"`
	HighestScore int `json:"highest_score"`
}

// UserLevel — документ прогресса. Ключи карт — номера глав и уровней.
// Наличие ключа означает, что запись открыта («материализована»).
type UserLevel struct {
	UserID       uuid.UUID                `json:"-"`
	HighestLevel int                      `json:"highest_level"`
	Chapters     map[int]ChapterState     `json:"chapter_progress"`
	Levels       map[int]LevelState       `json:"level_progress"`
	Completed    map[int]CompletedChapter `json:"completed_chapter"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

// NewUserLevel — прогресс нового пользователя: глава 1 и уровень 1 открыты,
// но ничего не пройдено.
func NewUserLevel(userID uuid.UUID) *UserLevel {
	return &UserLevel{
		UserID:       userID,
		HighestLevel: 0,
		Chapters:     map[int]ChapterState{1: {}},
		Levels:       map[int]LevelState{1: {}},
		Completed:    map[int]CompletedChapter{},
	}
}

// LevelResult — итог записи результата уровня.
type LevelResult struct {
	Updated      bool       `json:"updated"`
	Level        LevelState `json:"level"`
	HighestLevel int        `json:"highest_level"`
	Reward       int64      `json:"reward"`
}

// ReplayResult — итог переигровки завершённой главы.
type ReplayResult struct {
	Remaining    int   `json:"remaining"`
	HighestScore int   `json:"highest_score"`
	NewHighScore bool  `json:"new_high_score"`
	Reward       int64 `json:"money_earned"`
}
