// Package catalog — справочник товаров, тем, глав и уровней.
// Пользовательские операции его только читают; изменяют его админские маршруты.
// models.go описывает сущности каталога.
package catalog

import (
	"time"

	"github.com/google/uuid"

	"serotonyl.ru/ecoquest/internal/features/trash"
)

// LevelsPerChapter — уровней в одной главе.
// Глава N содержит уровни (N-1)*5+1 … N*5.
const LevelsPerChapter = 5

// LevelRange возвращает первый и последний уровень главы.
func LevelRange(chapterSeq int) (first, last int) {
	return (chapterSeq-1)*LevelsPerChapter + 1, chapterSeq * LevelsPerChapter
}

// Image — ссылка на картинку во внешнем хранилище.
type Image struct {
	PublicID     string `json:"public_id,omitempty"`
	URL          string `json:"url,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// Requirement — сколько каждого материала нужно сдать для покупки за переработку.
type Requirement map[trash.Material]int

// Product — товар магазина.
type Product struct {
	ID                 uuid.UUID   `json:"id"`
	Name               string      `json:"name"`
	Description        string      `json:"description"`
	Price              int64       `json:"price"`
	ThemeID            *uuid.UUID  `json:"theme_id,omitempty"`
	ThemeSlot          string      `json:"type,omitempty"`
	RecycleRequirement Requirement `json:"recycle_requirement,omitempty"`
	Image              *Image      `json:"image,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
}

// Theme — набор товаров с общим оформлением.
type Theme struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Image       *Image    `json:"image,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Chapter — глава игры.
type Chapter struct {
	Sequence         int    `json:"sequence"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	TrashRequirement int    `json:"trash_requirement"`
	Levels           []int  `json:"levels"`
	Image            *Image `json:"image,omitempty"`
}

// Level — уровень главы.
type Level struct {
	Sequence          int    `json:"sequence"`
	ChapterSequence   int    `json:"chapter"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	UnlockRequirement int    `json:"unlock_requirement"`
}

// ProductInput — данные для создания товара.
type ProductInput struct {
	Name               string      `json:"name" binding:"required,max=128"`
	Description        string      `json:"description"`
	Price              int64       `json:"price" binding:"gte=0"`
	ThemeID            *uuid.UUID  `json:"theme_id"`
	ThemeSlot          string      `json:"type" binding:"max=32"`
	RecycleRequirement Requirement `json:"recycle_requirement"`
	Image              *Image      `json:"image"`
}

// ThemeInput — данные для создания темы.
type ThemeInput struct {
	Name        string `json:"name" binding:"required,max=128"`
	Description string `json:"description"`
	Image       *Image `json:"image"`
}

// ChapterInput — данные для создания главы. Номер назначается автоматически.
type ChapterInput struct {
	Name             string `json:"name" binding:"required,max=128"`
	Description      string `json:"description"`
	TrashRequirement int    `json:"trash_requirement" binding:"gte=0"`
	Image            *Image `json:"image"`
}

// LevelInput — данные для создания уровня.
type LevelInput struct {
	Sequence          int    `json:"sequence" binding:"required,gte=1"`
	ChapterSequence   int    `json:"chapter" binding:"required,gte=1"`
	Name              string `json:"name" binding:"required,max=128"`
	Description       string `json:"description"`
	UnlockRequirement int    `json:"unlock_requirement" binding:"gte=0"`
}
