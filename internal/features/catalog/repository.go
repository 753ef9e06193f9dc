// Package catalog — repository.go работает с таблицами themes, products, chapters, levels.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/ecoquest/internal/common"
	"serotonyl.ru/ecoquest/internal/db/postgres"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// --- Товары ---

const productColumns = `id, name, description, price, theme_id, theme_slot, recycle_requirement, image, created_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var (
		p    Product
		slot *string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.ThemeID, &slot,
		&p.RecycleRequirement, &p.Image, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if slot != nil {
		p.ThemeSlot = *slot
	}
	return &p, nil
}

// ProductByID: если не найден — common.ErrProductNotFound.
func (r *Repository) ProductByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrProductNotFound
		}
		return nil, postgres.WrapError(err, "ошибка получения товара")
	}
	return p, nil
}

// ProductExists ищет товар по ID или по имени.
func (r *Repository) ProductExists(ctx context.Context, idOrName string) (bool, error) {
	var exists bool
	var err error
	if id, perr := uuid.Parse(idOrName); perr == nil {
		err = r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists)
	} else {
		err = r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE name = $1)`, idOrName).Scan(&exists)
	}
	if err != nil {
		return false, postgres.WrapError(err, "ошибка проверки товара")
	}
	return exists, nil
}

func (r *Repository) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at, name`)
	if err != nil {
		return nil, postgres.WrapError(err, "ошибка получения товаров")
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования товара: %w", err)
		}
		products = append(products, *p)
	}
	return products, postgres.WrapError(rows.Err(), "ошибка чтения товаров")
}

func (r *Repository) CreateProduct(ctx context.Context, p *Product) error {
	var slot *string
	if p.ThemeSlot != "" {
		slot = &p.ThemeSlot
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO products (id, name, description, price, theme_id, theme_slot, recycle_requirement, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, p.ID, p.Name, p.Description, p.Price, p.ThemeID, slot, p.RecycleRequirement, p.Image).Scan(&p.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err, "products_name_key") {
			return common.Conflict(fmt.Sprintf("商品: %s 已存在", p.Name))
		}
		return postgres.WrapError(err, "ошибка создания товара")
	}
	return nil
}

// DeleteProduct удаляет товар и в той же транзакции убирает его
// из покупок всех пользователей. Возвращает число затронутых владельцев.
func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) (int64, error) {
	var owners int64
	err := postgres.InTx(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM purchase_products WHERE product_id = $1`, id)
		if err != nil {
			return postgres.WrapError(err, "ошибка удаления товара из покупок")
		}
		owners = tag.RowsAffected()

		tag, err = tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
		if err != nil {
			return postgres.WrapError(err, "ошибка удаления товара")
		}
		if tag.RowsAffected() == 0 {
			return common.ErrProductNotFound
		}
		return nil
	})
	return owners, err
}

// --- Темы ---

func (r *Repository) ThemeExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM themes WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, postgres.WrapError(err, "ошибка проверки темы")
	}
	return exists, nil
}

func (r *Repository) CreateTheme(ctx context.Context, t *Theme) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO themes (id, name, description, image) VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, t.ID, t.Name, t.Description, t.Image).Scan(&t.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err, "") {
			return common.Conflict(fmt.Sprintf("主題: %s 已存在", t.Name))
		}
		return postgres.WrapError(err, "ошибка создания темы")
	}
	return nil
}

func (r *Repository) ListThemes(ctx context.Context) ([]Theme, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, description, image, created_at FROM themes ORDER BY name`)
	if err != nil {
		return nil, postgres.WrapError(err, "ошибка получения тем")
	}
	defer rows.Close()

	themes := []Theme{}
	for rows.Next() {
		var t Theme
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Image, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования темы: %w", err)
		}
		themes = append(themes, t)
	}
	return themes, postgres.WrapError(rows.Err(), "ошибка чтения тем")
}

// --- Главы ---

const chapterSelect = `
	SELECT c.sequence, c.name, c.description, c.trash_requirement, c.image,
	       COALESCE(array_agg(l.sequence ORDER BY l.sequence) FILTER (WHERE l.sequence IS NOT NULL), '{}')
	FROM chapters c
	LEFT JOIN levels l ON l.chapter_sequence = c.sequence
`

func scanChapter(row pgx.Row) (*Chapter, error) {
	var ch Chapter
	if err := row.Scan(&ch.Sequence, &ch.Name, &ch.Description, &ch.TrashRequirement, &ch.Image, &ch.Levels); err != nil {
		return nil, err
	}
	return &ch, nil
}

// ChapterBySequence: если не найдена — common.ErrChapterNotFound.
func (r *Repository) ChapterBySequence(ctx context.Context, seq int) (*Chapter, error) {
	ch, err := scanChapter(r.db.QueryRow(ctx, chapterSelect+` WHERE c.sequence = $1 GROUP BY c.sequence`, seq))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrChapterNotFound
		}
		return nil, postgres.WrapError(err, "ошибка получения главы")
	}
	return ch, nil
}

// ChapterByName: если не найдена — common.ErrChapterNotFound.
func (r *Repository) ChapterByName(ctx context.Context, name string) (*Chapter, error) {
	ch, err := scanChapter(r.db.QueryRow(ctx, chapterSelect+` WHERE c.name = $1 GROUP BY c.sequence`, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrChapterNotFound
		}
		return nil, postgres.WrapError(err, "ошибка получения главы")
	}
	return ch, nil
}

func (r *Repository) ListChapters(ctx context.Context) ([]Chapter, error) {
	rows, err := r.db.Query(ctx, chapterSelect+` GROUP BY c.sequence ORDER BY c.sequence`)
	if err != nil {
		return nil, postgres.WrapError(err, "ошибка получения глав")
	}
	defer rows.Close()

	chapters := []Chapter{}
	for rows.Next() {
		ch, err := scanChapter(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования главы: %w", err)
		}
		chapters = append(chapters, *ch)
	}
	return chapters, postgres.WrapError(rows.Err(), "ошибка чтения глав")
}

// CreateChapter вставляет главу с номером max(sequence)+1.
func (r *Repository) CreateChapter(ctx context.Context, ch *Chapter) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO chapters (sequence, name, description, trash_requirement, image)
		SELECT COALESCE(MAX(sequence), 0) + 1, $1, $2, $3, $4 FROM chapters
		RETURNING sequence
	`, ch.Name, ch.Description, ch.TrashRequirement, ch.Image).Scan(&ch.Sequence)
	if err != nil {
		if postgres.IsUniqueViolation(err, "chapters_name_key") {
			return common.Conflict(fmt.Sprintf("章節: %s 已存在", ch.Name))
		}
		return postgres.WrapError(err, "ошибка создания главы")
	}
	ch.Levels = []int{}
	return nil
}

// DeleteChapter удаляет главу по имени. Удалить можно только последнюю главу,
// иначе нумерация глав перестанет быть непрерывной.
func (r *Repository) DeleteChapter(ctx context.Context, name string) (int, error) {
	var seq int
	err := postgres.InTx(ctx, r.db, func(tx pgx.Tx) error {
		// Блокируем таблицу от параллельного создания глав
		if _, err := tx.Exec(ctx, `LOCK TABLE chapters IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return postgres.WrapError(err, "ошибка блокировки глав")
		}

		var maxSeq int
		err := tx.QueryRow(ctx, `
			SELECT c.sequence, (SELECT MAX(sequence) FROM chapters)
			FROM chapters c WHERE c.name = $1
		`, name).Scan(&seq, &maxSeq)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return common.ErrChapterNotFound
			}
			return postgres.WrapError(err, "ошибка получения главы")
		}
		if seq != maxSeq {
			return common.FailedPrecondition(fmt.Sprintf("只能刪除最後一個章節 (第 %d 章)", maxSeq))
		}

		if _, err := tx.Exec(ctx, `DELETE FROM chapters WHERE sequence = $1`, seq); err != nil {
			return postgres.WrapError(err, "ошибка удаления главы")
		}
		return nil
	})
	return seq, err
}

// --- Уровни ---

func (r *Repository) LevelBySequence(ctx context.Context, seq int) (*Level, error) {
	var l Level
	err := r.db.QueryRow(ctx, `
		SELECT sequence, chapter_sequence, name, description, unlock_requirement
		FROM levels WHERE sequence = $1
	`, seq).Scan(&l.Sequence, &l.ChapterSequence, &l.Name, &l.Description, &l.UnlockRequirement)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrLevelNotFound
		}
		return nil, postgres.WrapError(err, "ошибка получения уровня")
	}
	return &l, nil
}

func (r *Repository) LevelExists(ctx context.Context, seq int) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM levels WHERE sequence = $1)`, seq).Scan(&exists); err != nil {
		return false, postgres.WrapError(err, "ошибка проверки уровня")
	}
	return exists, nil
}

func (r *Repository) CreateLevel(ctx context.Context, l *Level) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO levels (sequence, chapter_sequence, name, description, unlock_requirement)
		VALUES ($1, $2, $3, $4, $5)
	`, l.Sequence, l.ChapterSequence, l.Name, l.Description, l.UnlockRequirement)
	if err != nil {
		switch {
		case postgres.IsUniqueViolation(err, "levels_pkey"):
			return common.Conflict(fmt.Sprintf("關卡序號 %d 已存在", l.Sequence))
		case postgres.IsUniqueViolation(err, "levels_name_key"):
			return common.Conflict(fmt.Sprintf("關卡: %s 已存在", l.Name))
		}
		return postgres.WrapError(err, "ошибка создания уровня")
	}
	return nil
}
