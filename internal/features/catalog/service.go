// Package catalog — service.go: поиск по каталогу с кэшем в Redis
// и админские операции с инвалидацией кэша.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/ecoquest/internal/cache"
	"serotonyl.ru/ecoquest/internal/common"
)

// Service — чтение и администрирование каталога.
type Service struct {
	repo  *Repository
	cache cache.Cache
	ttl   time.Duration
}

// NewService создаёт сервис каталога. c может быть cache.Noop{}.
func NewService(repo *Repository, c cache.Cache, ttl time.Duration) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	return &Service{repo: repo, cache: c, ttl: ttl}
}

func productKey(id uuid.UUID) string { return "catalog:product:" + id.String() }
func chapterKey(seq int) string      { return fmt.Sprintf("catalog:chapter:%d", seq) }

// cached читает key из кэша, при промахе вызывает load и кладёт результат в кэш.
// Ошибки кэша не ломают запрос: идём в БД.
func cached[T any](ctx context.Context, s *Service, key string, load func() (*T, error)) (*T, error) {
	var v T
	err := s.cache.GetJSON(ctx, key, &v)
	if err == nil {
		return &v, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		log.WithError(err).WithField("key", key).Warn("Кэш каталога недоступен")
	}

	loaded, err := load()
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, key, loaded, s.ttl); err != nil {
		log.WithError(err).WithField("key", key).Warn("Не удалось записать в кэш каталога")
	}
	return loaded, nil
}

func (s *Service) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Delete(ctx, keys...); err != nil {
		log.WithError(err).WithField("keys", keys).Warn("Не удалось сбросить кэш каталога")
	}
}

// --- Поиск ---

// ProductByID возвращает товар. Нет товара — ErrProductNotFound.
func (s *Service) ProductByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	return cached(ctx, s, productKey(id), func() (*Product, error) {
		return s.repo.ProductByID(ctx, id)
	})
}

// ProductPrice возвращает цену товара.
func (s *Service) ProductPrice(ctx context.Context, id uuid.UUID) (int64, error) {
	p, err := s.ProductByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return p.Price, nil
}

// ProductExists ищет товар по ID или имени.
func (s *Service) ProductExists(ctx context.Context, idOrName string) (bool, error) {
	return s.repo.ProductExists(ctx, idOrName)
}

func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	return s.repo.ListProducts(ctx)
}

// ChapterBySequence возвращает главу. Нет главы — ErrChapterNotFound.
func (s *Service) ChapterBySequence(ctx context.Context, seq int) (*Chapter, error) {
	if seq < 1 {
		return nil, common.ErrChapterNotFound
	}
	return cached(ctx, s, chapterKey(seq), func() (*Chapter, error) {
		return s.repo.ChapterBySequence(ctx, seq)
	})
}

func (s *Service) ChapterByName(ctx context.Context, name string) (*Chapter, error) {
	return s.repo.ChapterByName(ctx, name)
}

func (s *Service) ListChapters(ctx context.Context) ([]Chapter, error) {
	return s.repo.ListChapters(ctx)
}

func (s *Service) LevelBySequence(ctx context.Context, seq int) (*Level, error) {
	return s.repo.LevelBySequence(ctx, seq)
}

func (s *Service) ListThemes(ctx context.Context) ([]Theme, error) {
	return s.repo.ListThemes(ctx)
}

// --- Администрирование ---

// CreateProduct проверяет и создаёт товар.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	if err := ValidateProduct(in); err != nil {
		return nil, err
	}
	if in.ThemeID != nil {
		ok, err := s.repo.ThemeExists(ctx, *in.ThemeID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, common.ErrThemeNotFound
		}
	}

	p := &Product{
		ID:                 uuid.New(),
		Name:               strings.TrimSpace(in.Name),
		Description:        in.Description,
		Price:              in.Price,
		ThemeID:            in.ThemeID,
		ThemeSlot:          in.ThemeSlot,
		RecycleRequirement: in.RecycleRequirement,
		Image:              in.Image,
	}
	if len(p.RecycleRequirement) == 0 {
		p.RecycleRequirement = nil
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"product_id": p.ID, "name": p.Name, "price": p.Price}).Info("Товар создан")
	return p, nil
}

// DeleteProduct удаляет товар и убирает его из покупок всех пользователей.
func (s *Service) DeleteProduct(ctx context.Context, id uuid.UUID) (int64, error) {
	owners, err := s.repo.DeleteProduct(ctx, id)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, productKey(id))

	log.WithFields(log.Fields{"product_id": id, "owners": owners}).Info("Товар удалён")
	return owners, nil
}

func (s *Service) CreateTheme(ctx context.Context, in ThemeInput) (*Theme, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, common.InvalidArgument("主題名稱不可為空")
	}
	t := &Theme{ID: uuid.New(), Name: name, Description: in.Description, Image: in.Image}
	if err := s.repo.CreateTheme(ctx, t); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"theme_id": t.ID, "name": t.Name}).Info("Тема создана")
	return t, nil
}

// CreateChapter создаёт главу со следующим номером.
func (s *Service) CreateChapter(ctx context.Context, in ChapterInput) (*Chapter, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, common.InvalidArgument("章節名稱不可為空")
	}
	if in.TrashRequirement < 0 {
		return nil, common.InvalidArgument("回收數量需求不可為負數")
	}
	ch := &Chapter{Name: name, Description: in.Description, TrashRequirement: in.TrashRequirement, Image: in.Image}
	if err := s.repo.CreateChapter(ctx, ch); err != nil {
		return nil, err
	}
	s.invalidate(ctx, chapterKey(ch.Sequence))

	log.WithFields(log.Fields{"sequence": ch.Sequence, "name": ch.Name}).Info("Глава создана")
	return ch, nil
}

// DeleteChapter удаляет последнюю главу по имени вместе с её уровнями.
func (s *Service) DeleteChapter(ctx context.Context, name string) error {
	seq, err := s.repo.DeleteChapter(ctx, name)
	if err != nil {
		return err
	}
	s.invalidate(ctx, chapterKey(seq))

	log.WithFields(log.Fields{"sequence": seq, "name": name}).Info("Глава удалена")
	return nil
}

// CreateLevel проверяет и создаёт уровень.
func (s *Service) CreateLevel(ctx context.Context, in LevelInput) (*Level, error) {
	if _, err := s.repo.ChapterBySequence(ctx, in.ChapterSequence); err != nil {
		return nil, err
	}
	reqExists := false
	if in.UnlockRequirement != 0 {
		var err error
		if reqExists, err = s.repo.LevelExists(ctx, in.UnlockRequirement); err != nil {
			return nil, err
		}
	}
	if err := ValidateLevel(in, reqExists); err != nil {
		return nil, err
	}

	l := &Level{
		Sequence:          in.Sequence,
		ChapterSequence:   in.ChapterSequence,
		Name:              strings.TrimSpace(in.Name),
		Description:       in.Description,
		UnlockRequirement: in.UnlockRequirement,
	}
	if err := s.repo.CreateLevel(ctx, l); err != nil {
		return nil, err
	}
	// Список уровней главы изменился
	s.invalidate(ctx, chapterKey(l.ChapterSequence))

	log.WithFields(log.Fields{"sequence": l.Sequence, "chapter": l.ChapterSequence}).Info("Уровень создан")
	return l, nil
}
