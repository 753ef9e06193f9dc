// Package purchase — service.go: покупка товара в одной транзакции
// под блокировкой пользователя.
package purchase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/ecoquest/internal/common"
	"serotonyl.ru/ecoquest/internal/db/postgres"
	"serotonyl.ru/ecoquest/internal/features/catalog"
)

// productSource — поиск товара в каталоге.
type productSource interface {
	ProductByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error)
}

// Service оформляет покупки.
type Service struct {
	db         *pgxpool.Pool
	repo       *Repository
	products   productSource
	strategies map[Method]PaymentStrategy
}

// NewService создаёт сервис покупок с заданными способами оплаты.
func NewService(db *pgxpool.Pool, repo *Repository, products productSource, strategies ...PaymentStrategy) *Service {
	s := &Service{
		db:         db,
		repo:       repo,
		products:   products,
		strategies: make(map[Method]PaymentStrategy, len(strategies)),
	}
	for _, st := range strategies {
		s.strategies[st.Method()] = st
	}
	return s
}

// strategy возвращает способ оплаты по тегу.
func (s *Service) strategy(method string) (PaymentStrategy, error) {
	m, err := ParseMethod(method)
	if err != nil {
		return nil, err
	}
	st, ok := s.strategies[m]
	if !ok {
		return nil, common.ErrUnknownPaymentMethod
	}
	return st, nil
}

// Purchase покупает товар productID способом method.
//
// Проверка «уже куплено», оплата и запись покупки идут в одной транзакции
// под блокировкой строки пользователя, поэтому параллельные запросы
// на один товар не проходят оба.
func (s *Service) Purchase(ctx context.Context, userID, productID uuid.UUID, method string) (*Result, error) {
	st, err := s.strategy(method)
	if err != nil {
		return nil, err
	}
	product, err := s.products.ProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	alreadyOwned := common.Conflict(fmt.Sprintf("商品: %s 已購買", product.Name))

	err = postgres.InTx(ctx, s.db, func(tx pgx.Tx) error {
		if err := postgres.LockUser(ctx, tx, userID); err != nil {
			return err
		}

		hasRecord, owned, err := s.repo.Owns(ctx, tx, userID, productID)
		if err != nil {
			return err
		}
		if !hasRecord {
			return errRecordNotFound
		}
		if owned {
			return alreadyOwned
		}

		if err := st.Pay(ctx, tx, userID, product); err != nil {
			return err
		}

		inserted, err := s.repo.AddProduct(ctx, tx, userID, productID, st.Method())
		if err != nil {
			return err
		}
		if !inserted {
			return alreadyOwned
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id":    userID,
		"product_id": productID,
		"method":     st.Method(),
		"price":      product.Price,
	}).Info("Покупка оформлена")

	return &Result{ProductID: product.ID, Name: product.Name, Method: st.Method()}, nil
}

// InitTx создаёт пустой документ покупок в транзакции регистрации.
func (s *Service) InitTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	return s.repo.Init(ctx, tx, userID)
}

// Get возвращает купленные товары и ваучеры.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*Record, error) {
	return s.repo.Get(ctx, s.db, userID)
}

// DeleteUserData удаляет документ покупок пользователя.
func (s *Service) DeleteUserData(ctx context.Context, userID uuid.UUID) error {
	return s.repo.Delete(ctx, s.db, userID)
}
