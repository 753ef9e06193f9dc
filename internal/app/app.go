// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, кэш, сервисы, обработчики
// и собирает всё в HTTP-сервер и планировщик.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/ecoquest/internal/cache"
	"serotonyl.ru/ecoquest/internal/common"
	"serotonyl.ru/ecoquest/internal/config"
	"serotonyl.ru/ecoquest/internal/db/postgres"
	"serotonyl.ru/ecoquest/internal/features/account"
	"serotonyl.ru/ecoquest/internal/features/catalog"
	"serotonyl.ru/ecoquest/internal/features/ledger"
	"serotonyl.ru/ecoquest/internal/features/progression"
	"serotonyl.ru/ecoquest/internal/features/purchase"
	"serotonyl.ru/ecoquest/internal/features/quiz"
	"serotonyl.ru/ecoquest/internal/features/trash"
	"serotonyl.ru/ecoquest/internal/features/users"
	"serotonyl.ru/ecoquest/internal/jobs"
	"serotonyl.ru/ecoquest/internal/server"
	"serotonyl.ru/ecoquest/internal/server/middleware"
)

// App содержит все компоненты приложения.
type App struct {
	Server    *server.Server
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
	Accounts  *account.Service

	cache   cache.Cache
	limiter *middleware.RateLimiter
}

// New создаёт и инициализирует приложение.
// Компоненты создаются в порядке зависимостей.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. Часовой пояс ===
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("неизвестный часовой пояс %q: %w", cfg.AppTimezone, err)
	}
	common.SetLocation(loc)

	// === 2. База данных ===
	pool, err := postgres.NewPool(ctx, postgres.PoolOptions{
		DSN:      cfg.DatabaseDSN(),
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 3. Кэш каталога ===
	var catalogCache cache.Cache = cache.Noop{}
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			// Без Redis каталог просто читается из БД
			log.WithError(err).Warn("Redis недоступен, кэш каталога отключён")
		} else {
			catalogCache = rc
		}
	}

	// === 4. Сервисы ===
	walletService := ledger.NewService(pool, ledger.NewRepository())
	trashService := trash.NewService(pool, trash.NewRepository(), cfg.FeatureDailyTrashEnabled)
	quizService := quiz.NewService(pool, quiz.NewRepository())
	catalogService := catalog.NewService(catalog.NewRepository(pool), catalogCache, cfg.CatalogCacheTTL)
	purchaseService := purchase.NewService(pool, purchase.NewRepository(), catalogService,
		purchase.NewMoneyPayment(walletService),
		purchase.NewRecyclePayment(trashService),
	)
	voucherService := purchase.NewVoucherService(pool, purchase.NewVoucherRepository(), purchase.NewRepository(), walletService)
	progressionService := progression.NewService(pool, progression.NewRepository(),
		catalogService, trashService, walletService,
		progression.Rewards{
			LevelFullClear: cfg.RewardLevelFullClear,
			ReplayMax:      cfg.RewardReplayMax,
			ReplayBudget:   cfg.ReplayBudget,
		},
	)
	userService := users.NewService(pool, users.NewRepository(), walletService, cfg.RewardDailyCheckIn)
	accountService := account.NewService(pool, userService, walletService, trashService,
		quizService, purchaseService, progressionService)

	// === 5. HTTP ===
	limiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	router := server.NewRouter(server.Handlers{
		Account:     account.NewHandler(accountService),
		Wallet:      ledger.NewHandler(walletService),
		Users:       users.NewHandler(userService),
		Progression: progression.NewHandler(progressionService),
		Trash:       trash.NewHandler(trashService),
		Quiz:        quiz.NewHandler(quizService),
		Purchase:    purchase.NewHandler(purchaseService, voucherService),
		Catalog:     catalog.NewHandler(catalogService),
	}, server.RouterOptions{
		JWTSecret:    []byte(cfg.JWTSecret),
		AllowOrigins: cfg.AllowOrigins(),
		Limiter:      limiter,
	})

	// === 6. Планировщик задач ===
	scheduler := jobs.NewScheduler(trashService, loc)

	return &App{
		Server:    server.New(cfg.HTTPAddr, router),
		Scheduler: scheduler,
		DB:        pool,
		Accounts:  accountService,
		cache:     catalogCache,
		limiter:   limiter,
	}, nil
}

// Close освобождает ресурсы. Сервер к этому моменту уже должен быть остановлен.
func (a *App) Close() {
	a.limiter.Close()
	if err := a.cache.Close(); err != nil {
		log.WithError(err).Warn("Ошибка закрытия Redis")
	}
	a.DB.Close()
}
