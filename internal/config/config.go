// Package config загружает конфигурацию сервиса из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры,
// а godotenv (если рядом лежит .env) подкладывает значения для локальной разработки.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- HTTP ---
	HTTPAddr            string        `envconfig:"HTTP_ADDR" default:":8080"`
	HTTPShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
	// Список origin через запятую; "*" разрешает всех
	CORSAllowOrigins string `envconfig:"CORS_ALLOW_ORIGINS" default:"*"`

	// --- Database ---
	// Дефолт "postgres" (имя сервиса в docker-compose), для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"ecoquest"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"ecoquest"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Redis (кэш каталога, пусто = без кэша) ---
	RedisURL        string        `envconfig:"REDIS_URL"`
	CatalogCacheTTL time.Duration `envconfig:"CATALOG_CACHE_TTL" default:"5m"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Asia/Taipei"`

	// --- Auth ---
	// Токены выпускает внешний identity-слой, мы только проверяем подпись
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	// --- Rewards ---
	RewardLevelFullClear int64 `envconfig:"REWARD_LEVEL_FULL_CLEAR" default:"100"`
	RewardReplayMax      int64 `envconfig:"REWARD_REPLAY_MAX" default:"1000"`
	RewardDailyCheckIn   int64 `envconfig:"REWARD_DAILY_CHECK_IN" default:"50"`
	ReplayBudget         int   `envconfig:"REPLAY_BUDGET" default:"20"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"60"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- Feature Flags ---
	FeatureDailyTrashEnabled bool `envconfig:"FEATURE_DAILY_TRASH_ENABLED" default:"true"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// Location возвращает часовой пояс приложения.
// Границы "сегодня" для чек-ина и дневной статистики считаются в нём.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.AppTimezone)
}

// AllowOrigins разбирает CORS_ALLOW_ORIGINS в список.
func (c *Config) AllowOrigins() []string {
	var out []string
	for _, p := range strings.Split(c.CORSAllowOrigins, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsProduction сообщает, запущены ли мы в проде (gin в release-режиме).
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) Validate() error {
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET не задан")
	}
	if c.RewardLevelFullClear <= 0 || c.RewardDailyCheckIn <= 0 {
		return fmt.Errorf("награды REWARD_LEVEL_FULL_CLEAR/REWARD_DAILY_CHECK_IN должны быть > 0")
	}
	if c.RewardReplayMax < 0 {
		return fmt.Errorf("REWARD_REPLAY_MAX должен быть >= 0")
	}
	if c.ReplayBudget <= 0 {
		return fmt.Errorf("REPLAY_BUDGET должен быть > 0")
	}
	if c.RateLimitRequests <= 0 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("некорректные RATE_LIMIT_REQUESTS/RATE_LIMIT_WINDOW")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("APP_TIMEZONE %q: %w", c.AppTimezone, err)
	}
	return nil
}

// Load читает .env (если он есть) и переменные окружения, заполняет Config.
// Уже выставленные переменные окружения .env не перетирает.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("не удалось прочитать .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
