package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// migrationLockKey — ключ advisory-lock, общий для всех реплик.
const migrationLockKey = 726354

// Migrate накатывает недостающие версии по возрастанию.
// Каждая версия применяется в своей транзакции вместе с записью в schema_migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return fmt.Errorf("schema_migrations: %w", err)
	}

	applied := 0
	for _, m := range migrations {
		done, err := applyMigration(ctx, pool, m.version, m.sql)
		if err != nil {
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
		if done {
			applied++
			log.WithField("version", m.version).Info("Миграция применена")
		}
	}

	log.WithFields(log.Fields{
		"total":   len(migrations),
		"applied": applied,
	}).Info("Схема БД актуальна")
	return nil
}

// applyMigration возвращает false, если версия уже была применена.
func applyMigration(ctx context.Context, pool *pgxpool.Pool, version int, sql string) (bool, error) {
	applied := false
	err := InTx(ctx, pool, func(tx pgx.Tx) error {
		// Две реплики не должны накатывать одну версию одновременно
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLockKey); err != nil {
			return err
		}

		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, version,
		).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return nil
		}

		if _, err := tx.Exec(ctx, sql); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

// SQL-миграции встроены в код для упрощения деплоя.
// Номер версии = индекс в schema_migrations, порядок важен.
var migrations = []struct {
	version int
	sql     string
}{
	{1, migration001Users},
	{2, migration002Ledger},
	{3, migration003Trash},
	{4, migration004Catalog},
	{5, migration005Purchases},
	{6, migration006Progression},
	{7, migration007Vouchers},
}

var migration001Users = `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    username VARCHAR(64) NOT NULL,
    email VARCHAR(255) NOT NULL,
    email_verified BOOLEAN NOT NULL DEFAULT FALSE,
    password_hash TEXT NOT NULL,
    role VARCHAR(16) NOT NULL DEFAULT 'user',
    money BIGINT NOT NULL DEFAULT 0 CONSTRAINT users_money_non_negative CHECK (money >= 0),
    last_check_in TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT users_username_key UNIQUE (username),
    CONSTRAINT users_email_key UNIQUE (email)
);

CREATE TABLE IF NOT EXISTS question_stats (
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    material VARCHAR(32) NOT NULL,
    total INTEGER NOT NULL DEFAULT 0,
    correct INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (user_id, material)
);
`

var migration002Ledger = `
CREATE TABLE IF NOT EXISTS ledger_entries (
    id BIGSERIAL PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    amount BIGINT NOT NULL,
    kind VARCHAR(32) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    balance_after BIGINT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_ledger_entries_user ON ledger_entries(user_id, created_at DESC);
`

var migration003Trash = `
CREATE TABLE IF NOT EXISTS user_trash (
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    material VARCHAR(32) NOT NULL,
    count INTEGER NOT NULL DEFAULT 0 CHECK (count >= 0),
    PRIMARY KEY (user_id, material)
);

CREATE TABLE IF NOT EXISTS daily_trash (
    date DATE PRIMARY KEY,
    plastic INTEGER NOT NULL DEFAULT 0,
    paper INTEGER NOT NULL DEFAULT 0,
    cans INTEGER NOT NULL DEFAULT 0,
    bottles INTEGER NOT NULL DEFAULT 0,
    containers INTEGER NOT NULL DEFAULT 0,
    total INTEGER NOT NULL DEFAULT 0,
    active_users INTEGER NOT NULL DEFAULT 0,
    new_registered INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS daily_trash_users (
    date DATE NOT NULL REFERENCES daily_trash(date) ON DELETE CASCADE,
    user_id UUID NOT NULL,
    PRIMARY KEY (date, user_id)
);
`

var migration004Catalog = `
CREATE TABLE IF NOT EXISTS themes (
    id UUID PRIMARY KEY,
    name VARCHAR(128) NOT NULL UNIQUE,
    description TEXT NOT NULL DEFAULT '',
    image JSONB,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS products (
    id UUID PRIMARY KEY,
    name VARCHAR(128) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    price BIGINT NOT NULL DEFAULT 0 CHECK (price >= 0),
    theme_id UUID REFERENCES themes(id) ON DELETE SET NULL,
    theme_slot VARCHAR(32),
    recycle_requirement JSONB,
    image JSONB,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT products_name_key UNIQUE (name)
);

CREATE TABLE IF NOT EXISTS chapters (
    sequence INTEGER PRIMARY KEY CHECK (sequence >= 1),
    name VARCHAR(128) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    trash_requirement INTEGER NOT NULL DEFAULT 0 CHECK (trash_requirement >= 0),
    image JSONB,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT chapters_name_key UNIQUE (name)
);

CREATE TABLE IF NOT EXISTS levels (
    sequence INTEGER PRIMARY KEY CHECK (sequence >= 1),
    chapter_sequence INTEGER NOT NULL REFERENCES chapters(sequence) ON DELETE CASCADE,
    name VARCHAR(128) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    unlock_requirement INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT levels_name_key UNIQUE (name)
);

CREATE INDEX IF NOT EXISTS idx_levels_chapter ON levels(chapter_sequence, sequence);
`

var migration005Purchases = `
CREATE TABLE IF NOT EXISTS purchases (
    user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS purchase_products (
    user_id UUID NOT NULL REFERENCES purchases(user_id) ON DELETE CASCADE,
    product_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    method VARCHAR(16) NOT NULL,
    purchased_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (user_id, product_id)
);

CREATE TABLE IF NOT EXISTS purchase_vouchers (
    user_id UUID NOT NULL REFERENCES purchases(user_id) ON DELETE CASCADE,
    voucher_id VARCHAR(64) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (user_id, voucher_id)
);
`

var migration006Progression = `
CREATE TABLE IF NOT EXISTS user_levels (
    user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    highest_level INTEGER NOT NULL DEFAULT 0,
    chapter_progress JSONB NOT NULL DEFAULT '{}',
    level_progress JSONB NOT NULL DEFAULT '{}',
    completed_chapter JSONB NOT NULL DEFAULT '{}',
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

var migration007Vouchers = `
CREATE TABLE IF NOT EXISTS voucher_types (
    id UUID PRIMARY KEY,
    name VARCHAR(128) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    price BIGINT NOT NULL CHECK (price >= 0),
    quantity INTEGER NOT NULL CONSTRAINT voucher_types_quantity_non_negative CHECK (quantity >= 0),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT voucher_types_name_key UNIQUE (name)
);

CREATE TABLE IF NOT EXISTS vouchers (
    id UUID PRIMARY KEY,
    voucher_type_id UUID NOT NULL REFERENCES voucher_types(id) ON DELETE CASCADE,
    code VARCHAR(16) NOT NULL,
    status VARCHAR(16) NOT NULL DEFAULT 'active',
    issued_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    expires_at TIMESTAMPTZ NOT NULL,
    CONSTRAINT vouchers_code_key UNIQUE (code)
);

CREATE INDEX IF NOT EXISTS idx_vouchers_type ON vouchers(voucher_type_id);

-- Ваучер пользователя теперь ссылается на выпущенный ваучер
DELETE FROM purchase_vouchers;
ALTER TABLE purchase_vouchers
    ALTER COLUMN voucher_id TYPE UUID USING voucher_id::uuid,
    ADD CONSTRAINT purchase_vouchers_voucher_fk
        FOREIGN KEY (voucher_id) REFERENCES vouchers(id) ON DELETE CASCADE;
`
