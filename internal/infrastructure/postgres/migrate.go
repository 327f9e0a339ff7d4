package postgres

import (
	"context"
	"fmt"
)

// schema sentencias idempotentes; se ejecutan en orden al arrancar.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS stock_items (
		seq             BIGSERIAL,
		id              TEXT PRIMARY KEY,
		name            TEXT NOT NULL,
		name_key        TEXT NOT NULL,
		on_hand         INTEGER NOT NULL CHECK (on_hand >= 0),
		initial_on_hand INTEGER NOT NULL CHECK (initial_on_hand >= 0),
		baseline        INTEGER NOT NULL CHECK (baseline >= 0),
		alert_threshold INTEGER NOT NULL CHECK (alert_threshold >= 0),
		unit            TEXT NOT NULL,
		unit_price      NUMERIC(14,2) NOT NULL DEFAULT 0,
		created_at      TIMESTAMPTZ NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL,
		deleted_at      TIMESTAMPTZ
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS stock_items_name_key_active
		ON stock_items (name_key) WHERE deleted_at IS NULL`,
	// stock_item_id sin FK: los movimientos sobreviven al borrado definitivo del artículo
	`CREATE TABLE IF NOT EXISTS stock_transactions (
		seq           BIGSERIAL,
		id            TEXT PRIMARY KEY,
		stock_item_id TEXT NOT NULL,
		item_name     TEXT NOT NULL,
		kind          TEXT NOT NULL CHECK (kind IN ('IN', 'OUT')),
		quantity      INTEGER NOT NULL CHECK (quantity > 0),
		reason        TEXT NOT NULL,
		sale_id       TEXT,
		operator      TEXT,
		created_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS stock_transactions_item ON stock_transactions (stock_item_id, seq)`,
	`CREATE TABLE IF NOT EXISTS sales (
		id               TEXT PRIMARY KEY,
		sale_date        TIMESTAMPTZ NOT NULL,
		customer_phone   TEXT NOT NULL,
		customer_phone2  TEXT,
		delivery_address TEXT NOT NULL,
		courier          TEXT NOT NULL,
		payment_method   TEXT NOT NULL,
		payment_method2  TEXT,
		items            JSONB NOT NULL,
		status           TEXT NOT NULL,
		is_validated     BOOLEAN NOT NULL DEFAULT FALSE,
		created_by       TEXT,
		created_at       TIMESTAMPTZ NOT NULL,
		updated_at       TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS sales_sale_date ON sales (sale_date DESC)`,
	`CREATE TABLE IF NOT EXISTS sales_reports (
		id           TEXT PRIMARY KEY,
		period       TEXT NOT NULL,
		period_start TIMESTAMPTZ NOT NULL,
		period_end   TIMESTAMPTZ NOT NULL,
		summary      JSONB NOT NULL,
		generated_by TEXT,
		generated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		seq                BIGSERIAL,
		id                 TEXT PRIMARY KEY,
		username           TEXT NOT NULL,
		password_hash      TEXT NOT NULL,
		first_name         TEXT NOT NULL DEFAULT '',
		last_name          TEXT NOT NULL DEFAULT '',
		phone              TEXT NOT NULL DEFAULT '',
		email              TEXT NOT NULL DEFAULT '',
		role               TEXT NOT NULL,
		is_active          BOOLEAN NOT NULL DEFAULT TRUE,
		two_factor_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		created_at         TIMESTAMPTZ NOT NULL,
		updated_at         TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_username_lower ON users (lower(username))`,
}

// Migrate crea tablas e índices si no existen.
func Migrate(ctx context.Context, q Querier) error {
	for i, stmt := range schema {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migración %d: %w", i, err)
		}
	}
	return nil
}
