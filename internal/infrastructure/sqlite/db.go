// Package sqlite implementa los puertos de persistencia sobre un archivo SQLite local (sqlx + modernc).
// Se usa como almacén de respaldo cuando PostgreSQL no está disponible.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
)

// timeLayout ancho fijo en UTC: el orden lexicográfico coincide con el cronológico.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Open abre (o crea) la base SQLite en path. ":memory:" sirve para tests.
// Una sola conexión: las transacciones quedan serializadas y BEGIN toma el lock de escritura.
func Open(path string) (*sqlx.DB, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
	}
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: abrir %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS stock_items (
		seq             INTEGER PRIMARY KEY AUTOINCREMENT,
		id              TEXT NOT NULL UNIQUE,
		name            TEXT NOT NULL,
		name_key        TEXT NOT NULL,
		on_hand         INTEGER NOT NULL CHECK (on_hand >= 0),
		initial_on_hand INTEGER NOT NULL,
		baseline        INTEGER NOT NULL,
		alert_threshold INTEGER NOT NULL,
		unit            TEXT NOT NULL,
		unit_price      TEXT NOT NULL DEFAULT '0',
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL,
		deleted_at      TEXT
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS stock_items_name_key_active
		ON stock_items (name_key) WHERE deleted_at IS NULL`,
	`CREATE TABLE IF NOT EXISTS stock_transactions (
		seq           INTEGER PRIMARY KEY AUTOINCREMENT,
		id            TEXT NOT NULL UNIQUE,
		stock_item_id TEXT NOT NULL,
		item_name     TEXT NOT NULL,
		kind          TEXT NOT NULL,
		quantity      INTEGER NOT NULL CHECK (quantity > 0),
		reason        TEXT NOT NULL,
		sale_id       TEXT NOT NULL DEFAULT '',
		operator      TEXT NOT NULL DEFAULT '',
		created_at    TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS stock_transactions_item ON stock_transactions (stock_item_id, seq)`,
	`CREATE TABLE IF NOT EXISTS sales (
		id               TEXT PRIMARY KEY,
		sale_date        TEXT NOT NULL,
		customer_phone   TEXT NOT NULL,
		customer_phone2  TEXT NOT NULL DEFAULT '',
		delivery_address TEXT NOT NULL,
		courier          TEXT NOT NULL,
		payment_method   TEXT NOT NULL,
		payment_method2  TEXT NOT NULL DEFAULT '',
		items            TEXT NOT NULL,
		status           TEXT NOT NULL,
		is_validated     INTEGER NOT NULL DEFAULT 0,
		created_by       TEXT NOT NULL DEFAULT '',
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS sales_sale_date ON sales (sale_date)`,
	`CREATE TABLE IF NOT EXISTS sales_reports (
		id           TEXT PRIMARY KEY,
		period       TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end   TEXT NOT NULL,
		summary      TEXT NOT NULL,
		generated_by TEXT NOT NULL DEFAULT '',
		generated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		seq                INTEGER PRIMARY KEY AUTOINCREMENT,
		id                 TEXT NOT NULL UNIQUE,
		username           TEXT NOT NULL,
		password_hash      TEXT NOT NULL,
		first_name         TEXT NOT NULL DEFAULT '',
		last_name          TEXT NOT NULL DEFAULT '',
		phone              TEXT NOT NULL DEFAULT '',
		email              TEXT NOT NULL DEFAULT '',
		role               TEXT NOT NULL,
		is_active          INTEGER NOT NULL DEFAULT 1,
		two_factor_enabled INTEGER NOT NULL DEFAULT 0,
		created_at         TEXT NOT NULL,
		updated_at         TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_username_nocase ON users (username COLLATE NOCASE)`,
}

// Migrate crea tablas e índices si no existen.
func Migrate(ctx context.Context, db sqlx.ExecerContext) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: migración %d: %w", i, err)
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Parse(time.RFC3339Nano, s)
	}
	return t, nil
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

// Códigos extendidos de SQLite para violaciones de constraint.
const (
	codeConstraintCheck      = 275
	codeConstraintPrimaryKey = 1555
	codeConstraintUnique     = 2067
)

func constraintCode(err error) int {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()
	}
	return 0
}

func isUniqueViolation(err error) bool {
	switch constraintCode(err) {
	case codeConstraintUnique, codeConstraintPrimaryKey:
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isCheckViolation(err error) bool {
	return constraintCode(err) == codeConstraintCheck || strings.Contains(err.Error(), "CHECK constraint failed")
}
