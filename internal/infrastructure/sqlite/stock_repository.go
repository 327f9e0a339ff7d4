package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/FichesVente-api/internal/domain"
	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
	"github.com/jhoicas/FichesVente-api/internal/domain/repository"
)

var (
	_ repository.StockItemRepository        = (*StockItemRepo)(nil)
	_ repository.StockTransactionRepository = (*StockTransactionRepo)(nil)
)

type stockItemRow struct {
	ID             string          `db:"id"`
	Name           string          `db:"name"`
	NameKey        string          `db:"name_key"`
	OnHand         int             `db:"on_hand"`
	InitialOnHand  int             `db:"initial_on_hand"`
	Baseline       int             `db:"baseline"`
	AlertThreshold int             `db:"alert_threshold"`
	Unit           string          `db:"unit"`
	UnitPrice      decimal.Decimal `db:"unit_price"`
	CreatedAt      string          `db:"created_at"`
	UpdatedAt      string          `db:"updated_at"`
	DeletedAt      *string         `db:"deleted_at"`
}

func (r stockItemRow) toEntity() (*entity.StockItem, error) {
	it := &entity.StockItem{
		ID: r.ID, Name: r.Name, NameKey: r.NameKey, OnHand: r.OnHand, InitialOnHand: r.InitialOnHand,
		Baseline: r.Baseline, AlertThreshold: r.AlertThreshold, Unit: r.Unit, UnitPrice: r.UnitPrice,
	}
	var err error
	if it.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return nil, err
	}
	if it.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return nil, err
	}
	if r.DeletedAt != nil {
		d, err := parseTime(*r.DeletedAt)
		if err != nil {
			return nil, err
		}
		it.DeletedAt = &d
	}
	return it, nil
}

const stockItemColumns = `id, name, name_key, on_hand, initial_on_hand, baseline, alert_threshold,
		unit, unit_price, created_at, updated_at, deleted_at`

// StockItemRepo implementación de StockItemRepository sobre SQLite (db o tx).
type StockItemRepo struct {
	q   sqlx.ExtContext
	now func() time.Time
}

// NewStockItemRepository construye el adaptador. Pasar *sqlx.DB o *sqlx.Tx.
func NewStockItemRepository(q sqlx.ExtContext) *StockItemRepo {
	return &StockItemRepo{q: q, now: time.Now}
}

func (r *StockItemRepo) getOne(ctx context.Context, op, where string, arg string) (*entity.StockItem, error) {
	var row stockItemRow
	err := sqlx.GetContext(ctx, r.q, &row, `SELECT `+stockItemColumns+` FROM stock_items WHERE `+where, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite %s: %w", op, err)
	}
	return row.toEntity()
}

func (r *StockItemRepo) list(ctx context.Context, op, where string) ([]*entity.StockItem, error) {
	var rows []stockItemRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, `SELECT `+stockItemColumns+` FROM stock_items WHERE `+where+` ORDER BY seq`); err != nil {
		return nil, fmt.Errorf("sqlite %s: %w", op, err)
	}
	out := make([]*entity.StockItem, 0, len(rows))
	for _, row := range rows {
		it, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, nil
}

func rowsAffected(res sql.Result, err error, op string) error {
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("sqlite %s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite %s: %w", op, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *StockItemRepo) Create(ctx context.Context, it *entity.StockItem) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO stock_items (`+stockItemColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.Name, it.NameKey, it.OnHand, it.InitialOnHand, it.Baseline, it.AlertThreshold,
		it.Unit, it.UnitPrice.String(), formatTime(it.CreatedAt), formatTime(it.UpdatedAt), formatTimePtr(it.DeletedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("sqlite insert stock item: %w", err)
	}
	return nil
}

func (r *StockItemRepo) GetByID(ctx context.Context, id string) (*entity.StockItem, error) {
	return r.getOne(ctx, "get stock item", `id = ? AND deleted_at IS NULL`, id)
}

func (r *StockItemRepo) GetByNameKey(ctx context.Context, nameKey string) (*entity.StockItem, error) {
	return r.getOne(ctx, "get stock item by name", `name_key = ? AND deleted_at IS NULL`, nameKey)
}

// GetByIDForUpdate igual a GetByID: dentro de la tx la base entera ya está bloqueada para escritura.
func (r *StockItemRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.StockItem, error) {
	return r.GetByID(ctx, id)
}

func (r *StockItemRepo) GetByNameKeyForUpdate(ctx context.Context, nameKey string) (*entity.StockItem, error) {
	return r.GetByNameKey(ctx, nameKey)
}

func (r *StockItemRepo) Update(ctx context.Context, it *entity.StockItem) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE stock_items SET name = ?, name_key = ?, baseline = ?, alert_threshold = ?, unit = ?, unit_price = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		it.Name, it.NameKey, it.Baseline, it.AlertThreshold, it.Unit, it.UnitPrice.String(), formatTime(it.UpdatedAt), it.ID,
	)
	return rowsAffected(res, err, "update stock item")
}

func (r *StockItemRepo) UpdateOnHand(ctx context.Context, id string, onHand int) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE stock_items SET on_hand = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		onHand, formatTime(r.now()), id)
	if err != nil && isCheckViolation(err) {
		return fmt.Errorf("sqlite: on_hand negativo para %s: %w", id, domain.ErrInvariantViolation)
	}
	return rowsAffected(res, err, "update on_hand")
}

func (r *StockItemRepo) List(ctx context.Context) ([]*entity.StockItem, error) {
	return r.list(ctx, "list stock items", `deleted_at IS NULL`)
}

func (r *StockItemRepo) SoftDelete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE stock_items SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, formatTime(r.now()), id)
	return rowsAffected(res, err, "soft delete stock item")
}

func (r *StockItemRepo) ListDeleted(ctx context.Context) ([]*entity.StockItem, error) {
	return r.list(ctx, "list deleted stock items", `deleted_at IS NOT NULL`)
}

func (r *StockItemRepo) GetDeletedByID(ctx context.Context, id string) (*entity.StockItem, error) {
	return r.getOne(ctx, "get deleted stock item", `id = ? AND deleted_at IS NOT NULL`, id)
}

func (r *StockItemRepo) Restore(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE stock_items SET deleted_at = NULL, updated_at = ? WHERE id = ? AND deleted_at IS NOT NULL`, formatTime(r.now()), id)
	return rowsAffected(res, err, "restore stock item")
}

func (r *StockItemRepo) Purge(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM stock_items WHERE id = ?`, id)
	return rowsAffected(res, err, "purge stock item")
}

type stockTxnRow struct {
	ID          string `db:"id"`
	StockItemID string `db:"stock_item_id"`
	ItemName    string `db:"item_name"`
	Kind        string `db:"kind"`
	Quantity    int    `db:"quantity"`
	Reason      string `db:"reason"`
	SaleID      string `db:"sale_id"`
	Operator    string `db:"operator"`
	CreatedAt   string `db:"created_at"`
}

const stockTxnColumns = `id, stock_item_id, item_name, kind, quantity, reason, sale_id, operator, created_at`

// StockTransactionRepo libro de movimientos sobre SQLite.
type StockTransactionRepo struct {
	q sqlx.ExtContext
}

// NewStockTransactionRepository construye el adaptador. Pasar *sqlx.DB o *sqlx.Tx.
func NewStockTransactionRepository(q sqlx.ExtContext) *StockTransactionRepo {
	return &StockTransactionRepo{q: q}
}

func (r *StockTransactionRepo) Create(ctx context.Context, t *entity.StockTransaction) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO stock_transactions (`+stockTxnColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.StockItemID, t.ItemName, t.Kind, t.Quantity, t.Reason, t.SaleID, t.Operator, formatTime(t.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite insert stock transaction: %w", err)
	}
	return nil
}

func (r *StockTransactionRepo) ListByItem(ctx context.Context, stockItemID string) ([]*entity.StockTransaction, error) {
	var rows []stockTxnRow
	err := sqlx.SelectContext(ctx, r.q, &rows,
		`SELECT `+stockTxnColumns+` FROM stock_transactions WHERE stock_item_id = ? ORDER BY seq`, stockItemID)
	if err != nil {
		return nil, fmt.Errorf("sqlite list stock transactions by item: %w", err)
	}
	return toTransactions(rows)
}

// List más recientes primero; limit <= 0 = sin límite (-1 en SQLite).
func (r *StockTransactionRepo) List(ctx context.Context, limit, offset int) ([]*entity.StockTransaction, error) {
	if limit <= 0 {
		limit = -1
	}
	var rows []stockTxnRow
	err := sqlx.SelectContext(ctx, r.q, &rows,
		`SELECT `+stockTxnColumns+` FROM stock_transactions ORDER BY seq DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("sqlite list stock transactions: %w", err)
	}
	return toTransactions(rows)
}

func toTransactions(rows []stockTxnRow) ([]*entity.StockTransaction, error) {
	out := make([]*entity.StockTransaction, 0, len(rows))
	for _, row := range rows {
		created, err := parseTime(row.CreatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, &entity.StockTransaction{
			ID: row.ID, StockItemID: row.StockItemID, ItemName: row.ItemName, Kind: row.Kind,
			Quantity: row.Quantity, Reason: row.Reason, SaleID: row.SaleID, Operator: row.Operator, CreatedAt: created,
		})
	}
	return out, nil
}
