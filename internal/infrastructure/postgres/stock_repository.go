package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/FichesVente-api/internal/domain"
	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
	"github.com/jhoicas/FichesVente-api/internal/domain/repository"
)

var (
	_ repository.StockItemRepository        = (*StockItemRepo)(nil)
	_ repository.StockTransactionRepository = (*StockTransactionRepo)(nil)
)

const stockItemColumns = `id, name, name_key, on_hand, initial_on_hand, baseline, alert_threshold,
		unit, unit_price, created_at, updated_at, deleted_at`

// StockItemRepo implementación de StockItemRepository sobre PostgreSQL (usable con pool o tx).
type StockItemRepo struct {
	q Querier
}

// NewStockItemRepository construye el adaptador de artículos. Pasar pool o tx (Querier).
func NewStockItemRepository(q Querier) *StockItemRepo {
	return &StockItemRepo{q: q}
}

func scanStockItem(row pgx.Row) (*entity.StockItem, error) {
	var it entity.StockItem
	err := row.Scan(
		&it.ID, &it.Name, &it.NameKey, &it.OnHand, &it.InitialOnHand, &it.Baseline, &it.AlertThreshold,
		&it.Unit, &it.UnitPrice, &it.CreatedAt, &it.UpdatedAt, &it.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *StockItemRepo) getOne(ctx context.Context, op, query string, arg string) (*entity.StockItem, error) {
	it, err := scanStockItem(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return it, nil
}

func (r *StockItemRepo) list(ctx context.Context, op, query string) ([]*entity.StockItem, error) {
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	list := make([]*entity.StockItem, 0)
	for rows.Next() {
		it, err := scanStockItem(rows)
		if err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		list = append(list, it)
	}
	return list, rows.Err()
}

// Create persiste un artículo nuevo. Nombre repetido entre activos -> ErrDuplicate.
func (r *StockItemRepo) Create(ctx context.Context, it *entity.StockItem) error {
	query := `
		INSERT INTO stock_items (` + stockItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		it.ID, it.Name, it.NameKey, it.OnHand, it.InitialOnHand, it.Baseline, it.AlertThreshold,
		it.Unit, it.UnitPrice, it.CreatedAt, it.UpdatedAt, it.DeletedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert stock item: %w", err)
	}
	return nil
}

// GetByID obtiene un artículo activo por ID.
func (r *StockItemRepo) GetByID(ctx context.Context, id string) (*entity.StockItem, error) {
	return r.getOne(ctx, "get stock item",
		`SELECT `+stockItemColumns+` FROM stock_items WHERE id = $1 AND deleted_at IS NULL`, id)
}

// GetByNameKey obtiene un artículo activo por nombre normalizado.
func (r *StockItemRepo) GetByNameKey(ctx context.Context, nameKey string) (*entity.StockItem, error) {
	return r.getOne(ctx, "get stock item by name",
		`SELECT `+stockItemColumns+` FROM stock_items WHERE name_key = $1 AND deleted_at IS NULL`, nameKey)
}

// GetByIDForUpdate obtiene el artículo y bloquea la fila (SELECT FOR UPDATE).
func (r *StockItemRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.StockItem, error) {
	return r.getOne(ctx, "get stock item for update",
		`SELECT `+stockItemColumns+` FROM stock_items WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, id)
}

// GetByNameKeyForUpdate obtiene el artículo por nombre y bloquea la fila.
func (r *StockItemRepo) GetByNameKeyForUpdate(ctx context.Context, nameKey string) (*entity.StockItem, error) {
	return r.getOne(ctx, "get stock item by name for update",
		`SELECT `+stockItemColumns+` FROM stock_items WHERE name_key = $1 AND deleted_at IS NULL FOR UPDATE`, nameKey)
}

// Update persiste los campos descriptivos; on_hand queda fuera a propósito.
func (r *StockItemRepo) Update(ctx context.Context, it *entity.StockItem) error {
	query := `
		UPDATE stock_items
		SET name = $2, name_key = $3, baseline = $4, alert_threshold = $5, unit = $6, unit_price = $7, updated_at = $8
		WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.q.Exec(ctx, query,
		it.ID, it.Name, it.NameKey, it.Baseline, it.AlertThreshold, it.Unit, it.UnitPrice, it.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update stock item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateOnHand escribe la cantidad disponible. El CHECK de la tabla rechaza negativos.
func (r *StockItemRepo) UpdateOnHand(ctx context.Context, id string, onHand int) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE stock_items SET on_hand = $2, updated_at = now() WHERE id = $1 AND deleted_at IS NULL`,
		id, onHand)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("on_hand negativo para %s: %w", id, domain.ErrInvariantViolation)
		}
		return fmt.Errorf("update on_hand: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List artículos activos en orden de creación.
func (r *StockItemRepo) List(ctx context.Context) ([]*entity.StockItem, error) {
	return r.list(ctx, "list stock items",
		`SELECT `+stockItemColumns+` FROM stock_items WHERE deleted_at IS NULL ORDER BY seq`)
}

// SoftDelete mueve el artículo a la papelera.
func (r *StockItemRepo) SoftDelete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE stock_items SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("soft delete stock item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListDeleted artículos en papelera.
func (r *StockItemRepo) ListDeleted(ctx context.Context) ([]*entity.StockItem, error) {
	return r.list(ctx, "list deleted stock items",
		`SELECT `+stockItemColumns+` FROM stock_items WHERE deleted_at IS NOT NULL ORDER BY seq`)
}

// GetDeletedByID obtiene un artículo de la papelera.
func (r *StockItemRepo) GetDeletedByID(ctx context.Context, id string) (*entity.StockItem, error) {
	return r.getOne(ctx, "get deleted stock item",
		`SELECT `+stockItemColumns+` FROM stock_items WHERE id = $1 AND deleted_at IS NOT NULL`, id)
}

// Restore saca el artículo de la papelera; el índice parcial detecta el nombre repetido.
func (r *StockItemRepo) Restore(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE stock_items SET deleted_at = NULL, updated_at = now() WHERE id = $1 AND deleted_at IS NOT NULL`, id)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("restore stock item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Purge borra la fila; los movimientos se conservan.
func (r *StockItemRepo) Purge(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM stock_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("purge stock item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// StockTransactionRepo libro de movimientos sobre PostgreSQL.
type StockTransactionRepo struct {
	q Querier
}

// NewStockTransactionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockTransactionRepository(q Querier) *StockTransactionRepo {
	return &StockTransactionRepo{q: q}
}

const stockTxnColumns = `id, stock_item_id, item_name, kind, quantity, reason, sale_id, operator, created_at`

// Create registra un movimiento (solo inserción).
func (r *StockTransactionRepo) Create(ctx context.Context, t *entity.StockTransaction) error {
	query := `
		INSERT INTO stock_transactions (` + stockTxnColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.StockItemID, t.ItemName, t.Kind, t.Quantity, t.Reason,
		nullIfEmpty(t.SaleID), nullIfEmpty(t.Operator), t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert stock transaction: %w", err)
	}
	return nil
}

// ListByItem movimientos de un artículo en orden cronológico.
func (r *StockTransactionRepo) ListByItem(ctx context.Context, stockItemID string) ([]*entity.StockTransaction, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+stockTxnColumns+` FROM stock_transactions WHERE stock_item_id = $1 ORDER BY seq`, stockItemID)
	if err != nil {
		return nil, fmt.Errorf("list stock transactions by item: %w", err)
	}
	return scanStockTransactions(rows)
}

// List movimientos más recientes primero. limit <= 0 = sin límite.
func (r *StockTransactionRepo) List(ctx context.Context, limit, offset int) ([]*entity.StockTransaction, error) {
	var lim *int
	if limit > 0 {
		lim = &limit
	}
	rows, err := r.q.Query(ctx,
		`SELECT `+stockTxnColumns+` FROM stock_transactions ORDER BY seq DESC LIMIT $1 OFFSET $2`, lim, offset)
	if err != nil {
		return nil, fmt.Errorf("list stock transactions: %w", err)
	}
	return scanStockTransactions(rows)
}

func scanStockTransactions(rows pgx.Rows) ([]*entity.StockTransaction, error) {
	defer rows.Close()
	list := make([]*entity.StockTransaction, 0)
	for rows.Next() {
		var t entity.StockTransaction
		var saleID, operator *string
		if err := rows.Scan(
			&t.ID, &t.StockItemID, &t.ItemName, &t.Kind, &t.Quantity, &t.Reason, &saleID, &operator, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan stock transaction: %w", err)
		}
		t.SaleID = derefString(saleID)
		t.Operator = derefString(operator)
		list = append(list, &t)
	}
	return list, rows.Err()
}
