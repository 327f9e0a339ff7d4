package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/FichesVente-api/internal/domain"
	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
	"github.com/jhoicas/FichesVente-api/internal/domain/repository"
	"github.com/jhoicas/FichesVente-api/internal/domain/sale"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

const saleColumns = `id, sale_date, customer_phone, customer_phone2, delivery_address, courier,
		payment_method, payment_method2, items, status, is_validated, created_by, created_at, updated_at`

// SaleRepo implementación de SaleRepository sobre PostgreSQL. Las líneas van en una columna JSONB.
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador de ventas.
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

func scanSale(row pgx.Row) (*entity.Sale, error) {
	var s entity.Sale
	var phone2, pay2, createdBy *string
	var items []byte
	if err := row.Scan(
		&s.ID, &s.SaleDate, &s.CustomerPhone, &phone2, &s.DeliveryAddress, &s.Courier,
		&s.PaymentMethod, &pay2, &items, &s.Status, &s.IsValidated, &createdBy, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &s.Items); err != nil {
		return nil, fmt.Errorf("decode items de %s: %w", s.ID, err)
	}
	s.CustomerPhone2 = derefString(phone2)
	s.PaymentMethod2 = derefString(pay2)
	s.CreatedBy = derefString(createdBy)
	s.Status = sale.NormalizeStatus(s.Status)
	return &s, nil
}

// Create persiste la venta con sus líneas.
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	items, err := json.Marshal(s.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	query := `
		INSERT INTO sales (` + saleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err = r.q.Exec(ctx, query,
		s.ID, s.SaleDate, s.CustomerPhone, nullIfEmpty(s.CustomerPhone2), s.DeliveryAddress, s.Courier,
		s.PaymentMethod, nullIfEmpty(s.PaymentMethod2), items, sale.NormalizeStatus(s.Status), s.IsValidated,
		nullIfEmpty(s.CreatedBy), s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

// GetByID obtiene una venta por ID (incluidas las DELETED).
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	s, err := scanSale(r.q.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	return s, nil
}

// Update reescribe solo metadatos de una venta editable (ACTIVE o PENDING sin validar).
// Las líneas, el estado y la validación no cambian aquí.
func (r *SaleRepo) Update(ctx context.Context, s *entity.Sale) error {
	query := `
		UPDATE sales
		SET sale_date = $2, customer_phone = $3, customer_phone2 = $4, delivery_address = $5, courier = $6,
			payment_method = $7, payment_method2 = $8, updated_at = $9
		WHERE id = $1 AND status IN ($10, $11) AND NOT is_validated`
	tag, err := r.q.Exec(ctx, query,
		s.ID, s.SaleDate, s.CustomerPhone, nullIfEmpty(s.CustomerPhone2), s.DeliveryAddress, s.Courier,
		s.PaymentMethod, nullIfEmpty(s.PaymentMethod2), s.UpdatedAt,
		entity.SaleStatusActive, entity.SaleStatusPending,
	)
	if err != nil {
		return fmt.Errorf("update sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

// UpdateStatus aplica el cambio de estado solo si la fila sigue en el estado esperado.
func (r *SaleRepo) UpdateStatus(ctx context.Context, ch repository.StatusChange) (bool, error) {
	query := `
		UPDATE sales
		SET status = $4, is_validated = $5, updated_at = $6
		WHERE id = $1 AND status = $2 AND is_validated = $3`
	tag, err := r.q.Exec(ctx, query, ch.ID, ch.From, ch.FromValidated, ch.To, ch.ToValidated, ch.At)
	if err != nil {
		return false, fmt.Errorf("update sale status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// List ventas filtradas por estado y rango de fecha de venta, más recientes primero.
func (r *SaleRepo) List(ctx context.Context, f repository.SaleFilter) ([]*entity.Sale, error) {
	var where []string
	var args []any
	if len(f.Statuses) > 0 {
		args = append(args, f.Statuses)
		where = append(where, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if f.From != nil {
		args = append(args, *f.From)
		where = append(where, fmt.Sprintf("sale_date >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		where = append(where, fmt.Sprintf("sale_date <= $%d", len(args)))
	}
	query := `SELECT ` + saleColumns + ` FROM sales`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY sale_date DESC, created_at DESC, id DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Sale, 0)
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
