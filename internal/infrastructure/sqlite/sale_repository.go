package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/jhoicas/FichesVente-api/internal/domain"
	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
	"github.com/jhoicas/FichesVente-api/internal/domain/repository"
	"github.com/jhoicas/FichesVente-api/internal/domain/sale"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

type saleRow struct {
	ID              string `db:"id"`
	SaleDate        string `db:"sale_date"`
	CustomerPhone   string `db:"customer_phone"`
	CustomerPhone2  string `db:"customer_phone2"`
	DeliveryAddress string `db:"delivery_address"`
	Courier         string `db:"courier"`
	PaymentMethod   string `db:"payment_method"`
	PaymentMethod2  string `db:"payment_method2"`
	Items           string `db:"items"`
	Status          string `db:"status"`
	IsValidated     bool   `db:"is_validated"`
	CreatedBy       string `db:"created_by"`
	CreatedAt       string `db:"created_at"`
	UpdatedAt       string `db:"updated_at"`
}

func (r saleRow) toEntity() (*entity.Sale, error) {
	s := &entity.Sale{
		ID: r.ID, CustomerPhone: r.CustomerPhone, CustomerPhone2: r.CustomerPhone2,
		DeliveryAddress: r.DeliveryAddress, Courier: r.Courier, PaymentMethod: r.PaymentMethod,
		PaymentMethod2: r.PaymentMethod2, Status: sale.NormalizeStatus(r.Status), IsValidated: r.IsValidated,
		CreatedBy: r.CreatedBy,
	}
	if err := json.Unmarshal([]byte(r.Items), &s.Items); err != nil {
		return nil, fmt.Errorf("sqlite: decode items de %s: %w", r.ID, err)
	}
	var err error
	if s.SaleDate, err = parseTime(r.SaleDate); err != nil {
		return nil, err
	}
	if s.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return nil, err
	}
	if s.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return nil, err
	}
	return s, nil
}

const saleColumns = `id, sale_date, customer_phone, customer_phone2, delivery_address, courier,
		payment_method, payment_method2, items, status, is_validated, created_by, created_at, updated_at`

// SaleRepo ventas sobre SQLite; las líneas se guardan como JSON en una columna TEXT.
type SaleRepo struct {
	q sqlx.ExtContext
}

// NewSaleRepository construye el adaptador de ventas.
func NewSaleRepository(q sqlx.ExtContext) *SaleRepo {
	return &SaleRepo{q: q}
}

func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	items, err := json.Marshal(s.Items)
	if err != nil {
		return fmt.Errorf("sqlite: encode items: %w", err)
	}
	_, err = r.q.ExecContext(ctx,
		`INSERT INTO sales (`+saleColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, formatTime(s.SaleDate), s.CustomerPhone, s.CustomerPhone2, s.DeliveryAddress, s.Courier,
		s.PaymentMethod, s.PaymentMethod2, string(items), sale.NormalizeStatus(s.Status), s.IsValidated,
		s.CreatedBy, formatTime(s.CreatedAt), formatTime(s.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("sqlite insert sale: %w", err)
	}
	return nil
}

func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	var row saleRow
	if err := sqlx.GetContext(ctx, r.q, &row, `SELECT `+saleColumns+` FROM sales WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite get sale: %w", err)
	}
	return row.toEntity()
}

// Update solo metadatos; exige venta ACTIVE o PENDING sin validar.
func (r *SaleRepo) Update(ctx context.Context, s *entity.Sale) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE sales SET sale_date = ?, customer_phone = ?, customer_phone2 = ?, delivery_address = ?, courier = ?,
			payment_method = ?, payment_method2 = ?, updated_at = ?
		WHERE id = ? AND status IN (?, ?) AND is_validated = ?`,
		formatTime(s.SaleDate), s.CustomerPhone, s.CustomerPhone2, s.DeliveryAddress, s.Courier,
		s.PaymentMethod, s.PaymentMethod2, formatTime(s.UpdatedAt), s.ID,
		entity.SaleStatusActive, entity.SaleStatusPending, false,
	)
	if err := rowsAffected(res, err, "update sale"); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

// UpdateStatus compare-and-set sobre status e is_validated.
func (r *SaleRepo) UpdateStatus(ctx context.Context, ch repository.StatusChange) (bool, error) {
	res, err := r.q.ExecContext(ctx,
		`UPDATE sales SET status = ?, is_validated = ?, updated_at = ?
		WHERE id = ? AND status = ? AND is_validated = ?`,
		ch.To, ch.ToValidated, formatTime(ch.At), ch.ID, ch.From, ch.FromValidated,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite update sale status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite update sale status: %w", err)
	}
	return n == 1, nil
}

func (r *SaleRepo) List(ctx context.Context, f repository.SaleFilter) ([]*entity.Sale, error) {
	var where []string
	var args []any
	if len(f.Statuses) > 0 {
		q, a, err := sqlx.In(`status IN (?)`, f.Statuses)
		if err != nil {
			return nil, fmt.Errorf("sqlite list sales: %w", err)
		}
		where = append(where, q)
		args = append(args, a...)
	}
	if f.From != nil {
		where = append(where, `sale_date >= ?`)
		args = append(args, formatTime(*f.From))
	}
	if f.To != nil {
		where = append(where, `sale_date <= ?`)
		args = append(args, formatTime(*f.To))
	}
	query := `SELECT ` + saleColumns + ` FROM sales`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY sale_date DESC, created_at DESC, id DESC`
	if f.Limit > 0 || f.Offset > 0 {
		limit := f.Limit
		if limit <= 0 {
			limit = -1
		}
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, f.Offset)
	}

	var rows []saleRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, r.q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("sqlite list sales: %w", err)
	}
	out := make([]*entity.Sale, 0, len(rows))
	for _, row := range rows {
		s, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
