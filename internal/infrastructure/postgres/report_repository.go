package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/FichesVente-api/internal/domain"
	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
	"github.com/jhoicas/FichesVente-api/internal/domain/repository"
)

var _ repository.ReportRepository = (*ReportRepo)(nil)

// ReportRepo reportes guardados; el resumen se serializa en JSONB.
type ReportRepo struct {
	q Querier
}

// NewReportRepository construye el adaptador de reportes.
func NewReportRepository(q Querier) *ReportRepo {
	return &ReportRepo{q: q}
}

const reportColumns = `id, period, period_start, period_end, summary, generated_by, generated_at`

func scanReport(row pgx.Row) (*entity.SalesReport, error) {
	var rep entity.SalesReport
	var summary []byte
	var by *string
	if err := row.Scan(&rep.ID, &rep.Period, &rep.PeriodStart, &rep.PeriodEnd, &summary, &by, &rep.GeneratedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(summary, &rep.Summary); err != nil {
		return nil, fmt.Errorf("decode summary de %s: %w", rep.ID, err)
	}
	rep.GeneratedBy = derefString(by)
	return &rep, nil
}

// Create persiste un reporte.
func (r *ReportRepo) Create(ctx context.Context, rep *entity.SalesReport) error {
	summary, err := json.Marshal(rep.Summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	_, err = r.q.Exec(ctx,
		`INSERT INTO sales_reports (`+reportColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rep.ID, rep.Period, rep.PeriodStart, rep.PeriodEnd, summary, nullIfEmpty(rep.GeneratedBy), rep.GeneratedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// GetByID obtiene un reporte por ID.
func (r *ReportRepo) GetByID(ctx context.Context, id string) (*entity.SalesReport, error) {
	rep, err := scanReport(r.q.QueryRow(ctx, `SELECT `+reportColumns+` FROM sales_reports WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get report: %w", err)
	}
	return rep, nil
}

// List reportes, más recientes primero.
func (r *ReportRepo) List(ctx context.Context) ([]*entity.SalesReport, error) {
	rows, err := r.q.Query(ctx, `SELECT `+reportColumns+` FROM sales_reports ORDER BY generated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.SalesReport, 0)
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		list = append(list, rep)
	}
	return list, rows.Err()
}

// Delete elimina un reporte.
func (r *ReportRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM sales_reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
