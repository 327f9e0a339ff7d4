package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jhoicas/FichesVente-api/internal/domain"
	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
	"github.com/jhoicas/FichesVente-api/internal/domain/repository"
)

var _ repository.ReportRepository = (*ReportRepo)(nil)

type reportRow struct {
	ID          string `db:"id"`
	Period      string `db:"period"`
	PeriodStart string `db:"period_start"`
	PeriodEnd   string `db:"period_end"`
	Summary     string `db:"summary"`
	GeneratedBy string `db:"generated_by"`
	GeneratedAt string `db:"generated_at"`
}

func (r reportRow) toEntity() (*entity.SalesReport, error) {
	rep := &entity.SalesReport{ID: r.ID, Period: r.Period, GeneratedBy: r.GeneratedBy}
	if err := json.Unmarshal([]byte(r.Summary), &rep.Summary); err != nil {
		return nil, fmt.Errorf("sqlite: decode summary de %s: %w", r.ID, err)
	}
	var err error
	if rep.PeriodStart, err = parseTime(r.PeriodStart); err != nil {
		return nil, err
	}
	if rep.PeriodEnd, err = parseTime(r.PeriodEnd); err != nil {
		return nil, err
	}
	if rep.GeneratedAt, err = parseTime(r.GeneratedAt); err != nil {
		return nil, err
	}
	return rep, nil
}

const reportColumns = `id, period, period_start, period_end, summary, generated_by, generated_at`

// ReportRepo reportes guardados sobre SQLite.
type ReportRepo struct {
	q sqlx.ExtContext
}

// NewReportRepository construye el adaptador de reportes.
func NewReportRepository(q sqlx.ExtContext) *ReportRepo {
	return &ReportRepo{q: q}
}

func (r *ReportRepo) Create(ctx context.Context, rep *entity.SalesReport) error {
	summary, err := json.Marshal(rep.Summary)
	if err != nil {
		return fmt.Errorf("sqlite: encode summary: %w", err)
	}
	_, err = r.q.ExecContext(ctx,
		`INSERT INTO sales_reports (`+reportColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rep.ID, rep.Period, formatTime(rep.PeriodStart), formatTime(rep.PeriodEnd), string(summary),
		rep.GeneratedBy, formatTime(rep.GeneratedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("sqlite insert report: %w", err)
	}
	return nil
}

func (r *ReportRepo) GetByID(ctx context.Context, id string) (*entity.SalesReport, error) {
	var row reportRow
	if err := sqlx.GetContext(ctx, r.q, &row, `SELECT `+reportColumns+` FROM sales_reports WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite get report: %w", err)
	}
	return row.toEntity()
}

func (r *ReportRepo) List(ctx context.Context) ([]*entity.SalesReport, error) {
	var rows []reportRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, `SELECT `+reportColumns+` FROM sales_reports ORDER BY generated_at DESC, id`); err != nil {
		return nil, fmt.Errorf("sqlite list reports: %w", err)
	}
	out := make([]*entity.SalesReport, 0, len(rows))
	for _, row := range rows {
		rep, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, nil
}

func (r *ReportRepo) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM sales_reports WHERE id = ?`, id)
	return rowsAffected(res, err, "delete report")
}
